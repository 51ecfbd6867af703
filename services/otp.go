package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"YourWheels/apperr"
	"YourWheels/kv"
	"YourWheels/utils"
)

const (
	OTPLifetime = 5 * time.Minute
	// otpGrace keeps an expired code around briefly so Verify can answer
	// Expired rather than NotFound.
	otpGrace = time.Minute
	// MaxOTPAttempts wrong guesses burn the outstanding code.
	MaxOTPAttempts = 5
)

type OTPMailer interface {
	SendOTP(ctx context.Context, email, code string) error
}

type otpRecord struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type OTPService struct {
	codes   kv.Store
	mailer  OTPMailer
	now     func() time.Time
	newCode func() (string, error)
	log     *zap.Logger
}

func NewOTPService(codes kv.Store, mailer OTPMailer, log *zap.Logger) *OTPService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OTPService{
		codes:   codes,
		mailer:  mailer,
		now:     time.Now,
		newCode: sixDigitCode,
		log:     log.Named("otp"),
	}
}

func sixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func otpKey(email string) string {
	return "otp:" + utils.NormalizeEmail(email)
}

func attemptsKey(email string) string {
	return otpKey(email) + ":attempts"
}

// forget drops the code and its failure counter.
func (s *OTPService) forget(ctx context.Context, email string) {
	for _, k := range []string{otpKey(email), attemptsKey(email)} {
		if _, err := s.codes.Delete(ctx, k); err != nil {
			s.log.Warn("otp cleanup failed", zap.String("key", k), zap.Error(err))
		}
	}
}

// Issue generates a code for email, replacing any outstanding one, and mails
// it.
func (s *OTPService) Issue(ctx context.Context, email string) error {
	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	rec, err := json.Marshal(otpRecord{Code: code, ExpiresAt: s.now().Add(OTPLifetime)})
	if err != nil {
		return err
	}
	if _, err := s.codes.Delete(ctx, attemptsKey(email)); err != nil {
		return apperr.E(apperr.Upstream, "Failed to store OTP", err)
	}
	if err := s.codes.Set(ctx, otpKey(email), rec, OTPLifetime+otpGrace); err != nil {
		return apperr.E(apperr.Upstream, "Failed to store OTP", err)
	}

	if err := s.mailer.SendOTP(ctx, utils.NormalizeEmail(email), code); err != nil {
		s.log.Warn("otp delivery failed", zap.String("email", email), zap.Error(err))
		s.forget(ctx, email)
		return apperr.E(apperr.Upstream, "Failed to send OTP", err)
	}
	return nil
}

// Verify redeems code. A code is consumed by the first successful call only.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	key := otpKey(email)
	raw, err := s.codes.Get(ctx, key)
	if errors.Is(err, kv.ErrMiss) {
		return apperr.E(apperr.NotFound, "OTP not found", nil)
	}
	if err != nil {
		return apperr.E(apperr.Upstream, "Failed to read OTP", err)
	}

	var rec otpRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("decode otp: %w", err)
	}
	if s.now().After(rec.ExpiresAt) {
		if _, err := s.codes.Delete(ctx, key); err != nil {
			s.log.Warn("otp cleanup failed", zap.Error(err))
		}
		return apperr.E(apperr.Expired, "OTP expired", nil)
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		return s.miss(ctx, email)
	}

	removed, err := s.codes.Delete(ctx, key)
	if err != nil {
		return apperr.E(apperr.Upstream, "Failed to consume OTP", err)
	}
	if !removed {
		return apperr.E(apperr.NotFound, "OTP not found", nil)
	}
	if _, err := s.codes.Delete(ctx, attemptsKey(email)); err != nil {
		s.log.Warn("otp cleanup failed", zap.Error(err))
	}
	return nil
}

// miss counts a wrong guess. The guess that reaches MaxOTPAttempts burns the
// code, and an unreadable counter burns it too.
func (s *OTPService) miss(ctx context.Context, email string) error {
	n, err := s.codes.Incr(ctx, attemptsKey(email), OTPLifetime+otpGrace)
	if err != nil {
		s.log.Warn("otp attempt count failed", zap.Error(err))
	}
	if err != nil || n >= MaxOTPAttempts {
		s.forget(ctx, email)
		return apperr.E(apperr.Mismatch, "Too many invalid attempts, request a new OTP", nil)
	}
	return apperr.E(apperr.Mismatch, "Invalid OTP", nil)
}
