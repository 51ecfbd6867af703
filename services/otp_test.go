package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"YourWheels/apperr"
	"YourWheels/kv"
)

type capturingMailer struct {
	mu   sync.Mutex
	sent map[string]string
	err  error
}

func (m *capturingMailer) SendOTP(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.sent == nil {
		m.sent = map[string]string{}
	}
	m.sent[email] = code
	return nil
}

func newOTP(t *testing.T) (*OTPService, *capturingMailer) {
	t.Helper()
	mailer := &capturingMailer{}
	svc := NewOTPService(kv.NewMemoryStore(), mailer, nil)
	return svc, mailer
}

func TestOTPCodeFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := sixDigitCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
	}
}

func TestOTPRedeemedOnce(t *testing.T) {
	svc, mailer := newOTP(t)
	ctx := context.Background()
	require.NoError(t, svc.Issue(ctx, "J@x.com"))
	code := mailer.sent["j@x.com"]

	require.NoError(t, svc.Verify(ctx, "j@x.com", code))
	err := svc.Verify(ctx, "j@x.com", code)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestOTPMismatchKeepsCode(t *testing.T) {
	svc, mailer := newOTP(t)
	ctx := context.Background()
	require.NoError(t, svc.Issue(ctx, "j@x.com"))
	code := mailer.sent["j@x.com"]

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err := svc.Verify(ctx, "j@x.com", wrong)
	assert.True(t, apperr.Is(err, apperr.Mismatch))
	assert.NoError(t, svc.Verify(ctx, "j@x.com", code))
}

func TestOTPLockedAfterRepeatedMismatch(t *testing.T) {
	svc, _ := newOTP(t)
	ctx := context.Background()
	svc.newCode = func() (string, error) { return "424242", nil }
	require.NoError(t, svc.Issue(ctx, "j@x.com"))

	for i := 1; i < MaxOTPAttempts; i++ {
		err := svc.Verify(ctx, "j@x.com", "000000")
		require.True(t, apperr.Is(err, apperr.Mismatch))
		assert.Equal(t, "Invalid OTP", apperr.Message(err))
	}
	err := svc.Verify(ctx, "j@x.com", "000000")
	require.True(t, apperr.Is(err, apperr.Mismatch))
	assert.Equal(t, "Too many invalid attempts, request a new OTP", apperr.Message(err))

	err = svc.Verify(ctx, "j@x.com", "424242")
	assert.True(t, apperr.Is(err, apperr.NotFound), "the code is burnt")

	require.NoError(t, svc.Issue(ctx, "j@x.com"))
	require.True(t, apperr.Is(svc.Verify(ctx, "j@x.com", "000000"), apperr.Mismatch))
	assert.NoError(t, svc.Verify(ctx, "j@x.com", "424242"), "a new code starts a fresh count")
}

func TestOTPExpired(t *testing.T) {
	svc, mailer := newOTP(t)
	ctx := context.Background()
	start := time.Now()
	svc.now = func() time.Time { return start }
	require.NoError(t, svc.Issue(ctx, "j@x.com"))

	svc.now = func() time.Time { return start.Add(OTPLifetime + time.Second) }
	err := svc.Verify(ctx, "j@x.com", mailer.sent["j@x.com"])
	assert.True(t, apperr.Is(err, apperr.Expired))
}

func TestOTPReissueOverwrites(t *testing.T) {
	svc, _ := newOTP(t)
	ctx := context.Background()
	codes := []string{"123456", "654321"}
	svc.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
	require.NoError(t, svc.Issue(ctx, "j@x.com"))
	require.NoError(t, svc.Issue(ctx, "j@x.com"))

	assert.True(t, apperr.Is(svc.Verify(ctx, "j@x.com", "123456"), apperr.Mismatch))
	assert.NoError(t, svc.Verify(ctx, "j@x.com", "654321"))
}

func TestOTPUnknownEmail(t *testing.T) {
	svc, _ := newOTP(t)
	err := svc.Verify(context.Background(), "nobody@x.com", "123456")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestOTPMailFailureDropsCode(t *testing.T) {
	svc, mailer := newOTP(t)
	mailer.err = errors.New("smtp down")
	svc.newCode = func() (string, error) { return "123456", nil }

	err := svc.Issue(context.Background(), "j@x.com")
	assert.True(t, apperr.Is(err, apperr.Upstream))
	assert.Equal(t, "Failed to send OTP", apperr.Message(err))

	err = svc.Verify(context.Background(), "j@x.com", "123456")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestOTPConcurrentRedeemSingleWinner(t *testing.T) {
	svc, _ := newOTP(t)
	ctx := context.Background()
	svc.newCode = func() (string, error) { return "424242", nil }
	require.NoError(t, svc.Issue(ctx, "j@x.com"))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if svc.Verify(ctx, "j@x.com", "424242") == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
