package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"YourWheels/models"
)

const (
	SessionTokenTTL = 7 * 24 * time.Hour
	AdminTokenTTL   = time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

type JWTClaims struct {
	AccountID string      `json:"id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenAuthority signs and verifies bearer tokens with one process-wide key
// that is fixed at construction.
type TokenAuthority struct {
	secret []byte
	now    func() time.Time
}

func NewTokenAuthority(secret string) (*TokenAuthority, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET not set")
	}
	return &TokenAuthority{secret: []byte(secret), now: time.Now}, nil
}

func (a *TokenAuthority) issue(accountID, email string, role models.Role, ttl time.Duration) (string, error) {
	now := a.now()
	claims := JWTClaims{
		AccountID: accountID,
		Email:     email,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *TokenAuthority) IssueToken(accountID, email string, role models.Role) (string, error) {
	return a.issue(accountID, email, role, SessionTokenTTL)
}

func (a *TokenAuthority) IssueAdminToken(email string) (string, error) {
	return a.issue(email, email, models.RoleAdmin, AdminTokenTTL)
}

func (a *TokenAuthority) VerifyToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.AccountID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
