package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/infonest-auth/internal/domain"
)

// Token verification failures. ParseAndVerify returns exactly one of these.
var (
	ErrMalformed        = errors.New("token malformed")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
}

// NewTokenManager builds a new manager. A non-positive ttl falls back to one hour.
func NewTokenManager(secret string, ttl, leeway time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if leeway < 0 {
		leeway = 0
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, leeway: leeway}
}

// Claims describes the JWT payload. ExpiresAtNano carries the exact expiry;
// the registered exp claim holds the same instant floored to whole seconds.
type Claims struct {
	Role          domain.Role `json:"role"`
	ExpiresAtNano int64       `json:"exp_ns,omitempty"`
	jwt.RegisteredClaims
}

// TTL returns the lifetime of issued tokens.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue builds and signs a token for subject valid from now until now+ttl.
func (tm *TokenManager) Issue(subject string, role domain.Role, now time.Time) (domain.Token, error) {
	issuedAt := now.Round(0)
	expiresAt := issuedAt.Add(tm.ttl)

	claims := &Claims{
		Role:          role,
		ExpiresAtNano: expiresAt.UnixNano(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return domain.Token{}, fmt.Errorf("sign token: %w", err)
	}

	return domain.Token{
		Value:     signed,
		Subject:   subject,
		Role:      role,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// ParseAndVerify checks the signature and expiry of tokenStr as of now and
// returns the identity it carries.
func (tm *TokenManager) ParseAndVerify(tokenStr string, now time.Time) (domain.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, tm.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return domain.Identity{}, ErrInvalidSignature
		}
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return domain.Identity{}, fmt.Errorf("%w: missing subject or expiry", ErrMalformed)
	}
	expiresAt, err := expiryOf(claims)
	if err != nil {
		return domain.Identity{}, err
	}
	if now.After(expiresAt.Add(tm.leeway)) {
		return domain.Identity{}, ErrExpired
	}

	return domain.Identity{Subject: claims.Subject, Role: claims.Role}, nil
}

func expiryOf(claims *Claims) (time.Time, error) {
	if claims.ExpiresAtNano == 0 {
		return claims.ExpiresAt.Time, nil
	}
	exact := time.Unix(0, claims.ExpiresAtNano)
	if exact.Unix() != claims.ExpiresAt.Unix() {
		return time.Time{}, fmt.Errorf("%w: exp and exp_ns disagree", ErrMalformed)
	}
	return exact, nil
}

func (tm *TokenManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method != jwt.SigningMethodHS256 {
		return nil, errors.New("unexpected signing method")
	}
	return tm.secret, nil
}
