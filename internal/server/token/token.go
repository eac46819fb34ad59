// Package token issues and verifies signed session tokens.
//
// Tokens are stateless HS256 JWTs: the server keeps no session table and
// cannot revoke a token before it expires. Logout only asks the client to
// drop its copy.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "gophchat"

// ErrAuth is the root of every verification failure.
var ErrAuth = errors.New("authentication failed")

var (
	// ErrNoToken means the caller presented no token at all
	ErrNoToken = fmt.Errorf("%w: no token provided", ErrAuth)
	// ErrMalformed means the token cannot be parsed into header, claims and signature
	ErrMalformed = fmt.Errorf("%w: malformed token", ErrAuth)
	// ErrInvalidSignature means the signature does not match the claims
	ErrInvalidSignature = fmt.Errorf("%w: invalid token signature", ErrAuth)
	// ErrExpired means now >= expiresAt
	ErrExpired = fmt.Errorf("%w: token expired", ErrAuth)
)

// Claims represents JWT claims of a session token
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// SessionToken is an issued token together with its decoded fields.
type SessionToken struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
	Subject   string
	Signature string
	Raw       string
}

// String returns the compact wire form carried by the client.
func (t SessionToken) String() string {
	return t.Raw
}

// Service issues and verifies session tokens with a process-wide secret.
type Service struct {
	now    func() time.Time
	secret []byte
	ttl    time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new token service.
// secret should be a cryptographically secure random string.
func NewService(secret string, ttl time.Duration, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	s := &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// TTL returns the lifetime of issued tokens.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue creates a token for userID valid for the configured TTL.
func (s *Service) Issue(userID string) (SessionToken, error) {
	if userID == "" {
		return SessionToken{}, errors.New("user id must not be empty")
	}

	now := s.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return SessionToken{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return SessionToken{
		Subject:   userID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		Signature: raw[strings.LastIndexByte(raw, '.')+1:],
		Raw:       raw,
	}, nil
}

// Verify checks the token and returns the user id it is bound to.
func (s *Service) Verify(raw string) (string, error) {
	tok, err := s.Parse(raw)
	if err != nil {
		return "", err
	}
	return tok.Subject, nil
}

// Parse verifies signature and expiry and returns the decoded token.
// The signature is checked first, so a tampered expired token reports
// ErrInvalidSignature.
func (s *Service) Parse(raw string) (SessionToken, error) {
	if raw == "" {
		return SessionToken{}, ErrNoToken
	}
	if strings.Count(raw, ".") != 2 {
		return SessionToken{}, ErrMalformed
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return SessionToken{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return SessionToken{}, ErrExpired
	default:
		return SessionToken{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if claims.UserID == "" || claims.UserID != claims.Subject {
		return SessionToken{}, fmt.Errorf("%w: missing subject", ErrMalformed)
	}

	tok := SessionToken{
		Subject:   claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
		Signature: raw[strings.LastIndexByte(raw, '.')+1:],
		Raw:       raw,
	}
	if claims.IssuedAt != nil {
		tok.IssuedAt = claims.IssuedAt.Time
	}

	return tok, nil
}
