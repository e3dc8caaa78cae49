// Package auth issues and verifies signed, time-limited session tokens
// (HS256 JWTs carrying the username).
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/astroprofile/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the session lifetime used when none is configured.
const DefaultTokenTTL = time.Hour

// Claims is the signed payload: the standard registered claims plus the
// username the session belongs to.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Session is a verified claim.
type Session struct {
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService signs and verifies session tokens. It holds no mutable state
// and is safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a TokenService using secret as the HMAC key.
// A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the service that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	c := *s
	c.now = now
	return &c
}

// TTL reports the configured session lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for username valid for the configured TTL.
func (s *TokenService) Issue(username string) (string, error) {
	return s.IssueWithTTL(username, s.ttl)
}

// IssueWithTTL signs a token for username valid for ttl.
func (s *TokenService) IssueWithTTL(username string, ttl time.Duration) (string, error) {
	return GenerateToken(username, s.secret, s.now(), ttl)
}

// Verify checks signature and expiry and returns the session.
//
// Empty, malformed or unsigned tokens yield common.ErrCredentialMissing;
// expired tokens and bad signatures yield common.ErrCredentialInvalid.
func (s *TokenService) Verify(token string) (*Session, error) {
	claims, err := ParseToken(token, s.secret, s.now)
	if err != nil {
		return nil, err
	}

	sess := &Session{Username: claims.Username}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

func GenerateToken(username string, secretKey []byte, issuedAt time.Time, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(validityDuration)),
		},
		Username: username,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func ParseToken(tokenString string, secretKey []byte, now func() time.Time) (*Claims, error) {
	if !looksSigned(tokenString) {
		return nil, common.ErrCredentialMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return nil, classify(err)
	}

	if !token.Valid || claims.Username == "" {
		return nil, common.ErrCredentialInvalid
	}

	return claims, nil
}

// looksSigned reports whether s has the three dot-separated segments of a
// signed JWS with a non-empty signature.
func looksSigned(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && parts[0] != "" && parts[1] != "" && parts[2] != ""
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return common.ErrCredentialMissing
	default:
		// expired, not yet valid, bad signature, wrong algorithm
		return common.ErrCredentialInvalid
	}
}
