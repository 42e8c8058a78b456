package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the session lifetime used when none is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Claims is the payload of a session token: the subject account id in
// "sub" plus the account email.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// TokenCodec issues and verifies HS256 session tokens with a fixed lifetime.
// Tokens are not stored anywhere; validity is signature plus expiry only,
// so there is no revocation.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec constructs a codec. The secret must not be blank.
func NewTokenCodec(secret string, ttl time.Duration) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the lifetime of issued tokens.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the subject.
func (c *TokenCodec) Issue(subjectID, email string) (string, error) {
	if strings.TrimSpace(subjectID) == "" {
		return "", errors.New("subject is required")
	}
	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Email: email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify parses and validates a token. Any malformed, expired or
// mis-signed token yields false; the reason is never surfaced.
func (c *TokenCodec) Verify(tokenString string) (Claims, bool) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return Claims{}, false
	}

	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return Claims{}, false
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, false
	}
	return claims, true
}
