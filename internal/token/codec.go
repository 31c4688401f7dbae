package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dankotyt/Bank-REST/internal/apperrors"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"

	defaultSigningMethod = "HS256"
)

type Claims struct {
	jwt.RegisteredClaims

	// "access" or "refresh"
	Kind string `json:"kind"`

	// Granted roles, empty for refresh tokens
	Authorities []string `json:"authorities,omitempty"`
}

// Codec signs and verifies bearer tokens. It is the single place where
// signature verification happens: everything else goes through Decode.
type Codec struct {
	// Secret key shared by issuer and validator
	key []byte

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod
}

func NewCodec(secretKey string) (*Codec, error) {
	if secretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	return &Codec{
		key: []byte(secretKey),
		alg: jwt.GetSigningMethod(defaultSigningMethod),
	}, nil
}

// Issue signs a token for subject that expires in ttl
// Authorities should be nil for refresh tokens
func (c *Codec) Issue(subject string, kind string, authorities []string, ttl time.Duration) (string, error) {
	now := time.Now().Truncate(time.Second)

	t := jwt.NewWithClaims(c.alg, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind:        kind,
		Authorities: authorities,
	})

	signed, err := t.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("error while signing token. Err: %w", err)
	}

	return signed, nil
}

// Decode verifies the signature and returns the claims
// Any failure (bad signature, malformed payload) maps to apperrors.ErrInvalidToken
// Expiry is deliberately not checked here: expired tokens still decode, so
// callers can read the subject or expiry of a stale token.
func (c *Codec) Decode(tokenString string) (Claims, error) {
	claims := Claims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(t *jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("incorrect token: %v: %w", err, apperrors.ErrInvalidToken)
	}

	return claims, nil
}

func (c *Codec) Subject(tokenString string) (string, error) {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (c *Codec) ExpiresAt(tokenString string) (time.Time, error) {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token has no expiry: %w", apperrors.ErrInvalidToken)
	}
	return claims.ExpiresAt.Time, nil
}

// IsExpired reports whether the token's embedded expiry has passed
// Undecodable tokens count as expired
func (c *Codec) IsExpired(tokenString string) bool {
	expiresAt, err := c.ExpiresAt(tokenString)
	if err != nil {
		return true
	}
	return expiresAt.Before(time.Now())
}
