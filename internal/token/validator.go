package token

import (
	"time"

	"github.com/dankotyt/Bank-REST/internal/models"
)

// Validator checks tokens against the signature, the expected subject, the
// revocation registry and the embedded expiry.
type Validator struct {
	codec   *Codec
	revoked RevocationRegistry
}

func NewValidator(codec *Codec, revoked RevocationRegistry) *Validator {
	return &Validator{
		codec:   codec,
		revoked: revoked,
	}
}

// IsValid reports whether the token may be accepted for the given user.
// Fails closed: any decode failure means false, never an error.
func (v *Validator) IsValid(tokenString string, user models.User) bool {
	claims, err := v.codec.Decode(tokenString)
	if err != nil {
		return false
	}

	return claims.Subject == user.Email &&
		!v.revoked.IsRevoked(tokenString) &&
		claims.ExpiresAt != nil &&
		claims.ExpiresAt.After(time.Now())
}

func (v *Validator) Revoke(tokenString string) {
	v.revoked.Revoke(tokenString)
}

func (v *Validator) IsRevoked(tokenString string) bool {
	return v.revoked.IsRevoked(tokenString)
}
