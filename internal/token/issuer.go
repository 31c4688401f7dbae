package token

import (
	"time"

	"github.com/dankotyt/Bank-REST/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 24 * time.Hour
)

// RolesFor derives authorization claims from the user role
func RolesFor(role string) []string {
	if role == models.RoleAdmin {
		return []string{"ROLE_ADMIN"}
	}
	return []string{"ROLE_USER"}
}

// Issuer mints access and refresh tokens for users. Pure construction: it
// never touches storage.
type Issuer struct {
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(codec *Codec, accessTTL time.Duration, refreshTTL time.Duration) *Issuer {
	if accessTTL == 0 {
		accessTTL = defaultAccessTokenTTL
	}
	if refreshTTL == 0 {
		refreshTTL = defaultRefreshTokenTTL
	}

	return &Issuer{
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// AccessToken issues a short lived token carrying the user's authorities
func (i *Issuer) AccessToken(user models.User) (models.IssuedToken, error) {
	value, err := i.codec.Issue(user.Email, KindAccess, RolesFor(user.Role), i.accessTTL)
	if err != nil {
		return models.IssuedToken{}, err
	}

	return models.IssuedToken{Value: value, ExpiresAt: time.Now().Add(i.accessTTL)}, nil
}

// RefreshToken issues a long lived token with no authorities
func (i *Issuer) RefreshToken(user models.User) (models.IssuedToken, error) {
	value, err := i.codec.Issue(user.Email, KindRefresh, nil, i.refreshTTL)
	if err != nil {
		return models.IssuedToken{}, err
	}

	return models.IssuedToken{Value: value, ExpiresAt: time.Now().Add(i.refreshTTL)}, nil
}
