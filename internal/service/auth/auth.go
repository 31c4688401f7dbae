package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dankotyt/Bank-REST/internal/apperrors"
	"github.com/dankotyt/Bank-REST/internal/models"
	"github.com/dankotyt/Bank-REST/internal/repository"
	"github.com/dankotyt/Bank-REST/internal/token"
)

const (
	authHeaderName = "Authorization"
	bearerScheme   = "Bearer "

	defaultAccessCookieName  = "__Host-auth-token"
	defaultRefreshCookieName = "__Host-refresh"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher used during registration and login
	// BcryptHasher is used when not set
	Hasher PasswordHasher

	// Cookie names for the issued tokens
	// Defaults are the __Host- prefixed names
	AccessCookieName  string
	RefreshCookieName string
}

// AuthService owns the register, login, refresh and logout workflows
type AuthService struct {
	issuer    *token.Issuer
	codec     *token.Codec
	validator *token.Validator
	hasher    PasswordHasher
	storage   repository.Storage

	accessCookieName  string
	refreshCookieName string
}

func NewService(cfg Config, codec *token.Codec, issuer *token.Issuer, validator *token.Validator, storage repository.Storage) (*AuthService, error) {
	if codec == nil || issuer == nil || validator == nil {
		return nil, errors.New("codec, issuer and validator must not be nil")
	}
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	accessCookieName := cfg.AccessCookieName
	if accessCookieName == "" {
		accessCookieName = defaultAccessCookieName
	}
	refreshCookieName := cfg.RefreshCookieName
	if refreshCookieName == "" {
		refreshCookieName = defaultRefreshCookieName
	}

	return &AuthService{
		issuer:            issuer,
		codec:             codec,
		validator:         validator,
		hasher:            hasher,
		storage:           storage,
		accessCookieName:  accessCookieName,
		refreshCookieName: refreshCookieName,
	}, nil
}

type RegisterParams struct {
	Email      string
	Password   string
	Role       string
	Name       string
	Surname    string
	Patronymic string
	Birthday   time.Time
}

func (s *AuthService) Register(ctx context.Context, arg RegisterParams) (models.Session, error) {
	var session models.Session

	exists, err := s.storage.User().ExistsByEmail(ctx, arg.Email)
	if err != nil {
		return session, fmt.Errorf("error while checking email. Err: %w", err)
	}
	if exists {
		return session, apperrors.ErrUserAlreadyExists
	}

	hash, err := s.hasher.Hash(arg.Password)
	if err != nil {
		return session, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	role := arg.Role
	if role == "" {
		role = models.RoleUser
	}

	user, err := s.storage.User().Create(ctx, repository.CreateUserParams{
		Email:        arg.Email,
		PasswordHash: hash,
		Role:         role,
		Name:         arg.Name,
		Surname:      arg.Surname,
		Patronymic:   arg.Patronymic,
		Birthday:     arg.Birthday,
	})
	if err != nil {
		return session, err
	}

	return s.beginSession(ctx, s.storage, user)
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (models.Session, error) {
	var session models.Session

	user, err := s.storage.User().GetByEmail(ctx, email)
	if err != nil {
		return session, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return session, apperrors.ErrInvalidPassword
	}

	return s.beginSession(ctx, s.storage, user)
}

// Refresh exchanges a valid refresh token for a new token pair. The stored
// token comparison and the overwrite run in one transaction with the user row
// locked, so two concurrent calls with the same token cannot both rotate: the
// loser observes the already rotated token and fails with mismatch.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (models.Session, error) {
	var session models.Session

	if refreshToken == "" {
		return session, fmt.Errorf("refresh token is empty: %w", apperrors.ErrInvalidToken)
	}
	if s.validator.IsRevoked(refreshToken) {
		return session, fmt.Errorf("refresh token is revoked: %w", apperrors.ErrInvalidToken)
	}

	subject, err := s.codec.Subject(refreshToken)
	if err != nil {
		return session, err
	}

	err = s.storage.InTx(ctx, func(store repository.Storage) error {
		user, err := store.User().GetByEmailForUpdate(ctx, subject)
		if err != nil {
			return err
		}

		if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
			return fmt.Errorf("refresh token mismatch: %w", apperrors.ErrInvalidToken)
		}

		if !s.validator.IsValid(refreshToken, user) {
			if user.RefreshTokenExpiresAt != nil && user.RefreshTokenExpiresAt.Before(time.Now()) {
				return fmt.Errorf("refresh token is expired: %w", apperrors.ErrInvalidToken)
			}
			return fmt.Errorf("refresh token is invalid: %w", apperrors.ErrInvalidToken)
		}

		session, err = s.beginSession(ctx, store, user)
		return err
	})
	if err != nil {
		return models.Session{}, err
	}

	// The old token no longer matches the stored one, revoking it on top
	// closes the replay window until its natural expiry
	s.validator.Revoke(refreshToken)

	return session, nil
}

// Logout ends the session of whoever holds the refresh token. Idempotent and
// deliberately silent: it never reveals whether the token was valid.
// accessToken is the caller's bearer token, empty when the request had none.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, accessToken string) error {
	user, err := s.storage.User().GetByRefreshToken(ctx, refreshToken)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("error while looking up session. Err: %w", err)
	}

	if accessToken != "" {
		s.validator.Revoke(accessToken)
	}

	return s.storage.User().SetRefreshToken(ctx, user.ID, nil, nil)
}

// Auth authenticates an inbound request: bearer token (header or cookie),
// subject lookup, then full validation including revocation
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	accessToken, ok := s.TokenFromRequest(r)
	if !ok {
		return models.User{}, fmt.Errorf("access token required: %w", apperrors.ErrInvalidToken)
	}

	subject, err := s.codec.Subject(accessToken)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.storage.User().GetByEmail(ctx, subject)
	if err != nil {
		return models.User{}, err
	}

	if !s.validator.IsValid(accessToken, user) {
		return models.User{}, fmt.Errorf("access token rejected: %w", apperrors.ErrInvalidToken)
	}

	return user, nil
}

// TokenFromRequest extracts the bearer token from the Authorization header,
// falling back to the access token cookie. Never fails: the second return
// value reports presence.
func (s *AuthService) TokenFromRequest(r *http.Request) (string, bool) {
	header := r.Header.Get(authHeaderName)
	if strings.HasPrefix(header, bearerScheme) {
		return strings.TrimPrefix(header, bearerScheme), true
	}

	cookie, err := r.Cookie(s.accessCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// RefreshFromRequest reads the refresh token cookie
func (s *AuthService) RefreshFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// beginSession is the single mutation point for "a user is now logged in":
// it issues the pair and persists the refresh token on the user row, which
// invalidates whatever refresh token the user held before
func (s *AuthService) beginSession(ctx context.Context, store repository.Storage, user models.User) (models.Session, error) {
	var session models.Session

	access, err := s.issuer.AccessToken(user)
	if err != nil {
		return session, fmt.Errorf("error while issuing access token. Err: %w", err)
	}

	refresh, err := s.issuer.RefreshToken(user)
	if err != nil {
		return session, fmt.Errorf("error while issuing refresh token. Err: %w", err)
	}

	err = store.User().SetRefreshToken(ctx, user.ID, &refresh.Value, &refresh.ExpiresAt)
	if err != nil {
		return session, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.Session{
		Pair: models.TokenPair{Access: access, Refresh: refresh},
		User: user.Profile(),
	}, nil
}

// SetSessionCookies attaches both tokens to the response and mirrors the
// access token in the Authorization header
func (s *AuthService) SetSessionCookies(w http.ResponseWriter, session models.Session) {
	w.Header().Set(authHeaderName, bearerScheme+session.Pair.Access.Value)

	http.SetCookie(w, &http.Cookie{
		Name:     s.accessCookieName,
		Value:    session.Pair.Access.Value,
		Path:     "/",
		MaxAge:   int(time.Until(session.Pair.Access.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    session.Pair.Refresh.Value,
		Path:     "/",
		MaxAge:   int(time.Until(session.Pair.Refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ExpireSessionCookies drops both token cookies. Called on every
// authentication failure so clients never stay half authenticated.
func (s *AuthService) ExpireSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{s.accessCookieName, s.refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
