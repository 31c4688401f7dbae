package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dankotyt/Bank-REST/internal/handlers/userctx"
	"github.com/dankotyt/Bank-REST/internal/models"
)

type fakeAuthenticator struct {
	user models.User
	err  error

	expired bool
}

func (f *fakeAuthenticator) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	return f.user, f.err
}

func (f *fakeAuthenticator) ExpireSessionCookies(w http.ResponseWriter) {
	f.expired = true
}

func Test_Auth(t *testing.T) {
	t.Parallel()

	t.Run("puts user in context", func(t *testing.T) {
		fake := &fakeAuthenticator{user: models.User{ID: 7, Email: "user@bank.test"}}

		var got models.User
		var ok bool
		h := Auth(fake)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok = userctx.FromContext(r.Context())
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, ok, "user should be in context")
		assert.Equal(t, int64(7), got.ID)
		assert.False(t, fake.expired)
	})

	t.Run("rejects and drops cookies on failure", func(t *testing.T) {
		fake := &fakeAuthenticator{err: errors.New("nope")}

		called := false
		h := Auth(fake)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, called, "handler must not run")
		assert.True(t, fake.expired, "session cookies should be expired")
	})
}

func Test_RequireAdmin(t *testing.T) {
	t.Parallel()

	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("admin passes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(userctx.New(r.Context(), models.User{Role: models.RoleAdmin}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("plain user forbidden", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(userctx.New(r.Context(), models.User{Role: models.RoleUser}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("no user unauthorized", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
