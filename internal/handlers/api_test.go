package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dankotyt/Bank-REST/internal/logger"
	"github.com/dankotyt/Bank-REST/internal/models"
	"github.com/dankotyt/Bank-REST/internal/repository/postgres"
	"github.com/dankotyt/Bank-REST/internal/service/admin"
	"github.com/dankotyt/Bank-REST/internal/service/auth"
	cardservice "github.com/dankotyt/Bank-REST/internal/service/card"
	"github.com/dankotyt/Bank-REST/internal/service/transfer"
	"github.com/dankotyt/Bank-REST/internal/testutil"
	"github.com/dankotyt/Bank-REST/internal/token"
)

func jsonNumber(id int64) string {
	return strconv.FormatInt(id, 10)
}

type session struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	User         models.UserProfile `json:"user"`
}

func Test_API(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Run the full router over production services inside one rolled back
	// transaction
	withApp := func(t *testing.T, fn func(url string)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			codec, err := token.NewCodec("test-secret")
			require.NoError(t, err)
			issuer := token.NewIssuer(codec, time.Minute, time.Hour)
			validator := token.NewValidator(codec, token.NewRevocationList(codec))

			authService, err := auth.NewService(auth.Config{}, codec, issuer, validator, storage)
			require.NoError(t, err, "auth service starting error")

			h := NewRouter(
				authService,
				cardservice.NewService(storage),
				transfer.NewService(storage),
				admin.NewService(storage, auth.BcryptHasher{}),
				logger.NewNoOpLogger(),
			)

			srv := httptest.NewServer(h)
			defer srv.Close()

			fn(srv.URL + "/api/v1")
		})
	}

	// do runs a JSON request, optionally authenticated with a bearer token
	// and extra cookies, and returns the response with its body read
	do := func(t *testing.T, method, url, bearer, body string, cookies ...*http.Cookie) (*http.Response, string) {
		t.Helper()

		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req, err := http.NewRequest(method, url, reader)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		for _, c := range cookies {
			req.AddCookie(c)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		_ = resp.Body.Close()

		return resp, string(raw)
	}

	registerBody := func(email, role string) string {
		return `{
			"email": "` + email + `",
			"password": "password123",
			"role": "` + role + `",
			"name": "Ivan",
			"surname": "Ivanov",
			"birthday": "1990-01-15T00:00:00Z"
		}`
	}

	register := func(t *testing.T, url, email, role string) session {
		t.Helper()

		resp, body := do(t, http.MethodPost, url+"/auth/register", "", registerBody(email, role))
		require.Equalf(t, http.StatusOK, resp.StatusCode, "register failed. Body: %s", body)

		var s session
		require.NoError(t, json.Unmarshal([]byte(body), &s))
		return s
	}

	t.Run("register", func(t *testing.T) {
		withApp(t, func(url string) {
			resp, body := do(t, http.MethodPost, url+"/auth/register", "", registerBody("reg@bank.test", "USER"))

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			var s session
			require.NoError(t, json.Unmarshal([]byte(body), &s))
			assert.NotEmpty(t, s.AccessToken)
			assert.NotEmpty(t, s.RefreshToken)
			assert.Equal(t, "reg@bank.test", s.User.Email)

			require.Len(t, resp.Cookies(), 2, "both token cookies should be set")
			for _, c := range resp.Cookies() {
				assert.True(t, c.HttpOnly, "%s should be HttpOnly", c.Name)
				assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
			}
			assert.Contains(t, resp.Header.Get("Authorization"), "Bearer ")
		})
	})

	t.Run("register validation", func(t *testing.T) {
		withApp(t, func(url string) {
			resp, body := do(t, http.MethodPost, url+"/auth/register", "", `{"email": "not-an-email"}`)

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
			assert.Contains(t, body, "validation_failed")
		})
	})

	t.Run("register duplicate", func(t *testing.T) {
		withApp(t, func(url string) {
			register(t, url, "dup@bank.test", "USER")

			resp, body := do(t, http.MethodPost, url+"/auth/register", "", registerBody("dup@bank.test", "USER"))

			require.Equalf(t, http.StatusConflict, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})

	t.Run("login", func(t *testing.T) {
		withApp(t, func(url string) {
			register(t, url, "login@bank.test", "USER")

			resp, body := do(t, http.MethodPost, url+"/auth/login", "",
				`{"email": "login@bank.test", "password": "password123"}`)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Len(t, resp.Cookies(), 2)
		})
	})

	t.Run("login failed", func(t *testing.T) {
		withApp(t, func(url string) {
			register(t, url, "badpass@bank.test", "USER")

			tests := []struct {
				name string
				data string
			}{
				{"wrong password", `{"email": "badpass@bank.test", "password": "WrongPassword"}`},
				{"unknown user", `{"email": "nobody@bank.test", "password": "password123"}`},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					resp, body := do(t, http.MethodPost, url+"/auth/login", "", tt.data)

					require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
					require.JSONEq(t, `
						{
							"error": "service_error",
							"message": "Invalid email or password"
						}`, body, "unknown user and wrong password must be indistinguishable")
				})
			}
		})
	})

	t.Run("refresh rotates and rejects replay", func(t *testing.T) {
		withApp(t, func(url string) {
			s := register(t, url, "refresh@bank.test", "USER")
			old := &http.Cookie{Name: "__Host-refresh", Value: s.RefreshToken}

			resp, body := do(t, http.MethodPost, url+"/auth/refresh", "", "", old)
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			var fresh session
			require.NoError(t, json.Unmarshal([]byte(body), &fresh))
			assert.NotEqual(t, s.RefreshToken, fresh.RefreshToken)

			// The spent token is gone for good
			resp, body = do(t, http.MethodPost, url+"/auth/refresh", "", "", old)
			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "replay must fail. Body: %s", body)
			for _, c := range resp.Cookies() {
				assert.Negative(t, c.MaxAge, "failed refresh must drop session cookies")
			}

			// While the rotated one still works
			resp, body = do(t, http.MethodPost, url+"/auth/refresh", "", "",
				&http.Cookie{Name: "__Host-refresh", Value: fresh.RefreshToken})
			require.Equalf(t, http.StatusOK, resp.StatusCode, "rotated token must work. Body: %s", body)
		})
	})

	t.Run("refresh without cookie", func(t *testing.T) {
		withApp(t, func(url string) {
			resp, body := do(t, http.MethodPost, url+"/auth/refresh", "", "")

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})

	t.Run("logout", func(t *testing.T) {
		withApp(t, func(url string) {
			s := register(t, url, "logout@bank.test", "USER")
			refresh := &http.Cookie{Name: "__Host-refresh", Value: s.RefreshToken}

			resp, body := do(t, http.MethodPost, url+"/auth/logout", s.AccessToken, "", refresh)
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			for _, c := range resp.Cookies() {
				assert.Negative(t, c.MaxAge, "logout must drop session cookies")
			}

			// Session is over on both tokens
			resp, _ = do(t, http.MethodPost, url+"/auth/refresh", "", "", refresh)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			resp, _ = do(t, http.MethodGet, url+"/cards", s.AccessToken, "")
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "revoked access token must not pass")
		})
	})

	t.Run("protected routes require token", func(t *testing.T) {
		withApp(t, func(url string) {
			resp, body := do(t, http.MethodGet, url+"/cards", "", "")

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
			for _, c := range resp.Cookies() {
				assert.Negative(t, c.MaxAge)
			}
		})
	})

	t.Run("admin routes forbidden for users", func(t *testing.T) {
		withApp(t, func(url string) {
			s := register(t, url, "plain@bank.test", "USER")

			resp, body := do(t, http.MethodGet, url+"/admin/users", s.AccessToken, "")

			require.Equalf(t, http.StatusForbidden, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})

	t.Run("card lifecycle over the api", func(t *testing.T) {
		withApp(t, func(url string) {
			adm := register(t, url, "admin@bank.test", "ADMIN")
			usr := register(t, url, "holder@bank.test", "USER")
			userPath := url + "/admin/users/" + jsonNumber(usr.User.ID)

			// Admin issues two cards and funds the first one
			var first, second models.CardView
			resp, body := do(t, http.MethodPost, userPath+"/cards", adm.AccessToken, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "create card failed. Body: %s", body)
			require.NoError(t, json.Unmarshal([]byte(body), &first))

			resp, body = do(t, http.MethodPost, userPath+"/cards", adm.AccessToken, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "create card failed. Body: %s", body)
			require.NoError(t, json.Unmarshal([]byte(body), &second))

			firstLast4 := first.Number[len(first.Number)-4:]
			secondLast4 := second.Number[len(second.Number)-4:]

			resp, body = do(t, http.MethodPut, userPath+"/cards/"+firstLast4+"/balance", adm.AccessToken, `{"balance": "500"}`)
			require.Equalf(t, http.StatusOK, resp.StatusCode, "set balance failed. Body: %s", body)

			// The user sees both cards
			resp, body = do(t, http.MethodGet, url+"/cards", usr.AccessToken, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "list cards failed. Body: %s", body)
			var mine []models.CardView
			require.NoError(t, json.Unmarshal([]byte(body), &mine))
			require.Len(t, mine, 2)

			// Transfer between own cards
			resp, body = do(t, http.MethodPost, url+"/transfers", usr.AccessToken,
				`{"from_last4": "`+firstLast4+`", "to_last4": "`+secondLast4+`", "amount": "200"}`)
			require.Equalf(t, http.StatusOK, resp.StatusCode, "transfer failed. Body: %s", body)
			var moved transfer.Result
			require.NoError(t, json.Unmarshal([]byte(body), &moved))
			assert.True(t, moved.From.Balance.Equal(decimal.RequireFromString("300")))
			assert.True(t, moved.To.Balance.Equal(decimal.RequireFromString("200")))

			// Overdraft is refused
			resp, body = do(t, http.MethodPost, url+"/transfers", usr.AccessToken,
				`{"from_last4": "`+firstLast4+`", "to_last4": "`+secondLast4+`", "amount": "10000"}`)
			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)

			// User blocks the card, transfers stop working
			resp, body = do(t, http.MethodPost, url+"/cards/"+firstLast4+"/block", usr.AccessToken, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "block failed. Body: %s", body)

			resp, body = do(t, http.MethodPost, url+"/transfers", usr.AccessToken,
				`{"from_last4": "`+firstLast4+`", "to_last4": "`+secondLast4+`", "amount": "10"}`)
			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)

			// Admin re-activates it
			resp, body = do(t, http.MethodPost, userPath+"/cards/"+firstLast4+"/activate", adm.AccessToken, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "activate failed. Body: %s", body)

			// Deposit and check balance
			resp, body = do(t, http.MethodPost, url+"/cards/"+firstLast4+"/deposit", usr.AccessToken, `{"amount": "50"}`)
			require.Equalf(t, http.StatusOK, resp.StatusCode, "deposit failed. Body: %s", body)

			resp, body = do(t, http.MethodGet, url+"/cards/"+firstLast4+"/balance", usr.AccessToken, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "balance failed. Body: %s", body)
			require.JSONEq(t, `{"balance": "350"}`, body)
		})
	})

	t.Run("admin user management", func(t *testing.T) {
		withApp(t, func(url string) {
			adm := register(t, url, "boss@bank.test", "ADMIN")

			resp, body := do(t, http.MethodPost, url+"/admin/users", adm.AccessToken, registerBody("minted@bank.test", "USER"))
			require.Equalf(t, http.StatusOK, resp.StatusCode, "create user failed. Body: %s", body)

			var created models.UserProfile
			require.NoError(t, json.Unmarshal([]byte(body), &created))
			assert.Equal(t, models.RoleUser, created.Role)

			userPath := url + "/admin/users/" + jsonNumber(created.ID)

			resp, body = do(t, http.MethodPatch, userPath, adm.AccessToken, `{"name": "Fedor"}`)
			require.Equalf(t, http.StatusOK, resp.StatusCode, "update failed. Body: %s", body)
			assert.Contains(t, body, "Fedor")

			resp, body = do(t, http.MethodGet, url+"/admin/users/email/minted@bank.test", adm.AccessToken, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "lookup by email failed. Body: %s", body)
			assert.Contains(t, body, jsonNumber(created.ID))

			resp, body = do(t, http.MethodGet, url+"/admin/users/email/nobody@bank.test", adm.AccessToken, "")
			require.Equalf(t, http.StatusNotFound, resp.StatusCode, "not expected code. Body: %s", body)

			resp, body = do(t, http.MethodDelete, userPath, adm.AccessToken, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "delete failed. Body: %s", body)

			resp, body = do(t, http.MethodGet, userPath, adm.AccessToken, "")
			require.Equalf(t, http.StatusNotFound, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})

	t.Run("card not found names number and owner", func(t *testing.T) {
		withApp(t, func(url string) {
			s := register(t, url, "ghost@bank.test", "USER")

			resp, body := do(t, http.MethodGet, url+"/cards/0000/balance", s.AccessToken, "")

			require.Equalf(t, http.StatusNotFound, resp.StatusCode, "not expected code. Body: %s", body)
			assert.Contains(t, body, "0000")
			assert.Contains(t, body, "ghost@bank.test")
		})
	})
}
