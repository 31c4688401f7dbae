package handlers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dankotyt/Bank-REST/internal/handlers/middleware"
	"github.com/dankotyt/Bank-REST/internal/logger"
	"github.com/dankotyt/Bank-REST/internal/models"
	"github.com/dankotyt/Bank-REST/internal/service/admin"
	"github.com/dankotyt/Bank-REST/internal/service/auth"
	cardservice "github.com/dankotyt/Bank-REST/internal/service/card"
	"github.com/dankotyt/Bank-REST/internal/service/transfer"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	cardService cardService,
	transferService transferService,
	adminService adminService,
	l logger.Logger,
) http.Handler {
	withAuth := middleware.Auth(authService)
	withAdmin := func(h http.Handler) http.Handler {
		return withAuth(middleware.RequireAdmin(h))
	}

	apiv1 := http.NewServeMux()

	apiv1.Handle("POST /auth/register", handleRegister(authService, l))
	apiv1.Handle("POST /auth/login", handleLogin(authService, l))
	apiv1.Handle("POST /auth/refresh", handleRefresh(authService, l))
	apiv1.Handle("POST /auth/logout", handleLogout(authService, l))

	apiv1.Handle("GET /cards", withAuth(handleListCards(cardService, l)))
	apiv1.Handle("GET /cards/{last4}/balance", withAuth(handleCardBalance(cardService, l)))
	apiv1.Handle("POST /cards/{last4}/block", withAuth(handleBlockCard(cardService, l)))
	apiv1.Handle("POST /cards/{last4}/deposit", withAuth(handleDeposit(cardService, l)))

	apiv1.Handle("POST /transfers", withAuth(handleTransfer(transferService, l)))

	apiv1.Handle("POST /admin/users", withAdmin(handleAdminCreateUser(adminService, l)))
	apiv1.Handle("GET /admin/users", withAdmin(handleAdminListUsers(adminService, l)))
	apiv1.Handle("GET /admin/users/{userID}", withAdmin(handleAdminGetUser(adminService, l)))
	apiv1.Handle("GET /admin/users/email/{email}", withAdmin(handleAdminGetUserByEmail(adminService, l)))
	apiv1.Handle("PATCH /admin/users/{userID}", withAdmin(handleAdminUpdateUser(adminService, l)))
	apiv1.Handle("DELETE /admin/users/{userID}", withAdmin(handleAdminDeleteUser(adminService, l)))

	apiv1.Handle("GET /admin/cards", withAdmin(handleAdminListAllCards(adminService, l)))
	apiv1.Handle("POST /admin/users/{userID}/cards", withAdmin(handleAdminCreateCard(adminService, l)))
	apiv1.Handle("GET /admin/users/{userID}/cards", withAdmin(handleAdminListUserCards(adminService, l)))
	apiv1.Handle("POST /admin/users/{userID}/cards/{last4}/activate", withAdmin(handleAdminActivateCard(adminService, l)))
	apiv1.Handle("POST /admin/users/{userID}/cards/{last4}/block", withAdmin(handleAdminBlockCard(adminService, l)))
	apiv1.Handle("DELETE /admin/users/{userID}/cards/{last4}", withAdmin(handleAdminDeleteCard(adminService, l)))
	apiv1.Handle("PUT /admin/users/{userID}/cards/{last4}/balance", withAdmin(handleAdminSetCardBalance(adminService, l)))

	root := http.NewServeMux()
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", apiv1))

	return chain(root,
		middleware.LoggerMiddleware(l),
	)
}

type authService interface {
	// Register a new user
	// Has to return apperrors.ErrUserAlreadyExists if the email is taken
	Register(ctx context.Context, arg auth.RegisterParams) (models.Session, error)

	// Login with email and password
	// Has to return apperrors.ErrUserNotFound or apperrors.ErrInvalidPassword
	Login(ctx context.Context, email string, password string) (models.Session, error)

	// Rotate the refresh token
	// Every rejection wraps apperrors.ErrInvalidToken
	Refresh(ctx context.Context, refreshToken string) (models.Session, error)

	// End the session holding refreshToken, revoking accessToken if given
	Logout(ctx context.Context, refreshToken string, accessToken string) error

	// Request plumbing used by handlers and middleware
	Auth(ctx context.Context, r *http.Request) (models.User, error)
	TokenFromRequest(r *http.Request) (string, bool)
	RefreshFromRequest(r *http.Request) (string, bool)
	SetSessionCookies(w http.ResponseWriter, session models.Session)
	ExpireSessionCookies(w http.ResponseWriter)
}

type cardService interface {
	List(ctx context.Context, userID int64, arg cardservice.ListParams) ([]models.CardView, error)
	Balance(ctx context.Context, userID int64, last4 string) (decimal.Decimal, error)
	Block(ctx context.Context, userID int64, last4 string) (models.CardView, error)
	Deposit(ctx context.Context, userID int64, last4 string, amount decimal.Decimal) (models.CardView, error)
}

type transferService interface {
	Transfer(ctx context.Context, userID int64, fromLast4 string, toLast4 string, amount decimal.Decimal) (transfer.Result, error)
}

type adminService interface {
	CreateCard(ctx context.Context, userID int64) (models.CardView, error)
	ActivateCard(ctx context.Context, userID int64, last4 string) (models.CardView, error)
	BlockCard(ctx context.Context, userID int64, last4 string) (models.CardView, error)
	DeleteCard(ctx context.Context, userID int64, last4 string) error
	SetCardBalance(ctx context.Context, userID int64, last4 string, balance decimal.Decimal) (models.CardView, error)
	ListAllCards(ctx context.Context) ([]models.CardView, error)
	ListUserCards(ctx context.Context, userID int64) ([]models.CardView, error)

	CreateUser(ctx context.Context, arg admin.CreateUserParams) (models.UserProfile, error)
	GetUser(ctx context.Context, userID int64) (models.UserProfile, error)
	GetUserByEmail(ctx context.Context, email string) (models.UserProfile, error)
	ListUsers(ctx context.Context) ([]models.UserProfile, error)
	UpdateUser(ctx context.Context, userID int64, arg admin.UpdateUserParams) (models.UserProfile, error)
	DeleteUser(ctx context.Context, userID int64) error
}
