package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dankotyt/Bank-REST/internal/models"
)

type CreateUserParams struct {
	Email        string
	PasswordHash string
	Role         string
	Name         string
	Surname      string
	Patronymic   string
	Birthday     time.Time
}

// Partial update: nil fields keep their stored value
// The stored refresh token is never touched by Update
type UpdateUserParams struct {
	Email      *string
	Name       *string
	Surname    *string
	Patronymic *string
	Birthday   *time.Time
}

// User repository interface
type UserRepo interface {
	// Create user
	// Returns apperrors.ErrUserAlreadyExists if the email is taken
	Create(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Lookups return apperrors.ErrUserNotFound when no user matches
	GetByID(ctx context.Context, id int64) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)

	// Same as GetByEmail but locks the user row until the surrounding
	// transaction ends. Used to serialize refresh token rotation.
	GetByEmailForUpdate(ctx context.Context, email string) (models.User, error)

	// Find the user currently holding this refresh token
	GetByRefreshToken(ctx context.Context, refreshToken string) (models.User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id int64, arg UpdateUserParams) (models.User, error)
	Delete(ctx context.Context, id int64) error

	// SetRefreshToken overwrites the user's stored refresh token and its
	// expiry. Pass nils to clear it (logout).
	SetRefreshToken(ctx context.Context, userID int64, token *string, expiresAt *time.Time) error
}

type CreateCardParams struct {
	UserID    int64
	Number    string
	Holder    string
	ExpiresAt time.Time
	Status    string
	Balance   decimal.Decimal
}

type ListCardsParams struct {
	UserID int64

	// Optional case insensitive match over number and holder
	Search string

	// Zero limit means no limit
	Limit  int
	Offset int
}

// Card repository interface
// Cards are always addressed by owner plus masked display number: that scoping
// is what keeps one user away from another user's cards.
type CardRepo interface {
	Create(ctx context.Context, arg CreateCardParams) (models.Card, error)

	// Returns apperrors.ErrCardNotFound when no card matches
	// On last-4 collisions within one owner the lowest id wins
	GetByUserAndNumber(ctx context.Context, userID int64, number string) (models.Card, error)

	// Lock all the owner's cards matching numbers, ordered by id so that
	// concurrent transfers over the same cards cannot deadlock
	ListByUserAndNumbersForUpdate(ctx context.Context, userID int64, numbers []string) ([]models.Card, error)

	ListByUser(ctx context.Context, arg ListCardsParams) ([]models.Card, error)
	ListAll(ctx context.Context) ([]models.Card, error)

	UpdateStatus(ctx context.Context, cardID int64, status string) (models.Card, error)
	SetBalance(ctx context.Context, cardID int64, balance decimal.Decimal) (models.Card, error)

	// SaveBalances persists the balances of all given cards. Call inside
	// InTx when the writes must be atomic.
	SaveBalances(ctx context.Context, cards []models.Card) error

	Delete(ctx context.Context, cardID int64) error
}

// Storage aggregates the repositories and runs closures in one database
// transaction
type Storage interface {
	User() UserRepo
	Card() CardRepo

	// InTx runs fn inside a transaction: commit on nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
