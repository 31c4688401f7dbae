package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dankotyt/Bank-REST/internal/apperrors"
	"github.com/dankotyt/Bank-REST/internal/models"
	"github.com/dankotyt/Bank-REST/internal/repository"
)

const userColumns = `id, created_at, email, password_hash, role, name, surname, patronymic, birthday, refresh_token, refresh_token_expires_at`

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (email, password_hash, role, name, surname, patronymic, birthday)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns

func (r *UserRepo) Create(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser,
		arg.Email, arg.PasswordHash, arg.Role, arg.Name, arg.Surname, arg.Patronymic, arg.Birthday,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return user, apperrors.ErrUserAlreadyExists
		}
		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + ` FROM users
WHERE id = $1
`

func (r *UserRepo) GetByID(ctx context.Context, id int64) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectUser(rows)
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT ` + userColumns + ` FROM users
WHERE email = $1
`

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	return collectUser(rows)
}

const getUserByEmailForUpdate = `-- name: GetUserByEmailForUpdate
SELECT ` + userColumns + ` FROM users
WHERE email = $1
FOR UPDATE
`

// Locks the user row until the surrounding transaction ends
// A concurrent refresh presenting the same token serializes here
func (r *UserRepo) GetByEmailForUpdate(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmailForUpdate, email)
	return collectUser(rows)
}

const getUserByRefreshToken = `-- name: GetUserByRefreshToken
SELECT ` + userColumns + ` FROM users
WHERE refresh_token = $1
`

func (r *UserRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByRefreshToken, refreshToken)
	return collectUser(rows)
}

const existsByEmail = `-- name: ExistsByEmail
SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
`

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	rows, _ := r.DB.Query(ctx, existsByEmail, email)
	exists, err := pgx.CollectOneRow(rows, pgx.RowTo[bool])
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

const listUsers = `-- name: ListUsers
SELECT ` + userColumns + ` FROM users
ORDER BY id
`

func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	rows, _ := r.DB.Query(ctx, listUsers)
	users, err := pgx.CollectRows(rows, rowToUser)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

const updateUser = `-- name: UpdateUser
UPDATE users
SET email      = COALESCE($2, email),
    name       = COALESCE($3, name),
    surname    = COALESCE($4, surname),
    patronymic = COALESCE($5, patronymic),
    birthday   = COALESCE($6, birthday)
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) Update(ctx context.Context, id int64, arg repository.UpdateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateUser, id, arg.Email, arg.Name, arg.Surname, arg.Patronymic, arg.Birthday)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrEmailBusy
		}
		return user, fmt.Errorf("db error: %w", err)
	}
}

const deleteUser = `-- name: DeleteUser
DELETE FROM users
WHERE id = $1
`

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, deleteUser, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

const setRefreshToken = `-- name: SetRefreshToken
UPDATE users
SET refresh_token = $2, refresh_token_expires_at = $3
WHERE id = $1
`

func (r *UserRepo) SetRefreshToken(ctx context.Context, userID int64, token *string, expiresAt *time.Time) error {
	tag, err := r.DB.Exec(ctx, setRefreshToken, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.CreatedAt, &u.Email, &u.PasswordHash, &u.Role,
		&u.Name, &u.Surname, &u.Patronymic, &u.Birthday,
		&u.RefreshToken, &u.RefreshTokenExpiresAt,
	)
	return u, err
}
