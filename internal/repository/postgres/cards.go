package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/dankotyt/Bank-REST/internal/apperrors"
	"github.com/dankotyt/Bank-REST/internal/models"
	"github.com/dankotyt/Bank-REST/internal/repository"
)

const cardColumns = `id, user_id, number, holder, expires_at, status, balance, created_at`

type CardRepo struct {
	DB DBTX
}

const createCard = `-- name: CreateCard
INSERT INTO cards (user_id, number, holder, expires_at, status, balance)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + cardColumns

func (r *CardRepo) Create(ctx context.Context, arg repository.CreateCardParams) (models.Card, error) {
	rows, _ := r.DB.Query(ctx, createCard,
		arg.UserID, arg.Number, arg.Holder, arg.ExpiresAt, arg.Status, arg.Balance,
	)
	card, err := pgx.CollectOneRow(rows, rowToCard)
	if err != nil {
		return card, fmt.Errorf("db error: %w", err)
	}
	return card, nil
}

const getCardByUserAndNumber = `-- name: GetCardByUserAndNumber
SELECT ` + cardColumns + ` FROM cards
WHERE user_id = $1 AND number = $2
ORDER BY id
LIMIT 1
`

// The masked number is only unique per owner by convention: on a last-4
// collision the oldest card wins
func (r *CardRepo) GetByUserAndNumber(ctx context.Context, userID int64, number string) (models.Card, error) {
	rows, _ := r.DB.Query(ctx, getCardByUserAndNumber, userID, number)
	return collectCard(rows)
}

const listCardsByUserAndNumbersForUpdate = `-- name: ListCardsByUserAndNumbersForUpdate
SELECT ` + cardColumns + ` FROM cards
WHERE user_id = $1 AND number = ANY($2)
ORDER BY id
FOR UPDATE
`

// Rows come back locked and in id order, so two transfers touching the same
// cards always acquire the locks in the same order
func (r *CardRepo) ListByUserAndNumbersForUpdate(ctx context.Context, userID int64, numbers []string) ([]models.Card, error) {
	rows, _ := r.DB.Query(ctx, listCardsByUserAndNumbersForUpdate, userID, numbers)
	cards, err := pgx.CollectRows(rows, rowToCard)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return cards, nil
}

const listCardsByUser = `-- name: ListCardsByUser
SELECT ` + cardColumns + ` FROM cards
WHERE user_id = $1
  AND ($2 = '' OR lower(number) LIKE '%' || lower($2) || '%' OR lower(holder) LIKE '%' || lower($2) || '%')
ORDER BY id
LIMIT NULLIF($3, 0) OFFSET $4
`

func (r *CardRepo) ListByUser(ctx context.Context, arg repository.ListCardsParams) ([]models.Card, error) {
	rows, _ := r.DB.Query(ctx, listCardsByUser, arg.UserID, arg.Search, arg.Limit, arg.Offset)
	cards, err := pgx.CollectRows(rows, rowToCard)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return cards, nil
}

const listAllCards = `-- name: ListAllCards
SELECT ` + cardColumns + ` FROM cards
ORDER BY id
`

func (r *CardRepo) ListAll(ctx context.Context) ([]models.Card, error) {
	rows, _ := r.DB.Query(ctx, listAllCards)
	cards, err := pgx.CollectRows(rows, rowToCard)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return cards, nil
}

const updateCardStatus = `-- name: UpdateCardStatus
UPDATE cards
SET status = $2
WHERE id = $1
RETURNING ` + cardColumns

func (r *CardRepo) UpdateStatus(ctx context.Context, cardID int64, status string) (models.Card, error) {
	rows, _ := r.DB.Query(ctx, updateCardStatus, cardID, status)
	return collectCard(rows)
}

const setCardBalance = `-- name: SetCardBalance
UPDATE cards
SET balance = $2
WHERE id = $1
RETURNING ` + cardColumns

func (r *CardRepo) SetBalance(ctx context.Context, cardID int64, balance decimal.Decimal) (models.Card, error) {
	rows, _ := r.DB.Query(ctx, setCardBalance, cardID, balance)
	return collectCard(rows)
}

const saveCardBalance = `-- name: SaveCardBalance
UPDATE cards
SET balance = $2
WHERE id = $1
`

// SaveBalances writes the balance of every given card. Atomicity is the
// caller's concern: run it inside Storage.InTx.
func (r *CardRepo) SaveBalances(ctx context.Context, cards []models.Card) error {
	for _, card := range cards {
		tag, err := r.DB.Exec(ctx, saveCardBalance, card.ID, card.Balance)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return &apperrors.CardNotFoundError{Number: card.Number}
		}
	}
	return nil
}

const deleteCard = `-- name: DeleteCard
DELETE FROM cards
WHERE id = $1
`

func (r *CardRepo) Delete(ctx context.Context, cardID int64) error {
	tag, err := r.DB.Exec(ctx, deleteCard, cardID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCardNotFound
	}
	return nil
}

func collectCard(rows pgx.Rows) (models.Card, error) {
	card, err := pgx.CollectOneRow(rows, rowToCard)

	switch {
	case err == nil:
		return card, nil
	case errors.Is(err, pgx.ErrNoRows):
		return card, apperrors.ErrCardNotFound
	default:
		return card, fmt.Errorf("db error: %w", err)
	}
}

func rowToCard(row pgx.CollectableRow) (models.Card, error) {
	var c models.Card
	err := row.Scan(&c.ID, &c.UserID, &c.Number, &c.Holder, &c.ExpiresAt, &c.Status, &c.Balance, &c.CreatedAt)
	return c, err
}
