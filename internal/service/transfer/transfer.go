package transfer

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dankotyt/Bank-REST/internal/apperrors"
	"github.com/dankotyt/Bank-REST/internal/cards"
	"github.com/dankotyt/Bank-REST/internal/models"
	"github.com/dankotyt/Bank-REST/internal/repository"
)

type Result struct {
	From models.CardView `json:"from_card"`
	To   models.CardView `json:"to_card"`
}

// Service moves money between two cards of the same user
type Service struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *Service {
	return &Service{storage: storage}
}

// Transfer debits fromLast4 and credits toLast4 by amount in one transaction.
// Cards are addressed by the last four digits of their number and resolved
// within the owner's cards only, so transfers cannot cross users. Balances
// never go through floats.
func (s *Service) Transfer(ctx context.Context, userID int64, fromLast4 string, toLast4 string, amount decimal.Decimal) (Result, error) {
	var result Result

	if amount.LessThanOrEqual(decimal.Zero) {
		return result, apperrors.ErrAmountNotPositive
	}
	if fromLast4 == toLast4 {
		return result, apperrors.ErrSameCardTransfer
	}

	fromNumber := cards.Display(fromLast4)
	toNumber := cards.Display(toLast4)

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		user, err := store.User().GetByID(ctx, userID)
		if err != nil {
			return err
		}

		// Both rows come back locked in id order
		locked, err := store.Card().ListByUserAndNumbersForUpdate(ctx, userID, []string{fromNumber, toNumber})
		if err != nil {
			return err
		}

		fromCard, err := pick(locked, fromNumber, user.Email)
		if err != nil {
			return err
		}
		toCard, err := pick(locked, toNumber, user.Email)
		if err != nil {
			return err
		}

		if fromCard.Status != models.CardStatusActive || toCard.Status != models.CardStatusActive {
			return apperrors.ErrCardNotActive
		}
		if fromCard.Balance.LessThan(amount) {
			return apperrors.ErrInsufficientFunds
		}

		fromCard.Balance = fromCard.Balance.Sub(amount)
		toCard.Balance = toCard.Balance.Add(amount)

		if err := store.Card().SaveBalances(ctx, []models.Card{fromCard, toCard}); err != nil {
			return fmt.Errorf("error while saving balances. Err: %w", err)
		}

		result = Result{From: fromCard.View(), To: toCard.View()}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return result, nil
}

// pick returns the first (lowest id) card with the given number
func pick(locked []models.Card, number string, ownerEmail string) (models.Card, error) {
	for _, card := range locked {
		if card.Number == number {
			return card, nil
		}
	}
	return models.Card{}, &apperrors.CardNotFoundError{Number: number, OwnerEmail: ownerEmail}
}
