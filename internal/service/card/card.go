package card

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dankotyt/Bank-REST/internal/apperrors"
	"github.com/dankotyt/Bank-REST/internal/cards"
	"github.com/dankotyt/Bank-REST/internal/models"
	"github.com/dankotyt/Bank-REST/internal/repository"
)

// Service covers the card operations a user may run on their own cards
type Service struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *Service {
	return &Service{storage: storage}
}

type ListParams struct {
	Search string
	Limit  int
	Offset int
}

func (s *Service) List(ctx context.Context, userID int64, arg ListParams) ([]models.CardView, error) {
	list, err := s.storage.Card().ListByUser(ctx, repository.ListCardsParams{
		UserID: userID,
		Search: arg.Search,
		Limit:  arg.Limit,
		Offset: arg.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("error while listing cards. Err: %w", err)
	}

	views := make([]models.CardView, 0, len(list))
	for _, c := range list {
		views = append(views, c.View())
	}
	return views, nil
}

func (s *Service) Balance(ctx context.Context, userID int64, last4 string) (decimal.Decimal, error) {
	card, err := s.findUserCard(ctx, s.storage, userID, last4)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return card.Balance, nil
}

// Block puts the user's own card out of service until an administrator
// re-activates it
func (s *Service) Block(ctx context.Context, userID int64, last4 string) (models.CardView, error) {
	var view models.CardView

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		card, err := s.findUserCard(ctx, store, userID, last4)
		if err != nil {
			return err
		}
		if card.Status == models.CardStatusBlocked {
			return apperrors.ErrCardAlreadyBlocked
		}

		card, err = store.Card().UpdateStatus(ctx, card.ID, models.CardStatusBlocked)
		if err != nil {
			return err
		}

		view = card.View()
		return nil
	})
	if err != nil {
		return models.CardView{}, err
	}

	return view, nil
}

// Deposit credits the card with amount (replenishment)
func (s *Service) Deposit(ctx context.Context, userID int64, last4 string, amount decimal.Decimal) (models.CardView, error) {
	var view models.CardView

	if amount.LessThanOrEqual(decimal.Zero) {
		return view, apperrors.ErrAmountNotPositive
	}

	number := cards.Display(last4)

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		user, err := store.User().GetByID(ctx, userID)
		if err != nil {
			return err
		}

		locked, err := store.Card().ListByUserAndNumbersForUpdate(ctx, userID, []string{number})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return &apperrors.CardNotFoundError{Number: number, OwnerEmail: user.Email}
		}

		card := locked[0]
		if card.Status != models.CardStatusActive {
			return apperrors.ErrCardNotActive
		}

		card.Balance = card.Balance.Add(amount)
		if err := store.Card().SaveBalances(ctx, []models.Card{card}); err != nil {
			return fmt.Errorf("error while saving balance. Err: %w", err)
		}

		view = card.View()
		return nil
	})
	if err != nil {
		return models.CardView{}, err
	}

	return view, nil
}

// findUserCard resolves a card by owner and last-4 suffix, decorating the not
// found case with the owner's email for diagnostics
func (s *Service) findUserCard(ctx context.Context, store repository.Storage, userID int64, last4 string) (models.Card, error) {
	user, err := store.User().GetByID(ctx, userID)
	if err != nil {
		return models.Card{}, err
	}

	number := cards.Display(last4)
	card, err := store.Card().GetByUserAndNumber(ctx, userID, number)
	if errors.Is(err, apperrors.ErrCardNotFound) {
		return models.Card{}, &apperrors.CardNotFoundError{Number: number, OwnerEmail: user.Email}
	}
	return card, err
}
