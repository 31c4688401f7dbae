package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dankotyt/Bank-REST/internal/apperrors"
	"github.com/dankotyt/Bank-REST/internal/cards"
	"github.com/dankotyt/Bank-REST/internal/models"
	"github.com/dankotyt/Bank-REST/internal/repository"
)

// Issued cards stay valid for five years
const cardLifetime = 5

// Service covers the administrative surface: card issuance and lifecycle,
// balance adjustment and user management
type Service struct {
	storage repository.Storage
	hasher  PasswordHasher
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}

func NewService(storage repository.Storage, hasher PasswordHasher) *Service {
	return &Service{storage: storage, hasher: hasher}
}

// CreateCard issues a new active card for the user. The generated number is
// masked before it is ever stored, so only the last four digits survive.
func (s *Service) CreateCard(ctx context.Context, userID int64) (models.CardView, error) {
	var view models.CardView

	user, err := s.storage.User().GetByID(ctx, userID)
	if err != nil {
		return view, err
	}

	number, err := cards.Generate()
	if err != nil {
		return view, err
	}

	card, err := s.storage.Card().Create(ctx, repository.CreateCardParams{
		UserID:    user.ID,
		Number:    number,
		Holder:    user.Name + " " + user.Surname,
		ExpiresAt: time.Now().AddDate(cardLifetime, 0, 0),
		Status:    models.CardStatusActive,
		Balance:   decimal.Zero,
	})
	if err != nil {
		return view, fmt.Errorf("error while creating card. Err: %w", err)
	}

	return card.View(), nil
}

func (s *Service) ActivateCard(ctx context.Context, userID int64, last4 string) (models.CardView, error) {
	return s.setCardStatus(ctx, userID, last4, models.CardStatusActive)
}

func (s *Service) BlockCard(ctx context.Context, userID int64, last4 string) (models.CardView, error) {
	return s.setCardStatus(ctx, userID, last4, models.CardStatusBlocked)
}

func (s *Service) setCardStatus(ctx context.Context, userID int64, last4 string, status string) (models.CardView, error) {
	var view models.CardView

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		card, err := findUserCard(ctx, store, userID, last4)
		if err != nil {
			return err
		}

		switch {
		case status == models.CardStatusActive && card.Status == models.CardStatusActive:
			return apperrors.ErrCardAlreadyActive
		case status == models.CardStatusBlocked && card.Status != models.CardStatusActive:
			return apperrors.ErrCardAlreadyBlocked
		}

		card, err = store.Card().UpdateStatus(ctx, card.ID, status)
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

func (s *Service) DeleteCard(ctx context.Context, userID int64, last4 string) error {
	return s.storage.InTx(ctx, func(store repository.Storage) error {
		card, err := findUserCard(ctx, store, userID, last4)
		if err != nil {
			return err
		}
		return store.Card().Delete(ctx, card.ID)
	})
}

// SetCardBalance overwrites the card balance. Administrative correction, not
// a money movement: no funds checks beyond non-negativity.
func (s *Service) SetCardBalance(ctx context.Context, userID int64, last4 string, balance decimal.Decimal) (models.CardView, error) {
	var view models.CardView

	if balance.IsNegative() {
		return view, apperrors.ErrAmountNotPositive
	}

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		card, err := findUserCard(ctx, store, userID, last4)
		if err != nil {
			return err
		}

		card, err = store.Card().SetBalance(ctx, card.ID, balance)
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

func (s *Service) ListAllCards(ctx context.Context) ([]models.CardView, error) {
	list, err := s.storage.Card().ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return views(list), nil
}

func (s *Service) ListUserCards(ctx context.Context, userID int64) ([]models.CardView, error) {
	if _, err := s.storage.User().GetByID(ctx, userID); err != nil {
		return nil, err
	}

	list, err := s.storage.Card().ListByUser(ctx, repository.ListCardsParams{UserID: userID})
	if err != nil {
		return nil, err
	}
	return views(list), nil
}

type CreateUserParams struct {
	Email      string
	Password   string
	Name       string
	Surname    string
	Patronymic string
	Birthday   time.Time
}

// CreateUser registers a user on behalf of an administrator
// The role is always USER: admins are not minted over the API
func (s *Service) CreateUser(ctx context.Context, arg CreateUserParams) (models.UserProfile, error) {
	var profile models.UserProfile

	exists, err := s.storage.User().ExistsByEmail(ctx, arg.Email)
	if err != nil {
		return profile, fmt.Errorf("error while checking email. Err: %w", err)
	}
	if exists {
		return profile, apperrors.ErrUserAlreadyExists
	}

	hash, err := s.hasher.Hash(arg.Password)
	if err != nil {
		return profile, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err := s.storage.User().Create(ctx, repository.CreateUserParams{
		Email:        arg.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Name:         arg.Name,
		Surname:      arg.Surname,
		Patronymic:   arg.Patronymic,
		Birthday:     arg.Birthday,
	})
	if err != nil {
		return profile, err
	}

	return user.Profile(), nil
}

func (s *Service) GetUser(ctx context.Context, userID int64) (models.UserProfile, error) {
	user, err := s.storage.User().GetByID(ctx, userID)
	if err != nil {
		return models.UserProfile{}, err
	}
	return user.Profile(), nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (models.UserProfile, error) {
	user, err := s.storage.User().GetByEmail(ctx, email)
	if err != nil {
		return models.UserProfile{}, err
	}
	return user.Profile(), nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.UserProfile, error) {
	users, err := s.storage.User().List(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]models.UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, nil
}

type UpdateUserParams struct {
	Email      *string
	Name       *string
	Surname    *string
	Patronymic *string
	Birthday   *time.Time
}

// UpdateUser patches the user's profile fields. The stored refresh token is
// untouched, so an update does not log the user out.
func (s *Service) UpdateUser(ctx context.Context, userID int64, arg UpdateUserParams) (models.UserProfile, error) {
	var profile models.UserProfile

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		current, err := store.User().GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if arg.Email != nil && *arg.Email != current.Email {
			busy, err := store.User().ExistsByEmail(ctx, *arg.Email)
			if err != nil {
				return fmt.Errorf("error while checking email. Err: %w", err)
			}
			if busy {
				return apperrors.ErrEmailBusy
			}
		}

		user, err := store.User().Update(ctx, userID, repository.UpdateUserParams{
			Email:      arg.Email,
			Name:       arg.Name,
			Surname:    arg.Surname,
			Patronymic: arg.Patronymic,
			Birthday:   arg.Birthday,
		})
		if err != nil {
			return err
		}

		profile = user.Profile()
		return nil
	})
	if err != nil {
		return models.UserProfile{}, err
	}

	return profile, nil
}

func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	return s.storage.User().Delete(ctx, userID)
}

func views(list []models.Card) []models.CardView {
	out := make([]models.CardView, 0, len(list))
	for _, c := range list {
		out = append(out, c.View())
	}
	return out
}

func findUserCard(ctx context.Context, store repository.Storage, userID int64, last4 string) (models.Card, error) {
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
