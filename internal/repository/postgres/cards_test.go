package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dankotyt/Bank-REST/internal/apperrors"
	"github.com/dankotyt/Bank-REST/internal/models"
	"github.com/dankotyt/Bank-REST/internal/repository"
	"github.com/dankotyt/Bank-REST/internal/testutil"
)

func mustCreateCard(t *testing.T, r *CardRepo, userID int64, number string, balance string) models.Card {
	t.Helper()

	card, err := r.Create(t.Context(), repository.CreateCardParams{
		UserID:    userID,
		Number:    number,
		Holder:    "IVAN IVANOV",
		ExpiresAt: time.Now().AddDate(5, 0, 0),
		Status:    models.CardStatusActive,
		Balance:   decimal.RequireFromString(balance),
	})
	require.NoError(t, err)
	return card
}

func Test_CardRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create card ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			r := &CardRepo{DB: tx}
			owner := mustCreateUser(t, users, "cardowner@bank.test")

			card := mustCreateCard(t, r, owner.ID, "**** **** **** 1234", "100.50")

			assert.NotZero(t, card.ID)
			assert.Equal(t, owner.ID, card.UserID)
			assert.Equal(t, "**** **** **** 1234", card.Number)
			assert.Equal(t, models.CardStatusActive, card.Status)
			assert.True(t, card.Balance.Equal(decimal.RequireFromString("100.50")))
		})
	})

	t.Run("get by user and number", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			r := &CardRepo{DB: tx}
			owner := mustCreateUser(t, users, "lookup@bank.test")
			created := mustCreateCard(t, r, owner.ID, "**** **** **** 1111", "0")

			got, err := r.GetByUserAndNumber(t.Context(), owner.ID, "**** **** **** 1111")

			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
		})
	})

	t.Run("lookup is scoped to owner", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			r := &CardRepo{DB: tx}
			owner := mustCreateUser(t, users, "owner@bank.test")
			stranger := mustCreateUser(t, users, "stranger@bank.test")
			mustCreateCard(t, r, owner.ID, "**** **** **** 2222", "0")

			_, err := r.GetByUserAndNumber(t.Context(), stranger.ID, "**** **** **** 2222")

			assert.ErrorIs(t, err, apperrors.ErrCardNotFound, "one user must not see another user's card")
		})
	})

	t.Run("last4 collision takes oldest card", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			r := &CardRepo{DB: tx}
			owner := mustCreateUser(t, users, "collision@bank.test")
			first := mustCreateCard(t, r, owner.ID, "**** **** **** 3333", "0")
			mustCreateCard(t, r, owner.ID, "**** **** **** 3333", "0")

			got, err := r.GetByUserAndNumber(t.Context(), owner.ID, "**** **** **** 3333")

			require.NoError(t, err)
			assert.Equal(t, first.ID, got.ID)
		})
	})

	t.Run("lock cards in id order", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			r := &CardRepo{DB: tx}
			owner := mustCreateUser(t, users, "lock@bank.test")
			first := mustCreateCard(t, r, owner.ID, "**** **** **** 4444", "0")
			second := mustCreateCard(t, r, owner.ID, "**** **** **** 5555", "0")

			// Numbers given in reverse, rows must still come back by id
			locked, err := r.ListByUserAndNumbersForUpdate(t.Context(), owner.ID,
				[]string{"**** **** **** 5555", "**** **** **** 4444"})

			require.NoError(t, err)
			require.Len(t, locked, 2)
			assert.Equal(t, first.ID, locked[0].ID)
			assert.Equal(t, second.ID, locked[1].ID)
		})
	})

	t.Run("list by user with search and paging", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			r := &CardRepo{DB: tx}
			owner := mustCreateUser(t, users, "paging@bank.test")
			mustCreateCard(t, r, owner.ID, "**** **** **** 6001", "0")
			mustCreateCard(t, r, owner.ID, "**** **** **** 6002", "0")
			mustCreateCard(t, r, owner.ID, "**** **** **** 7003", "0")

			all, err := r.ListByUser(t.Context(), repository.ListCardsParams{UserID: owner.ID})
			require.NoError(t, err)
			assert.Len(t, all, 3, "zero limit means no limit")

			found, err := r.ListByUser(t.Context(), repository.ListCardsParams{UserID: owner.ID, Search: "600"})
			require.NoError(t, err)
			assert.Len(t, found, 2)

			page, err := r.ListByUser(t.Context(), repository.ListCardsParams{UserID: owner.ID, Limit: 2, Offset: 2})
			require.NoError(t, err)
			require.Len(t, page, 1)
			assert.Equal(t, "**** **** **** 7003", page[0].Number)
		})
	})

	t.Run("update status", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			r := &CardRepo{DB: tx}
			owner := mustCreateUser(t, users, "status@bank.test")
			card := mustCreateCard(t, r, owner.ID, "**** **** **** 8888", "0")

			got, err := r.UpdateStatus(t.Context(), card.ID, models.CardStatusBlocked)

			require.NoError(t, err)
			assert.Equal(t, models.CardStatusBlocked, got.Status)

			_, err = r.UpdateStatus(t.Context(), 424242, models.CardStatusBlocked)
			assert.ErrorIs(t, err, apperrors.ErrCardNotFound)
		})
	})

	t.Run("set balance", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			r := &CardRepo{DB: tx}
			owner := mustCreateUser(t, users, "setbalance@bank.test")
			card := mustCreateCard(t, r, owner.ID, "**** **** **** 9999", "0")

			got, err := r.SetBalance(t.Context(), card.ID, decimal.RequireFromString("250.75"))

			require.NoError(t, err)
			assert.True(t, got.Balance.Equal(decimal.RequireFromString("250.75")))
		})
	})

	t.Run("save balances", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			r := &CardRepo{DB: tx}
			owner := mustCreateUser(t, users, "save@bank.test")
			from := mustCreateCard(t, r, owner.ID, "**** **** **** 1010", "500")
			to := mustCreateCard(t, r, owner.ID, "**** **** **** 2020", "100")

			from.Balance = decimal.RequireFromString("400")
			to.Balance = decimal.RequireFromString("200")

			err := r.SaveBalances(t.Context(), []models.Card{from, to})
			require.NoError(t, err)

			gotFrom, err := r.GetByUserAndNumber(t.Context(), owner.ID, from.Number)
			require.NoError(t, err)
			assert.True(t, gotFrom.Balance.Equal(decimal.RequireFromString("400")))

			gotTo, err := r.GetByUserAndNumber(t.Context(), owner.ID, to.Number)
			require.NoError(t, err)
			assert.True(t, gotTo.Balance.Equal(decimal.RequireFromString("200")))
		})
	})

	t.Run("save balances of missing card", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := &CardRepo{DB: tx}

			err := r.SaveBalances(t.Context(), []models.Card{{ID: 424242, Number: "**** **** **** 0000"}})

			assert.ErrorIs(t, err, apperrors.ErrCardNotFound)
		})
	})

	t.Run("negative balance rejected by schema", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			r := &CardRepo{DB: tx}
			owner := mustCreateUser(t, users, "negative@bank.test")
			card := mustCreateCard(t, r, owner.ID, "**** **** **** 3030", "10")

			_, err := r.SetBalance(t.Context(), card.ID, decimal.RequireFromString("-1"))

			require.Error(t, err, "balance check constraint is the last line of defense")
		})
	})

	t.Run("delete card", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			r := &CardRepo{DB: tx}
			owner := mustCreateUser(t, users, "deletecard@bank.test")
			card := mustCreateCard(t, r, owner.ID, "**** **** **** 4040", "0")

			require.NoError(t, r.Delete(t.Context(), card.ID))

			err := r.Delete(t.Context(), card.ID)
			assert.ErrorIs(t, err, apperrors.ErrCardNotFound)
		})
	})

	t.Run("cards deleted with their owner", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			r := &CardRepo{DB: tx}
			owner := mustCreateUser(t, users, "cascade@bank.test")
			mustCreateCard(t, r, owner.ID, "**** **** **** 5050", "0")

			require.NoError(t, users.Delete(t.Context(), owner.ID))

			cards, err := r.ListByUser(t.Context(), repository.ListCardsParams{UserID: owner.ID})
			require.NoError(t, err)
			assert.Empty(t, cards)
		})
	})
}
