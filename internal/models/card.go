package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CardStatusActive  = "ACTIVE"
	CardStatusBlocked = "BLOCKED"
	CardStatusExpired = "EXPIRED"
)

// Card number exists only in masked form ("**** **** **** 1234")
// The full number is masked right after generation and never stored
type Card struct {
	ID        int64
	UserID    int64
	Number    string
	Holder    string
	ExpiresAt time.Time
	Status    string
	Balance   decimal.Decimal
	CreatedAt time.Time
}

type CardView struct {
	ID        int64           `json:"id"`
	Number    string          `json:"number"`
	Holder    string          `json:"holder"`
	ExpiresAt time.Time       `json:"expires_at"`
	Status    string          `json:"status"`
	Balance   decimal.Decimal `json:"balance"`
}

func (c Card) View() CardView {
	return CardView{
		ID:        c.ID,
		Number:    c.Number,
		Holder:    c.Holder,
		ExpiresAt: c.ExpiresAt,
		Status:    c.Status,
		Balance:   c.Balance,
	}
}
