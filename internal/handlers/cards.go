package handlers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dankotyt/Bank-REST/internal/handlers/render"
	"github.com/dankotyt/Bank-REST/internal/handlers/userctx"
	"github.com/dankotyt/Bank-REST/internal/logger"
	cardservice "github.com/dankotyt/Bank-REST/internal/service/card"
)

func handleListCards(cardService cardService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		params := cardservice.ListParams{
			Search: r.URL.Query().Get("search"),
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, err := strconv.ParseUint(v, 10, 31)
			if err != nil {
				render.ServiceError(w, "Invalid 'limit' parameter", http.StatusBadRequest)
				return
			}
			params.Limit = int(limit)
		}
		if v := r.URL.Query().Get("offset"); v != "" {
			offset, err := strconv.ParseUint(v, 10, 31)
			if err != nil {
				render.ServiceError(w, "Invalid 'offset' parameter", http.StatusBadRequest)
				return
			}
			params.Offset = int(offset)
		}

		cards, err := cardService.List(r.Context(), user.ID, params)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, cards)
	})
}

func handleCardBalance(cardService cardService, l logger.Logger) http.Handler {
	type response struct {
		Balance decimal.Decimal `json:"balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		balance, err := cardService.Balance(r.Context(), user.ID, r.PathValue("last4"))
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, response{Balance: balance})
	})
}

func handleBlockCard(cardService cardService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		card, err := cardService.Block(r.Context(), user.ID, r.PathValue("last4"))
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, card)
	})
}

func handleDeposit(cardService cardService, l logger.Logger) http.Handler {
	type request struct {
		Amount decimal.Decimal `json:"amount" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		card, err := cardService.Deposit(r.Context(), user.ID, r.PathValue("last4"), data.Amount)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, card)
	})
}
