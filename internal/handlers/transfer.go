package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dankotyt/Bank-REST/internal/handlers/render"
	"github.com/dankotyt/Bank-REST/internal/handlers/userctx"
	"github.com/dankotyt/Bank-REST/internal/logger"
)

func handleTransfer(transferService transferService, l logger.Logger) http.Handler {
	type request struct {
		FromLast4 string          `json:"from_last4" validate:"required,len=4,number"`
		ToLast4   string          `json:"to_last4" validate:"required,len=4,number"`
		Amount    decimal.Decimal `json:"amount" validate:"required"`
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

		result, err := transferService.Transfer(r.Context(), user.ID, data.FromLast4, data.ToLast4, data.Amount)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, result)
	})
}
