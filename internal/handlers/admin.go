package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dankotyt/Bank-REST/internal/handlers/render"
	"github.com/dankotyt/Bank-REST/internal/logger"
	"github.com/dankotyt/Bank-REST/internal/service/admin"
)

// pathUserID parses the {userID} path segment. Writes the error response
// itself, so callers just return on !ok.
func pathUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("userID"), 10, 64)
	if err != nil || id <= 0 {
		render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func handleAdminCreateUser(adminService adminService, l logger.Logger) http.Handler {
	type request struct {
		Email      string    `json:"email" validate:"required,email"`
		Password   string    `json:"password" validate:"required,min=8"`
		Name       string    `json:"name" validate:"required"`
		Surname    string    `json:"surname" validate:"required"`
		Patronymic string    `json:"patronymic"`
		Birthday   time.Time `json:"birthday" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		profile, err := adminService.CreateUser(r.Context(), admin.CreateUserParams{
			Email:      data.Email,
			Password:   data.Password,
			Name:       data.Name,
			Surname:    data.Surname,
			Patronymic: data.Patronymic,
			Birthday:   data.Birthday,
		})
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, profile)
	})
}

func handleAdminListUsers(adminService adminService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		users, err := adminService.ListUsers(r.Context())
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, users)
	})
}

func handleAdminGetUser(adminService adminService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUserID(w, r)
		if !ok {
			return
		}

		profile, err := adminService.GetUser(r.Context(), userID)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, profile)
	})
}

func handleAdminGetUserByEmail(adminService adminService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile, err := adminService.GetUserByEmail(r.Context(), r.PathValue("email"))
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, profile)
	})
}

func handleAdminUpdateUser(adminService adminService, l logger.Logger) http.Handler {
	type request struct {
		Email      *string    `json:"email" validate:"omitempty,email"`
		Name       *string    `json:"name" validate:"omitempty,min=1"`
		Surname    *string    `json:"surname" validate:"omitempty,min=1"`
		Patronymic *string    `json:"patronymic"`
		Birthday   *time.Time `json:"birthday"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUserID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		profile, err := adminService.UpdateUser(r.Context(), userID, admin.UpdateUserParams{
			Email:      data.Email,
			Name:       data.Name,
			Surname:    data.Surname,
			Patronymic: data.Patronymic,
			Birthday:   data.Birthday,
		})
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, profile)
	})
}

func handleAdminDeleteUser(adminService adminService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUserID(w, r)
		if !ok {
			return
		}

		if err := adminService.DeleteUser(r.Context(), userID); err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, response{Message: "User deleted"})
	})
}

func handleAdminListAllCards(adminService adminService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cards, err := adminService.ListAllCards(r.Context())
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, cards)
	})
}

func handleAdminCreateCard(adminService adminService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUserID(w, r)
		if !ok {
			return
		}

		card, err := adminService.CreateCard(r.Context(), userID)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, card)
	})
}

func handleAdminListUserCards(adminService adminService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUserID(w, r)
		if !ok {
			return
		}

		cards, err := adminService.ListUserCards(r.Context(), userID)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, cards)
	})
}

func handleAdminActivateCard(adminService adminService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUserID(w, r)
		if !ok {
			return
		}

		card, err := adminService.ActivateCard(r.Context(), userID, r.PathValue("last4"))
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, card)
	})
}

func handleAdminBlockCard(adminService adminService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUserID(w, r)
		if !ok {
			return
		}

		card, err := adminService.BlockCard(r.Context(), userID, r.PathValue("last4"))
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, card)
	})
}

func handleAdminDeleteCard(adminService adminService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUserID(w, r)
		if !ok {
			return
		}

		if err := adminService.DeleteCard(r.Context(), userID, r.PathValue("last4")); err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, response{Message: "Card deleted"})
	})
}

func handleAdminSetCardBalance(adminService adminService, l logger.Logger) http.Handler {
	type request struct {
		Balance decimal.Decimal `json:"balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUserID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		card, err := adminService.SetCardBalance(r.Context(), userID, r.PathValue("last4"), data.Balance)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, card)
	})
}
