package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/dankotyt/Bank-REST/internal/apperrors"
	"github.com/dankotyt/Bank-REST/internal/handlers/render"
	"github.com/dankotyt/Bank-REST/internal/logger"
	"github.com/dankotyt/Bank-REST/internal/models"
	"github.com/dankotyt/Bank-REST/internal/service/auth"
)

type sessionResponse struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	User         models.UserProfile `json:"user"`
}

func toSessionResponse(session models.Session) sessionResponse {
	return sessionResponse{
		AccessToken:  session.Pair.Access.Value,
		RefreshToken: session.Pair.Refresh.Value,
		User:         session.User,
	}
}

func handleRegister(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email      string    `json:"email" validate:"required,email"`
		Password   string    `json:"password" validate:"required,min=8"`
		Role       string    `json:"role" validate:"omitempty,oneof=ADMIN USER"`
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

		session, err := authService.Register(r.Context(), auth.RegisterParams{
			Email:      data.Email,
			Password:   data.Password,
			Role:       data.Role,
			Name:       data.Name,
			Surname:    data.Surname,
			Patronymic: data.Patronymic,
			Birthday:   data.Birthday,
		})
		if err != nil {
			serviceError(w, l, err)
			return
		}

		authService.SetSessionCookies(w, session)
		render.JSON(w, toSessionResponse(session))
	})
}

func handleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		session, err := authService.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			// One message for unknown user and wrong password, so the
			// endpoint can't be used to probe registered emails
			if errors.Is(err, apperrors.ErrUserNotFound) || errors.Is(err, apperrors.ErrInvalidPassword) {
				render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
				return
			}
			serviceError(w, l, err)
			return
		}

		authService.SetSessionCookies(w, session)
		render.JSON(w, toSessionResponse(session))
	})
}

func handleRefresh(authService authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, ok := authService.RefreshFromRequest(r)
		if !ok {
			authService.ExpireSessionCookies(w)
			render.ServiceError(w, "Refresh token required", http.StatusUnauthorized)
			return
		}

		session, err := authService.Refresh(r.Context(), refresh)
		if err != nil {
			// A failed refresh always ends the session on the client
			authService.ExpireSessionCookies(w)
			if errors.Is(err, apperrors.ErrUserNotFound) {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			serviceError(w, l, err)
			return
		}

		authService.SetSessionCookies(w, session)
		render.JSON(w, toSessionResponse(session))
	})
}

func handleLogout(authService authService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, ok := authService.RefreshFromRequest(r)
		if ok {
			access, _ := authService.TokenFromRequest(r)
			if err := authService.Logout(r.Context(), refresh, access); err != nil {
				l.Error("Logout failed", "error", err)
			}
		}

		// Cookies go away no matter what: logout never fails visibly
		authService.ExpireSessionCookies(w)
		render.JSON(w, response{Message: "Logged out"})
	})
}
