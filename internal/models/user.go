package models

import (
	"time"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type User struct {
	ID           int64
	CreatedAt    time.Time
	Email        string
	PasswordHash string
	Role         string
	Name         string
	Surname      string
	Patronymic   string
	Birthday     time.Time

	// Current refresh token and its expiry
	// Both nil when the user is logged out
	RefreshToken          *string
	RefreshTokenExpiresAt *time.Time
}

// Projection returned to API callers
// Never carries the password hash or the stored refresh token
type UserProfile struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Name       string    `json:"name"`
	Surname    string    `json:"surname"`
	Patronymic string    `json:"patronymic,omitempty"`
	Birthday   time.Time `json:"birthday"`
	CreatedAt  time.Time `json:"created_at"`
}

func (u User) Profile() UserProfile {
	return UserProfile{
		ID:         u.ID,
		Email:      u.Email,
		Role:       u.Role,
		Name:       u.Name,
		Surname:    u.Surname,
		Patronymic: u.Patronymic,
		Birthday:   u.Birthday,
		CreatedAt:  u.CreatedAt,
	}
}
