package models

import (
	"time"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Pair of tokens issued on register, login and refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// Session is what authentication operations return to the caller: the token
// pair plus a profile projection of the authenticated user
type Session struct {
	Pair TokenPair
	User UserProfile
}
