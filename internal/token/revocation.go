package token

import (
	"sync"
	"time"
)

// RevocationRegistry tracks tokens withdrawn ahead of their natural expiry.
// Kept as an interface so a shared store can back it later without changing
// the validator's contract.
type RevocationRegistry interface {
	Revoke(tokenString string)
	IsRevoked(tokenString string) bool
}

// RevocationList is the in-process registry: a concurrent set of revoked
// token strings living as long as the process. Entries are pruned once their
// embedded expiry passes, the token is rejected by expiry checks anyway.
type RevocationList struct {
	codec *Codec

	mu      sync.Mutex
	revoked map[string]time.Time // token -> embedded expiry
}

func NewRevocationList(codec *Codec) *RevocationList {
	return &RevocationList{
		codec:   codec,
		revoked: make(map[string]time.Time),
	}
}

// Revoke adds the token to the registry. Idempotent. Already expired (or
// undecodable) tokens are skipped: they need no tracking because expiry
// checks reject them anyway.
func (l *RevocationList) Revoke(tokenString string) {
	expiresAt, err := l.codec.ExpiresAt(tokenString)
	if err != nil || expiresAt.Before(time.Now()) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(time.Now())
	l.revoked[tokenString] = expiresAt
}

func (l *RevocationList) IsRevoked(tokenString string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.revoked[tokenString]
	return ok
}

// prune drops entries whose expiry passed. Caller must hold the lock.
func (l *RevocationList) prune(now time.Time) {
	for t, expiresAt := range l.revoked {
		if expiresAt.Before(now) {
			delete(l.revoked, t)
		}
	}
}
