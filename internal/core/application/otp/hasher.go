package otp

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher turns code plaintexts into stored hashes and compares candidates in
// constant time.
type Hasher interface {
	Hash(code string) ([]byte, error)
	Matches(hash []byte, candidate string) bool
}

// BcryptHasher stores codes as bcrypt hashes.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher clamps cost into bcrypt's accepted range.
func NewBcryptHasher(cost int) BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return BcryptHasher{cost: cost}
}

// Hash returns the bcrypt hash of code.
func (h BcryptHasher) Hash(code string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(code), h.cost)
}

// Matches reports whether candidate hashes to hash.
func (h BcryptHasher) Matches(hash []byte, candidate string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(candidate)) == nil
}
