package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the default hashing cost
const BcryptCost = 12

// PasswordHasher turns raw account secrets into bcrypt hashes
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using cost, or BcryptCost when cost is
// outside the range bcrypt accepts.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = BcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt hash of password. A nil hasher uses BcryptCost.
func (h *PasswordHasher) Hash(password string) (string, error) {
	cost := BcryptCost
	if h != nil {
		cost = h.cost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword reports whether password matches hashedPassword
func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
