package dto

import (
	"time"

	"github.com/yigit/techroom/internal/app/models"
	"github.com/yigit/techroom/internal/app/repositories"
)

// CreateAccountRequest represents the body of POST /api/accounts
type CreateAccountRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50" example:"jdoe"`
	Password string `json:"password" binding:"required,min=6,max=72" example:"s3cret!"`
	Role     string `json:"role" binding:"omitempty,oneof=admin student teacher" example:"student"`
}

// ToCandidate converts the request to a store candidate
func (r CreateAccountRequest) ToCandidate() repositories.AccountCandidate {
	return repositories.AccountCandidate{
		Username: r.Username,
		Password: r.Password,
		Role:     models.Role(r.Role),
	}
}

// AccountResponse is the public view of an account. It never carries the password hash.
type AccountResponse struct {
	ID        int64       `json:"id" example:"1"`
	Username  string      `json:"username" example:"jdoe"`
	Role      models.Role `json:"role" example:"student"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NewAccountResponse builds the public view of account
func NewAccountResponse(account *models.Account) *AccountResponse {
	return &AccountResponse{
		ID:        account.ID,
		Username:  account.Username,
		Role:      account.Role,
		CreatedAt: account.CreatedAt,
	}
}
