package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/techroom/internal/app/models/dto"
	"github.com/yigit/techroom/internal/app/services"
	"github.com/yigit/techroom/internal/middleware"
)

// AccountController handles account endpoints
type AccountController struct {
	accountService *services.AccountService
}

// NewAccountController creates a new AccountController
func NewAccountController(accountService *services.AccountService) *AccountController {
	return &AccountController{
		accountService: accountService,
	}
}

// CreateAccount registers a new account
// @Summary Create an account
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body dto.CreateAccountRequest true "Account information"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 409 {object} dto.ErrorResponse "Username already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /accounts [post]
func (c *AccountController) CreateAccount(ctx *gin.Context) {
	var req dto.CreateAccountRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	account, err := c.accountService.CreateAccount(ctx.Request.Context(), req.ToCandidate())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAccountResponse(account))
}

// GetAccount retrieves an account by id
// @Summary Get account by ID
// @Tags accounts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid account ID format"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /accounts/{id} [get]
func (c *AccountController) GetAccount(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "account")
	if !ok {
		return
	}

	account, err := c.accountService.GetAccount(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAccountResponse(account))
}
