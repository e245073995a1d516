package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/SscSPs/bookkeeping_core/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
	"github.com/SscSPs/bookkeeping_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to the chart of accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
}

func newAccountHandler(as portssvc.AccountSvcFacade) *accountHandler {
	return &accountHandler{accountService: as}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade) {
	h := newAccountHandler(accountService)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:id", h.getAccount)
		accounts.PUT("/:id", h.updateAccount)
		accounts.DELETE("/:id", h.deactivateAccount)
	}
}

// createAccount godoc
// @Summary Create a new account
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Duplicate code"
// @Security BearerAuth
// @Router /accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateAccountRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to create account")
		return
	}

	logger.Info("Account created successfully", slog.String("account_id", account.AccountID))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// getAccount godoc
// @Summary Get an account by ID
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /accounts/{id} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", c.Param("id")))

	account, err := h.accountService.GetAccountByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// listAccounts godoc
// @Summary List accounts ordered by code
// @Tags accounts
// @Produce  json
// @Param   limit query int false "Page size" default(20)
// @Param   offset query int false "Offset" default(0)
// @Success 200 {array} dto.AccountResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	limit, errLimit := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, errOffset := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if errLimit != nil || errOffset != nil || limit < 0 || offset < 0 {
		logger.Warn("Invalid pagination parameters", slog.String("limit", c.Query("limit")), slog.String("offset", c.Query("offset")))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit and offset must be non-negative integers"})
		return
	}

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), dto.ListAccountsParams{Limit: limit, Offset: offset})
	if err != nil {
		respondError(c, logger, err, "Failed to list accounts")
		return
	}

	resp := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		resp = append(resp, dto.ToAccountResponse(&accounts[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// updateAccount godoc
// @Summary Rename or (de)activate an account
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   account body dto.UpdateAccountRequest true "Fields to update"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Concurrent update"
// @Security BearerAuth
// @Router /accounts/{id} [put]
func (h *accountHandler) updateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", c.Param("id")))
	var req dto.UpdateAccountRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, logger, err, "Failed to update account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// deactivateAccount godoc
// @Summary Deactivate an account
// @Tags accounts
// @Param   id path string true "Account ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /accounts/{id} [delete]
func (h *accountHandler) deactivateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", c.Param("id")))

	if err := h.accountService.DeactivateAccount(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, logger, err, "Failed to deactivate account")
		return
	}
	logger.Info("Account deactivated")
	c.Status(http.StatusNoContent)
}
