package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_core/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
	"github.com/SscSPs/bookkeeping_core/internal/utils/validation"
	"github.com/google/uuid"
)

const defaultAccountListLimit = 100

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(repo portsrepo.AccountRepositoryFacade, options ...ServiceOption) portssvc.AccountSvcFacade {
	deps := applyOptions(options)
	return &accountService{
		BaseService: BaseService{clock: deps.clock},
		accountRepo: repo,
	}
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	if err := validation.Struct(req); err != nil {
		s.LogWarn(ctx, err, "Invalid create account request", slog.String("code", req.Code))
		return nil, err
	}

	nature := req.Nature
	if nature == "" {
		nature = req.AccountType.NormalNature()
	}

	level := 1
	if req.ParentAccountID != nil {
		parent, err := s.accountRepo.FindAccountByID(ctx, *req.ParentAccountID)
		if err != nil {
			s.LogFailure(ctx, err, "Failed to find parent account",
				slog.String("parent_id", *req.ParentAccountID))
			return nil, fmt.Errorf("invalid parent account: %w", err)
		}
		level = parent.Level + 1
	}

	account := domain.Account{
		AccountID:       uuid.NewString(),
		Code:            req.Code,
		Name:            req.Name,
		AccountType:     req.AccountType,
		Nature:          nature,
		Level:           level,
		ParentAccountID: req.ParentAccountID,
		IsActive:        true,
		AuditFields:     domain.NewAuditFields(s.UserID(ctx), s.Now()),
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogFailure(ctx, err, "Failed to save account",
			slog.String("account_id", account.AccountID),
			slog.String("code", account.Code))
		return nil, err
	}

	s.LogInfo(ctx, "Account created successfully",
		slog.String("account_id", account.AccountID),
		slog.String("code", account.Code))
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogWarn(ctx, err, "Account not found", slog.String("account_id", accountID))
		} else {
			s.LogError(ctx, err, "Failed to get account", slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to get account by code", slog.String("code", code))
		return nil, err
	}
	return account, nil
}

func (s *accountService) GetAccountByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, uniqueStrings(accountIDs))
	if err != nil {
		s.LogError(ctx, err, "Failed to get accounts", slog.Int("count", len(accountIDs)))
		return nil, err
	}
	return accounts, nil
}

func (s *accountService) ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultAccountListLimit
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	accounts, err := s.accountRepo.ListAccounts(ctx, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts")
		return nil, err
	}
	return accounts, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest) (*domain.Account, error) {
	if err := validation.Struct(req); err != nil {
		s.LogWarn(ctx, err, "Invalid update account request", slog.String("account_id", accountID))
		return nil, err
	}

	account, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	updated := false
	if req.Name != nil {
		account.Name = *req.Name
		updated = true
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
		updated = true
	}
	if !updated {
		s.LogDebug(ctx, "No fields provided for account update", slog.String("account_id", accountID))
		return account, nil
	}

	account.Touch(s.UserID(ctx), s.Now())
	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		s.LogError(ctx, err, "Failed to update account", slog.String("account_id", accountID))
		return nil, err
	}

	s.LogInfo(ctx, "Account updated successfully", slog.String("account_id", accountID))
	return account, nil
}

func (s *accountService) DeactivateAccount(ctx context.Context, accountID string) error {
	inactive := false
	_, err := s.UpdateAccount(ctx, accountID, dto.UpdateAccountRequest{IsActive: &inactive})
	return err
}
