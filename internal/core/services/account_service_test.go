package services_test

import (
	"testing"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
	"github.com/stretchr/testify/suite"
)

type AccountServiceTestSuite struct {
	suite.Suite
	f *fixture
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.f = newFixture(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_DefaultsNatureAndLevel() {
	f := suite.f
	acc, err := f.svc.Account.CreateAccount(f.ctx, dto.CreateAccountRequest{
		Code:            "1010",
		Name:            "Petty cash",
		AccountType:     domain.Asset,
		ParentAccountID: ptr(f.account(codeBank)),
	})

	suite.Require().NoError(err)
	suite.Equal(domain.NatureDebit, acc.Nature)
	suite.Equal(2, acc.Level)
	suite.True(acc.IsActive)
	suite.Equal(testUser, acc.CreatedBy)

	revenue, err := f.svc.Account.GetAccountByCode(f.ctx, codeRevenue)
	suite.Require().NoError(err)
	suite.Equal(domain.NatureCredit, revenue.Nature)
	suite.Equal(1, revenue.Level)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_Rejections() {
	f := suite.f
	tests := []struct {
		name    string
		req     dto.CreateAccountRequest
		wantErr error
	}{
		{"duplicate code", dto.CreateAccountRequest{Code: codeBank, Name: "Again", AccountType: domain.Asset}, apperrors.ErrDuplicate},
		{"unknown type", dto.CreateAccountRequest{Code: "7000", Name: "Odd", AccountType: "OTHER"}, apperrors.ErrValidation},
		{"unknown nature", dto.CreateAccountRequest{Code: "7001", Name: "Odd", AccountType: domain.Asset, Nature: "SIDEWAYS"}, apperrors.ErrValidation},
		{"missing name", dto.CreateAccountRequest{Code: "7002", AccountType: domain.Asset}, apperrors.ErrValidation},
		{"missing parent", dto.CreateAccountRequest{Code: "7003", Name: "Orphan", AccountType: domain.Asset, ParentAccountID: ptr("nope")}, apperrors.ErrNotFound},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := f.svc.Account.CreateAccount(f.ctx, tt.req)
			suite.ErrorIs(err, tt.wantErr)
		})
	}
}

func (suite *AccountServiceTestSuite) TestUpdateAccount() {
	f := suite.f
	id := f.account(codeExpense)

	updated, err := f.svc.Account.UpdateAccount(f.ctx, id, dto.UpdateAccountRequest{Name: ptr("Overheads")})
	suite.Require().NoError(err)
	suite.Equal("Overheads", updated.Name)
	suite.Equal(domain.Expense, updated.AccountType)

	suite.Require().NoError(f.svc.Account.DeactivateAccount(f.ctx, id))
	stored, err := f.svc.Account.GetAccountByID(f.ctx, id)
	suite.Require().NoError(err)
	suite.False(stored.IsActive)
	suite.Equal("Overheads", stored.Name)

	_, err = f.svc.Account.UpdateAccount(f.ctx, "missing", dto.UpdateAccountRequest{Name: ptr("x")})
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestListAccounts() {
	f := suite.f
	all, err := f.svc.Account.ListAccounts(f.ctx, dto.ListAccountsParams{})
	suite.Require().NoError(err)
	suite.Len(all, len(f.accounts))
	suite.Equal(codeBank, all[0].Code)

	page, err := f.svc.Account.ListAccounts(f.ctx, dto.ListAccountsParams{Limit: 2, Offset: 2})
	suite.Require().NoError(err)
	suite.Require().Len(page, 2)
	suite.Equal(codeInputTax, page[0].Code)

	byIDs, err := f.svc.Account.GetAccountByIDs(f.ctx, []string{f.account(codeBank), "missing", f.account(codeBank)})
	suite.Require().NoError(err)
	suite.Len(byIDs, 1)
}

func TestAccountService(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
