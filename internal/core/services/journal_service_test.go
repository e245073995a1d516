package services_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	"github.com/SscSPs/bookkeeping_core/internal/core/services"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type JournalServiceTestSuite struct {
	suite.Suite
	f *fixture
}

func (suite *JournalServiceTestSuite) SetupTest() {
	suite.f = newFixture(suite.T())
}

func (suite *JournalServiceTestSuite) TestCreateEntry_StartsAsDraft() {
	f := suite.f
	entry, err := f.svc.Journal.CreateEntry(f.ctx, dto.CreateEntryRequest{
		PostingDate:  day(1),
		DocumentDate: day(1),
		Description:  "Opening",
		Reference:    ptr("REF-1"),
	})

	suite.Require().NoError(err)
	suite.Equal(domain.Draft, entry.Status)
	suite.Equal(int64(1), entry.Version)
	suite.Equal(testUser, entry.CreatedBy)
	suite.Equal(fixedNow, entry.CreatedAt)
	suite.Empty(entry.Lines)
}

func (suite *JournalServiceTestSuite) TestCreateEntry_MissingDescription() {
	f := suite.f
	_, err := f.svc.Journal.CreateEntry(f.ctx, dto.CreateEntryRequest{PostingDate: day(1), DocumentDate: day(1)})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *JournalServiceTestSuite) TestAddLine_NumbersLines() {
	f := suite.f
	entry := f.draft(day(2), f.debit(codeBank, "10"), f.credit(codeRevenue, "10"))

	suite.Require().Len(entry.Lines, 2)
	suite.Equal(1, entry.Lines[0].LineNo)
	suite.Equal(2, entry.Lines[1].LineNo)
	suite.Equal(entry.EntryID, entry.Lines[1].EntryID)
	suite.Equal(int64(3), entry.Version)
}

func (suite *JournalServiceTestSuite) TestAddLine_RejectsNonPositiveAmount() {
	f := suite.f
	entry := f.draft(day(2))

	for _, amount := range []string{"0", "-5"} {
		_, err := f.svc.Journal.AddLine(f.ctx, entry.EntryID, f.debit(codeBank, amount))
		suite.ErrorIs(err, apperrors.ErrValidation, "amount %s", amount)
	}
}

func (suite *JournalServiceTestSuite) TestAddLine_UnknownAccount() {
	f := suite.f
	entry := f.draft(day(2))

	_, err := f.svc.Journal.AddLine(f.ctx, entry.EntryID, dto.AddLineRequest{
		AccountID:       "missing",
		Amount:          amt("1"),
		TransactionType: domain.Debit,
	})
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *JournalServiceTestSuite) TestAddLine_InactiveAccount() {
	f := suite.f
	suite.Require().NoError(f.svc.Account.DeactivateAccount(f.ctx, f.account(codeExpense)))
	entry := f.draft(day(2))

	_, err := f.svc.Journal.AddLine(f.ctx, entry.EntryID, f.debit(codeExpense, "1"))
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *JournalServiceTestSuite) TestRemoveLine() {
	f := suite.f
	entry := f.draft(day(2), f.debit(codeBank, "10"), f.credit(codeRevenue, "10"))

	suite.Require().NoError(f.svc.Journal.RemoveLine(f.ctx, entry.EntryID, entry.Lines[0].LineID))
	got, err := f.svc.Journal.GetEntryByID(f.ctx, entry.EntryID)
	suite.Require().NoError(err)
	suite.Require().Len(got.Lines, 1)
	suite.Equal(entry.Lines[1].LineID, got.Lines[0].LineID)

	err = f.svc.Journal.RemoveLine(f.ctx, entry.EntryID, "nope")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *JournalServiceTestSuite) TestPostEntry_Balanced() {
	f := suite.f
	entry := f.draft(day(3), f.debit(codeBank, "100.50"), f.credit(codeRevenue, "60.25"), f.credit(codeRevenue, "40.25"))

	posted, err := f.svc.Journal.PostEntry(f.ctx, entry.EntryID)

	suite.Require().NoError(err)
	suite.Equal(domain.Posted, posted.Status)
	suite.Equal(entry.Version+1, posted.Version)
	suite.True(posted.IsBalanced())

	stored, err := f.svc.Journal.GetEntryByID(f.ctx, entry.EntryID)
	suite.Require().NoError(err)
	suite.Equal(domain.Posted, stored.Status)
}

func (suite *JournalServiceTestSuite) TestPostEntry_Unbalanced() {
	f := suite.f
	entry := f.draft(day(3), f.debit(codeBank, "100"), f.credit(codeRevenue, "90"))

	_, err := f.svc.Journal.PostEntry(f.ctx, entry.EntryID)

	suite.ErrorIs(err, apperrors.ErrUnbalanced)
	var unbalanced *apperrors.UnbalancedError
	suite.Require().True(errors.As(err, &unbalanced))
	suite.True(amt("100").Equal(unbalanced.DebitSum))
	suite.True(amt("90").Equal(unbalanced.CreditSum))

	stored, err := f.svc.Journal.GetEntryByID(f.ctx, entry.EntryID)
	suite.Require().NoError(err)
	suite.Equal(domain.Draft, stored.Status)
}

func (suite *JournalServiceTestSuite) TestPostEntry_OneSided() {
	f := suite.f
	entry := f.draft(day(3), f.debit(codeBank, "100"))

	_, err := f.svc.Journal.PostEntry(f.ctx, entry.EntryID)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *JournalServiceTestSuite) TestPostEntry_Twice() {
	f := suite.f
	entry := f.post(day(3), f.debit(codeBank, "5"), f.credit(codeRevenue, "5"))

	_, err := f.svc.Journal.PostEntry(f.ctx, entry.EntryID)
	suite.ErrorIs(err, apperrors.ErrInvalidState)

	_, err = f.svc.Journal.AddLine(f.ctx, entry.EntryID, f.debit(codeBank, "1"))
	suite.ErrorIs(err, apperrors.ErrInvalidState)
}

func (suite *JournalServiceTestSuite) TestPostEntry_AccountDeactivatedAfterDrafting() {
	f := suite.f
	entry := f.draft(day(3), f.debit(codeExpense, "5"), f.credit(codeBank, "5"))
	suite.Require().NoError(f.svc.Account.DeactivateAccount(f.ctx, f.account(codeExpense)))

	_, err := f.svc.Journal.PostEntry(f.ctx, entry.EntryID)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *JournalServiceTestSuite) TestPostEntry_ConcurrentPostsSucceedOnce() {
	f := suite.f
	entry := f.draft(day(3), f.debit(codeBank, "5"), f.credit(codeRevenue, "5"))

	var wins, losses atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Journal.PostEntry(f.ctx, entry.EntryID)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrInvalidState):
				losses.Add(1)
			default:
				suite.Failf("unexpected error", "%v", err)
			}
		}()
	}
	wg.Wait()

	suite.Equal(int32(1), wins.Load())
	suite.Equal(int32(7), losses.Load())
}

func (suite *JournalServiceTestSuite) TestCancelEntry() {
	f := suite.f
	draft := f.draft(day(4), f.debit(codeBank, "5"), f.credit(codeRevenue, "5"))
	posted := f.post(day(4), f.debit(codeBank, "7"), f.credit(codeRevenue, "7"))

	for _, id := range []string{draft.EntryID, posted.EntryID} {
		cancelled, err := f.svc.Journal.CancelEntry(f.ctx, id)
		suite.Require().NoError(err)
		suite.Equal(domain.Cancelled, cancelled.Status)

		_, err = f.svc.Journal.CancelEntry(f.ctx, id)
		suite.ErrorIs(err, apperrors.ErrAlreadyCancelled)
	}

	_, err := f.svc.Journal.PostEntry(f.ctx, draft.EntryID)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
}

func (suite *JournalServiceTestSuite) TestReverseEntry_Mirrors() {
	f := suite.f
	original := f.post(day(5),
		withPartner(f.debit(codeReceivable, "120"), "cust-1"),
		f.credit(codeRevenue, "100"),
		f.credit(codeOutputTax, "20"))

	reversal, err := f.svc.Journal.ReverseEntry(f.ctx, original.EntryID, dto.ReverseEntryRequest{
		Reason:      "wrong customer",
		PostingDate: ptr(day(6)),
	})

	suite.Require().NoError(err)
	suite.Equal(domain.Posted, reversal.Status)
	suite.True(reversal.IsReversal)
	suite.Require().NotNil(reversal.ReversalOf)
	suite.Equal(original.EntryID, *reversal.ReversalOf)
	suite.Equal(day(6), reversal.PostingDate)
	suite.Contains(reversal.Description, "wrong customer")
	suite.True(reversal.IsBalanced())
	suite.Require().Len(reversal.Lines, len(original.Lines))
	for i, l := range reversal.Lines {
		suite.Equal(original.Lines[i].AccountID, l.AccountID)
		suite.True(original.Lines[i].Amount.Equal(l.Amount))
		suite.Equal(original.Lines[i].TransactionType.Opposite(), l.TransactionType)
		suite.Equal(original.Lines[i].PartnerID, l.PartnerID)
		suite.NotEqual(original.Lines[i].LineID, l.LineID)
	}

	stored, err := f.svc.Journal.GetEntryByID(f.ctx, original.EntryID)
	suite.Require().NoError(err)
	suite.Equal(domain.Cancelled, stored.Status)
	suite.Require().NotNil(stored.ReversedBy)
	suite.Equal(reversal.EntryID, *stored.ReversedBy)
}

func (suite *JournalServiceTestSuite) TestReverseEntry_DefaultsToOriginalDate() {
	f := suite.f
	original := f.post(day(5), f.debit(codeBank, "3"), f.credit(codeRevenue, "3"))

	reversal, err := f.svc.Journal.ReverseEntry(f.ctx, original.EntryID, dto.ReverseEntryRequest{Reason: "typo"})
	suite.Require().NoError(err)
	suite.Equal(day(5), reversal.PostingDate)
}

func (suite *JournalServiceTestSuite) TestReverseEntry_Rejections() {
	f := suite.f
	draft := f.draft(day(5), f.debit(codeBank, "3"), f.credit(codeRevenue, "3"))
	original := f.post(day(5), f.debit(codeBank, "3"), f.credit(codeRevenue, "3"))
	reversal, err := f.svc.Journal.ReverseEntry(f.ctx, original.EntryID, dto.ReverseEntryRequest{Reason: "typo"})
	suite.Require().NoError(err)

	_, err = f.svc.Journal.ReverseEntry(f.ctx, draft.EntryID, dto.ReverseEntryRequest{Reason: "x"})
	suite.ErrorIs(err, apperrors.ErrInvalidState, "draft")

	_, err = f.svc.Journal.ReverseEntry(f.ctx, original.EntryID, dto.ReverseEntryRequest{Reason: "x"})
	suite.ErrorIs(err, apperrors.ErrInvalidState, "already reversed")

	_, err = f.svc.Journal.ReverseEntry(f.ctx, reversal.EntryID, dto.ReverseEntryRequest{Reason: "x"})
	suite.ErrorIs(err, apperrors.ErrInvalidState, "reversal of a reversal")

	_, err = f.svc.Journal.ReverseEntry(f.ctx, original.EntryID, dto.ReverseEntryRequest{})
	suite.ErrorIs(err, apperrors.ErrValidation, "reason")

	_, err = f.svc.Journal.ReverseEntry(f.ctx, "missing", dto.ReverseEntryRequest{Reason: "x"})
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *JournalServiceTestSuite) TestClearedEntryCannotBeCancelledOrReversed() {
	f := suite.f
	invoice := f.post(day(7), withPartner(f.debit(codeReceivable, "50"), "cust-1"), f.credit(codeRevenue, "50"))
	receipt := f.post(day(8), f.debit(codeBank, "50"), withPartner(f.credit(codeReceivable, "50"), "cust-1"))
	group, err := f.svc.Clearing.ClearManual(f.ctx, []string{
		partnerLine(suite.T(), invoice, "cust-1"),
		partnerLine(suite.T(), receipt, "cust-1"),
	})
	suite.Require().NoError(err)

	_, err = f.svc.Journal.CancelEntry(f.ctx, invoice.EntryID)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
	_, err = f.svc.Journal.ReverseEntry(f.ctx, receipt.EntryID, dto.ReverseEntryRequest{Reason: "x"})
	suite.ErrorIs(err, apperrors.ErrInvalidState)

	suite.Require().NoError(f.svc.Clearing.ResetClearing(f.ctx, group.ClearingID))
	_, err = f.svc.Journal.ReverseEntry(f.ctx, receipt.EntryID, dto.ReverseEntryRequest{Reason: "x"})
	suite.NoError(err)
}

func TestJournalService(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}

func TestJournalService_DimensionChecks(t *testing.T) {
	partners := new(MockPartnerDirectory)
	centers := new(MockCostCenterDirectory)
	f := newFixture(t, services.WithPartnerDirectory(partners), services.WithCostCenterDirectory(centers))

	partners.On("PartnerExists", mock.Anything, "cust-1").Return(true, nil)
	partners.On("PartnerExists", mock.Anything, "ghost").Return(false, nil)
	partners.On("PartnerExists", mock.Anything, "flaky").Return(false, errors.New("directory timeout"))
	centers.On("CostCenterExists", mock.Anything, "CC-1").Return(true, nil)
	centers.On("CostCenterExists", mock.Anything, "CC-X").Return(false, nil)
	centers.On("ProfitCenterExists", mock.Anything, "PC-1").Return(true, nil)

	entry := f.draft(day(9))
	tests := []struct {
		name    string
		req     dto.AddLineRequest
		wantErr error
	}{
		{"known partner", withPartner(f.debit(codeReceivable, "1"), "cust-1"), nil},
		{"unknown partner", withPartner(f.debit(codeReceivable, "1"), "ghost"), apperrors.ErrNotFound},
		{"directory failure", withPartner(f.debit(codeReceivable, "1"), "flaky"), apperrors.ErrExternalDependency},
		{"known centers", func() dto.AddLineRequest {
			r := f.debit(codeExpense, "1")
			r.CostCenterID, r.ProfitCenterID = ptr("CC-1"), ptr("PC-1")
			return r
		}(), nil},
		{"unknown cost center", func() dto.AddLineRequest {
			r := f.debit(codeExpense, "1")
			r.CostCenterID = ptr("CC-X")
			return r
		}(), apperrors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Journal.AddLine(f.ctx, entry.EntryID, tt.req)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	partners.AssertExpectations(t)
	centers.AssertExpectations(t)
}
