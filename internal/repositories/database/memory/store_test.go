package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

func postedEntry(id string, on time.Time, partnerID string, amount int64) domain.JournalEntry {
	p := partnerID
	return domain.JournalEntry{
		EntryID:     id,
		PostingDate: on,
		Status:      domain.Posted,
		Version:     1,
		Lines: []domain.JournalLine{
			{LineID: id + "-1", EntryID: id, LineNo: 1, AccountID: "ar", Amount: decimal.NewFromInt(amount), TransactionType: domain.Debit, PartnerID: &p},
			{LineID: id + "-2", EntryID: id, LineNo: 2, AccountID: "rev", Amount: decimal.NewFromInt(amount), TransactionType: domain.Credit},
		},
	}
}

func TestSaveAndFindEntry(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositoryProvider(NewStore())
	require.NoError(t, repos.JournalRepo.SaveEntry(ctx, postedEntry("e1", day, "p1", 10)))

	got, err := repos.JournalRepo.FindEntryByID(ctx, "e1")
	require.NoError(t, err)
	assert.Len(t, got.Lines, 2)

	// Callers get copies.
	got.Lines[0].Notes = "changed"
	again, err := repos.JournalRepo.FindEntryByID(ctx, "e1")
	require.NoError(t, err)
	assert.Empty(t, again.Lines[0].Notes)

	assert.ErrorIs(t, repos.JournalRepo.SaveEntry(ctx, postedEntry("e1", day, "p1", 10)), apperrors.ErrDuplicate)
	_, err = repos.JournalRepo.FindEntryByID(ctx, "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateEntry_VersionConflict(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositoryProvider(NewStore())
	e := postedEntry("e1", day, "p1", 10)
	require.NoError(t, repos.JournalRepo.SaveEntry(ctx, e))

	e.Description = "first"
	e.Version = 2
	require.NoError(t, repos.JournalRepo.UpdateEntry(ctx, e, 1))

	e.Description = "stale"
	e.Version = 2
	assert.ErrorIs(t, repos.JournalRepo.UpdateEntry(ctx, e, 1), apperrors.ErrConflict)

	got, err := repos.JournalRepo.FindEntryByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Description)
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repos := NewRepositoryProvider(s)
	boom := errors.New("boom")

	err := s.WithTransaction(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		require.NoError(t, tx.Journals().SaveEntry(ctx, postedEntry("e1", day, "p1", 10)))
		require.NoError(t, tx.Invoices().SaveInvoice(ctx, domain.Invoice{InvoiceID: "i1", Version: 1}))

		// Staged writes are visible inside the unit of work only.
		_, err := tx.Journals().FindEntryByID(ctx, "e1")
		require.NoError(t, err)
		_, err = repos.JournalRepo.FindEntryByID(ctx, "e1")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repos.JournalRepo.FindEntryByID(ctx, "e1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = repos.InvoiceRepo.FindInvoiceByID(ctx, "i1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestWithTransaction_CommitDetectsConcurrentWrite(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repos := NewRepositoryProvider(s)
	e := postedEntry("e1", day, "p1", 10)
	require.NoError(t, repos.JournalRepo.SaveEntry(ctx, e))

	err := s.WithTransaction(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		staged := e
		staged.Version = 2
		require.NoError(t, tx.Journals().UpdateEntry(ctx, staged, 1))

		// Another writer commits first.
		other := e
		other.Version = 2
		require.NoError(t, repos.JournalRepo.UpdateEntry(ctx, other, 1))
		return nil
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestStampClearing(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositoryProvider(NewStore())
	require.NoError(t, repos.JournalRepo.SaveEntry(ctx, postedEntry("e1", day, "p1", 10)))
	require.NoError(t, repos.JournalRepo.SaveEntry(ctx, postedEntry("e2", day, "p1", 10)))

	require.NoError(t, repos.JournalRepo.StampClearing(ctx, []string{"e1-1", "e2-1"}, "g1", day))

	lines, err := repos.JournalRepo.FindLinesByClearingID(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	e1, err := repos.JournalRepo.FindEntryByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), e1.Version, "stamping bumps the entry version")

	err = repos.JournalRepo.StampClearing(ctx, []string{"e1-1"}, "g2", day)
	assert.ErrorIs(t, err, apperrors.ErrConflict, "already cleared")

	n, err := repos.JournalRepo.ResetClearing(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = repos.JournalRepo.ResetClearing(ctx, "g1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListOpenItems_Pages(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositoryProvider(NewStore())
	for i, id := range []string{"e3", "e1", "e2"} {
		require.NoError(t, repos.JournalRepo.SaveEntry(ctx, postedEntry(id, day.AddDate(0, 0, i), "p1", 10)))
	}
	draft := postedEntry("e4", day, "p1", 10)
	draft.Status = domain.Draft
	require.NoError(t, repos.JournalRepo.SaveEntry(ctx, draft))

	page, next, err := repos.JournalRepo.ListOpenItems(ctx, "p1", 2, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	assert.Equal(t, "e3-1", page[0].LineID)
	assert.Equal(t, "e1-1", page[1].LineID)

	page, next, err = repos.JournalRepo.ListOpenItems(ctx, "p1", 2, next)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Nil(t, next)
	assert.Equal(t, "e2-1", page[0].LineID)

	_, _, err = repos.JournalRepo.ListOpenItems(ctx, "p1", 2, ptrTo("garbage"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestStreamPostedLines(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositoryProvider(NewStore())
	require.NoError(t, repos.JournalRepo.SaveEntry(ctx, postedEntry("late", day.AddDate(0, 0, 5), "p1", 10)))
	require.NoError(t, repos.JournalRepo.SaveEntry(ctx, postedEntry("early", day, "p1", 10)))
	reversal := postedEntry("rev", day, "p1", 10)
	reversal.IsReversal = true
	require.NoError(t, repos.JournalRepo.SaveEntry(ctx, reversal))

	var ids []string
	for line, err := range repos.ReportingRepo.StreamPostedLines(ctx, portsrepo.PostedLineFilter{To: day.AddDate(0, 0, 10)}) {
		require.NoError(t, err)
		ids = append(ids, line.LineID)
	}
	assert.Equal(t, []string{"early-1", "early-2", "late-1", "late-2"}, ids)

	ids = nil
	for line, err := range repos.ReportingRepo.StreamPostedLines(ctx, portsrepo.PostedLineFilter{From: day.AddDate(0, 0, 1)}) {
		require.NoError(t, err)
		ids = append(ids, line.LineID)
	}
	assert.Equal(t, []string{"late-1", "late-2"}, ids)
}

func TestStreamPostedLines_LoadsEntriesLazily(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositoryProvider(NewStore())
	require.NoError(t, repos.JournalRepo.SaveEntry(ctx, postedEntry("first", day, "p1", 10)))
	second := postedEntry("second", day.AddDate(0, 0, 1), "p1", 20)
	require.NoError(t, repos.JournalRepo.SaveEntry(ctx, second))

	var ids []string
	for line, err := range repos.ReportingRepo.StreamPostedLines(ctx, portsrepo.PostedLineFilter{}) {
		require.NoError(t, err)
		ids = append(ids, line.LineID)
		if line.LineID == "first-1" {
			// Writers are not blocked mid-stream, and the later entry is read after the change.
			cancelled := second.Clone()
			cancelled.Status = domain.Cancelled
			cancelled.Version = 2
			require.NoError(t, repos.JournalRepo.UpdateEntry(ctx, cancelled, 1))
		}
	}
	assert.Equal(t, []string{"first-1", "first-2"}, ids)
}

func TestStreamPostedLines_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repos := NewRepositoryProvider(NewStore())
	require.NoError(t, repos.JournalRepo.SaveEntry(ctx, postedEntry("first", day, "p1", 10)))
	require.NoError(t, repos.JournalRepo.SaveEntry(ctx, postedEntry("second", day.AddDate(0, 0, 1), "p1", 10)))

	var ids []string
	var streamErr error
	for line, err := range repos.ReportingRepo.StreamPostedLines(ctx, portsrepo.PostedLineFilter{}) {
		if err != nil {
			streamErr = err
			break
		}
		ids = append(ids, line.LineID)
		cancel()
	}
	assert.Equal(t, []string{"first-1", "first-2"}, ids)
	assert.ErrorIs(t, streamErr, context.Canceled)
}

func ptrTo(s string) *string { return &s }
