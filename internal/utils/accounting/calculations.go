package accounting

import (
	"fmt"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// NaturalAmount returns the line amount signed from the account's point of view.
// This is used by the reporting folds so revenue and expense both read positive when they grow.
func NaturalAmount(line domain.JournalLine, accountType domain.AccountType) (decimal.Decimal, error) {
	signedAmount := line.Amount
	isDebit := line.TransactionType == domain.Debit

	// DEBIT to ASSET/EXPENSE -> Positive (+)
	// CREDIT to ASSET/EXPENSE -> Negative (-)
	// DEBIT to LIABILITY/EQUITY/REVENUE -> Negative (-)
	// CREDIT to LIABILITY/EQUITY/REVENUE -> Positive (+)
	switch accountType {
	case domain.Asset, domain.Expense:
		if !isDebit {
			signedAmount = signedAmount.Neg()
		}
	case domain.Liability, domain.Equity, domain.Revenue:
		if isDebit {
			signedAmount = signedAmount.Neg()
		}
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s' encountered for account ID %s", accountType, line.AccountID)
	}
	return signedAmount, nil
}

// ValidateEntryBalance checks that an entry has both sides and that its debits equal its credits.
func ValidateEntryBalance(entry *domain.JournalEntry) error {
	hasDebit, hasCredit := false, false
	for _, l := range entry.Lines {
		if !l.Amount.IsPositive() {
			return fmt.Errorf("%w: line %d amount must be positive", apperrors.ErrValidation, l.LineNo)
		}
		if l.TransactionType == domain.Debit {
			hasDebit = true
		} else {
			hasCredit = true
		}
	}
	if !hasDebit || !hasCredit {
		return fmt.Errorf("%w: entry %s needs at least one debit and one credit line", apperrors.ErrValidation, entry.EntryID)
	}

	debits, credits := entry.Totals()
	if !debits.Equal(credits) {
		return &apperrors.UnbalancedError{EntryID: entry.EntryID, DebitSum: debits, CreditSum: credits}
	}
	return nil
}
