package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// NormalNature returns the side on which an account of this type increases.
func (t AccountType) NormalNature() AccountNature {
	switch t {
	case Asset, Expense:
		return NatureDebit
	default:
		return NatureCredit
	}
}

// AccountNature is the side (debit or credit) an account's balance normally sits on.
type AccountNature string

const (
	NatureDebit  AccountNature = "DEBIT"
	NatureCredit AccountNature = "CREDIT"
)

// Valid reports whether n is DEBIT or CREDIT.
func (n AccountNature) Valid() bool {
	return n == NatureDebit || n == NatureCredit
}

// Account represents an entry of the chart of accounts.
// AccountType, Nature and ParentAccountID never change after creation.
type Account struct {
	AccountID       string        `json:"accountID"`
	Code            string        `json:"code"` // Unique
	Name            string        `json:"name"`
	AccountType     AccountType   `json:"accountType"`
	Nature          AccountNature `json:"nature"`
	Level           int           `json:"level"`           // 1 for roots
	ParentAccountID *string       `json:"parentAccountID"` // Nullable self reference
	IsActive        bool          `json:"isActive"`
	AuditFields
}
