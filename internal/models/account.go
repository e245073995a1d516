package models

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// Account is a row of the accounts table.
type Account struct {
	AccountID       string      `db:"account_id"`
	Code            string      `db:"code"`
	Name            string      `db:"name"`
	AccountType     AccountType `db:"account_type"`
	Nature          string      `db:"nature"`
	Level           int         `db:"level"`
	ParentAccountID *string     `db:"parent_account_id"` // Nullable
	IsActive        bool        `db:"is_active"`
	AuditFields
}
