package model

import "github.com/shopspring/decimal"

// DateLayout is the calendar date format used for ledger entries.
const DateLayout = "2006-01-02"

// Transaction is a single income (positive amount) or expense (negative amount).
type Transaction struct {
	ID          int             `json:"id"`
	Description string          `json:"description" validate:"required,max=200"`
	Amount      decimal.Decimal `json:"amount" validate:"nonzero_decimal"`
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	CategoryID  int             `json:"categoryId" validate:"gt=0"`
	Notes       string          `json:"notes,omitempty" validate:"max=1000"`
}

// EntityID implements ledger.Entity.
func (t Transaction) EntityID() int { return t.ID }

// WithID implements ledger.Entity.
func (t Transaction) WithID(id int) Transaction { t.ID = id; return t }

// Investment is a holding of a security bought at a given price.
type Investment struct {
	ID            int             `json:"id"`
	Symbol        string          `json:"symbol" validate:"required,max=15"`
	Shares        decimal.Decimal `json:"shares" validate:"positive_decimal"`
	PurchasePrice decimal.Decimal `json:"purchasePrice" validate:"nonnegative_decimal"`
	PurchaseDate  string          `json:"purchaseDate" validate:"required,datetime=2006-01-02"`
	Notes         string          `json:"notes,omitempty" validate:"max=1000"`
}

// EntityID implements ledger.Entity.
func (i Investment) EntityID() int { return i.ID }

// WithID implements ledger.Entity.
func (i Investment) WithID(id int) Investment { i.ID = id; return i }

// CategoryKind separates income categories from expense categories.
type CategoryKind string

const (
	CategoryIncome  CategoryKind = "income"
	CategoryExpense CategoryKind = "expense"
)

// Category groups transactions.
type Category struct {
	ID    int          `json:"id"`
	Name  string       `json:"name" validate:"required,max=60"`
	Kind  CategoryKind `json:"kind" validate:"oneof=income expense"`
	Color string       `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// EntityID implements ledger.Entity.
func (c Category) EntityID() int { return c.ID }

// WithID implements ledger.Entity.
func (c Category) WithID(id int) Category { c.ID = id; return c }
