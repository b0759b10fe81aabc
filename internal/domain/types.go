package domain

import (
	"cloud.google.com/go/civil"
)

// TransactionType distinguishes money in from money out.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// TransactionSource records how a transaction entered the system.
type TransactionSource string

const (
	SourceManual TransactionSource = "manual"
	SourceScan   TransactionSource = "scan"
)

// Transaction is one logged income or expense item.
type Transaction struct {
	ID       string
	Date     civil.Date // calendar date, no time-of-day semantics
	Name     string
	Amount   float64 // always positive; Type carries the sign
	Category Category
	Type     TransactionType
	Source   TransactionSource // optional; empty means unknown/legacy
}

// Budget is a monthly spending limit for one expense category.
// At most one budget per category is the intended usage; the store does not
// enforce uniqueness.
type Budget struct {
	ID       string
	Category Category
	Total    float64
}

// Bill is a payable with a due date. IsPaid is toggled only by explicit
// user action.
type Bill struct {
	ID          string
	Name        string
	Amount      float64
	DueDate     civil.Date
	IsRecurring bool
	IsPaid      bool
}

// Goal is a savings target. CurrentAmount starts at zero and only grows
// through contributions.
type Goal struct {
	ID            string
	Name          string
	TargetAmount  float64
	CurrentAmount float64
	TargetDate    *civil.Date // optional
}

// UserProfile is the per-identity profile document. Writes always merge;
// the document is never fully overwritten.
type UserProfile struct {
	Name   string
	Email  string
	Avatar string // download URL
}
