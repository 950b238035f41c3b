package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementGroup is a proposed statement produced by an upstream parser:
// one calendar month of transactions for one journal. Name, Date and
// JournalID are filled in by the period normalizer.
type StatementGroup struct {
	JournalID      int
	Name           string    // "YYYY-MM"
	Date           time.Time // last calendar day of the month
	BalanceStart   decimal.Decimal
	BalanceEndReal decimal.Decimal
	Transactions   []TransactionRecord
}

// Statement is a persisted record grouping bank transactions for one
// journal over one calendar month. (Name, JournalID) is its idempotency
// key: at most one statement exists per pair.
type Statement struct {
	ID             string
	Name           string
	JournalID      int
	Date           time.Time
	BalanceStart   decimal.Decimal
	BalanceEndReal decimal.Decimal
}

// Line is one persisted bank transaction belonging to a Statement.
// UniqueImportID, when present, is unique across all lines.
type Line struct {
	ID             string
	StatementID    string
	Date           time.Time
	Amount         decimal.Decimal
	Label          string
	Counterparty   string
	Reference      string
	UniqueImportID string
	Sequence       int
}
