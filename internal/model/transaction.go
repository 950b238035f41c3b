package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is one parsed bank transaction proposed for import.
type TransactionRecord struct {
	Date           time.Time
	Amount         decimal.Decimal // negative = expense, positive = income
	Label          string
	Counterparty   string
	Reference      string
	UniqueImportID string          // empty means not deduplicable
	Balance        decimal.Decimal // running balance after this transaction, if the source reports one
	Sequence       int             // position within the statement; 0 = unassigned
}

// Deduplicable reports whether the record carries a usable import id.
func (t TransactionRecord) Deduplicable() bool {
	return t.UniqueImportID != ""
}
