// Package normalize assigns each proposed statement group its canonical
// name and period-end date: one statement per calendar month per journal.
package normalize

import (
	"errors"
	"fmt"

	"github.com/bankfeed-dev/bankfeed/internal/model"
	"github.com/bankfeed-dev/bankfeed/internal/period"
)

// ErrEmptyTransactions means a group has no transactions, so it cannot
// be named. Fatal: the whole import call is rejected.
var ErrEmptyTransactions = errors.New("no transactions found in statement")

// Normalize fills in JournalID, Name and Date for each group and
// returns the normalized groups. Name is the first transaction's
// calendar month ("YYYY-MM"); Date is the last day of that month,
// independent of which day the source file actually reports as last.
// Callers must guarantee one group per month: if months are mixed,
// only the first transaction's month is used.
//
// Pure transformation; no storage access.
func Normalize(groups []model.StatementGroup, journal model.Journal) ([]model.StatementGroup, error) {
	out := make([]model.StatementGroup, len(groups))
	for i, g := range groups {
		if len(g.Transactions) == 0 {
			return nil, ErrEmptyTransactions
		}
		first := g.Transactions[0]
		if first.Date.IsZero() {
			return nil, fmt.Errorf("transaction in group %d has no date", i)
		}

		g.JournalID = journal.ID
		g.Name = period.NameFor(first.Date)

		end, err := period.End(g.Name)
		if err != nil {
			return nil, fmt.Errorf("deriving statement date for %q: %w", g.Name, err)
		}
		g.Date = end
		out[i] = g
	}
	return out, nil
}
