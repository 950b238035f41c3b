package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// ChaseParser parses Chase bank checking CSV exports.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
	chaseColType    = 4
	chaseColBalance = 5
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV and returns TransactionRecords with
// deterministic unique import ids, so re-importing the same file (or an
// overlapping later export) resolves to the same ids.
func (p *ChaseParser) Parse(r io.Reader) ([]model.TransactionRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	occurrences := make(map[string]int)
	var txns []model.TransactionRecord
	for i, rec := range records[1:] {
		txn, err := parseChaseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txn.UniqueImportID = makeChaseImportID(txn, occurrences)
		txns = append(txns, txn)
	}
	return txns, nil
}

func parseChaseRow(rec []string) (model.TransactionRecord, error) {
	date, err := time.Parse(chaseDateFormat, rec[chaseColDate])
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("parsing date %q: %w", rec[chaseColDate], err)
	}

	amount, err := decimal.NewFromString(rec[chaseColAmount])
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("parsing amount %q: %w", rec[chaseColAmount], err)
	}

	balance, err := decimal.NewFromString(rec[chaseColBalance])
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("parsing balance %q: %w", rec[chaseColBalance], err)
	}

	return model.TransactionRecord{
		Date:      date,
		Amount:    amount,
		Label:     rec[chaseColDesc],
		Reference: rec[chaseColType],
		Balance:   balance,
	}, nil
}

// makeChaseImportID derives an id like chase_20250103_GITHUBPROS_-4.
// Repeats of the same (date, label, amount) within one file get an
// occurrence suffix, which stays stable across overlapping exports.
func makeChaseImportID(txn model.TransactionRecord, occurrences map[string]int) string {
	label := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, txn.Label)
	if len(label) > 10 {
		label = label[:10]
	}

	id := fmt.Sprintf("chase_%s_%s_%s", txn.Date.Format("20060102"), label, txn.Amount.String())
	occurrences[id]++
	if n := occurrences[id]; n > 1 {
		return fmt.Sprintf("%s_%d", id, n)
	}
	return id
}
