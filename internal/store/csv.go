package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

const dateFormat = "2006-01-02"

// StatementHeader is the CSV header for statements.csv.
const StatementHeader = "id,name,journal_id,date,balance_start,balance_end_real"

const (
	stmtNumFields   = 6
	stmtColID       = 0
	stmtColName     = 1
	stmtColJournal  = 2
	stmtColDate     = 3
	stmtColBalStart = 4
	stmtColBalEnd   = 5
)

// LineHeader is the CSV header for lines.csv.
const LineHeader = "id,statement_id,date,amount,label,counterparty,reference,unique_import_id,sequence"

const (
	lineNumFields   = 9
	lineColID       = 0
	lineColStmtID   = 1
	lineColDate     = 2
	lineColAmount   = 3
	lineColLabel    = 4
	lineColCparty   = 5
	lineColRef      = 6
	lineColUniqueID = 7
	lineColSeq      = 8
)

func marshalStatement(st model.Statement) []string {
	row := make([]string, stmtNumFields)
	row[stmtColID] = st.ID
	row[stmtColName] = st.Name
	row[stmtColJournal] = strconv.Itoa(st.JournalID)
	row[stmtColDate] = st.Date.Format(dateFormat)
	row[stmtColBalStart] = st.BalanceStart.String()
	row[stmtColBalEnd] = st.BalanceEndReal.String()
	return row
}

func unmarshalStatement(rec []string) (model.Statement, error) {
	if len(rec) != stmtNumFields {
		return model.Statement{}, fmt.Errorf("expected %d fields, got %d", stmtNumFields, len(rec))
	}

	journalID, err := strconv.Atoi(rec[stmtColJournal])
	if err != nil {
		return model.Statement{}, fmt.Errorf("parsing journal id %q: %w", rec[stmtColJournal], err)
	}
	date, err := time.Parse(dateFormat, rec[stmtColDate])
	if err != nil {
		return model.Statement{}, fmt.Errorf("parsing date %q: %w", rec[stmtColDate], err)
	}
	balStart, err := decimal.NewFromString(rec[stmtColBalStart])
	if err != nil {
		return model.Statement{}, fmt.Errorf("parsing balance_start %q: %w", rec[stmtColBalStart], err)
	}
	balEnd, err := decimal.NewFromString(rec[stmtColBalEnd])
	if err != nil {
		return model.Statement{}, fmt.Errorf("parsing balance_end_real %q: %w", rec[stmtColBalEnd], err)
	}

	return model.Statement{
		ID:             rec[stmtColID],
		Name:           rec[stmtColName],
		JournalID:      journalID,
		Date:           date,
		BalanceStart:   balStart,
		BalanceEndReal: balEnd,
	}, nil
}

func marshalLine(ln model.Line) []string {
	row := make([]string, lineNumFields)
	row[lineColID] = ln.ID
	row[lineColStmtID] = ln.StatementID
	row[lineColDate] = ln.Date.Format(dateFormat)
	row[lineColAmount] = ln.Amount.String()
	row[lineColLabel] = ln.Label
	row[lineColCparty] = ln.Counterparty
	row[lineColRef] = ln.Reference
	row[lineColUniqueID] = ln.UniqueImportID
	row[lineColSeq] = strconv.Itoa(ln.Sequence)
	return row
}

func unmarshalLine(rec []string) (model.Line, error) {
	if len(rec) != lineNumFields {
		return model.Line{}, fmt.Errorf("expected %d fields, got %d", lineNumFields, len(rec))
	}

	date, err := time.Parse(dateFormat, rec[lineColDate])
	if err != nil {
		return model.Line{}, fmt.Errorf("parsing date %q: %w", rec[lineColDate], err)
	}
	amount, err := decimal.NewFromString(rec[lineColAmount])
	if err != nil {
		return model.Line{}, fmt.Errorf("parsing amount %q: %w", rec[lineColAmount], err)
	}
	seq, err := strconv.Atoi(rec[lineColSeq])
	if err != nil {
		return model.Line{}, fmt.Errorf("parsing sequence %q: %w", rec[lineColSeq], err)
	}

	return model.Line{
		ID:             rec[lineColID],
		StatementID:    rec[lineColStmtID],
		Date:           date,
		Amount:         amount,
		Label:          rec[lineColLabel],
		Counterparty:   rec[lineColCparty],
		Reference:      rec[lineColRef],
		UniqueImportID: rec[lineColUniqueID],
		Sequence:       seq,
	}, nil
}

func readRows(r io.Reader, numFields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	// Skip header row.
	return records[1:], nil
}

func writeRows(w io.Writer, header string, rows [][]string) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return cw.Error()
}
