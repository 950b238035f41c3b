package journals

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

const (
	numFields   = 4
	colID       = 0
	colName     = 1
	colFormat   = 2
	colLastFour = 3
)

// ReadJournals reads journals.csv.
func ReadJournals(r io.Reader) ([]model.Journal, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journals CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var journals []model.Journal
	for i, rec := range records[1:] {
		j, err := UnmarshalJournal(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		journals = append(journals, j)
	}
	return journals, nil
}

// WriteJournals writes journals.csv.
func WriteJournals(w io.Writer, journals []model.Journal) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"journal_id", "journal_name", "format", "last_four"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, j := range journals {
		if err := cw.Write(MarshalJournal(j)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalJournal converts a Journal to a CSV row.
func MarshalJournal(j model.Journal) []string {
	row := make([]string, numFields)
	row[colID] = strconv.Itoa(j.ID)
	row[colName] = j.Name
	row[colFormat] = j.Format
	row[colLastFour] = j.LastFour
	return row
}

// UnmarshalJournal converts a CSV row to a Journal.
func UnmarshalJournal(record []string) (model.Journal, error) {
	if len(record) != numFields {
		return model.Journal{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	id, err := strconv.Atoi(record[colID])
	if err != nil {
		return model.Journal{}, fmt.Errorf("parsing journal_id %q: %w", record[colID], err)
	}

	return model.Journal{
		ID:       id,
		Name:     record[colName],
		Format:   record[colFormat],
		LastFour: record[colLastFour],
	}, nil
}
