// Package merge is the idempotent statement-merge engine: it filters
// previously imported transactions out of incoming statement groups,
// creates or appends to the statement for each (name, journal) key,
// and reports what was skipped.
package merge

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bankfeed-dev/bankfeed/internal/model"
	"github.com/bankfeed-dev/bankfeed/internal/store"
)

// ErrEmptyLines means a group reached the merger with no transactions.
// The normalizer rejects these first; this guards the internal invariant.
var ErrEmptyLines = errors.New("no lines found in statement")

// ErrAllDuplicates means every transaction in every group had already
// been imported. Only returned under PolicyStrict.
var ErrAllDuplicates = errors.New("you have already imported all these transactions")

// Policy selects the caller-visible contract when an import contains
// nothing new.
type Policy string

const (
	// PolicyLenient silently absorbs fully-duplicate imports.
	PolicyLenient Policy = "lenient"
	// PolicyStrict fails fully-duplicate imports with ErrAllDuplicates.
	PolicyStrict Policy = "strict"
)

// Merger deduplicates incoming statement groups against stored lines
// and persists the survivors through the injected repository.
type Merger struct {
	repo            store.Repository
	onAllDuplicates Policy
	log             zerolog.Logger
}

// New creates a Merger. An unrecognized policy behaves as PolicyLenient.
func New(repo store.Repository, onAllDuplicates Policy, log zerolog.Logger) *Merger {
	return &Merger{repo: repo, onAllDuplicates: onAllDuplicates, log: log}
}

// Merge processes normalized groups in order, appending the resulting
// statement ids and any duplicate notification to report. The report
// accumulates across multiple Merge calls within one import.
//
// Duplicate policy: a transaction whose unique import id matches a
// stored line is skipped; BalanceStart is left untouched by skipped
// duplicates, and transactions without a usable unique import id always
// survive.
func (m *Merger) Merge(groups []model.StatementGroup, report *model.ImportReport) error {
	var dupLineIDs []string
	seen := make(map[string]bool)
	recordDup := func(lineID string) {
		if !seen[lineID] {
			seen[lineID] = true
			dupLineIDs = append(dupLineIDs, lineID)
		}
	}

	created := 0
	for _, g := range groups {
		if len(g.Transactions) == 0 {
			return ErrEmptyLines
		}

		surviving := make([]model.TransactionRecord, 0, len(g.Transactions))
		for _, txn := range g.Transactions {
			if !txn.Deduplicable() {
				surviving = append(surviving, txn)
				continue
			}
			existing, err := m.repo.FindLineByUniqueID(txn.UniqueImportID)
			if err != nil {
				return fmt.Errorf("looking up line %q: %w", txn.UniqueImportID, err)
			}
			if existing != nil {
				recordDup(existing.ID)
				continue
			}
			surviving = append(surviving, txn)
		}

		if len(surviving) == 0 {
			continue
		}

		// Do not overwrite caller-supplied sequencing.
		if surviving[0].Sequence == 0 {
			for i := range surviving {
				surviving[i].Sequence = i + 1
			}
		}

		stID, err := m.findOrCreate(g, surviving, recordDup)
		if err != nil {
			return err
		}
		report.StatementIDs = append(report.StatementIDs, stID)
		created++
	}

	if len(dupLineIDs) > 0 {
		m.log.Warn().Int("ignored", len(dupLineIDs)).Msg("skipped already imported transactions")
		report.Notifications = append(report.Notifications, duplicateNotification(dupLineIDs))
	}

	if created == 0 && m.onAllDuplicates == PolicyStrict {
		return ErrAllDuplicates
	}
	return nil
}

// findOrCreate persists the surviving transactions: a new statement if
// none exists for (name, journal), otherwise new lines appended to the
// existing one plus a closing-balance overwrite (last writer wins).
func (m *Merger) findOrCreate(g model.StatementGroup, surviving []model.TransactionRecord, recordDup func(string)) (string, error) {
	st, err := m.repo.FindStatement(g.Name, g.JournalID)
	if err != nil {
		return "", fmt.Errorf("finding statement %q: %w", g.Name, err)
	}

	if st == nil {
		lines := make([]model.Line, len(surviving))
		for i, txn := range surviving {
			lines[i] = lineFrom(txn)
		}
		stID, err := m.repo.CreateStatement(model.Statement{
			Name:           g.Name,
			JournalID:      g.JournalID,
			Date:           g.Date,
			BalanceStart:   g.BalanceStart,
			BalanceEndReal: g.BalanceEndReal,
		}, lines)
		if errors.Is(err, store.ErrDuplicateStatement) {
			// Lost a create race; fall through to the append path.
			return m.findOrCreate(g, surviving, recordDup)
		}
		if err != nil {
			return "", fmt.Errorf("creating statement %q: %w", g.Name, err)
		}
		m.log.Info().Str("statement", g.Name).Int("journal", g.JournalID).
			Int("lines", len(surviving)).Msg("created statement")
		return stID, nil
	}

	for _, txn := range surviving {
		_, err := m.repo.CreateLine(st.ID, lineFrom(txn))
		if errors.Is(err, store.ErrDuplicateLine) {
			// A concurrent import raced past the pre-check; the storage
			// constraint caught it. Treat as already imported.
			existing, ferr := m.repo.FindLineByUniqueID(txn.UniqueImportID)
			if ferr != nil {
				return "", fmt.Errorf("looking up line %q: %w", txn.UniqueImportID, ferr)
			}
			if existing != nil {
				recordDup(existing.ID)
			}
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating line for statement %q: %w", g.Name, err)
		}
	}

	if err := m.repo.UpdateStatementBalance(st.ID, g.BalanceEndReal); err != nil {
		return "", fmt.Errorf("updating balance of statement %q: %w", g.Name, err)
	}
	m.log.Info().Str("statement", g.Name).Int("journal", g.JournalID).
		Int("lines", len(surviving)).Msg("appended to statement")
	return st.ID, nil
}

func lineFrom(txn model.TransactionRecord) model.Line {
	return model.Line{
		Date:           txn.Date,
		Amount:         txn.Amount,
		Label:          txn.Label,
		Counterparty:   txn.Counterparty,
		Reference:      txn.Reference,
		UniqueImportID: txn.UniqueImportID,
		Sequence:       txn.Sequence,
	}
}

func duplicateNotification(lineIDs []string) model.Notification {
	msg := fmt.Sprintf("%d transactions had already been imported and were ignored.", len(lineIDs))
	if len(lineIDs) == 1 {
		msg = "1 transaction had already been imported and was ignored."
	}
	return model.Notification{
		Type:    "warning",
		Message: msg,
		Details: model.NotificationDetails{
			Name:  "Already imported items",
			Model: model.LineModel,
			IDs:   lineIDs,
		},
	}
}
