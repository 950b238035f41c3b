package merge

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankfeed-dev/bankfeed/internal/model"
	"github.com/bankfeed-dev/bankfeed/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func txn(uid, amount string, d time.Time) model.TransactionRecord {
	return model.TransactionRecord{
		Date:           d,
		Amount:         dec(amount),
		Label:          "txn " + uid,
		UniqueImportID: uid,
	}
}

func group(name string, journalID int, txns ...model.TransactionRecord) model.StatementGroup {
	end, _ := time.Parse("2006-01-02", name+"-28")
	return model.StatementGroup{
		JournalID:      journalID,
		Name:           name,
		Date:           end,
		BalanceStart:   dec("100.00"),
		BalanceEndReal: dec("200.00"),
		Transactions:   txns,
	}
}

func newMerger(repo store.Repository, policy Policy) *Merger {
	return New(repo, policy, zerolog.Nop())
}

func TestMerge_CreatesStatement(t *testing.T) {
	mem := store.NewMemory()
	m := newMerger(mem, PolicyLenient)
	report := model.NewImportReport()

	g := group("2025-01", 1,
		txn("u1", "-4.00", date(2025, 1, 3)),
		txn("u2", "3500.00", date(2025, 1, 15)),
	)
	require.NoError(t, m.Merge([]model.StatementGroup{g}, report))

	require.Len(t, report.StatementIDs, 1)
	assert.Empty(t, report.Notifications)

	st, err := mem.FindStatement("2025-01", 1)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, report.StatementIDs[0], st.ID)
	assert.True(t, st.BalanceEndReal.Equal(dec("200.00")))

	lines := mem.Lines(st.ID)
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[0].Sequence)
	assert.Equal(t, 2, lines[1].Sequence)
}

func TestMerge_Idempotent(t *testing.T) {
	mem := store.NewMemory()
	m := newMerger(mem, PolicyLenient)

	g := group("2025-01", 1,
		txn("u1", "-4.00", date(2025, 1, 3)),
		txn("u2", "3500.00", date(2025, 1, 15)),
	)

	first := model.NewImportReport()
	require.NoError(t, m.Merge([]model.StatementGroup{g}, first))
	stID := first.StatementIDs[0]
	linesAfterFirst := mem.Lines(stID)

	// Importing the identical batch again creates nothing.
	second := model.NewImportReport()
	require.NoError(t, m.Merge([]model.StatementGroup{g}, second))

	assert.Empty(t, second.StatementIDs)
	assert.Equal(t, linesAfterFirst, mem.Lines(stID), "stored lines must be unchanged")

	require.Len(t, second.Notifications, 1)
	n := second.Notifications[0]
	assert.Equal(t, "warning", n.Type)
	assert.Equal(t, "2 transactions had already been imported and were ignored.", n.Message)
	assert.Len(t, n.Details.IDs, 2)
}

func TestMerge_PartialOverlap(t *testing.T) {
	mem := store.NewMemory()
	m := newMerger(mem, PolicyLenient)

	a := txn("id-a", "-1.00", date(2025, 1, 2))
	b := txn("id-b", "-2.00", date(2025, 1, 3))
	c := txn("id-c", "-3.00", date(2025, 1, 4))

	first := model.NewImportReport()
	require.NoError(t, m.Merge([]model.StatementGroup{group("2025-01", 1, a, b)}, first))

	second := model.NewImportReport()
	require.NoError(t, m.Merge([]model.StatementGroup{group("2025-01", 1, b, c)}, second))

	// Exactly A, B, C persisted once each.
	st, err := mem.FindStatement("2025-01", 1)
	require.NoError(t, err)
	lines := mem.Lines(st.ID)
	require.Len(t, lines, 3)
	assert.Equal(t, "id-a", lines[0].UniqueImportID)
	assert.Equal(t, "id-b", lines[1].UniqueImportID)
	assert.Equal(t, "id-c", lines[2].UniqueImportID)

	// Second report names exactly the stored line for B.
	storedB, err := mem.FindLineByUniqueID("id-b")
	require.NoError(t, err)
	require.Len(t, second.Notifications, 1)
	assert.Equal(t, []string{storedB.ID}, second.Notifications[0].Details.IDs)
	assert.Equal(t, "1 transaction had already been imported and was ignored.", second.Notifications[0].Message)
}

func TestMerge_NoUniqueIDAlwaysSurvives(t *testing.T) {
	mem := store.NewMemory()
	m := newMerger(mem, PolicyLenient)

	g := group("2025-01", 1, txn("", "-9.99", date(2025, 1, 5)))

	require.NoError(t, m.Merge([]model.StatementGroup{g}, model.NewImportReport()))
	report := model.NewImportReport()
	require.NoError(t, m.Merge([]model.StatementGroup{g}, report))

	// Never deduplicated, even on exact re-import.
	require.Len(t, report.StatementIDs, 1)
	assert.Empty(t, report.Notifications)

	st, err := mem.FindStatement("2025-01", 1)
	require.NoError(t, err)
	assert.Len(t, mem.Lines(st.ID), 2)
}

func TestMerge_AppendPath(t *testing.T) {
	mem := store.NewMemory()
	m := newMerger(mem, PolicyLenient)

	first := model.NewImportReport()
	require.NoError(t, m.Merge([]model.StatementGroup{
		group("2024-03", 1, txn("u1", "-10.00", date(2024, 3, 5))),
	}, first))

	g2 := group("2024-03", 1, txn("u2", "-20.00", date(2024, 3, 20)))
	g2.BalanceEndReal = dec("170.00")
	second := model.NewImportReport()
	require.NoError(t, m.Merge([]model.StatementGroup{g2}, second))

	// Same statement id, not a second statement.
	require.Len(t, second.StatementIDs, 1)
	assert.Equal(t, first.StatementIDs[0], second.StatementIDs[0])

	st, err := mem.FindStatement("2024-03", 1)
	require.NoError(t, err)
	assert.Len(t, mem.Lines(st.ID), 2)
	assert.True(t, st.BalanceEndReal.Equal(dec("170.00")), "closing balance is last writer wins")
}

func TestMerge_SeparateJournals(t *testing.T) {
	mem := store.NewMemory()
	m := newMerger(mem, PolicyLenient)
	report := model.NewImportReport()

	require.NoError(t, m.Merge([]model.StatementGroup{
		group("2024-03", 1, txn("u1", "-10.00", date(2024, 3, 5))),
		group("2024-03", 2, txn("u2", "-20.00", date(2024, 3, 6))),
	}, report))

	require.Len(t, report.StatementIDs, 2)
	assert.NotEqual(t, report.StatementIDs[0], report.StatementIDs[1])
}

func TestMerge_AllDuplicates_Lenient(t *testing.T) {
	mem := store.NewMemory()
	m := newMerger(mem, PolicyLenient)

	g := group("2025-01", 1, txn("u1", "-4.00", date(2025, 1, 3)))
	require.NoError(t, m.Merge([]model.StatementGroup{g}, model.NewImportReport()))

	report := model.NewImportReport()
	require.NoError(t, m.Merge([]model.StatementGroup{g}, report))

	assert.Empty(t, report.StatementIDs)
	require.Len(t, report.Notifications, 1)
}

func TestMerge_AllDuplicates_Strict(t *testing.T) {
	mem := store.NewMemory()
	m := newMerger(mem, PolicyStrict)

	g := group("2025-01", 1, txn("u1", "-4.00", date(2025, 1, 3)))
	require.NoError(t, m.Merge([]model.StatementGroup{g}, model.NewImportReport()))

	err := m.Merge([]model.StatementGroup{g}, model.NewImportReport())
	assert.ErrorIs(t, err, ErrAllDuplicates)
}

func TestMerge_PluralWording(t *testing.T) {
	mem := store.NewMemory()
	m := newMerger(mem, PolicyLenient)

	g := group("2025-01", 1,
		txn("u1", "-1.00", date(2025, 1, 1)),
		txn("u2", "-2.00", date(2025, 1, 2)),
		txn("u3", "-3.00", date(2025, 1, 3)),
	)
	require.NoError(t, m.Merge([]model.StatementGroup{g}, model.NewImportReport()))

	report := model.NewImportReport()
	require.NoError(t, m.Merge([]model.StatementGroup{g}, report))
	require.Len(t, report.Notifications, 1)
	assert.Equal(t, "3 transactions had already been imported and were ignored.", report.Notifications[0].Message)
	assert.Equal(t, "Already imported items", report.Notifications[0].Details.Name)
	assert.Equal(t, model.LineModel, report.Notifications[0].Details.Model)
}

func TestMerge_PreservesCallerSequence(t *testing.T) {
	mem := store.NewMemory()
	m := newMerger(mem, PolicyLenient)

	t1 := txn("u1", "-1.00", date(2025, 1, 1))
	t1.Sequence = 10
	t2 := txn("u2", "-2.00", date(2025, 1, 2))
	t2.Sequence = 20

	report := model.NewImportReport()
	require.NoError(t, m.Merge([]model.StatementGroup{group("2025-01", 1, t1, t2)}, report))

	lines := mem.Lines(report.StatementIDs[0])
	require.Len(t, lines, 2)
	assert.Equal(t, 10, lines[0].Sequence)
	assert.Equal(t, 20, lines[1].Sequence)
}

func TestMerge_BalanceStartUnaffectedByDuplicates(t *testing.T) {
	mem := store.NewMemory()
	m := newMerger(mem, PolicyLenient)

	dup := txn("u1", "-50.00", date(2025, 1, 3))
	require.NoError(t, m.Merge([]model.StatementGroup{
		group("2025-01", 1, dup),
	}, model.NewImportReport()))

	// Re-import in a new month group that carries the old duplicate plus
	// a fresh transaction; the new statement keeps its own BalanceStart.
	g := group("2025-02", 1, dup, txn("u2", "-5.00", date(2025, 2, 1)))
	report := model.NewImportReport()
	require.NoError(t, m.Merge([]model.StatementGroup{g}, report))

	st, err := mem.FindStatement("2025-02", 1)
	require.NoError(t, err)
	assert.True(t, st.BalanceStart.Equal(dec("100.00")), "duplicates must not adjust the opening balance")
}

func TestMerge_EmptyGroup(t *testing.T) {
	m := newMerger(store.NewMemory(), PolicyLenient)

	err := m.Merge([]model.StatementGroup{{Name: "2025-01", JournalID: 1}}, model.NewImportReport())
	assert.ErrorIs(t, err, ErrEmptyLines)
}

func TestMerge_ReportAccumulates(t *testing.T) {
	mem := store.NewMemory()
	m := newMerger(mem, PolicyLenient)
	report := model.NewImportReport()

	require.NoError(t, m.Merge([]model.StatementGroup{
		group("2025-01", 1, txn("u1", "-1.00", date(2025, 1, 1))),
	}, report))
	require.NoError(t, m.Merge([]model.StatementGroup{
		group("2025-02", 1, txn("u2", "-2.00", date(2025, 2, 1))),
	}, report))

	assert.Len(t, report.StatementIDs, 2)
}

// racingRepo hides a stored line from the first pre-check lookup so the
// storage uniqueness constraint is what catches the duplicate insert.
type racingRepo struct {
	*store.Memory
	hideUID string
	hidden  bool
}

func (r *racingRepo) FindLineByUniqueID(uid string) (*model.Line, error) {
	if uid == r.hideUID && !r.hidden {
		r.hidden = true
		return nil, nil
	}
	return r.Memory.FindLineByUniqueID(uid)
}

func TestMerge_ConstraintViolationTreatedAsDuplicate(t *testing.T) {
	mem := store.NewMemory()
	seeded := newMerger(mem, PolicyLenient)
	require.NoError(t, seeded.Merge([]model.StatementGroup{
		group("2025-01", 1, txn("u1", "-1.00", date(2025, 1, 1))),
	}, model.NewImportReport()))

	repo := &racingRepo{Memory: mem, hideUID: "u1"}
	m := newMerger(repo, PolicyLenient)

	report := model.NewImportReport()
	err := m.Merge([]model.StatementGroup{
		group("2025-01", 1, txn("u1", "-1.00", date(2025, 1, 1)), txn("u2", "-2.00", date(2025, 1, 2))),
	}, report)
	require.NoError(t, err, "constraint violation must be absorbed, not propagated")

	require.Len(t, report.Notifications, 1)
	storedU1, ferr := mem.FindLineByUniqueID("u1")
	require.NoError(t, ferr)
	assert.Equal(t, []string{storedU1.ID}, report.Notifications[0].Details.IDs)

	st, err := mem.FindStatement("2025-01", 1)
	require.NoError(t, err)
	assert.Len(t, mem.Lines(st.ID), 2, "u1 once, u2 once")
}
