package model

// Journal is the bank account/ledger a statement belongs to. Only its
// ID matters to the merge core; the rest drives parser selection.
type Journal struct {
	ID       int
	Name     string
	Format   string // parser format, e.g. "chase"
	LastFour string
}
