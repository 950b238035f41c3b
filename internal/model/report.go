package model

// LineModel is the entity name reported in duplicate notifications.
const LineModel = "statement.line"

// ImportReport is the outcome of one import call, consumed by the
// reconciliation UI. It accumulates across multiple batches.
type ImportReport struct {
	StatementIDs  []string       `json:"statement_ids"`
	Notifications []Notification `json:"notifications"`
}

// Notification is user-facing feedback about an import, currently only
// the "already imported" warning.
type Notification struct {
	Type    string              `json:"type"`
	Message string              `json:"message"`
	Details NotificationDetails `json:"details"`
}

// NotificationDetails identifies the records a notification refers to.
type NotificationDetails struct {
	Name  string   `json:"name"`
	Model string   `json:"model"`
	IDs   []string `json:"ids"`
}

// NewImportReport returns an empty report with non-nil slices so the
// JSON output always carries both keys.
func NewImportReport() *ImportReport {
	return &ImportReport{
		StatementIDs:  []string{},
		Notifications: []Notification{},
	}
}
