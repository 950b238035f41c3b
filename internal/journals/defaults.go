package journals

import "github.com/bankfeed-dev/bankfeed/internal/model"

// DefaultJournals returns the registry written by init.
func DefaultJournals() []model.Journal {
	return []model.Journal{
		{ID: 1, Name: "Business Checking", Format: "chase"},
	}
}
