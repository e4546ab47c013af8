package services

import (
	"time"

	"github.com/tramita-labs/expediente-engine/pkg/models"
)

// Snapshot is the filtered slice of one procedure's case log that every
// downstream stage works on. It is built once per FilterContext and
// never mutated afterwards.
type Snapshot struct {
	Cases  []models.Case
	Events []models.Event
}

// FilterSnapshot restricts a procedure's case log to the cases registered
// inside [from, to]. Both bounds are inclusive; a zero bound is open.
// Events of excluded cases are dropped with them, so later stages never
// see a partial case history.
func FilterSnapshot(cases []models.Case, events []models.Event, from, to time.Time) *Snapshot {
	kept := make([]models.Case, 0, len(cases))
	keptIDs := make(map[string]struct{}, len(cases))

	for _, c := range cases {
		if !from.IsZero() && c.StartDate.Before(from) {
			continue
		}
		if !to.IsZero() && c.StartDate.After(to) {
			continue
		}
		kept = append(kept, c)
		keptIDs[c.ID] = struct{}{}
	}

	keptEvents := make([]models.Event, 0, len(events))
	for _, e := range events {
		if _, ok := keptIDs[e.CaseID]; ok {
			keptEvents = append(keptEvents, e)
		}
	}

	return &Snapshot{Cases: kept, Events: keptEvents}
}
