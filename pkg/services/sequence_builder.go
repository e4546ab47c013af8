package services

import (
	"sort"

	"go.uber.org/zap"

	"github.com/tramita-labs/expediente-engine/pkg/models"
)

const hoursPerDay = 24

// SequenceBuilder turns a filtered event log into per-case state
// sequences with inter-event durations.
type SequenceBuilder interface {
	// Build groups events by case and derives one CaseSequence per case,
	// in first-event order. Cases whose events all carry a zero timestamp
	// are dropped.
	Build(events []models.Event) []models.CaseSequence
}

type sequenceBuilder struct {
	logger *zap.Logger
}

// NewSequenceBuilder creates a new SequenceBuilder.
func NewSequenceBuilder(logger *zap.Logger) SequenceBuilder {
	return &sequenceBuilder{logger: logger.Named("sequence-builder")}
}

var _ SequenceBuilder = (*sequenceBuilder)(nil)

func (b *sequenceBuilder) Build(events []models.Event) []models.CaseSequence {
	if len(events) == 0 {
		return nil
	}

	// Stable order: case, then time, then insertion order for equal
	// timestamps. The same input always yields the same sequences.
	ordered := make([]models.Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.CaseID != b.CaseID {
			return a.CaseID < b.CaseID
		}
		if !a.EventTime.Equal(b.EventTime) {
			return a.EventTime.Before(b.EventTime)
		}
		return a.SeqNo < b.SeqNo
	})

	grouped := make(map[string][]models.Event, len(ordered)/2+1)
	caseOrder := make([]string, 0)
	firstEvent := make(map[string]int, len(ordered))
	for i, e := range ordered {
		if _, ok := grouped[e.CaseID]; !ok {
			caseOrder = append(caseOrder, e.CaseID)
			firstEvent[e.CaseID] = i
		}
		grouped[e.CaseID] = append(grouped[e.CaseID], e)
	}

	// Present cases in the order their first event occurs in the log.
	sort.SliceStable(caseOrder, func(i, j int) bool {
		return firstEvent[caseOrder[i]] < firstEvent[caseOrder[j]]
	})

	sequences := make([]models.CaseSequence, 0, len(caseOrder))
	dropped := 0
	for _, caseID := range caseOrder {
		seq, ok := b.buildOne(caseID, grouped[caseID])
		if !ok {
			dropped++
			continue
		}
		sequences = append(sequences, seq)
	}

	if dropped > 0 {
		b.logger.Warn("Dropped cases without usable timestamps",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(sequences)))
	}

	return sequences
}

func (b *sequenceBuilder) buildOne(caseID string, events []models.Event) (models.CaseSequence, bool) {
	usable := events[:0:0]
	for _, e := range events {
		if e.EventTime.IsZero() {
			continue
		}
		usable = append(usable, e)
	}
	if len(usable) == 0 {
		return models.CaseSequence{}, false
	}

	states := make([]int, len(usable))
	for i, e := range usable {
		states[i] = e.StateCode
	}

	// n-1 durations for n states; nothing is measured after the last
	// event. Clock skew in the source occasionally yields a negative
	// gap, which is clamped to zero.
	durations := make([]float64, 0, len(usable)-1)
	for i := 0; i < len(usable)-1; i++ {
		days := usable[i+1].EventTime.Sub(usable[i].EventTime).Hours() / hoursPerDay
		if days < 0 {
			days = 0
		}
		durations = append(durations, days)
	}

	// The case is attributed to its first event's unit; later events
	// never reassign it.
	unit := usable[0].Unit
	if unit == "" {
		unit = models.UnitUnspecified
	}

	return models.CaseSequence{
		CaseID:    caseID,
		States:    states,
		Durations: durations,
		Unit:      unit,
		Start:     usable[0].EventTime,
		End:       usable[len(usable)-1].EventTime,
	}, true
}
