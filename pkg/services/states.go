package services

import (
	"sort"

	"github.com/tramita-labs/expediente-engine/pkg/models"
)

// StateMetrics derives the headline summary, the per-terminal-state
// reach table and the per-unit comparison table.
type StateMetrics interface {
	// Summarize computes the headline figures of one filtered population.
	// The mean duration covers complete cases only.
	Summarize(sequences, complete []models.CaseSequence) models.Summary

	// ReachRows reports, per selected terminal state, how many cases
	// ever visit it. The duration column is the mean total lifetime of
	// the complete cases that visit the state; it deliberately measures
	// the whole case, not the path up to that state.
	ReachRows(sequences, complete []models.CaseSequence, terminalStates []int, catalog models.StateCatalog) []models.StateReachRow

	// UnitRows compares each organizational unit's completion rate and
	// mean duration against the population-wide figures.
	UnitRows(sequences []models.CaseSequence, terminal map[int]struct{}, summary models.Summary) []models.UnitComparisonRow
}

type stateMetrics struct{}

// NewStateMetrics creates a new StateMetrics.
func NewStateMetrics() StateMetrics {
	return &stateMetrics{}
}

var _ StateMetrics = (*stateMetrics)(nil)

func (m *stateMetrics) Summarize(sequences, complete []models.CaseSequence) models.Summary {
	summary := models.Summary{
		TotalCases: len(sequences),
		Completed:  len(complete),
	}
	if summary.TotalCases > 0 {
		summary.CompletedPercent = round1(float64(summary.Completed) / float64(summary.TotalCases) * 100)
	}
	if mean, ok := meanTotalDuration(complete); ok {
		summary.MeanDuration = &mean
	}
	return summary
}

func (m *stateMetrics) ReachRows(sequences, complete []models.CaseSequence, terminalStates []int, catalog models.StateCatalog) []models.StateReachRow {
	rows := make([]models.StateReachRow, 0, len(terminalStates))
	total := len(sequences)

	for _, state := range terminalStates {
		row := models.StateReachRow{
			State: state,
			Label: catalog.Name(state),
		}
		for _, seq := range sequences {
			if seq.Contains(state) {
				row.ReachCount++
			}
		}
		if total > 0 {
			row.ReachPercent = round1(float64(row.ReachCount) / float64(total) * 100)
		}

		var sum float64
		var n int
		for _, seq := range complete {
			if seq.Contains(state) {
				sum += seq.TotalDurationDays()
				n++
			}
		}
		if n > 0 {
			mean := sum / float64(n)
			row.MeanDuration = &mean
		}

		rows = append(rows, row)
	}
	return rows
}

func (m *stateMetrics) UnitRows(sequences []models.CaseSequence, terminal map[int]struct{}, summary models.Summary) []models.UnitComparisonRow {
	type unitAcc struct {
		total       int
		completed   int
		durationSum float64
	}
	units := make(map[string]*unitAcc)

	for _, seq := range sequences {
		u, ok := units[seq.Unit]
		if !ok {
			u = &unitAcc{}
			units[seq.Unit] = u
		}
		u.total++
		if seq.ContainsAny(terminal) {
			u.completed++
			u.durationSum += seq.TotalDurationDays()
		}
	}

	rows := make([]models.UnitComparisonRow, 0, len(units))
	for name, u := range units {
		row := models.UnitComparisonRow{
			Unit:      name,
			Total:     u.total,
			Completed: u.completed,
		}
		if u.total > 0 {
			row.CompletedPercent = round1(float64(u.completed) / float64(u.total) * 100)
		}
		row.DeltaPercent = round1(row.CompletedPercent - summary.CompletedPercent)
		if u.completed > 0 {
			mean := u.durationSum / float64(u.completed)
			row.MeanDuration = &mean
			if summary.MeanDuration != nil {
				delta := mean - *summary.MeanDuration
				row.DeltaDuration = &delta
			}
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Unit < rows[j].Unit
	})
	return rows
}

func meanTotalDuration(sequences []models.CaseSequence) (float64, bool) {
	if len(sequences) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, seq := range sequences {
		sum += seq.TotalDurationDays()
	}
	return sum / float64(len(sequences)), true
}
