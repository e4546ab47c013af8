package services

import (
	"fmt"
	"sort"

	"github.com/tramita-labs/expediente-engine/pkg/models"
)

// TransitionAggregator accumulates pairwise duration statistics over a
// set of case sequences, globally and grouped by organizational unit.
type TransitionAggregator interface {
	// Aggregate walks every adjacent state pair of every sequence and
	// returns the accumulated statistics.
	Aggregate(sequences []models.CaseSequence) *TransitionStats

	// GlobalRows renders the global statistics as presentation rows,
	// sorted by source state descending.
	GlobalRows(stats *TransitionStats, catalog models.StateCatalog) []models.TransitionRow

	// UnitRows renders the per-unit statistics, sorted by unit then by
	// source state descending.
	UnitRows(stats *TransitionStats, catalog models.StateCatalog) []models.UnitTransitionRow
}

// TransitionStats holds the accumulated per-pair duration statistics of
// one aggregation pass.
type TransitionStats struct {
	Global map[models.Transition]models.DurationStats
	ByUnit map[models.UnitTransition]models.DurationStats
}

// Lookup returns the global statistics for one (src,tgt) pair.
func (s *TransitionStats) Lookup(src, tgt int) (models.DurationStats, bool) {
	stats, ok := s.Global[models.Transition{Src: src, Tgt: tgt}]
	return stats, ok
}

type transitionAggregator struct{}

// NewTransitionAggregator creates a new TransitionAggregator.
func NewTransitionAggregator() TransitionAggregator {
	return &transitionAggregator{}
}

var _ TransitionAggregator = (*transitionAggregator)(nil)

func (a *transitionAggregator) Aggregate(sequences []models.CaseSequence) *TransitionStats {
	stats := &TransitionStats{
		Global: make(map[models.Transition]models.DurationStats),
		ByUnit: make(map[models.UnitTransition]models.DurationStats),
	}

	for _, seq := range sequences {
		for i := 0; i+1 < len(seq.States); i++ {
			duration := 0.0
			if i < len(seq.Durations) {
				duration = seq.Durations[i]
			}

			key := models.Transition{Src: seq.States[i], Tgt: seq.States[i+1]}
			g := stats.Global[key]
			g.Count++
			g.SumDuration += duration
			stats.Global[key] = g

			unitKey := models.UnitTransition{Src: key.Src, Tgt: key.Tgt, Unit: seq.Unit}
			u := stats.ByUnit[unitKey]
			u.Count++
			u.SumDuration += duration
			stats.ByUnit[unitKey] = u
		}
	}

	return stats
}

func (a *transitionAggregator) GlobalRows(stats *TransitionStats, catalog models.StateCatalog) []models.TransitionRow {
	rows := make([]models.TransitionRow, 0, len(stats.Global))
	for key, s := range stats.Global {
		rows = append(rows, buildTransitionRow(key.Src, key.Tgt, s, catalog))
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Src != rows[j].Src {
			return rows[i].Src > rows[j].Src
		}
		return rows[i].Tgt > rows[j].Tgt
	})
	return rows
}

func (a *transitionAggregator) UnitRows(stats *TransitionStats, catalog models.StateCatalog) []models.UnitTransitionRow {
	rows := make([]models.UnitTransitionRow, 0, len(stats.ByUnit))
	for key, s := range stats.ByUnit {
		rows = append(rows, models.UnitTransitionRow{
			TransitionRow: buildTransitionRow(key.Src, key.Tgt, s, catalog),
			Unit:          key.Unit,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Unit != rows[j].Unit {
			return rows[i].Unit < rows[j].Unit
		}
		if rows[i].Src != rows[j].Src {
			return rows[i].Src > rows[j].Src
		}
		return rows[i].Tgt > rows[j].Tgt
	})
	return rows
}

func buildTransitionRow(src, tgt int, s models.DurationStats, catalog models.StateCatalog) models.TransitionRow {
	row := models.TransitionRow{
		Src:       src,
		Tgt:       tgt,
		Label:     TransitionLabel(src, tgt, catalog),
		TotalDays: s.SumDuration,
		Count:     s.Count,
	}
	if mean, ok := s.Mean(); ok {
		row.MeanDuration = &mean
	}
	return row
}

// TransitionLabel renders a (src,tgt) pair as a human-readable arrow.
func TransitionLabel(src, tgt int, catalog models.StateCatalog) string {
	return fmt.Sprintf("%s -> %s", catalog.Name(src), catalog.Name(tgt))
}
