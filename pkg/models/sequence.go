package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CaseSequence is the derived per-case view the whole engine works on:
// the ordered state codes of one case plus the inter-event durations in
// days. There are exactly len(States)-1 durations; a single-event case
// has none. No time is measured after the last event (domain convention).
type CaseSequence struct {
	CaseID    string    `json:"case_id"`
	States    []int     `json:"states"`
	Durations []float64 `json:"durations"`
	Unit      string    `json:"unit"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// TotalDurationDays is the elapsed time from the first to the last event.
func (s *CaseSequence) TotalDurationDays() float64 {
	return s.End.Sub(s.Start).Hours() / 24
}

// SequenceKey returns a canonical identity for the full state sequence.
// Two cases belong to the same flow iff their keys are equal.
func (s *CaseSequence) SequenceKey() string {
	return sequenceKey(s.States)
}

// ContainsAny reports whether the sequence visits at least one of the
// given states. An empty set matches everything: with no terminal states
// selected, every case is treated as complete.
func (s *CaseSequence) ContainsAny(states map[int]struct{}) bool {
	if len(states) == 0 {
		return true
	}
	for _, code := range s.States {
		if _, ok := states[code]; ok {
			return true
		}
	}
	return false
}

// Contains reports whether the sequence visits the given state.
func (s *CaseSequence) Contains(state int) bool {
	for _, code := range s.States {
		if code == state {
			return true
		}
	}
	return false
}

func sequenceKey(states []int) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}

func syntheticStateName(code int) string {
	return fmt.Sprintf("S-%d", code)
}

// Transition is the aggregation key for pairwise statistics.
type Transition struct {
	Src int
	Tgt int
}

// UnitTransition keys pairwise statistics grouped by organizational unit.
type UnitTransition struct {
	Src  int
	Tgt  int
	Unit string
}

// DurationStats accumulates a transition's observation count and summed
// duration. The mean is derived lazily so a zero count stays "undefined"
// instead of dividing by zero, and repeated rounding never accumulates.
type DurationStats struct {
	Count       int     `json:"count"`
	SumDuration float64 `json:"sum_duration"`
}

// Mean returns the mean duration in days and whether it is defined.
func (d DurationStats) Mean() (float64, bool) {
	if d.Count == 0 {
		return 0, false
	}
	return d.SumDuration / float64(d.Count), true
}

// FlowRecord is one distinct full state sequence that cleared the
// minimum population-share threshold.
type FlowRecord struct {
	Sequence     []int     `json:"sequence"`
	Count        int       `json:"count"`
	Share        float64   `json:"population_share"`
	AvgDurations []float64 `json:"avg_duration_per_transition"`
}

// TotalDuration sums the per-transition mean durations of the flow.
func (f *FlowRecord) TotalDuration() float64 {
	total := 0.0
	for _, d := range f.AvgDurations {
		total += d
	}
	return total
}

// SequenceKey returns the flow's canonical sequence identity.
func (f *FlowRecord) SequenceKey() string {
	return sequenceKey(f.Sequence)
}
