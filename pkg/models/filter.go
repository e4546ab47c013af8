package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// BucketFreq selects the time-bucket granularity for temporal views.
type BucketFreq string

const (
	BucketDay   BucketFreq = "day"
	BucketWeek  BucketFreq = "week"
	BucketMonth BucketFreq = "month"
)

// FilterContext is the immutable parameter set of one analytics
// recomputation: procedure, date range, terminal-state selection and
// tunables. Every pipeline run is a pure function of a FilterContext
// plus the loaded case log, so the fingerprint doubles as a cache key.
type FilterContext struct {
	ProcedureCode   string
	From            time.Time
	To              time.Time
	TerminalStates  []int
	MinSharePercent float64
	Freq            BucketFreq
}

// NewFilterContext builds a normalized FilterContext. Terminal states are
// sorted and de-duplicated so two selections with the same members always
// produce the same fingerprint.
func NewFilterContext(procedure string, from, to time.Time, terminal []int, minShare float64, freq BucketFreq) FilterContext {
	states := make([]int, 0, len(terminal))
	seen := make(map[int]struct{}, len(terminal))
	for _, s := range terminal {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		states = append(states, s)
	}
	sort.Ints(states)

	return FilterContext{
		ProcedureCode:   procedure,
		From:            from,
		To:              to,
		TerminalStates:  states,
		MinSharePercent: minShare,
		Freq:            freq,
	}
}

// Fingerprint returns a stable content hash of the filter parameters.
func (f FilterContext) Fingerprint() string {
	var b strings.Builder
	b.WriteString(f.ProcedureCode)
	b.WriteByte('|')
	b.WriteString(f.From.UTC().Format(time.RFC3339))
	b.WriteByte('|')
	b.WriteString(f.To.UTC().Format(time.RFC3339))
	b.WriteByte('|')
	for i, s := range f.TerminalStates {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", s)
	}
	fmt.Fprintf(&b, "|%.4f|%s", f.MinSharePercent, f.ResolveFreq())

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// TerminalSet returns the terminal states as a lookup set.
func (f FilterContext) TerminalSet() map[int]struct{} {
	set := make(map[int]struct{}, len(f.TerminalStates))
	for _, s := range f.TerminalStates {
		set[s] = struct{}{}
	}
	return set
}

// ResolveFreq returns the explicit bucket frequency, or derives one from
// the span of the date range: short ranges bucket daily, medium ranges
// weekly, anything longer monthly.
func (f FilterContext) ResolveFreq() BucketFreq {
	if f.Freq != "" {
		return f.Freq
	}
	if f.From.IsZero() || f.To.IsZero() {
		return BucketMonth
	}
	span := f.To.Sub(f.From).Hours() / 24
	switch {
	case span < 90:
		return BucketDay
	case span < 180:
		return BucketWeek
	default:
		return BucketMonth
	}
}

// BucketStart truncates t to the start of its bucket. Weeks start on
// Monday, matching how the source data has always been reported.
func BucketStart(t time.Time, freq BucketFreq) time.Time {
	switch freq {
	case BucketDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case BucketWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
}
