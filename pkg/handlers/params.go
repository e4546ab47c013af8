package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tramita-labs/expediente-engine/pkg/apperrors"
	"github.com/tramita-labs/expediente-engine/pkg/models"
)

// dateLayout is the wire format for date range bounds.
const dateLayout = "2006-01-02"

// parseFilterContext builds a FilterContext from request query parameters:
//
//	procedure=CODE                 required
//	from=2024-01-01&to=2024-06-30  optional, inclusive
//	terminal_states=3,5            optional, empty means every case counts as complete
//	min_share=0.5                  optional, percent
//	freq=day|week|month            optional, derived from the range when absent
func parseFilterContext(r *http.Request) (models.FilterContext, error) {
	q := r.URL.Query()

	procedure := strings.TrimSpace(q.Get("procedure"))
	if procedure == "" {
		return models.FilterContext{}, fmt.Errorf("%w: missing procedure parameter", apperrors.ErrInvalidFilter)
	}

	from, err := parseDate(q.Get("from"))
	if err != nil {
		return models.FilterContext{}, fmt.Errorf("%w: invalid from date: %v", apperrors.ErrInvalidFilter, err)
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		return models.FilterContext{}, fmt.Errorf("%w: invalid to date: %v", apperrors.ErrInvalidFilter, err)
	}
	if !to.IsZero() {
		// Make the upper bound inclusive for the whole day.
		to = to.Add(24*time.Hour - time.Nanosecond)
	}

	terminal, err := parseStateList(q.Get("terminal_states"))
	if err != nil {
		return models.FilterContext{}, fmt.Errorf("%w: invalid terminal_states: %v", apperrors.ErrInvalidFilter, err)
	}

	minShare := 0.0
	if raw := q.Get("min_share"); raw != "" {
		minShare, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.FilterContext{}, fmt.Errorf("%w: invalid min_share: %v", apperrors.ErrInvalidFilter, err)
		}
	}

	return models.NewFilterContext(procedure, from, to, terminal, minShare, models.BucketFreq(q.Get("freq"))), nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, raw)
}

func parseStateList(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	states := make([]int, 0, len(parts))
	for _, p := range parts {
		state, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, nil
}
