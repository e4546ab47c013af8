package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewFilterContext_NormalizesTerminalStates(t *testing.T) {
	a := NewFilterContext("LIC-01", time.Time{}, time.Time{}, []int{5, 3, 5, 1}, 0.5, "")
	b := NewFilterContext("LIC-01", time.Time{}, time.Time{}, []int{1, 3, 5}, 0.5, "")

	assert.Equal(t, []int{1, 3, 5}, a.TerminalStates)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFilterContext_FingerprintChangesWithParameters(t *testing.T) {
	base := NewFilterContext("LIC-01", time.Time{}, time.Time{}, []int{2}, 0.5, "")

	variants := []FilterContext{
		NewFilterContext("LIC-02", time.Time{}, time.Time{}, []int{2}, 0.5, ""),
		NewFilterContext("LIC-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{}, []int{2}, 0.5, ""),
		NewFilterContext("LIC-01", time.Time{}, time.Time{}, []int{2, 3}, 0.5, ""),
		NewFilterContext("LIC-01", time.Time{}, time.Time{}, []int{2}, 1.0, ""),
		NewFilterContext("LIC-01", time.Time{}, time.Time{}, []int{2}, 0.5, BucketDay),
	}
	for i, v := range variants {
		assert.NotEqual(t, base.Fingerprint(), v.Fingerprint(), "variant %d", i)
	}
}

func TestFilterContext_FingerprintIsStable(t *testing.T) {
	filter := NewFilterContext("LIC-01", time.Time{}, time.Time{}, []int{2}, 0.5, "")
	assert.Equal(t, filter.Fingerprint(), filter.Fingerprint())
}

func TestFilterContext_ResolveFreq(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		to   time.Time
		freq BucketFreq
		want BucketFreq
	}{
		{name: "explicit freq wins", to: from.AddDate(2, 0, 0), freq: BucketDay, want: BucketDay},
		{name: "short range buckets daily", to: from.AddDate(0, 0, 60), want: BucketDay},
		{name: "medium range buckets weekly", to: from.AddDate(0, 0, 120), want: BucketWeek},
		{name: "long range buckets monthly", to: from.AddDate(1, 0, 0), want: BucketMonth},
		{name: "open range buckets monthly", want: BucketMonth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := FilterContext{From: from, To: tt.to, Freq: tt.freq}
			if tt.to.IsZero() {
				f.From = time.Time{}
			}
			assert.Equal(t, tt.want, f.ResolveFreq())
		})
	}
}

func TestBucketStart(t *testing.T) {
	// 2024-05-15 is a Wednesday.
	ts := time.Date(2024, 5, 15, 13, 45, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), BucketStart(ts, BucketDay))
	assert.Equal(t, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), BucketStart(ts, BucketWeek))
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), BucketStart(ts, BucketMonth))
}

func TestBucketStart_SundayBelongsToPrecedingMondayWeek(t *testing.T) {
	sunday := time.Date(2024, 5, 19, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), BucketStart(sunday, BucketWeek))
}
