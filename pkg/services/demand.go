package services

import (
	"sort"
	"time"

	"github.com/tramita-labs/expediente-engine/pkg/models"
)

// DemandAggregator derives the temporal views: registration volume over
// time, per-province volume, the seasonal week-of-year matrix and the
// per-state event activity timeline.
type DemandAggregator interface {
	Rows(cases []models.Case, freq models.BucketFreq) []models.DemandRow
	ProvinceRows(cases []models.Case, freq models.BucketFreq) []models.ProvinceDemandRow
	WeeklyPattern(cases []models.Case) []models.WeeklyPatternRow

	// ActivityRows counts events per bucket, state and unit, restricted
	// to the cases in include. Events of other cases are ignored, so the
	// timeline only reflects the complete population.
	ActivityRows(events []models.Event, include map[string]struct{}, catalog models.StateCatalog, freq models.BucketFreq) []models.StateActivityRow
}

type demandAggregator struct{}

// NewDemandAggregator creates a new DemandAggregator.
func NewDemandAggregator() DemandAggregator {
	return &demandAggregator{}
}

var _ DemandAggregator = (*demandAggregator)(nil)

func (a *demandAggregator) Rows(cases []models.Case, freq models.BucketFreq) []models.DemandRow {
	counts := make(map[int64]int)
	times := make(map[int64]time.Time)
	for _, c := range cases {
		bucket := models.BucketStart(c.StartDate, freq)
		key := bucket.Unix()
		if _, ok := counts[key]; !ok {
			times[key] = bucket
		}
		counts[key]++
	}

	keys := sortedKeys(counts)
	rows := make([]models.DemandRow, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, models.DemandRow{Bucket: times[k], Total: counts[k]})
	}
	return rows
}

func (a *demandAggregator) ProvinceRows(cases []models.Case, freq models.BucketFreq) []models.ProvinceDemandRow {
	type bucketProvince struct {
		key      int64
		province string
	}
	counts := make(map[bucketProvince]int)
	times := make(map[int64]time.Time)
	for _, c := range cases {
		bucket := models.BucketStart(c.StartDate, freq)
		key := bucketProvince{key: bucket.Unix(), province: c.Province}
		if _, ok := times[key.key]; !ok {
			times[key.key] = bucket
		}
		counts[key]++
	}

	rows := make([]models.ProvinceDemandRow, 0, len(counts))
	for key, total := range counts {
		rows = append(rows, models.ProvinceDemandRow{
			Bucket:   times[key.key],
			Province: key.province,
			Total:    total,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Bucket.Equal(rows[j].Bucket) {
			return rows[i].Bucket.Before(rows[j].Bucket)
		}
		return rows[i].Province < rows[j].Province
	})
	return rows
}

func (a *demandAggregator) WeeklyPattern(cases []models.Case) []models.WeeklyPatternRow {
	type yearWeek struct {
		year int
		week int
	}
	counts := make(map[yearWeek]int)
	for _, c := range cases {
		year, week := c.StartDate.ISOWeek()
		counts[yearWeek{year: year, week: week}]++
	}

	rows := make([]models.WeeklyPatternRow, 0, len(counts))
	for key, total := range counts {
		rows = append(rows, models.WeeklyPatternRow{Year: key.year, Week: key.week, Total: total})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Year != rows[j].Year {
			return rows[i].Year < rows[j].Year
		}
		return rows[i].Week < rows[j].Week
	})
	return rows
}

func (a *demandAggregator) ActivityRows(events []models.Event, include map[string]struct{}, catalog models.StateCatalog, freq models.BucketFreq) []models.StateActivityRow {
	type activityKey struct {
		bucket int64
		state  int
		unit   string
	}
	counts := make(map[activityKey]int)
	times := make(map[int64]time.Time)
	for _, e := range events {
		if e.EventTime.IsZero() {
			continue
		}
		if _, ok := include[e.CaseID]; !ok {
			continue
		}
		bucket := models.BucketStart(e.EventTime, freq)
		key := activityKey{bucket: bucket.Unix(), state: e.StateCode, unit: normalizeUnit(e.Unit)}
		if _, ok := times[key.bucket]; !ok {
			times[key.bucket] = bucket
		}
		counts[key]++
	}

	rows := make([]models.StateActivityRow, 0, len(counts))
	for key, total := range counts {
		rows = append(rows, models.StateActivityRow{
			Bucket: times[key.bucket],
			State:  key.state,
			Label:  catalog.Name(key.state),
			Unit:   key.unit,
			Count:  total,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Bucket.Equal(rows[j].Bucket) {
			return rows[i].Bucket.Before(rows[j].Bucket)
		}
		if rows[i].State != rows[j].State {
			return rows[i].State < rows[j].State
		}
		return rows[i].Unit < rows[j].Unit
	})
	return rows
}

func normalizeUnit(unit string) string {
	if unit == "" {
		return models.UnitUnspecified
	}
	return unit
}

func sortedKeys(m map[int64]int) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
