// Package testhelpers provides shared fixtures for engine tests. Case
// logs are described in YAML so test scenarios read like the source
// data instead of slices of struct literals.
package testhelpers

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tramita-labs/expediente-engine/pkg/models"
)

// CaseLogFixture is one procedure's case log for a test scenario.
type CaseLogFixture struct {
	Catalog map[int]string `yaml:"catalog"`
	Cases   []caseFixture  `yaml:"cases"`
	Events  []eventFixture `yaml:"events"`
}

type caseFixture struct {
	ID               string `yaml:"id"`
	Start            string `yaml:"start"`
	ProvinceCode     string `yaml:"province_code"`
	Province         string `yaml:"province"`
	Municipality     string `yaml:"municipality"`
	MunicipalityCode string `yaml:"municipality_code"`
	Online           bool   `yaml:"online"`
	Company          bool   `yaml:"company"`
}

type eventFixture struct {
	Case  string `yaml:"case"`
	State int    `yaml:"state"`
	Time  string `yaml:"time"`
	Unit  string `yaml:"unit"`
}

// ParseCaseLog decodes a YAML case-log fixture. Timestamps accept either
// a bare date or RFC 3339.
func ParseCaseLog(t *testing.T, doc string) *CaseLogFixture {
	t.Helper()
	var fixture CaseLogFixture
	if err := yaml.Unmarshal([]byte(doc), &fixture); err != nil {
		t.Fatalf("failed to parse case log fixture: %v", err)
	}
	return &fixture
}

// StateCatalog returns the fixture's catalog as the engine type.
func (f *CaseLogFixture) StateCatalog() models.StateCatalog {
	catalog := make(models.StateCatalog, len(f.Catalog))
	for code, name := range f.Catalog {
		catalog[code] = name
	}
	return catalog
}

// ModelCases converts the fixture cases to engine models.
func (f *CaseLogFixture) ModelCases(t *testing.T) []models.Case {
	t.Helper()
	cases := make([]models.Case, 0, len(f.Cases))
	for _, c := range f.Cases {
		cases = append(cases, models.Case{
			ID:               c.ID,
			StartDate:        parseTime(t, c.Start),
			ProvinceCode:     c.ProvinceCode,
			Province:         c.Province,
			MunicipalityCode: c.MunicipalityCode,
			Municipality:     c.Municipality,
			IsOnline:         c.Online,
			IsCompany:        c.Company,
		})
	}
	return cases
}

// ModelEvents converts the fixture events to engine models. SeqNo
// follows document order, like the insertion order of the source table.
func (f *CaseLogFixture) ModelEvents(t *testing.T) []models.Event {
	t.Helper()
	events := make([]models.Event, 0, len(f.Events))
	for i, e := range f.Events {
		events = append(events, models.Event{
			CaseID:    e.Case,
			StateCode: e.State,
			EventTime: parseTime(t, e.Time),
			Unit:      e.Unit,
			SeqNo:     i + 1,
		})
	}
	return events
}

func parseTime(t *testing.T, raw string) time.Time {
	t.Helper()
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	t.Fatalf("unparseable fixture time %q", raw)
	return time.Time{}
}

// Day is a shorthand for building event times a fixed number of days
// after an epoch, for tests that construct sequences directly.
func Day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// Sequence builds a CaseSequence with evenly spaced synthetic metadata,
// for stages that only care about states and durations.
func Sequence(caseID string, unit string, states []int, durations []float64) models.CaseSequence {
	total := 0.0
	for _, d := range durations {
		total += d
	}
	start := Day(0)
	return models.CaseSequence{
		CaseID:    caseID,
		States:    states,
		Durations: durations,
		Unit:      unit,
		Start:     start,
		End:       start.Add(time.Duration(total * 24 * float64(time.Hour))),
	}
}
