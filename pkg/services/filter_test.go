package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramita-labs/expediente-engine/pkg/models"
	"github.com/tramita-labs/expediente-engine/pkg/testhelpers"
)

func TestFilterSnapshot_KeepsCasesInsideWindow(t *testing.T) {
	cases := []models.Case{
		{ID: "EXP-1", StartDate: testhelpers.Day(0)},
		{ID: "EXP-2", StartDate: testhelpers.Day(5)},
		{ID: "EXP-3", StartDate: testhelpers.Day(10)},
	}
	events := []models.Event{
		{CaseID: "EXP-1", StateCode: 0, EventTime: testhelpers.Day(0)},
		{CaseID: "EXP-2", StateCode: 0, EventTime: testhelpers.Day(5)},
		{CaseID: "EXP-2", StateCode: 1, EventTime: testhelpers.Day(6)},
		{CaseID: "EXP-3", StateCode: 0, EventTime: testhelpers.Day(10)},
	}

	snapshot := FilterSnapshot(cases, events, testhelpers.Day(1), testhelpers.Day(9))
	require.Len(t, snapshot.Cases, 1)
	assert.Equal(t, "EXP-2", snapshot.Cases[0].ID)
	require.Len(t, snapshot.Events, 2)
	for _, e := range snapshot.Events {
		assert.Equal(t, "EXP-2", e.CaseID)
	}
}

func TestFilterSnapshot_BoundsAreInclusive(t *testing.T) {
	cases := []models.Case{
		{ID: "EXP-1", StartDate: testhelpers.Day(0)},
		{ID: "EXP-2", StartDate: testhelpers.Day(5)},
	}

	snapshot := FilterSnapshot(cases, nil, testhelpers.Day(0), testhelpers.Day(5))
	assert.Len(t, snapshot.Cases, 2)
}

func TestFilterSnapshot_ZeroBoundsAreOpen(t *testing.T) {
	cases := []models.Case{
		{ID: "EXP-1", StartDate: testhelpers.Day(0)},
		{ID: "EXP-2", StartDate: testhelpers.Day(100)},
	}

	snapshot := FilterSnapshot(cases, nil, time.Time{}, time.Time{})
	assert.Len(t, snapshot.Cases, 2)

	lower := FilterSnapshot(cases, nil, testhelpers.Day(50), time.Time{})
	require.Len(t, lower.Cases, 1)
	assert.Equal(t, "EXP-2", lower.Cases[0].ID)
}
