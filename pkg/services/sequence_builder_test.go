package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tramita-labs/expediente-engine/pkg/models"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestSequenceBuilder_BuildsOrderedSequences(t *testing.T) {
	builder := NewSequenceBuilder(zap.NewNop())

	// Events arrive shuffled; the builder must restore per-case time order.
	events := []models.Event{
		{CaseID: "EXP-2", StateCode: 0, EventTime: day(1), Unit: "North", SeqNo: 3},
		{CaseID: "EXP-1", StateCode: 2, EventTime: day(5), Unit: "Central", SeqNo: 2},
		{CaseID: "EXP-1", StateCode: 0, EventTime: day(0), Unit: "Central", SeqNo: 1},
		{CaseID: "EXP-1", StateCode: 1, EventTime: day(3), Unit: "Central", SeqNo: 4},
		{CaseID: "EXP-2", StateCode: 3, EventTime: day(2), Unit: "North", SeqNo: 5},
	}

	sequences := builder.Build(events)
	require.Len(t, sequences, 2)

	first := sequences[0]
	assert.Equal(t, "EXP-1", first.CaseID)
	assert.Equal(t, []int{0, 1, 2}, first.States)
	assert.Equal(t, []float64{3, 2}, first.Durations)
	assert.Equal(t, "Central", first.Unit)
	assert.InDelta(t, 5.0, first.TotalDurationDays(), 1e-9)

	second := sequences[1]
	assert.Equal(t, "EXP-2", second.CaseID)
	assert.Equal(t, []int{0, 3}, second.States)
	assert.Equal(t, []float64{1}, second.Durations)
}

func TestSequenceBuilder_TieBreaksEqualTimestampsBySeqNo(t *testing.T) {
	builder := NewSequenceBuilder(zap.NewNop())

	ts := day(0)
	events := []models.Event{
		{CaseID: "EXP-1", StateCode: 2, EventTime: ts, SeqNo: 2},
		{CaseID: "EXP-1", StateCode: 1, EventTime: ts, SeqNo: 1},
		{CaseID: "EXP-1", StateCode: 3, EventTime: ts, SeqNo: 3},
	}

	sequences := builder.Build(events)
	require.Len(t, sequences, 1)
	assert.Equal(t, []int{1, 2, 3}, sequences[0].States)
	assert.Equal(t, []float64{0, 0}, sequences[0].Durations)
}

func TestSequenceBuilder_SingleEventCaseHasNoDurations(t *testing.T) {
	builder := NewSequenceBuilder(zap.NewNop())

	sequences := builder.Build([]models.Event{
		{CaseID: "EXP-1", StateCode: 0, EventTime: day(0), SeqNo: 1},
	})

	require.Len(t, sequences, 1)
	assert.Equal(t, []int{0}, sequences[0].States)
	assert.Empty(t, sequences[0].Durations)
	assert.Zero(t, sequences[0].TotalDurationDays())
}

func TestSequenceBuilder_DropsCasesWithoutTimestamps(t *testing.T) {
	builder := NewSequenceBuilder(zap.NewNop())

	sequences := builder.Build([]models.Event{
		{CaseID: "EXP-1", StateCode: 0, SeqNo: 1},
		{CaseID: "EXP-2", StateCode: 0, EventTime: day(0), SeqNo: 2},
	})

	require.Len(t, sequences, 1)
	assert.Equal(t, "EXP-2", sequences[0].CaseID)
}

func TestSequenceBuilder_FallsBackToUnspecifiedUnit(t *testing.T) {
	builder := NewSequenceBuilder(zap.NewNop())

	sequences := builder.Build([]models.Event{
		{CaseID: "EXP-1", StateCode: 0, EventTime: day(0), SeqNo: 1},
		{CaseID: "EXP-1", StateCode: 1, EventTime: day(1), SeqNo: 2},
	})

	require.Len(t, sequences, 1)
	assert.Equal(t, models.UnitUnspecified, sequences[0].Unit)
}

func TestSequenceBuilder_FirstEventUnitWins(t *testing.T) {
	builder := NewSequenceBuilder(zap.NewNop())

	// A missing unit on the first event stays the sentinel even when a
	// later event names one.
	sequences := builder.Build([]models.Event{
		{CaseID: "EXP-1", StateCode: 0, EventTime: day(0), SeqNo: 1},
		{CaseID: "EXP-1", StateCode: 1, EventTime: day(1), Unit: "North", SeqNo: 2},
		{CaseID: "EXP-2", StateCode: 0, EventTime: day(0), Unit: "Central", SeqNo: 3},
		{CaseID: "EXP-2", StateCode: 1, EventTime: day(1), Unit: "North", SeqNo: 4},
	})

	require.Len(t, sequences, 2)
	assert.Equal(t, models.UnitUnspecified, sequences[0].Unit)
	assert.Equal(t, "Central", sequences[1].Unit)
}

func TestSequenceBuilder_EmptyInput(t *testing.T) {
	builder := NewSequenceBuilder(zap.NewNop())
	assert.Empty(t, builder.Build(nil))
}
