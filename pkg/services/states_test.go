package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateMetrics_Summarize(t *testing.T) {
	metrics := NewStateMetrics()
	classifier := NewCompletionClassifier()

	population := threeCasePopulation()
	complete, _ := classifier.Split(population, map[int]struct{}{2: {}})

	summary := metrics.Summarize(population, complete)
	assert.Equal(t, 3, summary.TotalCases)
	assert.Equal(t, 2, summary.Completed)
	assert.Equal(t, 66.7, summary.CompletedPercent)
	require.NotNil(t, summary.MeanDuration)
	assert.InDelta(t, 5.0, *summary.MeanDuration, 1e-9)
}

func TestStateMetrics_SummarizeEmptyPopulation(t *testing.T) {
	metrics := NewStateMetrics()

	summary := metrics.Summarize(nil, nil)
	assert.Zero(t, summary.TotalCases)
	assert.Zero(t, summary.CompletedPercent)
	assert.Nil(t, summary.MeanDuration)
}

func TestStateMetrics_ReachRows(t *testing.T) {
	metrics := NewStateMetrics()
	classifier := NewCompletionClassifier()

	population := threeCasePopulation()
	terminal := map[int]struct{}{2: {}, 3: {}}
	complete, _ := classifier.Split(population, terminal)

	rows := metrics.ReachRows(population, complete, []int{2, 3}, flowCatalog)
	require.Len(t, rows, 2)

	approved := rows[0]
	assert.Equal(t, 2, approved.State)
	assert.Equal(t, "Approved", approved.Label)
	assert.Equal(t, 2, approved.ReachCount)
	assert.Equal(t, 66.7, approved.ReachPercent)
	require.NotNil(t, approved.MeanDuration)
	assert.InDelta(t, 5.0, *approved.MeanDuration, 1e-9)

	rejected := rows[1]
	assert.Equal(t, 1, rejected.ReachCount)
	assert.Equal(t, 33.3, rejected.ReachPercent)
	require.NotNil(t, rejected.MeanDuration)
	assert.InDelta(t, 2.0, *rejected.MeanDuration, 1e-9)
}

func TestStateMetrics_ReachRowsNilMeanWhenNoCompleteCaseVisits(t *testing.T) {
	metrics := NewStateMetrics()

	population := threeCasePopulation()
	// State 3 is visited, but the complete set excludes the visitor.
	rows := metrics.ReachRows(population, nil, []int{3}, flowCatalog)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].ReachCount)
	assert.Nil(t, rows[0].MeanDuration)
}

func TestStateMetrics_UnitRows(t *testing.T) {
	metrics := NewStateMetrics()
	classifier := NewCompletionClassifier()

	population := threeCasePopulation()
	terminal := map[int]struct{}{2: {}}
	complete, _ := classifier.Split(population, terminal)
	summary := metrics.Summarize(population, complete)

	rows := metrics.UnitRows(population, terminal, summary)
	require.Len(t, rows, 2)

	central := rows[0]
	assert.Equal(t, "Central", central.Unit)
	assert.Equal(t, 2, central.Total)
	assert.Equal(t, 2, central.Completed)
	assert.Equal(t, 100.0, central.CompletedPercent)
	assert.Equal(t, 33.3, central.DeltaPercent)
	require.NotNil(t, central.MeanDuration)
	assert.InDelta(t, 5.0, *central.MeanDuration, 1e-9)
	require.NotNil(t, central.DeltaDuration)
	assert.InDelta(t, 0.0, *central.DeltaDuration, 1e-9)

	north := rows[1]
	assert.Equal(t, "North", north.Unit)
	assert.Equal(t, 1, north.Total)
	assert.Equal(t, 0, north.Completed)
	assert.Equal(t, 0.0, north.CompletedPercent)
	assert.Equal(t, -66.7, north.DeltaPercent)
	assert.Nil(t, north.MeanDuration)
	assert.Nil(t, north.DeltaDuration)
}
