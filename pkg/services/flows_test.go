package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramita-labs/expediente-engine/pkg/models"
	"github.com/tramita-labs/expediente-engine/pkg/testhelpers"
)

var flowCatalog = models.StateCatalog{
	0: "Registered",
	1: "In review",
	2: "Approved",
	3: "Rejected",
}

func threeCasePopulation() []models.CaseSequence {
	return []models.CaseSequence{
		testhelpers.Sequence("EXP-1", "Central", []int{0, 1, 2}, []float64{2, 3}),
		testhelpers.Sequence("EXP-2", "Central", []int{0, 1, 2}, []float64{4, 1}),
		testhelpers.Sequence("EXP-3", "North", []int{0, 1, 3}, []float64{1, 1}),
	}
}

func TestFlowExtractor_Extract(t *testing.T) {
	extractor := NewFlowExtractor()

	flows := extractor.Extract(threeCasePopulation(), 30)
	require.Len(t, flows, 2)

	major := flows[0]
	assert.Equal(t, []int{0, 1, 2}, major.Sequence)
	assert.Equal(t, 2, major.Count)
	assert.Equal(t, 66.7, major.Share)
	assert.Equal(t, []float64{3, 2}, major.AvgDurations)
	assert.InDelta(t, 5.0, major.TotalDuration(), 1e-9)

	minor := flows[1]
	assert.Equal(t, []int{0, 1, 3}, minor.Sequence)
	assert.Equal(t, 1, minor.Count)
	assert.Equal(t, 33.3, minor.Share)
	assert.Equal(t, []float64{1, 1}, minor.AvgDurations)
}

func TestFlowExtractor_ThresholdDropsRareFlows(t *testing.T) {
	extractor := NewFlowExtractor()

	flows := extractor.Extract(threeCasePopulation(), 50)
	require.Len(t, flows, 1)
	assert.Equal(t, []int{0, 1, 2}, flows[0].Sequence)
}

func TestFlowExtractor_ShareIsRoundedBeforeThreshold(t *testing.T) {
	extractor := NewFlowExtractor()

	// 1 of 3 cases is 33.333...%, rounded to 33.3. A threshold of 33.3
	// must keep it; 33.4 must not.
	population := threeCasePopulation()
	kept := extractor.Extract(population, 33.3)
	assert.Len(t, kept, 2)

	trimmed := extractor.Extract(population, 33.4)
	assert.Len(t, trimmed, 1)
}

func TestFlowExtractor_EmptyPopulation(t *testing.T) {
	extractor := NewFlowExtractor()
	assert.Empty(t, extractor.Extract(nil, 10))
}

func TestFlowExtractor_LegendRows(t *testing.T) {
	extractor := NewFlowExtractor()

	flows := extractor.Extract(threeCasePopulation(), 30)
	rows := extractor.LegendRows(flows, flowCatalog)
	require.Len(t, rows, 2)

	assert.Equal(t, "F01", rows[0].Code)
	assert.Equal(t, "Registered -> In review -> Approved", rows[0].SequenceLabel)
	assert.Equal(t, 66.7, rows[0].Share)
	assert.Equal(t, "F02", rows[1].Code)
	assert.Equal(t, "Registered -> In review -> Rejected", rows[1].SequenceLabel)
}

func TestFlowExtractor_TransitionRows(t *testing.T) {
	extractor := NewFlowExtractor()

	flows := extractor.Extract(threeCasePopulation(), 30)
	rows := extractor.TransitionRows(flows, flowCatalog)
	require.Len(t, rows, 4)

	assert.Equal(t, "F01", rows[0].FlowCode)
	assert.Equal(t, 0, rows[0].Position)
	assert.Equal(t, "Registered -> In review", rows[0].Label)
	assert.InDelta(t, 3.0, rows[0].Duration, 1e-9)

	assert.Equal(t, "F01", rows[1].FlowCode)
	assert.Equal(t, 1, rows[1].Position)
	assert.Equal(t, "In review -> Approved", rows[1].Label)
	assert.InDelta(t, 2.0, rows[1].Duration, 1e-9)
}

func TestFlowExtractor_UnitRows(t *testing.T) {
	extractor := NewFlowExtractor()

	population := threeCasePopulation()
	flows := extractor.Extract(population, 30)
	rows := extractor.UnitRows(flows, population)
	require.Len(t, rows, 2)

	central := rows[0]
	assert.Equal(t, "F01", central.FlowCode)
	assert.Equal(t, "Central", central.Unit)
	assert.Equal(t, "U1", central.UnitCode)
	assert.Equal(t, 2, central.Count)
	assert.Equal(t, 100.0, central.Share)
	assert.Equal(t, []float64{3, 2}, central.AvgDurations)

	north := rows[1]
	assert.Equal(t, "F02", north.FlowCode)
	assert.Equal(t, "North", north.Unit)
	assert.Equal(t, "U2", north.UnitCode)
	assert.Equal(t, 1, north.Count)
	assert.Equal(t, 100.0, north.Share)
}

func TestFlowExtractor_DiagramEdges(t *testing.T) {
	extractor := NewFlowExtractor()

	flows := extractor.Extract(threeCasePopulation(), 30)
	edges := extractor.DiagramEdges(flows, flowCatalog)
	require.Len(t, edges, 3)

	byPair := make(map[models.Transition]models.DiagramEdge, len(edges))
	for _, e := range edges {
		byPair[models.Transition{Src: e.Src, Tgt: e.Tgt}] = e
	}

	// Shared first hop merges both flows, weighted by flow size:
	// (3*2 + 1*1) / 3.
	shared, ok := byPair[models.Transition{Src: 0, Tgt: 1}]
	require.True(t, ok)
	assert.Equal(t, 3, shared.Count)
	assert.InDelta(t, 7.0/3.0, shared.MeanDuration, 1e-9)
	assert.Equal(t, "Registered", shared.SrcLabel)
	assert.Equal(t, "In review", shared.TgtLabel)

	approved, ok := byPair[models.Transition{Src: 1, Tgt: 2}]
	require.True(t, ok)
	assert.Equal(t, 2, approved.Count)
	assert.InDelta(t, 2.0, approved.MeanDuration, 1e-9)

	rejected, ok := byPair[models.Transition{Src: 1, Tgt: 3}]
	require.True(t, ok)
	assert.Equal(t, 1, rejected.Count)
	assert.InDelta(t, 1.0, rejected.MeanDuration, 1e-9)
}

func TestPositionalMeans_SkipsMissingPositions(t *testing.T) {
	short := testhelpers.Sequence("EXP-1", "Central", []int{0, 1, 2}, []float64{2})
	full := testhelpers.Sequence("EXP-2", "Central", []int{0, 1, 2}, []float64{4, 6})

	means := positionalMeans([]*models.CaseSequence{&short, &full}, 2)
	require.Len(t, means, 2)
	assert.InDelta(t, 3.0, means[0], 1e-9)
	assert.InDelta(t, 6.0, means[1], 1e-9)
}
