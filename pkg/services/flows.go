package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tramita-labs/expediente-engine/pkg/models"
)

// FlowExtractor groups complete cases by their exact state sequence and
// keeps the sequences followed by at least a minimum share of the
// population. Those are the "major flows" of the procedure.
type FlowExtractor interface {
	// Extract returns the major flows of the given complete-case
	// population, most frequent first.
	Extract(complete []models.CaseSequence, minSharePercent float64) []models.FlowRecord

	// LegendRows renders flows as legend rows with F01.. codes. Codes
	// follow the flow order, so F01 is always the most frequent flow.
	LegendRows(flows []models.FlowRecord, catalog models.StateCatalog) []models.FlowLegendRow

	// TransitionRows breaks each flow into per-position rows for
	// stacked duration charts.
	TransitionRows(flows []models.FlowRecord, catalog models.StateCatalog) []models.FlowTransitionRow

	// UnitRows recomputes each flow's count, share and per-position
	// durations inside each organizational unit.
	UnitRows(flows []models.FlowRecord, complete []models.CaseSequence) []models.UnitFlowRow

	// DiagramEdges merges the flows into a single weighted edge set for
	// the process diagram. Edge durations are count-weighted means of
	// the contributing flows' positional durations.
	DiagramEdges(flows []models.FlowRecord, catalog models.StateCatalog) []models.DiagramEdge
}

type flowExtractor struct{}

// NewFlowExtractor creates a new FlowExtractor.
func NewFlowExtractor() FlowExtractor {
	return &flowExtractor{}
}

var _ FlowExtractor = (*flowExtractor)(nil)

type flowGroup struct {
	states  []int
	members []*models.CaseSequence
}

func (e *flowExtractor) Extract(complete []models.CaseSequence, minSharePercent float64) []models.FlowRecord {
	if len(complete) == 0 {
		return nil
	}

	groups := make(map[string]*flowGroup)
	order := make([]string, 0)
	for i := range complete {
		seq := &complete[i]
		key := seq.SequenceKey()
		g, ok := groups[key]
		if !ok {
			g = &flowGroup{states: seq.States}
			groups[key] = g
			order = append(order, key)
		}
		g.members = append(g.members, seq)
	}

	total := float64(len(complete))
	flows := make([]models.FlowRecord, 0, len(order))
	for _, key := range order {
		g := groups[key]
		share := round1(float64(len(g.members)) / total * 100)
		if share < minSharePercent {
			continue
		}
		flows = append(flows, models.FlowRecord{
			Sequence:     g.states,
			Count:        len(g.members),
			Share:        share,
			AvgDurations: positionalMeans(g.members, len(g.states)-1),
		})
	}

	// Most frequent first; equal counts keep discovery order.
	sort.SliceStable(flows, func(i, j int) bool {
		return flows[i].Count > flows[j].Count
	})
	return flows
}

func (e *flowExtractor) LegendRows(flows []models.FlowRecord, catalog models.StateCatalog) []models.FlowLegendRow {
	rows := make([]models.FlowLegendRow, 0, len(flows))
	for i, f := range flows {
		rows = append(rows, models.FlowLegendRow{
			Code:          flowCode(i),
			Sequence:      f.Sequence,
			SequenceLabel: sequenceLabel(f.Sequence, catalog),
			Share:         f.Share,
			Count:         f.Count,
			TotalDuration: f.TotalDuration(),
			AvgDurations:  f.AvgDurations,
		})
	}
	return rows
}

func (e *flowExtractor) TransitionRows(flows []models.FlowRecord, catalog models.StateCatalog) []models.FlowTransitionRow {
	rows := make([]models.FlowTransitionRow, 0)
	for i, f := range flows {
		for pos, d := range f.AvgDurations {
			rows = append(rows, models.FlowTransitionRow{
				FlowCode: flowCode(i),
				Position: pos,
				Label:    TransitionLabel(f.Sequence[pos], f.Sequence[pos+1], catalog),
				Duration: d,
			})
		}
	}
	return rows
}

func (e *flowExtractor) UnitRows(flows []models.FlowRecord, complete []models.CaseSequence) []models.UnitFlowRow {
	if len(flows) == 0 {
		return nil
	}

	flowIndex := make(map[string]int, len(flows))
	for i, f := range flows {
		flowIndex[f.SequenceKey()] = i
	}

	type unitGroup struct {
		members []*models.CaseSequence
	}
	byFlowUnit := make(map[int]map[string]*unitGroup)
	unitTotals := make(map[string]int)
	unitNames := make([]string, 0)
	seenUnits := make(map[string]struct{})

	for i := range complete {
		seq := &complete[i]
		idx, ok := flowIndex[seq.SequenceKey()]
		if !ok {
			continue
		}
		if _, ok := seenUnits[seq.Unit]; !ok {
			seenUnits[seq.Unit] = struct{}{}
			unitNames = append(unitNames, seq.Unit)
		}
		unitTotals[seq.Unit]++

		units := byFlowUnit[idx]
		if units == nil {
			units = make(map[string]*unitGroup)
			byFlowUnit[idx] = units
		}
		g := units[seq.Unit]
		if g == nil {
			g = &unitGroup{}
			units[seq.Unit] = g
		}
		g.members = append(g.members, seq)
	}

	// Unit codes are assigned over the sorted unit names so they stay
	// stable across flows.
	sort.Strings(unitNames)
	unitCodes := make(map[string]string, len(unitNames))
	for i, name := range unitNames {
		unitCodes[name] = fmt.Sprintf("U%d", i+1)
	}

	rows := make([]models.UnitFlowRow, 0)
	for i, f := range flows {
		units := byFlowUnit[i]
		for _, name := range unitNames {
			g, ok := units[name]
			if !ok {
				continue
			}
			avg := positionalMeans(g.members, len(f.Sequence)-1)
			total := 0.0
			for _, d := range avg {
				total += d
			}
			rows = append(rows, models.UnitFlowRow{
				FlowCode:      flowCode(i),
				Unit:          name,
				UnitCode:      unitCodes[name],
				Count:         len(g.members),
				Share:         round1(float64(len(g.members)) / float64(unitTotals[name]) * 100),
				TotalDuration: total,
				AvgDurations:  avg,
			})
		}
	}
	return rows
}

func (e *flowExtractor) DiagramEdges(flows []models.FlowRecord, catalog models.StateCatalog) []models.DiagramEdge {
	type edgeAcc struct {
		count       int
		sumWeighted float64
	}
	acc := make(map[models.Transition]*edgeAcc)
	order := make([]models.Transition, 0)

	for _, f := range flows {
		for pos := 0; pos+1 < len(f.Sequence); pos++ {
			key := models.Transition{Src: f.Sequence[pos], Tgt: f.Sequence[pos+1]}
			a, ok := acc[key]
			if !ok {
				a = &edgeAcc{}
				acc[key] = a
				order = append(order, key)
			}
			a.count += f.Count
			if pos < len(f.AvgDurations) {
				a.sumWeighted += f.AvgDurations[pos] * float64(f.Count)
			}
		}
	}

	edges := make([]models.DiagramEdge, 0, len(order))
	for _, key := range order {
		a := acc[key]
		mean := 0.0
		if a.count > 0 {
			mean = a.sumWeighted / float64(a.count)
		}
		edges = append(edges, models.DiagramEdge{
			Src:          key.Src,
			Tgt:          key.Tgt,
			SrcLabel:     catalog.Name(key.Src),
			TgtLabel:     catalog.Name(key.Tgt),
			Count:        a.count,
			MeanDuration: mean,
		})
	}
	return edges
}

// positionalMeans averages member durations position by position. A
// member missing a position is skipped there rather than poisoning the
// whole column; a position with no values at all averages to zero.
func positionalMeans(members []*models.CaseSequence, positions int) []float64 {
	if positions <= 0 {
		return []float64{}
	}
	sums := make([]float64, positions)
	counts := make([]int, positions)
	for _, m := range members {
		for i := 0; i < positions && i < len(m.Durations); i++ {
			d := m.Durations[i]
			if math.IsNaN(d) {
				continue
			}
			sums[i] += d
			counts[i]++
		}
	}
	means := make([]float64, positions)
	for i := range sums {
		if counts[i] > 0 {
			means[i] = sums[i] / float64(counts[i])
		}
	}
	return means
}

func flowCode(index int) string {
	return fmt.Sprintf("F%02d", index+1)
}

func sequenceLabel(states []int, catalog models.StateCatalog) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = catalog.Name(s)
	}
	return strings.Join(parts, " -> ")
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
