package models

import "time"

// The types below are the aggregate tables the engine hands to the
// presentation layer. They are plain rows; all formatting (units,
// colors, chart shapes) belongs to the frontend.

// TransitionRow is one (source,target) pair with its global statistics.
// MeanDuration is nil when the pair was never observed.
type TransitionRow struct {
	Src          int      `json:"src"`
	Tgt          int      `json:"tgt"`
	Label        string   `json:"transition_label"`
	MeanDuration *float64 `json:"mean_duration_days"`
	TotalDays    float64  `json:"total_days"`
	Count        int      `json:"count"`
}

// UnitTransitionRow is a TransitionRow grouped by organizational unit.
type UnitTransitionRow struct {
	TransitionRow
	Unit string `json:"unit"`
}

// FlowLegendRow describes one major flow for the flow legend table.
type FlowLegendRow struct {
	Code          string    `json:"flow_code"`
	Sequence      []int     `json:"sequence"`
	SequenceLabel string    `json:"full_sequence_label"`
	Share         float64   `json:"population_share"`
	Count         int       `json:"count"`
	TotalDuration float64   `json:"total_duration"`
	AvgDurations  []float64 `json:"avg_duration_per_transition"`
}

// FlowTransitionRow is one transition position inside a major flow,
// used for stacked duration charts.
type FlowTransitionRow struct {
	FlowCode string  `json:"flow_code"`
	Position int     `json:"position"`
	Label    string  `json:"transition_label"`
	Duration float64 `json:"duration_days"`
}

// UnitFlowRow is a major flow's footprint inside one organizational
// unit: how many of the unit's major-flow cases follow it and how long
// each transition takes there.
type UnitFlowRow struct {
	FlowCode      string    `json:"flow_code"`
	Unit          string    `json:"unit"`
	UnitCode      string    `json:"unit_code"`
	Count         int       `json:"count"`
	Share         float64   `json:"share_of_unit"`
	TotalDuration float64   `json:"total_duration"`
	AvgDurations  []float64 `json:"avg_duration_per_transition"`
}

// DiagramEdge is one aggregated edge of the process-flow diagram built
// from a set of selected flows.
type DiagramEdge struct {
	Src          int     `json:"src"`
	Tgt          int     `json:"tgt"`
	SrcLabel     string  `json:"src_label"`
	TgtLabel     string  `json:"tgt_label"`
	Count        int     `json:"count"`
	MeanDuration float64 `json:"mean_duration_days"`
}

// BacklogRow reports started vs completed cases for one time bucket.
// NotCompleted is always Started-Completed, never computed separately.
type BacklogRow struct {
	Bucket       time.Time `json:"time_bucket"`
	Started      int       `json:"started"`
	Completed    int       `json:"completed"`
	NotCompleted int       `json:"not_completed"`
}

// StateReachRow reports, for one terminal state, how many cases visit it
// and the mean total duration of the complete cases that do. The mean is
// of full first-to-last elapsed time even when the state is not the last
// one visited; nil when no complete case reaches the state.
type StateReachRow struct {
	State        int      `json:"state"`
	Label        string   `json:"state_label"`
	ReachCount   int      `json:"reach_count"`
	ReachPercent float64  `json:"reach_percent"`
	MeanDuration *float64 `json:"mean_duration_to_completion"`
}

// UnitComparisonRow compares one unit's volume, completion rate and mean
// duration against the global figures.
type UnitComparisonRow struct {
	Unit             string   `json:"unit"`
	Total            int      `json:"total"`
	Completed        int      `json:"completed"`
	CompletedPercent float64  `json:"completed_percent"`
	MeanDuration     *float64 `json:"mean_duration_days"`
	DeltaPercent     float64  `json:"delta_percent"`
	DeltaDuration    *float64 `json:"delta_duration_days"`
}

// Summary holds the headline metrics of one filtered case population.
type Summary struct {
	TotalCases       int      `json:"total_cases"`
	Completed        int      `json:"completed"`
	CompletedPercent float64  `json:"completed_percent"`
	MeanDuration     *float64 `json:"mean_duration_days"`
}

// DemandRow counts case registrations in one time bucket.
type DemandRow struct {
	Bucket time.Time `json:"time_bucket"`
	Total  int       `json:"total"`
}

// ProvinceDemandRow counts case registrations per bucket and province.
type ProvinceDemandRow struct {
	Bucket   time.Time `json:"time_bucket"`
	Province string    `json:"province"`
	Total    int       `json:"total"`
}

// WeeklyPatternRow is one cell of the year x ISO-week seasonal matrix.
type WeeklyPatternRow struct {
	Year  int `json:"year"`
	Week  int `json:"week"`
	Total int `json:"total"`
}

// RegionRow aggregates cases for one province or municipality.
type RegionRow struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	Province       string  `json:"province"`
	Total          int     `json:"total"`
	Online         int     `json:"online"`
	Companies      int     `json:"companies"`
	PercentOfTotal float64 `json:"percent_of_total"`
	PercentOnline  float64 `json:"percent_online"`
	PercentCompany float64 `json:"percent_companies"`
}

// StateActivityRow counts complete-case events per bucket, state and unit.
type StateActivityRow struct {
	Bucket time.Time `json:"time_bucket"`
	State  int       `json:"state"`
	Label  string    `json:"state_label"`
	Unit   string    `json:"unit"`
	Count  int       `json:"count"`
}

// AnalyticsResult is the full immutable result set of one pipeline run.
// It is recomputed from scratch whenever the FilterContext changes and
// cached under the context's fingerprint.
type AnalyticsResult struct {
	Fingerprint     string              `json:"fingerprint"`
	TotalCases      int                 `json:"total_cases"`
	Catalog         StateCatalog        `json:"state_catalog"`
	Summary         Summary             `json:"summary"`
	UnitComparison  []UnitComparisonRow `json:"unit_comparison"`
	Transitions     []TransitionRow     `json:"transitions"`
	UnitTransitions []UnitTransitionRow `json:"unit_transitions"`
	Flows           []FlowLegendRow     `json:"flows"`
	FlowTransitions []FlowTransitionRow `json:"flow_transitions"`
	UnitFlows       []UnitFlowRow       `json:"unit_flows"`
	DiagramEdges    []DiagramEdge       `json:"diagram_edges"`
	Backlog         []BacklogRow        `json:"backlog"`
	StateReach      []StateReachRow     `json:"state_reach"`
	Demand          []DemandRow         `json:"demand"`
	ProvinceDemand  []ProvinceDemandRow `json:"province_demand"`
	WeeklyPattern   []WeeklyPatternRow  `json:"weekly_pattern"`
	Provinces       []RegionRow         `json:"provinces"`
	Municipalities  []RegionRow         `json:"municipalities"`
	StateActivity   []StateActivityRow  `json:"state_activity"`
}
