package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tramita-labs/expediente-engine/pkg/apperrors"
	"github.com/tramita-labs/expediente-engine/pkg/cache"
	"github.com/tramita-labs/expediente-engine/pkg/models"
	"github.com/tramita-labs/expediente-engine/pkg/repositories"
)

// AnalyticsService is the engine facade: it loads one procedure's case
// log, runs the full pipeline for a FilterContext and caches the result
// under the context's fingerprint. Computation is a pure function of
// (FilterContext, case log), so a cache hit is indistinguishable from a
// recomputation.
type AnalyticsService interface {
	// ListProcedures returns the procedures available for analysis.
	ListProcedures(ctx context.Context) ([]models.Procedure, error)

	// GetStateCatalog returns one procedure's state catalog.
	GetStateCatalog(ctx context.Context, procedureCode string) ([]models.StateInfo, error)

	// Compute runs the pipeline for the given filter, serving from
	// cache when the same filter was computed recently.
	Compute(ctx context.Context, filter models.FilterContext) (*models.AnalyticsResult, error)
}

type analyticsService struct {
	repo            repositories.CaseLogRepository
	cache           cache.ResultCache
	builder         SequenceBuilder
	transitions     TransitionAggregator
	flows           FlowExtractor
	classifier      CompletionClassifier
	states          StateMetrics
	demand          DemandAggregator
	geography       GeographyAggregator
	defaultMinShare float64
	logger          *zap.Logger
}

// NewAnalyticsService creates a new AnalyticsService. defaultMinShare is
// the population-share threshold applied when a filter does not set one.
func NewAnalyticsService(
	repo repositories.CaseLogRepository,
	resultCache cache.ResultCache,
	defaultMinShare float64,
	logger *zap.Logger,
) AnalyticsService {
	return &analyticsService{
		repo:            repo,
		cache:           resultCache,
		builder:         NewSequenceBuilder(logger),
		transitions:     NewTransitionAggregator(),
		flows:           NewFlowExtractor(),
		classifier:      NewCompletionClassifier(),
		states:          NewStateMetrics(),
		demand:          NewDemandAggregator(),
		geography:       NewGeographyAggregator(),
		defaultMinShare: defaultMinShare,
		logger:          logger.Named("analytics-service"),
	}
}

var _ AnalyticsService = (*analyticsService)(nil)

func (s *analyticsService) ListProcedures(ctx context.Context) ([]models.Procedure, error) {
	return s.repo.ListProcedures(ctx)
}

func (s *analyticsService) GetStateCatalog(ctx context.Context, procedureCode string) ([]models.StateInfo, error) {
	return s.repo.GetStateCatalog(ctx, procedureCode)
}

func (s *analyticsService) Compute(ctx context.Context, filter models.FilterContext) (*models.AnalyticsResult, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if filter.MinSharePercent <= 0 {
		filter.MinSharePercent = s.defaultMinShare
	}

	fingerprint := filter.Fingerprint()
	if result, ok := s.cache.Get(ctx, fingerprint); ok {
		s.logger.Debug("Serving cached result",
			zap.String("procedure", filter.ProcedureCode),
			zap.String("fingerprint", fingerprint))
		return result, nil
	}

	start := time.Now()
	result, err := s.compute(ctx, filter, fingerprint)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, fingerprint, result)
	s.logger.Info("Computed analytics result",
		zap.String("procedure", filter.ProcedureCode),
		zap.String("fingerprint", fingerprint),
		zap.Int("total_cases", result.TotalCases),
		zap.Int("flows", len(result.Flows)),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

func (s *analyticsService) compute(ctx context.Context, filter models.FilterContext, fingerprint string) (*models.AnalyticsResult, error) {
	stateInfos, err := s.repo.GetStateCatalog(ctx, filter.ProcedureCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load state catalog: %w", err)
	}
	catalog := make(models.StateCatalog, len(stateInfos))
	for _, info := range stateInfos {
		catalog[info.Code] = info.Name
	}

	cases, err := s.repo.ListCases(ctx, filter.ProcedureCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load cases: %w", err)
	}
	events, err := s.repo.ListEvents(ctx, filter.ProcedureCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	snapshot := FilterSnapshot(cases, events, filter.From, filter.To)
	sequences := s.builder.Build(snapshot.Events)
	terminal := filter.TerminalSet()
	freq := filter.ResolveFreq()

	complete, _ := s.classifier.Split(sequences, terminal)
	stats := s.transitions.Aggregate(sequences)
	flows := s.flows.Extract(complete, filter.MinSharePercent)
	summary := s.states.Summarize(sequences, complete)

	completeIDs := make(map[string]struct{}, len(complete))
	for _, seq := range complete {
		completeIDs[seq.CaseID] = struct{}{}
	}

	return &models.AnalyticsResult{
		Fingerprint:     fingerprint,
		TotalCases:      len(snapshot.Cases),
		Catalog:         catalog,
		Summary:         summary,
		UnitComparison:  s.states.UnitRows(sequences, terminal, summary),
		Transitions:     s.transitions.GlobalRows(stats, catalog),
		UnitTransitions: s.transitions.UnitRows(stats, catalog),
		Flows:           s.flows.LegendRows(flows, catalog),
		FlowTransitions: s.flows.TransitionRows(flows, catalog),
		UnitFlows:       s.flows.UnitRows(flows, complete),
		DiagramEdges:    s.flows.DiagramEdges(flows, catalog),
		Backlog:         s.classifier.BacklogRows(sequences, terminal, freq),
		StateReach:      s.states.ReachRows(sequences, complete, filter.TerminalStates, catalog),
		Demand:          s.demand.Rows(snapshot.Cases, freq),
		ProvinceDemand:  s.demand.ProvinceRows(snapshot.Cases, freq),
		WeeklyPattern:   s.demand.WeeklyPattern(snapshot.Cases),
		Provinces:       s.geography.ProvinceRows(snapshot.Cases),
		Municipalities:  s.geography.MunicipalityRows(snapshot.Cases),
		StateActivity:   s.demand.ActivityRows(snapshot.Events, completeIDs, catalog, freq),
	}, nil
}

func validateFilter(filter models.FilterContext) error {
	if filter.ProcedureCode == "" {
		return fmt.Errorf("%w: procedure code is required", apperrors.ErrInvalidFilter)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return fmt.Errorf("%w: date range end precedes start", apperrors.ErrInvalidFilter)
	}
	if filter.MinSharePercent < 0 || filter.MinSharePercent > 100 {
		return fmt.Errorf("%w: minimum share must be within [0, 100]", apperrors.ErrInvalidFilter)
	}
	switch filter.Freq {
	case "", models.BucketDay, models.BucketWeek, models.BucketMonth:
	default:
		return fmt.Errorf("%w: unknown bucket frequency %q", apperrors.ErrInvalidFilter, filter.Freq)
	}
	return nil
}
