package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/tramita-labs/expediente-engine/pkg/apperrors"
	"github.com/tramita-labs/expediente-engine/pkg/models"
	"github.com/tramita-labs/expediente-engine/pkg/services"
)

// AnalyticsHandler serves the analytics endpoints. Every endpoint takes
// the same filter query parameters and returns one slice of the computed
// result set; repeated calls with the same filter hit the result cache.
type AnalyticsHandler struct {
	service services.AnalyticsService
	flows   services.FlowExtractor
	logger  *zap.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(service services.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, flows: services.NewFlowExtractor(), logger: logger}
}

// RegisterRoutes registers the analytics handler's routes on the given mux.
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/analytics/summary", h.Summary)
	mux.HandleFunc("GET /api/analytics/transitions", h.Transitions)
	mux.HandleFunc("GET /api/analytics/flows", h.Flows)
	mux.HandleFunc("GET /api/analytics/flows/units", h.UnitFlows)
	mux.HandleFunc("GET /api/analytics/flows/diagram", h.FlowDiagram)
	mux.HandleFunc("GET /api/analytics/backlog", h.Backlog)
	mux.HandleFunc("GET /api/analytics/states", h.States)
	mux.HandleFunc("GET /api/analytics/demand", h.Demand)
	mux.HandleFunc("GET /api/analytics/geography", h.Geography)
}

// Summary handles GET /api/analytics/summary.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(result *models.AnalyticsResult) interface{} {
		return map[string]interface{}{
			"fingerprint":     result.Fingerprint,
			"summary":         result.Summary,
			"unit_comparison": result.UnitComparison,
		}
	})
}

// Transitions handles GET /api/analytics/transitions.
func (h *AnalyticsHandler) Transitions(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(result *models.AnalyticsResult) interface{} {
		return map[string]interface{}{
			"fingerprint":      result.Fingerprint,
			"transitions":      result.Transitions,
			"unit_transitions": result.UnitTransitions,
		}
	})
}

// Flows handles GET /api/analytics/flows.
func (h *AnalyticsHandler) Flows(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(result *models.AnalyticsResult) interface{} {
		return map[string]interface{}{
			"fingerprint":      result.Fingerprint,
			"flows":            result.Flows,
			"flow_transitions": result.FlowTransitions,
		}
	})
}

// UnitFlows handles GET /api/analytics/flows/units.
func (h *AnalyticsHandler) UnitFlows(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(result *models.AnalyticsResult) interface{} {
		return map[string]interface{}{
			"fingerprint": result.Fingerprint,
			"unit_flows":  result.UnitFlows,
		}
	})
}

// FlowDiagram handles GET /api/analytics/flows/diagram. An optional
// flows=F01,F03 parameter restricts the diagram to the named major
// flows; without it every major flow contributes.
func (h *AnalyticsHandler) FlowDiagram(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilterContext(r)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	result, err := h.service.Compute(r.Context(), filter)
	if err != nil {
		h.writeComputeError(w, filter, err)
		return
	}

	edges := result.DiagramEdges
	if raw := strings.TrimSpace(r.URL.Query().Get("flows")); raw != "" {
		selected, err := selectFlows(result.Flows, raw)
		if err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_filter", err.Error())
			return
		}
		edges = h.flows.DiagramEdges(selected, result.Catalog)
	}

	_ = WriteJSON(w, http.StatusOK, map[string]interface{}{
		"fingerprint": result.Fingerprint,
		"edges":       edges,
	})
}

// selectFlows resolves flow codes against the legend and returns the
// matching flow records in legend order.
func selectFlows(legend []models.FlowLegendRow, raw string) ([]models.FlowRecord, error) {
	wanted := make(map[string]struct{})
	for _, code := range strings.Split(raw, ",") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		wanted[code] = struct{}{}
	}

	selected := make([]models.FlowRecord, 0, len(wanted))
	for _, row := range legend {
		if _, ok := wanted[row.Code]; !ok {
			continue
		}
		delete(wanted, row.Code)
		selected = append(selected, models.FlowRecord{
			Sequence:     row.Sequence,
			Count:        row.Count,
			Share:        row.Share,
			AvgDurations: row.AvgDurations,
		})
	}

	for code := range wanted {
		return nil, fmt.Errorf("unknown flow code %q", code)
	}
	return selected, nil
}

// Backlog handles GET /api/analytics/backlog.
func (h *AnalyticsHandler) Backlog(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(result *models.AnalyticsResult) interface{} {
		return map[string]interface{}{
			"fingerprint": result.Fingerprint,
			"backlog":     result.Backlog,
		}
	})
}

// States handles GET /api/analytics/states.
func (h *AnalyticsHandler) States(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(result *models.AnalyticsResult) interface{} {
		return map[string]interface{}{
			"fingerprint": result.Fingerprint,
			"state_reach": result.StateReach,
		}
	})
}

// Demand handles GET /api/analytics/demand.
func (h *AnalyticsHandler) Demand(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(result *models.AnalyticsResult) interface{} {
		return map[string]interface{}{
			"fingerprint":     result.Fingerprint,
			"demand":          result.Demand,
			"province_demand": result.ProvinceDemand,
			"weekly_pattern":  result.WeeklyPattern,
		}
	})
}

// Geography handles GET /api/analytics/geography.
func (h *AnalyticsHandler) Geography(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(result *models.AnalyticsResult) interface{} {
		return map[string]interface{}{
			"fingerprint":    result.Fingerprint,
			"provinces":      result.Provinces,
			"municipalities": result.Municipalities,
		}
	})
}

// respond parses the filter, computes (or fetches) the result set and
// writes the endpoint's view of it.
func (h *AnalyticsHandler) respond(w http.ResponseWriter, r *http.Request, view func(*models.AnalyticsResult) interface{}) {
	filter, err := parseFilterContext(r)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	result, err := h.service.Compute(r.Context(), filter)
	if err != nil {
		h.writeComputeError(w, filter, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, view(result))
}

func (h *AnalyticsHandler) writeComputeError(w http.ResponseWriter, filter models.FilterContext, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidFilter):
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_filter", err.Error())
	case errors.Is(err, apperrors.ErrUnknownProcedure):
		_ = ErrorResponse(w, http.StatusNotFound, "unknown_procedure", "procedure not found: "+filter.ProcedureCode)
	default:
		h.logger.Error("Failed to compute analytics",
			zap.String("procedure", filter.ProcedureCode),
			zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to compute analytics")
	}
}
