package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/tramita-labs/expediente-engine/pkg/apperrors"
	"github.com/tramita-labs/expediente-engine/pkg/services"
)

// ProcedureHandler serves the procedure catalog endpoints.
type ProcedureHandler struct {
	service services.AnalyticsService
	logger  *zap.Logger
}

// NewProcedureHandler creates a new ProcedureHandler.
func NewProcedureHandler(service services.AnalyticsService, logger *zap.Logger) *ProcedureHandler {
	return &ProcedureHandler{service: service, logger: logger}
}

// RegisterRoutes registers the procedure handler's routes on the given mux.
func (h *ProcedureHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/procedures", h.List)
	mux.HandleFunc("GET /api/procedures/{code}/states", h.States)
}

// List handles GET /api/procedures.
func (h *ProcedureHandler) List(w http.ResponseWriter, r *http.Request) {
	procedures, err := h.service.ListProcedures(r.Context())
	if err != nil {
		h.logger.Error("Failed to list procedures", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to list procedures")
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]interface{}{"procedures": procedures})
}

// States handles GET /api/procedures/{code}/states.
func (h *ProcedureHandler) States(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	states, err := h.service.GetStateCatalog(r.Context(), code)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnknownProcedure) {
			_ = ErrorResponse(w, http.StatusNotFound, "unknown_procedure", "procedure not found: "+code)
			return
		}
		h.logger.Error("Failed to load state catalog", zap.String("procedure", code), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to load state catalog")
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]interface{}{"states": states})
}
