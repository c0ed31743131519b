package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	service "github.com/harvestlane/agri-export-compliance-backend/internal/service/compliance"
)

// Handler exposes the compliance engine over JSON HTTP.
type Handler struct {
	logger   *zap.Logger
	engine   *service.Engine
	validate *validator.Validate
}

func NewHandler(logger *zap.Logger, engine *service.Engine) *Handler {
	return &Handler{
		logger:   logger.Named("rest"),
		engine:   engine,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts all endpoints on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.HandleFunc("POST /api/v1/compliance/records", h.handleCreateRecord)
	mux.HandleFunc("GET /api/v1/compliance/records/{id}", h.handleGetRecord)
	mux.HandleFunc("POST /api/v1/compliance/records/{id}/updates", h.handleApplyUpdate)
	mux.HandleFunc("GET /api/v1/compliance/records/{id}/report", h.handleReport)
	mux.HandleFunc("GET /api/v1/compliance/records/{id}/readiness", h.handleReadiness)
	mux.HandleFunc("POST /api/v1/compliance/records/{id}/risk/recompute", h.handleRecomputeRisk)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	if registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
}

func (h *Handler) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, err)
		return
	}

	record, err := h.engine.Initialize(r.Context(), req.toService())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("record initialized",
		zap.String("record_id", record.ID.String()),
		zap.String("batch_id", record.Batch.ID),
		zap.String("market", record.Market))
	h.writeJSON(w, http.StatusCreated, newRecordResponse(record))
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	record, err := h.engine.GetRecord(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newRecordResponse(record))
}

func (h *Handler) handleApplyUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	var req updateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, err)
		return
	}

	record, err := h.engine.ApplyUpdate(r.Context(), id, req.toService())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("record updated",
		zap.String("record_id", record.ID.String()),
		zap.Int("score", record.Score),
		zap.String("status", record.Status.String()))
	h.writeJSON(w, http.StatusOK, newRecordResponse(record))
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	report, err := h.engine.GenerateComplianceReport(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleReadiness(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	result, err := h.engine.ValidateExportReadiness(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRecomputeRisk(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	record, err := h.engine.RecomputeRisk(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newRecordResponse(record))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) recordID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeBadRequest(w, "invalid record id")
		return uuid.Nil, false
	}
	return id, true
}
