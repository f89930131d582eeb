package handler

import (
	"encoding/csv"
	"encoding/json"
	"net/http"

	"promo-engine/internal/model"
	"promo-engine/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PromotionHandler handles promotion-related HTTP requests.
type PromotionHandler struct {
	service service.PromotionService
	logger  zerolog.Logger
}

// NewPromotionHandler creates a new promotion handler.
func NewPromotionHandler(service service.PromotionService, logger zerolog.Logger) *PromotionHandler {
	return &PromotionHandler{
		service: service,
		logger:  logger.With().Str("handler", "promotion").Logger(),
	}
}

// Create handles POST /api/promotions requests.
func (h *PromotionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft model.PromotionDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeBadRequest(w, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	p, err := h.service.Create(r.Context(), &draft)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// BulkGenerate handles POST /api/promotions/bulk requests.
func (h *PromotionHandler) BulkGenerate(w http.ResponseWriter, r *http.Request) {
	var req model.BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	created, err := h.service.BulkGenerate(r.Context(), &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// List handles GET /api/promotions requests with optional status and type
// filters.
func (h *PromotionHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	promotions, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, promotions)
}

// Export handles GET /api/promotions/export requests, serialising the
// filtered promotion set as CSV.
func (h *PromotionHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	rows, err := h.service.Export(r.Context(), filter)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="promotions.csv"`)
	w.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		h.logger.Error().Err(err).Msg("failed to write csv export")
	}
}

// GetByID handles GET /api/promotions/{id} requests.
func (h *PromotionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, model.ErrCodeInvalidJSON, "invalid promotion ID format", h.logger)
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Update handles PATCH /api/promotions/{id} requests.
func (h *PromotionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, model.ErrCodeInvalidJSON, "invalid promotion ID format", h.logger)
		return
	}

	var patch model.PromotionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	p, err := h.service.Update(r.Context(), id, &patch)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/promotions/{id} requests.
func (h *PromotionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, model.ErrCodeInvalidJSON, "invalid promotion ID format", h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Evaluate handles POST /api/promotions/evaluate requests. Both eligible and
// ineligible outcomes are 200 responses; the caller branches on the body.
func (h *PromotionHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req model.EvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	result, err := h.service.Evaluate(r.Context(), &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type redemptionRequest struct {
	CustomerID string `json:"customerId"`
}

// ConfirmRedemption handles POST /api/redemptions/{code} requests.
func (h *PromotionHandler) ConfirmRedemption(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req redemptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.CustomerID == "" {
		writeBadRequest(w, model.ErrCodeMissingField, "customerId is required", h.logger)
		return
	}

	p, err := h.service.ConfirmRedemption(r.Context(), code, req.CustomerID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// parseFilter reads the optional status and type query parameters.
func (h *PromotionHandler) parseFilter(w http.ResponseWriter, r *http.Request) (model.ListFilter, bool) {
	var filter model.ListFilter

	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := model.PromotionStatus(statusStr)
		if !status.Valid() {
			writeBadRequest(w, model.ErrCodeInvalidJSON, "invalid status filter", h.logger)
			return filter, false
		}
		filter.Status = &status
	}

	if typeStr := r.URL.Query().Get("type"); typeStr != "" {
		promotionType := model.PromotionType(typeStr)
		if !promotionType.Valid() {
			writeBadRequest(w, model.ErrCodeInvalidJSON, "invalid type filter", h.logger)
			return filter, false
		}
		filter.Type = &promotionType
	}

	return filter, true
}
