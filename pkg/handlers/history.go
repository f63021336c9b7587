package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datapilot-labs/datapilot-engine/pkg/apperrors"
	"github.com/datapilot-labs/datapilot-engine/pkg/dataset"
	"github.com/datapilot-labs/datapilot-engine/pkg/models"
	"github.com/datapilot-labs/datapilot-engine/pkg/repositories"
	"github.com/datapilot-labs/datapilot-engine/pkg/services"
)

// RegisterDatasetRequest is the request body for recording dataset usage.
type RegisterDatasetRequest struct {
	Filename string         `json:"filename"`
	Dataset  DatasetPayload `json:"dataset"`
}

// QueryDetailResponse is a query log entry with its recorded artifacts.
type QueryDetailResponse struct {
	Query   *models.QueryLog         `json:"query"`
	Results []*models.AnalysisResult `json:"results"`
}

// HistoryHandler exposes the query log and dataset history over HTTP.
type HistoryHandler struct {
	datasets services.DatasetService
	queries  repositories.QueryRepository
	results  repositories.AnalysisResultRepository
	logger   *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(
	datasets services.DatasetService,
	queries repositories.QueryRepository,
	results repositories.AnalysisResultRepository,
	logger *zap.Logger,
) *HistoryHandler {
	return &HistoryHandler{
		datasets: datasets,
		queries:  queries,
		results:  results,
		logger:   logger,
	}
}

// RegisterRoutes registers the history routes on the given mux.
func (h *HistoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/datasets", h.RegisterDataset)
	mux.HandleFunc("GET /api/history/queries", h.ListQueries)
	mux.HandleFunc("GET /api/history/queries/{id}", h.GetQuery)
	mux.HandleFunc("GET /api/history/datasets", h.ListDatasets)
	mux.HandleFunc("GET /api/history/favorites", h.ListFavorites)
	mux.HandleFunc("POST /api/history/datasets/{id}/favorite", h.ToggleFavorite)
	mux.HandleFunc("DELETE /api/history/datasets/{id}", h.DeleteDataset)
	mux.HandleFunc("POST /api/history/cleanup", h.Cleanup)
	mux.HandleFunc("GET /api/statistics", h.Statistics)
}

// RegisterDataset handles POST /api/datasets. Loading a known filename
// again refreshes its entry instead of creating a duplicate.
func (h *HistoryHandler) RegisterDataset(w http.ResponseWriter, r *http.Request) {
	var req RegisterDatasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	ds, err := dataset.New(req.Dataset.Name, req.Dataset.Columns, req.Dataset.Rows)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_dataset", err.Error())
		return
	}

	entry, err := h.datasets.RecordUsage(r.Context(), ds, req.Filename)
	if err != nil {
		h.logger.Error("Failed to record dataset usage", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to record dataset")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, entry); err != nil {
		h.logger.Error("Failed to encode dataset response", zap.Error(err))
	}
}

// ListQueries handles GET /api/history/queries.
func (h *HistoryHandler) ListQueries(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 20)

	entries, err := h.queries.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list query history", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to list queries")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"queries": entries}); err != nil {
		h.logger.Error("Failed to encode query list", zap.Error(err))
	}
}

// GetQuery handles GET /api/history/queries/{id}.
func (h *HistoryHandler) GetQuery(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	entry, err := h.queries.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = ErrorResponse(w, http.StatusNotFound, "not_found", "query not found")
			return
		}
		h.logger.Error("Failed to get query", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to get query")
		return
	}

	artifacts, err := h.results.ListByQuery(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to list query results", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to get query results")
		return
	}

	response := QueryDetailResponse{Query: entry, Results: artifacts}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode query detail", zap.Error(err))
	}
}

// ListDatasets handles GET /api/history/datasets.
func (h *HistoryHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 20)

	entries, err := h.datasets.History(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list dataset history", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to list datasets")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"datasets": entries}); err != nil {
		h.logger.Error("Failed to encode dataset list", zap.Error(err))
	}
}

// ListFavorites handles GET /api/history/favorites.
func (h *HistoryHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	entries, err := h.datasets.Favorites(r.Context())
	if err != nil {
		h.logger.Error("Failed to list favorites", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to list favorites")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"datasets": entries}); err != nil {
		h.logger.Error("Failed to encode favorites list", zap.Error(err))
	}
}

// ToggleFavorite handles POST /api/history/datasets/{id}/favorite.
func (h *HistoryHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	isFavorite, err := h.datasets.ToggleFavorite(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = ErrorResponse(w, http.StatusNotFound, "not_found", "dataset not found")
			return
		}
		h.logger.Error("Failed to toggle favorite", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to toggle favorite")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]bool{"is_favorite": isFavorite}); err != nil {
		h.logger.Error("Failed to encode favorite response", zap.Error(err))
	}
}

// DeleteDataset handles DELETE /api/history/datasets/{id}. Deleting an
// entry that is already gone succeeds.
func (h *HistoryHandler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.datasets.Delete(r.Context(), id); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		h.logger.Error("Failed to delete dataset", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to delete dataset")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CleanupRequest optionally overrides the configured retention window.
type CleanupRequest struct {
	OlderThanDays int `json:"older_than_days"`
}

// Cleanup handles POST /api/history/cleanup. The body is optional.
func (h *HistoryHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req CleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	purged, err := h.datasets.Cleanup(r.Context(), req.OlderThanDays)
	if err != nil {
		h.logger.Error("Failed to clean up dataset history", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "cleanup failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]int64{"purged": purged}); err != nil {
		h.logger.Error("Failed to encode cleanup response", zap.Error(err))
	}
}

// StatisticsResponse combines the query log summary with the dataset count.
type StatisticsResponse struct {
	models.QueryStatistics
	DatasetCount int `json:"dataset_count"`
}

// Statistics handles GET /api/statistics.
func (h *HistoryHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queries.Statistics(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute statistics", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to compute statistics")
		return
	}

	datasetCount, err := h.datasets.Count(r.Context())
	if err != nil {
		h.logger.Error("Failed to count datasets", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to compute statistics")
		return
	}

	response := StatisticsResponse{QueryStatistics: *stats, DatasetCount: datasetCount}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode statistics", zap.Error(err))
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
