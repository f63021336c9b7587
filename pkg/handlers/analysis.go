package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/datapilot-labs/datapilot-engine/pkg/apperrors"
	"github.com/datapilot-labs/datapilot-engine/pkg/dataset"
	"github.com/datapilot-labs/datapilot-engine/pkg/llm"
	"github.com/datapilot-labs/datapilot-engine/pkg/services"
)

// DatasetPayload is the inline dataset representation accepted by the
// analysis endpoints.
type DatasetPayload struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// AnalysisRequest is the request body for code generation and analysis.
type AnalysisRequest struct {
	Question string         `json:"question"`
	Dataset  DatasetPayload `json:"dataset"`
}

// AnalysisHandler exposes code generation and execution over HTTP.
type AnalysisHandler struct {
	analysis services.AnalysisService
	logger   *zap.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysis services.AnalysisService, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis, logger: logger}
}

// RegisterRoutes registers the analysis routes on the given mux.
func (h *AnalysisHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/generate", h.Generate)
	mux.HandleFunc("POST /api/analyze", h.Analyze)
}

// Generate handles POST /api/generate. It returns sanitized analysis
// code without executing it.
func (h *AnalysisHandler) Generate(w http.ResponseWriter, r *http.Request) {
	req, ds, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	generated, err := h.analysis.GenerateCode(r.Context(), ds, req.Question)
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, generated); err != nil {
		h.logger.Error("Failed to encode generate response", zap.Error(err))
	}
}

// Analyze handles POST /api/analyze. It generates code, executes it
// against the dataset, and returns the full outcome.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	req, ds, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	outcome, err := h.analysis.Analyze(r.Context(), ds, req.Question)
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, outcome); err != nil {
		h.logger.Error("Failed to encode analyze response", zap.Error(err))
	}
}

func (h *AnalysisHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*AnalysisRequest, *dataset.Dataset, bool) {
	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return nil, nil, false
	}

	if req.Question == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "question is required")
		return nil, nil, false
	}

	ds, err := dataset.New(req.Dataset.Name, req.Dataset.Columns, req.Dataset.Rows)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_dataset", err.Error())
		return nil, nil, false
	}

	return &req, ds, true
}

func (h *AnalysisHandler) writeAnalysisError(w http.ResponseWriter, err error) {
	var llmErr *llm.Error
	switch {
	case errors.Is(err, apperrors.ErrEmptyCompletion):
		h.logger.Warn("Model returned empty completion", zap.Error(err))
		_ = ErrorResponse(w, http.StatusBadGateway, "empty_completion", "the model returned no code")
	case errors.Is(err, apperrors.ErrNoDataset):
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_dataset", "a dataset is required")
	case errors.As(err, &llmErr):
		h.logger.Error("Code generation failed",
			zap.String("error_type", string(llmErr.Type)),
			zap.Error(err))
		_ = ErrorResponse(w, http.StatusBadGateway, string(llmErr.Type), "code generation failed")
	default:
		h.logger.Error("Analysis failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "analysis failed")
	}
}
