package models

import (
	"time"

	"github.com/google/uuid"
)

// ResultType classifies what an analysis execution produced.
type ResultType string

const (
	ResultTypeText ResultType = "text"
	ResultTypePlot ResultType = "plot"
)

// AnalysisResult is one artifact produced by executing generated code,
// linked back to the query that produced it.
type AnalysisResult struct {
	ID         uuid.UUID  `json:"id"`
	QueryLogID uuid.UUID  `json:"query_log_id"`
	ResultType ResultType `json:"result_type"`

	// Text output for ResultTypeText; empty for plots
	ResultData string `json:"result_data,omitempty"`

	// Artifact filename for ResultTypePlot; empty for text
	PlotFilename string `json:"plot_filename,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
