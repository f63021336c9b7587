package models

import (
	"time"

	"github.com/google/uuid"
)

// QueryLog records one question asked against a dataset, the code the
// model produced for it, and how the execution went.
type QueryLog struct {
	ID       uuid.UUID `json:"id"`
	Question string    `json:"question"`

	// What the model produced
	GeneratedCode string `json:"generated_code"`
	Model         string `json:"model"`

	// Dataset context at the time of the question
	DatasetName    string   `json:"dataset_name,omitempty"`
	DatasetColumns []string `json:"dataset_columns,omitempty"`

	// Execution details; unset until the code has been run
	ExecutionOutput     *string    `json:"execution_output,omitempty"`
	ExecutionSuccess    *bool      `json:"execution_success,omitempty"`
	ExecutionDurationMs *int       `json:"execution_duration_ms,omitempty"`
	ExecutedAt          *time.Time `json:"executed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// QueryStatistics summarizes the query log.
type QueryStatistics struct {
	TotalQueries      int     `json:"total_queries"`
	SuccessfulQueries int     `json:"successful_queries"`
	FailedQueries     int     `json:"failed_queries"`
	SuccessRate       float64 `json:"success_rate"`
	AvgDurationMs     float64 `json:"avg_duration_ms"`
}
