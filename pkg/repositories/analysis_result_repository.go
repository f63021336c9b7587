package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/datapilot-labs/datapilot-engine/pkg/database"
	"github.com/datapilot-labs/datapilot-engine/pkg/models"
)

// AnalysisResultRepository provides data access for execution artifacts.
type AnalysisResultRepository interface {
	Create(ctx context.Context, result *models.AnalysisResult) error
	ListByQuery(ctx context.Context, queryLogID uuid.UUID) ([]*models.AnalysisResult, error)
}

type analysisResultRepository struct {
	db *database.DB
}

func NewAnalysisResultRepository(db *database.DB) AnalysisResultRepository {
	return &analysisResultRepository{db: db}
}

var _ AnalysisResultRepository = (*analysisResultRepository)(nil)

func (r *analysisResultRepository) Create(ctx context.Context, result *models.AnalysisResult) error {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO analysis_results (id, query_log_id, result_type, result_data, plot_filename, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		result.ID,
		result.QueryLogID,
		result.ResultType,
		result.ResultData,
		result.PlotFilename,
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis result: %w", err)
	}

	return nil
}

func (r *analysisResultRepository) ListByQuery(ctx context.Context, queryLogID uuid.UUID) ([]*models.AnalysisResult, error) {
	query := `
		SELECT id, query_log_id, result_type, result_data, plot_filename, created_at
		FROM analysis_results
		WHERE query_log_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, queryLogID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis results: %w", err)
	}
	defer rows.Close()

	var results []*models.AnalysisResult
	for rows.Next() {
		var result models.AnalysisResult
		var resultData, plotFilename *string

		err := rows.Scan(
			&result.ID,
			&result.QueryLogID,
			&result.ResultType,
			&resultData,
			&plotFilename,
			&result.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis result: %w", err)
		}

		if resultData != nil {
			result.ResultData = *resultData
		}
		if plotFilename != nil {
			result.PlotFilename = *plotFilename
		}

		results = append(results, &result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis results: %w", err)
	}

	return results, nil
}
