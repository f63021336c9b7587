package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/datapilot-labs/datapilot-engine/pkg/apperrors"
	"github.com/datapilot-labs/datapilot-engine/pkg/database"
	"github.com/datapilot-labs/datapilot-engine/pkg/models"
)

// QueryRepository provides data access for the query log.
type QueryRepository interface {
	Create(ctx context.Context, entry *models.QueryLog) error
	UpdateExecution(ctx context.Context, id uuid.UUID, output string, success bool, duration time.Duration) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.QueryLog, error)
	ListRecent(ctx context.Context, limit int) ([]*models.QueryLog, error)
	Statistics(ctx context.Context) (*models.QueryStatistics, error)
}

type queryRepository struct {
	db *database.DB
}

func NewQueryRepository(db *database.DB) QueryRepository {
	return &queryRepository{db: db}
}

var _ QueryRepository = (*queryRepository)(nil)

func (r *queryRepository) Create(ctx context.Context, entry *models.QueryLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	columnsJSON, err := marshalColumns(entry.DatasetColumns)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset_columns: %w", err)
	}

	query := `
		INSERT INTO query_logs (
			id, question, generated_code, model,
			dataset_name, dataset_columns, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.Exec(ctx, query,
		entry.ID,
		entry.Question,
		entry.GeneratedCode,
		entry.Model,
		entry.DatasetName,
		columnsJSON,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create query log entry: %w", err)
	}

	return nil
}

func (r *queryRepository) UpdateExecution(ctx context.Context, id uuid.UUID, output string, success bool, duration time.Duration) error {
	query := `
		UPDATE query_logs
		SET execution_output = $1, execution_success = $2,
		    execution_duration_ms = $3, executed_at = $4
		WHERE id = $5`

	tag, err := r.db.Exec(ctx, query, output, success, int(duration.Milliseconds()), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update query execution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *queryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.QueryLog, error) {
	query := `
		SELECT id, question, generated_code, model,
		       dataset_name, dataset_columns,
		       execution_output, execution_success, execution_duration_ms, executed_at,
		       created_at
		FROM query_logs
		WHERE id = $1`

	entry, err := scanQueryLog(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get query log entry: %w", err)
	}

	return entry, nil
}

func (r *queryRepository) ListRecent(ctx context.Context, limit int) ([]*models.QueryLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, question, generated_code, model,
		       dataset_name, dataset_columns,
		       execution_output, execution_success, execution_duration_ms, executed_at,
		       created_at
		FROM query_logs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list query log entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.QueryLog
	for rows.Next() {
		entry, err := scanQueryLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan query log entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating query log entries: %w", err)
	}

	return entries, nil
}

func (r *queryRepository) Statistics(ctx context.Context) (*models.QueryStatistics, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE execution_success),
		       COUNT(*) FILTER (WHERE NOT execution_success),
		       COALESCE(AVG(execution_duration_ms), 0)::float8
		FROM query_logs`

	var stats models.QueryStatistics
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.TotalQueries,
		&stats.SuccessfulQueries,
		&stats.FailedQueries,
		&stats.AvgDurationMs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute query statistics: %w", err)
	}

	executed := stats.SuccessfulQueries + stats.FailedQueries
	if executed > 0 {
		stats.SuccessRate = float64(stats.SuccessfulQueries) / float64(executed)
	}

	return &stats, nil
}

func scanQueryLog(row pgx.Row) (*models.QueryLog, error) {
	var entry models.QueryLog
	var datasetName *string
	var columnsJSON []byte

	err := row.Scan(
		&entry.ID,
		&entry.Question,
		&entry.GeneratedCode,
		&entry.Model,
		&datasetName,
		&columnsJSON,
		&entry.ExecutionOutput,
		&entry.ExecutionSuccess,
		&entry.ExecutionDurationMs,
		&entry.ExecutedAt,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if datasetName != nil {
		entry.DatasetName = *datasetName
	}
	if cols, err := unmarshalColumns(columnsJSON); err == nil {
		entry.DatasetColumns = cols
	}

	return &entry, nil
}

// marshalColumns marshals a column list to JSON bytes, nil for an empty list.
func marshalColumns(columns []string) ([]byte, error) {
	if len(columns) == 0 {
		return nil, nil
	}
	return json.Marshal(columns)
}

func unmarshalColumns(data []byte) ([]string, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var columns []string
	if err := json.Unmarshal(data, &columns); err != nil {
		return nil, err
	}
	return columns, nil
}
