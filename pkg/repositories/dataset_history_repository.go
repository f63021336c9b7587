package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/datapilot-labs/datapilot-engine/pkg/apperrors"
	"github.com/datapilot-labs/datapilot-engine/pkg/database"
	"github.com/datapilot-labs/datapilot-engine/pkg/models"
)

// DatasetHistoryRepository provides data access for the dataset history.
type DatasetHistoryRepository interface {
	// Upsert records a dataset load. A filename seen before has its
	// usage_count incremented and last_used refreshed in place.
	Upsert(ctx context.Context, entry *models.DatasetHistoryEntry) error
	List(ctx context.Context, limit int) ([]*models.DatasetHistoryEntry, error)
	ListFavorites(ctx context.Context) ([]*models.DatasetHistoryEntry, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.DatasetHistoryEntry, error)
	ToggleFavorite(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// PurgeStale removes non-favorite entries not used since the cutoff
	// and returns how many were removed.
	PurgeStale(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int, error)
}

type datasetHistoryRepository struct {
	db *database.DB
}

func NewDatasetHistoryRepository(db *database.DB) DatasetHistoryRepository {
	return &datasetHistoryRepository{db: db}
}

var _ DatasetHistoryRepository = (*datasetHistoryRepository)(nil)

const datasetHistoryColumns = `
	id, name, filename, columns, row_count,
	is_favorite, usage_count, uploaded_at, last_used`

func (r *datasetHistoryRepository) Upsert(ctx context.Context, entry *models.DatasetHistoryEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	columnsJSON, err := marshalColumns(entry.Columns)
	if err != nil {
		return fmt.Errorf("failed to marshal columns: %w", err)
	}

	query := `
		INSERT INTO dataset_history (id, name, filename, columns, row_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (filename) DO UPDATE
		SET name = EXCLUDED.name,
		    columns = EXCLUDED.columns,
		    row_count = EXCLUDED.row_count,
		    usage_count = dataset_history.usage_count + 1,
		    last_used = now()
		RETURNING ` + datasetHistoryColumns

	updated, err := scanDatasetHistory(r.db.QueryRow(ctx, query,
		entry.ID,
		entry.Name,
		entry.Filename,
		columnsJSON,
		entry.RowCount,
	))
	if err != nil {
		return fmt.Errorf("failed to upsert dataset history entry: %w", err)
	}

	*entry = *updated
	return nil
}

func (r *datasetHistoryRepository) List(ctx context.Context, limit int) ([]*models.DatasetHistoryEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT ` + datasetHistoryColumns + `
		FROM dataset_history
		ORDER BY last_used DESC
		LIMIT $1`

	return r.queryEntries(ctx, query, limit)
}

func (r *datasetHistoryRepository) ListFavorites(ctx context.Context) ([]*models.DatasetHistoryEntry, error) {
	query := `
		SELECT ` + datasetHistoryColumns + `
		FROM dataset_history
		WHERE is_favorite
		ORDER BY last_used DESC`

	return r.queryEntries(ctx, query)
}

func (r *datasetHistoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DatasetHistoryEntry, error) {
	query := `
		SELECT ` + datasetHistoryColumns + `
		FROM dataset_history
		WHERE id = $1`

	entry, err := scanDatasetHistory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get dataset history entry: %w", err)
	}

	return entry, nil
}

func (r *datasetHistoryRepository) ToggleFavorite(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE dataset_history
		SET is_favorite = NOT is_favorite
		WHERE id = $1
		RETURNING is_favorite`

	var isFavorite bool
	err := r.db.QueryRow(ctx, query, id).Scan(&isFavorite)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, apperrors.ErrNotFound
		}
		return false, fmt.Errorf("failed to toggle favorite: %w", err)
	}

	return isFavorite, nil
}

func (r *datasetHistoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM dataset_history WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset history entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *datasetHistoryRepository) PurgeStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM dataset_history WHERE NOT is_favorite AND last_used < $1`
	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale dataset history: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *datasetHistoryRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM dataset_history`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count dataset history: %w", err)
	}
	return count, nil
}

func (r *datasetHistoryRepository) queryEntries(ctx context.Context, query string, args ...any) ([]*models.DatasetHistoryEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset history entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.DatasetHistoryEntry
	for rows.Next() {
		entry, err := scanDatasetHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dataset history entries: %w", err)
	}

	return entries, nil
}

func scanDatasetHistory(row pgx.Row) (*models.DatasetHistoryEntry, error) {
	var entry models.DatasetHistoryEntry
	var columnsJSON []byte

	err := row.Scan(
		&entry.ID,
		&entry.Name,
		&entry.Filename,
		&columnsJSON,
		&entry.RowCount,
		&entry.IsFavorite,
		&entry.UsageCount,
		&entry.UploadedAt,
		&entry.LastUsed,
	)
	if err != nil {
		return nil, err
	}

	if cols, err := unmarshalColumns(columnsJSON); err == nil {
		entry.Columns = cols
	}

	return &entry, nil
}
