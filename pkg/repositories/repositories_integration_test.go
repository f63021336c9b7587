//go:build integration

package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/datapilot-labs/datapilot-engine/pkg/apperrors"
	"github.com/datapilot-labs/datapilot-engine/pkg/models"
	"github.com/datapilot-labs/datapilot-engine/pkg/repositories"
	"github.com/datapilot-labs/datapilot-engine/pkg/testhelpers"
)

func TestQueryRepository_CreateAndGet(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateTables(t, testDB.DB, "query_logs")
	repo := repositories.NewQueryRepository(testDB.DB)
	ctx := context.Background()

	entry := &models.QueryLog{
		Question:       "What is the average revenue?",
		GeneratedCode:  "print(df['revenue'].mean())",
		Model:          "gpt-4o-mini",
		DatasetName:    "sales",
		DatasetColumns: []string{"region", "revenue"},
	}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if entry.ID == uuid.Nil {
		t.Fatal("Create() did not assign an ID")
	}

	got, err := repo.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Question != entry.Question {
		t.Errorf("Question = %q, want %q", got.Question, entry.Question)
	}
	if len(got.DatasetColumns) != 2 || got.DatasetColumns[1] != "revenue" {
		t.Errorf("DatasetColumns = %v, want round-tripped columns", got.DatasetColumns)
	}
	if got.ExecutionSuccess != nil {
		t.Error("ExecutionSuccess set before execution")
	}
}

func TestQueryRepository_UpdateExecution(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateTables(t, testDB.DB, "query_logs")
	repo := repositories.NewQueryRepository(testDB.DB)
	ctx := context.Background()

	entry := &models.QueryLog{Question: "q", GeneratedCode: "print(1)", Model: "m"}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if err := repo.UpdateExecution(ctx, entry.ID, "1\n", true, 120*time.Millisecond); err != nil {
		t.Fatalf("UpdateExecution() error: %v", err)
	}

	got, err := repo.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.ExecutionSuccess == nil || !*got.ExecutionSuccess {
		t.Error("ExecutionSuccess not recorded")
	}
	if got.ExecutionDurationMs == nil || *got.ExecutionDurationMs != 120 {
		t.Errorf("ExecutionDurationMs = %v, want 120", got.ExecutionDurationMs)
	}
	if got.ExecutedAt == nil {
		t.Error("ExecutedAt not recorded")
	}

	if err := repo.UpdateExecution(ctx, uuid.New(), "", false, 0); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("UpdateExecution(unknown id) = %v, want ErrNotFound", err)
	}
}

func TestQueryRepository_ListRecentAndStatistics(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateTables(t, testDB.DB, "query_logs")
	repo := repositories.NewQueryRepository(testDB.DB)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		entry := &models.QueryLog{Question: "q", GeneratedCode: "print(1)", Model: "m"}
		if err := repo.Create(ctx, entry); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		if err := repo.UpdateExecution(ctx, entry.ID, "out", i < 2, 100*time.Millisecond); err != nil {
			t.Fatalf("UpdateExecution() error: %v", err)
		}
	}

	entries, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent() error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("ListRecent(2) returned %d entries", len(entries))
	}

	stats, err := repo.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics() error: %v", err)
	}
	if stats.TotalQueries != 3 || stats.SuccessfulQueries != 2 || stats.FailedQueries != 1 {
		t.Errorf("Statistics() = %+v, want 3 total, 2 ok, 1 failed", stats)
	}
	if stats.SuccessRate < 0.66 || stats.SuccessRate > 0.67 {
		t.Errorf("SuccessRate = %v, want ~2/3", stats.SuccessRate)
	}
}

func TestDatasetHistoryRepository_UpsertIncrementsUsage(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateTables(t, testDB.DB, "dataset_history")
	repo := repositories.NewDatasetHistoryRepository(testDB.DB)
	ctx := context.Background()

	rowCount := 42
	entry := &models.DatasetHistoryEntry{
		Name:     "Sales",
		Filename: "sales.csv",
		Columns:  []string{"region", "revenue"},
		RowCount: &rowCount,
	}
	if err := repo.Upsert(ctx, entry); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if entry.UsageCount != 1 {
		t.Errorf("UsageCount = %d after first load, want 1", entry.UsageCount)
	}
	firstID := entry.ID

	again := &models.DatasetHistoryEntry{Name: "Sales v2", Filename: "sales.csv"}
	if err := repo.Upsert(ctx, again); err != nil {
		t.Fatalf("Upsert() error on reload: %v", err)
	}
	if again.ID != firstID {
		t.Error("reload created a second row for the same filename")
	}
	if again.UsageCount != 2 {
		t.Errorf("UsageCount = %d after reload, want 2", again.UsageCount)
	}
	if again.Name != "Sales v2" {
		t.Errorf("Name = %q, want refreshed name", again.Name)
	}
}

func TestDatasetHistoryRepository_FavoritesAndDelete(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateTables(t, testDB.DB, "dataset_history")
	repo := repositories.NewDatasetHistoryRepository(testDB.DB)
	ctx := context.Background()

	entry := &models.DatasetHistoryEntry{Name: "A", Filename: "a.csv"}
	if err := repo.Upsert(ctx, entry); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	fav, err := repo.ToggleFavorite(ctx, entry.ID)
	if err != nil {
		t.Fatalf("ToggleFavorite() error: %v", err)
	}
	if !fav {
		t.Error("ToggleFavorite() = false on first toggle")
	}

	favorites, err := repo.ListFavorites(ctx)
	if err != nil {
		t.Fatalf("ListFavorites() error: %v", err)
	}
	if len(favorites) != 1 {
		t.Errorf("ListFavorites() returned %d entries, want 1", len(favorites))
	}

	if _, err := repo.ToggleFavorite(ctx, uuid.New()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("ToggleFavorite(unknown id) = %v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, entry.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := repo.Delete(ctx, entry.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("second Delete() = %v, want ErrNotFound", err)
	}
}

func TestDatasetHistoryRepository_PurgeStaleKeepsFavorites(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateTables(t, testDB.DB, "dataset_history")
	repo := repositories.NewDatasetHistoryRepository(testDB.DB)
	ctx := context.Background()

	stale := &models.DatasetHistoryEntry{Name: "Old", Filename: "old.csv"}
	favorite := &models.DatasetHistoryEntry{Name: "Pinned", Filename: "pinned.csv"}
	for _, e := range []*models.DatasetHistoryEntry{stale, favorite} {
		if err := repo.Upsert(ctx, e); err != nil {
			t.Fatalf("Upsert() error: %v", err)
		}
	}
	if _, err := repo.ToggleFavorite(ctx, favorite.ID); err != nil {
		t.Fatalf("ToggleFavorite() error: %v", err)
	}

	// Both rows were just touched, so a future cutoff marks them stale.
	purged, err := repo.PurgeStale(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("PurgeStale() error: %v", err)
	}
	if purged != 1 {
		t.Errorf("PurgeStale() = %d, want 1 (favorite retained)", purged)
	}

	if _, err := repo.GetByID(ctx, favorite.ID); err != nil {
		t.Errorf("favorite was purged: %v", err)
	}
	if _, err := repo.GetByID(ctx, stale.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("stale entry survived purge: %v", err)
	}
}

func TestAnalysisResultRepository_CreateAndList(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateTables(t, testDB.DB, "query_logs", "analysis_results")
	queries := repositories.NewQueryRepository(testDB.DB)
	results := repositories.NewAnalysisResultRepository(testDB.DB)
	ctx := context.Background()

	log := &models.QueryLog{Question: "q", GeneratedCode: "print(1)", Model: "m"}
	if err := queries.Create(ctx, log); err != nil {
		t.Fatalf("Create(query) error: %v", err)
	}

	text := &models.AnalysisResult{
		QueryLogID: log.ID,
		ResultType: models.ResultTypeText,
		ResultData: "mean is 42",
	}
	plot := &models.AnalysisResult{
		QueryLogID:   log.ID,
		ResultType:   models.ResultTypePlot,
		PlotFilename: "output.png",
	}
	for _, r := range []*models.AnalysisResult{text, plot} {
		if err := results.Create(ctx, r); err != nil {
			t.Fatalf("Create(result) error: %v", err)
		}
	}

	got, err := results.ListByQuery(ctx, log.ID)
	if err != nil {
		t.Fatalf("ListByQuery() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByQuery() returned %d results, want 2", len(got))
	}
	if got[0].ResultType != models.ResultTypeText || got[0].ResultData != "mean is 42" {
		t.Errorf("first result = %+v, want text result", got[0])
	}
	if got[1].ResultType != models.ResultTypePlot || got[1].PlotFilename != "output.png" {
		t.Errorf("second result = %+v, want plot result", got[1])
	}
}
