//go:build integration

package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datapilot-labs/datapilot-engine/pkg/testhelpers"
)

// TestSchema verifies the migrated schema matches what the repositories
// expect: tables, the filename uniqueness rule, and the cascade from
// query_logs to analysis_results.
func TestSchema(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"query_logs", "dataset_history", "analysis_results"} {
		var exists bool
		err := testDB.DB.QueryRow(ctx,
			`SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)`,
			table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "table %s missing", table)
	}
}

func TestSchema_FilenameUnique(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateTables(t, testDB.DB, "dataset_history")
	ctx := context.Background()

	_, err := testDB.DB.Exec(ctx,
		`INSERT INTO dataset_history (name, filename) VALUES ('a', 'dup.csv')`)
	require.NoError(t, err)

	_, err = testDB.DB.Exec(ctx,
		`INSERT INTO dataset_history (name, filename) VALUES ('b', 'dup.csv')`)
	assert.Error(t, err, "duplicate filename accepted")
}

func TestSchema_ResultsCascadeWithQuery(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateTables(t, testDB.DB, "query_logs", "analysis_results")
	ctx := context.Background()

	var queryID string
	err := testDB.DB.QueryRow(ctx,
		`INSERT INTO query_logs (question, generated_code) VALUES ('q', 'print(1)') RETURNING id`).
		Scan(&queryID)
	require.NoError(t, err)

	_, err = testDB.DB.Exec(ctx,
		`INSERT INTO analysis_results (query_log_id, result_type, result_data) VALUES ($1, 'text', 'out')`,
		queryID)
	require.NoError(t, err)

	_, err = testDB.DB.Exec(ctx, `DELETE FROM query_logs WHERE id = $1`, queryID)
	require.NoError(t, err)

	var count int
	err = testDB.DB.QueryRow(ctx, `SELECT COUNT(*) FROM analysis_results`).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count, "results survived query deletion")
}
