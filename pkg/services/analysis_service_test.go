package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datapilot-labs/datapilot-engine/pkg/dataset"
	"github.com/datapilot-labs/datapilot-engine/pkg/executor"
	"github.com/datapilot-labs/datapilot-engine/pkg/models"
)

type fakeGenerator struct {
	output string
	model  string
	err    error
	prompt string
	calls  int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, string, error) {
	f.calls++
	f.prompt = prompt
	if f.err != nil {
		return "", f.model, f.err
	}
	return f.output, f.model, nil
}

type fakeRunner struct {
	result   *executor.Result
	err      error
	code     string
	cleanups int
}

func (f *fakeRunner) Run(ctx context.Context, ds *dataset.Dataset, code string) (*executor.Result, error) {
	f.code = code
	return f.result, f.err
}

func (f *fakeRunner) Cleanup(result *executor.Result) {
	f.cleanups++
}

type fakeQueryRepo struct {
	created   *models.QueryLog
	updatedID uuid.UUID
	updatedOK *bool
	createErr error
	updateErr error
}

func (f *fakeQueryRepo) Create(ctx context.Context, entry *models.QueryLog) error {
	if f.createErr != nil {
		return f.createErr
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	f.created = entry
	return nil
}

func (f *fakeQueryRepo) UpdateExecution(ctx context.Context, id uuid.UUID, output string, success bool, duration time.Duration) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedID = id
	f.updatedOK = &success
	return nil
}

func (f *fakeQueryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.QueryLog, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeQueryRepo) ListRecent(ctx context.Context, limit int) ([]*models.QueryLog, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeQueryRepo) Statistics(ctx context.Context) (*models.QueryStatistics, error) {
	return nil, errors.New("not implemented")
}

type fakeResultRepo struct {
	created []*models.AnalysisResult
}

func (f *fakeResultRepo) Create(ctx context.Context, result *models.AnalysisResult) error {
	f.created = append(f.created, result)
	return nil
}

func (f *fakeResultRepo) ListByQuery(ctx context.Context, queryLogID uuid.UUID) ([]*models.AnalysisResult, error) {
	return f.created, nil
}

func salesDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New("sales", []string{"region", "revenue"}, [][]string{
		{"north", "100"},
		{"south", "80"},
	})
	if err != nil {
		t.Fatalf("dataset.New() error: %v", err)
	}
	return ds
}

func TestGenerateCode(t *testing.T) {
	gen := &fakeGenerator{
		output: "```python\ndf['revenue'].fillna(0, inplace=True)\nprint(df['revenue'].sum())\n```",
		model:  "gpt-4o-mini",
	}
	queries := &fakeQueryRepo{}
	svc := NewAnalysisService(gen, &fakeRunner{}, queries, &fakeResultRepo{}, time.Minute, zap.NewNop())

	got, err := svc.GenerateCode(context.Background(), salesDataset(t), "total revenue?")
	if err != nil {
		t.Fatalf("GenerateCode() error: %v", err)
	}

	if strings.Contains(got.Code, "```") {
		t.Errorf("code not sanitized: %q", got.Code)
	}
	if strings.Contains(got.Code, "inplace=True") {
		t.Errorf("inplace pattern survived sanitization: %q", got.Code)
	}
	if got.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", got.Model)
	}
	if !strings.Contains(gen.prompt, "region, revenue") {
		t.Errorf("prompt missing dataset columns: %q", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "total revenue?") {
		t.Errorf("prompt missing question: %q", gen.prompt)
	}
	if queries.created == nil {
		t.Fatal("query was not logged")
	}
	if queries.created.GeneratedCode != got.Code {
		t.Error("logged code differs from returned code")
	}
}

func TestGenerateCode_Validation(t *testing.T) {
	svc := NewAnalysisService(&fakeGenerator{}, &fakeRunner{}, &fakeQueryRepo{}, &fakeResultRepo{}, time.Minute, zap.NewNop())

	if _, err := svc.GenerateCode(context.Background(), nil, "q"); err == nil {
		t.Error("accepted nil dataset")
	}
	if _, err := svc.GenerateCode(context.Background(), salesDataset(t), ""); err == nil {
		t.Error("accepted empty question")
	}
}

func TestGenerateCode_GeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("rate limited")}
	queries := &fakeQueryRepo{}
	svc := NewAnalysisService(gen, &fakeRunner{}, queries, &fakeResultRepo{}, time.Minute, zap.NewNop())

	if _, err := svc.GenerateCode(context.Background(), salesDataset(t), "q"); err == nil {
		t.Fatal("GenerateCode() swallowed generator failure")
	}
	if queries.created != nil {
		t.Error("failed generation must not be logged")
	}
}

func TestAnalyze_Success(t *testing.T) {
	gen := &fakeGenerator{output: "print(df['revenue'].sum())", model: "gpt-4o-mini"}
	runner := &fakeRunner{
		result: &executor.Result{
			Output:      "180\n",
			Success:     true,
			ChartExists: true,
			Duration:    250 * time.Millisecond,
		},
	}
	queries := &fakeQueryRepo{}
	results := &fakeResultRepo{}
	svc := NewAnalysisService(gen, runner, queries, results, time.Minute, zap.NewNop())

	got, err := svc.Analyze(context.Background(), salesDataset(t), "total revenue?")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	if !got.Success || got.Output != "180\n" || !got.ChartGenerated {
		t.Errorf("outcome = %+v", got)
	}
	if got.DurationMs != 250 {
		t.Errorf("DurationMs = %d, want 250", got.DurationMs)
	}
	if queries.updatedOK == nil || !*queries.updatedOK {
		t.Error("execution outcome not recorded in query log")
	}
	if queries.updatedID != got.QueryID {
		t.Error("execution recorded against wrong query")
	}
	if len(results.created) != 2 {
		t.Fatalf("recorded %d results, want text + plot", len(results.created))
	}
	if results.created[0].ResultType != models.ResultTypeText {
		t.Errorf("first result type = %v", results.created[0].ResultType)
	}
	if results.created[1].ResultType != models.ResultTypePlot || results.created[1].PlotFilename == "" {
		t.Errorf("plot result = %+v", results.created[1])
	}
	if runner.cleanups != 1 {
		t.Errorf("workspace cleaned up %d times, want 1", runner.cleanups)
	}
}

func TestAnalyze_ScriptFailureIsNotAnError(t *testing.T) {
	gen := &fakeGenerator{output: "raise ValueError('boom')", model: "m"}
	runner := &fakeRunner{
		result: &executor.Result{
			Output:  "Traceback: ValueError: boom",
			Success: false,
		},
	}
	queries := &fakeQueryRepo{}
	results := &fakeResultRepo{}
	svc := NewAnalysisService(gen, runner, queries, results, time.Minute, zap.NewNop())

	got, err := svc.Analyze(context.Background(), salesDataset(t), "q")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if got.Success {
		t.Error("Success = true for failed script")
	}
	if queries.updatedOK == nil || *queries.updatedOK {
		t.Error("failure not recorded in query log")
	}
	if len(results.created) != 1 {
		t.Errorf("recorded %d results, want text only", len(results.created))
	}
}

func TestAnalyze_HostFailure(t *testing.T) {
	gen := &fakeGenerator{output: "print(1)", model: "m"}
	runner := &fakeRunner{err: errors.New("python3 not found")}
	svc := NewAnalysisService(gen, runner, &fakeQueryRepo{}, &fakeResultRepo{}, time.Minute, zap.NewNop())

	if _, err := svc.Analyze(context.Background(), salesDataset(t), "q"); err == nil {
		t.Fatal("Analyze() swallowed host-level executor failure")
	}
}
