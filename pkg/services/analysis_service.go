package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datapilot-labs/datapilot-engine/pkg/dataset"
	"github.com/datapilot-labs/datapilot-engine/pkg/executor"
	"github.com/datapilot-labs/datapilot-engine/pkg/logging"
	"github.com/datapilot-labs/datapilot-engine/pkg/models"
	"github.com/datapilot-labs/datapilot-engine/pkg/prompts"
	"github.com/datapilot-labs/datapilot-engine/pkg/pycode"
	"github.com/datapilot-labs/datapilot-engine/pkg/repositories"
)

// CodeGenerator produces model output for a prompt and reports the
// model that served it.
type CodeGenerator interface {
	Generate(ctx context.Context, prompt string) (string, string, error)
}

// ScriptRunner executes sanitized code against a dataset.
type ScriptRunner interface {
	Run(ctx context.Context, ds *dataset.Dataset, code string) (*executor.Result, error)
	Cleanup(result *executor.Result)
}

// GeneratedCode is the outcome of a code generation request.
type GeneratedCode struct {
	QueryID uuid.UUID `json:"query_id"`
	Code    string    `json:"code"`
	Model   string    `json:"model"`
}

// AnalysisOutcome is the outcome of a full generate-and-execute cycle.
type AnalysisOutcome struct {
	QueryID        uuid.UUID `json:"query_id"`
	Code           string    `json:"code"`
	Model          string    `json:"model"`
	Output         string    `json:"output"`
	Success        bool      `json:"success"`
	ChartGenerated bool      `json:"chart_generated"`
	DurationMs     int       `json:"duration_ms"`
}

// AnalysisService turns questions about a dataset into generated Python
// code and optionally executes it, recording everything in the query log.
type AnalysisService interface {
	// GenerateCode builds the analysis prompt, invokes the model, and
	// returns the sanitized code without executing it.
	GenerateCode(ctx context.Context, ds *dataset.Dataset, question string) (*GeneratedCode, error)

	// Analyze generates code and runs it against the dataset. A script
	// failure is a successful Analyze call with Success=false.
	Analyze(ctx context.Context, ds *dataset.Dataset, question string) (*AnalysisOutcome, error)
}

type analysisService struct {
	generator  CodeGenerator
	runner     ScriptRunner
	queries    repositories.QueryRepository
	results    repositories.AnalysisResultRepository
	llmTimeout time.Duration
	logger     *zap.Logger
}

// NewAnalysisService creates an AnalysisService.
func NewAnalysisService(
	generator CodeGenerator,
	runner ScriptRunner,
	queries repositories.QueryRepository,
	results repositories.AnalysisResultRepository,
	llmTimeout time.Duration,
	logger *zap.Logger,
) AnalysisService {
	if llmTimeout <= 0 {
		llmTimeout = 60 * time.Second
	}
	return &analysisService{
		generator:  generator,
		runner:     runner,
		queries:    queries,
		results:    results,
		llmTimeout: llmTimeout,
		logger:     logger.Named("analysis-service"),
	}
}

var _ AnalysisService = (*analysisService)(nil)

func (s *analysisService) GenerateCode(ctx context.Context, ds *dataset.Dataset, question string) (*GeneratedCode, error) {
	entry, err := s.generate(ctx, ds, question)
	if err != nil {
		return nil, err
	}

	return &GeneratedCode{
		QueryID: entry.ID,
		Code:    entry.GeneratedCode,
		Model:   entry.Model,
	}, nil
}

func (s *analysisService) Analyze(ctx context.Context, ds *dataset.Dataset, question string) (*AnalysisOutcome, error) {
	entry, err := s.generate(ctx, ds, question)
	if err != nil {
		return nil, err
	}

	result, err := s.runner.Run(ctx, ds, entry.GeneratedCode)
	if err != nil {
		return nil, fmt.Errorf("execute analysis code: %w", err)
	}
	defer s.runner.Cleanup(result)

	if err := s.queries.UpdateExecution(ctx, entry.ID, result.Output, result.Success, result.Duration); err != nil {
		s.logger.Error("Failed to record execution outcome",
			zap.String("query_id", entry.ID.String()),
			zap.Error(err))
	}

	s.recordResults(ctx, entry.ID, result)

	s.logger.Info("Analysis complete",
		zap.String("query_id", entry.ID.String()),
		zap.Bool("success", result.Success),
		zap.Bool("chart", result.ChartExists),
		zap.Duration("duration", result.Duration))

	return &AnalysisOutcome{
		QueryID:        entry.ID,
		Code:           entry.GeneratedCode,
		Model:          entry.Model,
		Output:         result.Output,
		Success:        result.Success,
		ChartGenerated: result.ChartExists,
		DurationMs:     int(result.Duration.Milliseconds()),
	}, nil
}

// generate runs the prompt-generate-sanitize pipeline and logs the query.
func (s *analysisService) generate(ctx context.Context, ds *dataset.Dataset, question string) (*models.QueryLog, error) {
	if ds == nil || len(ds.Columns) == 0 {
		return nil, fmt.Errorf("dataset with columns is required")
	}
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	prompt := prompts.BuildAnalysisPrompt(ds.Columns, question)

	genCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	raw, model, err := s.generator.Generate(genCtx, prompt)
	if err != nil {
		s.logger.Error("Code generation failed",
			zap.String("question", logging.TruncateString(question, logging.MaxOutputLogLength)),
			zap.Error(err))
		return nil, fmt.Errorf("generate analysis code: %w", err)
	}

	code := pycode.Sanitize(raw)

	entry := &models.QueryLog{
		Question:       question,
		GeneratedCode:  code,
		Model:          model,
		DatasetName:    ds.Name,
		DatasetColumns: ds.Columns,
	}
	if err := s.queries.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("log query: %w", err)
	}

	s.logger.Info("Generated analysis code",
		zap.String("query_id", entry.ID.String()),
		zap.String("model", model),
		zap.Int("code_bytes", len(code)))

	return entry, nil
}

// recordResults persists the text output and, when present, the chart
// artifact. Result rows are best-effort; the outcome is already in the
// query log.
func (s *analysisService) recordResults(ctx context.Context, queryID uuid.UUID, result *executor.Result) {
	text := &models.AnalysisResult{
		QueryLogID: queryID,
		ResultType: models.ResultTypeText,
		ResultData: result.Output,
	}
	if err := s.results.Create(ctx, text); err != nil {
		s.logger.Warn("Failed to record text result", zap.Error(err))
	}

	if !result.ChartExists {
		return
	}
	plot := &models.AnalysisResult{
		QueryLogID:   queryID,
		ResultType:   models.ResultTypePlot,
		PlotFilename: prompts.ChartArtifactName,
	}
	if err := s.results.Create(ctx, plot); err != nil {
		s.logger.Warn("Failed to record plot result", zap.Error(err))
	}
}
