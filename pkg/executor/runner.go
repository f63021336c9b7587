// Package executor runs sanitized analysis code in an isolated Python
// subprocess with captured output and a bounded execution time.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datapilot-labs/datapilot-engine/pkg/apperrors"
	"github.com/datapilot-labs/datapilot-engine/pkg/dataset"
)

// Result is the outcome of one script execution. A failed script is a
// Result with Success=false, never a Go error; errors are reserved for
// host-level failures (workspace setup, missing interpreter).
type Result struct {
	Output      string
	Success     bool
	ChartPath   string
	ChartExists bool
	Duration    time.Duration
}

// Config holds executor settings.
type Config struct {
	PythonBin string        // Interpreter, e.g. "python3"
	BaseDir   string        // Base for per-run workspaces; empty means os.TempDir
	Timeout   time.Duration // Wall-clock bound per execution
}

// Runner executes generated scripts, one workspace per run so concurrent
// requests never share a chart artifact path.
type Runner struct {
	cfg    Config
	logger *zap.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg Config, logger *zap.Logger) *Runner {
	if cfg.PythonBin == "" {
		cfg.PythonBin = "python3"
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = os.TempDir()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Runner{cfg: cfg, logger: logger.Named("executor")}
}

// Run executes sanitized code against the dataset in a fresh workspace.
// The returned Result's ChartPath is only meaningful when ChartExists is
// true. Callers own the workspace until they call Cleanup on it.
func (r *Runner) Run(ctx context.Context, ds *dataset.Dataset, code string) (*Result, error) {
	if ds == nil {
		return nil, apperrors.ErrNoDataset
	}

	ws, err := r.createWorkspace(ds, code)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	var output bytes.Buffer
	cmd := exec.CommandContext(runCtx, r.cfg.PythonBin, harnessFile)
	cmd.Dir = ws
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	result := &Result{
		Output:    output.String(),
		Duration:  elapsed,
		ChartPath: filepath.Join(ws, artifactFile),
	}

	if _, statErr := os.Stat(result.ChartPath); statErr == nil {
		result.ChartExists = true
	}

	switch {
	case runErr == nil:
		result.Success = true
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.Output += fmt.Sprintf("\nexecution timed out after %s", r.cfg.Timeout)
		r.logger.Warn("Script execution timed out",
			zap.String("workspace", ws),
			zap.Duration("timeout", r.cfg.Timeout))
	default:
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// Not a script failure: the interpreter itself could not run.
			return nil, fmt.Errorf("run interpreter %s: %w", r.cfg.PythonBin, runErr)
		}
		r.logger.Debug("Script execution failed",
			zap.Int("exit_code", exitErr.ExitCode()),
			zap.Duration("elapsed", elapsed))
	}

	return result, nil
}

// Cleanup removes a run workspace and everything in it.
func (r *Runner) Cleanup(result *Result) {
	if result == nil || result.ChartPath == "" {
		return
	}
	ws := filepath.Dir(result.ChartPath)
	if err := os.RemoveAll(ws); err != nil {
		r.logger.Warn("Failed to remove workspace", zap.String("workspace", ws), zap.Error(err))
	}
}

// createWorkspace materializes the dataset, script, and harness into a
// uuid-named directory under the configured base.
func (r *Runner) createWorkspace(ds *dataset.Dataset, code string) (string, error) {
	ws := filepath.Join(r.cfg.BaseDir, "datapilot-run-"+uuid.New().String())
	if err := os.MkdirAll(ws, 0o755); err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}

	if err := ds.WriteCSVFile(filepath.Join(ws, datasetFile)); err != nil {
		os.RemoveAll(ws)
		return "", fmt.Errorf("materialize dataset: %w", err)
	}
	if err := os.WriteFile(filepath.Join(ws, scriptFile), []byte(code), 0o644); err != nil {
		os.RemoveAll(ws)
		return "", fmt.Errorf("write script: %w", err)
	}
	if err := os.WriteFile(filepath.Join(ws, harnessFile), []byte(harness), 0o644); err != nil {
		os.RemoveAll(ws)
		return "", fmt.Errorf("write harness: %w", err)
	}

	return ws, nil
}
