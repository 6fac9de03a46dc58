// internal/runner/runner.go
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"cryptoreed-server/internal/common/config"
	apperrors "cryptoreed-server/internal/common/errors"
	"cryptoreed-server/internal/common/logger"
	"cryptoreed-server/internal/common/metrics"
	"cryptoreed-server/internal/common/validation"
	"cryptoreed-server/internal/models"
)

// AllowedScripts maps the public script identifiers to their program
// files. Anything outside this set is rejected before a process is
// spawned; the identifier is never used to build a path from user input.
var AllowedScripts = map[string]string{
	"extractor":      "extractor.py",
	"modelo":         "modelo.py",
	"modelo_general": "modelo_general.py",
}

// Runner executes allow-listed scripts as child processes under a hard
// deadline, with bounded concurrent admission.
type Runner struct {
	cfg    config.ScriptsConfig
	sem    *semaphore.Weighted
	logger logger.Logger
}

func New(cfg config.ScriptsConfig, log logger.Logger) *Runner {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Runner{
		cfg:    cfg,
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
		logger: log,
	}
}

// Run executes one allow-listed script and returns the finished
// invocation. A non-zero exit is not an error here; callers inspect
// ExitCode and decide what it means at their boundary. Timeouts and
// rejected identifiers are errors.
func (r *Runner) Run(ctx context.Context, script string, args []string) (*models.ScriptInvocation, error) {
	file, ok := AllowedScripts[script]
	if !ok {
		metrics.ScriptRunsTotal.WithLabelValues(script, "rejected").Inc()
		return nil, apperrors.NewInvalidScriptError(script)
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		metrics.ScriptRunsTotal.WithLabelValues(script, "cancelled").Inc()
		return nil, apperrors.NewAdmissionCancelledError(err)
	}
	defer r.sem.Release(1)

	inv := &models.ScriptInvocation{
		ID:     uuid.New().String(),
		Script: script,
		Args:   args,
	}

	runCtx, cancel := context.WithTimeout(ctx, config.GetDuration(r.cfg.Timeout))
	defer cancel()

	// The child runs with the scripts directory as its cwd, so the
	// program file is addressed by bare name.
	cmdArgs := append([]string{file}, args...)
	cmd := exec.CommandContext(runCtx, r.cfg.Interpreter, cmdArgs...)
	cmd.Dir = r.cfg.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Info("script run starting", map[string]interface{}{
		"invocation_id": inv.ID,
		"script":        script,
		"args":          args,
	})

	metrics.ScriptRunsActive.Inc()
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	metrics.ScriptRunsActive.Dec()
	metrics.ScriptRunDuration.WithLabelValues(script).Observe(elapsed.Seconds())

	inv.Stdout = stdout.String()
	inv.Stderr = stderr.String()

	if runCtx.Err() == context.DeadlineExceeded {
		inv.TimedOut = true
		metrics.ScriptRunsTotal.WithLabelValues(script, "timeout").Inc()
		r.logger.Warn("script run timed out", map[string]interface{}{
			"invocation_id": inv.ID,
			"script":        script,
			"elapsed_ms":    elapsed.Milliseconds(),
		})
		return inv, apperrors.NewScriptTimeoutError(script)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			metrics.ScriptRunsTotal.WithLabelValues(script, "error").Inc()
			return inv, apperrors.NewInternalError(err)
		}
		inv.ExitCode = exitErr.ExitCode()
	}

	outcome := "success"
	if inv.ExitCode != 0 {
		outcome = "failure"
	}
	metrics.ScriptRunsTotal.WithLabelValues(script, outcome).Inc()

	r.logger.Info("script run finished", map[string]interface{}{
		"invocation_id": inv.ID,
		"script":        script,
		"exit_code":     inv.ExitCode,
		"elapsed_ms":    elapsed.Milliseconds(),
	})
	return inv, nil
}

// RunForPayload executes a script and extracts the last top-level JSON
// array from its stdout. Progress lines before and after the payload are
// tolerated; a run with no locatable payload is reported as such even
// when the process exited cleanly.
func (r *Runner) RunForPayload(ctx context.Context, script string, args []string) (*models.ScriptInvocation, *models.ExtractedPayload, error) {
	inv, err := r.Run(ctx, script, args)
	if err != nil {
		return inv, nil, err
	}
	if inv.ExitCode != 0 {
		return inv, nil, apperrors.NewExecutionFailedError(inv.Stderr)
	}

	raw, ok := ExtractLastJSONArray(inv.Stdout)
	if !ok {
		return inv, nil, apperrors.NewPayloadNotParseableError("no JSON array in stdout")
	}

	result, err := validation.ValidateExtractedPayload(raw)
	if err != nil {
		return inv, nil, apperrors.NewInternalError(err)
	}
	if !result.Valid {
		return inv, nil, apperrors.NewPayloadNotParseableError(result.Summary())
	}

	return inv, &models.ExtractedPayload{Raw: raw}, nil
}
