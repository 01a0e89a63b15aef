package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"facetflow/internal/action"
	"facetflow/internal/config"
	"facetflow/internal/direction"
	"facetflow/internal/driver"
	"facetflow/internal/logging"
	"facetflow/internal/runledger"
)

// Runner drives actions for one direction through the stage driver.
type Runner struct {
	cfg    *config.Config
	ledger *runledger.Store
	drv    driver.Driver
	logger *slog.Logger
}

// NewRunner constructs a runner. A nil logger is replaced with a no-op.
func NewRunner(cfg *config.Config, ledger *runledger.Store, drv driver.Driver, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		ledger: ledger,
		drv:    drv,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
}

// RunAction prepares act, hands it to the stage driver, and collects the
// corrected output datamap handle. The handle is empty for side-effecting
// actions. Interrupted attempts are safe to retry: setup is idempotent
// and the ledger records how far the previous attempt got.
func (r *Runner) RunAction(ctx context.Context, dir *direction.Direction, operation string, act action.Action) (string, error) {
	logger := r.logger.With(
		logging.String(logging.FieldDirection, dir.Name),
		logging.String(logging.FieldOperation, operation),
		logging.String(logging.FieldAction, act.Name()),
	)

	start := time.Now()
	if err := action.Setup(act); err != nil {
		logger.Error("action setup failed", logging.Error(err))
		return "", err
	}

	run := driver.Run{
		ID:            uuid.NewString(),
		Direction:     dir.Name,
		Operation:     operation,
		Action:        act.Name(),
		WorkingDir:    act.WorkingDir(),
		ParsetFile:    act.ParsetFile(),
		OutputDatamap: act.OutputDatamap(),
		Timeout:       act.Timeout(),
	}

	if _, err := r.ledger.Record(ctx, run); err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldRunID, run.ID))
	logger.Info("action prepared",
		logging.String("parset", run.ParsetFile),
		logging.Duration("setup_duration", time.Since(start)),
	)

	if err := r.ledger.SetStatus(ctx, run.ID, runledger.StatusRunning, ""); err != nil {
		return "", fmt.Errorf("mark run running: %w", err)
	}
	if err := r.drv.Execute(ctx, run); err != nil {
		if ledgerErr := r.ledger.SetStatus(ctx, run.ID, runledger.StatusFailed, err.Error()); ledgerErr != nil {
			logger.Error("failed to persist run failure", logging.Error(ledgerErr))
		}
		logger.Error("stage driver execution failed", logging.Error(err))
		return "", fmt.Errorf("execute %s: %w", act.Name(), err)
	}
	if err := r.ledger.SetStatus(ctx, run.ID, runledger.StatusSucceeded, ""); err != nil {
		return "", fmt.Errorf("mark run succeeded: %w", err)
	}

	handle, err := act.CollectResults()
	if err != nil {
		logger.Error("collect results failed", logging.Error(err))
		return "", fmt.Errorf("collect results for %s: %w", act.Name(), err)
	}
	logger.Info("action completed",
		logging.String("output_datamap", handle),
		logging.Duration("action_duration", time.Since(start)),
	)
	return handle, nil
}

// RunOperation runs acts in order for dir, then records the operation as
// complete and persists the direction's state. An operation already in
// the completion record is skipped entirely.
func (r *Runner) RunOperation(ctx context.Context, dir *direction.Direction, operation string, acts []action.Action) error {
	logger := r.logger.With(
		logging.String(logging.FieldDirection, dir.Name),
		logging.String(logging.FieldOperation, operation),
	)

	if dir.IsComplete(operation) {
		logger.Info("operation already complete, skipping")
		return nil
	}

	for _, act := range acts {
		if _, err := r.RunAction(ctx, dir, operation, act); err != nil {
			return err
		}
	}

	dir.RecordCompletion(operation)
	if err := dir.SaveState(); err != nil {
		return fmt.Errorf("persist direction state: %w", err)
	}
	logger.Info("operation completed")
	return nil
}
