// Package pipeline carries the ports and the shared tail of every
// operation: sign, confirm, record, and map to the uniform result.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"carbonmint/internal/chain/txcodec"
	"carbonmint/internal/domain"
	"carbonmint/internal/platform/metrics"
)

// Signer is the awaitable signing port (one attempt per submission).
type Signer interface {
	Sign(ctx context.Context, tx *txcodec.UnsignedTx) (domain.SignedTxHandle, error)
}

// Confirmer waits for a submitted transaction's terminal outcome.
type Confirmer interface {
	Wait(ctx context.Context, hash string) domain.ConfirmationOutcome
}

// Runner executes the shared pipeline tail. Orchestrators build their
// operation-specific unsigned transaction, then hand it here.
type Runner struct {
	Signer      Signer
	Confirmer   Confirmer
	Submissions domain.SubmissionRepository // optional; nil disables history
	Metrics     *metrics.Recorder           // optional
	Logger      *slog.Logger
}

// Run signs the transaction, confirms it when a hash came back, records
// the submission, and maps everything into the uniform result value.
// An empty post-signing hash short-circuits to a pending success
// without confirmation.
func (r *Runner) Run(ctx context.Context, operation, symbol string, tx *txcodec.UnsignedTx) domain.Result {
	logger := r.logger().With("operation", operation, "symbol", symbol)

	logger.Info("signing transaction", "tx_id", tx.ID())
	handle, err := r.Signer.Sign(ctx, tx)
	if err != nil {
		if domain.KindOf(err) == domain.KindRejection {
			r.Metrics.ObserveRejection()
		}
		logger.Info("signing failed", "error", err)
		return r.finish(ctx, operation, symbol, domain.Fail("", err.Error()))
	}

	if handle.Hash == "" {
		// The wallet accepted the transaction but reported no hash;
		// treat it as pending and skip confirmation.
		logger.Info("wallet returned no hash, reporting pending")
		return r.finish(ctx, operation, symbol, domain.Result{
			Success: true,
			Status:  domain.StatusPending,
		})
	}

	logger.Info("awaiting confirmation", "hash", handle.Hash)
	outcome := r.Confirmer.Wait(ctx, handle.Hash)

	var result domain.Result
	switch outcome.Kind {
	case domain.OutcomeSuccess:
		result = domain.Ok(handle.Hash, domain.StatusConfirmed)
	case domain.OutcomeFailure:
		result = domain.Fail(handle.Hash, outcome.Message)
	default:
		result = domain.Result{
			Success: false,
			TxHash:  handle.Hash,
			Status:  domain.StatusTimeout,
			Error:   "transaction outcome unknown within the confirmation budget",
		}
	}

	return r.finish(ctx, operation, symbol, result)
}

// Fail maps a pre-signing failure (validation, schema lookup) into the
// uniform result, recording it alongside real submissions.
func (r *Runner) Fail(ctx context.Context, operation, symbol string, err error) domain.Result {
	r.logger().Info("operation failed before signing",
		"operation", operation, "symbol", symbol, "error", err)
	return r.finish(ctx, operation, symbol, domain.Fail("", err.Error()))
}

// Recover converts a panic escaping an orchestrator into a failure
// result, honoring the no-exception boundary contract.
func (r *Runner) Recover(res *domain.Result) {
	if rec := recover(); rec != nil {
		r.logger().Error("orchestrator panicked", "panic", rec)
		*res = domain.Fail("", "internal error")
	}
}

func (r *Runner) finish(ctx context.Context, operation, symbol string, result domain.Result) domain.Result {
	status := result.Status
	if status == "" {
		if result.Success {
			status = domain.StatusConfirmed
		} else {
			status = domain.StatusFailed
		}
	}
	r.Metrics.ObserveSubmission(operation, status)

	if r.Submissions != nil {
		sub := &domain.Submission{
			ID:        uuid.New(),
			Operation: operation,
			Symbol:    symbol,
			TxHash:    result.TxHash,
			Status:    status,
			Error:     result.Error,
			CreatedAt: time.Now().UTC(),
		}
		// History is best effort; a storage hiccup must not turn a
		// confirmed transaction into a reported failure.
		if err := r.Submissions.Create(ctx, sub); err != nil && !errors.Is(err, context.Canceled) {
			r.logger().Warn("recording submission failed", "operation", operation, "error", err)
		}
	}

	return result
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
