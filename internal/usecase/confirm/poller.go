// Package confirm polls the node for a submitted transaction's outcome
// with a bounded attempt budget.
package confirm

import (
	"context"
	"log/slog"
	"time"

	"carbonmint/internal/domain"
)

// Defaults applied when the corresponding option is zero.
const (
	DefaultMaxAttempts           = 30
	DefaultDelay                 = time.Second
	DefaultFailureDetailAttempts = 6
)

// StatusReader is the slice of the node API the poller needs.
type StatusReader interface {
	GetTransaction(ctx context.Context, hash string) (*domain.TransactionRecord, error)
}

// Poller waits for a transaction's terminal state. It keeps two
// independent budgets: MaxAttempts bounds the whole loop, and
// FailureDetailAttempts bounds how long a candidate failure may wait
// for its diagnostic comment to appear. Execution failures and their
// human-readable diagnostics are not guaranteed to show up in the same
// poll, so conflating the two budgets would either give up on detail
// too early or poll forever.
type Poller struct {
	Client                StatusReader
	MaxAttempts           int
	Delay                 time.Duration
	FailureDetailAttempts int
	Logger                *slog.Logger

	// sleep is swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Poller with defaults filled in for zero options.
func New(client StatusReader, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		Client:                client,
		MaxAttempts:           DefaultMaxAttempts,
		Delay:                 DefaultDelay,
		FailureDetailAttempts: DefaultFailureDetailAttempts,
		Logger:                logger,
		sleep:                 sleepCtx,
	}
}

// Wait polls until the transaction reaches a terminal state or the
// attempt budget runs out. It never retries a terminal outcome; the
// caller decides whether to resubmit. A cancelled context ends the
// loop with a timeout outcome: cancellation only ever means "stop
// waiting", never "the transaction failed".
func (p *Poller) Wait(ctx context.Context, hash string) domain.ConfirmationOutcome {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	delay := p.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	graceBudget := p.FailureDetailAttempts
	if graceBudget < 0 {
		graceBudget = DefaultFailureDetailAttempts
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	graceUsed := 0

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		record, err := p.Client.GetTransaction(ctx, hash)
		switch {
		case err != nil:
			// Fetch errors are transient by assumption; the attempt
			// budget caps how long we keep assuming that.
			p.Logger.Warn("confirmation fetch failed",
				"hash", hash, "attempt", attempt, "error", err)

		case record.State == domain.TxStateHalt:
			p.Logger.Info("transaction confirmed", "hash", hash, "attempt", attempt)
			return domain.ConfirmationOutcome{Kind: domain.OutcomeSuccess, Record: record}

		case record.State == domain.TxStateRunning:
			// Still executing.

		default:
			// Candidate failure. The diagnostic comment often lags the
			// state transition by a few polls.
			if record.DebugComment != "" {
				p.Logger.Info("transaction failed",
					"hash", hash, "state", record.State, "comment", record.DebugComment)
				return domain.ConfirmationOutcome{
					Kind:    domain.OutcomeFailure,
					Record:  record,
					Message: record.DebugComment,
				}
			}

			// The budget is exhausted only once it has been overdrawn:
			// a budget of N tolerates N+1 comment-less polls before the
			// failure is declared terminal.
			if graceUsed <= graceBudget {
				graceUsed++
				p.Logger.Debug("failure detail pending",
					"hash", hash, "state", record.State, "grace_used", graceUsed)
				break
			}

			message := failureMessage(record)
			p.Logger.Info("transaction failed without diagnostic",
				"hash", hash, "state", record.State, "message", message)
			return domain.ConfirmationOutcome{
				Kind:    domain.OutcomeFailure,
				Record:  record,
				Message: message,
			}
		}

		if attempt < maxAttempts {
			if err := sleep(ctx, delay); err != nil {
				p.Logger.Warn("confirmation wait cancelled", "hash", hash, "attempt", attempt)
				return domain.ConfirmationOutcome{Kind: domain.OutcomeTimeout}
			}
		}
	}

	p.Logger.Warn("confirmation timed out", "hash", hash, "attempts", maxAttempts)
	return domain.ConfirmationOutcome{Kind: domain.OutcomeTimeout}
}

// failureMessage picks the most specific description available:
// diagnostic comment, then raw execution result, then the bare state.
func failureMessage(record *domain.TransactionRecord) string {
	if record.DebugComment != "" {
		return record.DebugComment
	}
	if record.Result != "" {
		return record.Result
	}
	return string(record.State)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
