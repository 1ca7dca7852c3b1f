package confirm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbonmint/internal/domain"
)

// scriptedReader replays a fixed status sequence; the last entry
// repeats forever.
type scriptedReader struct {
	records []*domain.TransactionRecord
	errs    []error
	calls   int
}

func (r *scriptedReader) GetTransaction(_ context.Context, hash string) (*domain.TransactionRecord, error) {
	i := r.calls
	if i >= len(r.records) {
		i = len(r.records) - 1
	}
	r.calls++
	if r.errs != nil && r.errs[i] != nil {
		return nil, r.errs[i]
	}
	rec := r.records[i]
	out := *rec
	out.Hash = hash
	return &out, nil
}

func running() *domain.TransactionRecord {
	return &domain.TransactionRecord{State: domain.TxStateRunning}
}

func halted() *domain.TransactionRecord {
	return &domain.TransactionRecord{State: domain.TxStateHalt, Result: "ok"}
}

func faulted(comment string) *domain.TransactionRecord {
	return &domain.TransactionRecord{State: "fault", Result: "vm fault", DebugComment: comment}
}

// newTestPoller counts sleeps instead of sleeping.
func newTestPoller(reader StatusReader, sleeps *int) *Poller {
	p := New(reader, nil)
	p.sleep = func(context.Context, time.Duration) error {
		*sleeps++
		return nil
	}
	return p
}

func TestWait_SuccessAfterRunning(t *testing.T) {
	reader := &scriptedReader{records: []*domain.TransactionRecord{running(), running(), halted()}}
	sleeps := 0
	p := newTestPoller(reader, &sleeps)

	outcome := p.Wait(context.Background(), "h1")

	assert.Equal(t, domain.OutcomeSuccess, outcome.Kind)
	require.NotNil(t, outcome.Record)
	assert.Equal(t, "h1", outcome.Record.Hash)
	assert.Equal(t, 3, reader.calls, "success on the 3rd attempt")
	assert.Equal(t, 2, sleeps, "exactly 2 sleeps before the 3rd attempt")
}

func TestWait_TimeoutAfterMaxAttempts(t *testing.T) {
	reader := &scriptedReader{records: []*domain.TransactionRecord{running()}}
	sleeps := 0
	p := newTestPoller(reader, &sleeps)
	p.MaxAttempts = 3

	outcome := p.Wait(context.Background(), "h2")

	assert.Equal(t, domain.OutcomeTimeout, outcome.Kind)
	assert.Equal(t, 3, reader.calls, "exactly 3 attempts")
}

func TestWait_ImmediateFailureWithComment(t *testing.T) {
	reader := &scriptedReader{records: []*domain.TransactionRecord{faulted("insufficient gas")}}
	sleeps := 0
	p := newTestPoller(reader, &sleeps)

	outcome := p.Wait(context.Background(), "h3")

	assert.Equal(t, domain.OutcomeFailure, outcome.Kind)
	assert.Equal(t, "insufficient gas", outcome.Message)
	assert.Equal(t, 1, reader.calls)
	assert.Zero(t, sleeps)
}

func TestWait_GraceBudgetWaitsForDiagnostic(t *testing.T) {
	// failureDetailAttempts+1 consecutive faulted polls without a
	// comment, then the comment appears: the outcome must carry that
	// comment, never the earlier generic state-name message.
	records := []*domain.TransactionRecord{
		faulted(""), faulted(""), faulted(""),
		faulted("storage write denied"),
	}
	reader := &scriptedReader{records: records}
	sleeps := 0
	p := newTestPoller(reader, &sleeps)
	p.FailureDetailAttempts = 2

	outcome := p.Wait(context.Background(), "h4")

	assert.Equal(t, domain.OutcomeFailure, outcome.Kind)
	assert.Equal(t, "storage write denied", outcome.Message)
	assert.Equal(t, 4, reader.calls)
}

func TestWait_GraceBudgetOverdrawn(t *testing.T) {
	// Once the grace budget is overdrawn the failure is terminal even
	// though no comment ever appeared; the message falls back to the
	// raw execution result.
	reader := &scriptedReader{records: []*domain.TransactionRecord{faulted("")}}
	sleeps := 0
	p := newTestPoller(reader, &sleeps)
	p.FailureDetailAttempts = 2

	outcome := p.Wait(context.Background(), "h5")

	assert.Equal(t, domain.OutcomeFailure, outcome.Kind)
	assert.Equal(t, "vm fault", outcome.Message)
	assert.Equal(t, 4, reader.calls, "budget+1 grace polls, terminal on the next")
}

func TestWait_FailureMessagePreference(t *testing.T) {
	t.Run("falls back to state name when nothing else is set", func(t *testing.T) {
		rec := &domain.TransactionRecord{State: "fault"}
		reader := &scriptedReader{records: []*domain.TransactionRecord{rec}}
		sleeps := 0
		p := newTestPoller(reader, &sleeps)
		p.FailureDetailAttempts = 0

		outcome := p.Wait(context.Background(), "h6")
		assert.Equal(t, domain.OutcomeFailure, outcome.Kind)
		assert.Equal(t, "fault", outcome.Message)
		assert.Equal(t, 2, reader.calls)
	})
}

func TestWait_FetchErrorsAreNonTerminal(t *testing.T) {
	reader := &scriptedReader{
		records: []*domain.TransactionRecord{nil, nil, halted()},
		errs:    []error{errors.New("503"), errors.New("timeout"), nil},
	}
	sleeps := 0
	p := newTestPoller(reader, &sleeps)

	outcome := p.Wait(context.Background(), "h7")

	assert.Equal(t, domain.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, 3, reader.calls)
}

func TestWait_CancelledContextYieldsTimeout(t *testing.T) {
	reader := &scriptedReader{records: []*domain.TransactionRecord{running()}}
	p := New(reader, nil)
	p.Delay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := p.Wait(ctx, "h8")
	assert.Equal(t, domain.OutcomeTimeout, outcome.Kind)
}
