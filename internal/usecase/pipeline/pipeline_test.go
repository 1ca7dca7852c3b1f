package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carbonmint/internal/chain/txcodec"
	"carbonmint/internal/domain"
)

type fakeSigner struct {
	handle domain.SignedTxHandle
	err    error
	calls  int
}

func (s *fakeSigner) Sign(context.Context, *txcodec.UnsignedTx) (domain.SignedTxHandle, error) {
	s.calls++
	return s.handle, s.err
}

type fakeConfirmer struct {
	outcome domain.ConfirmationOutcome
	calls   int
	gotHash string
}

func (c *fakeConfirmer) Wait(_ context.Context, hash string) domain.ConfirmationOutcome {
	c.calls++
	c.gotHash = hash
	return c.outcome
}

// MockSubmissionRepository is a mock implementation of
// domain.SubmissionRepository for testing.
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(ctx context.Context, sub *domain.Submission) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubmissionRepository) List(ctx context.Context, limit, offset int, symbol string) ([]*domain.Submission, error) {
	args := m.Called(ctx, limit, offset, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) Count(ctx context.Context, symbol string) (int, error) {
	args := m.Called(ctx, symbol)
	return args.Int(0), args.Error(1)
}

func testTx(t *testing.T) *txcodec.UnsignedTx {
	t.Helper()
	var w txcodec.ScriptWriter
	w.PushString("CARBON")
	w.Call("token", "MintTokens", 1)
	tx, err := txcodec.NewUnsignedTx("mainnet", "main", w.Bytes(), time.Now().Add(time.Minute), nil)
	require.NoError(t, err)
	return tx
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmed success", func(t *testing.T) {
		signer := &fakeSigner{handle: domain.SignedTxHandle{Hash: "0xabc", Success: true}}
		confirmer := &fakeConfirmer{outcome: domain.ConfirmationOutcome{Kind: domain.OutcomeSuccess}}
		r := &Runner{Signer: signer, Confirmer: confirmer}

		res := r.Run(ctx, "deploy", "CARBON", testTx(t))

		assert.True(t, res.Success)
		assert.Equal(t, "0xabc", res.TxHash)
		assert.Equal(t, domain.StatusConfirmed, res.Status)
		assert.Equal(t, "0xabc", confirmer.gotHash)
	})

	t.Run("on-chain failure carries the diagnostic", func(t *testing.T) {
		signer := &fakeSigner{handle: domain.SignedTxHandle{Hash: "0xabc", Success: true}}
		confirmer := &fakeConfirmer{outcome: domain.ConfirmationOutcome{
			Kind:    domain.OutcomeFailure,
			Message: "insufficient gas",
		}}
		r := &Runner{Signer: signer, Confirmer: confirmer}

		res := r.Run(ctx, "deploy", "CARBON", testTx(t))

		assert.False(t, res.Success)
		assert.Equal(t, "insufficient gas", res.Error)
		assert.Equal(t, "0xabc", res.TxHash)
	})

	t.Run("timeout stays distinct from failure", func(t *testing.T) {
		signer := &fakeSigner{handle: domain.SignedTxHandle{Hash: "0xabc", Success: true}}
		confirmer := &fakeConfirmer{outcome: domain.ConfirmationOutcome{Kind: domain.OutcomeTimeout}}
		r := &Runner{Signer: signer, Confirmer: confirmer}

		res := r.Run(ctx, "deploy", "CARBON", testTx(t))

		assert.False(t, res.Success)
		assert.Equal(t, domain.StatusTimeout, res.Status)
		assert.Contains(t, res.Error, "unknown")
	})

	t.Run("empty hash short-circuits to pending without confirmation", func(t *testing.T) {
		signer := &fakeSigner{handle: domain.SignedTxHandle{Hash: "", Success: true}}
		confirmer := &fakeConfirmer{}
		r := &Runner{Signer: signer, Confirmer: confirmer}

		res := r.Run(ctx, "deploy", "CARBON", testTx(t))

		assert.True(t, res.Success)
		assert.Equal(t, domain.StatusPending, res.Status)
		assert.Empty(t, res.TxHash)
		assert.Zero(t, confirmer.calls, "confirmation must be skipped")
	})

	t.Run("signing rejection becomes a failure result", func(t *testing.T) {
		signer := &fakeSigner{err: &domain.PipelineError{
			Kind: domain.KindRejection,
			Err:  assert.AnError,
		}}
		confirmer := &fakeConfirmer{}
		r := &Runner{Signer: signer, Confirmer: confirmer}

		res := r.Run(ctx, "deploy", "CARBON", testTx(t))

		assert.False(t, res.Success)
		assert.Equal(t, assert.AnError.Error(), res.Error)
		assert.Zero(t, confirmer.calls)
	})

	t.Run("submission history records the outcome", func(t *testing.T) {
		signer := &fakeSigner{handle: domain.SignedTxHandle{Hash: "0xabc", Success: true}}
		confirmer := &fakeConfirmer{outcome: domain.ConfirmationOutcome{Kind: domain.OutcomeSuccess}}

		repo := new(MockSubmissionRepository)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(sub *domain.Submission) bool {
			return sub.Operation == "deploy" &&
				sub.Symbol == "CARBON" &&
				sub.TxHash == "0xabc" &&
				sub.Status == domain.StatusConfirmed
		})).Return(nil)

		r := &Runner{Signer: signer, Confirmer: confirmer, Submissions: repo}
		res := r.Run(ctx, "deploy", "CARBON", testTx(t))

		assert.True(t, res.Success)
		repo.AssertExpectations(t)
	})

	t.Run("history write failures never flip the result", func(t *testing.T) {
		signer := &fakeSigner{handle: domain.SignedTxHandle{Hash: "0xabc", Success: true}}
		confirmer := &fakeConfirmer{outcome: domain.ConfirmationOutcome{Kind: domain.OutcomeSuccess}}

		repo := new(MockSubmissionRepository)
		repo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

		r := &Runner{Signer: signer, Confirmer: confirmer, Submissions: repo}
		res := r.Run(ctx, "deploy", "CARBON", testTx(t))

		assert.True(t, res.Success)
	})
}

func TestRunner_Recover(t *testing.T) {
	r := &Runner{}

	run := func() (res domain.Result) {
		defer r.Recover(&res)
		panic("boom")
	}

	res := run()
	assert.False(t, res.Success)
	assert.Equal(t, "internal error", res.Error)
}
