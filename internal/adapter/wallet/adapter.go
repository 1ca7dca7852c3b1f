// Package wallet bridges the callback-driven wallet signing API into a
// single awaitable call, and provides a local signing backend for
// environments without a browser wallet.
package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"carbonmint/internal/chain/txcodec"
	"carbonmint/internal/domain"
)

// Messages surfaced to callers; the UI shows them verbatim.
const (
	msgRejected   = "Wallet rejected transaction"
	msgUnexpected = "Unexpected wallet response"
)

// SignerBackend is the external sign-and-broadcast API. The contract:
// exactly one callback fires exactly once, or the call fails
// synchronously (by returned error or panic). onResult receives the
// wallet's raw response payload.
type SignerBackend interface {
	SignAndBroadcast(tx *txcodec.UnsignedTx, onResult func(payload json.RawMessage), onError func(err error))
}

// Adapter converts the callback contract into one awaited result. No
// retry happens here: one signing attempt per logical submission.
type Adapter struct {
	Backend SignerBackend
	Logger  *slog.Logger
}

// NewAdapter creates an Adapter around a signing backend.
func NewAdapter(backend SignerBackend, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{Backend: backend, Logger: logger}
}

type signOutcome struct {
	handle domain.SignedTxHandle
	err    error
}

// Sign submits the unsigned transaction to the wallet and waits for
// the single resolution. Every failure path (synchronous panic,
// asynchronous error callback, malformed success payload, explicit
// success=false) lands on the same rejection channel so callers
// handle one failure type.
func (a *Adapter) Sign(ctx context.Context, tx *txcodec.UnsignedTx) (domain.SignedTxHandle, error) {
	ch := make(chan signOutcome, 1)
	var once sync.Once
	resolve := func(o signOutcome) {
		once.Do(func() { ch <- o })
	}

	onResult := func(payload json.RawMessage) {
		handle, err := decodeSignPayload(payload)
		resolve(signOutcome{handle: handle, err: err})
	}
	onError := func(err error) {
		resolve(signOutcome{err: &domain.PipelineError{Kind: domain.KindRejection, Err: err}})
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				a.Logger.Error("wallet backend panicked", "panic", r)
				resolve(signOutcome{err: &domain.PipelineError{
					Kind: domain.KindRejection,
					Err:  fmt.Errorf("wallet signing failed: %v", r),
				}})
			}
		}()
		a.Backend.SignAndBroadcast(tx, onResult, onError)
	}()

	select {
	case out := <-ch:
		return out.handle, out.err
	case <-ctx.Done():
		return domain.SignedTxHandle{}, &domain.PipelineError{Kind: domain.KindTimeout, Err: ctx.Err()}
	}
}

// signEnvelope mirrors the wallet's success payload. Pointer fields
// let us tell "absent" apart from zero values.
type signEnvelope struct {
	Hash    *string `json:"hash"`
	ID      *int64  `json:"id"`
	Success *bool   `json:"success"`
	Error   string  `json:"error"`
}

func decodeSignPayload(payload json.RawMessage) (domain.SignedTxHandle, error) {
	var env signEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return domain.SignedTxHandle{}, protocolErr()
	}

	// A declined signing may carry nothing but the verdict and its
	// message; only a successful resolution needs the full envelope.
	if env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = msgRejected
		}
		return domain.SignedTxHandle{}, &domain.PipelineError{
			Kind: domain.KindRejection,
			Err:  fmt.Errorf("%s", msg),
		}
	}

	if env.Hash == nil || env.ID == nil || env.Success == nil {
		return domain.SignedTxHandle{}, protocolErr()
	}

	return domain.SignedTxHandle{
		Hash:             *env.Hash,
		WalletInternalID: *env.ID,
		Success:          true,
	}, nil
}

func protocolErr() error {
	return &domain.PipelineError{Kind: domain.KindProtocol, Err: fmt.Errorf("%s", msgUnexpected)}
}
