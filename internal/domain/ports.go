package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenInfo is the chain's description of a deployed token.
type TokenInfo struct {
	Symbol    string
	Name      string
	Decimals  uint32
	Fungible  bool
	MaxSupply string
	Schema    []SchemaField
}

// Account is the chain's view of an address, as used by the read-only
// listing endpoints.
type Account struct {
	Address  string
	Name     string
	Balances map[string]string
}

// ChainReader reads chain state through the node API. Implementations
// perform network I/O; everything else in the pipeline stays local.
type ChainReader interface {
	// GetTransaction fetches the execution record for a submitted
	// transaction hash.
	GetTransaction(ctx context.Context, hash string) (*TransactionRecord, error)

	// GetToken fetches a token's descriptor, including its metadata
	// schema and decimals.
	GetToken(ctx context.Context, symbol string) (*TokenInfo, error)

	// GetAccount fetches an account by address.
	GetAccount(ctx context.Context, address string) (*Account, error)
}

// Submission is one pipeline run recorded for the history view.
type Submission struct {
	ID        uuid.UUID
	Operation string
	Symbol    string
	TxHash    string
	Status    string
	Error     string
	CreatedAt time.Time
}

// SubmissionRepository persists submission history.
type SubmissionRepository interface {
	// Create records a finished submission.
	Create(ctx context.Context, sub *Submission) error

	// List retrieves a paginated history slice, newest first.
	// If symbol is empty, submissions for all tokens are returned.
	List(ctx context.Context, limit, offset int, symbol string) ([]*Submission, error)

	// Count returns the total number of recorded submissions,
	// optionally filtered by symbol.
	Count(ctx context.Context, symbol string) (int, error)
}
