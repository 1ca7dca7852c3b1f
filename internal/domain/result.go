package domain

// TxState is the execution state string the node API reports for a
// submitted transaction.
type TxState string

const (
	// TxStateRunning means the transaction is still executing.
	TxStateRunning TxState = "running"
	// TxStateHalt means execution completed successfully.
	TxStateHalt TxState = "halt"
	// Anything else (fault, break, unknown states added by newer node
	// versions) is a candidate failure.
)

// TransactionRecord is the node API's view of a submitted transaction.
type TransactionRecord struct {
	Hash         string
	State        TxState
	Result       string
	DebugComment string
}

// SignedTxHandle is what the wallet hands back after a signing attempt.
// An empty Hash means the wallet accepted the transaction but has not
// broadcast it yet; callers treat that as pending and skip confirmation.
type SignedTxHandle struct {
	Hash             string
	WalletInternalID int64
	Success          bool
}

// OutcomeKind discriminates a ConfirmationOutcome.
type OutcomeKind int

const (
	// OutcomeSuccess: the transaction halted, execution succeeded.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeFailure: the transaction terminally failed on chain.
	OutcomeFailure
	// OutcomeTimeout: the outcome is still unknown after the attempt
	// budget; it does NOT assert failure.
	OutcomeTimeout
)

// ConfirmationOutcome is the terminal result of one confirmation loop.
type ConfirmationOutcome struct {
	Kind    OutcomeKind
	Record  *TransactionRecord
	Message string
}

// Submission statuses recorded in the history store and reported to
// callers.
const (
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
	StatusTimeout   = "timeout"
	StatusPending   = "pending"
	StatusRejected  = "rejected"
)

// Result is the uniform value every orchestrator returns. No error ever
// crosses an orchestrator boundary; failures are carried here.
type Result struct {
	Success bool   `json:"success"`
	TxHash  string `json:"txHash,omitempty"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok builds a success result.
func Ok(txHash, status string) Result {
	return Result{Success: true, TxHash: txHash, Status: status}
}

// Fail builds a failure result.
func Fail(txHash, message string) Result {
	return Result{Success: false, TxHash: txHash, Error: message}
}
