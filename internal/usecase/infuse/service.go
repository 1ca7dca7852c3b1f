// Package infuse orchestrates batched carbon-token infusion transfers.
package infuse

import (
	"context"

	"carbonmint/internal/chain/txbuilder"
	"carbonmint/internal/chain/txcodec"
	"carbonmint/internal/domain"
	"carbonmint/internal/usecase/pipeline"
)

const operation = "infuse"

// Selection mirrors one entry of the UI's flat selection queue.
type Selection struct {
	TokenID    string
	InstanceID string
}

// InfuseInput describes an infusion: every selected instance moves
// from the sender into the recipient's custody in one transaction.
type InfuseInput struct {
	Sender     string
	Recipient  string
	Selections []Selection
}

// InfuseService sequences grouping, build, sign and confirm for
// infusions.
type InfuseService struct {
	Builder *txbuilder.Builder
	Runner  *pipeline.Runner
}

// NewInfuseService creates a new InfuseService instance.
func NewInfuseService(builder *txbuilder.Builder, runner *pipeline.Runner) *InfuseService {
	return &InfuseService{Builder: builder, Runner: runner}
}

// Infuse runs the full pipeline for an infusion. The flat selection
// queue is grouped per distinct token first, so the built transaction
// carries one call per token rather than one per instance.
func (s *InfuseService) Infuse(ctx context.Context, input InfuseInput) (res domain.Result) {
	defer s.Runner.Recover(&res)

	sender, err := txcodec.ParseAddress(input.Sender)
	if err != nil {
		return s.Runner.Fail(ctx, operation, "", err)
	}
	recipient, err := txcodec.ParseAddress(input.Recipient)
	if err != nil {
		return s.Runner.Fail(ctx, operation, "", err)
	}

	selections := make([]domain.InfusionSelection, 0, len(input.Selections))
	for _, sel := range input.Selections {
		selections = append(selections, domain.InfusionSelection{
			TokenID:    sel.TokenID,
			InstanceID: sel.InstanceID,
		})
	}

	groups, err := domain.GroupInfusions(selections)
	if err != nil {
		return s.Runner.Fail(ctx, operation, "", domain.WrapValidation(err))
	}

	// The history row carries the first token; the full group list is
	// visible in the transaction itself.
	symbol := groups[0].TokenID

	tx, err := s.Builder.Infuse(txbuilder.InfuseParams{
		Sender:    sender,
		Recipient: recipient,
		Groups:    groups,
	})
	if err != nil {
		return s.Runner.Fail(ctx, operation, symbol, err)
	}

	return s.Runner.Run(ctx, operation, symbol, tx)
}
