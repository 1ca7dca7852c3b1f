// Package deploy orchestrates the creation of a new carbon token.
package deploy

import (
	"context"
	"strings"

	"carbonmint/internal/chain/txbuilder"
	"carbonmint/internal/chain/txcodec"
	"carbonmint/internal/domain"
	"carbonmint/internal/usecase/pipeline"
)

// DeployInput is the validated-at-the-edge parameter record for a
// token deployment. Amounts arrive as human-readable decimal strings.
type DeployInput struct {
	Owner     string
	Symbol    string
	Name      string
	MaxSupply string
	Decimals  uint32
	Fungible  bool
	Royalties string // percent, optional
}

// DeployService sequences build, sign and confirm for deployments.
type DeployService struct {
	Builder *txbuilder.Builder
	Runner  *pipeline.Runner
}

// NewDeployService creates a new DeployService instance.
func NewDeployService(builder *txbuilder.Builder, runner *pipeline.Runner) *DeployService {
	return &DeployService{Builder: builder, Runner: runner}
}

const operation = "deploy"

// Deploy runs the full pipeline for a token deployment. It never
// returns an error: every failure path lands in the result value.
func (s *DeployService) Deploy(ctx context.Context, input DeployInput) (res domain.Result) {
	defer s.Runner.Recover(&res)

	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))

	owner, err := txcodec.ParseAddress(input.Owner)
	if err != nil {
		return s.Runner.Fail(ctx, operation, symbol, err)
	}

	// An empty supply means unlimited; zero is therefore legal here.
	maxSupply, err := domain.ParseAmount(input.MaxSupply, input.Decimals, domain.AmountOptions{
		AllowEmpty: true,
		AllowZero:  true,
	})
	if err != nil {
		return s.Runner.Fail(ctx, operation, symbol, err)
	}

	params := txbuilder.DeployParams{
		Owner:     owner,
		Symbol:    symbol,
		Name:      strings.TrimSpace(input.Name),
		MaxSupply: maxSupply,
		Decimals:  input.Decimals,
		Fungible:  input.Fungible,
	}

	if strings.TrimSpace(input.Royalties) != "" {
		royalties, err := domain.ParseRoyaltiesPercent(input.Royalties)
		if err != nil {
			return s.Runner.Fail(ctx, operation, symbol, err)
		}
		params.Royalties = royalties
	}

	tx, err := s.Builder.Deploy(params)
	if err != nil {
		return s.Runner.Fail(ctx, operation, symbol, err)
	}

	return s.Runner.Run(ctx, operation, symbol, tx)
}
