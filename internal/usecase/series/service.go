// Package series orchestrates opening a new NFT series under a token.
package series

import (
	"context"
	"math/big"
	"strings"

	"carbonmint/internal/chain/txbuilder"
	"carbonmint/internal/chain/txcodec"
	"carbonmint/internal/domain"
	"carbonmint/internal/usecase/pipeline"
)

const operation = "create-series"

// CreateSeriesInput describes a new series of a non-fungible token.
type CreateSeriesInput struct {
	Owner     string
	Symbol    string
	SeriesID  string
	MaxSupply string // instances mintable under the series; empty means unlimited
	Royalties string // percent, optional
}

// SeriesService sequences build, sign and confirm for series creation.
type SeriesService struct {
	Chain   domain.ChainReader
	Builder *txbuilder.Builder
	Runner  *pipeline.Runner
}

// NewSeriesService creates a new SeriesService instance.
func NewSeriesService(chain domain.ChainReader, builder *txbuilder.Builder, runner *pipeline.Runner) *SeriesService {
	return &SeriesService{Chain: chain, Builder: builder, Runner: runner}
}

// CreateSeries runs the full pipeline for opening a series. The token
// must exist and be non-fungible; both checks happen before signing.
func (s *SeriesService) CreateSeries(ctx context.Context, input CreateSeriesInput) (res domain.Result) {
	defer s.Runner.Recover(&res)

	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))

	owner, err := txcodec.ParseAddress(input.Owner)
	if err != nil {
		return s.Runner.Fail(ctx, operation, symbol, err)
	}

	seriesID, ok := new(big.Int).SetString(strings.TrimSpace(input.SeriesID), 10)
	if !ok || seriesID.Sign() < 0 {
		return s.Runner.Fail(ctx, operation, symbol,
			domain.Validationf("series id must be an unsigned integer"))
	}

	token, err := s.Chain.GetToken(ctx, symbol)
	if err != nil {
		return s.Runner.Fail(ctx, operation, symbol, err)
	}
	if token.Fungible {
		return s.Runner.Fail(ctx, operation, symbol,
			domain.Validationf("token %s is fungible and cannot carry series", symbol))
	}

	// Series instance counts are whole numbers; decimals do not apply.
	maxSupply, err := domain.ParseAmount(input.MaxSupply, 0, domain.AmountOptions{
		AllowEmpty: true,
		AllowZero:  true,
	})
	if err != nil {
		return s.Runner.Fail(ctx, operation, symbol, err)
	}

	params := txbuilder.CreateSeriesParams{
		Owner:     owner,
		Symbol:    symbol,
		SeriesID:  seriesID,
		MaxSupply: maxSupply,
	}

	if strings.TrimSpace(input.Royalties) != "" {
		royalties, err := domain.ParseRoyaltiesPercent(input.Royalties)
		if err != nil {
			return s.Runner.Fail(ctx, operation, symbol, err)
		}
		params.Royalties = royalties
	}

	tx, err := s.Builder.CreateSeries(params)
	if err != nil {
		return s.Runner.Fail(ctx, operation, symbol, err)
	}

	return s.Runner.Run(ctx, operation, symbol, tx)
}
