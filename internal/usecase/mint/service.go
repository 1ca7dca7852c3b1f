// Package mint orchestrates fungible minting and NFT minting.
package mint

import (
	"context"
	"math/big"
	"sort"
	"strings"

	"carbonmint/internal/chain/txbuilder"
	"carbonmint/internal/chain/txcodec"
	"carbonmint/internal/domain"
	"carbonmint/internal/usecase/pipeline"
)

const (
	opMintFungible = "mint-fungible"
	opMintNFT      = "mint-nft"
)

// ReservedMetadataNames are schema fields the chain populates itself;
// user input never supplies them.
var ReservedMetadataNames = map[string]struct{}{
	"id":       {},
	"mintedAt": {},
	"minter":   {},
}

// MintFungibleInput describes minting supply of a fungible token.
type MintFungibleInput struct {
	Minter    string
	Recipient string
	Symbol    string
	Amount    string
}

// MintNFTInput describes minting one NFT instance into a series.
type MintNFTInput struct {
	Minter    string
	Recipient string
	Symbol    string
	SeriesID  string
	RomValues map[string]string
	RamValues map[string]string
}

// MintService handles both mint operations. The token descriptor is
// fetched from the chain so amounts use the token's real decimals and
// ROM fields follow its live schema.
type MintService struct {
	Chain   domain.ChainReader
	Builder *txbuilder.Builder
	Runner  *pipeline.Runner
}

// NewMintService creates a new MintService instance.
func NewMintService(chain domain.ChainReader, builder *txbuilder.Builder, runner *pipeline.Runner) *MintService {
	return &MintService{Chain: chain, Builder: builder, Runner: runner}
}

// MintFungible runs the pipeline for a fungible mint.
func (s *MintService) MintFungible(ctx context.Context, input MintFungibleInput) (res domain.Result) {
	defer s.Runner.Recover(&res)

	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))

	minter, err := txcodec.ParseAddress(input.Minter)
	if err != nil {
		return s.Runner.Fail(ctx, opMintFungible, symbol, err)
	}
	recipient, err := txcodec.ParseAddress(input.Recipient)
	if err != nil {
		return s.Runner.Fail(ctx, opMintFungible, symbol, err)
	}

	token, err := s.Chain.GetToken(ctx, symbol)
	if err != nil {
		return s.Runner.Fail(ctx, opMintFungible, symbol, err)
	}

	amount, err := domain.ParseAmount(input.Amount, token.Decimals, domain.AmountOptions{})
	if err != nil {
		return s.Runner.Fail(ctx, opMintFungible, symbol, err)
	}

	tx, err := s.Builder.MintFungible(txbuilder.MintFungibleParams{
		Minter:    minter,
		Recipient: recipient,
		Symbol:    symbol,
		Amount:    amount,
	})
	if err != nil {
		return s.Runner.Fail(ctx, opMintFungible, symbol, err)
	}

	return s.Runner.Run(ctx, opMintFungible, symbol, tx)
}

// MintNFT runs the pipeline for an NFT mint. ROM metadata is resolved
// against the token's schema before anything is built; a missing or
// invalid field never reaches the wallet.
func (s *MintService) MintNFT(ctx context.Context, input MintNFTInput) (res domain.Result) {
	defer s.Runner.Recover(&res)

	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))

	minter, err := txcodec.ParseAddress(input.Minter)
	if err != nil {
		return s.Runner.Fail(ctx, opMintNFT, symbol, err)
	}
	recipient, err := txcodec.ParseAddress(input.Recipient)
	if err != nil {
		return s.Runner.Fail(ctx, opMintNFT, symbol, err)
	}

	seriesID, ok := new(big.Int).SetString(strings.TrimSpace(input.SeriesID), 10)
	if !ok || seriesID.Sign() < 0 {
		return s.Runner.Fail(ctx, opMintNFT, symbol,
			domain.Validationf("series id must be an unsigned integer"))
	}

	token, err := s.Chain.GetToken(ctx, symbol)
	if err != nil {
		return s.Runner.Fail(ctx, opMintNFT, symbol, err)
	}

	rom, err := domain.BuildMetadata(token.Schema, input.RomValues, ReservedMetadataNames)
	if err != nil {
		return s.Runner.Fail(ctx, opMintNFT, symbol, domain.WrapValidation(err))
	}

	// RAM fields are free form: the mutable payload has no schema, so
	// every provided value rides along as a string, in name order to
	// keep the script deterministic.
	names := make([]string, 0, len(input.RamValues))
	for name := range input.RamValues {
		names = append(names, name)
	}
	sort.Strings(names)
	ram := make([]domain.MetadataField, 0, len(names))
	for _, name := range names {
		ram = append(ram, domain.MetadataField{
			Name: name,
			Type: domain.VMTypeString,
			Value: domain.TypedValue{
				Kind: domain.ValueKindString,
				Str:  input.RamValues[name],
			},
		})
	}

	tx, err := s.Builder.MintNFT(txbuilder.MintNFTParams{
		Minter:    minter,
		Recipient: recipient,
		Symbol:    symbol,
		SeriesID:  seriesID,
		ROM:       rom,
		RAM:       ram,
	})
	if err != nil {
		return s.Runner.Fail(ctx, opMintNFT, symbol, err)
	}

	return s.Runner.Run(ctx, opMintNFT, symbol, tx)
}
