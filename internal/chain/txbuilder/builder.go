// Package txbuilder assembles unsigned transactions for each wallet
// operation. Builders validate their inputs locally and never touch
// the network; anything invalid fails here, before signing.
package txbuilder

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"carbonmint/internal/chain/txcodec"
	"carbonmint/internal/domain"
)

const (
	tokenContract = "token"

	// DefaultExpiry is applied when the config leaves Expiry unset:
	// submission time + 60s.
	DefaultExpiry = 60 * time.Second
)

var (
	ErrSymbolRequired  = errors.New("token symbol is required")
	ErrNameRequired    = errors.New("token name is required")
	ErrAmountOverCap   = errors.New("amount exceeds the chain's 255-bit maximum")
	ErrPayloadTooLarge = errors.New("transaction payload exceeds the configured cap")
	ErrBadInstanceID   = errors.New("instance id must be an unsigned decimal integer")
)

// FeeConfig bounds the gas a transaction may consume.
type FeeConfig struct {
	GasPrice        uint64
	GasLimitBase    uint64
	GasLimitPerItem uint64
}

// Config carries the chain identity, fee configuration, payload cap and
// expiry window shared by every builder.
type Config struct {
	Nexus           string
	Chain           string
	Fees            FeeConfig
	MaxPayloadBytes int
	Expiry          time.Duration
}

// Builder assembles unsigned transactions. One Builder serves all
// operations; each Build* call is independent and side-effect free.
type Builder struct {
	cfg Config
	now func() time.Time
}

// New creates a Builder. A zero Expiry in cfg falls back to
// DefaultExpiry.
func New(cfg Config) *Builder {
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultExpiry
	}
	return &Builder{cfg: cfg, now: time.Now}
}

// gasBound computes the fee limit for a transaction carrying `items`
// billable items.
func (b *Builder) gasBound(items int) (price, limit *big.Int) {
	price = new(big.Int).SetUint64(b.cfg.Fees.GasPrice)
	limit = new(big.Int).SetUint64(b.cfg.Fees.GasLimitBase)
	per := new(big.Int).SetUint64(b.cfg.Fees.GasLimitPerItem)
	limit.Add(limit, per.Mul(per, big.NewInt(int64(items))))
	return price, limit
}

// allowGas opens every script: it escrows the fee bound from the payer.
func (b *Builder) allowGas(w *txcodec.ScriptWriter, payer txcodec.Address, items int) {
	price, limit := b.gasBound(items)
	w.PushInteger(limit)
	w.PushInteger(price)
	w.PushAddress(payer)
	w.Call("gas", "AllowGas", 3)
}

func (b *Builder) spendGas(w *txcodec.ScriptWriter, payer txcodec.Address) {
	w.PushAddress(payer)
	w.Call("gas", "SpendGas", 1)
}

func (b *Builder) finish(w *txcodec.ScriptWriter, payload []byte) (*txcodec.UnsignedTx, error) {
	if b.cfg.MaxPayloadBytes > 0 && len(payload) > b.cfg.MaxPayloadBytes {
		return nil, domain.WrapValidation(fmt.Errorf("%w: %d > %d bytes",
			ErrPayloadTooLarge, len(payload), b.cfg.MaxPayloadBytes))
	}
	expiry := b.now().Add(b.cfg.Expiry)
	return txcodec.NewUnsignedTx(b.cfg.Nexus, b.cfg.Chain, w.Bytes(), expiry, payload)
}

func checkCap(amount *big.Int) error {
	if amount == nil {
		return domain.WrapValidation(domain.ErrAmountRequired)
	}
	if amount.Cmp(domain.MaxBaseUnits) > 0 {
		return domain.WrapValidation(ErrAmountOverCap)
	}
	return nil
}

// DeployParams describes a token deployment.
type DeployParams struct {
	Owner     txcodec.Address
	Symbol    string
	Name      string
	MaxSupply *big.Int // base units; zero means unlimited
	Decimals  uint32
	Fungible  bool
	Royalties *big.Int // royalties scale; nil when not set
	Payload   []byte
}

// Deploy builds the transaction creating a new token.
func (b *Builder) Deploy(p DeployParams) (*txcodec.UnsignedTx, error) {
	if p.Symbol == "" {
		return nil, domain.WrapValidation(ErrSymbolRequired)
	}
	if p.Name == "" {
		return nil, domain.WrapValidation(ErrNameRequired)
	}
	if p.Owner.IsZero() {
		return nil, domain.WrapValidation(txcodec.ErrAddressLength)
	}
	if err := checkCap(p.MaxSupply); err != nil {
		return nil, err
	}

	var w txcodec.ScriptWriter
	b.allowGas(&w, p.Owner, 1)

	royalties := p.Royalties
	if royalties == nil {
		royalties = big.NewInt(0)
	}
	w.PushInteger(royalties)
	w.PushBool(p.Fungible)
	w.PushInteger(new(big.Int).SetUint64(uint64(p.Decimals)))
	w.PushInteger(p.MaxSupply)
	w.PushString(p.Name)
	w.PushString(p.Symbol)
	w.PushAddress(p.Owner)
	w.Call(tokenContract, "CreateToken", 7)

	b.spendGas(&w, p.Owner)
	return b.finish(&w, p.Payload)
}

// MintFungibleParams describes minting base units of a fungible token.
type MintFungibleParams struct {
	Minter    txcodec.Address
	Recipient txcodec.Address
	Symbol    string
	Amount    *big.Int // base units, > 0
	Payload   []byte
}

// MintFungible builds the transaction minting fungible supply.
func (b *Builder) MintFungible(p MintFungibleParams) (*txcodec.UnsignedTx, error) {
	if p.Symbol == "" {
		return nil, domain.WrapValidation(ErrSymbolRequired)
	}
	if p.Minter.IsZero() || p.Recipient.IsZero() {
		return nil, domain.WrapValidation(txcodec.ErrAddressLength)
	}
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return nil, domain.WrapValidation(domain.ErrAmountZero)
	}
	if err := checkCap(p.Amount); err != nil {
		return nil, err
	}

	var w txcodec.ScriptWriter
	b.allowGas(&w, p.Minter, 1)
	w.PushInteger(p.Amount)
	w.PushString(p.Symbol)
	w.PushAddress(p.Recipient)
	w.PushAddress(p.Minter)
	w.Call(tokenContract, "MintTokens", 4)
	b.spendGas(&w, p.Minter)
	return b.finish(&w, p.Payload)
}

// MintNFTParams describes minting one NFT instance into a series.
type MintNFTParams struct {
	Minter    txcodec.Address
	Recipient txcodec.Address
	Symbol    string
	SeriesID  *big.Int
	ROM       []domain.MetadataField // immutable metadata, schema order
	RAM       []domain.MetadataField // mutable metadata, schema order
	Payload   []byte
}

// MintNFT builds the transaction minting a single NFT with its ROM and
// RAM metadata payloads.
func (b *Builder) MintNFT(p MintNFTParams) (*txcodec.UnsignedTx, error) {
	if p.Symbol == "" {
		return nil, domain.WrapValidation(ErrSymbolRequired)
	}
	if p.Minter.IsZero() || p.Recipient.IsZero() {
		return nil, domain.WrapValidation(txcodec.ErrAddressLength)
	}
	if p.SeriesID == nil || p.SeriesID.Sign() < 0 {
		return nil, domain.Validationf("series id is required")
	}

	var w txcodec.ScriptWriter
	b.allowGas(&w, p.Minter, 1)

	pushMetadata(&w, p.RAM)
	pushMetadata(&w, p.ROM)
	w.PushInteger(p.SeriesID)
	w.PushString(p.Symbol)
	w.PushAddress(p.Recipient)
	w.PushAddress(p.Minter)
	w.Call(tokenContract, "MintToken", 6)

	b.spendGas(&w, p.Minter)
	return b.finish(&w, p.Payload)
}

// CreateSeriesParams describes opening a new NFT series under a token.
type CreateSeriesParams struct {
	Owner     txcodec.Address
	Symbol    string
	SeriesID  *big.Int
	MaxSupply *big.Int // instances mintable under the series; zero means unlimited
	Royalties *big.Int
	Payload   []byte
}

// CreateSeries builds the transaction opening a series.
func (b *Builder) CreateSeries(p CreateSeriesParams) (*txcodec.UnsignedTx, error) {
	if p.Symbol == "" {
		return nil, domain.WrapValidation(ErrSymbolRequired)
	}
	if p.Owner.IsZero() {
		return nil, domain.WrapValidation(txcodec.ErrAddressLength)
	}
	if p.SeriesID == nil || p.SeriesID.Sign() < 0 {
		return nil, domain.Validationf("series id is required")
	}
	if err := checkCap(p.MaxSupply); err != nil {
		return nil, err
	}

	var w txcodec.ScriptWriter
	b.allowGas(&w, p.Owner, 1)

	royalties := p.Royalties
	if royalties == nil {
		royalties = big.NewInt(0)
	}
	w.PushInteger(royalties)
	w.PushInteger(p.MaxSupply)
	w.PushInteger(p.SeriesID)
	w.PushString(p.Symbol)
	w.PushAddress(p.Owner)
	w.Call(tokenContract, "CreateTokenSeries", 5)

	b.spendGas(&w, p.Owner)
	return b.finish(&w, p.Payload)
}

// pushMetadata pushes a metadata block: each field's typed value and
// name, then the field count.
func pushMetadata(w *txcodec.ScriptWriter, fields []domain.MetadataField) {
	for i := len(fields) - 1; i >= 0; i-- {
		w.PushTypedValue(fields[i].Value)
		w.PushString(fields[i].Name)
	}
	w.PushInteger(big.NewInt(int64(len(fields))))
}
