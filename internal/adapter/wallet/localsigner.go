package wallet

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"

	"carbonmint/internal/chain/txcodec"
)

const (
	hkdfInfoSigning = "carbonmint/signing/v1"

	defaultBroadcastTimeout = 20 * time.Second
)

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// Broadcaster submits a signed transaction to the node and returns its
// hash.
type Broadcaster interface {
	SendTransaction(ctx context.Context, raw []byte) (string, error)
}

// LocalSigner is a SignerBackend that signs with a key derived from a
// BIP-39 mnemonic and broadcasts through the node API directly. It
// exists so the service can run end to end without a browser wallet.
type LocalSigner struct {
	priv    ed25519.PrivateKey
	addr    txcodec.Address
	node    Broadcaster
	timeout time.Duration
	nextID  atomic.Int64
}

// NewLocalSigner derives the signing key from the mnemonic and wires
// the broadcaster.
func NewLocalSigner(mnemonic string, node Broadcaster) (*LocalSigner, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, "")
	signingSeed, err := hkdfExpand(seed, hkdfInfoSigning, ed25519.SeedSize)
	if err != nil {
		return nil, err
	}

	priv := ed25519.NewKeyFromSeed(signingSeed)
	addr, err := txcodec.AddressFromPublicKey(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}

	return &LocalSigner{
		priv:    priv,
		addr:    addr,
		node:    node,
		timeout: defaultBroadcastTimeout,
	}, nil
}

// NewMnemonic generates a fresh 24-word mnemonic for ephemeral dev
// wallets.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// Address returns the signer's account address.
func (s *LocalSigner) Address() txcodec.Address { return s.addr }

// SignAndBroadcast implements SignerBackend. Signing is synchronous;
// the broadcast runs in its own goroutine and reports through exactly
// one callback.
func (s *LocalSigner) SignAndBroadcast(tx *txcodec.UnsignedTx, onResult func(payload json.RawMessage), onError func(err error)) {
	unsigned := tx.Serialize()
	signature := ed25519.Sign(s.priv, unsigned)

	raw := make([]byte, 0, len(unsigned)+len(signature)+len(s.priv.Public().(ed25519.PublicKey)))
	raw = append(raw, unsigned...)
	raw = append(raw, s.priv.Public().(ed25519.PublicKey)...)
	raw = append(raw, signature...)

	id := s.nextID.Add(1)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		hash, err := s.node.SendTransaction(ctx, raw)
		if err != nil {
			onError(err)
			return
		}

		payload, err := json.Marshal(map[string]any{
			"hash":    hash,
			"id":      id,
			"success": true,
		})
		if err != nil {
			onError(err)
			return
		}
		onResult(payload)
	}()
}

func hkdfExpand(seed []byte, info string, outLen int) ([]byte, error) {
	reader := hkdf.New(sha256.New, seed, nil, []byte(info))
	out := make([]byte, outLen)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}
