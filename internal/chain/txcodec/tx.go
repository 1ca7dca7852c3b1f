// Package txcodec serializes validated domain values into unsigned,
// signable transactions. Callers treat the resulting layout as opaque:
// nothing outside this package inspects the wire bytes.
package txcodec

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/crypto/blake2b"
)

var (
	ErrEmptyScript = errors.New("transaction script is empty")
	ErrNoNexus     = errors.New("nexus and chain names are required")
)

// UnsignedTx is a fully assembled transaction awaiting a signature.
type UnsignedTx struct {
	NexusName string
	ChainName string
	Script    []byte
	Expiry    time.Time
	Payload   []byte
}

// NewUnsignedTx assembles a transaction envelope around a script.
func NewUnsignedTx(nexus, chain string, script []byte, expiry time.Time, payload []byte) (*UnsignedTx, error) {
	if nexus == "" || chain == "" {
		return nil, ErrNoNexus
	}
	if len(script) == 0 {
		return nil, ErrEmptyScript
	}
	return &UnsignedTx{
		NexusName: nexus,
		ChainName: chain,
		Script:    script,
		Expiry:    expiry.UTC(),
		Payload:   payload,
	}, nil
}

// Serialize renders the canonical unsigned wire form: the bytes the
// wallet signs.
func (tx *UnsignedTx) Serialize() []byte {
	var out []byte
	out = appendLenPrefixed(out, []byte(tx.NexusName))
	out = appendLenPrefixed(out, []byte(tx.ChainName))
	out = appendLenPrefixed(out, tx.Script)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(tx.Expiry.Unix()))
	out = append(out, ts[:]...)
	out = appendLenPrefixed(out, tx.Payload)
	return out
}

// Hash returns the blake2b-256 digest of the unsigned wire form.
func (tx *UnsignedTx) Hash() [32]byte {
	return blake2b.Sum256(tx.Serialize())
}

// ID is the lowercase hex rendering of Hash, as shown to users.
func (tx *UnsignedTx) ID() string {
	h := tx.Hash()
	return hex.EncodeToString(h[:])
}

func appendLenPrefixed(dst, data []byte) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(data)))
	dst = append(dst, tmp[:n]...)
	return append(dst, data...)
}
