package txcodec

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	// AddressPrefix is the human-readable prefix of every account
	// address on the chain.
	AddressPrefix = "carbon1"

	addressVersion = 0x01
	// version byte + ed25519 public key
	addressRawLen = 1 + ed25519.PublicKeySize
)

var (
	ErrAddressPrefix   = errors.New("address must start with " + AddressPrefix)
	ErrAddressEncoding = errors.New("address payload is not valid base58")
	ErrAddressLength   = errors.New("address payload has the wrong length")
	ErrAddressVersion  = errors.New("address version byte is unknown")
)

// Address is a parsed account address: a version byte followed by the
// account's ed25519 public key.
type Address struct {
	raw [addressRawLen]byte
}

// ParseAddress decodes the textual form "carbon1" + base58(version||key).
func ParseAddress(text string) (Address, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, AddressPrefix) {
		return Address{}, fmt.Errorf("%w: %q", ErrAddressPrefix, text)
	}

	payload, err := base58.Decode(text[len(AddressPrefix):])
	if err != nil {
		return Address{}, ErrAddressEncoding
	}
	if len(payload) != addressRawLen {
		return Address{}, fmt.Errorf("%w: got %d bytes", ErrAddressLength, len(payload))
	}
	if payload[0] != addressVersion {
		return Address{}, fmt.Errorf("%w: 0x%02x", ErrAddressVersion, payload[0])
	}

	var a Address
	copy(a.raw[:], payload)
	return a, nil
}

// AddressFromPublicKey builds the address owning the given signing key.
func AddressFromPublicKey(pub ed25519.PublicKey) (Address, error) {
	if len(pub) != ed25519.PublicKeySize {
		return Address{}, ErrAddressLength
	}
	var a Address
	a.raw[0] = addressVersion
	copy(a.raw[1:], pub)
	return a, nil
}

// Text renders the canonical textual form.
func (a Address) Text() string {
	return AddressPrefix + base58.Encode(a.raw[:])
}

// PublicKey returns the embedded ed25519 public key.
func (a Address) PublicKey() ed25519.PublicKey {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, a.raw[1:])
	return key
}

// Bytes returns the raw wire form (version byte included).
func (a Address) Bytes() []byte {
	out := make([]byte, addressRawLen)
	copy(out, a.raw[:])
	return out
}

// IsZero reports whether the address is the unset zero value.
func (a Address) IsZero() bool {
	return a.raw == [addressRawLen]byte{}
}
