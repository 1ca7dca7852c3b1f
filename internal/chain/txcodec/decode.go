package txcodec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"
)

var ErrScriptTruncated = errors.New("script is truncated")

// OpKind discriminates decoded script operations.
type OpKind int

const (
	OpKindPush OpKind = iota
	OpKindCall
)

// Op is one decoded script operation. Exactly one group of fields is
// populated depending on Kind.
type Op struct {
	Kind OpKind

	// Push fields
	Tag     byte
	Bytes   []byte
	Str     string
	Int     *big.Int
	Bool    bool
	Address Address

	// Call fields
	Contract string
	Method   string
	Argc     int
}

// DecodeScript walks a serialized script back into its operation list.
// Used by diagnostics and tests; the chain VM is the real consumer.
func DecodeScript(script []byte) ([]Op, error) {
	r := bytes.NewReader(script)
	var ops []Op

	for r.Len() > 0 {
		opcode, err := r.ReadByte()
		if err != nil {
			return nil, ErrScriptTruncated
		}

		switch opcode {
		case opPush:
			op, err := decodePush(r)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)

		case opCall:
			contract, err := readLenPrefixed(r)
			if err != nil {
				return nil, err
			}
			method, err := readLenPrefixed(r)
			if err != nil {
				return nil, err
			}
			argc, err := binary.ReadUvarint(r)
			if err != nil {
				return nil, ErrScriptTruncated
			}
			ops = append(ops, Op{
				Kind:     OpKindCall,
				Contract: string(contract),
				Method:   string(method),
				Argc:     int(argc),
			})

		default:
			return nil, fmt.Errorf("unknown opcode 0x%02x", opcode)
		}
	}

	return ops, nil
}

// Calls filters a decoded script down to its call operations.
func Calls(ops []Op) []Op {
	var calls []Op
	for _, op := range ops {
		if op.Kind == OpKindCall {
			calls = append(calls, op)
		}
	}
	return calls
}

func decodePush(r *bytes.Reader) (Op, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return Op{}, ErrScriptTruncated
	}
	op := Op{Kind: OpKindPush, Tag: tag}

	switch tag {
	case tagBool:
		b, err := r.ReadByte()
		if err != nil {
			return Op{}, ErrScriptTruncated
		}
		op.Bool = b != 0
		return op, nil

	case tagInteger:
		sign, err := r.ReadByte()
		if err != nil {
			return Op{}, ErrScriptTruncated
		}
		mag, err := readLenPrefixed(r)
		if err != nil {
			return Op{}, err
		}
		op.Int = new(big.Int).SetBytes(mag)
		if sign != 0 {
			op.Int.Neg(op.Int)
		}
		return op, nil

	case tagAddress:
		data, err := readLenPrefixed(r)
		if err != nil {
			return Op{}, err
		}
		if len(data) != addressRawLen {
			return Op{}, ErrAddressLength
		}
		copy(op.Address.raw[:], data)
		return op, nil

	case tagString:
		data, err := readLenPrefixed(r)
		if err != nil {
			return Op{}, err
		}
		op.Str = string(data)
		return op, nil

	case tagBytes:
		data, err := readLenPrefixed(r)
		if err != nil {
			return Op{}, err
		}
		op.Bytes = data
		return op, nil

	default:
		return Op{}, fmt.Errorf("unknown push tag 0x%02x", tag)
	}
}

func readLenPrefixed(r *bytes.Reader) ([]byte, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, ErrScriptTruncated
	}
	if n > uint64(r.Len()) {
		return nil, ErrScriptTruncated
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, ErrScriptTruncated
	}
	return data, nil
}
