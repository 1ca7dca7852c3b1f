package txcodec

import (
	"bytes"
	"encoding/binary"
	"math/big"

	"carbonmint/internal/domain"
)

// Script opcodes. The VM consumes a flat call stream: each call pushes
// its arguments in reverse order, then invokes a named contract method.
const (
	opPush byte = 0x01
	opCall byte = 0x02
)

// Argument type tags inside a push.
const (
	tagBytes   byte = 0x00
	tagString  byte = 0x01
	tagInteger byte = 0x02
	tagAddress byte = 0x03
	tagBool    byte = 0x04
)

// ScriptWriter serializes contract calls into the chain's script
// format. The zero value is ready to use.
type ScriptWriter struct {
	buf   bytes.Buffer
	calls int
}

func (w *ScriptWriter) writeVarInt(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf.Write(tmp[:n])
}

func (w *ScriptWriter) writeLenPrefixed(data []byte) {
	w.writeVarInt(uint64(len(data)))
	w.buf.Write(data)
}

// PushBytes pushes a raw byte-array argument.
func (w *ScriptWriter) PushBytes(data []byte) {
	w.buf.WriteByte(opPush)
	w.buf.WriteByte(tagBytes)
	w.writeLenPrefixed(data)
}

// PushString pushes a UTF-8 string argument.
func (w *ScriptWriter) PushString(s string) {
	w.buf.WriteByte(opPush)
	w.buf.WriteByte(tagString)
	w.writeLenPrefixed([]byte(s))
}

// PushInteger pushes an arbitrary-precision integer argument as a sign
// byte plus big-endian magnitude.
func (w *ScriptWriter) PushInteger(v *big.Int) {
	w.buf.WriteByte(opPush)
	w.buf.WriteByte(tagInteger)
	sign := byte(0)
	if v.Sign() < 0 {
		sign = 1
	}
	mag := v.Bytes() // big-endian magnitude, empty for zero
	w.buf.WriteByte(sign)
	w.writeLenPrefixed(mag)
}

// PushAddress pushes an account address argument in raw wire form.
func (w *ScriptWriter) PushAddress(a Address) {
	w.buf.WriteByte(opPush)
	w.buf.WriteByte(tagAddress)
	w.writeLenPrefixed(a.Bytes())
}

// PushBool pushes a boolean argument.
func (w *ScriptWriter) PushBool(v bool) {
	w.buf.WriteByte(opPush)
	w.buf.WriteByte(tagBool)
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

// PushTypedValue pushes a schema-typed metadata value using the tag
// matching its parsed kind.
func (w *ScriptWriter) PushTypedValue(v domain.TypedValue) {
	switch v.Kind {
	case domain.ValueKindInt:
		w.PushInteger(v.Int)
	case domain.ValueKindBytes:
		w.PushBytes(v.Bytes)
	default:
		w.PushString(v.Str)
	}
}

// Call terminates the pending arguments with an invocation of
// contract.method expecting argc arguments.
func (w *ScriptWriter) Call(contract, method string, argc int) {
	w.buf.WriteByte(opCall)
	w.writeLenPrefixed([]byte(contract))
	w.writeLenPrefixed([]byte(method))
	w.writeVarInt(uint64(argc))
	w.calls++
}

// CallCount reports how many calls have been written.
func (w *ScriptWriter) CallCount() int { return w.calls }

// Bytes returns the serialized script.
func (w *ScriptWriter) Bytes() []byte {
	out := make([]byte, w.buf.Len())
	copy(out, w.buf.Bytes())
	return out
}
