package domain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// VMType is the chain's enumerated tag describing how a metadata field
// must be encoded.
type VMType string

const (
	VMTypeString  VMType = "String"
	VMTypeInt8    VMType = "Int8"
	VMTypeInt16   VMType = "Int16"
	VMTypeInt32   VMType = "Int32"
	VMTypeInt64   VMType = "Int64"
	VMTypeInt256  VMType = "Int256"
	VMTypeBytes   VMType = "Bytes"
	VMTypeBytes16 VMType = "Bytes16"
	VMTypeBytes32 VMType = "Bytes32"
	VMTypeBytes64 VMType = "Bytes64"
)

// ValueKind discriminates the parsed representation of a TypedValue.
type ValueKind int

const (
	ValueKindString ValueKind = iota
	ValueKindInt
	ValueKindBytes
)

// TypedValue is a raw string input resolved against a VM type.
type TypedValue struct {
	Kind  ValueKind
	Str   string
	Int   *big.Int
	Bytes []byte
}

// SchemaField is one field of a token's metadata schema as reported by
// the chain.
type SchemaField struct {
	Name string
	Type VMType
}

// MetadataField is a schema field together with its parsed value, in
// schema order.
type MetadataField struct {
	Name  string
	Type  VMType
	Value TypedValue
}

var (
	ErrMetadataFieldMissing = errors.New("metadata field is missing")
	ErrMetadataFieldBlank   = errors.New("metadata field must not be blank")
	ErrMetadataBadInteger   = errors.New("metadata field must be a signed decimal integer")
	ErrMetadataBadBytes     = errors.New("metadata field must be even-length hexadecimal")
)

var signedIntPattern = regexp.MustCompile(`^-?[0-9]+$`)

// BuildMetadata resolves every schema field against the raw values map.
// Iteration follows the schema, not the map, so the result order is
// schema-defined. Fields whose name appears in reserved are skipped.
// The first missing or invalid field aborts the whole build with a
// field-qualified error.
func BuildMetadata(schema []SchemaField, values map[string]string, reserved map[string]struct{}) ([]MetadataField, error) {
	fields := make([]MetadataField, 0, len(schema))

	for _, sf := range schema {
		if _, ok := reserved[sf.Name]; ok {
			continue
		}

		raw, ok := values[sf.Name]
		if !ok {
			return nil, fmt.Errorf("field %q: %w", sf.Name, ErrMetadataFieldMissing)
		}

		value, err := parseTypedValue(sf.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", sf.Name, err)
		}

		fields = append(fields, MetadataField{Name: sf.Name, Type: sf.Type, Value: value})
	}

	return fields, nil
}

func parseTypedValue(vmType VMType, raw string) (TypedValue, error) {
	switch vmType {
	case VMTypeString:
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return TypedValue{}, ErrMetadataFieldBlank
		}
		return TypedValue{Kind: ValueKindString, Str: trimmed}, nil

	case VMTypeInt8:
		return parseMachineInt(raw, 8)
	case VMTypeInt16:
		return parseMachineInt(raw, 16)
	case VMTypeInt32:
		return parseMachineInt(raw, 32)

	case VMTypeInt64, VMTypeInt256:
		trimmed := strings.TrimSpace(raw)
		if !signedIntPattern.MatchString(trimmed) {
			return TypedValue{}, ErrMetadataBadInteger
		}
		value, ok := new(big.Int).SetString(trimmed, 10)
		if !ok {
			return TypedValue{}, ErrMetadataBadInteger
		}
		return TypedValue{Kind: ValueKindInt, Int: value}, nil

	case VMTypeBytes, VMTypeBytes16, VMTypeBytes32, VMTypeBytes64:
		trimmed := strings.TrimSpace(raw)
		trimmed = strings.TrimPrefix(trimmed, "0x")
		// Empty after stripping the prefix is a valid empty byte string.
		data, err := hex.DecodeString(trimmed)
		if err != nil {
			return TypedValue{}, ErrMetadataBadBytes
		}
		return TypedValue{Kind: ValueKindBytes, Bytes: data}, nil

	default:
		// Unrecognized tags pass the raw value through untouched.
		return TypedValue{Kind: ValueKindString, Str: raw}, nil
	}
}

func parseMachineInt(raw string, bits int) (TypedValue, error) {
	trimmed := strings.TrimSpace(raw)
	if !signedIntPattern.MatchString(trimmed) {
		return TypedValue{}, ErrMetadataBadInteger
	}
	value, err := strconv.ParseInt(trimmed, 10, bits)
	if err != nil {
		return TypedValue{}, fmt.Errorf("%w: out of range for %d bits", ErrMetadataBadInteger, bits)
	}
	return TypedValue{Kind: ValueKindInt, Int: big.NewInt(value)}, nil
}
