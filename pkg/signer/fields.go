package signer

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// FieldType enumerates the ABI-style types accepted in a signed message tuple.
type FieldType int

const (
	// String is appended to the payload as raw UTF-8 bytes.
	String FieldType = iota
	// Address is appended as the 20-byte address value.
	Address
	// Uint256 is appended as a 32-byte big-endian integer.
	Uint256
	// Bytes is appended verbatim.
	Bytes
)

// Field is one typed element of a message tuple. The order of fields is part
// of the signed payload, so callers must list them exactly as the verifier
// expects.
type Field struct {
	Type  FieldType
	Str   string
	Addr  common.Address
	Num   *big.Int
	Data  []byte
}

// StringField builds a Field carrying a UTF-8 string.
func StringField(s string) Field { return Field{Type: String, Str: s} }

// AddressField builds a Field carrying an Ethereum address.
func AddressField(a common.Address) Field { return Field{Type: Address, Addr: a} }

// Uint256Field builds a Field carrying an unsigned 256-bit integer.
// A nil value encodes as zero.
func Uint256Field(v *big.Int) Field { return Field{Type: Uint256, Num: v} }

// BytesField builds a Field carrying raw bytes.
func BytesField(b []byte) Field { return Field{Type: Bytes, Data: b} }

// Encode concatenates the fields into the canonical message payload. The
// layout matches web3's soliditySha3 packing for the supported types: strings
// and bytes are emitted as-is, addresses as 20 bytes, uint256 as 32-byte
// big-endian.
func Encode(fields ...Field) ([]byte, error) {
	var out []byte
	for i, f := range fields {
		switch f.Type {
		case String:
			out = append(out, f.Str...)
		case Address:
			out = append(out, f.Addr.Bytes()...)
		case Uint256:
			num := f.Num
			if num == nil {
				num = big.NewInt(0)
			}
			if num.Sign() < 0 {
				return nil, fmt.Errorf("field %d: uint256 value is negative", i)
			}
			out = append(out, common.BigToHash(num).Bytes()...)
		case Bytes:
			out = append(out, f.Data...)
		default:
			return nil, fmt.Errorf("field %d: unknown field type %d", i, f.Type)
		}
	}
	return out, nil
}
