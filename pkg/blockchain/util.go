package blockchain

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AsiToAasi converts an ASI amount to its smallest unit AASI (18 decimals).
//
// Supported input types for iamount: string, float64, int64, decimal.Decimal,
// *decimal.Decimal. Any other type results in an error.
//
// The returned value is a *big.Int representing amount * 10^18.
func AsiToAasi(iamount any) (asi *big.Int, err error) {
	base := 10
	amount := decimal.NewFromFloat(0)
	switch v := iamount.(type) {
	case string:
		amount, err = decimal.NewFromString(v)
		if err != nil {
			zap.L().Error("Failed to convert string to decimal", zap.Error(err))
			return nil, err
		}
	case float64:
		amount = decimal.NewFromFloat(v)
	case int64:
		amount = decimal.NewFromFloat(float64(v))
	case decimal.Decimal:
		amount = v
	case *decimal.Decimal:
		amount = *v
	default:
		return nil, fmt.Errorf("unsupported amount type %T", iamount)
	}
	dec, pow := float64(10), float64(18)
	mul := decimal.NewFromFloat(dec).Pow(decimal.NewFromFloat(pow))
	result := amount.Mul(mul)

	asi = new(big.Int)
	asi.SetString(result.String(), base)

	return
}

// AasiToAsi converts an AASI amount (smallest unit, 18 decimals) into ASI as
// a decimal.Decimal with 18 digits of precision.
//
// Supported input types for ivalue: string, *big.Int, int.
// Any other type results in decimal.Zero and logs an error.
func AasiToAsi(ivalue any) decimal.Decimal {
	value := new(big.Int)
	base := 10
	switch v := ivalue.(type) {
	case string:
		value.SetString(v, base)
	case *big.Int:
		value = v
	case int:
		value.SetInt64(int64(v))
	default:
		zap.L().Error("Unsupported type")
		return decimal.Zero
	}
	dec, pow := float64(10), float64(18)
	mul := decimal.NewFromFloat(dec).Pow(decimal.NewFromFloat(pow))
	num, err := decimal.NewFromString(value.String())
	if err != nil {
		zap.L().Error("Failed to convert string to decimal", zap.Error(err))
	}
	precision := int32(18)
	result := num.DivRound(mul, precision)

	return result
}

// BigIntToBytes converts a *big.Int value to a 32-byte big-endian slice, using
// the same formatting that Ethereum commonly applies to integers in ABI/keccak
// contexts (common.BigToHash).
func BigIntToBytes(value *big.Int) []byte {
	return common.BigToHash(value).Bytes()
}

// StringToBytes32 returns a right-padded [32]byte containing at most the first
// 32 bytes of the provided string.
func StringToBytes32(str string) [32]byte {
	var byte32 [32]byte
	copy(byte32[:], str)
	return byte32
}

// Bytes32ArrayToStrings converts an array of [32]byte values into a slice of strings,
// trimming trailing NUL bytes on the right of each element.
func Bytes32ArrayToStrings(arr [][32]byte) []string {
	result := make([]string, len(arr))
	for i, b := range arr {
		// b[:] is the 32-byte slice; trim trailing '\x00'.
		clean := bytes.TrimRight(b[:], "\x00")
		result[i] = string(clean)
	}
	return result
}

// DecodePaymentGroupID decodes the base64 payment group identifier from
// service metadata into the fixed-size form the escrow contract uses.
func DecodePaymentGroupID(encoded string) ([32]byte, error) {
	var groupID [32]byte
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return groupID, fmt.Errorf("decoding payment group id %q: %w", encoded, err)
	}
	if len(raw) != 32 {
		return groupID, fmt.Errorf("payment group id %q is %d bytes, want 32", encoded, len(raw))
	}
	copy(groupID[:], raw)
	return groupID, nil
}
