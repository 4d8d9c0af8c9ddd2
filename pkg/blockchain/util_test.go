package blockchain

import (
	"encoding/base64"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAsiToAasi(t *testing.T) {
	tests := []struct {
		name   string
		amount any
		want   string
		ok     bool
	}{
		{"string", "1.5", "1500000000000000000", true},
		{"float64", 0.000000000000000001, "1", true},
		{"int64", int64(2), "2000000000000000000", true},
		{"decimal", decimal.NewFromInt(3), "3000000000000000000", true},
		{"bad string", "not-a-number", "", false},
		{"unsupported type", struct{}{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AsiToAasi(tt.amount)
			if tt.ok != (err == nil) {
				t.Fatalf("err = %v, want ok=%v", err, tt.ok)
			}
			if err != nil {
				return
			}
			if got.String() != tt.want {
				t.Fatalf("AsiToAasi = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAasiToAsi(t *testing.T) {
	one := new(big.Int)
	one.SetString("1000000000000000000", 10)

	if got := AasiToAsi(one); !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("AasiToAsi(1e18) = %s, want 1", got)
	}
	if got := AasiToAsi("500000000000000000"); !got.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("AasiToAsi(5e17) = %s, want 0.5", got)
	}
	if got := AasiToAsi(struct{}{}); !got.Equal(decimal.Zero) {
		t.Fatalf("unsupported type = %s, want 0", got)
	}
}

func TestRoundTripConversion(t *testing.T) {
	aasi, err := AsiToAasi("12.345678901234567891")
	if err != nil {
		t.Fatalf("AsiToAasi: %v", err)
	}
	if got := AasiToAsi(aasi); got.String() != "12.345678901234567891" {
		t.Fatalf("round trip = %s", got)
	}
}

func TestBigIntToBytes(t *testing.T) {
	b := BigIntToBytes(big.NewInt(1))
	if len(b) != 32 {
		t.Fatalf("length = %d, want 32", len(b))
	}
	if b[31] != 1 {
		t.Fatalf("last byte = %d, want 1", b[31])
	}
}

func TestStringToBytes32(t *testing.T) {
	got := StringToBytes32("snet")
	if string(got[:4]) != "snet" {
		t.Fatalf("prefix = %q", got[:4])
	}
	for _, b := range got[4:] {
		if b != 0 {
			t.Fatal("padding is not zero")
		}
	}

	// Longer than 32 bytes is truncated.
	long := StringToBytes32("0123456789012345678901234567890123456789")
	if string(long[:]) != "01234567890123456789012345678901" {
		t.Fatalf("truncated = %q", long[:])
	}
}

func TestBytes32ArrayToStrings(t *testing.T) {
	arr := [][32]byte{StringToBytes32("org-a"), StringToBytes32("org-b")}
	got := Bytes32ArrayToStrings(arr)
	if len(got) != 2 || got[0] != "org-a" || got[1] != "org-b" {
		t.Fatalf("got %v", got)
	}
}

func TestDecodePaymentGroupID(t *testing.T) {
	raw := make([]byte, 32)
	raw[0] = 0xab
	encoded := base64.StdEncoding.EncodeToString(raw)

	groupID, err := DecodePaymentGroupID(encoded)
	if err != nil {
		t.Fatalf("DecodePaymentGroupID: %v", err)
	}
	if groupID[0] != 0xab {
		t.Fatalf("groupID[0] = %x", groupID[0])
	}

	if _, err := DecodePaymentGroupID("!!!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	short := base64.StdEncoding.EncodeToString([]byte("short"))
	if _, err := DecodePaymentGroupID(short); err == nil {
		t.Fatal("expected error for wrong length")
	}
}
