package model

import (
	"encoding/base64"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestServiceMetadata_GetMpeAddr(t *testing.T) {
	tests := []struct {
		name       string
		mpeAddress string
		want       common.Address
	}{
		{
			name:       "Valid address",
			mpeAddress: "0x1234567890123456789012345678901234567890",
			want:       common.HexToAddress("0x1234567890123456789012345678901234567890"),
		},
		{
			name:       "Lowercase address",
			mpeAddress: "0xabcdef1234567890123456789012345678901234",
			want:       common.HexToAddress("0xabcdef1234567890123456789012345678901234"),
		},
		{
			name:       "Zero address",
			mpeAddress: "0x0000000000000000000000000000000000000000",
			want:       common.HexToAddress("0x0000000000000000000000000000000000000000"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &ServiceMetadata{
				MPEAddress: tt.mpeAddress,
			}
			got := s.GetMpeAddr()
			if got != tt.want {
				t.Fatalf("GetMpeAddr() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrganizationGroup_GroupIDBytes(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}
	g := &OrganizationGroup{ID: base64.StdEncoding.EncodeToString(raw)}

	id, err := g.GroupIDBytes()
	if err != nil {
		t.Fatalf("GroupIDBytes error: %v", err)
	}
	if id != [32]byte(raw) {
		t.Fatalf("unexpected group id: %x", id)
	}

	g.ID = base64.StdEncoding.EncodeToString([]byte("short"))
	if _, err := g.GroupIDBytes(); err == nil {
		t.Fatal("expected error for wrong-length group id")
	}

	g.ID = "not base64!!"
	if _, err := g.GroupIDBytes(); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestServiceGroup_FixedPrice(t *testing.T) {
	g := &ServiceGroup{
		GroupName: "default_group",
		Pricing: []Pricing{
			{PriceModel: "fixed_price", PriceInCogs: big.NewInt(100)},
		},
	}
	price, err := g.FixedPrice()
	if err != nil {
		t.Fatalf("FixedPrice error: %v", err)
	}
	if price.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected price: %s", price)
	}

	// With several pricings, only the default one counts.
	g.Pricing = []Pricing{
		{PriceModel: "fixed_price", PriceInCogs: big.NewInt(1)},
		{PriceModel: "fixed_price", PriceInCogs: big.NewInt(2), Default: true},
	}
	price, err = g.FixedPrice()
	if err != nil {
		t.Fatalf("FixedPrice error: %v", err)
	}
	if price.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("unexpected default price: %s", price)
	}

	g.Pricing = nil
	if _, err := g.FixedPrice(); err == nil {
		t.Fatal("expected error for missing pricing")
	}
}

func TestMetadataGroupLookups(t *testing.T) {
	org := &OrganizationMetaData{
		Groups: []*OrganizationGroup{
			{GroupName: "default_group", PaymentDetails: Payment{PaymentAddress: "0x1234567890123456789012345678901234567890"}},
		},
	}
	g := org.GroupByName("default_group")
	if g == nil {
		t.Fatal("expected group to be found")
	}
	if g.PaymentAddress() != common.HexToAddress("0x1234567890123456789012345678901234567890") {
		t.Fatalf("unexpected payment address: %s", g.PaymentAddress())
	}
	if org.GroupByName("missing") != nil {
		t.Fatal("expected nil for unknown group")
	}

	svc := &ServiceMetadata{
		Groups: []*ServiceGroup{{GroupName: "default_group", Endpoints: []string{"https://node:7003"}}},
	}
	sg := svc.GroupByName("default_group")
	if sg == nil {
		t.Fatal("expected service group to be found")
	}
	ep, err := sg.Endpoint()
	if err != nil {
		t.Fatalf("Endpoint error: %v", err)
	}
	if ep != "https://node:7003" {
		t.Fatalf("unexpected endpoint: %s", ep)
	}
	if _, err := (&ServiceGroup{GroupName: "x"}).Endpoint(); err == nil {
		t.Fatal("expected error for empty endpoints")
	}
}
