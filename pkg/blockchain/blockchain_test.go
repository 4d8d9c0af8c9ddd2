package blockchain

import (
	"testing"

	contracts "github.com/singnet/snet-ecosystem-contracts"
)

func TestContractAddress(t *testing.T) {
	raw := []byte(`{
		"1": {"address": "0x5e592F9b1d303183d963635f895f0f0C48284f4e"},
		"11155111": {"address": "0x7E0aF8988DF45B824b2E0e0A87c6196897744970"}
	}`)

	addr, err := contractAddress(raw, "11155111")
	if err != nil {
		t.Fatalf("contractAddress: %v", err)
	}
	if addr.Hex() != "0x7E0aF8988DF45B824b2E0e0A87c6196897744970" {
		t.Fatalf("address = %s", addr.Hex())
	}

	if _, err := contractAddress(raw, "999"); err == nil {
		t.Fatal("expected error for unknown network")
	}
	if _, err := contractAddress([]byte("not json"), "1"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestParseShippedABIs(t *testing.T) {
	// The runtime bindings depend on these ABIs parsing and on the methods
	// and events the client calls being present.
	mpe, err := parseABI(contracts.GetABIClean(contracts.MultiPartyEscrow))
	if err != nil {
		t.Fatalf("MultiPartyEscrow ABI: %v", err)
	}
	for _, method := range []string{
		"channels", "openChannel", "depositAndOpenChannel", "channelAddFunds",
		"channelExtend", "channelExtendAndAddFunds", "channelClaimTimeout",
		"deposit", "withdraw", "balances", "token",
	} {
		if _, ok := mpe.Methods[method]; !ok {
			t.Errorf("MPE ABI is missing method %q", method)
		}
	}
	if _, ok := mpe.Events["ChannelOpen"]; !ok {
		t.Error("MPE ABI is missing ChannelOpen event")
	}

	registry, err := parseABI(contracts.GetABIClean(contracts.Registry))
	if err != nil {
		t.Fatalf("Registry ABI: %v", err)
	}
	for _, method := range []string{"getOrganizationById", "getServiceRegistrationById", "listOrganizations", "listServicesForOrganization"} {
		if _, ok := registry.Methods[method]; !ok {
			t.Errorf("Registry ABI is missing method %q", method)
		}
	}

	token, err := parseABI(contracts.GetABIClean(contracts.FetchToken))
	if err != nil {
		t.Fatalf("FetchToken ABI: %v", err)
	}
	for _, method := range []string{"balanceOf", "allowance", "approve"} {
		if _, ok := token.Methods[method]; !ok {
			t.Errorf("token ABI is missing method %q", method)
		}
	}
}

func TestContractNetworksResolve(t *testing.T) {
	// Mainnet and Sepolia deployments must resolve from the shipped payloads.
	payloads := map[string][]byte{
		"Registry":         contracts.GetNetworks(contracts.Registry),
		"MultiPartyEscrow": contracts.GetNetworks(contracts.MultiPartyEscrow),
	}
	for name, raw := range payloads {
		for _, network := range []string{"1", "11155111"} {
			if _, err := contractAddress(raw, network); err != nil {
				t.Errorf("%s on network %s: %v", name, network, err)
			}
		}
	}
}
