//go:build e2e

package e2e

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/singnet/snet-payments-go/pkg/blockchain"
	"github.com/singnet/snet-payments-go/pkg/config"
)

func TestETHClientChainID(t *testing.T) {
	rpc := os.Getenv("ETH_RPC_URL")
	if rpc == "" {
		t.Skip("ETH_RPC_URL not set")
	}
	chainID := os.Getenv("ETH_CHAIN_ID")
	if chainID == "" {
		chainID = config.Sepolia.ChainID
	}
	cli, err := blockchain.InitEvm(chainID, rpc, nil)
	if err != nil {
		t.Fatalf("InitEvm error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := cli.Client.ChainID(ctx)
	if err != nil {
		t.Fatalf("ChainID error: %v", err)
	}
	if id == nil {
		t.Fatal("nil chain id")
	}
}
