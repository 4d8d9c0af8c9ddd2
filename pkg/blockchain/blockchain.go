// Package blockchain provides the on-chain side of the payment layer: an
// Ethereum client wired to the SingularityNET contracts (MultiPartyEscrow,
// Registry, FetchToken), channel open/extend/fund operations with receipt
// confirmation, account balance and deposit helpers, and event replay for
// discovering payment channels. Contract bindings are created at runtime from
// the ABIs shipped with snet-ecosystem-contracts.
package blockchain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	contracts "github.com/singnet/snet-ecosystem-contracts"
	"github.com/singnet/snet-payments-go/pkg/storage"
	"go.uber.org/zap"
)

// EVMClient holds a connected ethclient.Client, runtime-bound contracts and
// the storage backend used to resolve metadata URIs found on-chain.
type EVMClient struct {
	Client   *ethclient.Client
	Registry *RegistryContract
	MPE      *MPEContract
	Token    *TokenContract
	Storage  storage.Storage
}

// networks mirrors the JSON payload produced by snet-ecosystem-contracts
// (network key → contract address).
type networks map[string]struct {
	Address string `json:"address"`
}

// contractAddress resolves the deployed address of a contract for the given
// network key from a snet-ecosystem-contracts networks payload.
func contractAddress(rawNetworks []byte, network string) (common.Address, error) {
	var n networks
	if err := json.Unmarshal(rawNetworks, &n); err != nil {
		return common.Address{}, fmt.Errorf("parsing contract networks: %w", err)
	}
	entry, ok := n[network]
	if !ok || entry.Address == "" {
		return common.Address{}, fmt.Errorf("contract not deployed on network %q", network)
	}
	return common.HexToAddress(entry.Address), nil
}

// parseABI parses the cleaned ABI JSON shipped with snet-ecosystem-contracts.
func parseABI(rawABI []byte) (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(string(rawABI)))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parsing contract ABI: %w", err)
	}
	return parsed, nil
}

// InitEvm dials an Ethereum endpoint and binds the Registry, MultiPartyEscrow
// and token contracts for the given network key (chain ID as used by
// snet-ecosystem-contracts, e.g. "11155111"). The token address is discovered
// through MPE rather than configured.
func InitEvm(network, endpoint string, store storage.Storage) (*EVMClient, error) {
	client, err := ethclient.Dial(endpoint)
	if err != nil {
		zap.L().Error("Failed to dial Ethereum endpoint", zap.Error(err))
		return nil, fmt.Errorf("dialing %q: %w", endpoint, err)
	}

	evm := &EVMClient{Client: client, Storage: store}

	registryAddr, err := contractAddress(contracts.GetNetworks(contracts.Registry), network)
	if err != nil {
		return nil, err
	}
	evm.Registry, err = NewRegistryContract(registryAddr, client)
	if err != nil {
		return nil, err
	}

	mpeAddr, err := contractAddress(contracts.GetNetworks(contracts.MultiPartyEscrow), network)
	if err != nil {
		return nil, err
	}
	evm.MPE, err = NewMPEContract(mpeAddr, client)
	if err != nil {
		return nil, err
	}

	tokenAddr, err := evm.MPE.TokenAddress(context.Background())
	if err != nil {
		zap.L().Error("Failed to resolve token address from MPE", zap.Error(err))
		return nil, err
	}
	evm.Token, err = NewTokenContract(tokenAddr, client)
	if err != nil {
		return nil, err
	}

	return evm, nil
}

// CurrentBlockNumber returns the latest block number.
func (evm *EVMClient) CurrentBlockNumber(ctx context.Context) (*big.Int, error) {
	header, err := evm.Client.HeaderByNumber(ctx, nil)
	if err != nil {
		zap.L().Error("failed to get latest block number", zap.Error(err))
		return nil, fmt.Errorf("reading chain head: %w", err)
	}
	return header.Number, nil
}

// ChainID returns the chain ID of the connected network.
func (evm *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := evm.Client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading chain id: %w", err)
	}
	return id, nil
}

// Close shuts down the underlying RPC connection.
func (evm *EVMClient) Close() {
	if evm.Client != nil {
		evm.Client.Close()
	}
}

// boundContract creates a bound contract handle for an address and parsed ABI.
func boundContract(addr common.Address, parsed abi.ABI, backend bind.ContractBackend) *bind.BoundContract {
	return bind.NewBoundContract(addr, parsed, backend, backend, backend)
}
