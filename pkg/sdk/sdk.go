package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/singnet/snet-payments-go/pkg/blockchain"
	"github.com/singnet/snet-payments-go/pkg/config"
	"github.com/singnet/snet-payments-go/pkg/model"
	"github.com/singnet/snet-payments-go/pkg/storage"
)

// SnetSDK is the public interface for constructing organization and service
// clients and for registry-level operations.
type SnetSDK interface {
	// NewServiceClient creates a client bound to the given org/service/group.
	// Service metadata and proto sources are fetched from the Registry and
	// decentralized storage, and a gRPC connection to the service endpoint
	// is prepared.
	NewServiceClient(ctx context.Context, orgID, serviceID, groupName string) (Service, error)

	// NewOrganizationClient creates an organization client for the specified
	// organization and group.
	NewOrganizationClient(ctx context.Context, orgID, groupName string) (Organization, error)

	// CreateOrganization uploads the metadata document and registers a new
	// organization in the Registry. Requires a configured private key.
	CreateOrganization(ctx context.Context, orgID string, metadata *model.OrganizationMetaData, members []common.Address) (*types.Receipt, error)

	// ListOrganizations returns the IDs of every organization in the Registry.
	ListOrganizations(ctx context.Context) ([]string, error)

	// Account returns the wallet-level operations for the configured private
	// key: balances, escrow deposit and withdrawal, channel timeout claims.
	Account() (*blockchain.Account, error)

	// Close releases resources associated with the SDK instance.
	Close()
}

// init configures a default global zap logger. Applications may replace it
// with zap.ReplaceGlobals(...) if they need custom logging.
func init() {
	c := zap.Config{
		Level:            zap.NewAtomicLevelAt(zap.InfoLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := c.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}

// Core is the concrete SDK implementation.
type Core struct {
	evm   *blockchain.EVMClient
	cfg   *config.Config
	store storage.Storage

	accountOnce sync.Once
	account     *blockchain.Account
	accountErr  error
}

var _ SnetSDK = (*Core)(nil)

// NewSDK validates the configuration, connects to the Ethereum endpoint and
// binds the Registry, MPE and token contracts for the configured network.
func NewSDK(cfg *config.Config) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.Timeouts = cfg.Timeouts.WithDefaults()
	cfg.Payment = cfg.Payment.WithDefaults()

	store := storage.NewStorage(cfg.IpfsURL, cfg.LighthouseURL)

	evm, err := blockchain.InitEvm(cfg.Network.ChainID, cfg.RPCAddr, store)
	if err != nil {
		return nil, fmt.Errorf("initializing ethereum client: %w", err)
	}

	if cfg.HasPrivateKey() && cfg.GetPrivateKey() == nil {
		zap.L().Warn("Configured private key is invalid, signed operations disabled")
	}

	return &Core{evm: evm, cfg: cfg, store: store}, nil
}

// Evm returns the EVM client for custom blockchain operations.
func (c *Core) Evm() *blockchain.EVMClient {
	return c.evm
}

// Account returns the wallet operations bound to the configured private key.
// The account is built once and reused.
func (c *Core) Account() (*blockchain.Account, error) {
	c.accountOnce.Do(func() {
		if !c.cfg.HasPrivateKey() {
			c.accountErr = fmt.Errorf("private key is required for this operation")
			return
		}
		c.account, c.accountErr = blockchain.NewAccount(c.evm, c.cfg.PrivateKey)
	})
	return c.account, c.accountErr
}

// ListOrganizations returns the IDs of every organization in the Registry.
func (c *Core) ListOrganizations(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx, c.cfg.Timeouts.ChainRead)
	defer cancel()
	return c.evm.Registry.ListOrganizations(ctx)
}

// CreateOrganization uploads the metadata document to storage and registers
// the organization in the Registry under the configured account.
func (c *Core) CreateOrganization(ctx context.Context, orgID string, metadata *model.OrganizationMetaData, members []common.Address) (*types.Receipt, error) {
	account, err := c.Account()
	if err != nil {
		return nil, err
	}

	uri, err := c.store.UploadJSON(ctx, metadata)
	if err != nil {
		return nil, fmt.Errorf("uploading organization metadata: %w", err)
	}

	opts, err := c.evm.TransactOpts(ctx, account.Signer().PrivateKey())
	if err != nil {
		return nil, err
	}
	receipt, err := c.evm.Registry.CreateOrganization(ctx, opts, orgID, []byte(uri), members)
	if err != nil {
		return nil, err
	}
	zap.L().Info("Organization created",
		zap.String("orgID", orgID),
		zap.String("metadataURI", uri))
	return receipt, nil
}

// fetchJSON reads a metadata document from storage and decodes it into out.
func (c *Core) fetchJSON(ctx context.Context, uri string, out any) error {
	raw, err := c.store.ReadFile(ctx, uri)
	if err != nil {
		return fmt.Errorf("fetching %q: %w", uri, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %q: %w", uri, err)
	}
	return nil
}

// Close shuts down the underlying Ethereum RPC connection.
func (c *Core) Close() {
	c.evm.Close()
}
