package sdk

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/singnet/snet-payments-go/pkg/blockchain"
	"github.com/singnet/snet-payments-go/pkg/channel"
	"github.com/singnet/snet-payments-go/pkg/daemon"
	"github.com/singnet/snet-payments-go/pkg/grpc"
	"github.com/singnet/snet-payments-go/pkg/model"
	"github.com/singnet/snet-payments-go/pkg/payment"
	"github.com/singnet/snet-payments-go/pkg/storage"
	"github.com/singnet/snet-payments-go/pkg/training"
)

// Service is the client API for one service deployment: dynamic method
// invocation with payment metadata injected per call, payment strategy
// selection, training, and the owner's management operations.
type Service interface {
	// CallWithMap calls a service method using a JSON-like map for the
	// request body.
	CallWithMap(ctx context.Context, method string, params map[string]any) (map[string]any, error)
	// CallWithJSON calls a service method using raw JSON bytes as the
	// request body.
	CallWithJSON(ctx context.Context, method string, input []byte) ([]byte, error)
	// CallWithProto calls a service method using a concrete protobuf message.
	CallWithProto(ctx context.Context, method string, input proto.Message) (proto.Message, error)

	// SetPaidStrategy selects the escrow flow: every call selects a funded
	// channel and signs a fresh claim. Requires a configured private key.
	SetPaidStrategy() error
	// SetPrepaidStrategy selects the prepaid flow: calls are authorized by a
	// daemon-issued concurrency token planned for concurrentCalls parallel
	// calls. Requires a configured private key.
	SetPrepaidStrategy(concurrentCalls int64) error
	// SetFreeStrategy selects the free-call flow and fetches a short-lived
	// free-call token.
	SetFreeStrategy(ctx context.Context) error
	// SetStrategy installs a custom payment strategy.
	SetStrategy(s payment.Strategy)

	// FreeCallsAvailable returns the remaining number of free calls for the
	// configured identity.
	FreeCallsAvailable(ctx context.Context) (uint64, error)

	// Training returns a training sub-client bound to this service.
	Training() (training.Client, error)

	// Healthcheck returns a health probe for the service daemon.
	Healthcheck() Healthcheck

	// Organization returns the organization this service belongs to.
	Organization() Organization

	// ServiceID returns the service identifier.
	ServiceID() string
	// Metadata returns the full service metadata.
	Metadata() *model.ServiceMetadata
	// Group returns the service group this client is bound to.
	Group() *model.ServiceGroup

	// UpdateMetadata uploads a new service metadata document and points the
	// Registry record at it.
	UpdateMetadata(ctx context.Context, metadata *model.ServiceMetadata) (*types.Receipt, error)
	// Delete removes the service registration from the Registry.
	Delete(ctx context.Context) (*types.Receipt, error)

	// RawGrpc returns direct access to the dynamic gRPC client.
	RawGrpc() *grpc.Client

	// Close releases the gRPC connections to the service.
	Close()
}

// ServiceClient is the concrete Service implementation. It holds the parsed
// metadata, the dynamic gRPC connection to the daemon, and the active
// payment strategy.
type ServiceClient struct {
	core *Core
	org  Organization

	serviceID string
	metadata  *model.ServiceMetadata
	group     *model.ServiceGroup
	orgGroup  *model.OrganizationGroup

	rpc      *grpc.Client
	daemon   *daemon.Client
	strategy payment.Strategy

	selector *channel.Selector
	trainer  training.Client
}

var _ Service = (*ServiceClient)(nil)

// NewServiceClient creates a service client bound to the given
// org/service/group.
func (c *Core) NewServiceClient(ctx context.Context, orgID, serviceID, groupName string) (Service, error) {
	org, err := c.NewOrganizationClient(ctx, orgID, groupName)
	if err != nil {
		return nil, err
	}
	return c.newServiceClient(ctx, org, serviceID, groupName)
}

func (c *Core) newServiceClient(ctx context.Context, org Organization, serviceID, groupName string) (Service, error) {
	readCtx, cancel := withTimeout(ctx, c.cfg.Timeouts.ChainRead)
	uri, err := c.evm.Registry.GetServiceMetadataURI(readCtx, org.OrgID(), serviceID)
	cancel()
	if err != nil {
		return nil, err
	}

	var metadata model.ServiceMetadata
	if err := c.fetchJSON(ctx, uri, &metadata); err != nil {
		return nil, fmt.Errorf("reading service metadata: %w", err)
	}

	group := metadata.GroupByName(groupName)
	if group == nil {
		return nil, fmt.Errorf("service %q has no group %q", serviceID, groupName)
	}
	endpoint, err := group.Endpoint()
	if err != nil {
		return nil, err
	}

	protos, err := c.fetchProtoFiles(ctx, &metadata)
	if err != nil {
		return nil, err
	}
	metadata.ProtoFiles = protos

	rpc := grpc.NewClient(endpoint, protos)
	if rpc == nil {
		return nil, fmt.Errorf("connecting to service at %s failed", endpoint)
	}

	daemonClient, err := daemon.NewClient(endpoint)
	if err != nil {
		_ = rpc.Close()
		return nil, err
	}

	zap.L().Debug("Service client ready",
		zap.String("orgID", org.OrgID()),
		zap.String("serviceID", serviceID),
		zap.String("endpoint", endpoint))

	return &ServiceClient{
		core:      c,
		org:       org,
		serviceID: serviceID,
		metadata:  &metadata,
		group:     group,
		orgGroup:  org.Group(),
		rpc:       rpc,
		daemon:    daemonClient,
	}, nil
}

// fetchProtoFiles downloads and unpacks the service's .proto bundle. The
// newer service_api_source URI wins over the legacy model_ipfs_hash.
func (c *Core) fetchProtoFiles(ctx context.Context, metadata *model.ServiceMetadata) (map[string]string, error) {
	source := metadata.ServiceApiSource
	if source == "" {
		source = metadata.ModelIpfsHash
	}
	if source == "" {
		return nil, fmt.Errorf("service metadata names no API source")
	}
	bundle, err := c.store.ReadFile(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("fetching proto bundle: %w", err)
	}
	return storage.ParseProtoFiles(bundle)
}

// Organization returns the organization this service belongs to.
func (s *ServiceClient) Organization() Organization { return s.org }

// ServiceID returns the service identifier.
func (s *ServiceClient) ServiceID() string { return s.serviceID }

// Metadata returns the full service metadata.
func (s *ServiceClient) Metadata() *model.ServiceMetadata { return s.metadata }

// Group returns the service group this client is bound to.
func (s *ServiceClient) Group() *model.ServiceGroup { return s.group }

// RawGrpc returns direct access to the dynamic gRPC client.
func (s *ServiceClient) RawGrpc() *grpc.Client { return s.rpc }

// Healthcheck returns a health probe for the service daemon.
func (s *ServiceClient) Healthcheck() Healthcheck {
	endpoint, _ := s.group.Endpoint()
	return newHealthcheckClient(s.rpc, endpoint, s.core.cfg.Debug)
}

// currentBlock adapts the EVM client to the strategy block provider.
func (s *ServiceClient) currentBlock(ctx context.Context) (*big.Int, error) {
	return s.core.evm.CurrentBlockNumber(ctx)
}

// price returns the group's fixed call price in base units.
func (s *ServiceClient) price() (*big.Int, error) {
	return s.group.FixedPrice()
}

// channelSource lazily wires the payment channel machinery for this service
// group: event replay repository, selection policy, and the on-chain escrow
// operations scoped to the group's recipient.
func (s *ServiceClient) channelSource() (payment.ChannelSource, error) {
	if s.selector != nil {
		return s.selector, nil
	}

	account, err := s.core.Account()
	if err != nil {
		return nil, err
	}
	groupID, err := s.orgGroup.GroupIDBytes()
	if err != nil {
		return nil, err
	}
	threshold := s.orgGroup.PaymentDetails.PaymentExpirationThreshold
	if threshold == nil {
		return nil, fmt.Errorf("group %q has no payment expiration threshold", s.orgGroup.GroupName)
	}

	escrow := blockchain.NewGroupChannels(s.core.evm, account, s.orgGroup.PaymentAddress(), groupID)
	repo := channel.NewRepository(escrow, s.daemon, account.Signer(), s.metadata.GetMpeAddr())
	s.selector = channel.NewSelector(repo, escrow,
		threshold,
		big.NewInt(s.core.cfg.Payment.BlockOffset),
		big.NewInt(s.core.cfg.Payment.CallAllowance))
	return s.selector, nil
}

// SetPaidStrategy selects the escrow flow.
func (s *ServiceClient) SetPaidStrategy() error {
	src, err := s.channelSource()
	if err != nil {
		return err
	}
	price, err := s.price()
	if err != nil {
		return err
	}
	s.strategy = payment.NewPaidStrategy(src, price)
	return nil
}

// SetPrepaidStrategy selects the prepaid flow planned for concurrentCalls
// parallel calls.
func (s *ServiceClient) SetPrepaidStrategy(concurrentCalls int64) error {
	src, err := s.channelSource()
	if err != nil {
		return err
	}
	price, err := s.price()
	if err != nil {
		return err
	}
	issuer := payment.NewTokenIssuer(s.daemon, s.currentBlock)
	s.strategy = payment.NewPrepaidStrategy(src, issuer, price, concurrentCalls)
	return nil
}

// SetFreeStrategy selects the free-call flow and fetches a short-lived
// free-call token.
func (s *ServiceClient) SetFreeStrategy(ctx context.Context) error {
	free, err := s.freeStrategy()
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx, s.core.cfg.Timeouts.StrategyRefresh)
	defer cancel()
	if err := free.Refresh(ctx); err != nil {
		return err
	}
	s.strategy = free
	return nil
}

// SetStrategy installs a custom payment strategy.
func (s *ServiceClient) SetStrategy(strategy payment.Strategy) {
	s.strategy = strategy
}

func (s *ServiceClient) freeStrategy() (*payment.FreeStrategy, error) {
	account, err := s.core.Account()
	if err != nil {
		return nil, err
	}
	return payment.NewFreeStrategy(s.daemon, account.Signer(),
		s.org.OrgID(), s.serviceID, s.orgGroup.ID, s.core.cfg.UserID,
		s.currentBlock), nil
}

// FreeCallsAvailable returns the remaining number of free calls for the
// configured identity. The daemon is queried fresh on every call.
func (s *ServiceClient) FreeCallsAvailable(ctx context.Context) (uint64, error) {
	free, err := s.freeStrategy()
	if err != nil {
		return 0, err
	}
	ctx, cancel := withTimeout(ctx, s.core.cfg.Timeouts.StrategyRefresh)
	defer cancel()
	return free.Available(ctx)
}

// defaultStrategy builds the dispatcher that prefers free calls, then the
// prepaid flow, then escrow. Free calls are only considered when the group
// advertises them.
func (s *ServiceClient) defaultStrategy() error {
	src, err := s.channelSource()
	if err != nil {
		return err
	}
	price, err := s.price()
	if err != nil {
		return err
	}

	var free *payment.FreeStrategy
	if s.group.FreeCalls > 0 {
		free, err = s.freeStrategy()
		if err != nil {
			return err
		}
	}
	issuer := payment.NewTokenIssuer(s.daemon, s.currentBlock)
	prepaid := payment.NewPrepaidStrategy(src, issuer, price, s.core.cfg.Payment.ConcurrentCalls)
	paid := payment.NewPaidStrategy(src, price)

	dispatcher, err := payment.NewDispatcher(free, prepaid, paid, !s.core.cfg.Payment.DisableConcurrency)
	if err != nil {
		return err
	}
	s.strategy = dispatcher
	return nil
}

// ensureStrategy installs the default dispatcher when no strategy was set
// explicitly.
func (s *ServiceClient) ensureStrategy() error {
	if s.strategy != nil {
		return nil
	}
	if err := s.defaultStrategy(); err != nil {
		return fmt.Errorf("no payment strategy set and the default could not be built "+
			"(call SetPaidStrategy, SetPrepaidStrategy or SetFreeStrategy explicitly): %w", err)
	}
	return nil
}

// paymentContext derives the per-call context: deadline applied, payment
// metadata attached by the active strategy.
func (s *ServiceClient) paymentContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := s.ensureStrategy(); err != nil {
		return nil, nil, err
	}
	ctx, cancel := withTimeout(ctx, s.core.cfg.Timeouts.GRPCUnary)
	ctx, err := s.strategy.GRPCMetadata(ctx)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return ctx, cancel, nil
}

// CallWithMap calls a service method using a JSON-like map for the request
// body.
func (s *ServiceClient) CallWithMap(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	ctx, cancel, err := s.paymentContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	resp, err := s.rpc.CallWithMap(ctx, method, params)
	if err != nil {
		return nil, fmt.Errorf("gRPC call failed: %w", err)
	}
	return resp, nil
}

// CallWithJSON calls a service method using raw JSON bytes as the request
// body.
func (s *ServiceClient) CallWithJSON(ctx context.Context, method string, input []byte) ([]byte, error) {
	ctx, cancel, err := s.paymentContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	resp, err := s.rpc.CallWithJSON(ctx, method, input)
	if err != nil {
		return nil, fmt.Errorf("gRPC call failed: %w", err)
	}
	return resp, nil
}

// CallWithProto calls a service method using a concrete protobuf message.
func (s *ServiceClient) CallWithProto(ctx context.Context, method string, input proto.Message) (proto.Message, error) {
	ctx, cancel, err := s.paymentContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	resp, err := s.rpc.CallWithProto(ctx, method, input)
	if err != nil {
		return nil, fmt.Errorf("gRPC call failed: %w", err)
	}
	return resp, nil
}

// Training returns (and lazily initializes) a training client bound to this
// service.
func (s *ServiceClient) Training() (training.Client, error) {
	if s.trainer != nil {
		return s.trainer, nil
	}
	src, err := s.channelSource()
	if err != nil {
		return nil, err
	}
	price, err := s.price()
	if err != nil {
		return nil, err
	}
	s.trainer = training.NewDaemonClient(s.rpc, src, price,
		s.org.OrgID(), s.serviceID, s.orgGroup.ID,
		s.core.cfg.Timeouts.GRPCUnary)
	return s.trainer, nil
}

// UpdateMetadata uploads a new service metadata document and points the
// Registry record at it.
func (s *ServiceClient) UpdateMetadata(ctx context.Context, metadata *model.ServiceMetadata) (*types.Receipt, error) {
	uri, err := s.core.store.UploadJSON(ctx, metadata)
	if err != nil {
		return nil, fmt.Errorf("uploading service metadata: %w", err)
	}
	receipt, err := s.transact(ctx, func(ctx context.Context, opts *bind.TransactOpts) (*types.Receipt, error) {
		return s.core.evm.Registry.UpdateServiceRegistration(ctx, opts, s.org.OrgID(), s.serviceID, []byte(uri))
	})
	if err != nil {
		return nil, err
	}
	s.metadata = metadata
	return receipt, nil
}

// Delete removes the service registration from the Registry.
func (s *ServiceClient) Delete(ctx context.Context) (*types.Receipt, error) {
	return s.transact(ctx, func(ctx context.Context, opts *bind.TransactOpts) (*types.Receipt, error) {
		return s.core.evm.Registry.DeleteServiceRegistration(ctx, opts, s.org.OrgID(), s.serviceID)
	})
}

func (s *ServiceClient) transact(ctx context.Context, run func(context.Context, *bind.TransactOpts) (*types.Receipt, error)) (*types.Receipt, error) {
	account, err := s.core.Account()
	if err != nil {
		return nil, err
	}
	opts, err := s.core.evm.TransactOpts(ctx, account.Signer().PrivateKey())
	if err != nil {
		return nil, err
	}
	return run(ctx, opts)
}

// Close releases the gRPC connections to the service. Safe to call more
// than once.
func (s *ServiceClient) Close() {
	if s.rpc != nil {
		_ = s.rpc.Close()
	}
	if s.daemon != nil {
		_ = s.daemon.Close()
	}
}

// withTimeout returns a derived context with the given timeout. A cancelable
// context is returned when d <= 0.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
