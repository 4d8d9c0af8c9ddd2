package payment

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"google.golang.org/grpc/metadata"

	"github.com/singnet/snet-payments-go/pkg/daemon"
	"github.com/singnet/snet-payments-go/pkg/signer"
)

// BlockFunc reads the current chain block number. Strategies take it as a
// function so tests can pin the block without a chain client.
type BlockFunc func(ctx context.Context) (*big.Int, error)

// FreeStrategy implements the free-call authentication flow. It holds a
// short-lived token issued by the daemon's FreeCallStateService and attaches
// it, together with a freshness-bound signature, to each request. The token
// is renewed transparently once its expiration block passes.
type FreeStrategy struct {
	daemon       daemon.Protocol
	signer       signer.Signer
	orgID        string
	serviceID    string
	groupID      string
	userID       string
	currentBlock BlockFunc

	mu              sync.Mutex
	token           []byte
	expirationBlock uint64
}

// NewFreeStrategy constructs a FreeStrategy for the given org/service/group.
// userID may be empty; then the signer address is the free-call identity.
func NewFreeStrategy(d daemon.Protocol, s signer.Signer, orgID, serviceID, groupID, userID string, currentBlock BlockFunc) *FreeStrategy {
	return &FreeStrategy{
		daemon:       d,
		signer:       s,
		orgID:        orgID,
		serviceID:    serviceID,
		groupID:      groupID,
		userID:       userID,
		currentBlock: currentBlock,
	}
}

func (f *FreeStrategy) identity() string {
	if f.userID != "" {
		return f.userID
	}
	return f.signer.Address().Hex()
}

// authSignature signs the free-call message for the given block. The token is
// part of the message whenever one is held; token issuance signs without it.
func (f *FreeStrategy) authSignature(block *big.Int, token []byte) ([]byte, error) {
	fields := []signer.Field{
		signer.StringField(FreeCallPrefixSignature),
		signer.StringField(f.identity()),
		signer.StringField(f.orgID),
		signer.StringField(f.serviceID),
		signer.StringField(f.groupID),
		signer.Uint256Field(block),
	}
	if len(token) > 0 {
		fields = append(fields, signer.BytesField(token))
	}
	sig, err := signer.SignFields(f.signer, fields...)
	if err != nil {
		return nil, fmt.Errorf("generating signature: %w", err)
	}
	return sig, nil
}

// Refresh obtains a free-call token from the daemon, or keeps the current one
// while it has not expired.
func (f *FreeStrategy) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	block, err := f.currentBlock(ctx)
	if err != nil {
		return fmt.Errorf("reading current block: %w", err)
	}
	if len(f.token) > 0 && block.Uint64() < f.expirationBlock {
		return nil
	}

	sig, err := f.authSignature(block, nil)
	if err != nil {
		return err
	}
	token, err := f.daemon.FreeCallToken(ctx, &daemon.FreeCallTokenRequest{
		Address:      f.signer.Address().Hex(),
		Signature:    sig,
		CurrentBlock: block.Uint64(),
	})
	if err != nil {
		return fmt.Errorf("requesting free call token: %w", err)
	}
	f.token = token.Token
	f.expirationBlock = token.ExpirationBlock
	return nil
}

// Available asks the daemon how many free calls remain for this identity.
// The count is never cached; it is daemon-authoritative and other clients of
// the same identity may be consuming it concurrently.
func (f *FreeStrategy) Available(ctx context.Context) (uint64, error) {
	if err := f.Refresh(ctx); err != nil {
		return 0, err
	}

	f.mu.Lock()
	token := f.token
	f.mu.Unlock()

	block, err := f.currentBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading current block: %w", err)
	}
	sig, err := f.authSignature(block, token)
	if err != nil {
		return 0, err
	}
	return f.daemon.FreeCallsAvailable(ctx, &daemon.FreeCallStateRequest{
		Address:      f.signer.Address().Hex(),
		Token:        token,
		Signature:    sig,
		CurrentBlock: block.Uint64(),
	})
}

// GRPCMetadata returns a derived context carrying the free-call headers:
// payment type, token, identity, signature and the block the signature is
// bound to.
func (f *FreeStrategy) GRPCMetadata(ctx context.Context) (context.Context, error) {
	if err := f.Refresh(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	token := f.token
	f.mu.Unlock()

	block, err := f.currentBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading current block: %w", err)
	}
	sig, err := f.authSignature(block, token)
	if err != nil {
		return nil, err
	}

	md := metadata.Pairs(
		PaymentTypeHeader, "free-call",
		FreeCallAuthTokenHeader, string(token),
		FreeCallUserAddressHeader, f.signer.Address().Hex(),
		PaymentChannelSignatureHeader, string(sig),
		CurrentBlockNumberHeader, strconv.FormatUint(block.Uint64(), 10),
	)
	if f.userID != "" {
		md.Set(FreeCallUserIdHeader, f.userID)
	}
	return metadata.NewOutgoingContext(ctx, md), nil
}
