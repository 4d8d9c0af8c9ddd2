// Package daemon is the client side of the service daemon's payment RPCs. It
// talks to the PaymentChannelStateService, TokenService and
// FreeCallStateService endpoints a daemon exposes next to the service itself,
// using dynamically compiled descriptors instead of generated stubs.
package daemon

import (
	"context"
	"fmt"
	"math/big"
)

// ChannelState is the daemon-side view of a payment channel: the nonce and
// cumulative signed amount of the newest claim the daemon holds. A channel
// the daemon has never seen reports nonce 0 and amount 0.
type ChannelState struct {
	CurrentNonce        *big.Int
	CurrentSignedAmount *big.Int
}

// Token is a concurrency token minted by the daemon. The token prepays
// PlannedAmount on its channel; UsedAmount is how much of that has already
// been consumed by completed calls.
type Token struct {
	ChannelID     uint64
	Token         string
	PlannedAmount uint64
	UsedAmount    uint64
}

// TokenRequest asks the daemon to mint a concurrency token against a signed
// claim.
type TokenRequest struct {
	ChannelID    uint64
	CurrentNonce uint64
	// SignedAmount is the cumulative amount of the backing claim.
	SignedAmount uint64
	// ClaimSignature signs ("__MPE_claim_message", mpe, channel, nonce, amount).
	ClaimSignature []byte
	// Signature signs (ClaimSignature, CurrentBlock).
	Signature    []byte
	CurrentBlock uint64
}

// FreeCallToken authorizes a number of free calls until its expiration block.
type FreeCallToken struct {
	Token           []byte
	TokenHex        string
	ExpirationBlock uint64
}

// FreeCallStateRequest asks how many free calls remain for an address.
type FreeCallStateRequest struct {
	Address      string
	Token        []byte
	Signature    []byte
	CurrentBlock uint64
}

// FreeCallTokenRequest asks the daemon to issue a free-call token.
type FreeCallTokenRequest struct {
	Address      string
	Signature    []byte
	CurrentBlock uint64
}

// Protocol is the daemon payment API used by the payment strategies. It is an
// interface so strategies can be tested against an in-memory daemon.
type Protocol interface {
	// ChannelState returns the daemon's newest claim state for a channel.
	ChannelState(ctx context.Context, channelID *big.Int, signature []byte, currentBlock uint64) (*ChannelState, error)
	// Token mints or returns a concurrency token for a signed claim.
	Token(ctx context.Context, req *TokenRequest) (*Token, error)
	// FreeCallsAvailable reports how many free calls remain.
	FreeCallsAvailable(ctx context.Context, req *FreeCallStateRequest) (uint64, error)
	// FreeCallToken issues a token authorizing free calls.
	FreeCallToken(ctx context.Context, req *FreeCallTokenRequest) (*FreeCallToken, error)
	Close() error
}

// RPCError reports a failed daemon RPC, carrying the method name for context.
type RPCError struct {
	Method string
	Err    error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("daemon rpc %s: %v", e.Method, e.Err)
}

func (e *RPCError) Unwrap() error { return e.Err }
