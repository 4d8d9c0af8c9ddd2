package payment

import (
	"context"
)

// Strategy abstracts a payment/authentication mechanism used when invoking
// daemon methods over gRPC. Implementations include FreeStrategy (free-call
// tokens), PrepaidStrategy (concurrency tokens) and PaidStrategy (MPE escrow
// claims), plus the Dispatcher that picks among them per call.
//
// Typical flow per request:
//  1. Call Refresh(ctx) to renew tokens if needed.
//  2. Wrap the outbound context with GRPCMetadata(ctx) and pass it to the RPC.
type Strategy interface {
	// GRPCMetadata returns a derived context carrying the gRPC headers the
	// daemon requires for this payment type (channel id/nonce/amount,
	// signatures, tokens). The returned context should be used for the RPC
	// invocation.
	GRPCMetadata(ctx context.Context) (context.Context, error)
	// Refresh renews internal state (token issuance or renewal) ahead of a
	// call. Implementations are idempotent and cheap when nothing needs
	// refreshing.
	Refresh(ctx context.Context) error
}

// Kind identifies which payment flow serves a call.
type Kind int

const (
	// KindFreeCall authenticates with a daemon-issued free-call token.
	KindFreeCall Kind = iota
	// KindPrepaid presents a concurrency token backed by a batch claim.
	KindPrepaid
	// KindPaid signs a fresh escrow claim for every call.
	KindPaid
)

func (k Kind) String() string {
	switch k {
	case KindFreeCall:
		return "free-call"
	case KindPrepaid:
		return "prepaid-call"
	case KindPaid:
		return "escrow"
	default:
		return "unknown"
	}
}

// decide picks the payment kind for a call. Free calls win whenever the
// daemon reports a remaining allowance; otherwise the concurrency flag
// chooses between prepaid tokens and per-call claims.
func decide(freeCallsAvailable uint64, concurrencyEnabled bool) Kind {
	switch {
	case freeCallsAvailable > 0:
		return KindFreeCall
	case concurrencyEnabled:
		return KindPrepaid
	default:
		return KindPaid
	}
}
