package payment

import (
	"context"
	"fmt"
	"math/big"

	"google.golang.org/grpc/metadata"
)

// PrepaidStrategy implements the prepaid-call flow. Each call selects a
// channel sized for a batch of calls and presents a concurrency token from
// the TokenIssuer; the daemon tracks the batch's consumption against the
// token, so concurrent calls share one escrow signature until the batch is
// exhausted.
type PrepaidStrategy struct {
	channels ChannelSource
	issuer   *TokenIssuer
	price    *big.Int
	// concurrentCalls sizes the batch a single token prepays.
	concurrentCalls int64
	preselect       *big.Int
}

// NewPrepaidStrategy builds a PrepaidStrategy paying price per call, batching
// concurrentCalls calls per token.
func NewPrepaidStrategy(src ChannelSource, issuer *TokenIssuer, price *big.Int, concurrentCalls int64) *PrepaidStrategy {
	if concurrentCalls < 1 {
		concurrentCalls = 1
	}
	return &PrepaidStrategy{
		channels:        src,
		issuer:          issuer,
		price:           price,
		concurrentCalls: concurrentCalls,
	}
}

// WithChannelID pins the strategy to an explicit channel instead of letting
// the selector choose.
func (p *PrepaidStrategy) WithChannelID(id *big.Int) *PrepaidStrategy {
	p.preselect = id
	return p
}

func (p *PrepaidStrategy) pricePerBatch() *big.Int {
	return new(big.Int).Mul(p.price, big.NewInt(p.concurrentCalls))
}

// Refresh is a no-op; token reuse versus minting is decided per call by the
// TokenIssuer against the daemon's authoritative usage counters.
func (p *PrepaidStrategy) Refresh(ctx context.Context) error {
	return nil
}

// GRPCMetadata selects a channel funded for the whole batch, obtains a
// concurrency token and returns a derived context carrying the prepaid-call
// headers.
func (p *PrepaidStrategy) GRPCMetadata(ctx context.Context) (context.Context, error) {
	c, err := p.channels.SelectChannel(ctx, p.preselect, p.pricePerBatch())
	if err != nil {
		return nil, fmt.Errorf("selecting payment channel: %w", err)
	}

	token, err := p.issuer.GetToken(ctx, c, p.pricePerBatch())
	if err != nil {
		return nil, fmt.Errorf("obtaining concurrency token: %w", err)
	}

	md := metadata.Pairs(
		PaymentTypeHeader, "prepaid-call",
		PaymentChannelIDHeader, c.ID().String(),
		PaymentChannelNonceHeader, c.State().CurrentNonce.String(),
		PrePaidAuthTokenHeader, token,
	)
	return metadata.NewOutgoingContext(ctx, md), nil
}
