package payment

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"
	"google.golang.org/grpc/metadata"

	"github.com/singnet/snet-payments-go/pkg/channel"
)

// ChannelSource yields a payment channel able to cover the given price,
// mutating the channel set on chain when needed. *channel.Selector is the
// production implementation.
type ChannelSource interface {
	SelectChannel(ctx context.Context, preselect, requiredPrice *big.Int) (*channel.PaymentChannel, error)
}

// PaidStrategy implements the escrow payment flow. Every call selects a
// funded channel and signs a fresh claim for the daemon's current signed
// amount plus the call price.
type PaidStrategy struct {
	channels ChannelSource
	price    *big.Int
	// preselect pins the channel id to use instead of the selector's choice.
	preselect *big.Int
	// trainModelID switches the metadata to the train-call payment type.
	trainModelID string
}

// NewPaidStrategy builds a PaidStrategy paying price per call from channels
// selected by src.
func NewPaidStrategy(src ChannelSource, price *big.Int) *PaidStrategy {
	return &PaidStrategy{channels: src, price: price}
}

// NewTrainStrategy builds a PaidStrategy that pays for training calls on the
// given model. Train calls use the escrow claim format under the
// "train-call" payment type.
func NewTrainStrategy(src ChannelSource, price *big.Int, modelID string) *PaidStrategy {
	return &PaidStrategy{channels: src, price: price, trainModelID: modelID}
}

// WithChannelID pins the strategy to an explicit channel instead of letting
// the selector choose.
func (p *PaidStrategy) WithChannelID(id *big.Int) *PaidStrategy {
	p.preselect = id
	return p
}

// Refresh is a no-op; channel state is refreshed during selection on every
// call.
func (p *PaidStrategy) Refresh(ctx context.Context) error {
	return nil
}

// GRPCMetadata selects a channel, signs a claim for the next cumulative
// amount and returns a derived context carrying the escrow headers.
func (p *PaidStrategy) GRPCMetadata(ctx context.Context) (context.Context, error) {
	c, err := p.channels.SelectChannel(ctx, p.preselect, p.price)
	if err != nil {
		return nil, fmt.Errorf("selecting payment channel: %w", err)
	}

	state := c.State()
	amount := new(big.Int).Add(state.CurrentSignedAmount, p.price)
	sig, err := claimSignature(c, state.CurrentNonce, amount)
	if err != nil {
		return nil, err
	}

	paymentType := "escrow"
	if p.trainModelID != "" {
		paymentType = "train-call"
	}
	zap.L().Debug("Authorizing escrow claim",
		zap.String("channelId", c.ID().String()),
		zap.String("nonce", state.CurrentNonce.String()),
		zap.String("amount", amount.String()))

	md := metadata.Pairs(
		PaymentTypeHeader, paymentType,
		PaymentMultiPartyEscrowAddressHeader, c.MPEAddress().Hex(),
		PaymentChannelIDHeader, c.ID().String(),
		PaymentChannelNonceHeader, state.CurrentNonce.String(),
		PaymentChannelAmountHeader, amount.String(),
		PaymentChannelSignatureHeader, string(sig),
	)
	if p.trainModelID != "" {
		md.Set(TrainingModelIdHeader, p.trainModelID)
	}
	return metadata.NewOutgoingContext(ctx, md), nil
}
