// Package channel tracks MultiPartyEscrow payment channels on the client
// side: the authoritative on-chain tuple, the daemon's off-chain claim state,
// and the lifecycle decisions (open, fund, extend) that keep a channel usable
// for the next paid call.
package channel

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/singnet/snet-payments-go/pkg/blockchain"
	"github.com/singnet/snet-payments-go/pkg/daemon"
	"github.com/singnet/snet-payments-go/pkg/signer"
)

// Escrow is the on-chain side of channel management, scoped to one
// (payer, recipient, group). All mutations confirm their transaction before
// returning. blockchain.GroupChannels is the production implementation.
type Escrow interface {
	CurrentBlock(ctx context.Context) (*big.Int, error)
	EscrowBalance(ctx context.Context) (*big.Int, error)
	ChannelInfo(ctx context.Context, channelID *big.Int) (*blockchain.ChannelInfo, error)
	OpenChannelsSince(ctx context.Context, fromBlock uint64) ([]*blockchain.ChannelOpenEvent, error)
	OpenChannel(ctx context.Context, value, expiration *big.Int) (*blockchain.ChannelOpenEvent, error)
	DepositAndOpenChannel(ctx context.Context, value, expiration *big.Int) (*blockchain.ChannelOpenEvent, error)
	AddFunds(ctx context.Context, channelID, amount *big.Int) error
	ExtendExpiry(ctx context.Context, channelID, expiration *big.Int) error
	ExtendAndAddFunds(ctx context.Context, channelID, expiration, amount *big.Int) error
}

// StateService is the daemon RPC used to read a channel's off-chain claim
// state. daemon.Protocol satisfies it.
type StateService interface {
	ChannelState(ctx context.Context, channelID *big.Int, signature []byte, currentBlock uint64) (*daemon.ChannelState, error)
}

// State is a snapshot of one channel. The on-chain fields change only through
// confirmed transactions; the off-chain fields change only by querying the
// daemon.
type State struct {
	ChannelID *big.Int
	// On-chain.
	Nonce           *big.Int
	Expiration      *big.Int
	AmountDeposited *big.Int
	// Off-chain, as reported by the daemon.
	CurrentNonce        *big.Int
	CurrentSignedAmount *big.Int
}

// Available returns how much of the deposit is not yet authorized by a claim,
// AmountDeposited - CurrentSignedAmount. A negative result means the daemon
// and the chain have diverged; callers treat that as ErrStaleState.
func (s *State) Available() *big.Int {
	return new(big.Int).Sub(s.AmountDeposited, s.CurrentSignedAmount)
}

// PaymentChannel couples a channel snapshot with the collaborators needed to
// mutate and resync it.
type PaymentChannel struct {
	escrow     Escrow
	daemon     StateService
	signer     signer.Signer
	mpeAddress common.Address

	state State
}

// NewPaymentChannel builds a channel handle from a freshly observed open
// event. The off-chain state starts at zero until the first SyncState.
func NewPaymentChannel(escrow Escrow, state StateService, s signer.Signer, mpeAddress common.Address, ev *blockchain.ChannelOpenEvent) *PaymentChannel {
	return &PaymentChannel{
		escrow:     escrow,
		daemon:     state,
		signer:     s,
		mpeAddress: mpeAddress,
		state: State{
			ChannelID:           ev.ChannelId,
			Nonce:               ev.Nonce,
			Expiration:          ev.Expiration,
			AmountDeposited:     ev.Amount,
			CurrentNonce:        big.NewInt(0),
			CurrentSignedAmount: big.NewInt(0),
		},
	}
}

// ID returns the channel's on-chain identifier.
func (c *PaymentChannel) ID() *big.Int { return c.state.ChannelID }

// State returns the current snapshot.
func (c *PaymentChannel) State() State { return c.state }

// Available returns the unauthorized remainder of the deposit.
func (c *PaymentChannel) Available() *big.Int { return c.state.Available() }

// Signer returns the claim signer bound to this channel's payer.
func (c *PaymentChannel) Signer() signer.Signer { return c.signer }

// MPEAddress returns the escrow contract address claims are scoped to.
func (c *PaymentChannel) MPEAddress() common.Address { return c.mpeAddress }

/// SyncState refreshes the snapshot: the authoritative on-chain tuple from the
// contract and the newest claim state from the daemon. The update is all or
// nothing; on any failure the previous snapshot is kept. The daemon request
// is signed over ("__get_channel_state", mpe, channelId, currentBlock) so the
// daemon can verify the caller controls the channel.
func (c *PaymentChannel) SyncState(ctx context.Context) error {
	info, err := c.escrow.ChannelInfo(ctx, c.state.ChannelID)
	if err != nil {
		return fmt.Errorf("refreshing channel %s: %w", c.state.ChannelID, err)
	}

	block, err := c.escrow.CurrentBlock(ctx)
	if err != nil {
		return fmt.Errorf("refreshing channel %s: %w", c.state.ChannelID, err)
	}

	sig, err := signer.SignFields(c.signer,
		signer.StringField("__get_channel_state"),
		signer.AddressField(c.mpeAddress),
		signer.Uint256Field(c.state.ChannelID),
		signer.Uint256Field(block),
	)
	if err != nil {
		return err
	}

	daemonState, err := c.daemon.ChannelState(ctx, c.state.ChannelID, sig, block.Uint64())
	if err != nil {
		return err
	}

	next := State{
		ChannelID:           c.state.ChannelID,
		Nonce:               info.Nonce,
		Expiration:          info.Expiration,
		AmountDeposited:     info.Value,
		CurrentNonce:        daemonState.CurrentNonce,
		CurrentSignedAmount: daemonState.CurrentSignedAmount,
	}
	if next.Available().Sign() < 0 {
		return fmt.Errorf("channel %s signed amount %s exceeds deposit %s: %w",
			next.ChannelID, next.CurrentSignedAmount, next.AmountDeposited, ErrStaleState)
	}

	c.state = next
	return nil
}

// AddFunds tops up the channel and reflects the confirmed deposit in the
// snapshot.
func (c *PaymentChannel) AddFunds(ctx context.Context, amount *big.Int) error {
	if err := c.escrow.AddFunds(ctx, c.state.ChannelID, amount); err != nil {
		return fmt.Errorf("adding funds to channel %s: %w", c.state.ChannelID, err)
	}
	c.state.AmountDeposited = new(big.Int).Add(c.state.AmountDeposited, amount)
	return nil
}

// ExtendExpiry pushes the channel's expiration to the given block and
// reflects it in the snapshot once confirmed.
func (c *PaymentChannel) ExtendExpiry(ctx context.Context, expiration *big.Int) error {
	if err := c.escrow.ExtendExpiry(ctx, c.state.ChannelID, expiration); err != nil {
		return fmt.Errorf("extending channel %s: %w", c.state.ChannelID, err)
	}
	c.state.Expiration = expiration
	return nil
}

// ExtendAndAddFunds extends and tops up in one confirmed transaction.
func (c *PaymentChannel) ExtendAndAddFunds(ctx context.Context, expiration, amount *big.Int) error {
	if err := c.escrow.ExtendAndAddFunds(ctx, c.state.ChannelID, expiration, amount); err != nil {
		return fmt.Errorf("extending and funding channel %s: %w", c.state.ChannelID, err)
	}
	c.state.Expiration = expiration
	c.state.AmountDeposited = new(big.Int).Add(c.state.AmountDeposited, amount)
	return nil
}
