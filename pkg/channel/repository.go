package channel

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/singnet/snet-payments-go/pkg/blockchain"
	"github.com/singnet/snet-payments-go/pkg/signer"
)

// Repository owns the set of known channels for one (payer, recipient, group)
// scope. Channels are discovered by replaying open events and never removed;
// the set only grows. All mutation of the set goes through the repository.
type Repository struct {
	escrow     Escrow
	daemon     StateService
	signer     signer.Signer
	mpeAddress common.Address

	channels      []*PaymentChannel
	known         map[string]*PaymentChannel
	lastReadBlock uint64
}

// NewRepository builds an empty repository over the given collaborators.
func NewRepository(escrow Escrow, state StateService, s signer.Signer, mpeAddress common.Address) *Repository {
	return &Repository{
		escrow:     escrow,
		daemon:     state,
		signer:     s,
		mpeAddress: mpeAddress,
		known:      make(map[string]*PaymentChannel),
	}
}

// LoadOpenChannels replays open events since the last read block and merges
// newly discovered channels into the known set. Replayed duplicates are
// ignored, so repeated calls with no new events leave the set unchanged. The
// returned slice preserves discovery order.
func (r *Repository) LoadOpenChannels(ctx context.Context) ([]*PaymentChannel, error) {
	events, err := r.escrow.OpenChannelsSince(ctx, r.lastReadBlock)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		r.add(ev)
		if ev.Raw.BlockNumber >= r.lastReadBlock {
			r.lastReadBlock = ev.Raw.BlockNumber + 1
		}
	}
	return r.channels, nil
}

// UpdateStates refreshes every known channel from the chain and the daemon.
// The first failure aborts the pass; already refreshed channels keep their
// new state, the rest keep their old one.
func (r *Repository) UpdateStates(ctx context.Context) error {
	for _, c := range r.channels {
		if err := c.SyncState(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Channels returns the known set in discovery order. Callers must not mutate
// channels except through their own methods.
func (r *Repository) Channels() []*PaymentChannel {
	return r.channels
}

// ChannelByID returns the known channel with the given id, or nil.
func (r *Repository) ChannelByID(id *big.Int) *PaymentChannel {
	return r.known[id.String()]
}

// AddFromEvent registers a channel the caller just opened, so it is usable
// before the next event replay observes it.
func (r *Repository) AddFromEvent(ev *blockchain.ChannelOpenEvent) *PaymentChannel {
	return r.add(ev)
}

func (r *Repository) add(ev *blockchain.ChannelOpenEvent) *PaymentChannel {
	key := ev.ChannelId.String()
	if existing, ok := r.known[key]; ok {
		return existing
	}
	c := NewPaymentChannel(r.escrow, r.daemon, r.signer, r.mpeAddress, ev)
	r.known[key] = c
	r.channels = append(r.channels, c)
	zap.L().Debug("Discovered payment channel",
		zap.String("channelId", key),
		zap.String("amount", ev.Amount.String()),
		zap.String("expiration", ev.Expiration.String()))
	return c
}
