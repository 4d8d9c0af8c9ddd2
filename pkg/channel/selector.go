package channel

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"go.uber.org/zap"
)

// Selector picks, and if necessary provisions, a channel able to cover an
// upcoming paid call. A channel it returns (without preselection) is
// guaranteed to have Available() >= requiredPrice and an expiration at or
// beyond the group's expiration horizon.
//
// One Selector serves one (payer, recipient, group) scope, and its mutex
// serializes the whole refresh-decide-mutate sequence, so concurrent calls
// cannot both open a channel or double a top-up within that scope.
type Selector struct {
	repo   *Repository
	escrow Escrow

	// expirationThreshold is the group's payment_expiration_threshold: the
	// daemon refuses channels expiring within this many blocks.
	expirationThreshold *big.Int
	// blockOffset is the safety margin added past the horizon when extending.
	blockOffset *big.Int
	// callAllowance sizes top-ups to cover this many future calls.
	callAllowance *big.Int

	mu sync.Mutex
}

// NewSelector builds a selector over the repository's channel set.
func NewSelector(repo *Repository, escrow Escrow, expirationThreshold, blockOffset, callAllowance *big.Int) *Selector {
	return &Selector{
		repo:                repo,
		escrow:              escrow,
		expirationThreshold: expirationThreshold,
		blockOffset:         blockOffset,
		callAllowance:       callAllowance,
	}
}

// SelectChannel returns a channel usable for a call costing requiredPrice.
//
// With a non-nil preselect, the matching known channel is returned verbatim;
// no top-up is attempted and sufficiency is the caller's responsibility.
//
// Otherwise the first known channel is taken (discovery order, no ranking)
// and brought up to requiredPrice and the expiration horizon with the
// cheapest combination of extend and top-up transactions. With no channels at
// all, one is opened, funded from the escrow balance when it covers the
// price and with a fresh deposit otherwise.
func (s *Selector) SelectChannel(ctx context.Context, preselect *big.Int, requiredPrice *big.Int) (*PaymentChannel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.repo.LoadOpenChannels(ctx); err != nil {
		return nil, fmt.Errorf("loading open channels: %w", err)
	}
	if err := s.repo.UpdateStates(ctx); err != nil {
		return nil, err
	}

	if preselect != nil {
		c := s.repo.ChannelByID(preselect)
		if c == nil {
			return nil, fmt.Errorf("channel %s: %w", preselect, ErrChannelNotFound)
		}
		return c, nil
	}

	block, err := s.escrow.CurrentBlock(ctx)
	if err != nil {
		return nil, err
	}
	// The horizon the daemon will accept, and the extended target past it.
	defaultExpiration := new(big.Int).Add(block, s.expirationThreshold)
	extendedExpiry := new(big.Int).Add(defaultExpiration, s.blockOffset)
	extendedFund := new(big.Int).Mul(requiredPrice, s.callAllowance)

	channels := s.repo.Channels()
	if len(channels) == 0 {
		return s.openNewChannel(ctx, requiredPrice, extendedExpiry)
	}

	c := channels[0]
	state := c.State()
	sufficient := state.Available().Cmp(requiredPrice) >= 0
	valid := state.Expiration.Cmp(defaultExpiration) >= 0

	switch {
	case sufficient && valid:
		// Usable as is.
	case sufficient && !valid:
		zap.L().Info("Extending payment channel",
			zap.String("channelId", c.ID().String()),
			zap.String("expiration", extendedExpiry.String()))
		if err := c.ExtendExpiry(ctx, extendedExpiry); err != nil {
			return nil, err
		}
	case !sufficient && valid:
		zap.L().Info("Funding payment channel",
			zap.String("channelId", c.ID().String()),
			zap.String("amount", extendedFund.String()))
		if err := c.AddFunds(ctx, extendedFund); err != nil {
			return nil, err
		}
	default:
		zap.L().Info("Extending and funding payment channel",
			zap.String("channelId", c.ID().String()),
			zap.String("expiration", extendedExpiry.String()),
			zap.String("amount", extendedFund.String()))
		if err := c.ExtendAndAddFunds(ctx, extendedExpiry, extendedFund); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// openNewChannel opens the scope's first channel, from the escrow balance
// when it covers the price, otherwise depositing the amount in the same
// transaction.
func (s *Selector) openNewChannel(ctx context.Context, amount, expiration *big.Int) (*PaymentChannel, error) {
	balance, err := s.escrow.EscrowBalance(ctx)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amount) >= 0 {
		ev, err := s.escrow.OpenChannel(ctx, amount, expiration)
		if err != nil {
			return nil, err
		}
		return s.repo.AddFromEvent(ev), nil
	}
	zap.L().Info("Escrow balance does not cover channel, depositing and opening",
		zap.String("balance", balance.String()),
		zap.String("amount", amount.String()))
	ev, err := s.escrow.DepositAndOpenChannel(ctx, amount, expiration)
	if err != nil {
		return nil, err
	}
	return s.repo.AddFromEvent(ev), nil
}
