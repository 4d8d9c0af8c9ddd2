package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// GroupChannels exposes the escrow operations for one (payer, recipient,
// payment group) scope. All channel mutations block until their transaction
// confirms, so callers observe the post-transaction on-chain state.
type GroupChannels struct {
	evm       *EVMClient
	account   *Account
	recipient common.Address
	groupID   [32]byte
}

// NewGroupChannels scopes channel operations to the payment group of one
// service recipient.
func NewGroupChannels(evm *EVMClient, account *Account, recipient common.Address, groupID [32]byte) *GroupChannels {
	return &GroupChannels{evm: evm, account: account, recipient: recipient, groupID: groupID}
}

// GroupID returns the payment group this scope is bound to.
func (g *GroupChannels) GroupID() [32]byte { return g.groupID }

// Recipient returns the payment recipient this scope is bound to.
func (g *GroupChannels) Recipient() common.Address { return g.recipient }

// CurrentBlock returns the latest chain block number.
func (g *GroupChannels) CurrentBlock(ctx context.Context) (*big.Int, error) {
	return g.evm.CurrentBlockNumber(ctx)
}

// EscrowBalance returns the payer's balance inside the escrow contract.
func (g *GroupChannels) EscrowBalance(ctx context.Context) (*big.Int, error) {
	return g.account.EscrowBalance(ctx)
}

// ChannelInfo returns the on-chain state of one channel.
func (g *GroupChannels) ChannelInfo(ctx context.Context, channelID *big.Int) (*ChannelInfo, error) {
	return g.evm.MPE.Channels(ctx, channelID)
}

// OpenChannelsSince replays ChannelOpen events for this scope starting at
// fromBlock.
func (g *GroupChannels) OpenChannelsSince(ctx context.Context, fromBlock uint64) ([]*ChannelOpenEvent, error) {
	return g.evm.MPE.PastOpenChannels(
		&bind.FilterOpts{Start: fromBlock, Context: ctx},
		[]common.Address{g.account.Address()},
		[]common.Address{g.recipient},
		[][32]byte{g.groupID},
	)
}

// OpenChannel opens a channel funded from the payer's existing escrow balance
// and returns the opened channel's event record.
func (g *GroupChannels) OpenChannel(ctx context.Context, value, expiration *big.Int) (*ChannelOpenEvent, error) {
	opts, err := g.account.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	receipt, err := g.evm.MPE.OpenChannel(ctx, opts,
		g.account.Address(), g.recipient, g.groupID, value, expiration)
	if err != nil {
		return nil, err
	}
	return g.openedChannel(ctx, receipt.BlockNumber.Uint64(), receipt.TxHash)
}

// DepositAndOpenChannel deposits value into escrow and opens a channel with
// it in one transaction, approving the token transfer first if needed.
func (g *GroupChannels) DepositAndOpenChannel(ctx context.Context, value, expiration *big.Int) (*ChannelOpenEvent, error) {
	opts, err := g.account.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := g.evm.Token.EnsureAllowance(ctx, opts, g.evm.MPE.Address, value); err != nil {
		return nil, err
	}
	receipt, err := g.evm.MPE.DepositAndOpenChannel(ctx, opts,
		g.account.Address(), g.recipient, g.groupID, value, expiration)
	if err != nil {
		return nil, err
	}
	return g.openedChannel(ctx, receipt.BlockNumber.Uint64(), receipt.TxHash)
}

// AddFunds tops up a channel, depositing the shortfall from the wallet when
// the escrow balance does not cover amount.
func (g *GroupChannels) AddFunds(ctx context.Context, channelID, amount *big.Int) error {
	if err := g.fundEscrow(ctx, amount); err != nil {
		return err
	}
	opts, err := g.account.transactOpts(ctx)
	if err != nil {
		return err
	}
	_, err = g.evm.MPE.ChannelAddFunds(ctx, opts, channelID, amount)
	return err
}

// ExtendExpiry moves a channel's expiration to a later block.
func (g *GroupChannels) ExtendExpiry(ctx context.Context, channelID, expiration *big.Int) error {
	opts, err := g.account.transactOpts(ctx)
	if err != nil {
		return err
	}
	_, err = g.evm.MPE.ChannelExtend(ctx, opts, channelID, expiration)
	return err
}

// ExtendAndAddFunds extends and tops up a channel in one transaction,
// depositing the shortfall from the wallet first when needed.
func (g *GroupChannels) ExtendAndAddFunds(ctx context.Context, channelID, expiration, amount *big.Int) error {
	if err := g.fundEscrow(ctx, amount); err != nil {
		return err
	}
	opts, err := g.account.transactOpts(ctx)
	if err != nil {
		return err
	}
	_, err = g.evm.MPE.ChannelExtendAndAddFunds(ctx, opts, channelID, expiration, amount)
	return err
}

// fundEscrow deposits from the wallet whatever part of amount the escrow
// balance does not already hold.
func (g *GroupChannels) fundEscrow(ctx context.Context, amount *big.Int) error {
	balance, err := g.account.EscrowBalance(ctx)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) >= 0 {
		return nil
	}
	shortfall := new(big.Int).Sub(amount, balance)
	zap.L().Info("Escrow balance below required amount, depositing shortfall",
		zap.String("balance", balance.String()),
		zap.String("shortfall", shortfall.String()))
	_, err = g.account.DepositToEscrow(ctx, shortfall)
	return err
}

// openedChannel finds the ChannelOpen event emitted by the transaction that
// just confirmed.
func (g *GroupChannels) openedChannel(ctx context.Context, block uint64, txHash common.Hash) (*ChannelOpenEvent, error) {
	events, err := g.evm.MPE.PastOpenChannels(
		&bind.FilterOpts{Start: block, Context: ctx},
		[]common.Address{g.account.Address()},
		[]common.Address{g.recipient},
		[][32]byte{g.groupID},
	)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		if ev.Raw.TxHash == txHash {
			zap.L().Info("Opened payment channel",
				zap.String("channelId", ev.ChannelId.String()),
				zap.String("amount", ev.Amount.String()),
				zap.String("expiration", ev.Expiration.String()))
			return ev, nil
		}
	}
	return nil, fmt.Errorf("transaction %s confirmed but no ChannelOpen event found: %w", txHash, ErrChannelNotFound)
}
