package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	contracts "github.com/singnet/snet-ecosystem-contracts"
	"go.uber.org/zap"
)

// ChannelInfo is the on-chain state of one MultiPartyEscrow payment channel,
// as returned by the contract's channels(id) view.
type ChannelInfo struct {
	Sender     common.Address
	Signer     common.Address
	Recipient  common.Address
	GroupID    [32]byte
	Value      *big.Int
	Nonce      *big.Int
	Expiration *big.Int
}

// ChannelOpenEvent is a decoded ChannelOpen log. Field names match the event
// inputs so that UnpackLog can populate the struct directly.
type ChannelOpenEvent struct {
	ChannelId  *big.Int
	Nonce      *big.Int
	Sender     common.Address
	Signer     common.Address
	Recipient  common.Address
	GroupId    [32]byte
	Amount     *big.Int
	Expiration *big.Int
	Raw        types.Log
}

// TxError reports a failed or reverted chain transaction. The operation name
// identifies which channel mutation was attempted; the hash is zero when the
// transaction was never accepted by the node.
type TxError struct {
	Op   string
	Hash common.Hash
	Err  error
}

func (e *TxError) Error() string {
	if e.Hash == (common.Hash{}) {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s (tx %s): %v", e.Op, e.Hash, e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }

// MPEContract wraps the MultiPartyEscrow contract. All mutating methods
// submit a transaction and block until its receipt confirms success; a
// reverted or rejected transaction surfaces as *TxError and is never retried
// here, since resubmission risks duplicated on-chain effects.
type MPEContract struct {
	Address  common.Address
	client   *ethclient.Client
	contract *bind.BoundContract
}

// NewMPEContract binds the MultiPartyEscrow contract at addr.
func NewMPEContract(addr common.Address, client *ethclient.Client) (*MPEContract, error) {
	parsed, err := parseABI(contracts.GetABIClean(contracts.MultiPartyEscrow))
	if err != nil {
		return nil, err
	}
	return &MPEContract{
		Address:  addr,
		client:   client,
		contract: boundContract(addr, parsed, client),
	}, nil
}

// TokenAddress returns the ERC-20 token the escrow is denominated in.
func (c *MPEContract) TokenAddress(ctx context.Context) (common.Address, error) {
	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "token"); err != nil {
		return common.Address{}, fmt.Errorf("reading MPE token address: %w", err)
	}
	return out[0].(common.Address), nil
}

// Balance returns the escrow-internal balance of addr.
func (c *MPEContract) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balances", addr); err != nil {
		return nil, fmt.Errorf("reading MPE balance: %w", err)
	}
	bal := out[0].(*big.Int)
	zap.L().Debug("MPE balance", zap.String("address", addr.Hex()), zap.String("balance", bal.String()))
	return bal, nil
}

// Channels returns the authoritative on-chain tuple for a channel. A zero
// sender address means the channel does not exist.
func (c *MPEContract) Channels(ctx context.Context, channelID *big.Int) (*ChannelInfo, error) {
	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "channels", channelID); err != nil {
		return nil, fmt.Errorf("reading channel %s: %w", channelID, err)
	}
	info := &ChannelInfo{
		Sender:     out[0].(common.Address),
		Signer:     out[1].(common.Address),
		Recipient:  out[2].(common.Address),
		GroupID:    out[3].([32]byte),
		Value:      out[4].(*big.Int),
		Nonce:      out[5].(*big.Int),
		Expiration: out[6].(*big.Int),
	}
	if info.Sender == (common.Address{}) {
		return nil, fmt.Errorf("channel %s does not exist", channelID)
	}
	return info, nil
}

// PastOpenChannels replays ChannelOpen events filtered by sender, recipient
// and group since opts.Start. Events whose sender is not also the channel
// signer are skipped, matching the client-side channels this SDK can use.
func (c *MPEContract) PastOpenChannels(opts *bind.FilterOpts, senders, recipients []common.Address, groupIDs [][32]byte) ([]*ChannelOpenEvent, error) {
	logs, sub, err := c.contract.FilterLogs(opts, "ChannelOpen",
		toQuery(senders), toQuery(recipients), toQuery(groupIDs))
	if err != nil {
		return nil, fmt.Errorf("filtering ChannelOpen events: %w", err)
	}
	defer sub.Unsubscribe()

	var events []*ChannelOpenEvent
	collect := func(l types.Log) error {
		ev := new(ChannelOpenEvent)
		if err := c.contract.UnpackLog(ev, "ChannelOpen", l); err != nil {
			return fmt.Errorf("decoding ChannelOpen event: %w", err)
		}
		ev.Raw = l
		if ev.Sender != ev.Signer {
			zap.L().Debug("Skipping channel with external signer", zap.String("channelId", ev.ChannelId.String()))
			return nil
		}
		events = append(events, ev)
		return nil
	}

	for {
		select {
		case l := <-logs:
			if err := collect(l); err != nil {
				return nil, err
			}
		case err := <-sub.Err():
			if err != nil {
				return nil, fmt.Errorf("filtering ChannelOpen events: %w", err)
			}
			// Subscription completed; drain anything still buffered.
			for {
				select {
				case l := <-logs:
					if err := collect(l); err != nil {
						return nil, err
					}
				default:
					return events, nil
				}
			}
		}
	}
}

// Deposit moves value tokens from the caller's token balance into escrow.
func (c *MPEContract) Deposit(ctx context.Context, opts *bind.TransactOpts, value *big.Int) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "depositing to escrow", "deposit", value)
}

// Withdraw moves value tokens from escrow back to the caller's token balance.
func (c *MPEContract) Withdraw(ctx context.Context, opts *bind.TransactOpts, value *big.Int) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "withdrawing from escrow", "withdraw", value)
}

// OpenChannel opens a channel funded from the caller's escrow balance.
func (c *MPEContract) OpenChannel(ctx context.Context, opts *bind.TransactOpts, signerAddr, recipient common.Address, groupID [32]byte, value, expiration *big.Int) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "opening channel", "openChannel",
		signerAddr, recipient, groupID, value, expiration)
}

// DepositAndOpenChannel atomically deposits value into escrow and opens a
// channel with it in a single transaction.
func (c *MPEContract) DepositAndOpenChannel(ctx context.Context, opts *bind.TransactOpts, signerAddr, recipient common.Address, groupID [32]byte, value, expiration *big.Int) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "depositing and opening channel", "depositAndOpenChannel",
		signerAddr, recipient, groupID, value, expiration)
}

// ChannelAddFunds tops up a channel from the caller's escrow balance.
func (c *MPEContract) ChannelAddFunds(ctx context.Context, opts *bind.TransactOpts, channelID, amount *big.Int) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "adding funds to channel", "channelAddFunds", channelID, amount)
}

// ChannelExtend moves a channel's expiration to a later block.
func (c *MPEContract) ChannelExtend(ctx context.Context, opts *bind.TransactOpts, channelID, expiration *big.Int) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "extending channel", "channelExtend", channelID, expiration)
}

// ChannelExtendAndAddFunds extends and tops up a channel in one transaction.
func (c *MPEContract) ChannelExtendAndAddFunds(ctx context.Context, opts *bind.TransactOpts, channelID, expiration, amount *big.Int) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "extending and funding channel", "channelExtendAndAddFunds",
		channelID, expiration, amount)
}

// ChannelClaimTimeout reclaims the remaining value of an expired channel back
// into the sender's escrow balance.
func (c *MPEContract) ChannelClaimTimeout(ctx context.Context, opts *bind.TransactOpts, channelID *big.Int) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "claiming channel timeout", "channelClaimTimeout", channelID)
}

// transactAndWait submits a state-changing call and blocks until the receipt
// confirms it. Gas is estimated by the node.
func (c *MPEContract) transactAndWait(ctx context.Context, opts *bind.TransactOpts, op, method string, args ...any) (*types.Receipt, error) {
	tx, err := c.contract.Transact(estimateGas(ctx, opts), method, args...)
	if err != nil {
		return nil, &TxError{Op: op, Err: err}
	}
	zap.L().Debug("Transaction submitted", zap.String("op", op), zap.String("tx", tx.Hash().Hex()))
	receipt, err := WaitForTransaction(ctx, c.client, tx.Hash(), 0)
	if err != nil {
		return nil, &TxError{Op: op, Hash: tx.Hash(), Err: err}
	}
	return receipt, nil
}

// toQuery converts a typed filter slice into the []interface{} form expected
// by BoundContract.FilterLogs.
func toQuery[T any](vals []T) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// ErrChannelNotFound is returned when event replay finds no channel for the
// requested filters.
var ErrChannelNotFound = errors.New("payment channel not found")
