package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/singnet/snet-payments-go/pkg/signer"
)

// Account couples a signing key with the token and escrow contracts, exposing
// the wallet-level operations a payer needs: checking balances, moving tokens
// in and out of escrow, and reclaiming expired channels.
type Account struct {
	evm    *EVMClient
	signer *signer.PrivateKeySigner
}

// NewAccount builds an account for the given hex-encoded private key.
func NewAccount(evm *EVMClient, privateKeyHex string) (*Account, error) {
	s, err := signer.ParsePrivateKeySigner(privateKeyHex)
	if err != nil {
		return nil, err
	}
	return &Account{evm: evm, signer: s}, nil
}

// Address returns the account's Ethereum address.
func (a *Account) Address() common.Address { return a.signer.Address() }

// Signer returns the account's message signer for off-chain claims.
func (a *Account) Signer() *signer.PrivateKeySigner { return a.signer }

// Balance returns the account's ERC-20 token balance in base units.
func (a *Account) Balance(ctx context.Context) (*big.Int, error) {
	return a.evm.Token.BalanceOf(ctx, a.Address())
}

// EscrowBalance returns the account's balance held inside the escrow
// contract, available for opening and funding channels without a deposit.
func (a *Account) EscrowBalance(ctx context.Context) (*big.Int, error) {
	return a.evm.MPE.Balance(ctx, a.Address())
}

// Allowance returns how much the escrow contract may currently pull from the
// account's token balance.
func (a *Account) Allowance(ctx context.Context) (*big.Int, error) {
	return a.evm.Token.Allowance(ctx, a.Address(), a.evm.MPE.Address)
}

// Approve grants the escrow contract permission to transfer value tokens.
func (a *Account) Approve(ctx context.Context, value *big.Int) (*types.Receipt, error) {
	opts, err := a.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	return a.evm.Token.Approve(ctx, opts, a.evm.MPE.Address, value)
}

// DepositToEscrow moves value tokens into the escrow contract, approving the
// transfer first when the existing allowance does not cover it.
func (a *Account) DepositToEscrow(ctx context.Context, value *big.Int) (*types.Receipt, error) {
	opts, err := a.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := a.evm.Token.EnsureAllowance(ctx, opts, a.evm.MPE.Address, value); err != nil {
		return nil, err
	}
	receipt, err := a.evm.MPE.Deposit(ctx, opts, value)
	if err != nil {
		return nil, err
	}
	zap.L().Info("Deposited to escrow",
		zap.String("address", a.Address().Hex()),
		zap.String("amount", value.String()))
	return receipt, nil
}

// WithdrawFromEscrow moves value tokens from escrow back to the wallet.
func (a *Account) WithdrawFromEscrow(ctx context.Context, value *big.Int) (*types.Receipt, error) {
	opts, err := a.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	return a.evm.MPE.Withdraw(ctx, opts, value)
}

// ClaimChannelTimeout reclaims the unspent value of an expired channel owned
// by this account back into its escrow balance. The channel must have passed
// its expiration block.
func (a *Account) ClaimChannelTimeout(ctx context.Context, channelID *big.Int) (*types.Receipt, error) {
	info, err := a.evm.MPE.Channels(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if info.Sender != a.Address() {
		return nil, fmt.Errorf("channel %s belongs to %s, not this account", channelID, info.Sender.Hex())
	}
	block, err := a.evm.CurrentBlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	if block.Cmp(info.Expiration) < 0 {
		return nil, fmt.Errorf("channel %s expires at block %s, current block is %s",
			channelID, info.Expiration, block)
	}
	opts, err := a.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	return a.evm.MPE.ChannelClaimTimeout(ctx, opts, channelID)
}

func (a *Account) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	return a.evm.TransactOpts(ctx, a.signer.PrivateKey())
}
