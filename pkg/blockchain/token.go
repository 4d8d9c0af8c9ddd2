package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	contracts "github.com/singnet/snet-ecosystem-contracts"
	"go.uber.org/zap"
)

// maxAllowance is the unlimited ERC-20 approval value, 2^256-1.
var maxAllowance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// TokenContract wraps the FET ERC-20 token the escrow settles in.
type TokenContract struct {
	Address  common.Address
	client   *ethclient.Client
	contract *bind.BoundContract
}

// NewTokenContract binds the ERC-20 token contract at addr.
func NewTokenContract(addr common.Address, client *ethclient.Client) (*TokenContract, error) {
	parsed, err := parseABI(contracts.GetABIClean(contracts.FetchToken))
	if err != nil {
		return nil, err
	}
	return &TokenContract{
		Address:  addr,
		client:   client,
		contract: boundContract(addr, parsed, client),
	}, nil
}

// BalanceOf returns the token balance of addr in base units.
func (c *TokenContract) BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error) {
	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", addr); err != nil {
		return nil, fmt.Errorf("reading token balance: %w", err)
	}
	return out[0].(*big.Int), nil
}

// Allowance returns how much spender may transfer on behalf of owner.
func (c *TokenContract) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, spender); err != nil {
		return nil, fmt.Errorf("reading token allowance: %w", err)
	}
	return out[0].(*big.Int), nil
}

// Approve lets spender transfer up to value tokens and waits for the
// transaction to confirm.
func (c *TokenContract) Approve(ctx context.Context, opts *bind.TransactOpts, spender common.Address, value *big.Int) (*types.Receipt, error) {
	tx, err := c.contract.Transact(estimateGas(ctx, opts), "approve", spender, value)
	if err != nil {
		return nil, &TxError{Op: "approving token transfer", Err: err}
	}
	receipt, err := WaitForTransaction(ctx, c.client, tx.Hash(), 0)
	if err != nil {
		return nil, &TxError{Op: "approving token transfer", Hash: tx.Hash(), Err: err}
	}
	return receipt, nil
}

// EnsureAllowance grants spender an unlimited allowance if the current one
// does not cover value. Returns true when an approval transaction was sent.
func (c *TokenContract) EnsureAllowance(ctx context.Context, opts *bind.TransactOpts, spender common.Address, value *big.Int) (bool, error) {
	current, err := c.Allowance(ctx, opts.From, spender)
	if err != nil {
		return false, err
	}
	if current.Cmp(value) >= 0 {
		return false, nil
	}
	zap.L().Info("Approving token allowance",
		zap.String("spender", spender.Hex()),
		zap.String("required", value.String()))
	if _, err := c.Approve(ctx, opts, spender, maxAllowance); err != nil {
		return false, err
	}
	return true, nil
}
