package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

const defaultMaxBackoff = 6 * time.Second

// ErrTransactionReverted marks a transaction that was mined but failed.
var ErrTransactionReverted = errors.New("transaction reverted")

// TransactOpts builds signed transaction options for key on the connected
// chain.
func (evm *EVMClient) TransactOpts(ctx context.Context, key *ecdsa.PrivateKey) (*bind.TransactOpts, error) {
	chainID, err := evm.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("building transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// estimateGas returns a shallow copy of opts with the gas limit cleared so
// the node estimates it, and the context attached.
func estimateGas(ctx context.Context, opts *bind.TransactOpts) *bind.TransactOpts {
	o := *opts
	o.GasLimit = 0
	o.Context = ctx
	return &o
}

// WaitForTransaction polls for the receipt of txHash until it is mined or ctx
// is done, backing off exponentially up to maxBackoff (a default is applied
// when maxBackoff is zero). A mined-but-failed transaction is an error.
func WaitForTransaction(ctx context.Context, client *ethclient.Client, txHash common.Hash, maxBackoff time.Duration) (*types.Receipt, error) {
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	backoff := 500 * time.Millisecond
	for {
		receipt, err := client.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return nil, ErrTransactionReverted
			}
			zap.L().Debug("Transaction mined",
				zap.String("tx", txHash.Hex()),
				zap.Uint64("block", receipt.BlockNumber.Uint64()))
			return receipt, nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}
