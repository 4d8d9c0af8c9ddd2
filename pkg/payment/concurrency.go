package payment

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/singnet/snet-payments-go/pkg/channel"
	"github.com/singnet/snet-payments-go/pkg/daemon"
	"github.com/singnet/snet-payments-go/pkg/signer"
)

// TokenIssuer mints or reuses concurrency tokens against a payment channel.
// A token prepays a batch of calls with a single escrow signature; as long as
// the daemon reports the batch not yet exhausted, the same token keeps being
// reused and no new signature is produced.
type TokenIssuer struct {
	daemon       daemon.Protocol
	currentBlock BlockFunc
}

// NewTokenIssuer builds a TokenIssuer talking to the given daemon.
func NewTokenIssuer(d daemon.Protocol, currentBlock BlockFunc) *TokenIssuer {
	return &TokenIssuer{daemon: d, currentBlock: currentBlock}
}

// GetToken returns a concurrency token for the channel. If the channel
// already carries an authorized amount, the daemon is first asked for the
// token scoped to it; that token is reused while its used amount stays below
// its planned amount. Otherwise a new token is minted for
// currentSignedAmount + pricePerBatch.
//
// Daemon rejections (stale nonce, amount beyond deposit) surface unchanged;
// the caller should re-run channel selection before retrying.
func (t *TokenIssuer) GetToken(ctx context.Context, c *channel.PaymentChannel, pricePerBatch *big.Int) (string, error) {
	state := c.State()

	if state.CurrentSignedAmount.Sign() > 0 {
		token, err := t.request(ctx, c, state.CurrentSignedAmount)
		if err != nil {
			return "", err
		}
		if token.UsedAmount < token.PlannedAmount {
			zap.L().Debug("Reusing concurrency token",
				zap.Uint64("used", token.UsedAmount),
				zap.Uint64("planned", token.PlannedAmount))
			return token.Token, nil
		}
	}

	amount := new(big.Int).Add(state.CurrentSignedAmount, pricePerBatch)
	zap.L().Debug("Minting concurrency token",
		zap.String("channelId", c.ID().String()),
		zap.String("amount", amount.String()))
	token, err := t.request(ctx, c, amount)
	if err != nil {
		return "", err
	}
	return token.Token, nil
}

// request asks the daemon for the token scoped to the given cumulative
// amount. The claim signature is wrapped in a second signature over
// (claimSignature, currentBlock) to bind it to the request instant.
func (t *TokenIssuer) request(ctx context.Context, c *channel.PaymentChannel, amount *big.Int) (*daemon.Token, error) {
	state := c.State()

	block, err := t.currentBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading current block: %w", err)
	}
	claimSig, err := claimSignature(c, state.CurrentNonce, amount)
	if err != nil {
		return nil, err
	}
	sig, err := signer.SignFields(c.Signer(),
		signer.BytesField(claimSig),
		signer.Uint256Field(block),
	)
	if err != nil {
		return nil, fmt.Errorf("generating token signature: %w", err)
	}

	return t.daemon.Token(ctx, &daemon.TokenRequest{
		ChannelID:      c.ID().Uint64(),
		CurrentNonce:   state.CurrentNonce.Uint64(),
		SignedAmount:   amount.Uint64(),
		ClaimSignature: claimSig,
		Signature:      sig,
		CurrentBlock:   block.Uint64(),
	})
}
