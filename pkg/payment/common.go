package payment

import (
	"fmt"
	"math/big"

	"github.com/singnet/snet-payments-go/pkg/channel"
	"github.com/singnet/snet-payments-go/pkg/signer"
)

// claimSignature signs the MPE claim message that authorizes the recipient to
// withdraw up to amount on (channel, nonce):
//
//	concat("__MPE_claim_message", MPEAddress, channelID, nonce, amount)
//
// hashed and signed Ethereum personal-sign style.
func claimSignature(c *channel.PaymentChannel, nonce, amount *big.Int) ([]byte, error) {
	sig, err := signer.SignFields(c.Signer(),
		signer.StringField(PrefixInSignature),
		signer.AddressField(c.MPEAddress()),
		signer.Uint256Field(c.ID()),
		signer.Uint256Field(nonce),
		signer.Uint256Field(amount),
	)
	if err != nil {
		return nil, fmt.Errorf("generating claim signature: %w", err)
	}
	return sig, nil
}
