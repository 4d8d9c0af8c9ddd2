package payment

// Message prefixes agreed with the daemon. They scope a signature to one
// purpose so a captured signature cannot be replayed in another flow.
const (
	// PrefixInSignature prefixes MPE claim messages.
	PrefixInSignature = "__MPE_claim_message"
	// FreeCallPrefixSignature prefixes free-call authentication messages.
	FreeCallPrefixSignature = "__prefix_free_trial"
)

// gRPC metadata keys recognized by the daemon. Keys ending in "-bin" carry
// raw bytes; everything else is a string.
const (
	// PaymentTypeHeader discriminates the payment flow of a call:
	// "escrow", "prepaid-call", "free-call" or "train-call".
	PaymentTypeHeader = "snet-payment-type"
	// ClientTypeHeader identifies the calling client software.
	ClientTypeHeader = "snet-client-type"
	// UserInfoHeader carries the caller's Ethereum address.
	UserInfoHeader = "snet-user-info"

	// PaymentChannelIDHeader is the MPE payment channel id, decimal string.
	PaymentChannelIDHeader = "snet-payment-channel-id"
	// PaymentChannelNonceHeader is the channel nonce the claim applies to,
	// decimal string.
	PaymentChannelNonceHeader = "snet-payment-channel-nonce"
	// PaymentChannelAmountHeader is the cumulative amount the daemon is
	// authorized to withdraw after this call, decimal string.
	PaymentChannelAmountHeader = "snet-payment-channel-amount"
	// PaymentChannelSignatureHeader is the claim signature bytes.
	PaymentChannelSignatureHeader = "snet-payment-channel-signature-bin"
	// PaymentMultiPartyEscrowAddressHeader is the MPE contract address the
	// claim is scoped to. Sending it keeps signatures unambiguous even when
	// the daemon runs without chain access.
	PaymentMultiPartyEscrowAddressHeader = "snet-payment-mpe-address"

	// FreeCallUserIdHeader is the web2 user id making a free call, when the
	// organization authenticates free calls by user id instead of address.
	FreeCallUserIdHeader = "snet-free-call-user-id"
	// FreeCallUserAddressHeader is the Ethereum address making a free call.
	FreeCallUserAddressHeader = "snet-free-call-user-address"
	// FreeCallAuthTokenHeader is the daemon-issued free-call token bytes.
	FreeCallAuthTokenHeader = "snet-free-call-auth-token-bin"

	// CurrentBlockNumberHeader bounds a signature's freshness, decimal string.
	CurrentBlockNumberHeader = "snet-current-block-number"

	// PrePaidAuthTokenHeader is the daemon-issued concurrency token.
	PrePaidAuthTokenHeader = "snet-prepaid-auth-token-bin"

	// TrainingModelIdHeader names the model a train-call operates on.
	TrainingModelIdHeader = "snet-train-model-id"
)
