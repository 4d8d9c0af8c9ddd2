package channel

import "errors"

var (
	// ErrInsufficientFunds marks a channel whose available amount cannot
	// cover the required price and for which no funding path was taken.
	ErrInsufficientFunds = errors.New("channel has insufficient funds")

	// ErrStaleState marks a daemon-reported claim state that is inconsistent
	// with the on-chain deposit, e.g. a signed amount above the deposit.
	ErrStaleState = errors.New("channel state is stale")

	// ErrChannelNotFound is returned when a preselected channel id is not in
	// the known set.
	ErrChannelNotFound = errors.New("payment channel not found")
)
