// Package payment produces the payment metadata attached to SingularityNET
// service calls.
//
// Three payment flows are implemented, each as a Strategy:
//
//   - FreeStrategy: daemon-issued free-call tokens, no payment and no chain
//     transactions while the allowance lasts.
//   - PrepaidStrategy: a concurrency token backed by one escrow claim sized
//     for a batch of calls, minted and reused through the TokenIssuer.
//   - PaidStrategy: a fresh escrow claim per call against a channel picked
//     by the channel selector.
//
// The Dispatcher ties them together, picking per call in fixed priority
// order: free while the daemon reports calls remaining, then prepaid when
// concurrency is enabled, then pay-per-call.
//
// Typical use:
//
//	ctx, err := strategy.GRPCMetadata(ctx)
//	if err != nil {
//		return err
//	}
//	err = conn.Invoke(ctx, method, req, reply)
//
// All claim and authentication messages are signed Ethereum personal-sign
// style through the signer package; the exact field layouts are fixed by the
// daemon and documented on each builder.
package payment
