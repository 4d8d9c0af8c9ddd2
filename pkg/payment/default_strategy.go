package payment

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Dispatcher picks the payment flow per call in fixed priority order: free
// calls while the daemon reports an allowance, then prepaid concurrency
// tokens when enabled, then per-call escrow claims.
//
// The free-call allowance is queried fresh on every call. A failing
// availability check degrades to the paid flows instead of failing the call.
type Dispatcher struct {
	free    *FreeStrategy
	prepaid *PrepaidStrategy
	paid    *PaidStrategy
	// concurrencyEnabled selects prepaid tokens over per-call claims.
	concurrencyEnabled bool
}

// NewDispatcher builds a Dispatcher. free may be nil when the service grants
// no free-call allowance; prepaid and paid must be set.
func NewDispatcher(free *FreeStrategy, prepaid *PrepaidStrategy, paid *PaidStrategy, concurrencyEnabled bool) (*Dispatcher, error) {
	if prepaid == nil || paid == nil {
		return nil, fmt.Errorf("dispatcher requires prepaid and paid strategies")
	}
	return &Dispatcher{
		free:               free,
		prepaid:            prepaid,
		paid:               paid,
		concurrencyEnabled: concurrencyEnabled,
	}, nil
}

// pick resolves the payment kind for the next call. Daemon failures during
// the free-call check count as no free calls remaining.
func (d *Dispatcher) pick(ctx context.Context) Kind {
	var freeCalls uint64
	if d.free != nil {
		n, err := d.free.Available(ctx)
		if err != nil {
			zap.L().Warn("Free call check failed, falling back to paid flow", zap.Error(err))
			n = 0
		}
		freeCalls = n
	}
	return decide(freeCalls, d.concurrencyEnabled)
}

func (d *Dispatcher) strategy(k Kind) Strategy {
	switch k {
	case KindFreeCall:
		return d.free
	case KindPrepaid:
		return d.prepaid
	default:
		return d.paid
	}
}

// Refresh renews the state of the strategy that would serve the next call.
func (d *Dispatcher) Refresh(ctx context.Context) error {
	return d.strategy(d.pick(ctx)).Refresh(ctx)
}

// GRPCMetadata produces the payment metadata for the next call using the
// highest-priority applicable flow.
func (d *Dispatcher) GRPCMetadata(ctx context.Context) (context.Context, error) {
	kind := d.pick(ctx)
	zap.L().Debug("Dispatching payment", zap.Stringer("kind", kind))
	return d.strategy(kind).GRPCMetadata(ctx)
}
