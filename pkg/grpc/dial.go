package grpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
)

// DialEndpoint connects to an endpoint and blocks until the connection is
// ready or the timeout elapses. Unlike NewClient, which connects lazily, this
// is for callers that need to know up front whether the endpoint is
// reachable.
func DialEndpoint(ctx context.Context, endpoint string, timeout time.Duration) (*grpc.ClientConn, error) {
	addr, creds := grpcCredsFromEndpoint(endpoint)
	conn, err := grpc.NewClient(addr, creds)
	if err != nil {
		return nil, fmt.Errorf("dialing %q: %w", endpoint, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn.Connect()
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			return conn, nil
		}
		if !conn.WaitForStateChange(ctx, state) {
			_ = conn.Close()
			return nil, fmt.Errorf("endpoint %q not ready within %s", endpoint, timeout)
		}
	}
}
