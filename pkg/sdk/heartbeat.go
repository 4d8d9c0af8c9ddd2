package sdk

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/proto"

	"github.com/singnet/snet-payments-go/pkg/grpc"
)

// Healthcheck probes a service daemon over the protocols it exposes.
type Healthcheck interface {
	// GRPC performs a standard gRPC health check.
	GRPC(ctx context.Context) (*grpc_health_v1.HealthCheckResponse, error)
	// WebGRPC performs a gRPC-Web health check over HTTP/1.1.
	WebGRPC(ctx context.Context) (*grpc_health_v1.HealthCheckResponse, error)
	// HTTP fetches the daemon's /heartbeat JSON document.
	HTTP(ctx context.Context) (map[string]any, error)
}

type healthcheckClient struct {
	rpc      *grpc.Client
	endpoint string
	debug    bool
}

func newHealthcheckClient(rpc *grpc.Client, endpoint string, debug bool) Healthcheck {
	return &healthcheckClient{rpc: rpc, endpoint: endpoint, debug: debug}
}

// GRPC performs a standard gRPC health check. It reuses the service
// connection when one exists and dials the endpoint otherwise.
func (hc *healthcheckClient) GRPC(ctx context.Context) (*grpc_health_v1.HealthCheckResponse, error) {
	if hc.rpc != nil && hc.rpc.GRPC != nil {
		return checkHealth(ctx, grpc_health_v1.NewHealthClient(hc.rpc.GRPC))
	}

	dialed, err := grpc.DialEndpoint(ctx, hc.endpoint, 5*time.Second)
	if err != nil {
		return nil, err
	}
	defer dialed.Close()
	return checkHealth(ctx, grpc_health_v1.NewHealthClient(dialed))
}

func checkHealth(ctx context.Context, client grpc_health_v1.HealthClient) (*grpc_health_v1.HealthCheckResponse, error) {
	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		return nil, fmt.Errorf("grpc heartbeat failed: %w", err)
	}
	return resp, nil
}

// WebGRPC performs a gRPC-Web health check using the gRPC Health protocol
// over an HTTP/1.1 transport.
func (hc *healthcheckClient) WebGRPC(ctx context.Context) (*grpc_health_v1.HealthCheckResponse, error) {
	healthResp := &grpc_health_v1.HealthCheckResponse{}

	reqBody, err := proto.Marshal(&grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		return nil, err
	}

	frame := make([]byte, 5+len(reqBody))
	frame[0] = 0x0 // flags: message frame
	binary.BigEndian.PutUint32(frame[1:5], uint32(len(reqBody)))
	copy(frame[5:], reqBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		hc.endpoint+"/grpc.health.v1.Health/Check", bytes.NewReader(frame))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/grpc-web+proto")
	req.Header.Set("X-Grpc-Web", "1")
	req.Header.Set("X-User-Agent", "grpc-go/1.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading heartbeat response: %w", err)
	}
	if hc.debug {
		zap.L().Debug("Web gRPC heartbeat", zap.String("status", resp.Status))
	}

	i := 0
	for i+5 <= len(body) {
		flags := body[i]
		length := binary.BigEndian.Uint32(body[i+1 : i+5])
		i += 5

		if i+int(length) > len(body) {
			zap.L().Warn("Heartbeat frame length exceeds body size")
			break
		}

		payload := body[i : i+int(length)]
		i += int(length)

		if flags&0x80 != 0 {
			// trailers frame
			continue
		}

		if err := proto.Unmarshal(payload, healthResp); err != nil {
			return nil, err
		}
	}
	return healthResp, nil
}

// HTTP performs a GET request to "<endpoint>/heartbeat" and returns the
// decoded JSON payload.
func (hc *healthcheckClient) HTTP(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hc.endpoint+"/heartbeat", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Error("failed to close heartbeat body", zap.Error(err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("heartbeat failed with: %v", resp.StatusCode)
	}
	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode heartbeat response: %w", err)
	}
	return result, nil
}
