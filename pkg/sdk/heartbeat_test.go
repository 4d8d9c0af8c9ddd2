package sdk

import (
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/proto"
)

func TestHealthcheckHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/heartbeat" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"daemonID":"abc","status":"ok"}`))
	}))
	defer srv.Close()

	hc := newHealthcheckClient(nil, srv.URL, false)
	result, err := hc.HTTP(context.Background())
	if err != nil {
		t.Fatalf("HTTP heartbeat returned error: %v", err)
	}
	if result["status"] != "ok" {
		t.Fatalf("status = %v, want ok", result["status"])
	}
}

func TestHealthcheckHTTPNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	hc := newHealthcheckClient(nil, srv.URL, false)
	if _, err := hc.HTTP(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestHealthcheckWebGRPC(t *testing.T) {
	payload, err := proto.Marshal(&grpc_health_v1.HealthCheckResponse{
		Status: grpc_health_v1.HealthCheckResponse_SERVING,
	})
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Grpc-Web") != "1" {
			t.Errorf("missing X-Grpc-Web header")
		}
		frame := make([]byte, 5+len(payload))
		binary.BigEndian.PutUint32(frame[1:5], uint32(len(payload)))
		copy(frame[5:], payload)
		// trailers frame after the message
		trailer := []byte("grpc-status: 0\r\n")
		tf := make([]byte, 5+len(trailer))
		tf[0] = 0x80
		binary.BigEndian.PutUint32(tf[1:5], uint32(len(trailer)))
		copy(tf[5:], trailer)
		w.Header().Set("Content-Type", "application/grpc-web+proto")
		_, _ = w.Write(append(frame, tf...))
	}))
	defer srv.Close()

	hc := newHealthcheckClient(nil, srv.URL, false)
	resp, err := hc.WebGRPC(context.Background())
	if err != nil {
		t.Fatalf("WebGRPC heartbeat returned error: %v", err)
	}
	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v, want SERVING", resp.Status)
	}
}
