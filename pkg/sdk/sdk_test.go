package sdk

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"google.golang.org/grpc/metadata"

	"github.com/singnet/snet-payments-go/pkg/config"
	"github.com/singnet/snet-payments-go/pkg/model"
	"github.com/singnet/snet-payments-go/pkg/payment"
)

type mockStore struct {
	files   map[string][]byte
	uploads []any
	readErr error
}

func (m *mockStore) ReadFile(ctx context.Context, id string) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	raw, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("no content for %q", id)
	}
	return raw, nil
}

func (m *mockStore) UploadJSON(ctx context.Context, data any) (string, error) {
	m.uploads = append(m.uploads, data)
	return "ipfs://QmUploaded", nil
}

func protoBundle(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o600, Size: int64(len(content))}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestFetchJSON(t *testing.T) {
	store := &mockStore{files: map[string][]byte{
		"ipfs://QmOrg": []byte(`{"org_id":"snet","org_name":"SingularityNET"}`),
	}}
	core := &Core{store: store}

	var meta model.OrganizationMetaData
	if err := core.fetchJSON(context.Background(), "ipfs://QmOrg", &meta); err != nil {
		t.Fatalf("fetchJSON returned error: %v", err)
	}
	if meta.OrgID != "snet" {
		t.Fatalf("OrgID = %q, want snet", meta.OrgID)
	}

	if err := core.fetchJSON(context.Background(), "ipfs://QmMissing", &meta); err == nil {
		t.Fatal("expected error for missing document")
	}
}

func TestFetchProtoFiles(t *testing.T) {
	bundle := protoBundle(t, "svc.proto", `syntax = "proto3";`)
	legacy := protoBundle(t, "legacy.proto", `syntax = "proto3";`)
	store := &mockStore{files: map[string][]byte{
		"ipfs://QmNew":    bundle,
		"ipfs://QmLegacy": legacy,
	}}
	core := &Core{store: store}

	// service_api_source wins over model_ipfs_hash
	protos, err := core.fetchProtoFiles(context.Background(), &model.ServiceMetadata{
		ServiceApiSource: "ipfs://QmNew",
		ModelIpfsHash:    "ipfs://QmLegacy",
	})
	if err != nil {
		t.Fatalf("fetchProtoFiles returned error: %v", err)
	}
	if _, ok := protos["svc.proto"]; !ok {
		t.Fatalf("expected svc.proto in bundle, got %v", protos)
	}

	protos, err = core.fetchProtoFiles(context.Background(), &model.ServiceMetadata{
		ModelIpfsHash: "ipfs://QmLegacy",
	})
	if err != nil {
		t.Fatalf("fetchProtoFiles with legacy hash returned error: %v", err)
	}
	if _, ok := protos["legacy.proto"]; !ok {
		t.Fatalf("expected legacy.proto in bundle, got %v", protos)
	}

	if _, err := core.fetchProtoFiles(context.Background(), &model.ServiceMetadata{}); err == nil {
		t.Fatal("expected error when metadata names no API source")
	}
}

func TestAccountRequiresPrivateKey(t *testing.T) {
	core := &Core{cfg: &config.Config{}}
	if _, err := core.Account(); err == nil {
		t.Fatal("expected error without a configured private key")
	}
}

func TestCreateOrganizationWithoutKeyDoesNotUpload(t *testing.T) {
	store := &mockStore{}
	core := &Core{cfg: &config.Config{}, store: store}

	_, err := core.CreateOrganization(context.Background(), "org", &model.OrganizationMetaData{OrgID: "org"}, nil)
	if err == nil {
		t.Fatal("expected error without a configured private key")
	}
	if len(store.uploads) != 0 {
		t.Fatal("metadata must not be uploaded when the account is unavailable")
	}
}

func TestOrganizationClientAccessors(t *testing.T) {
	group := &model.OrganizationGroup{ID: "Z3JvdXA=", GroupName: "default"}
	meta := &model.OrganizationMetaData{OrgID: "snet", Groups: []*model.OrganizationGroup{group}}
	org := &OrganizationClient{orgID: "snet", metadata: meta, group: group}

	if org.OrgID() != "snet" {
		t.Fatalf("OrgID = %q", org.OrgID())
	}
	if org.Group() != group {
		t.Fatal("Group did not return the bound group")
	}
	if org.Metadata() != meta {
		t.Fatal("Metadata did not return the document")
	}
}

type stubStrategy struct {
	refreshed bool
}

func (s *stubStrategy) GRPCMetadata(ctx context.Context) (context.Context, error) {
	return metadata.AppendToOutgoingContext(ctx, "snet-payment-type", "stub"), nil
}

func (s *stubStrategy) Refresh(ctx context.Context) error {
	s.refreshed = true
	return nil
}

var _ payment.Strategy = (*stubStrategy)(nil)

func TestPaymentContextUsesInstalledStrategy(t *testing.T) {
	sc := &ServiceClient{core: &Core{cfg: &config.Config{Timeouts: config.Timeouts{GRPCUnary: time.Second}}}}
	sc.SetStrategy(&stubStrategy{})

	ctx, cancel, err := sc.paymentContext(context.Background())
	if err != nil {
		t.Fatalf("paymentContext returned error: %v", err)
	}
	defer cancel()

	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok || len(md.Get("snet-payment-type")) == 0 || md.Get("snet-payment-type")[0] != "stub" {
		t.Fatalf("strategy metadata not attached, got %v", md)
	}
	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("expected a deadline on the call context")
	}
}

func TestSetPaidStrategyRequiresKey(t *testing.T) {
	sc := &ServiceClient{
		core:     &Core{cfg: &config.Config{}},
		orgGroup: &model.OrganizationGroup{ID: "Z3JvdXA="},
	}
	err := sc.SetPaidStrategy()
	if err == nil {
		t.Fatal("expected error without a configured private key")
	}
	if !strings.Contains(err.Error(), "private key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := withTimeout(context.Background(), time.Second)
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("expected deadline when timeout is positive")
	}

	ctx, cancel = withTimeout(context.Background(), 0)
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("expected no deadline when timeout is zero")
	}
}

func TestNewSDKRejectsMissingRPCAddr(t *testing.T) {
	if _, err := NewSDK(&config.Config{}); err == nil {
		t.Fatal("expected error for config without RPC address")
	}
}

func TestConfigKeyRoundTrip(t *testing.T) {
	key, err := gethcrypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{PrivateKey: fmt.Sprintf("%x", gethcrypto.FromECDSA(key))}
	parsed := cfg.GetPrivateKey()
	if parsed == nil {
		t.Fatal("expected key to parse")
	}
	if gethcrypto.PubkeyToAddress(parsed.PublicKey) != gethcrypto.PubkeyToAddress(key.PublicKey) {
		t.Fatal("parsed key does not match")
	}
}
