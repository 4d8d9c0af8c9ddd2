package daemon

import (
	"context"
	_ "embed"
	"fmt"
	"math/big"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	sdkgrpc "github.com/singnet/snet-payments-go/pkg/grpc"
)

//go:embed state_service.proto
var stateServiceProto string

//go:embed token_service.proto
var tokenServiceProto string

// Client implements Protocol over a dynamic gRPC connection to one daemon
// endpoint. The payment service descriptors are compiled from embedded proto
// sources, so no generated stubs are required.
type Client struct {
	rpc *sdkgrpc.Client
}

var _ Protocol = (*Client)(nil)

// NewClient connects to the daemon payment services at endpoint. The endpoint
// scheme selects transport security the same way service calls do: "https://"
// uses TLS, anything else is insecure.
func NewClient(endpoint string) (*Client, error) {
	rpc := sdkgrpc.NewClient(endpoint, map[string]string{
		"state_service.proto": stateServiceProto,
		"token_service.proto": tokenServiceProto,
	})
	if rpc == nil {
		return nil, fmt.Errorf("connecting to daemon at %s failed", endpoint)
	}
	return &Client{rpc: rpc}, nil
}

// NewClientWithConn wraps an already connected dynamic client. The client
// must have been built with the daemon payment descriptors.
func NewClientWithConn(rpc *sdkgrpc.Client) *Client {
	return &Client{rpc: rpc}
}

// ChannelState implements Protocol.
func (c *Client) ChannelState(ctx context.Context, channelID *big.Int, signature []byte, currentBlock uint64) (*ChannelState, error) {
	out, err := c.invoke(ctx, "GetChannelState", func(in *dynamicpb.Message) {
		setBytes(in, "channel_id", bigIntBytes(channelID))
		setBytes(in, "signature", signature)
		setUint64(in, "current_block", currentBlock)
	})
	if err != nil {
		return nil, err
	}
	return &ChannelState{
		CurrentNonce:        new(big.Int).SetBytes(getBytes(out, "current_nonce")),
		CurrentSignedAmount: new(big.Int).SetBytes(getBytes(out, "current_signed_amount")),
	}, nil
}

// Token implements Protocol.
func (c *Client) Token(ctx context.Context, req *TokenRequest) (*Token, error) {
	out, err := c.invoke(ctx, "GetToken", func(in *dynamicpb.Message) {
		setUint64(in, "channel_id", req.ChannelID)
		setUint64(in, "current_nonce", req.CurrentNonce)
		setUint64(in, "signed_amount", req.SignedAmount)
		setBytes(in, "signature", req.Signature)
		setUint64(in, "current_block", req.CurrentBlock)
		setBytes(in, "claim_signature", req.ClaimSignature)
	})
	if err != nil {
		return nil, err
	}
	return &Token{
		ChannelID:     getUint64(out, "channel_id"),
		Token:         getString(out, "token"),
		PlannedAmount: getUint64(out, "planned_amount"),
		UsedAmount:    getUint64(out, "used_amount"),
	}, nil
}

// FreeCallsAvailable implements Protocol.
func (c *Client) FreeCallsAvailable(ctx context.Context, req *FreeCallStateRequest) (uint64, error) {
	out, err := c.invoke(ctx, "GetFreeCallsAvailable", func(in *dynamicpb.Message) {
		setString(in, "address", req.Address)
		setBytes(in, "free_call_token", req.Token)
		setBytes(in, "signature", req.Signature)
		setUint64(in, "current_block", req.CurrentBlock)
	})
	if err != nil {
		return 0, err
	}
	return getUint64(out, "free_calls_available"), nil
}

// FreeCallToken implements Protocol.
func (c *Client) FreeCallToken(ctx context.Context, req *FreeCallTokenRequest) (*FreeCallToken, error) {
	out, err := c.invoke(ctx, "GetFreeCallToken", func(in *dynamicpb.Message) {
		setString(in, "address", req.Address)
		setBytes(in, "signature", req.Signature)
		setUint64(in, "current_block", req.CurrentBlock)
	})
	if err != nil {
		return nil, err
	}
	return &FreeCallToken{
		Token:           getBytes(out, "token"),
		TokenHex:        getString(out, "token_hex"),
		ExpirationBlock: getUint64(out, "token_expiration_block"),
	}, nil
}

// Close shuts down the underlying connection.
func (c *Client) Close() error {
	return c.rpc.Close()
}

// invoke resolves method in the compiled descriptors, builds its input with
// set, and performs the unary call.
func (c *Client) invoke(ctx context.Context, method string, set func(in *dynamicpb.Message)) (*dynamicpb.Message, error) {
	fd, md, err := sdkgrpc.FindMethod(c.rpc.ProtoFiles, method)
	if err != nil {
		return nil, &RPCError{Method: method, Err: err}
	}
	in := dynamicpb.NewMessage(md.Input())
	set(in)
	out := dynamicpb.NewMessage(md.Output())
	fullMethod := fmt.Sprintf("/%s.%s/%s", fd.Package(), md.Parent().Name(), method)
	if err := c.rpc.GRPC.Invoke(ctx, fullMethod, in, out); err != nil {
		return nil, &RPCError{Method: method, Err: err}
	}
	return out, nil
}

// bigIntBytes renders v as the minimal big-endian byte slice the daemon
// expects for numeric bytes fields.
func bigIntBytes(v *big.Int) []byte {
	if v == nil {
		return nil
	}
	return v.Bytes()
}

func setBytes(m *dynamicpb.Message, field string, v []byte) {
	if len(v) == 0 {
		return
	}
	m.Set(m.Descriptor().Fields().ByName(protoreflect.Name(field)), protoreflect.ValueOfBytes(v))
}

func setUint64(m *dynamicpb.Message, field string, v uint64) {
	m.Set(m.Descriptor().Fields().ByName(protoreflect.Name(field)), protoreflect.ValueOfUint64(v))
}

func setString(m *dynamicpb.Message, field string, v string) {
	m.Set(m.Descriptor().Fields().ByName(protoreflect.Name(field)), protoreflect.ValueOfString(v))
}

func getBytes(m *dynamicpb.Message, field string) []byte {
	return m.Get(m.Descriptor().Fields().ByName(protoreflect.Name(field))).Bytes()
}

func getUint64(m *dynamicpb.Message, field string) uint64 {
	return m.Get(m.Descriptor().Fields().ByName(protoreflect.Name(field))).Uint()
}

func getString(m *dynamicpb.Message, field string) string {
	return m.Get(m.Descriptor().Fields().ByName(protoreflect.Name(field))).String()
}
