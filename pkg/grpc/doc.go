// Package grpc provides a dynamic gRPC client for SingularityNET services.
//
// The client invokes unary RPCs without generated stubs: the service's .proto
// sources are compiled at runtime with protocompile and requests/responses are
// built with dynamicpb. The daemon's training proto is compiled into every
// descriptor set, so training RPCs travel over the same connection as
// inference calls.
//
// # Client Creation
//
// Create a dynamic gRPC client with proto files:
//
//	protoFiles := map[string]string{
//		"service.proto": "syntax = \"proto3\"; ...",
//	}
//
//	client := grpc.NewClient("https://service.endpoint:443", protoFiles)
//	if client == nil {
//		log.Fatal("Failed to create gRPC client")
//	}
//	defer client.Close()
//
// # Invocation Methods
//
// Call with JSON (most common for SingularityNET):
//
//	ctx := context.Background()
//	input := []byte(`{"key": "value"}`)
//	output, err := client.CallWithJSON(ctx, "MethodName", input)
//
// Call with Go map:
//
//	params := map[string]any{"key": "value"}
//	result, err := client.CallWithMap(ctx, "MethodName", params)
//
// Call with proto message (advanced):
//
//	request := &MyRequest{Field: "value"}
//	response, err := client.CallWithProto(ctx, "MethodName", request)
//
// JSON responses are rendered with proto field names and unpopulated fields
// emitted; note that protojson renders 64-bit integers as JSON strings.
//
// # Transport Security
//
// Transport is determined by endpoint scheme:
//
//	"https://host:443"  → TLS with system certificates
//	"http://host:8080"  → Insecure plaintext
//	"host:8080"         → Insecure plaintext (no scheme)
//
// # Method Resolution
//
// Methods are resolved from the compiled descriptors by simple name:
//
//  1. Search all services for a method with the given name
//  2. Build the fully-qualified path: /<package>.<Service>/<Method>
//  3. Resolve input/output message types
//  4. Marshal the request and invoke via gRPC
//
// # Thread Safety
//
// Client instances are safe for concurrent use. Multiple goroutines can
// make parallel calls through the same client.
//
// # See Also
//
//   - sdk.Service for high-level service invocation with payment metadata
//   - storage package for fetching proto bundles from IPFS/Filecoin
//   - examples/quick-start for a complete usage example
package grpc
