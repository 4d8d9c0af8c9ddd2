// Package sdk is the high-level entry point for calling SingularityNET
// services and paying for them through MultiPartyEscrow payment channels.
//
// The Core resolves organizations and services from the on-chain Registry,
// fetches their metadata and proto sources from IPFS or Lighthouse, and
// connects a dynamic gRPC client to the service daemon. Every call carries
// payment metadata produced by the active payment strategy: free calls while
// the daemon grants them, prepaid concurrency tokens, or per-call escrow
// claims.
//
//	cfg := &config.Config{
//		RPCAddr:    "https://sepolia.infura.io/v3/YOUR_PROJECT_ID",
//		PrivateKey: "YOUR_PRIVATE_KEY",
//		Network:    config.Sepolia,
//	}
//
//	core, err := sdk.NewSDK(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer core.Close()
//
//	ctx := context.Background()
//	service, err := core.NewServiceClient(ctx, "snet", "example-service", "default_group")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer service.Close()
//
//	response, err := service.CallWithJSON(ctx, "classify", []byte(`{"image":"..."}`))
//
// When no strategy is selected explicitly, the first call installs a
// dispatcher that prefers free calls, then the prepaid flow, then escrow.
// Organization owners additionally get the Registry management surface:
// creating and updating organizations and service registrations, member
// management, and ownership transfer.
package sdk
