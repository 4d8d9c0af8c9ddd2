// Package model defines the metadata documents that describe SingularityNET
// organizations and services: payment groups, pricing, endpoints, licensing,
// and the service's .proto sources.
//
// The structs mirror the JSON documents whose URIs are stored in the on-chain
// Registry; the SDK resolves a URI, fetches the document from IPFS or
// Lighthouse and unmarshals it into these types.
//
// # Organizations
//
// OrganizationMetaData carries the organization name, ID and its payment
// groups. Each OrganizationGroup names a recipient payment address, a
// channel expiration threshold and the channel storage the daemon uses.
// Helpers:
//
//	group := orgMeta.GroupByName("default_group")
//	recipient := group.PaymentAddress()   // common.Address
//	groupID, _ := group.GroupIDBytes()    // base64 group id as [32]byte
//
// # Services
//
// ServiceMetadata describes one deployed service: display name, the MPE
// contract it settles against, its groups, and where the .proto sources live
// (ServiceApiSource, with ModelIpfsHash as the legacy field). The fetched
// proto sources are attached to the ProtoFiles map (filename → source) by
// the SDK; the field is not part of the JSON document.
//
// A ServiceGroup lists endpoints, pricing and the free-call allowance:
//
//	group := svcMeta.GroupByName("default_group")
//	price, _ := group.FixedPrice() // *big.Int, cogs per call
//	endpoint, _ := group.Endpoint()
//
// FixedPrice returns the default "fixed_price" pricing entry; other price
// models (tiered subscriptions, per-method pricing) are carried in the
// Tiers/Subscriptions structs for callers that need them.
//
// # Mutating metadata
//
// Metadata documents are read-only snapshots. Publishing a change means
// uploading a new JSON document and pointing the Registry at it, which the
// sdk package's UpdateMetadata operations do in one step.
//
// # See Also
//
//   - sdk package for fetching and publishing these documents
//   - storage package for the IPFS/Lighthouse retrieval
//   - examples/orgs-and-services for a walk-through
package model
