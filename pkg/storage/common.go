// Package storage retrieves service artifacts (metadata JSON, .proto
// bundles) from the decentralized storage backends SingularityNET publishes
// to. Supported sources are IPFS via a Kubo HTTP API client and the
// Lighthouse gateway for Filecoin content.
package storage

import (
	"context"
	"regexp"
	"strings"

	"github.com/ipfs/kubo/client/rpc"
	"go.uber.org/zap"
)

const (
	// IpfsPrefix is the URI scheme prefix recognized for IPFS content.
	IpfsPrefix = "ipfs://"
	// FilecoinPrefix is the URI scheme prefix recognized for Filecoin/Lighthouse content.
	FilecoinPrefix = "filecoin://"
)

// Storage fetches and stores blobs addressed by hash or URI.
type Storage interface {
	ReadFile(ctx context.Context, id string) ([]byte, error)
	UploadJSON(ctx context.Context, data any) (string, error)
}

// LighthouseFetcher fetches content from a Lighthouse gateway.
type LighthouseFetcher interface {
	Fetch(ctx context.Context, endpoint, cid string) ([]byte, error)
}

// IPFSFetcher fetches content addressed by CID from IPFS.
type IPFSFetcher interface {
	Fetch(ctx context.Context, hash string) ([]byte, error)
}

// Client routes reads to the backend named by the URI scheme and writes
// through the IPFS node.
type Client struct {
	// HttpApi is a connected Kubo HTTP API client used for IPFS reads.
	*rpc.HttpApi
	// LighthouseURL is the base URL of the Lighthouse HTTP gateway.
	LighthouseURL string

	lighthouseFetcher LighthouseFetcher
	ipfsFetcher       IPFSFetcher
}

// NewStorage builds a Client over the given IPFS API endpoint and Lighthouse
// gateway URL. An IPFS client that fails to initialize is logged; reads
// through it then fail per call, Lighthouse reads still work.
func NewStorage(ipfsURL, lighthouseURL string) *Client {
	api, err := NewIPFSClient(ipfsURL)
	if err != nil {
		zap.L().Error(err.Error())
	}
	return &Client{
		HttpApi:           api,
		LighthouseURL:     lighthouseURL,
		lighthouseFetcher: defaultLighthouseFetcher{},
		ipfsFetcher:       newIPFSFetcher(api),
	}
}

// ReadFile fetches the content behind a hash or URI. A "filecoin://" prefix
// routes through the Lighthouse gateway, everything else through IPFS. The
// identifier is normalized with formatHash first.
func (s *Client) ReadFile(ctx context.Context, hash string) ([]byte, error) {
	// zero-value Clients in tests get working fetchers on first use
	if s.lighthouseFetcher == nil {
		s.lighthouseFetcher = defaultLighthouseFetcher{}
	}
	if s.ipfsFetcher == nil {
		s.ipfsFetcher = newIPFSFetcher(s.HttpApi)
	}

	if strings.HasPrefix(hash, FilecoinPrefix) {
		return s.lighthouseFetcher.Fetch(ctx, s.LighthouseURL, formatHash(hash))
	}
	return s.ipfsFetcher.Fetch(ctx, formatHash(hash))
}

type defaultLighthouseFetcher struct{}

func (defaultLighthouseFetcher) Fetch(ctx context.Context, endpoint, cid string) ([]byte, error) {
	return GetLighthouseFileCtx(ctx, endpoint, cid, 0)
}

// formatHash strips known URI scheme prefixes and sanitizes the rest down to
// a clean CID string for the backends.
func formatHash(hash string) string {
	hash = strings.ReplaceAll(hash, IpfsPrefix, "")
	hash = strings.ReplaceAll(hash, FilecoinPrefix, "")
	return removeSpecialCharacters(hash)
}

var hashSanitizer = regexp.MustCompile("[^a-zA-Z0-9=]")

// removeSpecialCharacters keeps ASCII letters, digits and '=' only.
func removeSpecialCharacters(in string) string {
	return hashSanitizer.ReplaceAllString(in, "")
}
