package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultLighthouseTimeout = 30 * time.Second

// GetLighthouseFileCtx fetches a blob from a Lighthouse HTTP gateway.
//
// It performs an HTTP GET to {lighthouseEndpoint}{cID} with the given timeout
// (a default is applied when timeout is zero) and returns the response body.
// The CID is concatenated directly onto the endpoint, so include a trailing
// slash if the gateway requires one.
func GetLighthouseFileCtx(ctx context.Context, lighthouseEndpoint, cID string, timeout time.Duration) ([]byte, error) {
	zap.L().Debug("Getting lighthouse file", zap.String("cid", cID))
	if timeout <= 0 {
		timeout = defaultLighthouseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lighthouseEndpoint+cID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Error("failed to close lighthouse response body", zap.Error(err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lighthouse gateway returned status %s for %s", resp.Status, cID)
	}
	return io.ReadAll(resp.Body)
}
