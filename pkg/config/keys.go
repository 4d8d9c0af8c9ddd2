package config

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// GetPrivateKey parses and caches the configured private key. It returns nil
// when no key is configured or the key is invalid; use RequirePrivateKey when
// the operation cannot proceed without one.
func (c *Config) GetPrivateKey() *ecdsa.PrivateKey {
	if c.PrivateKey == "" {
		return nil
	}
	c.keyOnce.Do(func() {
		key, err := parsePrivateKey(c.PrivateKey)
		if err != nil {
			zap.L().Error("Invalid private key in config", zap.Error(err))
			return
		}
		c.cachedKey = key
	})
	return c.cachedKey
}

// HasPrivateKey reports whether a private key is configured.
func (c *Config) HasPrivateKey() bool {
	return c.PrivateKey != ""
}

// RequirePrivateKey returns the configured private key or an error when none
// is set or it cannot be parsed.
func (c *Config) RequirePrivateKey() (*ecdsa.PrivateKey, error) {
	if !c.HasPrivateKey() {
		return nil, errors.New("private key is required for this operation")
	}
	return parsePrivateKey(c.PrivateKey)
}

// parsePrivateKey parses a hex-encoded secp256k1 private key, tolerating an
// optional 0x prefix.
func parsePrivateKey(keyHex string) (*ecdsa.PrivateKey, error) {
	keyHex = strings.TrimPrefix(keyHex, "0x")
	if len(keyHex) != 64 {
		return nil, fmt.Errorf("private key must be 32 bytes (64 hex characters), got %d", len(keyHex))
	}
	return crypto.HexToECDSA(keyHex)
}
