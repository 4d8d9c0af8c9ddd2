package config

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func TestGetPrivateKey(t *testing.T) {
	tests := []struct {
		name       string
		privateKey string
		wantNil    bool
	}{
		{
			name:       "empty private key",
			privateKey: "",
			wantNil:    true,
		},
		{
			name:       "invalid key",
			privateKey: strings.Repeat("x", 64),
			wantNil:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{PrivateKey: tt.privateKey}

			got := config.GetPrivateKey()
			if tt.wantNil && got != nil {
				t.Errorf("GetPrivateKey() = %v, want nil", got)
			}
		})
	}
}

func TestGetPrivateKeyCaching(t *testing.T) {
	testKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}

	config := &Config{
		PrivateKey: fmt.Sprintf("%x", crypto.FromECDSA(testKey)),
	}

	key1 := config.GetPrivateKey()
	key2 := config.GetPrivateKey()

	if key1 == nil {
		t.Fatal("GetPrivateKey() returned nil for a valid key")
	}
	if key1 != key2 {
		t.Error("GetPrivateKey() should return the cached instance")
	}
}

func TestHasPrivateKey(t *testing.T) {
	tests := []struct {
		name       string
		privateKey string
		want       bool
	}{
		{
			name:       "has private key",
			privateKey: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
			want:       true,
		},
		{
			name:       "no private key",
			privateKey: "",
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{PrivateKey: tt.privateKey}

			if got := config.HasPrivateKey(); got != tt.want {
				t.Errorf("HasPrivateKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequirePrivateKey(t *testing.T) {
	t.Run("with private key", func(t *testing.T) {
		testKey, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("failed to generate test key: %v", err)
		}
		config := &Config{
			PrivateKey: fmt.Sprintf("%x", crypto.FromECDSA(testKey)),
		}

		key, err := config.RequirePrivateKey()
		if err != nil {
			t.Fatalf("RequirePrivateKey() error = %v", err)
		}
		if key == nil {
			t.Fatal("RequirePrivateKey() returned nil key")
		}
	})

	t.Run("without private key", func(t *testing.T) {
		config := &Config{}

		_, err := config.RequirePrivateKey()
		if err == nil {
			t.Fatal("RequirePrivateKey() should error when no key is set")
		}

		expectedErr := "private key is required for this operation"
		if err.Error() != expectedErr {
			t.Errorf("expected error %q, got %q", expectedErr, err.Error())
		}
	})
}

func TestParsePrivateKey(t *testing.T) {
	tests := []struct {
		name    string
		keyHex  string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "too short",
			keyHex:  "123",
			wantErr: true,
			errMsg:  "private key must be 32 bytes (64 hex characters), got 3",
		},
		{
			name:    "too long",
			keyHex:  strings.Repeat("a", 128),
			wantErr: true,
			errMsg:  "private key must be 32 bytes (64 hex characters), got 128",
		},
		{
			name:    "invalid hex",
			keyHex:  strings.Repeat("z", 64),
			wantErr: true,
		},
		{
			name:   "with 0x prefix",
			keyHex: "0x" + strings.Repeat("a", 64),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePrivateKey(tt.keyHex)

			if tt.wantErr {
				if err == nil {
					t.Fatal("parsePrivateKey() expected error, got nil")
				}
				if tt.errMsg != "" && err.Error() != tt.errMsg {
					t.Errorf("error = %q, want %q", err.Error(), tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("parsePrivateKey() error = %v", err)
			}
		})
	}
}
