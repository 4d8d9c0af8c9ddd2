// Package signer builds and signs the typed message tuples exchanged with the
// MultiPartyEscrow contract and the service daemon. Messages are encoded as an
// ordered list of typed fields and signed with an Ethereum personal-sign
// (EIP-191 style) signature: keccak256("\x19Ethereum Signed Message:\n32" ||
// keccak256(payload)).
package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// hashPrefix32Bytes is the standard Ethereum personal-sign prefix for 32-byte
// messages.
var hashPrefix32Bytes = []byte("\x19Ethereum Signed Message:\n32")

// Signer is the signing capability injected into payment components. The
// payment layer never holds key material directly; it hands a canonical
// payload to the signer and attaches the returned 65-byte signature.
type Signer interface {
	// Sign returns the 65-byte (R||S||V) signature over the personal-sign
	// hash of message.
	Sign(message []byte) ([]byte, error)
	// Address returns the Ethereum address corresponding to the signing key.
	Address() common.Address
}

// SigningError wraps a failure of the underlying signer. Callers must not
// retry blindly: inputs such as the current block number may need to be
// re-derived first.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string { return fmt.Sprintf("generating signature: %v", e.Err) }

func (e *SigningError) Unwrap() error { return e.Err }

// SignFields encodes the ordered fields and signs the result with s.
// Encoding errors and signer failures both surface as *SigningError.
func SignFields(s Signer, fields ...Field) ([]byte, error) {
	message, err := Encode(fields...)
	if err != nil {
		return nil, &SigningError{Err: err}
	}
	sig, err := s.Sign(message)
	if err != nil {
		return nil, &SigningError{Err: err}
	}
	return sig, nil
}

// PrivateKeySigner signs with an in-memory secp256k1 private key.
type PrivateKeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewPrivateKeySigner wraps an ECDSA private key as a Signer.
func NewPrivateKeySigner(key *ecdsa.PrivateKey) (*PrivateKeySigner, error) {
	if key == nil {
		return nil, errors.New("private key is nil")
	}
	pub, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("failed to derive public key")
	}
	return &PrivateKeySigner{key: key, addr: crypto.PubkeyToAddress(*pub)}, nil
}

// ParsePrivateKeySigner parses a hex-encoded private key into a signer.
func ParsePrivateKeySigner(hexKey string) (*PrivateKeySigner, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return NewPrivateKeySigner(key)
}

// Sign implements Signer.
func (p *PrivateKeySigner) Sign(message []byte) ([]byte, error) {
	hash := crypto.Keccak256(hashPrefix32Bytes, crypto.Keccak256(message))
	sig, err := crypto.Sign(hash, p.key)
	if err != nil {
		return nil, err
	}
	return sig, nil
}

// Address implements Signer.
func (p *PrivateKeySigner) Address() common.Address { return p.addr }

// PrivateKey exposes the underlying key for building chain transactors.
func (p *PrivateKeySigner) PrivateKey() *ecdsa.PrivateKey { return p.key }

// RecoverAddress recovers the signing address from a message and a 65-byte
// personal-sign signature. It is the verification counterpart of Sign and is
// used in tests and daemon-side checks.
func RecoverAddress(message, sig []byte) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("signature length %d, want 65", len(sig))
	}
	hash := crypto.Keccak256(hashPrefix32Bytes, crypto.Keccak256(message))
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}
