// Package signer implements the validator's signing authority.
//
// One trusted institution holds a secp256k1 private key and signs block
// digests with deterministic ECDSA (RFC 6979). Verification is a pure
// function of (digest, signature, public key) and needs no key material,
// so a relying party can verify a certificate fully offline.
package signer

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/saferent-network/saferent/internal/domain"
)

// Authority holds the validator's private signing key. The key never
// leaves this package except through PrivateKeyHex (keygen tooling).
type Authority struct {
	priv *btcec.PrivateKey
	pub  *btcec.PublicKey
}

// Generate creates a fresh authority with a new random key.
func Generate() (*Authority, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &Authority{priv: priv, pub: priv.PubKey()}, nil
}

// Load builds an authority from a hex-encoded private key.
// Fails with domain.ErrSigningUnavailable on bad key material.
func Load(hexKey string) (*Authority, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil || len(raw) != 32 {
		return nil, fmt.Errorf("%w: malformed private key hex", domain.ErrSigningUnavailable)
	}
	priv, pub := btcec.PrivKeyFromBytes(raw)
	return &Authority{priv: priv, pub: pub}, nil
}

// LoadFile reads a hex-encoded private key from disk.
func LoadFile(path string) (*Authority, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSigningUnavailable, err)
	}
	return Load(string(data))
}

// Sign produces a hex-encoded DER signature over a 32-byte digest.
// Deterministic: the same digest and key always yield the same signature.
func (a *Authority) Sign(digest []byte) (string, error) {
	if a == nil || a.priv == nil {
		return "", domain.ErrSigningUnavailable
	}
	if len(digest) != 32 {
		return "", fmt.Errorf("digest must be 32 bytes, got %d", len(digest))
	}
	sig := btcecdsa.Sign(a.priv, digest)
	return hex.EncodeToString(sig.Serialize()), nil
}

// PublicKeyHex returns the compressed public key in hex.
func (a *Authority) PublicKeyHex() string {
	return hex.EncodeToString(a.pub.SerializeCompressed())
}

// PrivateKeyHex exports the private key for keygen tooling.
func (a *Authority) PrivateKeyHex() string {
	return hex.EncodeToString(a.priv.Serialize())
}

// Verify checks a hex signature over a digest against a hex public key.
// Pure, side-effect free; any malformed input simply verifies false.
func Verify(digest []byte, sigHex, pubHex string) bool {
	sigRaw, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}
	sig, err := btcecdsa.ParseDERSignature(sigRaw)
	if err != nil {
		return false
	}
	pubRaw, err := hex.DecodeString(pubHex)
	if err != nil {
		return false
	}
	pub, err := btcec.ParsePubKey(pubRaw)
	if err != nil {
		return false
	}
	return sig.Verify(digest, pub)
}
