package domain

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// Signer abstracts the validator's signing authority. The private key
// lives entirely behind this boundary; callers only ever see the public
// key and signatures over block digests.
type Signer interface {
	// Sign returns the hex-encoded signature over a 32-byte digest.
	Sign(digest []byte) (string, error)

	// PublicKeyHex returns the matching public key for verification.
	PublicKeyHex() string
}
