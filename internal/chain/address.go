package chain

import (
	"crypto/ed25519"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Ed25519Flag is the scheme byte prepended to ed25519 public keys in address
// derivation and serialized signatures.
const Ed25519Flag byte = 0x00

// AddressFromPubKey derives the 32-byte account address for an ed25519 public
// key: blake2b-256 over the scheme flag followed by the key bytes.
func AddressFromPubKey(pub ed25519.PublicKey) string {
	buf := make([]byte, 0, 1+ed25519.PublicKeySize)
	buf = append(buf, Ed25519Flag)
	buf = append(buf, pub...)
	sum := blake2b.Sum256(buf)
	return "0x" + hex.EncodeToString(sum[:])
}
