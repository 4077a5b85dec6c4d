package chain

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// txIntentPrefix is the signing-intent header for transaction data:
// scope=TransactionData, version=V0, app=Sui.
var txIntentPrefix = []byte{0, 0, 0}

// SignTransaction signs base64 transaction bytes with an ed25519 key and
// returns the serialized signature the node expects:
// base64(flag || signature || publicKey).
func SignTransaction(txBytesB64 string, priv ed25519.PrivateKey) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(txBytesB64)
	if err != nil {
		return "", fmt.Errorf("decode tx bytes: %w", err)
	}

	msg := make([]byte, 0, len(txIntentPrefix)+len(raw))
	msg = append(msg, txIntentPrefix...)
	msg = append(msg, raw...)
	digest := blake2b.Sum256(msg)

	sig := ed25519.Sign(priv, digest[:])
	pub := priv.Public().(ed25519.PublicKey)

	serialized := make([]byte, 0, 1+len(sig)+len(pub))
	serialized = append(serialized, Ed25519Flag)
	serialized = append(serialized, sig...)
	serialized = append(serialized, pub...)
	return base64.StdEncoding.EncodeToString(serialized), nil
}
