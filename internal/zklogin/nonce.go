package zklogin

import (
	"encoding/base64"
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// nonceLen matches the provider-facing nonce width: 27 base64url characters.
const nonceLen = 27

// BindNonce derives the commitment nonce embedded in the OAuth request:
// a hash over (public key, expiry epoch, randomness). Deterministic for a
// given credential; any single field changing changes the nonce.
func BindNonce(c *Credential) (string, error) {
	pub, err := c.PublicKey()
	if err != nil {
		return "", err
	}

	var epochBuf [8]byte
	binary.BigEndian.PutUint64(epochBuf[:], c.MaxEpoch)

	h, _ := blake2b.New256(nil)
	h.Write(pub)
	h.Write(epochBuf[:])
	h.Write([]byte(c.Randomness))

	nonce := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	return nonce[:nonceLen], nil
}
