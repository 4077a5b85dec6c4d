package zklogin

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/suicert/suicert/internal/chain"
)

// ErrInvalidKey marks credential key material that cannot be reconstructed
// into a usable keypair.
var ErrInvalidKey = errors.New("invalid ephemeral key material")

// Credential is the single ephemeral keypair record bound to one session.
// The JSON shape is the persisted wire format and must round-trip losslessly.
type Credential struct {
	SecretKey  string `json:"secretKey"`  // base64 ed25519 seed
	Randomness string `json:"randomness"` // decimal CSPRNG value
	MaxEpoch   uint64 `json:"maxEpoch"`   // last epoch the credential is valid for
}

// PrivateKey reconstructs the ed25519 private key from the stored seed.
func (c *Credential) PrivateKey() (ed25519.PrivateKey, error) {
	seed, err := base64.StdEncoding.DecodeString(c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed is %d bytes", ErrInvalidKey, len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

// PublicKey returns the credential's public key.
func (c *Credential) PublicKey() (ed25519.PublicKey, error) {
	priv, err := c.PrivateKey()
	if err != nil {
		return nil, err
	}
	return priv.Public().(ed25519.PublicKey), nil
}

// Address derives the on-chain address of the ephemeral key.
func (c *Credential) Address() (string, error) {
	pub, err := c.PublicKey()
	if err != nil {
		return "", err
	}
	return chain.AddressFromPubKey(pub), nil
}
