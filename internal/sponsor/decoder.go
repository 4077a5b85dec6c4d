package sponsor

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/suicert/suicert/internal/chain"
)

// SecretPrefix marks the serialized private-key format exported by wallets.
// Secrets without it are plain base64 of the raw key seed.
const SecretPrefix = "suiprivkey"

// SigningKey is a decoded sponsor keypair plus its derived address.
type SigningKey struct {
	PrivateKey ed25519.PrivateKey
	Address    string
}

func (k *SigningKey) PublicKey() ed25519.PublicKey {
	return k.PrivateKey.Public().(ed25519.PublicKey)
}

// DecodeStrategy attempts one serialization format. Strategies are tried in
// order; a structural failure moves on to the next, a structural success is
// final (see Decode).
type DecodeStrategy struct {
	Name string
	Fn   func(secret string) (ed25519.PrivateKey, error)
}

// Historical serializations accepted for prefixed secrets, most canonical
// first. SDKs have emitted all three at different times; operators should not
// need to know which one their secret uses.
func defaultStrategies() []DecodeStrategy {
	return []DecodeStrategy{
		{Name: "direct-import", Fn: decodeDirect},
		{Name: "full-decode", Fn: decodeStripped},
		{Name: "manual-slice", Fn: decodeSliced},
	}
}

// decodeDirect treats the entire prefixed string as one base64 payload.
func decodeDirect(secret string) (ed25519.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("direct-import: %w", err)
	}
	return keyFromRaw("direct-import", raw)
}

// decodeStripped drops the prefix and decodes the remainder as the full key.
func decodeStripped(secret string) (ed25519.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, SecretPrefix))
	if err != nil {
		return nil, fmt.Errorf("full-decode: %w", err)
	}
	if len(raw) != ed25519.SeedSize {
		return nil, fmt.Errorf("full-decode: decoded %d bytes, want %d", len(raw), ed25519.SeedSize)
	}
	return ed25519.NewKeyFromSeed(raw), nil
}

// decodeSliced drops the prefix, decodes, skips the scheme flag byte and
// takes exactly 32 bytes of key material.
func decodeSliced(secret string) (ed25519.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, SecretPrefix))
	if err != nil {
		return nil, fmt.Errorf("manual-slice: %w", err)
	}
	if len(raw) < 1+ed25519.SeedSize {
		return nil, fmt.Errorf("manual-slice: decoded %d bytes, need at least %d", len(raw), 1+ed25519.SeedSize)
	}
	return ed25519.NewKeyFromSeed(raw[1 : 1+ed25519.SeedSize]), nil
}

func keyFromRaw(name string, raw []byte) (ed25519.PrivateKey, error) {
	switch {
	case len(raw) == ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case len(raw) == 1+ed25519.SeedSize && raw[0] == chain.Ed25519Flag:
		return ed25519.NewKeyFromSeed(raw[1:]), nil
	default:
		return nil, fmt.Errorf("%s: unexpected key length %d", name, len(raw))
	}
}

// Decoder resolves an opaque stored secret into a verified SigningKey.
type Decoder struct {
	strategies []DecodeStrategy
}

func NewDecoder() *Decoder {
	return &Decoder{strategies: defaultStrategies()}
}

// NewDecoderWithStrategies overrides the fallback chain (tests).
func NewDecoderWithStrategies(strategies []DecodeStrategy) *Decoder {
	return &Decoder{strategies: strategies}
}

// Decode runs the fallback chain and verifies the derived address.
//
// A structurally-successful decode whose address does not match expectedAddr
// is a fatal ConfigError, not a reason to try the next strategy: a wrong
// address after a clean decode means the configuration is wrong, not that the
// serialization was ambiguous.
func (d *Decoder) Decode(secret, expectedAddr string) (*SigningKey, error) {
	if secret == "" {
		return nil, &ConfigError{Reason: "sponsor secret is empty"}
	}

	if !strings.HasPrefix(secret, SecretPrefix) {
		raw, err := base64.StdEncoding.DecodeString(secret)
		if err != nil {
			return nil, &KeyDecodeError{Attempts: []error{fmt.Errorf("raw base64: %w", err)}}
		}
		priv, err := keyFromRaw("raw base64", raw)
		if err != nil {
			return nil, &KeyDecodeError{Attempts: []error{err}}
		}
		return verified(priv, expectedAddr)
	}

	var attempts []error
	for _, s := range d.strategies {
		priv, err := s.Fn(secret)
		if err != nil {
			attempts = append(attempts, err)
			continue
		}
		return verified(priv, expectedAddr)
	}
	return nil, &KeyDecodeError{Attempts: attempts}
}

func verified(priv ed25519.PrivateKey, expectedAddr string) (*SigningKey, error) {
	addr := chain.AddressFromPubKey(priv.Public().(ed25519.PublicKey))
	if expectedAddr != "" && !strings.EqualFold(addr, expectedAddr) {
		return nil, &ConfigError{
			Reason: fmt.Sprintf("decoded sponsor key derives address %s, expected %s", addr, expectedAddr),
		}
	}
	return &SigningKey{PrivateKey: priv, Address: addr}, nil
}
