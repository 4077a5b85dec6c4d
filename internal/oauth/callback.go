package oauth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNonceMismatch marks an id_token whose nonce claim does not commit to the
// session's live ephemeral credential.
var ErrNonceMismatch = errors.New("id_token nonce does not match bound credential")

// NonceFromIDToken extracts the nonce claim from a provider id_token.
// The token's signature is the provider's concern and is not checked here;
// only the nonce binding to the local credential is.
func NonceFromIDToken(idToken string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return "", fmt.Errorf("parse id_token: %w", err)
	}
	nonce, ok := claims["nonce"].(string)
	if !ok || nonce == "" {
		return "", errors.New("id_token has no nonce claim")
	}
	return nonce, nil
}

// VerifyNonce checks that the id_token commits to the expected nonce.
func VerifyNonce(idToken, want string) error {
	got, err := NonceFromIDToken(idToken)
	if err != nil {
		return err
	}
	if got != want {
		return ErrNonceMismatch
	}
	return nil
}
