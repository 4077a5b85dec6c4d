package zklogin

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrNoCredential: the session has never bound a credential.
	ErrNoCredential = errors.New("no credential for session")
	// ErrCredentialExpired: the stored credential's epoch window has passed.
	ErrCredentialExpired = errors.New("ephemeral credential expired")
)

// EpochOracle reports the chain's current epoch. Satisfied by chain.Client.
type EpochOracle interface {
	CurrentEpoch(ctx context.Context) (uint64, error)
}

// Manager owns the ephemeral credential lifecycle for login sessions.
type Manager struct {
	store   CredentialStore
	oracle  EpochOracle
	horizon uint64
	log     *zap.Logger

	// Serializes regeneration so two near-simultaneous calls for the same
	// session cannot each persist a different credential.
	mu sync.Mutex
}

func NewManager(store CredentialStore, oracle EpochOracle, horizon uint64, log *zap.Logger) *Manager {
	return &Manager{store: store, oracle: oracle, horizon: horizon, log: log}
}

// GetOrCreate returns the session's live credential, minting a fresh one when
// none exists or the stored credential expired. The epoch query is mandatory:
// an unreachable chain propagates as an error rather than falling back to a
// stale expiry decision.
func (m *Manager) GetOrCreate(ctx context.Context, session string) (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, err := m.store.Get(ctx, session)
	if err != nil {
		return nil, err
	}

	epoch, err := m.oracle.CurrentEpoch(ctx)
	if err != nil {
		return nil, fmt.Errorf("current epoch: %w", err)
	}

	if cred != nil && cred.MaxEpoch >= epoch {
		return cred, nil
	}

	fresh, err := newCredential(epoch + m.horizon)
	if err != nil {
		return nil, err
	}
	if err := m.store.Put(ctx, session, fresh); err != nil {
		return nil, err
	}

	m.log.Info("ephemeral credential issued",
		zap.String("session", session),
		zap.Uint64("max_epoch", fresh.MaxEpoch),
		zap.Bool("replaced_expired", cred != nil),
	)
	return fresh, nil
}

// Current returns the session's credential only while it is still valid at
// the chain's current epoch. Strictly read-only: an absent or expired record
// is reported, never replaced. Verification paths must use this rather than
// GetOrCreate, since a token can only ever match the credential that was live
// when the nonce was bound.
func (m *Manager) Current(ctx context.Context, session string) (*Credential, error) {
	cred, err := m.store.Get(ctx, session)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrNoCredential
	}
	epoch, err := m.oracle.CurrentEpoch(ctx)
	if err != nil {
		return nil, fmt.Errorf("current epoch: %w", err)
	}
	if cred.MaxEpoch < epoch {
		return nil, ErrCredentialExpired
	}
	return cred, nil
}

// SignOut destroys the session's credential.
func (m *Manager) SignOut(ctx context.Context, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Clear(ctx, session)
}

func newCredential(maxEpoch uint64) (*Credential, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ephemeral keypair: %w", err)
	}

	// 16 random bytes, kept as a decimal string in the persisted record.
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate randomness: %w", err)
	}

	return &Credential{
		SecretKey:  base64.StdEncoding.EncodeToString(priv.Seed()),
		Randomness: new(big.Int).SetBytes(buf).String(),
		MaxEpoch:   maxEpoch,
	}, nil
}
