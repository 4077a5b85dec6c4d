package sponsor

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/suicert/suicert/internal/chain"
	"github.com/suicert/suicert/internal/config"
)

// mockRPC implements ChainRPC with per-method canned results and counters.
type mockRPC struct {
	balance    uint64
	balanceErr error
	coins      []chain.Coin
	coinsErr   error
	txBytes    string
	buildErr   error
	execRes    *chain.TxResponse
	execErr    error

	balanceCalls int
	coinsCalls   int
	buildCalls   int
	execCalls    int
	gasObjectID  string
}

func (m *mockRPC) Balance(_ context.Context, _ string) (uint64, error) {
	m.balanceCalls++
	return m.balance, m.balanceErr
}

func (m *mockRPC) Coins(_ context.Context, _ string) ([]chain.Coin, error) {
	m.coinsCalls++
	return m.coins, m.coinsErr
}

func (m *mockRPC) BuildMoveCall(_ context.Context, _ string, _ chain.MoveCall, gasObjectID string, _ uint64) (string, error) {
	m.buildCalls++
	m.gasObjectID = gasObjectID
	return m.txBytes, m.buildErr
}

func (m *mockRPC) ExecuteTransaction(_ context.Context, _, _ string) (*chain.TxResponse, error) {
	m.execCalls++
	return m.execRes, m.execErr
}

func testSponsorConfig(t *testing.T) config.SponsorConfig {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = 42
	priv := ed25519.NewKeyFromSeed(seed)
	return config.SponsorConfig{
		Secret:         base64.StdEncoding.EncodeToString(seed),
		Address:        chain.AddressFromPubKey(priv.Public().(ed25519.PublicKey)),
		GasBudget:      50_000_000,
		GasPadding:     10_000_000,
		MinUserBalance: 100_000_000,
	}
}

func testCall() chain.MoveCall {
	return chain.MoveCall{Package: "0xpkg", Module: "certs", Function: "mint"}
}

func successResponse() *chain.TxResponse {
	return &chain.TxResponse{
		Digest: "Digest123",
		Effects: &chain.TransactionEffects{
			Status: chain.ExecutionStatus{Status: "success"},
			GasUsed: chain.GasSummary{
				ComputationCost: "1000000",
				StorageCost:     "2000000",
				StorageRebate:   "500000",
			},
		},
		ObjectChanges: []chain.ObjectChange{
			{Type: "created", ObjectID: "0xcert"},
			{Type: "mutated", ObjectID: "0xregistry"},
		},
	}
}

// ── Happy path ───────────────────────────────────────────────────────────────

func TestExecute_Success(t *testing.T) {
	rpc := &mockRPC{
		balance: 200_000_000,
		coins: []chain.Coin{
			{ObjectID: "0xsmall", Balance: 1_000_000},
			{ObjectID: "0xgas", Balance: 80_000_000},
		},
		txBytes: base64.StdEncoding.EncodeToString([]byte("txdata")),
		execRes: successResponse(),
	}
	e := NewExecutor(rpc, testSponsorConfig(t), zap.NewNop())

	builds := 0
	out, err := e.Execute(context.Background(), "0xuser", func() chain.MoveCall {
		builds++
		return testCall()
	}, "mint certificate")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !out.Success || out.Digest != "Digest123" {
		t.Fatalf("outcome = %+v", out)
	}
	if out.GasUsed != 2_500_000 {
		t.Fatalf("gas used = %d", out.GasUsed)
	}
	if len(out.CreatedObjectIDs) != 1 || out.CreatedObjectIDs[0] != "0xcert" {
		t.Fatalf("created = %v", out.CreatedObjectIDs)
	}
	if builds != 1 {
		t.Fatalf("build closure invoked %d times", builds)
	}
	// The first coin clearing budget+padding must be the explicit gas payment
	if rpc.gasObjectID != "0xgas" {
		t.Fatalf("gas object = %s, want 0xgas", rpc.gasObjectID)
	}
}

// ── Preflight ────────────────────────────────────────────────────────────────

// Beneficiary below the threshold: fail before the closure or any sponsor
// RPC runs.
func TestExecute_PreflightFailsFast(t *testing.T) {
	rpc := &mockRPC{balance: 0}
	e := NewExecutor(rpc, testSponsorConfig(t), zap.NewNop())

	builds := 0
	_, err := e.Execute(context.Background(), "0xuser", func() chain.MoveCall {
		builds++
		return testCall()
	}, "mint certificate")

	var ibe *InsufficientBalanceError
	if !errors.As(err, &ibe) {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}
	if ibe.Address != "0xuser" {
		t.Fatalf("error names %s, want the beneficiary", ibe.Address)
	}
	if ibe.Shortfall() != 100_000_000 {
		t.Fatalf("shortfall = %d, want 100000000", ibe.Shortfall())
	}
	if builds != 0 {
		t.Fatal("build closure invoked despite failed preflight")
	}
	if rpc.coinsCalls != 0 {
		t.Fatal("sponsor coin listing called despite failed preflight")
	}
}

func TestExecute_PreflightBalanceQueryFailure(t *testing.T) {
	rpc := &mockRPC{balanceErr: errors.New("dial tcp: timeout")}
	e := NewExecutor(rpc, testSponsorConfig(t), zap.NewNop())

	_, err := e.Execute(context.Background(), "0xuser", testCall, "op")
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if rpc.coinsCalls != 0 {
		t.Fatal("coin listing must not run after a failed balance query")
	}
}

// ── Sponsor key decode ───────────────────────────────────────────────────────

func TestExecute_BadSponsorSecret(t *testing.T) {
	cfg := testSponsorConfig(t)
	cfg.Secret = "!!!garbage!!!"
	rpc := &mockRPC{balance: 200_000_000}
	e := NewExecutor(rpc, cfg, zap.NewNop())

	_, err := e.Execute(context.Background(), "0xuser", testCall, "op")
	var kde *KeyDecodeError
	if !errors.As(err, &kde) {
		t.Fatalf("expected KeyDecodeError, got %v", err)
	}
	if rpc.coinsCalls != 0 {
		t.Fatal("coin listing ran with an undecodable sponsor key")
	}
}

func TestExecute_SponsorAddressMismatch(t *testing.T) {
	cfg := testSponsorConfig(t)
	cfg.Address = addrForSeed(testSeed(99)) // a different key's address
	rpc := &mockRPC{balance: 200_000_000}
	e := NewExecutor(rpc, cfg, zap.NewNop())

	_, err := e.Execute(context.Background(), "0xuser", testCall, "op")
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

// ── Gas selection ────────────────────────────────────────────────────────────

func TestExecute_InsufficientGas(t *testing.T) {
	rpc := &mockRPC{
		balance: 200_000_000,
		coins:   []chain.Coin{{ObjectID: "0x1", Balance: 5}},
	}
	e := NewExecutor(rpc, testSponsorConfig(t), zap.NewNop())

	_, err := e.Execute(context.Background(), "0xuser", testCall, "op")
	var ige *InsufficientGasError
	if !errors.As(err, &ige) {
		t.Fatalf("expected InsufficientGasError, got %v", err)
	}
	if rpc.buildCalls != 0 {
		t.Fatal("transaction built despite missing gas coin")
	}
}

// ── Submission and classification ────────────────────────────────────────────

func TestExecute_SubmitNetworkError(t *testing.T) {
	rpc := &mockRPC{
		balance: 200_000_000,
		coins:   []chain.Coin{{ObjectID: "0xgas", Balance: 80_000_000}},
		txBytes: base64.StdEncoding.EncodeToString([]byte("txdata")),
		execErr: errors.New("connection reset"),
	}
	e := NewExecutor(rpc, testSponsorConfig(t), zap.NewNop())

	_, err := e.Execute(context.Background(), "0xuser", testCall, "op")
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestExecute_MoveAbortTranslated(t *testing.T) {
	res := successResponse()
	res.Effects.Status = chain.ExecutionStatus{
		Status: "failure",
		Error:  "MoveAbort(MoveLocation { module: certs, function: 3, instruction: 22 }, 2) in command 0",
	}
	rpc := &mockRPC{
		balance: 200_000_000,
		coins:   []chain.Coin{{ObjectID: "0xgas", Balance: 80_000_000}},
		txBytes: base64.StdEncoding.EncodeToString([]byte("txdata")),
		execRes: res,
	}
	e := NewExecutor(rpc, testSponsorConfig(t), zap.NewNop())

	_, err := e.Execute(context.Background(), "0xuser", testCall, "op")
	var tfe *TxFailedError
	if !errors.As(err, &tfe) {
		t.Fatalf("expected TxFailedError, got %v", err)
	}
	if tfe.AbortCode == nil || *tfe.AbortCode != 2 {
		t.Fatalf("abort code = %v", tfe.AbortCode)
	}
	if tfe.Message != "not authorized to mint" {
		t.Fatalf("message = %q", tfe.Message)
	}
	if tfe.Digest != "Digest123" {
		t.Fatalf("digest = %q", tfe.Digest)
	}
}

// ── Serialization ────────────────────────────────────────────────────────────

// serialRPC records the order of coin listings and submissions, and parks the
// first Coins call until released so a second Execute can pile up behind the
// executor's lock.
type serialRPC struct {
	coins   []chain.Coin
	txBytes string
	execRes func() *chain.TxResponse

	firstIn chan struct{}
	release chan struct{}
	once    sync.Once

	mu     sync.Mutex
	events []string
}

func (s *serialRPC) record(ev string) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *serialRPC) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

func (s *serialRPC) Balance(_ context.Context, _ string) (uint64, error) {
	return 200_000_000, nil
}

func (s *serialRPC) Coins(_ context.Context, _ string) ([]chain.Coin, error) {
	s.record("coins")
	s.once.Do(func() {
		close(s.firstIn)
		<-s.release
	})
	return s.coins, nil
}

func (s *serialRPC) BuildMoveCall(_ context.Context, _ string, _ chain.MoveCall, _ string, _ uint64) (string, error) {
	return s.txBytes, nil
}

func (s *serialRPC) ExecuteTransaction(_ context.Context, _, _ string) (*chain.TxResponse, error) {
	s.record("submit")
	return s.execRes(), nil
}

// Two concurrent executions must not interleave between gas selection and
// submission: the second may not list coins until the first has submitted.
func TestExecute_ConcurrentCallsSerialized(t *testing.T) {
	rpc := &serialRPC{
		coins:   []chain.Coin{{ObjectID: "0xgas", Balance: 80_000_000}},
		txBytes: base64.StdEncoding.EncodeToString([]byte("txdata")),
		execRes: successResponse,
		firstIn: make(chan struct{}),
		release: make(chan struct{}),
	}
	e := NewExecutor(rpc, testSponsorConfig(t), zap.NewNop())

	errs := make(chan error, 2)
	run := func() {
		_, err := e.Execute(context.Background(), "0xuser", testCall, "op")
		errs <- err
	}

	go run()
	<-rpc.firstIn // first call holds the lock inside Coins

	go run()
	time.Sleep(50 * time.Millisecond) // let the second call reach the lock

	if got := rpc.snapshot(); len(got) != 1 || got[0] != "coins" {
		t.Fatalf("second execution listed coins while the first held the lock: %v", got)
	}

	close(rpc.release)
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}

	want := []string{"coins", "submit", "coins", "submit"}
	got := rpc.snapshot()
	if len(got) != len(want) {
		t.Fatalf("events = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func TestExecute_GenericFailureKeepsRawStatus(t *testing.T) {
	res := successResponse()
	res.Effects.Status = chain.ExecutionStatus{Status: "failure", Error: "InsufficientCoinBalance in command 1"}
	rpc := &mockRPC{
		balance: 200_000_000,
		coins:   []chain.Coin{{ObjectID: "0xgas", Balance: 80_000_000}},
		txBytes: base64.StdEncoding.EncodeToString([]byte("txdata")),
		execRes: res,
	}
	e := NewExecutor(rpc, testSponsorConfig(t), zap.NewNop())

	_, err := e.Execute(context.Background(), "0xuser", testCall, "op")
	var tfe *TxFailedError
	if !errors.As(err, &tfe) {
		t.Fatalf("expected TxFailedError, got %v", err)
	}
	if tfe.AbortCode != nil {
		t.Fatalf("unexpected abort code %d", *tfe.AbortCode)
	}
	if tfe.Status != "InsufficientCoinBalance in command 1" {
		t.Fatalf("status = %q", tfe.Status)
	}
}
