package sponsor

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/suicert/suicert/internal/chain"
	"github.com/suicert/suicert/internal/config"
)

// ChainRPC is the slice of the chain client the executor consumes. Satisfied
// by chain.Client; mocked in tests.
type ChainRPC interface {
	Balance(ctx context.Context, addr string) (uint64, error)
	Coins(ctx context.Context, addr string) ([]chain.Coin, error)
	BuildMoveCall(ctx context.Context, signer string, call chain.MoveCall, gasObjectID string, gasBudget uint64) (string, error)
	ExecuteTransaction(ctx context.Context, txBytesB64, signatureB64 string) (*chain.TxResponse, error)
}

// Outcome is the raw result of a sponsored execution. Deciding which created
// object is "the interesting one" is the caller's concern.
type Outcome struct {
	Digest           string
	Success          bool
	GasUsed          uint64
	CreatedObjectIDs []string
}

// Executor runs caller-built transactions signed and paid for by the sponsor
// account, gated on the beneficiary's own balance.
type Executor struct {
	rpc      ChainRPC
	cfg      config.SponsorConfig
	decoder  *Decoder
	selector *GasSelector
	log      *zap.Logger

	// Serializes gas selection through submission. Without it two concurrent
	// executions can select the same coin version and the second submission
	// is rejected with a stale-object error.
	mu sync.Mutex
}

func NewExecutor(rpc ChainRPC, cfg config.SponsorConfig, log *zap.Logger) *Executor {
	return &Executor{
		rpc:      rpc,
		cfg:      cfg,
		decoder:  NewDecoder(),
		selector: NewGasSelector(rpc, cfg.GasPadding),
		log:      log,
	}
}

// Execute runs the sponsored-transaction state machine:
// preflight → decode → select → build → submit → classify.
//
// The beneficiary balance gate runs before anything else; the build closure
// is never invoked when preflight fails. Preflight, decode and selection
// failures are fail-fast (retrying cannot fix funding or configuration).
// Only submission-stage transport failures come back as *NetworkError, where
// a caller-level retry is reasonable.
func (e *Executor) Execute(ctx context.Context, beneficiary string, build func() chain.MoveCall, description string) (*Outcome, error) {
	// 1. Preflight: the sponsor pays, but the cost is attributed to the
	// beneficiary, so the beneficiary's own balance gates permission.
	balance, err := e.rpc.Balance(ctx, beneficiary)
	if err != nil {
		return nil, &NetworkError{Op: "beneficiary balance", Err: err}
	}
	if balance < e.cfg.MinUserBalance {
		return nil, &InsufficientBalanceError{
			Address:  beneficiary,
			Required: e.cfg.MinUserBalance,
			Found:    balance,
		}
	}

	// 2. Decode the sponsor key and verify it against the configured address.
	key, err := e.decoder.Decode(e.cfg.Secret, e.cfg.Address)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// 3. Pick the sponsor's gas coin, freshly listed.
	coin, err := e.selector.Select(ctx, key.Address, e.cfg.GasBudget)
	if err != nil {
		return nil, err
	}

	// 4. Build the transaction with the selected coin as explicit payment,
	// so the selection above stays authoritative.
	call := build()
	txBytes, err := e.rpc.BuildMoveCall(ctx, key.Address, call, coin.ObjectID, e.cfg.GasBudget)
	if err != nil {
		return nil, &NetworkError{Op: "build " + call.Target(), Err: err}
	}

	// 5. Sign and submit, waiting for effects.
	sig, err := chain.SignTransaction(txBytes, key.PrivateKey)
	if err != nil {
		return nil, &ConfigError{Reason: "sign transaction", Err: err}
	}
	res, err := e.rpc.ExecuteTransaction(ctx, txBytes, sig)
	if err != nil {
		return nil, &NetworkError{Op: "submit " + description, Err: err}
	}

	// 6. Classify.
	if !res.Succeeded() {
		status := res.StatusError()
		txErr := &TxFailedError{Digest: res.Digest, Status: status}
		if code, ok := ExtractAbortCode(status); ok {
			txErr.AbortCode = &code
			txErr.Message = TranslateAbort(code)
		}
		e.log.Warn("sponsored transaction failed",
			zap.String("operation", description),
			zap.String("digest", res.Digest),
			zap.String("status", status),
		)
		return nil, txErr
	}

	out := &Outcome{
		Digest:           res.Digest,
		Success:          true,
		GasUsed:          res.GasUsedTotal(),
		CreatedObjectIDs: res.CreatedObjectIDs(),
	}
	e.log.Info("sponsored transaction executed",
		zap.String("operation", description),
		zap.String("beneficiary", beneficiary),
		zap.String("digest", out.Digest),
		zap.Uint64("gas_used", out.GasUsed),
		zap.Int("created", len(out.CreatedObjectIDs)),
	)
	return out, nil
}
