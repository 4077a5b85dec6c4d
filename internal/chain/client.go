package chain

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/rpc"
)

// ErrChainUnavailable marks transport-level RPC failures: the node could not
// be reached or did not answer. Transient; callers may retry with backoff.
// Execution failures reported by the node itself are NOT wrapped in this.
var ErrChainUnavailable = errors.New("chain unavailable")

// SuiCoinType is the canonical gas coin type.
const SuiCoinType = "0x2::sui::SUI"

// Client wraps a JSON-RPC connection to a Sui fullnode.
type Client struct {
	rpc *rpc.Client
}

func Dial(ctx context.Context, rawurl string) (*Client, error) {
	c, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, fmt.Errorf("dial rpc %s: %w", rawurl, err)
	}
	return &Client{rpc: c}, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	if err := c.rpc.CallContext(ctx, result, method, args...); err != nil {
		return fmt.Errorf("%s: %w: %v", method, ErrChainUnavailable, err)
	}
	return nil
}

// CurrentEpoch returns the chain's current epoch number.
func (c *Client) CurrentEpoch(ctx context.Context) (uint64, error) {
	var state struct {
		Epoch string `json:"epoch"`
	}
	if err := c.call(ctx, &state, "suix_getLatestSuiSystemState"); err != nil {
		return 0, err
	}
	epoch, err := strconv.ParseUint(state.Epoch, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse epoch %q: %w", state.Epoch, err)
	}
	return epoch, nil
}

// Balance returns the total SUI balance (in MIST) owned by addr.
func (c *Client) Balance(ctx context.Context, addr string) (uint64, error) {
	var res struct {
		TotalBalance string `json:"totalBalance"`
	}
	if err := c.call(ctx, &res, "suix_getBalance", addr, SuiCoinType); err != nil {
		return 0, err
	}
	bal, err := strconv.ParseUint(res.TotalBalance, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance %q: %w", res.TotalBalance, err)
	}
	return bal, nil
}

type coinJSON struct {
	CoinObjectID string `json:"coinObjectId"`
	Version      string `json:"version"`
	Digest       string `json:"digest"`
	Balance      string `json:"balance"`
}

// Coins lists the SUI coin objects owned by addr, in node order. The listing
// is a fresh snapshot; versions go stale after any transaction touches a coin.
func (c *Client) Coins(ctx context.Context, addr string) ([]Coin, error) {
	var cursor *string
	var coins []Coin
	for {
		var page struct {
			Data        []coinJSON `json:"data"`
			HasNextPage bool       `json:"hasNextPage"`
			NextCursor  *string    `json:"nextCursor"`
		}
		if err := c.call(ctx, &page, "suix_getCoins", addr, SuiCoinType, cursor, nil); err != nil {
			return nil, err
		}
		for _, cj := range page.Data {
			bal, err := strconv.ParseUint(cj.Balance, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse coin balance %q: %w", cj.Balance, err)
			}
			coins = append(coins, Coin{
				ObjectID: cj.CoinObjectID,
				Version:  cj.Version,
				Digest:   cj.Digest,
				Balance:  bal,
			})
		}
		if !page.HasNextPage || page.NextCursor == nil {
			return coins, nil
		}
		cursor = page.NextCursor
	}
}

// BuildMoveCall asks the node to construct transaction bytes for a Move call,
// paying gas with the given coin object. Returns base64 tx bytes.
func (c *Client) BuildMoveCall(ctx context.Context, signer string, call MoveCall, gasObjectID string, gasBudget uint64) (string, error) {
	var res struct {
		TxBytes string `json:"txBytes"`
	}
	err := c.call(ctx, &res, "unsafe_moveCall",
		signer,
		call.Package,
		call.Module,
		call.Function,
		call.TypeArgs,
		call.Args,
		gasObjectID,
		strconv.FormatUint(gasBudget, 10),
	)
	if err != nil {
		return "", err
	}
	return res.TxBytes, nil
}

// DryRun simulates execution of the given transaction bytes.
func (c *Client) DryRun(ctx context.Context, txBytesB64 string) (*DryRunResult, error) {
	var res DryRunResult
	if err := c.call(ctx, &res, "sui_dryRunTransactionBlock", txBytesB64); err != nil {
		return nil, err
	}
	return &res, nil
}

// ExecuteTransaction submits signed transaction bytes and waits for local
// execution, returning effects and object changes.
func (c *Client) ExecuteTransaction(ctx context.Context, txBytesB64, signatureB64 string) (*TxResponse, error) {
	options := map[string]bool{
		"showEffects":        true,
		"showEvents":         true,
		"showObjectChanges":  true,
		"showBalanceChanges": true,
	}
	var res TxResponse
	err := c.call(ctx, &res, "sui_executeTransactionBlock",
		txBytesB64,
		[]string{signatureB64},
		options,
		"WaitForLocalExecution",
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
