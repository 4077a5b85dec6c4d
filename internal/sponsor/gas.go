package sponsor

import (
	"context"
	"math"

	"github.com/suicert/suicert/internal/chain"
)

// CoinLister is the slice of the chain client the selector needs.
type CoinLister interface {
	Coins(ctx context.Context, addr string) ([]chain.Coin, error)
}

// GasSelector picks the gas coin paying for a sponsored transaction.
type GasSelector struct {
	lister  CoinLister
	padding uint64
}

// NewGasSelector builds a selector with a fixed padding added on top of the
// caller's minimum to absorb gas-estimation error.
func NewGasSelector(lister CoinLister, padding uint64) *GasSelector {
	return &GasSelector{lister: lister, padding: padding}
}

// Select fetches a fresh coin listing for owner and returns the FIRST coin
// whose balance exceeds minRequired + padding. First-fit is deliberate:
// one listing pass, no sorting, and tests can predict the choice. Coin
// versions go stale after every touching transaction, so nothing is cached.
func (s *GasSelector) Select(ctx context.Context, owner string, minRequired uint64) (*chain.Coin, error) {
	coins, err := s.lister.Coins(ctx, owner)
	if err != nil {
		return nil, &NetworkError{Op: "list gas coins", Err: err}
	}

	// Saturate rather than wrap on absurd minimums.
	threshold := minRequired + s.padding
	if threshold < minRequired {
		threshold = math.MaxUint64
	}
	var largest uint64
	for i := range coins {
		if coins[i].Balance > threshold {
			return &coins[i], nil
		}
		if coins[i].Balance > largest {
			largest = coins[i].Balance
		}
	}
	return nil, &InsufficientGasError{Address: owner, Required: threshold, Found: largest}
}
