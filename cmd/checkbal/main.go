package main

import (
	"context"
	"fmt"
	"os"

	"github.com/suicert/suicert/internal/chain"
	"github.com/suicert/suicert/internal/config"
	"github.com/suicert/suicert/internal/sponsor"
)

// checkbal prints the sponsor account's funding state: total balance and each
// gas coin, flagging whether any coin clears the configured budget+padding.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	c, err := chain.Dial(ctx, cfg.Chain.RPCURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	key, err := sponsor.NewDecoder().Decode(cfg.Sponsor.Secret, cfg.Sponsor.Address)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sponsor key: %v\n", err)
		os.Exit(1)
	}

	balance, err := c.Balance(ctx, key.Address)
	if err != nil {
		fmt.Fprintf(os.Stderr, "balance: %v\n", err)
		os.Exit(1)
	}
	coins, err := c.Coins(ctx, key.Address)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coins: %v\n", err)
		os.Exit(1)
	}

	threshold := cfg.Sponsor.GasBudget + cfg.Sponsor.GasPadding
	fmt.Printf("sponsor:   %s\n", key.Address)
	fmt.Printf("balance:   %d MIST\n", balance)
	fmt.Printf("threshold: %d MIST (budget %d + padding %d)\n",
		threshold, cfg.Sponsor.GasBudget, cfg.Sponsor.GasPadding)

	usable := 0
	var gasCoin *chain.Coin
	for i := range coins {
		mark := " "
		if coins[i].Balance > threshold {
			mark = "*"
			usable++
			if gasCoin == nil {
				gasCoin = &coins[i]
			}
		}
		fmt.Printf("  %s %s  %d MIST\n", mark, coins[i].ObjectID, coins[i].Balance)
	}
	if usable == 0 {
		fmt.Println("WARNING: no gas coin clears the threshold; sponsored transactions will fail")
		os.Exit(2)
	}

	// Dry-run a representative call so the printed budget can be judged
	// against what the node would actually charge.
	probe := chain.MoveCall{
		Package:  cfg.Sponsor.PackageID,
		Module:   "certificates",
		Function: "create_template",
		Args:     []any{cfg.Sponsor.RegistryID, "gas-preview", ""},
	}
	txBytes, err := c.BuildMoveCall(ctx, key.Address, probe, gasCoin.ObjectID, cfg.Sponsor.GasBudget)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build preview tx: %v\n", err)
		os.Exit(1)
	}
	sim, err := c.DryRun(ctx, txBytes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dry-run: %v\n", err)
		os.Exit(1)
	}
	if sim.Effects != nil {
		fmt.Printf("dry-run:   %d MIST estimated gas, status %s\n",
			sim.Effects.GasUsed.Total(), sim.Effects.Status.Status)
	}
}
