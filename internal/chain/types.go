package chain

import (
	"fmt"
	"strconv"
)

// Coin is one fungible gas object owned by an address. Version and digest are
// only valid at fetch time; they change whenever a transaction touches the
// coin, so coins are never cached across calls.
type Coin struct {
	ObjectID string
	Version  string
	Digest   string
	Balance  uint64
}

// MoveCall describes a single Move entry-point invocation. Arguments are
// JSON-encodable values in the shape the node's transaction builder expects
// (object ids and pure values as strings).
type MoveCall struct {
	Package  string
	Module   string
	Function string
	TypeArgs []string
	Args     []any
}

func (m MoveCall) Target() string {
	return fmt.Sprintf("%s::%s::%s", m.Package, m.Module, m.Function)
}

// GasSummary mirrors the node's per-transaction gas accounting.
type GasSummary struct {
	ComputationCost         string `json:"computationCost"`
	StorageCost             string `json:"storageCost"`
	StorageRebate           string `json:"storageRebate"`
	NonRefundableStorageFee string `json:"nonRefundableStorageFee"`
}

// Total returns computation + storage - rebate, saturating at zero.
func (g GasSummary) Total() uint64 {
	comp, _ := strconv.ParseUint(g.ComputationCost, 10, 64)
	store, _ := strconv.ParseUint(g.StorageCost, 10, 64)
	rebate, _ := strconv.ParseUint(g.StorageRebate, 10, 64)
	if rebate > comp+store {
		return 0
	}
	return comp + store - rebate
}

type ExecutionStatus struct {
	Status string `json:"status"` // "success" | "failure"
	Error  string `json:"error,omitempty"`
}

type TransactionEffects struct {
	Status  ExecutionStatus `json:"status"`
	GasUsed GasSummary      `json:"gasUsed"`
}

type ObjectChange struct {
	Type       string `json:"type"` // "created" | "mutated" | "deleted" | ...
	ObjectID   string `json:"objectId"`
	ObjectType string `json:"objectType"`
}

// TxResponse is the node's reply to sui_executeTransactionBlock with effects
// and object changes requested.
type TxResponse struct {
	Digest        string              `json:"digest"`
	Effects       *TransactionEffects `json:"effects"`
	ObjectChanges []ObjectChange      `json:"objectChanges"`
}

func (r *TxResponse) Succeeded() bool {
	return r.Effects != nil && r.Effects.Status.Status == "success"
}

// StatusError returns the raw failure string reported by the node, if any.
func (r *TxResponse) StatusError() string {
	if r.Effects == nil {
		return ""
	}
	return r.Effects.Status.Error
}

// CreatedObjectIDs returns the ids of all objects created by the transaction,
// in the order the node reported them.
func (r *TxResponse) CreatedObjectIDs() []string {
	var ids []string
	for _, oc := range r.ObjectChanges {
		if oc.Type == "created" {
			ids = append(ids, oc.ObjectID)
		}
	}
	return ids
}

// GasUsedTotal returns the net gas charge of the transaction.
func (r *TxResponse) GasUsedTotal() uint64 {
	if r.Effects == nil {
		return 0
	}
	return r.Effects.GasUsed.Total()
}

// DryRunResult carries the effects of a simulated execution.
type DryRunResult struct {
	Effects *TransactionEffects `json:"effects"`
}
