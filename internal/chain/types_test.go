package chain

import "testing"

// ── GasSummary ───────────────────────────────────────────────────────────────

func TestGasSummaryTotal(t *testing.T) {
	g := GasSummary{
		ComputationCost: "1000000",
		StorageCost:     "2500000",
		StorageRebate:   "500000",
	}
	if got := g.Total(); got != 3000000 {
		t.Fatalf("Total() = %d, want 3000000", got)
	}
}

func TestGasSummaryTotal_RebateExceedsCost(t *testing.T) {
	g := GasSummary{
		ComputationCost: "100",
		StorageCost:     "100",
		StorageRebate:   "9999",
	}
	if got := g.Total(); got != 0 {
		t.Fatalf("Total() = %d, want 0 (saturating)", got)
	}
}

// ── TxResponse ───────────────────────────────────────────────────────────────

func TestTxResponse_Succeeded(t *testing.T) {
	r := &TxResponse{Effects: &TransactionEffects{Status: ExecutionStatus{Status: "success"}}}
	if !r.Succeeded() {
		t.Fatal("expected success")
	}
	r.Effects.Status.Status = "failure"
	if r.Succeeded() {
		t.Fatal("expected failure")
	}
	if (&TxResponse{}).Succeeded() {
		t.Fatal("nil effects must not report success")
	}
}

func TestTxResponse_CreatedObjectIDs(t *testing.T) {
	r := &TxResponse{ObjectChanges: []ObjectChange{
		{Type: "mutated", ObjectID: "0xaa"},
		{Type: "created", ObjectID: "0xbb"},
		{Type: "created", ObjectID: "0xcc"},
		{Type: "deleted", ObjectID: "0xdd"},
	}}
	ids := r.CreatedObjectIDs()
	if len(ids) != 2 || ids[0] != "0xbb" || ids[1] != "0xcc" {
		t.Fatalf("CreatedObjectIDs() = %v, want [0xbb 0xcc]", ids)
	}
}

func TestMoveCallTarget(t *testing.T) {
	m := MoveCall{Package: "0x1", Module: "certs", Function: "mint"}
	if got := m.Target(); got != "0x1::certs::mint" {
		t.Fatalf("Target() = %q", got)
	}
}
