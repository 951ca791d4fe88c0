package core_test

import (
	"testing"

	"storefront-console/internal/core"
)

func TestResolveAllocation(t *testing.T) {
	pools := core.PoolState{
		PrimaryWarehouseID: 1,
		AuxWarehouseID:     2,
	}

	tests := []struct {
		name      string
		primary   int64
		aux       int64
		stagedPri int64
		stagedAux int64
		requested int64
		want      core.Allocation
	}{
		{
			name: "primary covers request", primary: 10, aux: 5, requested: 3,
			want: core.Allocation{Outcome: core.CommitToPrimary, WarehouseID: 1},
		},
		{
			name: "primary exactly covers", primary: 3, aux: 0, requested: 3,
			want: core.Allocation{Outcome: core.CommitToPrimary, WarehouseID: 1},
		},
		{
			name: "primary empty, auxiliary offered", primary: 0, aux: 8, requested: 3,
			want: core.Allocation{Outcome: core.OfferAuxiliary, WarehouseID: 2, Available: 8},
		},
		{
			name: "primary short, auxiliary offered", primary: 2, aux: 5, requested: 4,
			want: core.Allocation{Outcome: core.OfferAuxiliary, WarehouseID: 2, Available: 5},
		},
		{
			name: "both short", primary: 2, aux: 1, requested: 5,
			want: core.Allocation{Outcome: core.Insufficient, MaxSatisfiable: 3},
		},
		{
			name: "staged quantities count against their pool",
			primary: 10, aux: 5, stagedPri: 8, requested: 4,
			want: core.Allocation{Outcome: core.OfferAuxiliary, WarehouseID: 2, Available: 5},
		},
		{
			name: "staged auxiliary exhausts the fallback",
			primary: 1, aux: 5, stagedAux: 4, requested: 3,
			want: core.Allocation{Outcome: core.Insufficient, MaxSatisfiable: 2},
		},
		{
			name: "overstaged pool clamps to zero", primary: 3, stagedPri: 7, requested: 1,
			want: core.Allocation{Outcome: core.Insufficient, MaxSatisfiable: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pools
			p.QtyPrimary = tt.primary
			p.QtyAux = tt.aux
			p.StagedPrimary = tt.stagedPri
			p.StagedAux = tt.stagedAux
			got := core.ResolveAllocation(p, tt.requested)
			if got != tt.want {
				t.Errorf("ResolveAllocation(%+v, %d) = %+v, want %+v", p, tt.requested, got, tt.want)
			}
		})
	}
}

// An item with no auxiliary pool never gets an offer: a short primary is
// simply insufficient.
func TestResolveAllocation_NoAuxiliaryPool(t *testing.T) {
	p := core.PoolState{PrimaryWarehouseID: 1, QtyPrimary: 2}
	got := core.ResolveAllocation(p, 5)
	want := core.Allocation{Outcome: core.Insufficient, MaxSatisfiable: 2}
	if got != want {
		t.Errorf("ResolveAllocation = %+v, want %+v", got, want)
	}
}

// The resolver is a pure function: the same inputs always produce the same
// decision.
func TestResolveAllocation_Deterministic(t *testing.T) {
	p := core.PoolState{PrimaryWarehouseID: 1, QtyPrimary: 4, AuxWarehouseID: 2, QtyAux: 9}
	first := core.ResolveAllocation(p, 6)
	for i := 0; i < 100; i++ {
		if got := core.ResolveAllocation(p, 6); got != first {
			t.Fatalf("resolution changed on call %d: %+v vs %+v", i, got, first)
		}
	}
}
