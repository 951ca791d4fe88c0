package core

// AllocationOutcome classifies how a requested line quantity can be served.
type AllocationOutcome string

const (
	// CommitToPrimary: the primary pool covers the request; no confirmation needed.
	CommitToPrimary AllocationOutcome = "COMMIT_PRIMARY"
	// OfferAuxiliary: only the auxiliary pool covers the request. Cross-warehouse
	// substitution is a decision, not a default — the caller must obtain explicit
	// confirmation before committing the line.
	OfferAuxiliary AllocationOutcome = "OFFER_AUXILIARY"
	// Insufficient: neither pool covers the request on its own.
	Insufficient AllocationOutcome = "INSUFFICIENT"
)

// Allocation is the resolver's decision for one requested line quantity.
type Allocation struct {
	Outcome AllocationOutcome `json:"outcome"`
	// WarehouseID is the pool chosen for CommitToPrimary / OfferAuxiliary.
	WarehouseID int `json:"warehouse_id,omitempty"`
	// Available is the auxiliary pool's remaining quantity on OfferAuxiliary,
	// reported so the confirmation dialog can show what is left there.
	Available int64 `json:"available,omitempty"`
	// MaxSatisfiable is the best quantity across both pools on Insufficient.
	MaxSatisfiable int64 `json:"max_satisfiable,omitempty"`
}

// PoolState is a point-in-time read of an item's two pools, with the
// quantities already staged for that item in the current cart. Staged
// quantities count against their pool before the decision is made, so
// incrementing an existing cart line resolves the delta against what is
// genuinely left.
type PoolState struct {
	PrimaryWarehouseID int
	QtyPrimary         int64
	AuxWarehouseID     int // 0 when the item has no auxiliary pool
	QtyAux             int64
	StagedPrimary      int64
	StagedAux          int64
}

// ResolveAllocation decides which pool serves a requested quantity. The rule
// is deterministic: primary first if it can satisfy the full request, then
// the auxiliary as an explicit offer, otherwise Insufficient with the maximum
// satisfiable quantity across both pools.
func ResolveAllocation(p PoolState, requested int64) Allocation {
	availPrimary := p.QtyPrimary - p.StagedPrimary
	if availPrimary < 0 {
		availPrimary = 0
	}
	availAux := p.QtyAux - p.StagedAux
	if availAux < 0 {
		availAux = 0
	}

	if availPrimary >= requested {
		return Allocation{Outcome: CommitToPrimary, WarehouseID: p.PrimaryWarehouseID}
	}
	if p.AuxWarehouseID != 0 && availAux >= requested {
		return Allocation{Outcome: OfferAuxiliary, WarehouseID: p.AuxWarehouseID, Available: availAux}
	}
	return Allocation{Outcome: Insufficient, MaxSatisfiable: availPrimary + availAux}
}
