package core

import (
	"github.com/shopspring/decimal"
)

// The storefront prices everything tax-inclusive at a fixed 19% VAT, and by
// local convention a sale price always lands on a 500-peso boundary, never on
// arbitrary amounts.
var (
	taxFactor = decimal.New(119, -2) // 1.19

	priceStep     = decimal.NewFromInt(500)
	priceHalfStep = decimal.NewFromInt(250)
	hundred       = decimal.NewFromInt(100)
	one           = decimal.NewFromInt(1)
)

// RoundTaxInclusive computes the tax-inclusive sale price for a base price:
// round(base × 1.19) snapped to the nearest multiple of 500 (a remainder of
// up to 250 snaps down, above it snaps up). Applying RoundTaxInclusive and
// DeriveBase in alternation reaches a fixed point after one full cycle.
func RoundTaxInclusive(base decimal.Decimal) decimal.Decimal {
	raw := base.Mul(taxFactor).Round(0)
	rem := raw.Mod(priceStep)
	if rem.IsZero() {
		return raw
	}
	down := raw.Sub(rem)
	if rem.LessThanOrEqual(priceHalfStep) {
		return down
	}
	return down.Add(priceStep)
}

// DeriveBase recovers the pre-tax base price from a tax-inclusive price.
func DeriveBase(final decimal.Decimal) decimal.Decimal {
	return final.Div(taxFactor).Round(0)
}

// PriceField names the single field edited in a Harmonize call.
type PriceField string

const (
	FieldCostForeign PriceField = "cost_foreign"
	FieldCostLocal   PriceField = "cost_local"
	FieldMarginPct   PriceField = "margin_pct"
	FieldPriceBase   PriceField = "price_base"
	FieldPriceFinal  PriceField = "price_final"
)

// PriceFields is the snapshot of the five interdependent price fields of a
// stock item. CostForeign is nil for items costed in local currency only.
type PriceFields struct {
	CostForeign *decimal.Decimal
	CostLocal   decimal.Decimal
	MarginPct   decimal.Decimal
	PriceBase   decimal.Decimal
	PriceFinal  decimal.Decimal
}

// Harmonize applies a single-field edit and recomputes the other four fields
// so the snapshot stays mutually consistent. rate is the current foreign
// currency rate, nil when the source is unreachable.
//
// Editing the foreign cost with no rate available stores only the foreign
// cost and returns ErrRateUnavailable alongside the updated snapshot; the
// caller persists the snapshot and reports the skipped cascade. Editing the
// tax-inclusive price is a no-op: that field is a derived projection and only
// changes through base, cost, or margin edits.
func Harmonize(edited PriceField, value decimal.Decimal, cur PriceFields, rate *decimal.Decimal) (PriceFields, error) {
	switch edited {
	case FieldCostForeign:
		cur.CostForeign = &value
		if rate == nil {
			return cur, ErrRateUnavailable
		}
		cur.CostLocal = value.Mul(*rate).Round(0)
		return cascadeFromCost(cur), nil

	case FieldCostLocal:
		cur.CostLocal = value
		return cascadeFromCost(cur), nil

	case FieldMarginPct:
		cur.MarginPct = value
		return cascadeFromCost(cur), nil

	case FieldPriceBase:
		return cascadeFromBase(cur, value), nil

	case FieldPriceFinal:
		return cur, nil
	}
	return cur, nil
}

// cascadeFromCost reprices from the local cost and margin: the suggested base
// is cost × (1 + margin/100), the final price is the rounded tax-inclusive
// projection of it, and the base is re-derived from the rounded final. The
// cascade only runs once both a local cost and a margin have been set; an
// item priced by base alone keeps its prices when the margin is edited.
func cascadeFromCost(f PriceFields) PriceFields {
	if f.MarginPct.IsZero() || !f.CostLocal.IsPositive() {
		return f
	}
	suggested := f.CostLocal.Mul(one.Add(f.MarginPct.Div(hundred)))
	return cascadeFromBase(f, suggested)
}

// cascadeFromBase reprices from an edited (or suggested) base price. Price
// rounding is authoritative: the typed base is replaced by the value derived
// back from the rounded final price, and the margin is recomputed from that
// rounded base so it may drift slightly from what the user last typed.
func cascadeFromBase(f PriceFields, base decimal.Decimal) PriceFields {
	f.PriceFinal = RoundTaxInclusive(base)
	f.PriceBase = DeriveBase(f.PriceFinal)
	if f.CostLocal.IsPositive() {
		f.MarginPct = f.PriceBase.Div(f.CostLocal).Sub(one).Mul(hundred).Round(2)
	}
	return f
}
