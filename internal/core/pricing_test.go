package core_test

import (
	"errors"
	"testing"

	"storefront-console/internal/core"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestRoundTaxInclusive(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		// 1000 × 1.19 = 1190, remainder 190 ≤ 250 → snaps down to 1000
		{"snaps down below half step", "1000", "1000"},
		// 1700 × 1.19 = 2023, remainder 23 → 2000
		{"small remainder snaps down", "1700", "2000"},
		// 1900 × 1.19 = 2261, remainder 261 > 250 → 2500
		{"above half step snaps up", "1900", "2500"},
		// 2100 × 1.19 = 2499, remainder 499 → 2500
		{"just under boundary snaps up", "2100", "2500"},
		// 50000 × 1.19 = 59500, already an exact multiple of 500
		{"exact step unchanged", "50000", "59500"},
		// 10000 × 1.19 = 11900, remainder 400 > 250 → 12000
		{"raw tax price off step snaps up", "10000", "12000"},
		{"zero base", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.RoundTaxInclusive(d(tt.base))
			if !got.Equal(d(tt.want)) {
				t.Errorf("RoundTaxInclusive(%s) = %s, want %s", tt.base, got, tt.want)
			}
		})
	}
}

// Rounding then deriving must reach a fixed point: once a base has been
// derived from a rounded final price, repeating the cycle changes nothing.
func TestRoundTaxInclusive_FixedPoint(t *testing.T) {
	for base := int64(1); base <= 500000; base += 317 {
		b := decimal.NewFromInt(base)
		final1 := core.RoundTaxInclusive(b)
		base1 := core.DeriveBase(final1)
		final2 := core.RoundTaxInclusive(base1)
		base2 := core.DeriveBase(final2)
		if !final1.Equal(final2) || !base1.Equal(base2) {
			t.Fatalf("no fixed point for base %d: %s/%s then %s/%s",
				base, final1, base1, final2, base2)
		}
	}
}

func TestHarmonize_CostLocalCascade(t *testing.T) {
	cur := core.PriceFields{
		CostLocal: d("10000"),
		MarginPct: d("40"),
	}
	got, err := core.Harmonize(core.FieldCostLocal, d("20000"), cur, nil)
	if err != nil {
		t.Fatalf("Harmonize failed: %v", err)
	}
	// 20000 × 1.40 = 28000 base → 33320 raw → 33500 final → 28151 re-derived base
	if !got.PriceFinal.Equal(d("33500")) {
		t.Errorf("expected final 33500, got %s", got.PriceFinal)
	}
	if !got.PriceBase.Equal(core.DeriveBase(got.PriceFinal)) {
		t.Errorf("base %s is not derived from final %s", got.PriceBase, got.PriceFinal)
	}
	// margin drifts with the rounding, recomputed from the final base
	wantMargin := got.PriceBase.Div(d("20000")).Sub(d("1")).Mul(d("100")).Round(2)
	if !got.MarginPct.Equal(wantMargin) {
		t.Errorf("expected margin %s, got %s", wantMargin, got.MarginPct)
	}
}

func TestHarmonize_CostWithoutMarginStoresOnly(t *testing.T) {
	cur := core.PriceFields{PriceBase: d("5000"), PriceFinal: d("6000")}
	got, err := core.Harmonize(core.FieldCostLocal, d("3000"), cur, nil)
	if err != nil {
		t.Fatalf("Harmonize failed: %v", err)
	}
	if !got.CostLocal.Equal(d("3000")) {
		t.Errorf("expected cost 3000, got %s", got.CostLocal)
	}
	// no margin set: prices stay untouched
	if !got.PriceFinal.Equal(d("6000")) || !got.PriceBase.Equal(d("5000")) {
		t.Errorf("prices moved without a margin: base %s final %s", got.PriceBase, got.PriceFinal)
	}
}

func TestHarmonize_MarginWithoutCostKeepsPrices(t *testing.T) {
	cur := core.PriceFields{PriceBase: d("14000"), PriceFinal: d("16500")}
	got, err := core.Harmonize(core.FieldMarginPct, d("40"), cur, nil)
	if err != nil {
		t.Fatalf("Harmonize failed: %v", err)
	}
	if !got.MarginPct.Equal(d("40")) {
		t.Errorf("expected margin 40, got %s", got.MarginPct)
	}
	// no local cost to reprice from: the stored pair stays put
	if !got.PriceBase.Equal(d("14000")) || !got.PriceFinal.Equal(d("16500")) {
		t.Errorf("margin edit without a cost wiped prices: base %s final %s", got.PriceBase, got.PriceFinal)
	}
}

func TestHarmonize_ForeignCostWithRate(t *testing.T) {
	rate := d("950")
	cur := core.PriceFields{MarginPct: d("30")}
	got, err := core.Harmonize(core.FieldCostForeign, d("25"), cur, &rate)
	if err != nil {
		t.Fatalf("Harmonize failed: %v", err)
	}
	if got.CostForeign == nil || !got.CostForeign.Equal(d("25")) {
		t.Fatalf("foreign cost not stored: %v", got.CostForeign)
	}
	if !got.CostLocal.Equal(d("23750")) {
		t.Errorf("expected local cost 23750, got %s", got.CostLocal)
	}
	if !got.PriceFinal.Equal(core.RoundTaxInclusive(d("30875"))) {
		t.Errorf("cascade did not run: final %s", got.PriceFinal)
	}
}

func TestHarmonize_ForeignCostWithoutRateDegrades(t *testing.T) {
	cur := core.PriceFields{
		CostLocal:  d("10000"),
		MarginPct:  d("40"),
		PriceBase:  d("14000"),
		PriceFinal: d("16500"),
	}
	got, err := core.Harmonize(core.FieldCostForeign, d("12"), cur, nil)
	if !errors.Is(err, core.ErrRateUnavailable) {
		t.Fatalf("expected ErrRateUnavailable, got %v", err)
	}
	if got.CostForeign == nil || !got.CostForeign.Equal(d("12")) {
		t.Error("foreign cost must still be stored")
	}
	// everything else keeps its prior value
	if !got.CostLocal.Equal(d("10000")) || !got.PriceFinal.Equal(d("16500")) {
		t.Errorf("cascade ran without a rate: local %s final %s", got.CostLocal, got.PriceFinal)
	}
}

func TestHarmonize_BaseEditRecomputesMargin(t *testing.T) {
	cur := core.PriceFields{CostLocal: d("10000"), MarginPct: d("20")}
	got, err := core.Harmonize(core.FieldPriceBase, d("15000"), cur, nil)
	if err != nil {
		t.Fatalf("Harmonize failed: %v", err)
	}
	if !got.PriceFinal.Equal(core.RoundTaxInclusive(d("15000"))) {
		t.Errorf("expected final %s, got %s", core.RoundTaxInclusive(d("15000")), got.PriceFinal)
	}
	if !got.PriceBase.Equal(core.DeriveBase(got.PriceFinal)) {
		t.Errorf("base %s not re-derived from final %s", got.PriceBase, got.PriceFinal)
	}
	if got.MarginPct.Equal(d("20")) {
		t.Error("margin should have been recomputed from the new base")
	}
}

func TestHarmonize_FinalEditIsNoOp(t *testing.T) {
	cur := core.PriceFields{
		CostLocal:  d("10000"),
		MarginPct:  d("40"),
		PriceBase:  d("14000"),
		PriceFinal: d("16500"),
	}
	got, err := core.Harmonize(core.FieldPriceFinal, d("99999"), cur, nil)
	if err != nil {
		t.Fatalf("Harmonize failed: %v", err)
	}
	if !got.PriceFinal.Equal(d("16500")) || !got.PriceBase.Equal(d("14000")) {
		t.Errorf("final edit must not change the snapshot: base %s final %s", got.PriceBase, got.PriceFinal)
	}
}
