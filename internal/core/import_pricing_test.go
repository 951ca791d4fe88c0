package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Whatever columns a workbook row prices itself with, the stored pair must
// satisfy price_final == RoundTaxInclusive(price_base).
func TestHarmonizeImportPrices_FinalOnlyRowIsNormalized(t *testing.T) {
	got := harmonizeImportPrices(ImportRow{PriceFinal: dec("1234")}, nil)
	if !got.PriceFinal.Equal(RoundTaxInclusive(got.PriceBase)) {
		t.Fatalf("stored pair inconsistent: base %s final %s", got.PriceBase, got.PriceFinal)
	}
	// 1234 → base 1037 → final snaps down to 1000, base re-derived to 840
	if !got.PriceFinal.Equal(dec("1000")) || !got.PriceBase.Equal(dec("840")) {
		t.Errorf("expected base 840 final 1000, got base %s final %s", got.PriceBase, got.PriceFinal)
	}
}

func TestHarmonizeImportPrices_FinalOnlyRowOnStepIsStable(t *testing.T) {
	got := harmonizeImportPrices(ImportRow{PriceFinal: dec("15500")}, nil)
	if !got.PriceFinal.Equal(dec("15500")) || !got.PriceBase.Equal(dec("13025")) {
		t.Errorf("expected base 13025 final 15500, got base %s final %s", got.PriceBase, got.PriceFinal)
	}
}

func TestHarmonizeImportPrices_ForeignCostWithoutMarginPricesFromBase(t *testing.T) {
	rate := dec("950")
	usd := dec("25")
	got := harmonizeImportPrices(ImportRow{CostForeign: &usd, PriceBase: dec("30000")}, &rate)
	if !got.CostLocal.Equal(dec("23750")) {
		t.Fatalf("expected local cost 23750, got %s", got.CostLocal)
	}
	// 30000 × 1.19 = 35700, remainder 200 snaps down to 35500
	if !got.PriceFinal.Equal(dec("35500")) || !got.PriceBase.Equal(dec("29832")) {
		t.Errorf("expected base 29832 final 35500, got base %s final %s", got.PriceBase, got.PriceFinal)
	}
	if !got.MarginPct.Equal(dec("25.61")) {
		t.Errorf("expected margin 25.61 recomputed from the cost, got %s", got.MarginPct)
	}
}

func TestHarmonizeImportPrices_NoPriceColumnsLeavesZeroes(t *testing.T) {
	got := harmonizeImportPrices(ImportRow{}, nil)
	if !got.PriceBase.IsZero() || !got.PriceFinal.IsZero() {
		t.Errorf("expected zero prices, got base %s final %s", got.PriceBase, got.PriceFinal)
	}
}
