package marketdata

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mechaitanya/MarketPulse/services/render"
)

func TestQuoteDigitLeadingPlaceholders(t *testing.T) {
	quote := InstrumentQuote{
		High52w:   decimal.NewFromFloat(120.5),
		Low52w:    decimal.NewFromFloat(80.25),
		Change52w: decimal.NewFromFloat(12.75),
	}

	// Operator templates written against the digit-leading names must keep
	// matching.
	got := render.Render("52w range {_52wlow}-{_52whigh}, change {_52wchange}:{F2}", quote)
	if got != "52w range 80.25-120.5, change 12.75" {
		t.Fatalf("got %q", got)
	}
}

func TestQuoteTemplateFieldNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, f := range (InstrumentQuote{}).TemplateFields() {
		if seen[f.Name] {
			t.Errorf("duplicate field name %q", f.Name)
		}
		seen[f.Name] = true
	}
}
