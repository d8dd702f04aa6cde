package quote

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// exactPlaces is enough decimal places to hold any finite float64 exactly.
const exactPlaces = 1074

var printer = message.NewPrinter(language.English)

// FormatUSD renders a premium as "$1,234.57".
func FormatUSD(v float64) string {
	rounded, neg := round(v, 2)
	s := printer.Sprintf("$%.2f", rounded)
	if neg {
		return "-" + s
	}
	return s
}

// FormatUGX renders a premium as "UGX 4,567,901".
func FormatUGX(v float64) string {
	return FormatAmount(SecondaryCurrency, v)
}

// FormatAmount renders a whole-unit amount labelled with code.
func FormatAmount(code string, v float64) string {
	rounded, neg := round(v, 0)
	s := printer.Sprintf("%.0f", rounded)
	if neg {
		s = "-" + s
	}
	return code + " " + s
}

// round rounds the exact binary value of v to places, ties to even, and
// returns the magnitude with its sign split off. A value that rounds to zero
// has no sign.
func round(v float64, places int32) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.Abs(v), v < 0
	}
	exact := decimal.NewFromBigRat(new(big.Rat).SetFloat64(v), exactPlaces)
	rounded := exact.RoundBank(places)
	return rounded.Abs().InexactFloat64(), rounded.Sign() < 0
}
