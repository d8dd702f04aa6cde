package quote

// DefaultRate converts USD to UGX. It is a fixed demonstration rate; live
// rates are not fetched.
const DefaultRate = 3700.0

// SecondaryCurrency is the default ISO code of the converted premium.
const SecondaryCurrency = "UGX"

// ToSecondaryCurrency converts a USD amount at DefaultRate.
func ToSecondaryCurrency(usd float64) float64 {
	return usd * DefaultRate
}

// Converter multiplies USD amounts by a configured rate. Code labels the
// converted amount.
type Converter struct {
	Rate float64
	Code string
}

// NewConverter returns a Converter for rate and code, falling back to
// DefaultRate and SecondaryCurrency when they are unset.
func NewConverter(rate float64, code string) Converter {
	if rate <= 0 {
		rate = DefaultRate
	}
	if code == "" {
		code = SecondaryCurrency
	}
	return Converter{Rate: rate, Code: code}
}

// Convert applies the rate. No rounding is done here.
func (c Converter) Convert(usd float64) float64 {
	return usd * c.Rate
}
