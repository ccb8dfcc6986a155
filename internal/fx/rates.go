// Package fx converts and formats monetary amounts across currencies
// using a single USD-pivot rate table.
package fx

// Rates maps a currency code to its exchange rate relative to USD
// (units of the currency per one USD). The table is loaded as a whole
// from the account service; conversion is pure arithmetic against
// whatever table is currently held.
type Rates map[string]float64

// Rate returns the rate for code. Missing or non-positive entries
// default to 1.0 so an unrecognised currency degrades to USD instead of
// blocking display. The default is lenient by policy and silently
// imprecise; it must never be relied on for correctness.
func (r Rates) Rate(code string) float64 {
	if v, ok := r[code]; ok && v > 0 {
		return v
	}
	return 1.0
}

// Convert converts amount from one currency to another by pivoting
// through USD: usd = amount / rate(from); out = usd * rate(to).
// Identity conversions return the input unchanged with no floating-point
// round-trip.
func Convert(amount float64, from, to string, rates Rates) float64 {
	if from == to {
		return amount
	}
	usd := amount / rates.Rate(from)
	return usd * rates.Rate(to)
}

// ToUSD converts amount from the given currency into USD.
func ToUSD(amount float64, from string, rates Rates) float64 {
	return Convert(amount, from, "USD", rates)
}
