package fleet

import (
	"math"
	"strings"
	"time"
)

const (
	DefaultHourlyRate = 25.0
	DefaultCurrency   = "USD"
)

// Pricing turns a rental duration into a price. The elapsed time is billed
// exactly (no per-hour rounding) and the total is rounded half away from
// zero to whole cents.
type Pricing struct {
	HourlyRate float64
	Currency   string
}

// CurrencyCode is the ISO 4217 code stamped on every priced booking.
func (p Pricing) CurrencyCode() string {
	if c := strings.ToUpper(strings.TrimSpace(p.Currency)); c != "" {
		return c
	}
	return DefaultCurrency
}

func (p Pricing) Price(from, to time.Time) float64 {
	if !to.After(from) || p.HourlyRate <= 0 {
		return 0
	}
	return roundCents(to.Sub(from).Hours() * p.HourlyRate)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
