package usecase

import "github.com/shopspring/decimal"

// priceRow pairs a subscription duration in months with its canonical price
type priceRow struct {
	Months int
	Price  decimal.Decimal
}

// PricingService is the static pricing policy: an ordered, immutable table of
// supported durations and their canonical prices. Loaded once at startup, no
// hot reload.
type PricingService struct {
	currency string
	rows     []priceRow
}

func NewPricingService() *PricingService {
	return &PricingService{
		currency: "USD",
		rows: []priceRow{
			{Months: 1, Price: decimal.RequireFromString("9.99")},
			{Months: 3, Price: decimal.RequireFromString("27.99")},
			{Months: 6, Price: decimal.RequireFromString("53.99")},
			{Months: 12, Price: decimal.RequireFromString("99.99")},
		},
	}
}

// AllowedDurations returns the supported durations in table order
func (s *PricingService) AllowedDurations() []int {
	durations := make([]int, len(s.rows))
	for i, row := range s.rows {
		durations[i] = row.Months
	}
	return durations
}

// ExpectedAmount returns the canonical price for a duration, false when the
// duration is not offered.
func (s *PricingService) ExpectedAmount(months int) (decimal.Decimal, bool) {
	for _, row := range s.rows {
		if row.Months == months {
			return row.Price, true
		}
	}
	return decimal.Zero, false
}

// Currency returns the process-wide currency code
func (s *PricingService) Currency() string {
	return s.currency
}
