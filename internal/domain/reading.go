package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reading is a water meter measurement for one customer on one date.
type Reading struct {
	ID              string              `json:"id"`
	CustomerID      string              `json:"customerId"`
	Date            time.Time           `json:"date"`
	ConsumptionM3   decimal.NullDecimal `json:"consumptionM3"`
	PreviousReading decimal.NullDecimal `json:"previousReading"`
	CurrentReading  decimal.NullDecimal `json:"currentReading"`
	Notes           string              `json:"notes,omitempty"`
	RegisteredAt    time.Time           `json:"registeredAt"`
}

// DeriveConsumption returns current - previous. ok is false when either value
// is missing or the result would be negative.
func DeriveConsumption(previous, current decimal.NullDecimal) (decimal.Decimal, bool) {
	if !previous.Valid || !current.Valid {
		return decimal.Decimal{}, false
	}
	if current.Decimal.LessThan(previous.Decimal) {
		return decimal.Decimal{}, false
	}
	return current.Decimal.Sub(previous.Decimal), true
}

// NormalizeReading validates r and fills the derived consumption. It is used
// for both create and edit so the two paths agree.
func NormalizeReading(r Reading) (Reading, error) {
	var errs ValidationErrors

	if r.CustomerID == "" {
		errs.Add("customerId", "customer is required")
	}
	if r.Date.IsZero() {
		errs.Add("date", "date is required")
	}

	r.PreviousReading = round2(r.PreviousReading)
	r.CurrentReading = round2(r.CurrentReading)
	r.ConsumptionM3 = round2(r.ConsumptionM3)

	if r.PreviousReading.Valid && r.PreviousReading.Decimal.IsNegative() {
		errs.Add("previousReading", "previous reading cannot be negative")
	}
	if r.CurrentReading.Valid && r.CurrentReading.Decimal.IsNegative() {
		errs.Add("currentReading", "current reading cannot be negative")
	}

	if r.PreviousReading.Valid && r.CurrentReading.Valid {
		derived, ok := DeriveConsumption(r.PreviousReading, r.CurrentReading)
		switch {
		case !ok:
			errs.Add("currentReading", "current reading cannot be lower than previous reading")
		case r.ConsumptionM3.Valid && !r.ConsumptionM3.Decimal.Equal(derived):
			errs.Add("consumptionM3", "consumption does not match the meter readings")
		default:
			r.ConsumptionM3 = decimal.NewNullDecimal(derived)
		}
	} else if r.ConsumptionM3.Valid && r.ConsumptionM3.Decimal.IsNegative() {
		errs.Add("consumptionM3", "consumption cannot be negative")
	}

	if err := errs.Err(); err != nil {
		return Reading{}, err
	}
	r.Date = truncateDate(r.Date)
	return r, nil
}

func round2(d decimal.NullDecimal) decimal.NullDecimal {
	if !d.Valid {
		return d
	}
	return decimal.NewNullDecimal(d.Decimal.Round(2))
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
