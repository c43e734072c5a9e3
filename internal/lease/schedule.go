// Package lease holds the date and amount rules of a lease: the weekly
// installment schedule and the renewal/expiry decision made by the daily
// sweeps. It performs no I/O.
package lease

import (
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

var (
	ErrEndBeforeStart = errors.New("lease end date is before start date")
	ErrNegativeAmount = errors.New("weekly amount must not be negative")
)

var sevenDays = decimal.NewFromInt(7)

// Installment is one billing period of a lease schedule. Dates are inclusive.
type Installment struct {
	Number      int             `json:"installment_no"`
	PeriodStart civil.Date      `json:"period_start"`
	PeriodEnd   civil.Date      `json:"period_end"`
	DueDate     civil.Date      `json:"due_date"`
	Days        int             `json:"days"`
	Amount      decimal.Decimal `json:"amount"`
}

// Weekday returns the day of the week of d.
func Weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

// daysToNextCycle counts the days from d to the next occurrence of the cycle
// weekday, in 1..7. A date on the cycle weekday is a full week away.
func daysToNextCycle(d civil.Date, cycleStart time.Weekday) int {
	n := (int(cycleStart) - int(Weekday(d)) + 7) % 7
	if n == 0 {
		return 7
	}
	return n
}

// Prorate returns weekly × days / 7 rounded half-up to cents. Seven days is
// exactly the weekly amount.
func Prorate(weekly decimal.Decimal, days int) decimal.Decimal {
	if days == 7 {
		return weekly
	}
	return weekly.Mul(decimal.NewFromInt(int64(days))).Div(sevenDays).Round(2)
}

// WeeklySchedule splits the inclusive range start..end into billing weeks
// that begin on cycleStart. The first and last periods are prorated when
// they are shorter than a week. Installments are numbered from firstNo.
func WeeklySchedule(start, end civil.Date, weekly decimal.Decimal, cycleStart time.Weekday, firstNo int) ([]Installment, error) {
	if end.Before(start) {
		return nil, ErrEndBeforeStart
	}
	if weekly.IsNegative() {
		return nil, ErrNegativeAmount
	}

	var out []Installment
	no := firstNo
	for cur := start; !cur.After(end); {
		periodEnd := cur.AddDays(daysToNextCycle(cur, cycleStart) - 1)
		if periodEnd.After(end) {
			periodEnd = end
		}
		days := periodEnd.DaysSince(cur) + 1

		out = append(out, Installment{
			Number:      no,
			PeriodStart: cur,
			PeriodEnd:   periodEnd,
			DueDate:     cur,
			Days:        days,
			Amount:      Prorate(weekly, days),
		})

		no++
		cur = periodEnd.AddDays(1)
	}

	return out, nil
}

// Total sums the amounts of a schedule.
func Total(items []Installment) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Amount)
	}
	return sum
}
