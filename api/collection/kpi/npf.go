package kpi

import (
	"sort"

	"github.com/shopspring/decimal"
)

// NPFThresholdDPD is the days-past-due level above which a case is non-performing.
const NPFThresholdDPD = 90

var hundred = decimal.NewFromInt(100)

type NPFPoint struct {
	Month  string  `json:"month"` // YYYY-MM
	Label  string  `json:"label"` // Jan, Feb, ...
	Total  float64 `json:"total"`
	Amount float64 `json:"amount"`
	Rate   float64 `json:"rate"`
}

// NPFRate returns npf/total*100 rounded to 2 places, or 0 when total is zero.
func NPFRate(npf, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return npf.Div(total).Mul(hundred).Round(2)
}

// MonthlyNPF aggregates the given rows as a single period, ignoring dates.
func MonthlyNPF(cases []CaseRow) NPFPoint {
	total, npf := decimal.Zero, decimal.Zero
	for _, c := range cases {
		amt := decimal.NewFromFloat(c.TotalOutstanding)
		total = total.Add(amt)
		if c.DaysPastDue > NPFThresholdDPD {
			npf = npf.Add(amt)
		}
	}
	return NPFPoint{
		Total:  total.InexactFloat64(),
		Amount: npf.InexactFloat64(),
		Rate:   NPFRate(npf, total).InexactFloat64(),
	}
}

// NPFTrend groups cases by the calendar month of CreatedAt and returns one
// point per month in chronological order.
func NPFTrend(cases []CaseRow) []NPFPoint {
	byMonth := map[string][]CaseRow{}
	labels := map[string]string{}
	for _, c := range cases {
		key := c.CreatedAt.Format("2006-01")
		byMonth[key] = append(byMonth[key], c)
		labels[key] = c.CreatedAt.Format("Jan")
	}
	keys := make([]string, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]NPFPoint, 0, len(keys))
	for _, k := range keys {
		p := MonthlyNPF(byMonth[k])
		p.Month = k
		p.Label = labels[k]
		out = append(out, p)
	}
	return out
}
