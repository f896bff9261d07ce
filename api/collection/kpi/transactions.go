package kpi

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TxnStatusCompleted = "COMPLETED"
	TxnStatusPending   = "PENDING"
)

// TransactionRow is a kastle_banking.transactions row with the owning
// customer's name resolved through the account.
type TransactionRow struct {
	TransactionID        int64     `json:"transaction_id"`
	TransactionReference string    `json:"transaction_reference"`
	AccountNumber        string    `json:"account_number"`
	CustomerFirstName    string    `json:"customer_first_name"`
	CustomerLastName     string    `json:"customer_last_name"`
	Amount               float64   `json:"amount"`
	TransactionDatetime  time.Time `json:"transaction_datetime"`
	TransactionType      string    `json:"transaction_type"`
	TransactionStatus    string    `json:"transaction_status"`
	Description          string    `json:"description"`
}

// TransactionCounts are table-wide totals, computed by the store.
type TransactionCounts struct {
	Total           int
	Completed       int
	Pending         int
	CompletedVolume float64
}

type HourCount struct {
	Hour         int    `json:"hour"`
	Label        string `json:"label"`
	Transactions int    `json:"transactions"`
}

type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type TransactionStats struct {
	TotalTransactions   int         `json:"total_transactions"`
	TotalVolume         float64     `json:"total_volume"`
	SuccessRate         float64     `json:"success_rate"`
	PendingTransactions int         `json:"pending_transactions"`
	DailyAverage        int         `json:"daily_average"`
	PeakHour            string      `json:"peak_hour"`
	HourlyDistribution  []HourCount `json:"hourly_distribution"`
	TypeDistribution    []TypeCount `json:"type_distribution"`
}

// Stats combines the table totals with the completed rows of the last 24
// hours. Daily average assumes a 30 day window.
func Stats(c TransactionCounts, recent []TransactionRow, now time.Time) TransactionStats {
	hours := HourlyDistribution(recent, now)
	return TransactionStats{
		TotalTransactions:   c.Total,
		TotalVolume:         c.CompletedVolume,
		SuccessRate:         percent(decimal.NewFromInt(int64(c.Completed)), decimal.NewFromInt(int64(c.Total)), 1),
		PendingTransactions: c.Pending,
		DailyAverage:        int(decimal.NewFromInt(int64(c.Total)).Div(decimal.NewFromInt(30)).Round(0).IntPart()),
		PeakHour:            PeakHour(hours),
		HourlyDistribution:  hours,
		TypeDistribution:    TypeDistribution(recent),
	}
}

// HourlyDistribution counts completed rows in (now-24h, now] by hour of day
// in now's location. All 24 slots are always present.
func HourlyDistribution(rows []TransactionRow, now time.Time) []HourCount {
	out := make([]HourCount, 24)
	for h := range out {
		out[h] = HourCount{Hour: h, Label: fmt.Sprintf("%d:00", h)}
	}
	from := now.Add(-24 * time.Hour)
	for _, r := range rows {
		if !strings.EqualFold(r.TransactionStatus, TxnStatusCompleted) {
			continue
		}
		t := r.TransactionDatetime.In(now.Location())
		if !t.After(from) || t.After(now) {
			continue
		}
		out[t.Hour()].Transactions++
	}
	return out
}

// PeakHour is the earliest hour with the highest count, "0:00" when empty.
func PeakHour(hours []HourCount) string {
	best := HourCount{Label: "0:00"}
	for _, h := range hours {
		if h.Transactions > best.Transactions {
			best = h
		}
	}
	return best.Label
}

// TypeDistribution counts completed rows per transaction type.
func TypeDistribution(rows []TransactionRow) []TypeCount {
	counts := map[string]int{}
	for _, r := range rows {
		if !strings.EqualFold(r.TransactionStatus, TxnStatusCompleted) {
			continue
		}
		t := strings.ToUpper(strings.TrimSpace(r.TransactionType))
		if t == "" {
			t = "OTHER"
		}
		counts[t]++
	}
	out := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

type TrendPoint struct {
	Date         string  `json:"date"`
	Label        string  `json:"label"`
	Transactions int     `json:"transactions"`
	Volume       float64 `json:"volume"`
}

// TransactionTrend buckets completed rows into the last days calendar days
// ending today. Volume is reported in thousands.
func TransactionTrend(rows []TransactionRow, now time.Time, days int) []TrendPoint {
	if days <= 0 {
		return []TrendPoint{}
	}
	start := Since(PeriodDaily, now).AddDate(0, 0, -(days - 1))
	type acc struct {
		n      int
		volume decimal.Decimal
	}
	byDay := make([]acc, days)
	index := make(map[string]int, days)
	for i := range byDay {
		byDay[i].volume = decimal.Zero
		index[start.AddDate(0, 0, i).Format("2006-01-02")] = i
	}
	for _, r := range rows {
		if !strings.EqualFold(r.TransactionStatus, TxnStatusCompleted) {
			continue
		}
		idx, ok := index[r.TransactionDatetime.In(now.Location()).Format("2006-01-02")]
		if !ok {
			continue
		}
		byDay[idx].n++
		byDay[idx].volume = byDay[idx].volume.Add(decimal.NewFromFloat(r.Amount))
	}
	thousand := decimal.NewFromInt(1000)
	out := make([]TrendPoint, 0, days)
	for i, a := range byDay {
		d := start.AddDate(0, 0, i)
		out = append(out, TrendPoint{
			Date:         d.Format("2006-01-02"),
			Label:        d.Format("Mon"),
			Transactions: a.n,
			Volume:       a.volume.Div(thousand).InexactFloat64(),
		})
	}
	return out
}
