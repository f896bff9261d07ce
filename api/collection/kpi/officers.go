package kpi

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ActivityActive  = "ACTIVE"
	ActivityIdle    = "IDLE"
	ActivityOffline = "OFFLINE"
)

type OfficerActivity struct {
	OfficerID      string    `json:"officer_id"`
	OfficerName    string    `json:"officer_name"`
	Status         string    `json:"status"`
	Activity       string    `json:"activity"`
	DailyTarget    float64   `json:"daily_target"`
	DailyCollected float64   `json:"daily_collected"`
	Achievement    float64   `json:"achievement"`
	LastActive     time.Time `json:"last_active"`
}

// OfficerActivities builds the officer status board. An ACTIVE officer not
// seen within idleAfter is reported IDLE; any other status is OFFLINE.
func OfficerActivities(officers []OfficerRow, now time.Time, idleAfter time.Duration) []OfficerActivity {
	out := make([]OfficerActivity, 0, len(officers))
	for _, o := range officers {
		activity := ActivityOffline
		if strings.EqualFold(o.Status, ActivityActive) {
			activity = ActivityActive
			if o.LastActive.IsZero() || now.Sub(o.LastActive) > idleAfter {
				activity = ActivityIdle
			}
		}
		out = append(out, OfficerActivity{
			OfficerID:      o.OfficerID,
			OfficerName:    o.OfficerName,
			Status:         o.Status,
			Activity:       activity,
			DailyTarget:    o.DailyTarget,
			DailyCollected: o.DailyCollected,
			Achievement:    percent(decimal.NewFromFloat(o.DailyCollected), decimal.NewFromFloat(o.DailyTarget), 1),
			LastActive:     o.LastActive,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Achievement > out[j].Achievement })
	return out
}

type OfficerPerformance struct {
	OfficerID      string  `json:"officer_id"`
	OfficerName    string  `json:"officer_name"`
	OfficerType    string  `json:"officer_type"`
	TotalCollected float64 `json:"total_collected"`
	TotalCalls     int     `json:"total_calls"`
	TotalContacts  int     `json:"total_contacts"`
	ContactRate    float64 `json:"contact_rate"`
	TotalPTPs      int     `json:"total_ptps"`
	QualityScore   float64 `json:"quality_score"`
}

// OfficerPerformances folds per-day metrics into one line per officer,
// highest collection first. Quality score is the mean over the days seen.
func OfficerPerformances(metrics []OfficerMetricRow) []OfficerPerformance {
	type acc struct {
		perf      OfficerPerformance
		collected decimal.Decimal
		quality   decimal.Decimal
		days      int
	}
	byOfficer := map[string]*acc{}
	order := []string{}
	for _, m := range metrics {
		a, ok := byOfficer[m.OfficerID]
		if !ok {
			a = &acc{
				perf:      OfficerPerformance{OfficerID: m.OfficerID, OfficerName: m.OfficerName, OfficerType: m.OfficerType},
				collected: decimal.Zero,
				quality:   decimal.Zero,
			}
			byOfficer[m.OfficerID] = a
			order = append(order, m.OfficerID)
		}
		a.collected = a.collected.Add(decimal.NewFromFloat(m.AmountCollected))
		a.quality = a.quality.Add(decimal.NewFromFloat(m.QualityScore))
		a.perf.TotalCalls += m.CallsMade
		a.perf.TotalContacts += m.ContactsMade
		a.perf.TotalPTPs += m.PTPsObtained
		a.days++
	}
	out := make([]OfficerPerformance, 0, len(order))
	for _, id := range order {
		a := byOfficer[id]
		a.perf.TotalCollected = a.collected.InexactFloat64()
		a.perf.ContactRate = percent(decimal.NewFromInt(int64(a.perf.TotalContacts)), decimal.NewFromInt(int64(a.perf.TotalCalls)), 1)
		if a.days > 0 {
			a.perf.QualityScore = a.quality.Div(decimal.NewFromInt(int64(a.days))).Round(1).InexactFloat64()
		}
		out = append(out, a.perf)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalCollected > out[j].TotalCollected })
	return out
}

// percent returns part/whole*100 rounded to places, 0 when whole is zero.
func percent(part, whole decimal.Decimal, places int32) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(hundred).Round(places).InexactFloat64()
}
