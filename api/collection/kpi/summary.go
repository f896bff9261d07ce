package kpi

import (
	"sort"

	"github.com/shopspring/decimal"
)

const UnknownBranch = "UNKNOWN"

type BranchPerformance struct {
	BranchID       string  `json:"branch_id"`
	Outstanding    float64 `json:"outstanding"`
	Collected      float64 `json:"collected"`
	CollectionRate float64 `json:"collection_rate"`
}

type TeamPerformance struct {
	TeamID         string  `json:"team_id"`
	TeamName       string  `json:"team_name"`
	TotalDue       float64 `json:"total_due"`
	TotalCollected float64 `json:"total_collected"`
	CollectionRate float64 `json:"collection_rate"`
}

type rateAcc struct {
	due, collected, rate decimal.Decimal
	n                    int
}

func (a *rateAcc) add(s DailySummaryRow) {
	a.due = a.due.Add(decimal.NewFromFloat(s.TotalDue))
	a.collected = a.collected.Add(decimal.NewFromFloat(s.TotalCollected))
	a.rate = a.rate.Add(decimal.NewFromFloat(s.CollectionRate))
	a.n++
}

func (a *rateAcc) meanRate() float64 {
	if a.n == 0 {
		return 0
	}
	return a.rate.Div(decimal.NewFromInt(int64(a.n))).Round(2).InexactFloat64()
}

func newRateAcc() *rateAcc {
	return &rateAcc{due: decimal.Zero, collected: decimal.Zero, rate: decimal.Zero}
}

// BranchPerformances groups daily summaries by branch. The collection rate
// is the mean of the daily rates, not collected/due.
func BranchPerformances(summaries []DailySummaryRow) []BranchPerformance {
	byBranch := map[string]*rateAcc{}
	for _, s := range summaries {
		id := s.BranchID
		if id == "" {
			id = UnknownBranch
		}
		a, ok := byBranch[id]
		if !ok {
			a = newRateAcc()
			byBranch[id] = a
		}
		a.add(s)
	}
	out := make([]BranchPerformance, 0, len(byBranch))
	for id, a := range byBranch {
		out = append(out, BranchPerformance{
			BranchID:       id,
			Outstanding:    a.due.InexactFloat64(),
			Collected:      a.collected.InexactFloat64(),
			CollectionRate: a.meanRate(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BranchID < out[j].BranchID })
	return out
}

// TeamPerformances skips summaries without a team, matching the team
// comparison chart which only plots assigned teams.
func TeamPerformances(summaries []DailySummaryRow) []TeamPerformance {
	byTeam := map[string]*rateAcc{}
	names := map[string]string{}
	for _, s := range summaries {
		if s.TeamID == "" {
			continue
		}
		a, ok := byTeam[s.TeamID]
		if !ok {
			a = newRateAcc()
			byTeam[s.TeamID] = a
		}
		a.add(s)
		if s.TeamName != "" {
			names[s.TeamID] = s.TeamName
		}
	}
	out := make([]TeamPerformance, 0, len(byTeam))
	for id, a := range byTeam {
		name := names[id]
		if name == "" {
			name = "Team " + id
		}
		out = append(out, TeamPerformance{
			TeamID:         id,
			TeamName:       name,
			TotalDue:       a.due.InexactFloat64(),
			TotalCollected: a.collected.InexactFloat64(),
			CollectionRate: a.meanRate(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalCollected > out[j].TotalCollected })
	return out
}

func SumCollected(summaries []DailySummaryRow) float64 {
	sum := decimal.Zero
	for _, s := range summaries {
		sum = sum.Add(decimal.NewFromFloat(s.TotalCollected))
	}
	return sum.InexactFloat64()
}

// AverageRate is the mean collection rate, 0 for no rows.
func AverageRate(summaries []DailySummaryRow) float64 {
	a := newRateAcc()
	for _, s := range summaries {
		a.add(s)
	}
	return a.meanRate()
}
