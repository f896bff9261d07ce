package kpi

import "github.com/shopspring/decimal"

// HealthScores are the five 0-100 sub-scores of the portfolio health score.
type HealthScores struct {
	CollectionEfficiency float64 `yaml:"collection_efficiency" json:"collection_efficiency"`
	RiskManagement       float64 `yaml:"risk_management" json:"risk_management"`
	CustomerContact      float64 `yaml:"customer_contact" json:"customer_contact"`
	DigitalAdoption      float64 `yaml:"digital_adoption" json:"digital_adoption"`
	Compliance           float64 `yaml:"compliance" json:"compliance"`
}

// Weights in percent; they sum to 100.
const (
	WeightCollectionEfficiency = 30
	WeightRiskManagement       = 25
	WeightCustomerContact      = 20
	WeightDigitalAdoption      = 15
	WeightCompliance           = 10
)

type HealthComponent struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Weight int     `json:"weight"`
}

type PortfolioHealthScore struct {
	Overall    int               `json:"overall"`
	Score      float64           `json:"score"`
	Components []HealthComponent `json:"components"`
}

// PortfolioHealth computes sum(score_i * weight_i) / 100. Overall is the
// score rounded to the nearest integer.
func PortfolioHealth(s HealthScores) PortfolioHealthScore {
	components := []HealthComponent{
		{Name: "Collection Efficiency", Score: s.CollectionEfficiency, Weight: WeightCollectionEfficiency},
		{Name: "Risk Management", Score: s.RiskManagement, Weight: WeightRiskManagement},
		{Name: "Customer Contact", Score: s.CustomerContact, Weight: WeightCustomerContact},
		{Name: "Digital Adoption", Score: s.DigitalAdoption, Weight: WeightDigitalAdoption},
		{Name: "Compliance", Score: s.Compliance, Weight: WeightCompliance},
	}
	sum := decimal.Zero
	for _, c := range components {
		sum = sum.Add(decimal.NewFromFloat(c.Score).Mul(decimal.NewFromInt(int64(c.Weight))))
	}
	score := sum.Div(hundred)
	return PortfolioHealthScore{
		Overall:    int(score.Round(0).IntPart()),
		Score:      score.Round(2).InexactFloat64(),
		Components: components,
	}
}
