package kpi

import "github.com/shopspring/decimal"

type Status string

const (
	StatusGood     Status = "GOOD"
	StatusWarning  Status = "WARNING"
	StatusCritical Status = "CRITICAL"
)

var warningBand = decimal.RequireFromString("1.2")

// IndicatorStatus is GOOD up to the threshold, WARNING up to threshold*1.2,
// CRITICAL above. Both bounds are inclusive.
func IndicatorStatus(value, threshold float64) Status {
	v := decimal.NewFromFloat(value)
	t := decimal.NewFromFloat(threshold)
	switch {
	case v.LessThanOrEqual(t):
		return StatusGood
	case v.LessThanOrEqual(t.Mul(warningBand)):
		return StatusWarning
	default:
		return StatusCritical
	}
}

// RiskValues are the current readings of the five risk indicators.
type RiskValues struct {
	FirstPaymentDefault float64 `yaml:"first_payment_default" json:"first_payment_default"`
	RollRate            float64 `yaml:"roll_rate" json:"roll_rate"`
	ContactRate         float64 `yaml:"contact_rate" json:"contact_rate"`
	PTPKeepRate         float64 `yaml:"ptp_keep_rate" json:"ptp_keep_rate"`
	LegalSuccessRate    float64 `yaml:"legal_success_rate" json:"legal_success_rate"`
}

const (
	ThresholdFirstPaymentDefault = 3.0
	ThresholdRollRate            = 12.0
	ThresholdContactRate         = 70.0
	ThresholdPTPKeepRate         = 80.0
	ThresholdLegalSuccessRate    = 50.0
)

type RiskIndicator struct {
	Indicator string  `json:"indicator"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Status    Status  `json:"status"`
}

func RiskIndicators(v RiskValues) []RiskIndicator {
	out := []RiskIndicator{
		{Indicator: "First Payment Default Rate", Value: v.FirstPaymentDefault, Threshold: ThresholdFirstPaymentDefault},
		{Indicator: "Roll Rate (30-60)", Value: v.RollRate, Threshold: ThresholdRollRate},
		{Indicator: "Customer Contact Rate", Value: v.ContactRate, Threshold: ThresholdContactRate},
		{Indicator: "PTP Keep Rate", Value: v.PTPKeepRate, Threshold: ThresholdPTPKeepRate},
		{Indicator: "Legal Success Rate", Value: v.LegalSuccessRate, Threshold: ThresholdLegalSuccessRate},
	}
	for i := range out {
		out[i].Status = IndicatorStatus(out[i].Value, out[i].Threshold)
	}
	return out
}
