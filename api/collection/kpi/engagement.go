package kpi

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const PTPStatusKept = "KEPT"

type PTPSummary struct {
	TotalPTPs       int     `json:"total_ptps"`
	KeptPTPs        int     `json:"kept_ptps"`
	KeepRate        float64 `json:"keep_rate"`
	TotalPromised   float64 `json:"total_promised"`
	TotalReceived   float64 `json:"total_received"`
	FulfillmentRate float64 `json:"fulfillment_rate"`
}

// PTPAnalysis summarises promises to pay. Keep rate counts promises marked
// KEPT; fulfillment compares money received to money promised.
func PTPAnalysis(ptps []PTPRow) PTPSummary {
	promised, received := decimal.Zero, decimal.Zero
	kept := 0
	for _, p := range ptps {
		promised = promised.Add(decimal.NewFromFloat(p.PTPAmount))
		received = received.Add(decimal.NewFromFloat(p.AmountReceived))
		if strings.EqualFold(p.Status, PTPStatusKept) {
			kept++
		}
	}
	return PTPSummary{
		TotalPTPs:       len(ptps),
		KeptPTPs:        kept,
		KeepRate:        percent(decimal.NewFromInt(int64(kept)), decimal.NewFromInt(int64(len(ptps))), 1),
		TotalPromised:   promised.InexactFloat64(),
		TotalReceived:   received.InexactFloat64(),
		FulfillmentRate: percent(received, promised, 1),
	}
}

var successfulOutcomes = map[string]bool{
	"CONTACTED": true,
	"PTP":       true,
	"PAID":      true,
}

type ChannelStat struct {
	Channel     string  `json:"channel"`
	Attempts    int     `json:"attempts"`
	Successful  int     `json:"successful"`
	SuccessRate float64 `json:"success_rate"`
}

// ChannelEffectiveness groups interactions by type (CALL, SMS, VISIT, ...).
func ChannelEffectiveness(interactions []InteractionRow) []ChannelStat {
	byChannel := map[string]*ChannelStat{}
	for _, in := range interactions {
		ch := strings.ToUpper(strings.TrimSpace(in.InteractionType))
		if ch == "" {
			ch = "OTHER"
		}
		s, ok := byChannel[ch]
		if !ok {
			s = &ChannelStat{Channel: ch}
			byChannel[ch] = s
		}
		s.Attempts++
		if successfulOutcomes[strings.ToUpper(in.Outcome)] {
			s.Successful++
		}
	}
	out := make([]ChannelStat, 0, len(byChannel))
	for _, s := range byChannel {
		s.SuccessRate = percent(decimal.NewFromInt(int64(s.Successful)), decimal.NewFromInt(int64(s.Attempts)), 1)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Attempts != out[j].Attempts {
			return out[i].Attempts > out[j].Attempts
		}
		return out[i].Channel < out[j].Channel
	})
	return out
}
