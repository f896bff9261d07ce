package collection

import (
	"context"
	"fmt"

	"KastleBackOffice/api/collection/kpi"

	"gopkg.in/yaml.v3"
)

// Scorer supplies the health sub-scores and risk indicator readings. There
// is no agreed formulation for either yet, so the production scorer returns
// configured figures.
type Scorer interface {
	HealthScores(ctx context.Context) (kpi.HealthScores, error)
	RiskValues(ctx context.Context) (kpi.RiskValues, error)
}

type StaticScorer struct {
	Health kpi.HealthScores `yaml:"health_scores"`
	Risk   kpi.RiskValues   `yaml:"risk_values"`
}

func DefaultScorer() StaticScorer {
	return StaticScorer{
		Health: kpi.HealthScores{
			CollectionEfficiency: 78,
			RiskManagement:       65,
			CustomerContact:      82,
			DigitalAdoption:      70,
			Compliance:           68,
		},
		Risk: kpi.RiskValues{
			FirstPaymentDefault: 2.3,
			RollRate:            15.2,
			ContactRate:         68.5,
			PTPKeepRate:         82.3,
			LegalSuccessRate:    45.8,
		},
	}
}

func (s StaticScorer) HealthScores(context.Context) (kpi.HealthScores, error) {
	return s.Health, nil
}

func (s StaticScorer) RiskValues(context.Context) (kpi.RiskValues, error) {
	return s.Risk, nil
}

// ScorerFromConfig overlays the health_scores and risk_values blocks of a
// services.yaml config onto the defaults. Keys that are absent keep their
// default value.
func ScorerFromConfig(cfg map[string]interface{}) (StaticScorer, error) {
	scorer := DefaultScorer()
	if cfg == nil {
		return scorer, nil
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return scorer, fmt.Errorf("encode scorer config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &scorer); err != nil {
		return DefaultScorer(), fmt.Errorf("decode scorer config: %w", err)
	}
	return scorer, nil
}
