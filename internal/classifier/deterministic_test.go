package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carteiralab/risk-engine/internal/model"
)

func indicators(sharpe, beta, varPct, stdDev float64) model.RiskIndicators {
	// VaRPct derives from VaR95 over the amount; fix the amount at 10000.
	return model.RiskIndicators{
		SharpeRatio:      sharpe,
		Beta:             beta,
		VaR95:            varPct / 100 * 10000,
		StdDeviation:     stdDev,
		InvestmentAmount: 10000,
	}
}

func TestDeterministicScore(t *testing.T) {
	tests := []struct {
		name string
		ind  model.RiskIndicators
		want int
	}{
		{
			// All four components in their lowest bucket: 3 everywhere.
			name: "low risk treasury-like",
			ind:  indicators(2.5, 0.3, 1.0, 0.02),
			want: 3,
		},
		{
			// sharpe 0.95→14, beta 0.85→8, var 5%→9, std 8%→15: 10.75→11.
			name: "mid risk",
			ind:  indicators(0.95, 0.85, 5.0, 0.08),
			want: 11,
		},
		{
			// Everything in the worst bucket: 18*.30+18*.35+19*.25+19*.10=18.35→18.
			name: "high risk",
			ind:  indicators(0.1, 2.0, 15.0, 0.30),
			want: 18,
		},
		{
			// Boundary values are exclusive: sharpe exactly 1 is not >1.
			name: "sharpe boundary",
			ind:  indicators(1.0, 0.3, 1.0, 0.02),
			want: 6,
		},
		{
			// Extreme inputs saturate every bucket but the score stays
			// inside the bounds.
			name: "extreme inputs saturate",
			ind:  indicators(-5, 100, 50, 2),
			want: 18,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Deterministic(tt.ind))
		})
	}
}

func TestDeterministicScoreAlwaysInBounds(t *testing.T) {
	// Sweep adversarial combinations; every score must stay in [1,20].
	extremes := []float64{-100, -1, 0, 0.5, 1, 1.5, 2, 3, 7, 12, 100}
	for _, sharpe := range extremes {
		for _, beta := range extremes {
			ind := indicators(sharpe, beta, 8, 0.12)
			score := Deterministic(ind)
			assert.GreaterOrEqual(t, score, 1)
			assert.LessOrEqual(t, score, 20)
		}
	}
}

func TestDeriveCategory(t *testing.T) {
	assert.Equal(t, model.RiskBaixo, deriveCategory(1))
	assert.Equal(t, model.RiskBaixo, deriveCategory(8))
	assert.Equal(t, model.RiskModerado, deriveCategory(9))
	assert.Equal(t, model.RiskModerado, deriveCategory(14))
	assert.Equal(t, model.RiskAlto, deriveCategory(15))
	assert.Equal(t, model.RiskAlto, deriveCategory(20))
}

func TestDeriveCompatibility(t *testing.T) {
	tests := []struct {
		score                           int
		conservador, moderado, arrojado bool
	}{
		{1, true, false, false},
		{5, true, false, false},
		{6, true, true, false},
		{9, true, true, false},
		{10, false, true, false},
		{11, false, true, true},
		{15, false, true, true},
		{16, false, false, true},
		{20, false, false, true},
	}
	for _, tt := range tests {
		c, m, a := deriveCompatibility(tt.score)
		assert.Equal(t, tt.conservador, c, "score %d conservador", tt.score)
		assert.Equal(t, tt.moderado, m, "score %d moderado", tt.score)
		assert.Equal(t, tt.arrojado, a, "score %d arrojado", tt.score)
	}
}

func TestDeterministicRecordShape(t *testing.T) {
	rec := deterministicRecord(indicators(0.95, 0.85, 5.0, 0.08))

	assert.Equal(t, 11, rec.Score)
	assert.Equal(t, model.RiskModerado, rec.RiskCategory)
	assert.Equal(t, model.ScoreSourceDeterministic, rec.ScoreSource)
	assert.False(t, rec.CompatibleWithConservador)
	assert.True(t, rec.CompatibleWithModerado)
	assert.True(t, rec.CompatibleWithArrojado)
	assert.Contains(t, rec.Justification, "Pontuação 11")
}
