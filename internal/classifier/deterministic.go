// Package classifier maps risk indicators to an integer score in [1,20].
// Two strategies exist: a weighted deterministic formula and a reasoning-
// assisted path validated against the same output shape. Reconciliation
// always normalizes to a single record shape.
package classifier

import (
	"fmt"
	"math"

	"github.com/carteiralab/risk-engine/internal/model"
)

// Sub-score weights of the four indicator components.
const (
	weightSharpe = 0.30
	weightBeta   = 0.35
	weightVaR    = 0.25
	weightStdDev = 0.10
)

// Score bounds enforced on every classification path.
const (
	minScore = 1
	maxScore = 20
)

// descBucket assigns a sub-score when the value is strictly above a floor;
// ascBucket when it is strictly below a ceiling. Both tables are immutable
// after init and consulted top-down, first match wins.
type descBucket struct {
	above float64
	sub   float64
}

type ascBucket struct {
	below float64
	sub   float64
}

var sharpeBuckets = []descBucket{
	{above: 2, sub: 3},
	{above: 1, sub: 9},
	{above: 0.5, sub: 14},
}

const sharpeDefaultSub = 18

var betaBuckets = []ascBucket{
	{below: 0.5, sub: 3},
	{below: 1, sub: 8},
	{below: 1.5, sub: 13},
}

const betaDefaultSub = 18

var varPctBuckets = []ascBucket{
	{below: 3, sub: 3},
	{below: 7, sub: 9},
	{below: 12, sub: 15},
}

const varPctDefaultSub = 19

var stdPctBuckets = []ascBucket{
	{below: 3, sub: 3},
	{below: 6, sub: 9},
	{below: 10, sub: 15},
}

const stdPctDefaultSub = 19

func descSub(v float64, buckets []descBucket, def float64) float64 {
	for _, b := range buckets {
		if v > b.above {
			return b.sub
		}
	}
	return def
}

func ascSub(v float64, buckets []ascBucket, def float64) float64 {
	for _, b := range buckets {
		if v < b.below {
			return b.sub
		}
	}
	return def
}

// Deterministic computes the weighted score from the four indicator
// sub-scores, rounded and clamped to [1,20].
func Deterministic(ind model.RiskIndicators) int {
	sharpeSub := descSub(ind.SharpeRatio, sharpeBuckets, sharpeDefaultSub)
	betaSub := ascSub(ind.Beta, betaBuckets, betaDefaultSub)
	varSub := ascSub(ind.VaRPct(), varPctBuckets, varPctDefaultSub)
	stdSub := ascSub(ind.StdDeviation*100, stdPctBuckets, stdPctDefaultSub)

	weighted := sharpeSub*weightSharpe + betaSub*weightBeta + varSub*weightVaR + stdSub*weightStdDev
	return clampScore(int(math.Round(weighted)))
}

func clampScore(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// deriveCategory maps a score to the coarse three-level classification.
func deriveCategory(score int) model.RiskCategory {
	switch {
	case score <= 8:
		return model.RiskBaixo
	case score <= 14:
		return model.RiskModerado
	default:
		return model.RiskAlto
	}
}

// deriveCompatibility computes the per-profile compatibility flags from the
// score alone.
func deriveCompatibility(score int) (conservador, moderado, arrojado bool) {
	return score <= 9, score >= 6 && score <= 15, score >= 11
}

// deterministicRecord synthesizes the shared record shape from the
// deterministic score plus derived fields.
func deterministicRecord(ind model.RiskIndicators) *model.RiskScoreRecord {
	score := Deterministic(ind)
	conservador, moderado, arrojado := deriveCompatibility(score)
	return &model.RiskScoreRecord{
		Score:                     score,
		Justification:             deterministicJustification(score, ind),
		RiskCategory:              deriveCategory(score),
		CompatibleWithConservador: conservador,
		CompatibleWithModerado:    moderado,
		CompatibleWithArrojado:    arrojado,
		ScoreSource:               model.ScoreSourceDeterministic,
	}
}

func deterministicJustification(score int, ind model.RiskIndicators) string {
	return fmt.Sprintf(
		"Pontuação %d obtida pela metodologia ponderada de quatro indicadores: índice de Sharpe %.2f, beta %.2f, VaR 95%% de %.2f%% do valor investido e volatilidade anualizada de %.2f%%.",
		score, ind.SharpeRatio, ind.Beta, ind.VaRPct(), ind.StdDeviation*100,
	)
}
