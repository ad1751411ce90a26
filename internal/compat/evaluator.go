// Package compat compares a persisted risk score against an investor
// profile's score band, yielding a three-level verdict with a one-point
// leniency zone on each side.
package compat

import (
	"fmt"

	"github.com/carteiralab/risk-engine/internal/model"
)

// Verdict labels shown to the investor.
const (
	labelCompativel   = "Compatível"
	labelAtencao      = "Atenção"
	labelIncompativel = "Incompatível"
)

// Evaluate is a pure read-and-compare: no persistence side effect. A nil
// latest record signals the caller to run the indicator and scoring stages
// first; it is not an error.
func Evaluate(profile model.ProfileName, band model.InvestorProfileRange, latest *model.RiskScoreRecord) model.CompatibilityResult {
	if latest == nil {
		return model.CompatibilityResult{
			UserProfile:         profile,
			ProfileRange:        band,
			RequiresCalculation: true,
		}
	}

	result := model.CompatibilityResult{
		Score:        latest.Score,
		UserProfile:  profile,
		ProfileRange: band,
	}

	switch {
	case band.Contains(latest.Score):
		result.Status = model.CompatGreen
		result.Compatibility = labelCompativel
		result.Message = fmt.Sprintf("O investimento está dentro da faixa de risco do perfil %s.", profile)

	case latest.Score == band.MinScore-1:
		result.Status = model.CompatYellow
		result.Compatibility = labelAtencao
		result.Message = fmt.Sprintf("O investimento é levemente mais conservador que a faixa do perfil %s.", profile)

	case latest.Score == band.MaxScore+1:
		result.Status = model.CompatYellow
		result.Compatibility = labelAtencao
		result.Message = fmt.Sprintf("O investimento é levemente mais arrojado que a faixa do perfil %s.", profile)

	case latest.Score < band.MinScore:
		result.Status = model.CompatRed
		result.Compatibility = labelIncompativel
		result.Message = fmt.Sprintf("O investimento é mais conservador que a faixa do perfil %s.", profile)

	default:
		result.Status = model.CompatRed
		result.Compatibility = labelIncompativel
		result.Message = fmt.Sprintf("O investimento é mais arrojado que a faixa do perfil %s.", profile)
	}

	return result
}
