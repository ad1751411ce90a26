package indicator

import "github.com/carteiralab/risk-engine/internal/model"

// DefaultProfile is one hand-calibrated indicator set applied when empirical
// computation is infeasible for an asset category. VaR95Pct is a percentage
// of the investment amount; StdDeviation and ExpectedReturn are annualized
// decimal fractions.
type DefaultProfile struct {
	VaR95Pct       float64
	Beta           float64
	SharpeRatio    float64
	StdDeviation   float64
	ExpectedReturn float64
}

// defaultProfiles maps asset categories to their calibrated indicator sets.
// Loaded once and never mutated at runtime.
var defaultProfiles = map[model.AssetCategory]DefaultProfile{
	model.CategoryTesouroDireto: {VaR95Pct: 1.0, Beta: 0.30, SharpeRatio: 1.20, StdDeviation: 0.020, ExpectedReturn: 0.110},
	model.CategoryCDB:           {VaR95Pct: 1.5, Beta: 0.40, SharpeRatio: 0.90, StdDeviation: 0.025, ExpectedReturn: 0.115},
	model.CategoryLCI:           {VaR95Pct: 1.2, Beta: 0.35, SharpeRatio: 1.05, StdDeviation: 0.022, ExpectedReturn: 0.112},
	model.CategoryLCA:           {VaR95Pct: 1.2, Beta: 0.35, SharpeRatio: 1.05, StdDeviation: 0.022, ExpectedReturn: 0.112},
	model.CategoryDebenture:     {VaR95Pct: 4.0, Beta: 0.80, SharpeRatio: 0.70, StdDeviation: 0.055, ExpectedReturn: 0.130},
	model.CategoryAcao:          {VaR95Pct: 9.0, Beta: 1.60, SharpeRatio: 0.45, StdDeviation: 0.240, ExpectedReturn: 0.140},
	model.CategoryFII:           {VaR95Pct: 6.0, Beta: 1.10, SharpeRatio: 0.55, StdDeviation: 0.160, ExpectedReturn: 0.120},
	model.CategoryETF:           {VaR95Pct: 7.5, Beta: 1.30, SharpeRatio: 0.52, StdDeviation: 0.190, ExpectedReturn: 0.125},
}

// DefaultProfileFor returns the calibrated indicator set for a category.
// Unknown categories alias to the CDB entry, the most conservative default
// outside public bonds.
func DefaultProfileFor(category model.AssetCategory) DefaultProfile {
	if p, ok := defaultProfiles[category]; ok {
		return p
	}
	return defaultProfiles[model.CategoryCDB]
}

// Apply scales the profile to a concrete investment, producing the
// indicators the calculator would have returned.
func (p DefaultProfile) Apply(investmentID string, amount float64) *model.RiskIndicators {
	return &model.RiskIndicators{
		VaR95:              p.VaR95Pct / 100 * amount,
		Beta:               p.Beta,
		SharpeRatio:        p.SharpeRatio,
		StdDeviation:       p.StdDeviation,
		ExpectedReturn:     p.ExpectedReturn,
		InvestmentAmount:   amount,
		SourceInvestmentID: investmentID,
		DataSource:         model.DataSourceDefault,
	}
}
