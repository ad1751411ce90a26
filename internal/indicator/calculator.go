// Package indicator reduces a holding's historical series into the five
// statistical risk indicators consumed by the score classifier.
package indicator

import (
	"math"

	"go.uber.org/zap"

	"github.com/carteiralab/risk-engine/internal/config"
	"github.com/carteiralab/risk-engine/internal/model"
	"github.com/carteiralab/risk-engine/internal/risk"
)

// Calculator computes risk indicators from a time-ordered series of
// reference values, falling back to the default profile table when the
// series is too short or degenerate.
type Calculator struct {
	cfg config.RiskConfig
}

// New creates a Calculator with the given reference constants.
func New(cfg config.RiskConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Compute produces risk indicators for a single holding. Points must be
// ordered most recent first; at most cfg.MaxPoints are consumed. The result
// is not persisted here; persistence is the caller's responsibility.
//
// An empty series is a terminal condition (risk.ErrInsufficientData).
// A series that exists but yields fewer than cfg.MinReturns usable return
// pairs, or whose volatility is zero, resolves to the category's default
// profile instead.
func (c *Calculator) Compute(points []model.AssetHistoricalPoint, category model.AssetCategory, investmentID string, amount float64) (*model.RiskIndicators, error) {
	if len(points) == 0 {
		return nil, risk.ErrInsufficientData
	}
	if c.cfg.MaxPoints > 0 && len(points) > c.cfg.MaxPoints {
		points = points[:c.cfg.MaxPoints]
	}

	// Fund NAV series are not supported for return extraction yet.
	if category.IsPooledFund() {
		zap.L().Debug("indicator: pooled fund, using default profile",
			zap.String("investment_id", investmentID),
			zap.String("category", string(category)),
		)
		return c.applyDefault(category, investmentID, amount), nil
	}

	returns := extractReturns(points, category)
	if len(returns) < c.cfg.MinReturns {
		zap.L().Info("indicator: series too short, using default profile",
			zap.String("investment_id", investmentID),
			zap.String("category", string(category)),
			zap.Int("usable_returns", len(returns)),
			zap.Int("min_returns", c.cfg.MinReturns),
		)
		return c.applyDefault(category, investmentID, amount), nil
	}

	mean := meanOf(returns)
	variance := populationVariance(returns, mean)
	std := math.Sqrt(variance)

	periods := float64(c.cfg.PeriodsPerYear)
	annualizedReturn := mean * periods
	annualizedStd := std * math.Sqrt(periods)

	// Zero volatility leaves Sharpe undefined; resolved by the default
	// profile rather than emitting Inf/NaN.
	if annualizedStd == 0 {
		zap.L().Warn("indicator: degenerate series, using default profile",
			zap.String("investment_id", investmentID),
			zap.String("category", string(category)),
			zap.Error(risk.ErrDegenerateSeries),
		)
		return c.applyDefault(category, investmentID, amount), nil
	}

	var95 := math.Abs(mean-c.cfg.VaRZScore*std) * amount
	beta := annualizedStd / c.cfg.MarketVolatility
	sharpe := (annualizedReturn - c.cfg.RiskFreeRate) / annualizedStd

	return &model.RiskIndicators{
		VaR95:              var95,
		Beta:               beta,
		SharpeRatio:        sharpe,
		StdDeviation:       annualizedStd,
		ExpectedReturn:     annualizedReturn,
		InvestmentAmount:   amount,
		SourceInvestmentID: investmentID,
		DataSource:         model.DataSourceHistorical,
	}, nil
}

func (c *Calculator) applyDefault(category model.AssetCategory, investmentID string, amount float64) *model.RiskIndicators {
	return DefaultProfileFor(category).Apply(investmentID, amount)
}

// extractReturns computes simple returns (current-previous)/previous for
// each adjacent pair in a most-recent-first series, skipping pairs where
// either value is non-positive.
func extractReturns(points []model.AssetHistoricalPoint, category model.AssetCategory) []float64 {
	var returns []float64
	for i := 0; i+1 < len(points); i++ {
		current := points[i].Value(category)
		previous := points[i+1].Value(category)
		if current <= 0 || previous <= 0 {
			continue
		}
		returns = append(returns, (current-previous)/previous)
	}
	return returns
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationVariance divides by N, not N-1; the series is treated as the
// whole population of observed periods.
func populationVariance(values []float64, mean float64) float64 {
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}
