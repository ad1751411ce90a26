package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carteiralab/risk-engine/internal/config"
	"github.com/carteiralab/risk-engine/internal/model"
	"github.com/carteiralab/risk-engine/internal/risk"
)

func testConfig() config.RiskConfig {
	return config.RiskConfig{
		PeriodsPerYear:   252,
		MarketVolatility: 0.15,
		RiskFreeRate:     0.105,
		VaRZScore:        1.645,
		MaxPoints:        30,
		MinReturns:       5,
	}
}

func ratePoints(values ...float64) []model.AssetHistoricalPoint {
	base := time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC)
	points := make([]model.AssetHistoricalPoint, len(values))
	for i, v := range values {
		v := v
		points[i] = model.AssetHistoricalPoint{
			ReferenceDate:  base.AddDate(0, 0, -i),
			IndicativeRate: &v,
		}
	}
	return points
}

func pricePoints(values ...float64) []model.AssetHistoricalPoint {
	base := time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC)
	points := make([]model.AssetHistoricalPoint, len(values))
	for i, v := range values {
		v := v
		points[i] = model.AssetHistoricalPoint{
			ReferenceDate: base.AddDate(0, 0, -i),
			UnitPrice:     &v,
		}
	}
	return points
}

func TestComputeFromSixPointSeries(t *testing.T) {
	cfg := testConfig()
	calc := New(cfg)

	values := []float64{13.70, 13.60, 13.65, 13.50, 13.55, 13.45}
	ind, err := calc.Compute(ratePoints(values...), model.CategoryCDB, "inv-1", 10000)
	require.NoError(t, err)

	// Replicate the expected statistics by hand.
	var returns []float64
	for i := 0; i+1 < len(values); i++ {
		returns = append(returns, (values[i]-values[i+1])/values[i+1])
	}
	require.Len(t, returns, 5)

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))
	var sq float64
	for _, r := range returns {
		sq += (r - mean) * (r - mean)
	}
	std := math.Sqrt(sq / float64(len(returns)))
	annStd := std * math.Sqrt(252)
	annRet := mean * 252

	assert.InDelta(t, math.Abs(mean-1.645*std)*10000, ind.VaR95, 1e-9)
	assert.InDelta(t, annStd/0.15, ind.Beta, 1e-9)
	assert.InDelta(t, (annRet-0.105)/annStd, ind.SharpeRatio, 1e-9)
	assert.InDelta(t, annStd, ind.StdDeviation, 1e-9)
	assert.InDelta(t, annRet, ind.ExpectedReturn, 1e-9)
	assert.Equal(t, model.DataSourceHistorical, ind.DataSource)
	assert.Equal(t, "inv-1", ind.SourceInvestmentID)
	assert.Equal(t, 10000.0, ind.InvestmentAmount)
}

func TestComputeEmptySeries(t *testing.T) {
	calc := New(testConfig())

	_, err := calc.Compute(nil, model.CategoryCDB, "inv-1", 1000)
	require.Error(t, err)
	assert.ErrorIs(t, err, risk.ErrInsufficientData)
}

func TestComputeShortSeriesUsesDefault(t *testing.T) {
	calc := New(testConfig())

	// Three points yield two returns, below the five-return minimum.
	ind, err := calc.Compute(ratePoints(13.70, 13.60, 13.65), model.CategoryCDB, "inv-1", 2000)
	require.NoError(t, err)

	expected := DefaultProfileFor(model.CategoryCDB).Apply("inv-1", 2000)
	assert.Equal(t, expected, ind)
	assert.Equal(t, model.DataSourceDefault, ind.DataSource)
}

func TestComputeDegenerateSeriesUsesDefault(t *testing.T) {
	calc := New(testConfig())

	// Constant prices: every return is zero, volatility is zero.
	ind, err := calc.Compute(pricePoints(100, 100, 100, 100, 100, 100, 100), model.CategoryAcao, "inv-1", 5000)
	require.NoError(t, err)
	assert.Equal(t, model.DataSourceDefault, ind.DataSource)
	assert.Equal(t, DefaultProfileFor(model.CategoryAcao).Beta, ind.Beta)
}

func TestComputePooledFundUsesDefault(t *testing.T) {
	calc := New(testConfig())

	ind, err := calc.Compute(pricePoints(10.1, 10.0, 9.9, 10.2, 10.0, 9.8), model.CategoryFundo, "inv-1", 3000)
	require.NoError(t, err)
	assert.Equal(t, model.DataSourceDefault, ind.DataSource)
}

func TestComputeSkipsNonPositivePairs(t *testing.T) {
	calc := New(testConfig())

	// Zeros poison the pairs on both sides; only three usable returns
	// remain, so the default profile applies.
	ind, err := calc.Compute(ratePoints(13.70, 0, 13.65, 13.50, 0, 13.45, 13.40, 13.35), model.CategoryCDB, "inv-1", 1000)
	require.NoError(t, err)
	assert.Equal(t, model.DataSourceDefault, ind.DataSource)
}

func TestComputeTruncatesToMaxPoints(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPoints = 6
	calc := New(cfg)

	// Values beyond the cap would produce wild returns; they must be ignored.
	values := []float64{13.70, 13.60, 13.65, 13.50, 13.55, 13.45, 1000, 0.001}
	ind, err := calc.Compute(ratePoints(values...), model.CategoryCDB, "inv-1", 1000)
	require.NoError(t, err)

	capped, err := calc.Compute(ratePoints(values[:6]...), model.CategoryCDB, "inv-1", 1000)
	require.NoError(t, err)
	assert.Equal(t, capped, ind)
}

func TestDefaultProfileForUnknownCategory(t *testing.T) {
	p := DefaultProfileFor(model.AssetCategory("cripto"))
	assert.Equal(t, defaultProfiles[model.CategoryCDB], p)
}

func TestDefaultProfileApplyScalesVaR(t *testing.T) {
	ind := DefaultProfileFor(model.CategoryAcao).Apply("inv-9", 20000)
	assert.InDelta(t, 1800, ind.VaR95, 1e-9, "9% of 20000")
	assert.InDelta(t, 9.0, ind.VaRPct(), 1e-9)
}
