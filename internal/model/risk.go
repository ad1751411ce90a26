// Package model defines the typed records exchanged between the risk
// pipeline stages and persisted by the history store.
package model

import "time"

// AssetCategory identifies the instrument class of a holding. The category
// determines how per-period values are extracted from the historical series
// and which default indicator profile applies when the series is unusable.
type AssetCategory string

const (
	CategoryTesouroDireto AssetCategory = "tesouro_direto"
	CategoryCDB           AssetCategory = "cdb"
	CategoryLCI           AssetCategory = "lci"
	CategoryLCA           AssetCategory = "lca"
	CategoryDebenture     AssetCategory = "debenture"
	CategoryAcao          AssetCategory = "acao"
	CategoryFII           AssetCategory = "fii"
	CategoryETF           AssetCategory = "etf"
	CategoryFundo         AssetCategory = "fundo"
)

// IsPooledFund reports whether the category denotes a pooled-fund vehicle
// whose NAV series is not yet supported for return extraction.
func (c AssetCategory) IsPooledFund() bool {
	return c == CategoryFundo
}

// UsesIndicativeRate reports whether the per-period value for this category
// is an indicative rate rather than a unit price.
func (c AssetCategory) UsesIndicativeRate() bool {
	switch c {
	case CategoryTesouroDireto, CategoryCDB, CategoryLCI, CategoryLCA, CategoryDebenture:
		return true
	}
	return false
}

// RiskCategory is the coarse three-level classification of a score.
type RiskCategory string

const (
	RiskBaixo    RiskCategory = "Baixo"
	RiskModerado RiskCategory = "Moderado"
	RiskAlto     RiskCategory = "Alto"
)

// ProfileName identifies a declared investor risk profile.
type ProfileName string

const (
	ProfileConservador ProfileName = "Conservador"
	ProfileModerado    ProfileName = "Moderado"
	ProfileArrojado    ProfileName = "Arrojado"
)

// ScoreSource tags which classification path produced a score record.
type ScoreSource string

const (
	ScoreSourceDeterministic ScoreSource = "deterministic"
	ScoreSourceAssisted      ScoreSource = "assisted"
)

// DataSource tags how a set of risk indicators was produced.
type DataSource string

const (
	DataSourceHistorical DataSource = "historical_series"
	DataSourceDefault    DataSource = "default_profile"
)

// AssetHistoricalPoint is one externally ingested observation of an asset,
// ordered most recent first when supplied to the calculator. Exactly one of
// IndicativeRate or UnitPrice is populated depending on the instrument.
type AssetHistoricalPoint struct {
	ReferenceDate  time.Time `json:"reference_date"`
	IndicativeRate *float64  `json:"indicative_rate,omitempty"`
	UnitPrice      *float64  `json:"unit_price,omitempty"`
}

// Value returns the per-period value for the given category, or 0 when the
// relevant field is absent.
func (p AssetHistoricalPoint) Value(category AssetCategory) float64 {
	if category.UsesIndicativeRate() {
		if p.IndicativeRate != nil {
			return *p.IndicativeRate
		}
		return 0
	}
	if p.UnitPrice != nil {
		return *p.UnitPrice
	}
	return 0
}

// RiskIndicators is the statistical reduction of a holding's historical
// series. Created once per calculator invocation and never mutated.
// VaR95 is expressed in the investment's currency; StdDeviation and
// ExpectedReturn are annualized decimal fractions.
type RiskIndicators struct {
	ID                 string     `json:"id"`
	VaR95              float64    `json:"var_95"`
	Beta               float64    `json:"beta"`
	SharpeRatio        float64    `json:"sharpe_ratio"`
	StdDeviation       float64    `json:"std_deviation"`
	ExpectedReturn     float64    `json:"expected_return"`
	InvestmentAmount   float64    `json:"investment_amount"`
	SourceInvestmentID string     `json:"source_investment_id"`
	DataSource         DataSource `json:"data_source"`
	CreatedAt          time.Time  `json:"created_at"`
}

// VaRPct returns VaR95 as a percentage of the investment amount.
// Returns 0 when the amount is not positive.
func (r RiskIndicators) VaRPct() float64 {
	if r.InvestmentAmount <= 0 {
		return 0
	}
	return r.VaR95 / r.InvestmentAmount * 100
}

// RiskScoreRecord is one append-only scoring outcome for an investment.
// Multiple records per investment coexist as history; the current score is
// the record with the latest CreatedAt.
type RiskScoreRecord struct {
	ID                        string       `json:"id"`
	InvestmentID              string       `json:"investment_id"`
	RiskIndicatorsID          string       `json:"risk_indicators_id"`
	Score                     int          `json:"score"`
	Justification             string       `json:"justification"`
	RiskCategory              RiskCategory `json:"risk_category"`
	CompatibleWithConservador bool         `json:"compatible_with_conservador"`
	CompatibleWithModerado    bool         `json:"compatible_with_moderado"`
	CompatibleWithArrojado    bool         `json:"compatible_with_arrojado"`
	ScoreSource               ScoreSource  `json:"score_source"`
	CreatedAt                 time.Time    `json:"created_at"`
}

// InvestorProfileRange is the closed integer score band a profile maps to.
// Externally configured, read-only reference data.
type InvestorProfileRange struct {
	ProfileName ProfileName `json:"profile_name"`
	MinScore    int         `json:"min_score"`
	MaxScore    int         `json:"max_score"`
}

// Contains reports whether the score falls inside the band.
func (r InvestorProfileRange) Contains(score int) bool {
	return score >= r.MinScore && score <= r.MaxScore
}

// UserProfile links a user identity to its declared profile name.
type UserProfile struct {
	UserID      string      `json:"user_id"`
	ProfileName ProfileName `json:"profile_name"`
}

// CompatStatus is the three-level compatibility verdict.
type CompatStatus string

const (
	CompatGreen  CompatStatus = "green"
	CompatYellow CompatStatus = "yellow"
	CompatRed    CompatStatus = "red"
)

// CompatibilityResult is the outcome of comparing an investment's current
// score against the owner's profile band. When RequiresCalculation is set
// no score exists yet and the remaining fields besides UserProfile and
// ProfileRange are zero.
type CompatibilityResult struct {
	Status              CompatStatus         `json:"status,omitempty"`
	Score               int                  `json:"score,omitempty"`
	UserProfile         ProfileName          `json:"user_profile"`
	ProfileRange        InvestorProfileRange `json:"profile_range"`
	Message             string               `json:"message,omitempty"`
	Compatibility       string               `json:"compatibility,omitempty"`
	RequiresCalculation bool                 `json:"requires_calculation,omitempty"`
}
