// Package service wires the indicator calculator, score classifier and
// compatibility evaluator into the operations exposed by the HTTP API and
// the CLI commands.
package service

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carteiralab/risk-engine/internal/classifier"
	"github.com/carteiralab/risk-engine/internal/compat"
	"github.com/carteiralab/risk-engine/internal/config"
	"github.com/carteiralab/risk-engine/internal/indicator"
	"github.com/carteiralab/risk-engine/internal/model"
	"github.com/carteiralab/risk-engine/internal/risk"
	"github.com/carteiralab/risk-engine/internal/store"
)

// Service runs the full risk pipeline against the history store.
type Service struct {
	store      store.Store
	calculator *indicator.Calculator
	classifier *classifier.Classifier
	cfg        config.RiskConfig
}

// New assembles a Service. The classifier may have a nil reasoning client,
// in which case every score comes from the deterministic path.
func New(st store.Store, calc *indicator.Calculator, cls *classifier.Classifier, cfg config.RiskConfig) *Service {
	return &Service{store: st, calculator: calc, classifier: cls, cfg: cfg}
}

// ScoreRequest identifies one holding to score.
type ScoreRequest struct {
	InvestmentID string
	Category     model.AssetCategory
	AssetCode    string
	Amount       float64
}

// ScoreResult bundles the persisted outcome of one scoring run.
type ScoreResult struct {
	Indicators *model.RiskIndicators  `json:"indicators"`
	Score      *model.RiskScoreRecord `json:"score"`
}

// ComputeIndicators loads the holding's historical series, reduces it to
// risk indicators and persists them. A series that exists but is too short
// or degenerate resolves to the category default inside the calculator; an
// entirely absent series is terminal (risk.ErrInsufficientData), never
// silently defaulted.
func (s *Service) ComputeIndicators(ctx context.Context, req ScoreRequest) (*model.RiskIndicators, error) {
	if req.Amount <= 0 {
		return nil, eris.Errorf("service: investment amount must be positive, got %v", req.Amount)
	}

	points, err := s.store.AssetHistory(ctx, req.Category, req.AssetCode, s.cfg.MaxPoints)
	if err != nil {
		return nil, err
	}

	ind, err := s.calculator.Compute(points, req.Category, req.InvestmentID, req.Amount)
	if err != nil {
		return nil, eris.Wrapf(err, "service: indicators for %s", req.InvestmentID)
	}

	if err := s.store.SaveIndicators(ctx, ind); err != nil {
		return nil, err
	}
	return ind, nil
}

// ScoreInvestment runs the whole pipeline: indicators, classification and
// an appended score record. Rate-limit and payment failures from the
// reasoning service surface as terminal errors; any other classification
// failure already degraded to the deterministic path inside the classifier.
func (s *Service) ScoreInvestment(ctx context.Context, req ScoreRequest) (*ScoreResult, error) {
	ind, err := s.ComputeIndicators(ctx, req)
	if err != nil {
		return nil, err
	}

	ranges, err := s.store.ProfileRanges(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.classifier.Classify(ctx, *ind, ranges)
	if err != nil {
		return nil, err
	}
	rec.InvestmentID = req.InvestmentID
	rec.RiskIndicatorsID = ind.ID

	if err := s.store.SaveScore(ctx, rec); err != nil {
		return nil, err
	}

	zap.L().Info("investment scored",
		zap.String("investment_id", req.InvestmentID),
		zap.Int("score", rec.Score),
		zap.String("risk_category", string(rec.RiskCategory)),
		zap.String("score_source", string(rec.ScoreSource)),
		zap.String("data_source", string(ind.DataSource)))

	return &ScoreResult{Indicators: ind, Score: rec}, nil
}

// ScoreFromIndicators classifies a previously persisted indicator set and
// appends the resulting score record.
func (s *Service) ScoreFromIndicators(ctx context.Context, investmentID, riskIndicatorsID string) (*model.RiskScoreRecord, error) {
	ind, err := s.store.GetIndicators(ctx, riskIndicatorsID)
	if err != nil {
		return nil, err
	}
	if ind == nil {
		return nil, eris.Wrapf(risk.ErrIndicatorsNotFound, "service: indicators %s", riskIndicatorsID)
	}

	ranges, err := s.store.ProfileRanges(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.classifier.Classify(ctx, *ind, ranges)
	if err != nil {
		return nil, err
	}
	rec.InvestmentID = investmentID
	rec.RiskIndicatorsID = ind.ID

	if err := s.store.SaveScore(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// LatestScore returns the current score record for an investment, or
// risk.ErrIndicatorsNotFound when none was ever computed.
func (s *Service) LatestScore(ctx context.Context, investmentID string) (*model.RiskScoreRecord, error) {
	rec, err := s.store.LatestScore(ctx, investmentID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, eris.Wrapf(risk.ErrIndicatorsNotFound, "service: investment %s", investmentID)
	}
	return rec, nil
}

// EvaluateCompatibility compares the investment's current score against the
// user's declared profile band. A missing score is not an error: the result
// flags that a calculation is required first.
func (s *Service) EvaluateCompatibility(ctx context.Context, userID, investmentID string) (*model.CompatibilityResult, error) {
	profile, err := s.store.ProfileName(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == "" {
		return nil, eris.Wrapf(risk.ErrProfileNotFound, "service: user %s", userID)
	}

	band, err := s.store.ProfileRange(ctx, profile)
	if err != nil {
		return nil, err
	}
	if band == nil {
		return nil, eris.Wrapf(risk.ErrProfileRangeNotFound, "service: profile %s", profile)
	}

	latest, err := s.store.LatestScore(ctx, investmentID)
	if err != nil {
		return nil, err
	}

	result := compat.Evaluate(profile, *band, latest)
	return &result, nil
}
