package classifier

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carteiralab/risk-engine/internal/config"
	"github.com/carteiralab/risk-engine/internal/model"
	"github.com/carteiralab/risk-engine/internal/risk"
	"github.com/carteiralab/risk-engine/pkg/reasoning"
)

// Classifier produces one RiskScoreRecord per invocation, attempting the
// reasoning-assisted strategy first and reconciling against the
// deterministic formula. The returned record carries score, justification,
// category, compatibility flags and source; identifiers and persistence
// belong to the caller.
type Classifier struct {
	client  reasoning.Client
	cfg     config.ReasoningConfig
	timeout time.Duration
}

// New creates a Classifier. A nil client disables the assisted path and
// every classification resolves deterministically.
func New(client reasoning.Client, cfg config.ReasoningConfig) *Classifier {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout < minTimeout {
		timeout = minTimeout
	}
	return &Classifier{client: client, cfg: cfg, timeout: timeout}
}

// Classify applies the mandatory reconciliation rule: attempt the assisted
// strategy; on rate-limit or payment-required surface the terminal error
// before any fallback decision; on every other failure (transport, timeout,
// malformed reply, out-of-range score) discard the reply entirely and
// substitute the deterministic result with derived fields. The fallback is
// logged but never blocks the response.
func (c *Classifier) Classify(ctx context.Context, ind model.RiskIndicators, ranges []model.InvestorProfileRange) (*model.RiskScoreRecord, error) {
	if c.client == nil {
		return deterministicRecord(ind), nil
	}

	record, err := c.assisted(ctx, ind, ranges)
	if err == nil {
		return record, nil
	}

	if eris.Is(err, reasoning.ErrRateLimited) {
		return nil, risk.ErrReasoningRateLimited
	}
	if eris.Is(err, reasoning.ErrPaymentRequired) {
		return nil, risk.ErrReasoningPaymentRequired
	}

	zap.L().Warn("classifier: assisted scoring failed, using deterministic fallback",
		zap.String("investment_id", ind.SourceInvestmentID),
		zap.Error(err),
	)
	return deterministicRecord(ind), nil
}
