// Package store persists the risk pipeline's append-only history and
// serves the externally configured reference data (asset series, investor
// profiles and their score bands).
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/carteiralab/risk-engine/internal/config"
	"github.com/carteiralab/risk-engine/internal/model"
)

// Store defines the persistence interface for the risk pipeline.
//
// Indicator and score writes are append-only: records are never updated in
// place and several score records for the same investment coexist as
// history. Lookup methods return (nil, nil) — or ("", nil) — when the row
// simply does not exist; only infrastructure failures produce errors.
type Store interface {
	// Historical series (ingested by an external collaborator, read-only
	// here). Rows come back ordered by reference date descending.
	AssetHistory(ctx context.Context, category model.AssetCategory, code string, limit int) ([]model.AssetHistoricalPoint, error)

	// Indicators
	SaveIndicators(ctx context.Context, ind *model.RiskIndicators) error
	GetIndicators(ctx context.Context, id string) (*model.RiskIndicators, error)

	// Scores
	SaveScore(ctx context.Context, rec *model.RiskScoreRecord) error
	LatestScore(ctx context.Context, investmentID string) (*model.RiskScoreRecord, error)

	// Investor profiles
	ProfileName(ctx context.Context, userID string) (model.ProfileName, error)
	ProfileRange(ctx context.Context, name model.ProfileName) (*model.InvestorProfileRange, error)
	ProfileRanges(ctx context.Context) ([]model.InvestorProfileRange, error)

	// Seeding (reference data + local fixtures)
	SeedProfileRanges(ctx context.Context, ranges []model.InvestorProfileRange) error
	SeedUserProfiles(ctx context.Context, profiles []model.UserProfile) error
	SeedAssetHistory(ctx context.Context, category model.AssetCategory, code string, points []model.AssetHistoricalPoint) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New builds the backend named by cfg.Driver.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "postgres":
		return NewPostgres(ctx, cfg)
	case "sqlite":
		return NewSQLite(cfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
