package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/carteiralab/risk-engine/internal/config"
	"github.com/carteiralab/risk-engine/internal/db"
	"github.com/carteiralab/risk-engine/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot pipeline paths.
var preparedStatements = map[string]string{
	"asset_history": `SELECT reference_date, indicative_rate, unit_price FROM asset_history
		WHERE asset_category = $1 AND asset_code = $2 ORDER BY reference_date DESC LIMIT $3`,
	"insert_indicators": `INSERT INTO risk_indicators
		(id, var_95, beta, sharpe_ratio, std_deviation, expected_return, investment_amount, source_investment_id, data_source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at`,
	"insert_score": `INSERT INTO risk_scores
		(id, investment_id, risk_indicators_id, score, justification, risk_category,
		 compatible_with_conservador, compatible_with_moderado, compatible_with_arrojado, score_source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING created_at`,
	"latest_score": `SELECT id, investment_id, risk_indicators_id, score, justification, risk_category,
		 compatible_with_conservador, compatible_with_moderado, compatible_with_arrojado, score_source, created_at
		FROM risk_scores WHERE investment_id = $1 ORDER BY created_at DESC LIMIT 1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, cfg config.StoreConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if cfg.MaxConns > 0 {
		maxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		minConns = cfg.MinConns
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Tests use it to substitute
// a pgxmock pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS asset_history (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	asset_category  TEXT NOT NULL,
	asset_code      TEXT NOT NULL,
	reference_date  DATE NOT NULL,
	indicative_rate DOUBLE PRECISION,
	unit_price      DOUBLE PRECISION,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_asset_history_lookup
	ON asset_history(asset_category, asset_code, reference_date DESC);

CREATE TABLE IF NOT EXISTS risk_indicators (
	id                   TEXT PRIMARY KEY,
	var_95               DOUBLE PRECISION NOT NULL CHECK (var_95 >= 0),
	beta                 DOUBLE PRECISION NOT NULL CHECK (beta >= 0),
	sharpe_ratio         DOUBLE PRECISION NOT NULL,
	std_deviation        DOUBLE PRECISION NOT NULL CHECK (std_deviation >= 0),
	expected_return      DOUBLE PRECISION NOT NULL,
	investment_amount    DOUBLE PRECISION NOT NULL,
	source_investment_id TEXT NOT NULL,
	data_source          TEXT NOT NULL,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_risk_indicators_investment
	ON risk_indicators(source_investment_id);

CREATE TABLE IF NOT EXISTS risk_scores (
	id                          TEXT PRIMARY KEY,
	investment_id               TEXT NOT NULL,
	risk_indicators_id          TEXT NOT NULL REFERENCES risk_indicators(id),
	score                       INTEGER NOT NULL CHECK (score BETWEEN 1 AND 20),
	justification               TEXT NOT NULL,
	risk_category               TEXT NOT NULL,
	compatible_with_conservador BOOLEAN NOT NULL,
	compatible_with_moderado    BOOLEAN NOT NULL,
	compatible_with_arrojado    BOOLEAN NOT NULL,
	score_source                TEXT NOT NULL,
	created_at                  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_risk_scores_investment_created
	ON risk_scores(investment_id, created_at DESC);

CREATE TABLE IF NOT EXISTS investor_profile_ranges (
	profile_name TEXT PRIMARY KEY,
	min_score    INTEGER NOT NULL,
	max_score    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS user_profiles (
	user_id      TEXT PRIMARY KEY,
	profile_name TEXT NOT NULL REFERENCES investor_profile_ranges(profile_name)
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) AssetHistory(ctx context.Context, category model.AssetCategory, code string, limit int) ([]model.AssetHistoricalPoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT reference_date, indicative_rate, unit_price FROM asset_history
		 WHERE asset_category = $1 AND asset_code = $2 ORDER BY reference_date DESC LIMIT $3`,
		string(category), code, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: asset history")
	}
	defer rows.Close()

	var points []model.AssetHistoricalPoint
	for rows.Next() {
		var p model.AssetHistoricalPoint
		if err := rows.Scan(&p.ReferenceDate, &p.IndicativeRate, &p.UnitPrice); err != nil {
			return nil, eris.Wrap(err, "postgres: scan history point")
		}
		points = append(points, p)
	}
	return points, eris.Wrap(rows.Err(), "postgres: asset history iterate")
}

// SaveIndicators assigns the record id client-side and the timestamp
// server-side, filling both back into ind.
func (s *PostgresStore) SaveIndicators(ctx context.Context, ind *model.RiskIndicators) error {
	if ind.ID == "" {
		ind.ID = uuid.New().String()
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO risk_indicators
		 (id, var_95, beta, sharpe_ratio, std_deviation, expected_return, investment_amount, source_investment_id, data_source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at`,
		ind.ID, ind.VaR95, ind.Beta, ind.SharpeRatio, ind.StdDeviation,
		ind.ExpectedReturn, ind.InvestmentAmount, ind.SourceInvestmentID, string(ind.DataSource),
	).Scan(&ind.CreatedAt)
	return eris.Wrap(err, "postgres: insert indicators")
}

func (s *PostgresStore) GetIndicators(ctx context.Context, id string) (*model.RiskIndicators, error) {
	var ind model.RiskIndicators
	err := s.pool.QueryRow(ctx,
		`SELECT id, var_95, beta, sharpe_ratio, std_deviation, expected_return, investment_amount, source_investment_id, data_source, created_at
		 FROM risk_indicators WHERE id = $1`,
		id,
	).Scan(&ind.ID, &ind.VaR95, &ind.Beta, &ind.SharpeRatio, &ind.StdDeviation,
		&ind.ExpectedReturn, &ind.InvestmentAmount, &ind.SourceInvestmentID, &ind.DataSource, &ind.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get indicators %s", id)
	}
	return &ind, nil
}

// SaveScore appends a score record. created_at comes from the database so
// history ordering reflects real completion order.
func (s *PostgresStore) SaveScore(ctx context.Context, rec *model.RiskScoreRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO risk_scores
		 (id, investment_id, risk_indicators_id, score, justification, risk_category,
		  compatible_with_conservador, compatible_with_moderado, compatible_with_arrojado, score_source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING created_at`,
		rec.ID, rec.InvestmentID, rec.RiskIndicatorsID, rec.Score, rec.Justification,
		string(rec.RiskCategory), rec.CompatibleWithConservador, rec.CompatibleWithModerado,
		rec.CompatibleWithArrojado, string(rec.ScoreSource),
	).Scan(&rec.CreatedAt)
	return eris.Wrap(err, "postgres: insert score")
}

func (s *PostgresStore) LatestScore(ctx context.Context, investmentID string) (*model.RiskScoreRecord, error) {
	var rec model.RiskScoreRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, investment_id, risk_indicators_id, score, justification, risk_category,
		  compatible_with_conservador, compatible_with_moderado, compatible_with_arrojado, score_source, created_at
		 FROM risk_scores WHERE investment_id = $1 ORDER BY created_at DESC LIMIT 1`,
		investmentID,
	).Scan(&rec.ID, &rec.InvestmentID, &rec.RiskIndicatorsID, &rec.Score, &rec.Justification,
		&rec.RiskCategory, &rec.CompatibleWithConservador, &rec.CompatibleWithModerado,
		&rec.CompatibleWithArrojado, &rec.ScoreSource, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: latest score %s", investmentID)
	}
	return &rec, nil
}

func (s *PostgresStore) ProfileName(ctx context.Context, userID string) (model.ProfileName, error) {
	var name string
	err := s.pool.QueryRow(ctx,
		`SELECT profile_name FROM user_profiles WHERE user_id = $1`,
		userID,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", eris.Wrapf(err, "postgres: profile name %s", userID)
	}
	return model.ProfileName(name), nil
}

func (s *PostgresStore) ProfileRange(ctx context.Context, name model.ProfileName) (*model.InvestorProfileRange, error) {
	var r model.InvestorProfileRange
	err := s.pool.QueryRow(ctx,
		`SELECT profile_name, min_score, max_score FROM investor_profile_ranges WHERE profile_name = $1`,
		string(name),
	).Scan(&r.ProfileName, &r.MinScore, &r.MaxScore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: profile range %s", name)
	}
	return &r, nil
}

func (s *PostgresStore) ProfileRanges(ctx context.Context) ([]model.InvestorProfileRange, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT profile_name, min_score, max_score FROM investor_profile_ranges ORDER BY min_score`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: profile ranges")
	}
	defer rows.Close()

	var ranges []model.InvestorProfileRange
	for rows.Next() {
		var r model.InvestorProfileRange
		if err := rows.Scan(&r.ProfileName, &r.MinScore, &r.MaxScore); err != nil {
			return nil, eris.Wrap(err, "postgres: scan profile range")
		}
		ranges = append(ranges, r)
	}
	return ranges, eris.Wrap(rows.Err(), "postgres: profile ranges iterate")
}

func (s *PostgresStore) SeedProfileRanges(ctx context.Context, ranges []model.InvestorProfileRange) error {
	for _, r := range ranges {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO investor_profile_ranges (profile_name, min_score, max_score)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (profile_name) DO UPDATE SET min_score = $2, max_score = $3`,
			string(r.ProfileName), r.MinScore, r.MaxScore,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: seed profile range %s", r.ProfileName)
		}
	}
	return nil
}

func (s *PostgresStore) SeedUserProfiles(ctx context.Context, profiles []model.UserProfile) error {
	for _, p := range profiles {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO user_profiles (user_id, profile_name)
			 VALUES ($1, $2)
			 ON CONFLICT (user_id) DO UPDATE SET profile_name = $2`,
			p.UserID, string(p.ProfileName),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: seed user profile %s", p.UserID)
		}
	}
	return nil
}

// SeedAssetHistory bulk-loads series fixtures via COPY.
func (s *PostgresStore) SeedAssetHistory(ctx context.Context, category model.AssetCategory, code string, points []model.AssetHistoricalPoint) (int64, error) {
	rows := make([][]any, len(points))
	for i, p := range points {
		rows[i] = []any{uuid.New().String(), string(category), code, p.ReferenceDate, p.IndicativeRate, p.UnitPrice}
	}
	n, err := db.CopyFrom(ctx, s.pool, "asset_history",
		[]string{"id", "asset_category", "asset_code", "reference_date", "indicative_rate", "unit_price"},
		rows,
	)
	return n, eris.Wrap(err, "postgres: seed asset history")
}
