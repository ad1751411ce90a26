package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/carteiralab/risk-engine/internal/config"
	"github.com/carteiralab/risk-engine/internal/model"
)

// SQLiteStore is the embedded single-file backend for local runs and the
// CLI commands. The schema mirrors the Postgres one.
type SQLiteStore struct {
	db *sql.DB
}

// sqliteTime is the stored timestamp layout. strftime's %f gives
// millisecond precision, which keeps append-only ordering stable even for
// back-to-back writes.
const sqliteTime = "2006-01-02T15:04:05.000Z"

// NewSQLite opens (or creates) the database file named by DatabaseURL.
func NewSQLite(cfg config.StoreConfig) (*SQLiteStore, error) {
	path := cfg.DatabaseURL
	if path == "" {
		path = "risk.db"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}

	// modernc's driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: %s", p)
		}
	}

	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS asset_history (
	id              TEXT PRIMARY KEY,
	asset_category  TEXT NOT NULL,
	asset_code      TEXT NOT NULL,
	reference_date  TEXT NOT NULL,
	indicative_rate REAL,
	unit_price      REAL,
	created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE INDEX IF NOT EXISTS idx_asset_history_lookup
	ON asset_history(asset_category, asset_code, reference_date DESC);

CREATE TABLE IF NOT EXISTS risk_indicators (
	id                   TEXT PRIMARY KEY,
	var_95               REAL NOT NULL CHECK (var_95 >= 0),
	beta                 REAL NOT NULL CHECK (beta >= 0),
	sharpe_ratio         REAL NOT NULL,
	std_deviation        REAL NOT NULL CHECK (std_deviation >= 0),
	expected_return      REAL NOT NULL,
	investment_amount    REAL NOT NULL,
	source_investment_id TEXT NOT NULL,
	data_source          TEXT NOT NULL,
	created_at           TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
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
	compatible_with_conservador INTEGER NOT NULL,
	compatible_with_moderado    INTEGER NOT NULL,
	compatible_with_arrojado    INTEGER NOT NULL,
	score_source                TEXT NOT NULL,
	created_at                  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
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

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return eris.Wrap(s.db.Close(), "sqlite: close")
}

func (s *SQLiteStore) AssetHistory(ctx context.Context, category model.AssetCategory, code string, limit int) ([]model.AssetHistoricalPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT reference_date, indicative_rate, unit_price FROM asset_history
		 WHERE asset_category = ? AND asset_code = ? ORDER BY reference_date DESC LIMIT ?`,
		string(category), code, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: asset history")
	}
	defer rows.Close()

	var points []model.AssetHistoricalPoint
	for rows.Next() {
		var (
			p       model.AssetHistoricalPoint
			refDate string
		)
		if err := rows.Scan(&refDate, &p.IndicativeRate, &p.UnitPrice); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan history point")
		}
		p.ReferenceDate, err = parseSQLiteDate(refDate)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, eris.Wrap(rows.Err(), "sqlite: asset history iterate")
}

func (s *SQLiteStore) SaveIndicators(ctx context.Context, ind *model.RiskIndicators) error {
	if ind.ID == "" {
		ind.ID = uuid.New().String()
	}

	var created string
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO risk_indicators
		 (id, var_95, beta, sharpe_ratio, std_deviation, expected_return, investment_amount, source_investment_id, data_source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING created_at`,
		ind.ID, ind.VaR95, ind.Beta, ind.SharpeRatio, ind.StdDeviation,
		ind.ExpectedReturn, ind.InvestmentAmount, ind.SourceInvestmentID, string(ind.DataSource),
	).Scan(&created)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert indicators")
	}
	ind.CreatedAt, err = parseSQLiteTime(created)
	return err
}

func (s *SQLiteStore) GetIndicators(ctx context.Context, id string) (*model.RiskIndicators, error) {
	var (
		ind     model.RiskIndicators
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, var_95, beta, sharpe_ratio, std_deviation, expected_return, investment_amount, source_investment_id, data_source, created_at
		 FROM risk_indicators WHERE id = ?`,
		id,
	).Scan(&ind.ID, &ind.VaR95, &ind.Beta, &ind.SharpeRatio, &ind.StdDeviation,
		&ind.ExpectedReturn, &ind.InvestmentAmount, &ind.SourceInvestmentID, &ind.DataSource, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get indicators %s", id)
	}
	ind.CreatedAt, err = parseSQLiteTime(created)
	if err != nil {
		return nil, err
	}
	return &ind, nil
}

func (s *SQLiteStore) SaveScore(ctx context.Context, rec *model.RiskScoreRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	var created string
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO risk_scores
		 (id, investment_id, risk_indicators_id, score, justification, risk_category,
		  compatible_with_conservador, compatible_with_moderado, compatible_with_arrojado, score_source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING created_at`,
		rec.ID, rec.InvestmentID, rec.RiskIndicatorsID, rec.Score, rec.Justification,
		string(rec.RiskCategory), rec.CompatibleWithConservador, rec.CompatibleWithModerado,
		rec.CompatibleWithArrojado, string(rec.ScoreSource),
	).Scan(&created)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert score")
	}
	rec.CreatedAt, err = parseSQLiteTime(created)
	return err
}

func (s *SQLiteStore) LatestScore(ctx context.Context, investmentID string) (*model.RiskScoreRecord, error) {
	var (
		rec     model.RiskScoreRecord
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, investment_id, risk_indicators_id, score, justification, risk_category,
		  compatible_with_conservador, compatible_with_moderado, compatible_with_arrojado, score_source, created_at
		 FROM risk_scores WHERE investment_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		investmentID,
	).Scan(&rec.ID, &rec.InvestmentID, &rec.RiskIndicatorsID, &rec.Score, &rec.Justification,
		&rec.RiskCategory, &rec.CompatibleWithConservador, &rec.CompatibleWithModerado,
		&rec.CompatibleWithArrojado, &rec.ScoreSource, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: latest score %s", investmentID)
	}
	rec.CreatedAt, err = parseSQLiteTime(created)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteStore) ProfileName(ctx context.Context, userID string) (model.ProfileName, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile_name FROM user_profiles WHERE user_id = ?`,
		userID,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", eris.Wrapf(err, "sqlite: profile name %s", userID)
	}
	return model.ProfileName(name), nil
}

func (s *SQLiteStore) ProfileRange(ctx context.Context, name model.ProfileName) (*model.InvestorProfileRange, error) {
	var r model.InvestorProfileRange
	err := s.db.QueryRowContext(ctx,
		`SELECT profile_name, min_score, max_score FROM investor_profile_ranges WHERE profile_name = ?`,
		string(name),
	).Scan(&r.ProfileName, &r.MinScore, &r.MaxScore)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: profile range %s", name)
	}
	return &r, nil
}

func (s *SQLiteStore) ProfileRanges(ctx context.Context) ([]model.InvestorProfileRange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT profile_name, min_score, max_score FROM investor_profile_ranges ORDER BY min_score`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: profile ranges")
	}
	defer rows.Close()

	var ranges []model.InvestorProfileRange
	for rows.Next() {
		var r model.InvestorProfileRange
		if err := rows.Scan(&r.ProfileName, &r.MinScore, &r.MaxScore); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan profile range")
		}
		ranges = append(ranges, r)
	}
	return ranges, eris.Wrap(rows.Err(), "sqlite: profile ranges iterate")
}

func (s *SQLiteStore) SeedProfileRanges(ctx context.Context, ranges []model.InvestorProfileRange) error {
	for _, r := range ranges {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO investor_profile_ranges (profile_name, min_score, max_score)
			 VALUES (?, ?, ?)
			 ON CONFLICT (profile_name) DO UPDATE SET min_score = excluded.min_score, max_score = excluded.max_score`,
			string(r.ProfileName), r.MinScore, r.MaxScore,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: seed profile range %s", r.ProfileName)
		}
	}
	return nil
}

func (s *SQLiteStore) SeedUserProfiles(ctx context.Context, profiles []model.UserProfile) error {
	for _, p := range profiles {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO user_profiles (user_id, profile_name)
			 VALUES (?, ?)
			 ON CONFLICT (user_id) DO UPDATE SET profile_name = excluded.profile_name`,
			p.UserID, string(p.ProfileName),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: seed user profile %s", p.UserID)
		}
	}
	return nil
}

func (s *SQLiteStore) SeedAssetHistory(ctx context.Context, category model.AssetCategory, code string, points []model.AssetHistoricalPoint) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin seed tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO asset_history (id, asset_category, asset_code, reference_date, indicative_rate, unit_price)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare seed insert")
	}
	defer stmt.Close()

	var n int64
	for _, p := range points {
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(), string(category), code,
			p.ReferenceDate.Format("2006-01-02"), p.IndicativeRate, p.UnitPrice,
		)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: seed history row")
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit seed tx")
	}
	return n, nil
}

func parseSQLiteTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTime, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "sqlite: parse timestamp %q", s)
	}
	return t, nil
}

func parseSQLiteDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "sqlite: parse date %q", s)
	}
	return t, nil
}
