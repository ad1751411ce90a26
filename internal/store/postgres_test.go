package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carteiralab/risk-engine/internal/model"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresSaveIndicators(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO risk_indicators").
		WithArgs(pgxmock.AnyArg(), 450.0, 0.72, 0.95, 0.108, 0.16, 10000.0, "inv-1", "historical_series").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	ind := &model.RiskIndicators{
		VaR95:              450.0,
		Beta:               0.72,
		SharpeRatio:        0.95,
		StdDeviation:       0.108,
		ExpectedReturn:     0.16,
		InvestmentAmount:   10000.0,
		SourceInvestmentID: "inv-1",
		DataSource:         model.DataSourceHistorical,
	}
	err := s.SaveIndicators(context.Background(), ind)
	require.NoError(t, err)

	assert.NotEmpty(t, ind.ID, "id should be assigned client-side")
	assert.Equal(t, now, ind.CreatedAt, "created_at should come back from the database")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLatestScore(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	cols := []string{
		"id", "investment_id", "risk_indicators_id", "score", "justification", "risk_category",
		"compatible_with_conservador", "compatible_with_moderado", "compatible_with_arrojado",
		"score_source", "created_at",
	}
	mock.ExpectQuery("SELECT (.+) FROM risk_scores").
		WithArgs("inv-1").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(
			"score-1", "inv-1", "ind-1", 12, "Risco moderado.", model.RiskModerado,
			false, true, true, model.ScoreSourceAssisted, now,
		))

	rec, err := s.LatestScore(context.Background(), "inv-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 12, rec.Score)
	assert.Equal(t, model.RiskModerado, rec.RiskCategory)
	assert.True(t, rec.CompatibleWithModerado)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLatestScoreNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cols := []string{
		"id", "investment_id", "risk_indicators_id", "score", "justification", "risk_category",
		"compatible_with_conservador", "compatible_with_moderado", "compatible_with_arrojado",
		"score_source", "created_at",
	}
	mock.ExpectQuery("SELECT (.+) FROM risk_scores").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(cols))

	rec, err := s.LatestScore(context.Background(), "missing")
	require.NoError(t, err, "missing row is not an error")
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAssetHistory(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rate := func(v float64) *float64 { return &v }
	d1 := time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 8, 28, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM asset_history").
		WithArgs("cdb", "CDB-XP-2027", 30).
		WillReturnRows(pgxmock.NewRows([]string{"reference_date", "indicative_rate", "unit_price"}).
			AddRow(d1, rate(13.65), (*float64)(nil)).
			AddRow(d2, rate(13.62), (*float64)(nil)))

	points, err := s.AssetHistory(context.Background(), model.CategoryCDB, "CDB-XP-2027", 30)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, d1, points[0].ReferenceDate, "rows come back newest first")
	require.NotNil(t, points[0].IndicativeRate)
	assert.InDelta(t, 13.65, *points[0].IndicativeRate, 1e-9)
	assert.Nil(t, points[0].UnitPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProfileLookups(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT profile_name FROM user_profiles").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"profile_name"}).AddRow("Moderado"))
	mock.ExpectQuery("SELECT (.+) FROM investor_profile_ranges WHERE").
		WithArgs("Moderado").
		WillReturnRows(pgxmock.NewRows([]string{"profile_name", "min_score", "max_score"}).
			AddRow(model.ProfileModerado, 6, 15))

	name, err := s.ProfileName(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.ProfileModerado, name)

	r, err := s.ProfileRange(context.Background(), name)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.True(t, r.Contains(6))
	assert.True(t, r.Contains(15))
	assert.False(t, r.Contains(16))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProfileNameNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT profile_name FROM user_profiles").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"profile_name"}))

	name, err := s.ProfileName(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
