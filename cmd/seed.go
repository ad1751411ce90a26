package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/carteiralab/risk-engine/internal/model"
)

// seedFile is the fixture format: profile bands, user profiles and
// historical series in one document.
type seedFile struct {
	ProfileRanges []struct {
		ProfileName string `yaml:"profile_name"`
		MinScore    int    `yaml:"min_score"`
		MaxScore    int    `yaml:"max_score"`
	} `yaml:"profile_ranges"`
	UserProfiles []struct {
		UserID      string `yaml:"user_id"`
		ProfileName string `yaml:"profile_name"`
	} `yaml:"user_profiles"`
	AssetHistory []struct {
		Category string `yaml:"category"`
		Code     string `yaml:"code"`
		Points   []struct {
			ReferenceDate  string   `yaml:"reference_date"`
			IndicativeRate *float64 `yaml:"indicative_rate"`
			UnitPrice      *float64 `yaml:"unit_price"`
		} `yaml:"points"`
	} `yaml:"asset_history"`
}

var seedPath string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load reference data and series fixtures from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(seedPath)
		if err != nil {
			return eris.Wrapf(err, "read seed file %s", seedPath)
		}
		var f seedFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return eris.Wrap(err, "parse seed file")
		}

		env, err := initService(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		ctx := cmd.Context()

		if len(f.ProfileRanges) > 0 {
			ranges := make([]model.InvestorProfileRange, len(f.ProfileRanges))
			for i, r := range f.ProfileRanges {
				ranges[i] = model.InvestorProfileRange{
					ProfileName: model.ProfileName(r.ProfileName),
					MinScore:    r.MinScore,
					MaxScore:    r.MaxScore,
				}
			}
			if err := env.Store.SeedProfileRanges(ctx, ranges); err != nil {
				return err
			}
			zap.L().Info("seeded profile ranges", zap.Int("count", len(ranges)))
		}

		if len(f.UserProfiles) > 0 {
			profiles := make([]model.UserProfile, len(f.UserProfiles))
			for i, p := range f.UserProfiles {
				profiles[i] = model.UserProfile{
					UserID:      p.UserID,
					ProfileName: model.ProfileName(p.ProfileName),
				}
			}
			if err := env.Store.SeedUserProfiles(ctx, profiles); err != nil {
				return err
			}
			zap.L().Info("seeded user profiles", zap.Int("count", len(profiles)))
		}

		for _, series := range f.AssetHistory {
			points := make([]model.AssetHistoricalPoint, len(series.Points))
			for i, p := range series.Points {
				date, err := time.Parse("2006-01-02", p.ReferenceDate)
				if err != nil {
					return eris.Wrapf(err, "series %s: bad reference date %q", series.Code, p.ReferenceDate)
				}
				points[i] = model.AssetHistoricalPoint{
					ReferenceDate:  date,
					IndicativeRate: p.IndicativeRate,
					UnitPrice:      p.UnitPrice,
				}
			}
			n, err := env.Store.SeedAssetHistory(ctx, model.AssetCategory(series.Category), series.Code, points)
			if err != nil {
				return err
			}
			zap.L().Info("seeded asset history",
				zap.String("category", series.Category),
				zap.String("code", series.Code),
				zap.Int64("rows", n),
			)
		}

		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPath, "file", "", "YAML seed file")
	seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)
}
