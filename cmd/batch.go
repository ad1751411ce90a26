package main

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/carteiralab/risk-engine/internal/model"
	"github.com/carteiralab/risk-engine/internal/service"
)

// batchItem is one entry of the batch input file.
type batchItem struct {
	InvestmentID string  `yaml:"investment_id"`
	Category     string  `yaml:"category"`
	AssetCode    string  `yaml:"asset_code"`
	Amount       float64 `yaml:"amount"`
}

// batchOutcome pairs an item with its result or failure.
type batchOutcome struct {
	InvestmentID string                 `json:"investment_id"`
	Score        *model.RiskScoreRecord `json:"score,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

var batchFile string

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score every investment listed in a YAML file concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(batchFile)
		if err != nil {
			return eris.Wrapf(err, "read batch file %s", batchFile)
		}
		var items []batchItem
		if err := yaml.Unmarshal(data, &items); err != nil {
			return eris.Wrap(err, "parse batch file")
		}
		if len(items) == 0 {
			return eris.New("batch file lists no investments")
		}

		env, err := initService(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(cfg.Batch.MaxConcurrent)

		var mu sync.Mutex
		outcomes := make([]batchOutcome, 0, len(items))

		for _, item := range items {
			item := item
			g.Go(func() error {
				res, err := env.Service.ScoreInvestment(ctx, service.ScoreRequest{
					InvestmentID: item.InvestmentID,
					Category:     model.AssetCategory(item.Category),
					AssetCode:    item.AssetCode,
					Amount:       item.Amount,
				})

				out := batchOutcome{InvestmentID: item.InvestmentID}
				if err != nil {
					// One bad holding must not sink the rest of the batch.
					zap.L().Warn("batch: scoring failed",
						zap.String("investment_id", item.InvestmentID),
						zap.Error(err),
					)
					out.Error = err.Error()
				} else {
					out.Score = res.Score
				}

				mu.Lock()
				outcomes = append(outcomes, out)
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "YAML file listing investments to score")
	batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}
