package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/carteiralab/risk-engine/internal/model"
	"github.com/carteiralab/risk-engine/internal/service"
)

var (
	scoreCategory  string
	scoreAssetCode string
	scoreAmount    float64
)

var scoreCmd = &cobra.Command{
	Use:   "score <investment-id>",
	Short: "Score a single investment and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initService(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Service.ScoreInvestment(cmd.Context(), service.ScoreRequest{
			InvestmentID: args[0],
			Category:     model.AssetCategory(scoreCategory),
			AssetCode:    scoreAssetCode,
			Amount:       scoreAmount,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreCategory, "category", "", "asset category (tesouro_direto, cdb, lci, lca, debenture, acao, fii, etf, fundo)")
	scoreCmd.Flags().StringVar(&scoreAssetCode, "asset-code", "", "code of the asset in the historical series")
	scoreCmd.Flags().Float64Var(&scoreAmount, "amount", 0, "invested amount")
	scoreCmd.MarkFlagRequired("category")
	scoreCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(scoreCmd)
}
