package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var compatUser string

var compatCmd = &cobra.Command{
	Use:   "compat <investment-id>",
	Short: "Check an investment's compatibility with a user's profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initService(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Service.EvaluateCompatibility(cmd.Context(), compatUser, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	compatCmd.Flags().StringVar(&compatUser, "user", "", "user id whose profile to check against")
	compatCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(compatCmd)
}
