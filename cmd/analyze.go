package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var analyzeDate string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the agent pipeline over one day of ingested speeches",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		date, err := targetDate(analyzeDate)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		res, err := newPipeline(st).Run(ctx, date)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("analysis complete",
			zap.String("state", string(res.State)),
			zap.Int("speeches", res.SpeechCount),
			zap.Int("briefs", res.BriefCount),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeDate, "date", "", "record date YYYY-MM-DD (default yesterday)")
	rootCmd.AddCommand(analyzeCmd)
}
