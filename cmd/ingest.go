package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ingestDate string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest one day of Congressional Record speeches",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		date, err := targetDate(ingestDate)
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

		res, err := newIngester(st).Run(ctx, date)
		if err != nil {
			return eris.Wrap(err, "ingest run")
		}

		zap.L().Info("ingest complete",
			zap.Int("total", res.Total),
			zap.Int("ingested", res.Ingested),
			zap.Int("skipped", res.Skipped),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "record date YYYY-MM-DD (default yesterday)")
	rootCmd.AddCommand(ingestCmd)
}
