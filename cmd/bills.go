package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var billsCmd = &cobra.Command{
	Use:   "bills",
	Short: "Sync recently-acted bills from congress.gov",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		res, err := newBillSyncer(st).Sync(ctx)
		if err != nil {
			return eris.Wrap(err, "bill sync")
		}

		zap.L().Info("bill sync complete",
			zap.Int("evaluated", res.Evaluated),
			zap.Int("saved", res.Saved),
			zap.Int("links", res.LinksCreated),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	rootCmd.AddCommand(billsCmd)
}
