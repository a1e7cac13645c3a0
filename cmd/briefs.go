package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/commonground-hq/commonground/internal/store"
)

var (
	briefsSlug  string
	briefsLimit int
)

var briefsCmd = &cobra.Command{
	Use:   "briefs",
	Short: "List persisted daily briefs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		briefs, err := st.ListBriefs(ctx, store.BriefFilter{
			Slug:  briefsSlug,
			Limit: briefsLimit,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(briefs)
	},
}

func init() {
	briefsCmd.Flags().StringVar(&briefsSlug, "slug", "", "filter by topic slug")
	briefsCmd.Flags().IntVar(&briefsLimit, "limit", 20, "maximum briefs to list")
	rootCmd.AddCommand(briefsCmd)
}
