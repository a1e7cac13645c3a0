package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/commonground-hq/commonground/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "commonground",
	Short: "Bipartisan common-ground analysis of the Congressional Record",
	Long:  "Ingests daily floor speeches from govinfo, runs a multi-agent analysis pipeline producing daily briefs, and tracks bipartisan bills on congress.gov.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// targetDate resolves a --date flag or ?date= query value. The empty
// string means the previous calendar day, since the Congressional Record
// is published the day after floor proceedings. An explicit date is
// pinned to noon UTC so the surrounding day window is unambiguous.
func targetDate(dateParam string) (time.Time, error) {
	if dateParam == "" {
		return time.Now().UTC().AddDate(0, 0, -1), nil
	}
	d, err := time.Parse("2006-01-02", dateParam)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", dateParam, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
