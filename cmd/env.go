package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/commonground-hq/commonground/internal/agents"
	"github.com/commonground-hq/commonground/internal/billsync"
	"github.com/commonground-hq/commonground/internal/ingest"
	"github.com/commonground-hq/commonground/internal/pipeline"
	"github.com/commonground-hq/commonground/internal/store"
	"github.com/commonground-hq/commonground/pkg/anthropic"
	"github.com/commonground-hq/commonground/pkg/congress"
	"github.com/commonground-hq/commonground/pkg/govinfo"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "commonground.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func newIngester(st store.Store) *ingest.Ingester {
	client := govinfo.NewClient(cfg.GovInfo.Key, govinfo.WithBaseURL(cfg.GovInfo.BaseURL))
	return ingest.New(client, st, cfg.Pipeline.MinSpeechChars)
}

func newPipeline(st store.Store) *pipeline.Pipeline {
	return pipeline.New(cfg, st, anthropic.NewClient(cfg.Anthropic.Key))
}

func newBillSyncer(st store.Store) *billsync.Syncer {
	client := congress.NewClient(cfg.Congress.Key, congress.WithBaseURL(cfg.Congress.BaseURL))
	inv := agents.NewInvoker(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
	return billsync.New(client, st, inv, billsync.Options{
		Congress:  cfg.Congress.CongressNumber,
		ListLimit: cfg.Bills.ListLimit,
		Freshness: time.Duration(cfg.Bills.FreshnessHours) * time.Hour,
	})
}
