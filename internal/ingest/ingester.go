// Package ingest pulls one day of Congressional Record speech granules
// from govinfo and persists them for later analysis.
package ingest

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/commonground-hq/commonground/internal/model"
	"github.com/commonground-hq/commonground/internal/store"
	"github.com/commonground-hq/commonground/pkg/govinfo"
)

// Result summarizes one ingestion pass.
type Result struct {
	Date     time.Time `json:"date"`
	Total    int       `json:"total"`
	Ingested int       `json:"ingested"`
	Skipped  int       `json:"skipped"`
}

// Ingester fetches and stores floor speeches.
type Ingester struct {
	client   govinfo.Client
	store    store.Store
	minChars int
}

// New returns an Ingester. Granules whose plain text is shorter than
// minChars (procedural notes, prayer, quorum calls) are skipped; a
// non-positive value falls back to 200 characters.
func New(client govinfo.Client, st store.Store, minChars int) *Ingester {
	if minChars <= 0 {
		minChars = 200
	}
	return &Ingester{client: client, store: st, minChars: minChars}
}

// Run ingests all speech granules published for date. Granules already in
// the store and granules below the length floor are counted as skipped.
// A failure on one granule is logged and does not abort the pass.
func (in *Ingester) Run(ctx context.Context, date time.Time) (*Result, error) {
	granules, err := in.client.ListSpeechGranules(ctx, date)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: list speech granules")
	}

	res := &Result{Date: date, Total: len(granules)}
	if len(granules) == 0 {
		zap.L().Info("no speech granules found (weekend/recess?)",
			zap.String("date", date.Format("2006-01-02")))
		return res, nil
	}

	zap.L().Info("found speech granules",
		zap.String("date", date.Format("2006-01-02")),
		zap.Int("count", len(granules)))

	for _, g := range granules {
		ok, err := in.ingestGranule(ctx, date, g)
		if err != nil {
			zap.L().Error("failed to ingest granule",
				zap.String("granule_id", g.GranuleID), zap.Error(err))
			continue
		}
		if ok {
			res.Ingested++
		} else {
			res.Skipped++
		}
	}

	zap.L().Info("ingestion complete",
		zap.Int("total", res.Total),
		zap.Int("ingested", res.Ingested),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

func (in *Ingester) ingestGranule(ctx context.Context, date time.Time, g govinfo.GranuleSummary) (bool, error) {
	existing, err := in.store.GetSpeechByGranuleID(ctx, g.GranuleID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	html, err := in.client.FetchGranuleHTML(ctx, date, g.GranuleID)
	if err != nil {
		return false, err
	}
	plain := govinfo.HTMLToPlainText(html)
	if len(plain) < in.minChars {
		return false, nil
	}

	sp := model.Speech{
		GranuleID: g.GranuleID,
		Title:     g.Title,
		Chamber:   model.Chamber(g.GranuleClass),
		Date:      date,
		RawHTML:   html,
		PlainText: plain,
	}
	if speaker := govinfo.ParseSpeaker(plain); speaker != "" {
		sp.Speaker = &speaker
	}
	// Party stays nil; the intake agent infers it during analysis.
	if _, err := in.store.InsertSpeech(ctx, sp); err != nil {
		return false, err
	}
	return true, nil
}
