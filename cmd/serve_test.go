package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commonground-hq/commonground/internal/billsync"
	"github.com/commonground-hq/commonground/internal/ingest"
	"github.com/commonground-hq/commonground/internal/model"
	"github.com/commonground-hq/commonground/internal/pipeline"
	"github.com/commonground-hq/commonground/internal/store"
)

func newServeTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func get(t *testing.T, h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	h := buildRouter(&serverDeps{store: newServeTestStore(t)})

	rr := get(t, h, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_CronRequiresSecret(t *testing.T) {
	deps := &serverDeps{
		store:      newServeTestStore(t),
		cronSecret: "test-secret",
		runIngest: func(ctx context.Context, date time.Time) (*ingest.Result, error) {
			t.Fatal("handler ran without authorization")
			return nil, nil
		},
	}
	h := buildRouter(deps)

	rr := get(t, h, "/cron/ingest", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = get(t, h, "/cron/ingest", map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_CronClosedWhenSecretUnset(t *testing.T) {
	h := buildRouter(&serverDeps{store: newServeTestStore(t)})

	rr := get(t, h, "/cron/bills", map[string]string{"Authorization": "Bearer "})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_CronIngest_DateOverride(t *testing.T) {
	var got time.Time
	deps := &serverDeps{
		store:      newServeTestStore(t),
		cronSecret: "test-secret",
		runIngest: func(ctx context.Context, date time.Time) (*ingest.Result, error) {
			got = date
			return &ingest.Result{Date: date, Total: 3, Ingested: 2, Skipped: 1}, nil
		},
	}
	h := buildRouter(deps)
	auth := map[string]string{"Authorization": "Bearer test-secret"}

	rr := get(t, h, "/cron/ingest?date=2026-02-11", auth)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC), got)

	var body ingest.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Ingested)

	rr = get(t, h, "/cron/ingest?date=not-a-date", auth)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_CronAnalyzeAndBills(t *testing.T) {
	deps := &serverDeps{
		store:      newServeTestStore(t),
		cronSecret: "test-secret",
		runAnalyze: func(ctx context.Context, date time.Time) (*pipeline.RunResult, error) {
			return &pipeline.RunResult{State: pipeline.StateCompleted, BriefCount: 1}, nil
		},
		runBills: func(ctx context.Context) (*billsync.Result, error) {
			return &billsync.Result{Evaluated: 4, Saved: 2, LinksCreated: 1}, nil
		},
	}
	h := buildRouter(deps)
	auth := map[string]string{"Authorization": "Bearer test-secret"}

	rr := get(t, h, "/cron/analyze", auth)
	require.Equal(t, http.StatusOK, rr.Code)
	var analyze pipeline.RunResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &analyze))
	assert.Equal(t, pipeline.StateCompleted, analyze.State)

	rr = get(t, h, "/cron/bills", auth)
	require.Equal(t, http.StatusOK, rr.Code)
	var bills billsync.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bills))
	assert.Equal(t, 2, bills.Saved)
}

func seedBrief(t *testing.T, st store.Store, slug string, date time.Time) {
	t.Helper()
	_, err := st.InsertBrief(context.Background(), model.Brief{
		Date:           date,
		Topic:          "Test Topic",
		Slug:           slug,
		RedPosition:    "red position",
		BluePosition:   "blue position",
		DemocracyCheck: "passes",
		PolicyDraft:    "SECTION 1.",
	})
	require.NoError(t, err)
}

func TestRouter_ListBriefs(t *testing.T) {
	st := newServeTestStore(t)
	seedBrief(t, st, "immigration-reform", time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC))
	seedBrief(t, st, "healthcare-costs", time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC))

	h := buildRouter(&serverDeps{store: st})

	// Default: all briefs, newest date first.
	rr := get(t, h, "/briefs", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var briefs []model.Brief
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &briefs))
	require.Len(t, briefs, 2)
	assert.Equal(t, "healthcare-costs", briefs[0].Slug)

	// ?date= narrows to one day.
	rr = get(t, h, "/briefs?date=2026-02-10", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &briefs))
	require.Len(t, briefs, 1)
	assert.Equal(t, "immigration-reform", briefs[0].Slug)

	// ?latest=true returns the newest day's briefs.
	rr = get(t, h, "/briefs?latest=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &briefs))
	require.Len(t, briefs, 1)
	assert.Equal(t, "healthcare-costs", briefs[0].Slug)

	rr = get(t, h, "/briefs?date=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_ListBriefs_LatestOnEmptyStore(t *testing.T) {
	h := buildRouter(&serverDeps{store: newServeTestStore(t)})

	rr := get(t, h, "/briefs?latest=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestRouter_GetBriefBySlug(t *testing.T) {
	st := newServeTestStore(t)
	seedBrief(t, st, "immigration-reform", time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC))

	h := buildRouter(&serverDeps{store: st})

	rr := get(t, h, "/briefs/immigration-reform", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var brief model.Brief
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &brief))
	assert.Equal(t, "immigration-reform", brief.Slug)

	rr = get(t, h, "/briefs/no-such-topic", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Brief not found")
}

func seedBill(t *testing.T, st store.Store, number string, score float64, status model.BillStatus) *model.Bill {
	t.Helper()
	saved, err := st.UpsertBill(context.Background(), model.Bill{
		Congress:        "119",
		BillType:        "hr",
		BillNumber:      number,
		Title:           "A bill",
		BipartisanScore: score,
		Status:          status,
		CongressGovURL:  "https://www.congress.gov/bill/119th-congress/house-bill/" + number,
	})
	require.NoError(t, err)
	return saved
}

func TestRouter_ListBills(t *testing.T) {
	st := newServeTestStore(t)
	seedBill(t, st, "100", 0.9, model.StatusCommittee)
	seedBill(t, st, "200", 0.4, model.StatusEnacted)
	linked := seedBill(t, st, "300", 0.7, model.StatusFloor)
	require.NoError(t, st.InsertBillTopicLink(context.Background(), model.BillTopicLink{
		BillID:     linked.ID,
		TopicSlug:  "immigration-reform",
		Confidence: model.ConfidenceHigh,
	}))

	h := buildRouter(&serverDeps{store: st})

	rr := get(t, h, "/bills", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var bills []model.Bill
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bills))
	require.Len(t, bills, 3)
	assert.Equal(t, "100", bills[0].BillNumber) // highest score first

	rr = get(t, h, "/bills?minScore=0.5", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bills))
	assert.Len(t, bills, 2)

	rr = get(t, h, "/bills?status=enacted", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bills))
	require.Len(t, bills, 1)
	assert.Equal(t, "200", bills[0].BillNumber)

	rr = get(t, h, "/bills?topic=immigration-reform", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bills))
	require.Len(t, bills, 1)
	assert.Equal(t, "300", bills[0].BillNumber)

	rr = get(t, h, "/bills?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = get(t, h, "/bills?minScore=high", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
