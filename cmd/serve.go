package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/commonground-hq/commonground/internal/billsync"
	"github.com/commonground-hq/commonground/internal/ingest"
	"github.com/commonground-hq/commonground/internal/model"
	"github.com/commonground-hq/commonground/internal/pipeline"
	"github.com/commonground-hq/commonground/internal/store"
)

var servePort int

// serverDeps carries everything the HTTP handlers touch. The cron jobs
// are function-typed so handler tests can stub them without a live
// backend.
type serverDeps struct {
	store      store.Store
	cronSecret string

	runIngest  func(ctx context.Context, date time.Time) (*ingest.Result, error)
	runAnalyze func(ctx context.Context, date time.Time) (*pipeline.RunResult, error)
	runBills   func(ctx context.Context) (*billsync.Result, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the trigger server (cron endpoints + read API)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		ing := newIngester(st)
		pipe := newPipeline(st)
		syncer := newBillSyncer(st)

		deps := &serverDeps{
			store:      st,
			cronSecret: cfg.Server.CronSecret,
			runIngest:  ing.Run,
			runAnalyze: pipe.Run,
			runBills:   func(ctx context.Context) (*billsync.Result, error) { return syncer.Sync(ctx) },
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: buildRouter(deps),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func buildRouter(deps *serverDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(requireCronSecret(deps.cronSecret))
		r.Get("/cron/ingest", deps.handleCronIngest)
		r.Get("/cron/analyze", deps.handleCronAnalyze)
		r.Get("/cron/bills", deps.handleCronBills)
	})

	r.Get("/briefs", deps.handleListBriefs)
	r.Get("/briefs/{slug}", deps.handleGetBrief)
	r.Get("/bills", deps.handleListBills)

	return r
}

// requireCronSecret rejects cron calls that do not carry the configured
// bearer secret. An unset secret closes the endpoints entirely.
func requireCronSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" || r.Header.Get("Authorization") != "Bearer "+secret {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (d *serverDeps) handleCronIngest(w http.ResponseWriter, r *http.Request) {
	date, err := targetDate(r.URL.Query().Get("date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := d.runIngest(r.Context(), date)
	if err != nil {
		zap.L().Error("cron ingest failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Ingestion failed"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (d *serverDeps) handleCronAnalyze(w http.ResponseWriter, r *http.Request) {
	date, err := targetDate(r.URL.Query().Get("date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := d.runAnalyze(r.Context(), date)
	if err != nil {
		zap.L().Error("cron analyze failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Analysis failed"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (d *serverDeps) handleCronBills(w http.ResponseWriter, r *http.Request) {
	res, err := d.runBills(r.Context())
	if err != nil {
		zap.L().Error("cron bills failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Bill sync failed"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (d *serverDeps) handleListBriefs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	if dateParam := q.Get("date"); dateParam != "" {
		day, err := time.Parse("2006-01-02", dateParam)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date (want YYYY-MM-DD)"})
			return
		}
		d.writeBriefsForDay(ctx, w, day)
		return
	}

	if q.Get("latest") == "true" {
		newest, err := d.store.ListBriefs(ctx, store.BriefFilter{Limit: 1})
		if err != nil {
			writeStoreError(w, "Failed to fetch briefs", err)
			return
		}
		if len(newest) == 0 {
			writeJSON(w, http.StatusOK, []model.Brief{})
			return
		}
		d.writeBriefsForDay(ctx, w, newest[0].Date)
		return
	}

	briefs, err := d.store.ListBriefs(ctx, store.BriefFilter{Limit: 20})
	if err != nil {
		writeStoreError(w, "Failed to fetch briefs", err)
		return
	}
	writeJSON(w, http.StatusOK, briefs)
}

// writeBriefsForDay returns every brief whose date falls within the given
// day, in UTC.
func (d *serverDeps) writeBriefsForDay(ctx context.Context, w http.ResponseWriter, day time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Millisecond)
	briefs, err := d.store.ListBriefs(ctx, store.BriefFilter{Start: start, End: end})
	if err != nil {
		writeStoreError(w, "Failed to fetch briefs", err)
		return
	}
	if briefs == nil {
		briefs = []model.Brief{}
	}
	writeJSON(w, http.StatusOK, briefs)
}

func (d *serverDeps) handleGetBrief(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	brief, err := d.store.GetBriefBySlug(r.Context(), slug)
	if err != nil {
		writeStoreError(w, "Failed to fetch brief", err)
		return
	}
	if brief == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Brief not found"})
		return
	}
	writeJSON(w, http.StatusOK, brief)
}

func (d *serverDeps) handleListBills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.BillFilter{
		Status:    q.Get("status"),
		TopicSlug: q.Get("topic"),
		Limit:     20,
	}
	if v := q.Get("minScore"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid minScore"})
			return
		}
		filter.MinScore = score
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		filter.Limit = min(n, 100)
	}

	bills, err := d.store.ListBills(r.Context(), filter)
	if err != nil {
		writeStoreError(w, "Failed to fetch bills", err)
		return
	}
	if bills == nil {
		bills = []model.Bill{}
	}
	writeJSON(w, http.StatusOK, bills)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeStoreError(w http.ResponseWriter, msg string, err error) {
	zap.L().Error("store query failed", zap.String("msg", msg), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
