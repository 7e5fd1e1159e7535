package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mrussa/orderbridge/internal/cache"
	"github.com/mrussa/orderbridge/internal/repo"
	"github.com/mrussa/orderbridge/internal/respond"
	"github.com/mrussa/orderbridge/internal/telemetry"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	pingTimeout      = 2 * time.Second
)

type RunSource interface {
	GetRun(ctx context.Context, id string) (repo.RunReport, error)
	ListRecentRunIDs(ctx context.Context, limit int) ([]string, error)
	Ping(ctx context.Context) error
}

type RunsAPI struct {
	repo    RunSource
	cache   *cache.RunsCache
	logf    func(string, ...any)
	version string
	metrics http.Handler
	lookups metric.Int64Counter
}

// New builds the report API. metrics may be nil, in which case /metrics is
// not served.
func New(src RunSource, c *cache.RunsCache, logf func(string, ...any), version string, metrics http.Handler) *RunsAPI {
	lookups, err := otel.Meter("orderbridge/httpapi").Int64Counter("run_lookups",
		metric.WithDescription("Run report lookups by cache result"))
	if err != nil {
		logf("[HTTP] run_lookups counter: %v", err)
	}
	return &RunsAPI{
		repo:    src,
		cache:   c,
		logf:    logf,
		version: version,
		metrics: metrics,
		lookups: lookups,
	}
}

func (a *RunsAPI) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "not_found", "not found", RequestID(r))
	})
	mux.HandleFunc("/healthz", telemetry.WithHTTPRoute(a.healthz))
	mux.HandleFunc("/runs", telemetry.WithHTTPRoute(a.listRuns))
	mux.HandleFunc("/runs/{id}", telemetry.WithHTTPRoute(a.getRun))
	if a.metrics != nil {
		mux.Handle("/metrics", a.metrics)
	}

	return otelhttp.NewHandler(WithRequestID(mux), "orderbridge-api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			if r.Pattern != "" {
				return r.Pattern
			}
			return r.Method + " " + r.URL.Path
		}),
	)
}

func (a *RunsAPI) healthz(w http.ResponseWriter, r *http.Request) {
	reqID := RequestID(r)
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		respond.MethodNotAllowed(w, reqID, http.MethodGet, http.MethodHead)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()
	status, db, code := "ok", "ok", http.StatusOK
	if err := a.repo.Ping(ctx); err != nil {
		a.logf("[HTTP] healthz ping: %v", err)
		status, db, code = "degraded", "down", http.StatusServiceUnavailable
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(code)
		return
	}
	respond.JSON(w, code, map[string]any{
		"status":     status,
		"db":         db,
		"cache_size": a.cache.Len(),
		"version":    a.version,
		"request_id": reqID,
	})
}

func (a *RunsAPI) listRuns(w http.ResponseWriter, r *http.Request) {
	reqID := RequestID(r)
	if r.Method != http.MethodGet {
		respond.MethodNotAllowed(w, reqID, http.MethodGet)
		return
	}

	limit := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respond.Error(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer", reqID)
			return
		}
		limit = min(n, maxListLimit)
	}

	ids, err := a.repo.ListRecentRunIDs(r.Context(), limit)
	if err != nil {
		a.logf("[HTTP] list runs: %v", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "internal error", reqID)
		return
	}

	runs := make([]repo.RunReport, 0, len(ids))
	for _, id := range ids {
		rep, err := a.lookup(r.Context(), id)
		if err != nil {
			if !errors.Is(err, repo.ErrNotFound) {
				a.logf("[HTTP] list runs: load %s: %v", id, err)
			}
			continue
		}
		runs = append(runs, rep)
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

func (a *RunsAPI) getRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestID(r)
	if r.Method != http.MethodGet {
		respond.MethodNotAllowed(w, reqID, http.MethodGet)
		return
	}

	rep, err := a.lookup(r.Context(), r.PathValue("id"))
	if err != nil {
		if respond.RunError(w, err, reqID) {
			a.logf("[HTTP] run load failed id=%s err=%v", r.PathValue("id"), err)
		}
		return
	}
	respond.JSON(w, http.StatusOK, rep)
}

// lookup is cache-aside: hits are served from memory, misses are loaded and
// remembered.
func (a *RunsAPI) lookup(ctx context.Context, id string) (repo.RunReport, error) {
	if rep, ok := a.cache.Get(id); ok {
		a.count(ctx, "hit")
		return rep, nil
	}
	a.count(ctx, "miss")

	rep, err := a.repo.GetRun(ctx, id)
	if err != nil {
		return repo.RunReport{}, err
	}
	a.cache.Set(id, rep)
	return rep, nil
}

func (a *RunsAPI) count(ctx context.Context, result string) {
	if a.lookups == nil {
		return
	}
	a.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("cache", result)))
}
