// Package importer runs one import: fetch recent orders, filter and enrich
// them, transform them into everstox orders and prepare the import request.
package importer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrussa/orderbridge/internal/everstox"
	"github.com/mrussa/orderbridge/internal/filter"
	"github.com/mrussa/orderbridge/internal/repo"
	"github.com/mrussa/orderbridge/internal/shopify"
	"github.com/mrussa/orderbridge/internal/tags"
)

const sampleSize = 5

var tracer = otel.Tracer("orderbridge/importer")

type Settings struct {
	Rules          tags.Rules
	ShopInstanceID string
	APIHost        string
	LookbackDays   int
	DryRun         bool
}

// OrderSource is the scoped connection to the shop; the importer closes it
// on every path once fetching is done.
type OrderSource interface {
	FetchRecentOrders(ctx context.Context, days int) ([]shopify.Order, error)
	Close() error
}

type SourceFactory func(ctx context.Context) (OrderSource, error)

type Sender interface {
	Send(ctx context.Context, pr everstox.PreparedRequest) (int, error)
}

type ReportStore interface {
	SaveRun(ctx context.Context, r repo.RunReport) error
}

type Publisher interface {
	PublishOrders(ctx context.Context, runID string, orders []everstox.Order) (int, error)
}

type ArtifactStore interface {
	PutRequest(ctx context.Context, runID string, pr everstox.PreparedRequest) (string, error)
}

type Summary struct {
	FetchedTotal     int                          `json:"fetched_total"`
	EligibleTotal    int                          `json:"eligible_total"`
	ExcludedTotal    int                          `json:"excluded_total"`
	ExclusionReasons map[filter.ExcludeReason]int `json:"exclusion_reasons,omitempty"`
}

type ExcludedRef struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	Reason filter.ExcludeReason `json:"reason"`
}

type Result struct {
	RunID          string                   `json:"run_id"`
	Summary        Summary                  `json:"summary"`
	Request        everstox.PreparedRequest `json:"prepared_request"`
	ExcludedSample []ExcludedRef            `json:"excluded_sample"`
	Delivered      bool                     `json:"delivered"`
	ArtifactURI    string                   `json:"artifact_uri,omitempty"`
}

type Importer struct {
	Settings Settings
	Open     SourceFactory

	Sender    Sender
	Reports   ReportStore
	Publisher Publisher
	Artifacts ArtifactStore

	Logf  func(string, ...any)
	now   func() time.Time
	newID func() string
}

func New(s Settings, open SourceFactory) *Importer {
	return &Importer{
		Settings: s,
		Open:     open,
		Logf:     log.Printf,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (im *Importer) Run(ctx context.Context) (res *Result, err error) {
	runID := im.newID()
	started := im.now()

	ctx, span := tracer.Start(ctx, "import.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Bool("run.dry_run", im.Settings.DryRun),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	orders, err := im.fetch(ctx)
	if err != nil {
		return nil, err
	}

	_, fspan := tracer.Start(ctx, "import.filter")
	included, excluded := filter.Split(orders, im.Settings.Rules)
	fspan.SetAttributes(attribute.Int("orders.included", len(included)), attribute.Int("orders.excluded", len(excluded)))
	fspan.End()

	shopID := everstox.ShopInstanceID(im.Settings.ShopInstanceID)
	_, tspan := tracer.Start(ctx, "import.transform")
	payload := everstox.ToPayload(included, shopID)
	req := everstox.BuildRequest(im.Settings.APIHost, shopID, payload)
	tspan.End()

	res = &Result{
		RunID:          runID,
		Summary:        Summarize(included, excluded),
		Request:        req,
		ExcludedSample: Sample(excluded, sampleSize),
	}
	im.Logf("[IMPORT] run=%s fetched=%d eligible=%d excluded=%d",
		runID, res.Summary.FetchedTotal, res.Summary.EligibleTotal, res.Summary.ExcludedTotal)

	if !im.Settings.DryRun && im.Sender != nil {
		if err := im.deliver(ctx, req); err != nil {
			return nil, err
		}
		res.Delivered = true
	}

	im.sinks(ctx, res, payload, started)
	return res, nil
}

func (im *Importer) fetch(ctx context.Context) ([]shopify.Order, error) {
	ctx, span := tracer.Start(ctx, "import.fetch")
	defer span.End()

	src, err := im.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			im.Logf("[IMPORT] close source: %v", cerr)
		}
	}()

	orders, err := src.FetchRecentOrders(ctx, im.Settings.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	span.SetAttributes(attribute.Int("orders.fetched", len(orders)))
	return orders, nil
}

func (im *Importer) deliver(ctx context.Context, req everstox.PreparedRequest) error {
	ctx, span := tracer.Start(ctx, "import.send")
	defer span.End()

	status, err := im.Sender.Send(ctx, req)
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	if err != nil {
		return fmt.Errorf("send to everstox: %w", err)
	}
	return nil
}

// sinks records the run. Failures are logged; the run already succeeded.
func (im *Importer) sinks(ctx context.Context, res *Result, payload []everstox.Order, started time.Time) {
	if im.Artifacts != nil {
		uri, err := im.Artifacts.PutRequest(ctx, res.RunID, res.Request)
		if err != nil {
			im.Logf("[IMPORT] artifact: %v", err)
		} else {
			res.ArtifactURI = uri
		}
	}

	if im.Publisher != nil {
		if _, err := im.Publisher.PublishOrders(ctx, res.RunID, payload); err != nil {
			im.Logf("[IMPORT] publish: %v", err)
		}
	}

	if im.Reports != nil {
		if err := im.Reports.SaveRun(ctx, Report(res, im.Settings.DryRun, started, im.now())); err != nil {
			im.Logf("[IMPORT] save report: %v", err)
		}
	}
}

// Summarize counts the verdicts. Reasons are only set when something was
// excluded.
func Summarize(included, excluded []filter.EnrichedOrder) Summary {
	return Summary{
		FetchedTotal:     len(included) + len(excluded),
		EligibleTotal:    len(included),
		ExcludedTotal:    len(excluded),
		ExclusionReasons: filter.CountReasons(excluded),
	}
}

func Sample(excluded []filter.EnrichedOrder, n int) []ExcludedRef {
	out := make([]ExcludedRef, 0, min(n, len(excluded)))
	for _, e := range excluded[:min(n, len(excluded))] {
		out = append(out, ExcludedRef{ID: e.ID, Name: e.Name, Reason: e.ExcludeReason})
	}
	return out
}

// Report flattens a result into the stored audit record.
func Report(res *Result, dryRun bool, started, finished time.Time) repo.RunReport {
	r := repo.RunReport{
		RunID:          res.RunID,
		StartedAt:      started,
		FinishedAt:     finished,
		DryRun:         dryRun,
		FetchedTotal:   res.Summary.FetchedTotal,
		EligibleTotal:  res.Summary.EligibleTotal,
		ExcludedTotal:  res.Summary.ExcludedTotal,
		ExcludedSample: make([]repo.ExcludedOrder, 0, len(res.ExcludedSample)),
		TargetURL:      res.Request.URL,
		PayloadOrders:  len(res.Request.Body),
		Delivered:      res.Delivered,
		ArtifactURI:    res.ArtifactURI,
	}
	if len(res.Summary.ExclusionReasons) > 0 {
		r.ExclusionReasons = make(map[string]int, len(res.Summary.ExclusionReasons))
		for reason, n := range res.Summary.ExclusionReasons {
			r.ExclusionReasons[reason.String()] = n
		}
	}
	for _, e := range res.ExcludedSample {
		r.ExcludedSample = append(r.ExcludedSample, repo.ExcludedOrder{OrderID: e.ID, Name: e.Name, Reason: e.Reason.String()})
	}
	return r
}
