package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrussa/orderbridge/internal/artifact"
	"github.com/mrussa/orderbridge/internal/config"
	"github.com/mrussa/orderbridge/internal/db"
	"github.com/mrussa/orderbridge/internal/everstox"
	"github.com/mrussa/orderbridge/internal/importer"
	"github.com/mrussa/orderbridge/internal/kafka"
	"github.com/mrussa/orderbridge/internal/logger"
	"github.com/mrussa/orderbridge/internal/repo"
	"github.com/mrussa/orderbridge/internal/shopify"
	"github.com/mrussa/orderbridge/internal/telemetry"
)

const serviceName = "orderbridge-importer"

var version = "dev"

type options struct {
	envFile string
	dryRun  bool
	send    bool
	days    int
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("importer", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.envFile, "env", config.DefaultEnvFile, "optional env file")
	fs.BoolVar(&o.dryRun, "dry-run", false, "prepare the request without sending it")
	fs.BoolVar(&o.send, "send", false, "send the prepared request to everstox")
	fs.IntVar(&o.days, "days", 0, "lookback window in days (default from LOOKBACK_DAYS)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.dryRun && o.send {
		return options{}, errors.New("-dry-run and -send are mutually exclusive")
	}
	if o.days < 0 {
		return options{}, fmt.Errorf("-days must be positive, got %d", o.days)
	}
	return o, nil
}

// apply lets flags override the environment.
func (o options) apply(cfg *config.Importer) error {
	switch {
	case o.send:
		cfg.DryRun = false
	case o.dryRun:
		cfg.DryRun = true
	}
	if o.days > 0 {
		cfg.LookbackDays = o.days
	}
	if !cfg.DryRun && cfg.EverstoxAPIToken == "" {
		return errors.New("set EVERSTOX_API_TOKEN to send")
	}
	return nil
}

type output struct {
	RunID          string                    `json:"run_id"`
	Summary        importer.Summary          `json:"summary"`
	ExcludedSample []importer.ExcludedRef    `json:"excluded_sample"`
	Request        *everstox.PreparedRequest `json:"prepared_request,omitempty"`
	Delivered      bool                      `json:"delivered"`
	ArtifactURI    string                    `json:"artifact_uri,omitempty"`
}

// render prints the run result. The prepared request is only shown for dry
// runs.
func render(w io.Writer, res *importer.Result, dryRun bool) error {
	out := output{
		RunID:          res.RunID,
		Summary:        res.Summary,
		ExcludedSample: res.ExcludedSample,
		Delivered:      res.Delivered,
		ArtifactURI:    res.ArtifactURI,
	}
	if dryRun {
		out.Request = &res.Request
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Printf("[IMPORT] %v", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := config.LoadFrom(opts.envFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := opts.apply(&cfg); err != nil {
		return err
	}
	rules, err := cfg.Rules()
	if err != nil {
		return err
	}

	zl := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = zl.Sync() }()
	logf := logger.Printf(zl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, version, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logf("[OTEL] tracer shutdown: %v", err)
		}
	}()

	im := importer.New(importer.Settings{
		Rules:          rules,
		ShopInstanceID: cfg.EverstoxShopID,
		APIHost:        cfg.EverstoxAPIHost,
		LookbackDays:   cfg.LookbackDays,
		DryRun:         cfg.DryRun,
	}, importer.ShopifySource(cfg.ShopifyStore, cfg.ShopifyToken, cfg.ShopifyAPIVersion, shopify.WithLogf(logf)))
	im.Logf = logf

	if !cfg.DryRun {
		s := everstox.NewSender(cfg.EverstoxAPIToken, nil)
		s.Logf = logf
		im.Sender = s
	}

	if cfg.PostgresDSN != "" {
		pool, err := db.Open(ctx, cfg.PostgresDSN, logf)
		if err != nil {
			return err
		}
		defer pool.Close()
		im.Reports = repo.NewRunsRepo(pool)
	}

	if len(cfg.KafkaBrokers) > 0 {
		pub, err := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logf)
		if err != nil {
			return err
		}
		defer func() { _ = pub.Close() }()
		im.Publisher = pub
	}

	if cfg.Artifact.Bucket != "" {
		store, err := artifact.New(ctx, artifact.Config{
			Bucket:    cfg.Artifact.Bucket,
			Prefix:    cfg.Artifact.Prefix,
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
		}, logf)
		if err != nil {
			return err
		}
		im.Artifacts = store
	}

	res, err := im.Run(ctx)
	if err != nil {
		return err
	}
	return render(stdout, res, cfg.DryRun)
}
