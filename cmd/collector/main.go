package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gym-ops-api/internal/collector"
	"github.com/noah-isme/gym-ops-api/internal/repository"
	"github.com/noah-isme/gym-ops-api/internal/service"
	"github.com/noah-isme/gym-ops-api/pkg/cache"
	"github.com/noah-isme/gym-ops-api/pkg/config"
	"github.com/noah-isme/gym-ops-api/pkg/database"
	"github.com/noah-isme/gym-ops-api/pkg/logger"
)

type summary struct {
	Sources   map[string]int `json:"sources"`
	Collected int            `json:"collected"`
	Failures  uint64         `json:"failures"`
	Reconcile *reconcileSum  `json:"reconcile,omitempty"`
}

type reconcileSum struct {
	Inserted int `json:"inserted"`
	Existing int `json:"existing"`
	Dropped  int `json:"dropped"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var (
		sourcesPath string
		reconcile   bool
		timeout     time.Duration
		asJSON      bool
	)
	flag.StringVar(&sourcesPath, "sources", cfg.Collector.SourcesFile, "Path to the YAML sources file")
	flag.BoolVar(&reconcile, "reconcile", false, "Insert collected events into the store")
	flag.DurationVar(&timeout, "timeout", 10*time.Minute, "Overall collection timeout")
	flag.BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	flag.Parse()

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	sources, err := collector.LoadSources(sourcesPath)
	if err != nil {
		logr.Fatal("failed to load sources", zap.String("file", sourcesPath), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	metrics := service.NewMetricsService()
	portals := sources.HTTPPortals(collector.HTTPOptions{
		Timeout:    cfg.Collector.HTTPTimeout,
		MaxRetries: cfg.Collector.MaxRetries,
		Backoff:    cfg.Collector.Backoff,
		MaxBackoff: cfg.Collector.MaxBackoff,
	})
	c := collector.New(collector.Options{
		PageSize: cfg.Collector.PageSize,
		Parallel: cfg.Collector.Parallel,
		Logger:   logr,
		Metrics:  metrics,
	})

	result := c.Collect(ctx, portals, sources.ProgramFilters)
	out := summary{Sources: result.PerSourceCounts, Collected: len(result.Events), Failures: metrics.Snapshot().SourceFailures}

	if reconcile {
		reconciled, err := reconcileInto(ctx, cfg, logr, result.Events)
		if err != nil {
			logr.Fatal("reconcile failed", zap.Error(err))
		}
		out.Reconcile = reconciled
	}

	if err := printSummary(os.Stdout, out, asJSON); err != nil {
		logr.Fatal("failed to print summary", zap.Error(err))
	}
	if len(portals) > 0 && out.Failures >= uint64(len(portals)) {
		os.Exit(1)
	}
}

func reconcileInto(ctx context.Context, cfg *config.Config, logr *zap.Logger, items []collector.Collected) (*reconcileSum, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	reconciler := collector.NewReconciler(repository.NewReferenceRepository(db), repository.NewEventRepository(db), logr)
	result, err := reconciler.Reconcile(ctx, items)
	if err != nil {
		return nil, err
	}

	if result.Inserted > 0 {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, compliance cache not invalidated", zap.Error(err))
		}
		cacheRepo := repository.NewCacheRepository(client, logr)
		defer cacheRepo.Close() //nolint:errcheck
		service.NewCacheService(cacheRepo, nil, cfg.Compliance.CacheTTL, logr, client != nil).InvalidateCompliance(ctx)
	}
	return &reconcileSum{Inserted: result.Inserted, Existing: result.Existing, Dropped: result.Dropped}, nil
}

func printSummary(w io.Writer, out summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	ids := make([]string, 0, len(out.Sources))
	for id := range out.Sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tITEMS")
	for _, id := range ids {
		fmt.Fprintf(tw, "%s\t%d\n", id, out.Sources[id])
	}
	fmt.Fprintf(tw, "total\t%d\n", out.Collected)
	if out.Failures > 0 {
		fmt.Fprintf(tw, "failed sources\t%d\n", out.Failures)
	}
	if out.Reconcile != nil {
		fmt.Fprintf(tw, "inserted\t%d\n", out.Reconcile.Inserted)
		fmt.Fprintf(tw, "existing\t%d\n", out.Reconcile.Existing)
		fmt.Fprintf(tw, "dropped\t%d\n", out.Reconcile.Dropped)
	}
	return tw.Flush()
}
