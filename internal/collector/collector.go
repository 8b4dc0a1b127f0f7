package collector

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

// DefaultPageSize is the fixed page size portals are queried with.
const DefaultPageSize = 50

// Fetch stages reported on failure.
const (
	StageLocations = "locations"
	StagePrograms  = "programs"
	StageItems     = "items"
)

// Collected is a normalized portal item with its provenance.
type Collected struct {
	Key        string
	SourceID   string
	LocationID string
	Type       string
	Title      string
	Date       time.Time
	Time       string
	Price      *float64
	URL        string
	SoldOut    bool
}

// Result is the merged output of one collection.
type Result struct {
	Events          []Collected
	PerSourceCounts map[string]int
}

// MetricsRecorder receives collection counters.
type MetricsRecorder interface {
	RecordCollected(source string, count int)
	RecordSourceFailure(source, stage string)
}

// Options configures a Collector.
type Options struct {
	PageSize int
	Parallel bool
	Logger   *zap.Logger
	Metrics  MetricsRecorder
}

// Collector pages every portal to exhaustion and merges the results.
type Collector struct {
	pageSize int
	parallel bool
	logger   *zap.Logger
	metrics  MetricsRecorder
}

// New constructs a Collector.
func New(opts Options) *Collector {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Collector{pageSize: opts.PageSize, parallel: opts.Parallel, logger: opts.Logger, metrics: opts.Metrics}
}

type sourceOutcome struct {
	items []Collected
	err   error
}

// Collect fetches every portal. A failing source contributes zero items and never aborts the
// others. An empty filter list collects every program.
func (c *Collector) Collect(ctx context.Context, portals []Portal, filters []ProgramFilter) Result {
	outcomes := make([]sourceOutcome, len(portals))
	if c.parallel {
		var wg sync.WaitGroup
		for i, portal := range portals {
			wg.Add(1)
			go func(i int, portal Portal) {
				defer wg.Done()
				outcomes[i] = c.collectSource(ctx, portal, filters)
			}(i, portal)
		}
		wg.Wait()
	} else {
		for i, portal := range portals {
			outcomes[i] = c.collectSource(ctx, portal, filters)
		}
	}

	result := Result{PerSourceCounts: make(map[string]int, len(portals))}
	seenKeys := map[string]struct{}{}
	seenURLs := map[string]struct{}{}
	for i, portal := range portals {
		outcome := outcomes[i]
		if outcome.err != nil {
			if _, ok := result.PerSourceCounts[portal.ID()]; !ok {
				result.PerSourceCounts[portal.ID()] = 0
			}
			continue
		}
		added := 0
		for _, item := range outcome.items {
			if _, dup := seenKeys[item.Key]; dup {
				continue
			}
			if item.URL != "" {
				if _, dup := seenURLs[item.URL]; dup {
					continue
				}
				seenURLs[item.URL] = struct{}{}
			}
			seenKeys[item.Key] = struct{}{}
			result.Events = append(result.Events, item)
			added++
		}
		result.PerSourceCounts[portal.ID()] += added
		if c.metrics != nil {
			c.metrics.RecordCollected(portal.ID(), added)
		}
	}
	return result
}

func (c *Collector) collectSource(ctx context.Context, portal Portal, filters []ProgramFilter) sourceOutcome {
	sourceID := portal.ID()
	fail := func(stage string, err error) sourceOutcome {
		c.logger.Warn("collector source failed",
			zap.String("source", sourceID),
			zap.String("stage", stage),
			zap.Error(err),
		)
		if c.metrics != nil {
			c.metrics.RecordSourceFailure(sourceID, stage)
		}
		return sourceOutcome{err: err}
	}

	locations, err := portal.Locations(ctx)
	if err != nil {
		return fail(StageLocations, err)
	}

	var items []Collected
	for _, location := range locations {
		programs, err := portal.Programs(ctx, location.ID)
		if err != nil {
			return fail(StagePrograms, err)
		}
		for _, program := range programs {
			eventType, ok := selectProgram(program.Name, filters)
			if !ok {
				continue
			}
			for page := 1; ; page++ {
				batch, err := portal.Items(ctx, location.ID, program.ID, page, c.pageSize)
				if err != nil {
					return fail(StageItems, err)
				}
				for _, item := range batch {
					collected, ok := c.normalize(sourceID, location.ID, eventType, item)
					if ok {
						items = append(items, collected)
					}
				}
				if len(batch) < c.pageSize {
					break
				}
			}
		}
	}

	c.logger.Debug("collector source finished", zap.String("source", sourceID), zap.Int("items", len(items)))
	return sourceOutcome{items: items}
}

func (c *Collector) normalize(sourceID, locationID, eventType string, item Item) (Collected, bool) {
	date, err := parseItemDate(item.Date)
	if err != nil {
		c.logger.Warn("collector item skipped",
			zap.String("source", sourceID),
			zap.String("item_id", item.ID),
			zap.Error(err),
		)
		return Collected{}, false
	}
	return Collected{
		Key:        NaturalKey(sourceID, item.ID),
		SourceID:   sourceID,
		LocationID: locationID,
		Type:       eventType,
		Title:      strings.TrimSpace(item.Title),
		Date:       date,
		Time:       strings.TrimSpace(item.Time),
		Price:      item.Price,
		URL:        strings.TrimSpace(item.URL),
		SoldOut:    item.SoldOut,
	}, true
}

// NaturalKey joins the source and remote item id into the store-side dedup key.
func NaturalKey(sourceID, itemID string) string {
	return sourceID + ":" + itemID
}

// selectProgram applies the keyword filters to a program name and returns the event type its
// items are stored as.
func selectProgram(name string, filters []ProgramFilter) (string, bool) {
	if len(filters) == 0 {
		return models.NormalizeProgram(name), true
	}
	lower := strings.ToLower(name)
	for _, filter := range filters {
		keyword := strings.ToLower(strings.TrimSpace(filter.Keyword))
		if keyword == "" || !strings.Contains(lower, keyword) {
			continue
		}
		if strings.TrimSpace(filter.EventType) != "" {
			return models.NormalizeProgram(filter.EventType), true
		}
		return models.NormalizeProgram(name), true
	}
	return "", false
}

func parseItemDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(models.DateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
