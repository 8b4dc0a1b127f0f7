package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gym-ops-api/internal/collector"
	"github.com/noah-isme/gym-ops-api/internal/models"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
	"github.com/noah-isme/gym-ops-api/pkg/jobs"
)

type runRepoStub struct {
	runs     map[string]models.CollectionRun
	running  []string
	finished []models.CollectionRun
}

func newRunRepo() *runRepoStub {
	return &runRepoStub{runs: map[string]models.CollectionRun{}}
}

func (r *runRepoStub) Create(ctx context.Context, run *models.CollectionRun) error {
	run.ID = uuid.NewString()
	run.Status = models.CollectionRunQueued
	r.runs[run.ID] = *run
	return nil
}

func (r *runRepoStub) MarkRunning(ctx context.Context, id string, startedAt time.Time) error {
	run, ok := r.runs[id]
	if !ok {
		return sql.ErrNoRows
	}
	run.Status = models.CollectionRunRunning
	run.StartedAt = &startedAt
	r.runs[id] = run
	r.running = append(r.running, id)
	return nil
}

func (r *runRepoStub) Finish(ctx context.Context, run *models.CollectionRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.runs[run.ID] = *run
	r.finished = append(r.finished, *run)
	return nil
}

func (r *runRepoStub) FindByID(ctx context.Context, id string) (*models.CollectionRun, error) {
	run, ok := r.runs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &run, nil
}

func (r *runRepoStub) ListRecent(ctx context.Context, limit int) ([]models.CollectionRun, error) {
	out := make([]models.CollectionRun, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, run)
	}
	return out, nil
}

type collectorStub struct {
	result collector.Result
	calls  int
	// untilDone makes Collect wait for its context to end, like a stalled portal.
	untilDone bool
}

func (c *collectorStub) Collect(ctx context.Context, portals []collector.Portal, filters []collector.ProgramFilter) collector.Result {
	c.calls++
	if c.untilDone {
		<-ctx.Done()
	}
	return c.result
}

type reconcilerStub struct {
	result collector.ReconcileResult
	err    error
	items  []collector.Collected
}

func (r *reconcilerStub) Reconcile(ctx context.Context, items []collector.Collected) (collector.ReconcileResult, error) {
	if err := ctx.Err(); err != nil {
		return collector.ReconcileResult{}, err
	}
	r.items = items
	return r.result, r.err
}

type notifierStub struct {
	runs []models.CollectionRun
	err  error
}

func (n *notifierStub) CollectionFinished(ctx context.Context, run models.CollectionRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.runs = append(n.runs, run)
	return n.err
}

type dispatcherStub struct {
	handlers map[string]jobs.Handler
	enqueued []jobs.Job
	err      error
}

func (d *dispatcherStub) Register(jobType string, handler jobs.Handler) {
	if d.handlers == nil {
		d.handlers = map[string]jobs.Handler{}
	}
	d.handlers[jobType] = handler
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.enqueued = append(d.enqueued, job)
	return nil
}

type namedPortal struct{ id string }

func (p namedPortal) ID() string { return p.id }
func (p namedPortal) Locations(ctx context.Context) ([]collector.Location, error) {
	return nil, nil
}
func (p namedPortal) Programs(ctx context.Context, locationID string) ([]collector.Program, error) {
	return nil, nil
}
func (p namedPortal) Items(ctx context.Context, locationID, programID string, page, pageSize int) ([]collector.Item, error) {
	return nil, nil
}

type collectorHarness struct {
	runs       *runRepoStub
	collector  *collectorStub
	reconciler *reconcilerStub
	notifier   *notifierStub
	queue      *dispatcherStub
	cache      *memoryCache
	metrics    *MetricsService
	service    *CollectorService
}

func newCollectorHarness() *collectorHarness {
	h := &collectorHarness{
		runs: newRunRepo(),
		collector: &collectorStub{result: collector.Result{
			Events: []collector.Collected{
				{Key: "portal-west:1", SourceID: "portal-west", LocationID: "loc-1"},
				{Key: "portal-west:2", SourceID: "portal-west", LocationID: "loc-1"},
			},
			PerSourceCounts: map[string]int{"portal-west": 2, "portal-east": 0},
		}},
		reconciler: &reconcilerStub{result: collector.ReconcileResult{Inserted: 1, Existing: 0, Dropped: 1}},
		notifier:   &notifierStub{},
		queue:      &dispatcherStub{},
		cache:      newMemoryCache(),
		metrics:    NewMetricsService(),
	}
	h.service = NewCollectorService(CollectorServiceOptions{
		Runs:       h.runs,
		Collector:  h.collector,
		Reconciler: h.reconciler,
		Portals:    []collector.Portal{namedPortal{id: "portal-west"}, namedPortal{id: "portal-east"}},
		Queue:      h.queue,
		Notifier:   h.notifier,
		Cache:      NewCacheService(h.cache, nil, time.Minute, nil, true),
		Metrics:    h.metrics,
	})
	return h
}

func TestCollectorServiceTriggerRunsThroughQueue(t *testing.T) {
	h := newCollectorHarness()
	_ = h.cache.Set(context.Background(), "compliance:CCP:2025-03:2025-03-15", "cached", time.Minute)

	run, err := h.service.Trigger(context.Background(), true, "admin:1")
	require.NoError(t, err)
	assert.Equal(t, models.CollectionRunQueued, run.Status)
	require.Len(t, h.queue.enqueued, 1)

	handler := h.queue.handlers[JobTypeCollection]
	require.NotNil(t, handler)
	require.NoError(t, handler(context.Background(), h.queue.enqueued[0]))

	stored, err := h.service.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectionRunFinished, stored.Status)
	assert.Equal(t, 2, stored.CollectedCount)
	assert.Equal(t, 1, stored.InsertedCount)
	assert.Equal(t, 1, stored.DroppedCount)
	assert.Equal(t, map[string]int{"portal-west": 2, "portal-east": 0}, stored.Counts())
	assert.Equal(t, []string{run.ID}, h.runs.running)
	assert.Len(t, h.reconciler.items, 2)
	require.Len(t, h.notifier.runs, 1)
	assert.Equal(t, run.ID, h.notifier.runs[0].ID)
	assert.Empty(t, h.cache.keys())

	snapshot := h.metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.ReconcileInserted)
	assert.Equal(t, uint64(1), snapshot.ReconcileDropped)
}

func TestCollectorServiceCollectOnlySkipsReconcile(t *testing.T) {
	h := newCollectorHarness()
	run := &models.CollectionRun{Reconcile: false}
	require.NoError(t, h.runs.Create(context.Background(), run))

	require.NoError(t, h.service.Execute(context.Background(), run))
	assert.Nil(t, h.reconciler.items)
	assert.Equal(t, models.CollectionRunFinished, h.runs.runs[run.ID].Status)
	assert.Zero(t, h.runs.runs[run.ID].InsertedCount)
}

func TestCollectorServiceRecordsOutcomeAfterRunTimeout(t *testing.T) {
	h := newCollectorHarness()
	h.collector.untilDone = true
	h.service.runTimeout = 20 * time.Millisecond
	run := &models.CollectionRun{Reconcile: true}
	require.NoError(t, h.runs.Create(context.Background(), run))

	require.NoError(t, h.service.Execute(context.Background(), run))
	stored := h.runs.runs[run.ID]
	assert.Equal(t, models.CollectionRunFinished, stored.Status)
	assert.Equal(t, 2, stored.CollectedCount)
	assert.Equal(t, 1, stored.InsertedCount)
	assert.Len(t, h.reconciler.items, 2)
	require.Len(t, h.notifier.runs, 1)
	assert.Equal(t, run.ID, h.notifier.runs[0].ID)
}

func TestCollectorServiceReconcileFailureFailsRun(t *testing.T) {
	h := newCollectorHarness()
	h.reconciler.err = errors.New("list source accounts: db down")
	run := &models.CollectionRun{Reconcile: true}
	require.NoError(t, h.runs.Create(context.Background(), run))

	err := h.service.Execute(context.Background(), run)
	require.Error(t, err)
	stored := h.runs.runs[run.ID]
	assert.Equal(t, models.CollectionRunFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "db down")
	require.Len(t, h.notifier.runs, 1)
	assert.Equal(t, models.CollectionRunFailed, h.notifier.runs[0].Status)
}

func TestCollectorServiceNotificationFailureDoesNotFailRun(t *testing.T) {
	h := newCollectorHarness()
	h.notifier.err = errors.New("broker down")
	run := &models.CollectionRun{Reconcile: true}
	require.NoError(t, h.runs.Create(context.Background(), run))

	require.NoError(t, h.service.Execute(context.Background(), run))
	assert.Equal(t, models.CollectionRunFinished, h.runs.runs[run.ID].Status)
}

func TestCollectorServiceTriggerWhenQueueFull(t *testing.T) {
	h := newCollectorHarness()
	h.queue.err = errors.New("queue collector is full")

	_, err := h.service.Trigger(context.Background(), true, "admin:1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, errorCode(err))
	require.Len(t, h.runs.finished, 1)
	assert.Equal(t, models.CollectionRunFailed, h.runs.finished[0].Status)
}

func TestCollectorServiceRequiresSources(t *testing.T) {
	svc := NewCollectorService(CollectorServiceOptions{Runs: newRunRepo(), Queue: &dispatcherStub{}})
	_, err := svc.Trigger(context.Background(), true, "admin:1")
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}

func TestCollectorServiceGetMissingRun(t *testing.T) {
	h := newCollectorHarness()
	_, err := h.service.Get(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
}

func TestCollectorServiceScheduleDisabled(t *testing.T) {
	h := newCollectorHarness()
	done := make(chan struct{})
	go func() {
		h.service.Schedule(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("schedule with zero interval should return immediately")
	}
}

func TestCollectorServiceScheduleTriggersRuns(t *testing.T) {
	queue := &dispatcherStub{}
	svc := NewCollectorService(CollectorServiceOptions{
		Runs:     newRunRepo(),
		Portals:  []collector.Portal{namedPortal{id: "portal-west"}},
		Queue:    queue,
		Interval: 10 * time.Millisecond,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	svc.Schedule(ctx)
	assert.NotEmpty(t, queue.enqueued)
}
