package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/gym-ops-api/internal/collector"
	"github.com/noah-isme/gym-ops-api/internal/models"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
	"github.com/noah-isme/gym-ops-api/pkg/jobs"
	"github.com/noah-isme/gym-ops-api/pkg/middleware/requestid"
)

// JobTypeCollection routes collection runs on the job queue.
const JobTypeCollection = "collection_run"

// SchedulerActor requests the periodic runs.
const SchedulerActor = "scheduler"

// CollectionRunRepository persists run records.
type CollectionRunRepository interface {
	Create(ctx context.Context, run *models.CollectionRun) error
	MarkRunning(ctx context.Context, id string, startedAt time.Time) error
	Finish(ctx context.Context, run *models.CollectionRun) error
	FindByID(ctx context.Context, id string) (*models.CollectionRun, error)
	ListRecent(ctx context.Context, limit int) ([]models.CollectionRun, error)
}

type eventCollector interface {
	Collect(ctx context.Context, portals []collector.Portal, filters []collector.ProgramFilter) collector.Result
}

type eventReconciler interface {
	Reconcile(ctx context.Context, items []collector.Collected) (collector.ReconcileResult, error)
}

type runNotifier interface {
	CollectionFinished(ctx context.Context, run models.CollectionRun) error
}

type jobDispatcher interface {
	Register(jobType string, handler jobs.Handler)
	Enqueue(job jobs.Job) error
}

// CollectorServiceOptions wires a CollectorService.
type CollectorServiceOptions struct {
	Runs       CollectionRunRepository
	Collector  eventCollector
	Reconciler eventReconciler
	Portals    []collector.Portal
	Filters    []collector.ProgramFilter
	Queue      jobDispatcher
	Notifier   runNotifier
	Cache      *CacheService
	Metrics    *MetricsService
	Interval   time.Duration
	RunTimeout time.Duration
	// RecordTimeout bounds reconciliation and outcome recording after collection ends.
	RecordTimeout time.Duration
	Logger        *zap.Logger
}

// CollectorService runs collections asynchronously and records their outcome.
type CollectorService struct {
	runs       CollectionRunRepository
	collector  eventCollector
	reconciler eventReconciler
	portals    []collector.Portal
	filters    []collector.ProgramFilter
	queue      jobDispatcher
	notifier   runNotifier
	cache      *CacheService
	metrics    *MetricsService
	interval      time.Duration
	runTimeout    time.Duration
	recordTimeout time.Duration
	logger        *zap.Logger
}

// NewCollectorService constructs the service and registers its job handler on the queue.
func NewCollectorService(opts CollectorServiceOptions) *CollectorService {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 15 * time.Minute
	}
	if opts.RecordTimeout <= 0 {
		opts.RecordTimeout = time.Minute
	}
	s := &CollectorService{
		runs:       opts.Runs,
		collector:  opts.Collector,
		reconciler: opts.Reconciler,
		portals:    opts.Portals,
		filters:    opts.Filters,
		queue:      opts.Queue,
		notifier:   opts.Notifier,
		cache:      opts.Cache,
		metrics:    opts.Metrics,
		interval:      opts.Interval,
		runTimeout:    opts.RunTimeout,
		recordTimeout: opts.RecordTimeout,
		logger:        opts.Logger,
	}
	if s.queue != nil {
		s.queue.Register(JobTypeCollection, s.handleJob)
	}
	return s
}

// Trigger records a queued run and hands it to the job queue.
func (s *CollectorService) Trigger(ctx context.Context, reconcile bool, actor string) (*models.CollectionRun, error) {
	if len(s.portals) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no collector sources configured")
	}
	run := &models.CollectionRun{Reconcile: reconcile, RequestedBy: actor}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create collection run")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: JobTypeCollection, Payload: run.ID}); err != nil {
		message := err.Error()
		run.Status = models.CollectionRunFailed
		run.ErrorMessage = &message
		if finishErr := s.runs.Finish(ctx, run); finishErr != nil {
			s.logger.Warn("failed to record rejected run", zap.String("run_id", run.ID), zap.Error(finishErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "collector is busy, try again later")
	}
	s.logger.Info("collection run queued", zap.String("run_id", run.ID), zap.Bool("reconcile", reconcile), zap.String("actor", actor), zap.String("request_id", requestid.FromContext(ctx)))
	return run, nil
}

// Get returns one run.
func (s *CollectorService) Get(ctx context.Context, id string) (*models.CollectionRun, error) {
	run, err := s.runs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "collection run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load collection run")
	}
	return run, nil
}

// List returns the most recent runs.
func (s *CollectorService) List(ctx context.Context, limit int) ([]models.CollectionRun, error) {
	runs, err := s.runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list collection runs")
	}
	return runs, nil
}

// Schedule triggers a reconciling run every interval until ctx is cancelled. A zero interval
// disables the schedule.
func (s *CollectorService) Schedule(ctx context.Context) {
	if s.interval <= 0 || len(s.portals) == 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.logger.Info("collector schedule started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Trigger(ctx, true, SchedulerActor); err != nil {
				s.logger.Warn("scheduled collection not queued", zap.Error(err))
			}
		}
	}
}

func (s *CollectorService) handleJob(ctx context.Context, job jobs.Job) error {
	runID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("collection job %s: unexpected payload %T", job.ID, job.Payload)
	}
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("load collection run %s: %w", runID, err)
	}
	return s.Execute(ctx, run)
}

// Execute performs a run end to end: collect, optionally reconcile, then record and announce
// the outcome. Source failures only zero their count; a reconciliation failure fails the run.
// Collection is bounded by the run timeout; everything after it runs on a detached context
// with its own deadline so the outcome is recorded even when collection used up the budget.
func (s *CollectorService) Execute(ctx context.Context, run *models.CollectionRun) error {
	collectCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	if err := s.runs.MarkRunning(collectCtx, run.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark collection run %s running: %w", run.ID, err)
	}

	result := s.collector.Collect(collectCtx, s.portals, s.filters)
	if errors.Is(collectCtx.Err(), context.DeadlineExceeded) {
		s.logger.Warn("collection run hit its timeout, recording partial results", zap.String("run_id", run.ID), zap.Duration("timeout", s.runTimeout))
	}

	ctx, cancelRecord := context.WithTimeout(context.WithoutCancel(ctx), s.recordTimeout)
	defer cancelRecord()

	run.CollectedCount = len(result.Events)
	if counts, err := json.Marshal(result.PerSourceCounts); err == nil {
		run.SourceCounts = types.JSONText(counts)
	}
	run.Status = models.CollectionRunFinished

	var runErr error
	if run.Reconcile {
		reconciled, err := s.reconciler.Reconcile(ctx, result.Events)
		if err != nil {
			runErr = err
			message := err.Error()
			run.Status = models.CollectionRunFailed
			run.ErrorMessage = &message
		} else {
			run.InsertedCount = reconciled.Inserted
			run.DroppedCount = reconciled.Dropped
			s.metrics.RecordReconcile(reconciled.Inserted, reconciled.Dropped)
			if reconciled.Inserted > 0 {
				s.cache.InvalidateCompliance(ctx)
			}
		}
	}

	if err := s.runs.Finish(ctx, run); err != nil {
		return fmt.Errorf("finish collection run %s: %w", run.ID, err)
	}
	if s.notifier != nil {
		if err := s.notifier.CollectionFinished(ctx, *run); err != nil {
			s.logger.Warn("collection run notification failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
	s.logger.Info("collection run finished",
		zap.String("run_id", run.ID),
		zap.String("status", string(run.Status)),
		zap.Int("collected", run.CollectedCount),
		zap.Int("inserted", run.InsertedCount),
		zap.Int("dropped", run.DroppedCount),
	)
	return runErr
}
