package collector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

// ReconcileActor is recorded as the author of audit entries written by reconciliation.
const ReconcileActor = "collector"

// AccountLister resolves portal accounts to gyms.
type AccountLister interface {
	ListSourceAccounts(ctx context.Context) ([]models.SourceAccount, error)
}

// EventInserter stores events that are not present yet and returns only the new rows.
type EventInserter interface {
	InsertIfAbsent(ctx context.Context, events []models.Event, actor string) ([]models.Event, error)
}

// ReconcileResult summarises one reconciliation.
type ReconcileResult struct {
	Inserted int
	Existing int
	Dropped  int
	Events   []models.Event
}

// Reconciler maps collected items to gyms and inserts them. Existing rows are authoritative
// and never updated.
type Reconciler struct {
	accounts AccountLister
	events   EventInserter
	logger   *zap.Logger
}

// NewReconciler constructs a Reconciler.
func NewReconciler(accounts AccountLister, events EventInserter, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{accounts: accounts, events: events, logger: logger}
}

// Reconcile drops items without an account mapping and inserts the rest in one batch.
func (r *Reconciler) Reconcile(ctx context.Context, items []Collected) (ReconcileResult, error) {
	accounts, err := r.accounts.ListSourceAccounts(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("list source accounts: %w", err)
	}
	gymByAccount := make(map[string]string, len(accounts))
	for _, account := range accounts {
		gymByAccount[accountKey(account.SourceID, account.LocationID)] = account.GymID
	}

	var result ReconcileResult
	events := make([]models.Event, 0, len(items))
	for _, item := range items {
		gymID, ok := gymByAccount[accountKey(item.SourceID, item.LocationID)]
		if !ok {
			result.Dropped++
			continue
		}
		externalID := item.Key
		events = append(events, models.Event{
			GymID:      gymID,
			Type:       item.Type,
			Title:      item.Title,
			Date:       item.Date,
			Time:       item.Time,
			Price:      item.Price,
			SourceURL:  sourceURL(item),
			ExternalID: &externalID,
			SoldOut:    item.SoldOut,
		})
	}

	if len(events) > 0 {
		inserted, err := r.events.InsertIfAbsent(ctx, events, ReconcileActor)
		if err != nil {
			return ReconcileResult{}, fmt.Errorf("insert collected events: %w", err)
		}
		result.Events = inserted
		result.Inserted = len(inserted)
	}
	result.Existing = len(events) - result.Inserted

	r.logger.Info("collector reconciliation finished",
		zap.Int("inserted", result.Inserted),
		zap.Int("existing", result.Existing),
		zap.Int("dropped", result.Dropped),
	)
	return result, nil
}

// sourceURL falls back to a URN of the natural key so that URL-less items never collide on
// the unique source_url column.
func sourceURL(item Collected) string {
	if item.URL != "" {
		return item.URL
	}
	return "urn:collector:" + item.Key
}

func accountKey(sourceID, locationID string) string {
	return sourceID + "|" + locationID
}
