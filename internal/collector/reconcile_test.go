package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

type accountListerStub struct {
	accounts []models.SourceAccount
	err      error
}

func (s accountListerStub) ListSourceAccounts(ctx context.Context) ([]models.SourceAccount, error) {
	return s.accounts, s.err
}

// memoryInserter mimics insert-if-absent with the unique external_id and source_url columns.
type memoryInserter struct {
	rows  map[string]models.Event
	urls  map[string]struct{}
	actor string
	calls int
}

func (m *memoryInserter) InsertIfAbsent(ctx context.Context, events []models.Event, actor string) ([]models.Event, error) {
	m.calls++
	m.actor = actor
	if m.rows == nil {
		m.rows = map[string]models.Event{}
		m.urls = map[string]struct{}{}
	}
	var inserted []models.Event
	for _, e := range events {
		key := e.GymID + "|" + *e.ExternalID
		if _, exists := m.rows[key]; exists {
			continue
		}
		if _, exists := m.urls[e.SourceURL]; exists {
			continue
		}
		m.rows[key] = e
		m.urls[e.SourceURL] = struct{}{}
		inserted = append(inserted, e)
	}
	return inserted, nil
}

func collectedItem(source, location, id string) Collected {
	return Collected{
		Key:        NaturalKey(source, id),
		SourceID:   source,
		LocationID: location,
		Type:       models.ProgramClinic,
		Title:      "Clinic " + id,
		Date:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		URL:        "https://" + source + ".example.com/" + id,
	}
}

func TestReconcileDropsUnmappedItems(t *testing.T) {
	accounts := accountListerStub{accounts: []models.SourceAccount{{SourceID: "west", LocationID: "loc-1", GymID: "CCP"}}}
	inserter := &memoryInserter{}
	reconciler := NewReconciler(accounts, inserter, nil)

	result, err := reconciler.Reconcile(context.Background(), []Collected{
		collectedItem("west", "loc-1", "1"),
		collectedItem("west", "loc-9", "2"),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Dropped)
	assert.Equal(t, ReconcileActor, inserter.actor)
	assert.Equal(t, "CCP", result.Events[0].GymID)
	assert.Equal(t, "west:1", *result.Events[0].ExternalID)
}

func TestReconcileNeverDuplicatesExistingRows(t *testing.T) {
	accounts := accountListerStub{accounts: []models.SourceAccount{{SourceID: "west", LocationID: "loc-1", GymID: "CCP"}}}
	inserter := &memoryInserter{}
	reconciler := NewReconciler(accounts, inserter, nil)
	items := []Collected{collectedItem("west", "loc-1", "1"), collectedItem("west", "loc-1", "2")}

	first, err := reconciler.Reconcile(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)

	items[0].Title = "Renamed upstream"
	second, err := reconciler.Reconcile(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.Existing)
	assert.Len(t, inserter.rows, 2)
	assert.Equal(t, "Clinic 1", inserter.rows["CCP|west:1"].Title)
}

func TestReconcileKeepsItemsWithoutURL(t *testing.T) {
	accounts := accountListerStub{accounts: []models.SourceAccount{{SourceID: "west", LocationID: "loc-1", GymID: "CCP"}}}
	inserter := &memoryInserter{}
	first := collectedItem("west", "loc-1", "1")
	second := collectedItem("west", "loc-1", "2")
	first.URL, second.URL = "", ""

	result, err := NewReconciler(accounts, inserter, nil).Reconcile(context.Background(), []Collected{first, second})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Zero(t, result.Existing)
	assert.Equal(t, "urn:collector:west:1", inserter.rows["CCP|west:1"].SourceURL)
	assert.Equal(t, "urn:collector:west:2", inserter.rows["CCP|west:2"].SourceURL)
}

func TestReconcileSkipsInsertWhenNothingMapped(t *testing.T) {
	inserter := &memoryInserter{}
	result, err := NewReconciler(accountListerStub{}, inserter, nil).Reconcile(context.Background(), []Collected{collectedItem("west", "loc-1", "1")})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Dropped)
	assert.Zero(t, inserter.calls)
}

func TestReconcilePropagatesAccountErrors(t *testing.T) {
	_, err := NewReconciler(accountListerStub{err: errors.New("db down")}, &memoryInserter{}, nil).Reconcile(context.Background(), nil)
	assert.Error(t, err)
}
