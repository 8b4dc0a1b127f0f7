package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePortal struct {
	id          string
	locations   []Location
	programs    map[string][]Program
	pageSizes   []int
	locationErr error
	itemsErr    error

	mu        sync.Mutex
	itemCalls int
}

func (f *fakePortal) ID() string { return f.id }

func (f *fakePortal) Locations(ctx context.Context) ([]Location, error) {
	if f.locationErr != nil {
		return nil, f.locationErr
	}
	return f.locations, nil
}

func (f *fakePortal) Programs(ctx context.Context, locationID string) ([]Program, error) {
	return f.programs[locationID], nil
}

func (f *fakePortal) Items(ctx context.Context, locationID, programID string, page, pageSize int) ([]Item, error) {
	f.mu.Lock()
	f.itemCalls++
	f.mu.Unlock()
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	if page > len(f.pageSizes) {
		return nil, nil
	}
	items := make([]Item, 0, f.pageSizes[page-1])
	for i := 0; i < f.pageSizes[page-1]; i++ {
		id := fmt.Sprintf("%s-%s-%d-%d", locationID, programID, page, i)
		items = append(items, Item{
			ID:    id,
			Title: "Item " + id,
			Date:  "2025-03-14",
			Time:  "6:00 PM",
			URL:   "https://" + f.id + ".example.com/e/" + id,
		})
	}
	return items, nil
}

func newFakePortal(id string, pageSizes ...int) *fakePortal {
	return &fakePortal{
		id:        id,
		locations: []Location{{ID: "loc-1", Name: "Central"}},
		programs:  map[string][]Program{"loc-1": {{ID: "p-1", Name: "Kids Night Out"}}},
		pageSizes: pageSizes,
	}
}

type recordingMetrics struct {
	mu        sync.Mutex
	collected map[string]int
	failures  []string
}

func (r *recordingMetrics) RecordCollected(source string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.collected == nil {
		r.collected = map[string]int{}
	}
	r.collected[source] += count
}

func (r *recordingMetrics) RecordSourceFailure(source, stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, source+":"+stage)
}

func TestCollectPagesUntilShortPage(t *testing.T) {
	portal := newFakePortal("west", 50, 50, 50, 10)

	result := New(Options{}).Collect(context.Background(), []Portal{portal}, nil)

	assert.Equal(t, 4, portal.itemCalls)
	assert.Len(t, result.Events, 160)
	assert.Equal(t, 160, result.PerSourceCounts["west"])
}

func TestCollectStopsOnEmptyPage(t *testing.T) {
	portal := newFakePortal("west", 50, 50)

	result := New(Options{}).Collect(context.Background(), []Portal{portal}, nil)

	assert.Equal(t, 3, portal.itemCalls)
	assert.Len(t, result.Events, 100)
}

func TestCollectIsolatesFailingSource(t *testing.T) {
	broken := newFakePortal("east", 50)
	broken.locationErr = errors.New("connection refused")
	healthy := newFakePortal("west", 50, 10)
	metrics := &recordingMetrics{}

	for _, parallel := range []bool{false, true} {
		result := New(Options{Parallel: parallel, Metrics: metrics}).Collect(context.Background(), []Portal{broken, healthy}, nil)

		assert.Len(t, result.Events, 60)
		assert.Equal(t, 0, result.PerSourceCounts["east"])
		assert.Equal(t, 60, result.PerSourceCounts["west"])
		for _, item := range result.Events {
			assert.Equal(t, "west", item.SourceID)
		}
	}
	assert.Contains(t, metrics.failures, "east:"+StageLocations)
}

func TestCollectDropsSourceFailingMidway(t *testing.T) {
	broken := newFakePortal("east", 50)
	broken.itemsErr = errors.New("timeout")

	result := New(Options{}).Collect(context.Background(), []Portal{broken}, nil)

	assert.Empty(t, result.Events)
	assert.Equal(t, 0, result.PerSourceCounts["east"])
}

func TestCollectAppliesProgramFilters(t *testing.T) {
	portal := newFakePortal("west", 3)
	portal.programs["loc-1"] = []Program{
		{ID: "p-1", Name: "Kids Night Out - Friday"},
		{ID: "p-2", Name: "Birthday Parties"},
	}

	result := New(Options{}).Collect(context.Background(), []Portal{portal}, []ProgramFilter{
		{Keyword: "NIGHT OUT", EventType: "Kids Night Out"},
	})

	require.Len(t, result.Events, 3)
	for _, item := range result.Events {
		assert.Equal(t, "KIDS NIGHT OUT", item.Type)
	}
}

func TestCollectEmptyFilterCollectsAllPrograms(t *testing.T) {
	portal := newFakePortal("west", 2)
	portal.programs["loc-1"] = []Program{
		{ID: "p-1", Name: "Open Gym"},
		{ID: "p-2", Name: "Clinic"},
	}

	result := New(Options{}).Collect(context.Background(), []Portal{portal}, nil)

	assert.Len(t, result.Events, 4)
}

func TestCollectBuildsNaturalKeysAndDedups(t *testing.T) {
	first := newFakePortal("west", 2)
	twin := newFakePortal("west", 2)

	result := New(Options{}).Collect(context.Background(), []Portal{first, twin}, nil)

	require.Len(t, result.Events, 2)
	assert.Equal(t, "west:loc-1-p-1-1-0", result.Events[0].Key)
	assert.Equal(t, 2, result.PerSourceCounts["west"])
}

func TestCollectSkipsUnparseableDates(t *testing.T) {
	portal := &datePortal{fakePortal: newFakePortal("west", 1)}

	result := New(Options{}).Collect(context.Background(), []Portal{portal}, nil)

	assert.Empty(t, result.Events)
	assert.Equal(t, 0, result.PerSourceCounts["west"])
}

type datePortal struct{ *fakePortal }

func (d *datePortal) Items(ctx context.Context, locationID, programID string, page, pageSize int) ([]Item, error) {
	return []Item{{ID: "x", Title: "Bad", Date: "next friday"}}, nil
}

func TestSelectProgram(t *testing.T) {
	eventType, ok := selectProgram("Summer CAMP 2025", []ProgramFilter{{Keyword: "camp"}})
	assert.True(t, ok)
	assert.Equal(t, "SUMMER CAMP 2025", eventType)

	_, ok = selectProgram("Tumbling", []ProgramFilter{{Keyword: "camp"}})
	assert.False(t, ok)
}
