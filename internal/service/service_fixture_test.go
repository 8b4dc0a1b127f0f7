package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/noah-isme/gym-ops-api/internal/models"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
)

var fixtureNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixtureNow }

func strPtr(v string) *string { return &v }

func pricePtr(v float64) *float64 { return &v }

// memoryCache stores JSON payloads like the Redis repository does.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	payload, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.entries[key] = payload
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (m *memoryCache) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for key := range m.entries {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// eventStoreStub is an in-memory event store keyed on id with source_url uniqueness.
type eventStoreStub struct {
	events  map[string]models.Event
	audit   []models.AuditEntry
	updates int
	inserts int
	err     error
}

func newEventStore(events ...models.Event) *eventStoreStub {
	store := &eventStoreStub{events: map[string]models.Event{}}
	for _, e := range events {
		store.events[e.ID] = e
	}
	return store
}

func (s *eventStoreStub) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	var out []models.Event
	for _, e := range s.events {
		if filter.GymID != "" && e.GymID != filter.GymID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (s *eventStoreStub) ListInRange(ctx context.Context, gymID string, month models.MonthRange) ([]models.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Event
	for _, e := range s.events {
		if e.GymID == gymID && month.Contains(e.Date) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *eventStoreStub) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	e, ok := s.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &e, nil
}

func (s *eventStoreStub) Create(ctx context.Context, event *models.Event, actor string) error {
	if s.err != nil {
		return s.err
	}
	event.ID = uuid.NewString()
	s.events[event.ID] = *event
	s.audit = append(s.audit, models.AuditEntry{EventID: event.ID, Action: models.AuditActionCreate, ChangedBy: actor})
	return nil
}

func (s *eventStoreStub) Update(ctx context.Context, event *models.Event, changes []models.AuditEntry) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.events[event.ID]; !ok {
		return sql.ErrNoRows
	}
	s.updates++
	s.events[event.ID] = *event
	s.audit = append(s.audit, changes...)
	return nil
}

func (s *eventStoreStub) Delete(ctx context.Context, event models.Event, actor string) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.events[event.ID]; !ok {
		return sql.ErrNoRows
	}
	delete(s.events, event.ID)
	s.audit = append(s.audit, models.AuditEntry{EventID: event.ID, Action: models.AuditActionDelete, ChangedBy: actor})
	return nil
}

func (s *eventStoreStub) InsertIfAbsent(ctx context.Context, events []models.Event, actor string) ([]models.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.inserts++
	existing := map[string]struct{}{}
	for _, e := range s.events {
		existing[e.SourceURL] = struct{}{}
	}
	var inserted []models.Event
	for _, e := range events {
		if _, dup := existing[e.SourceURL]; dup {
			continue
		}
		e.ID = uuid.NewString()
		existing[e.SourceURL] = struct{}{}
		s.events[e.ID] = e
		inserted = append(inserted, e)
	}
	return inserted, nil
}

type auditReaderStub struct {
	filter models.AuditFilter
	items  []models.AuditEntry
}

func (a *auditReaderStub) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, error) {
	a.filter = filter
	return a.items, nil
}

// ruleRepoStub keeps rules in insertion order.
type ruleRepoStub struct {
	rules []models.Rule
	err   error
}

func (r *ruleRepoStub) List(ctx context.Context) ([]models.Rule, error) {
	if r.err != nil {
		return nil, r.err
	}
	return append([]models.Rule(nil), r.rules...), nil
}

func (r *ruleRepoStub) FindByID(ctx context.Context, id string) (*models.Rule, error) {
	for _, rule := range r.rules {
		if rule.ID == id {
			found := rule
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *ruleRepoStub) Create(ctx context.Context, rule *models.Rule) error {
	if r.err != nil {
		return r.err
	}
	rule.ID = uuid.NewString()
	rule.CreatedAt = fixtureNow
	r.rules = append(r.rules, *rule)
	return nil
}

func (r *ruleRepoStub) Update(ctx context.Context, rule *models.Rule) error {
	for i := range r.rules {
		if r.rules[i].ID == rule.ID {
			r.rules[i] = *rule
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *ruleRepoStub) Delete(ctx context.Context, id string) error {
	for i := range r.rules {
		if r.rules[i].ID == id {
			r.rules = append(r.rules[:i], r.rules[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type referenceStub struct {
	gyms         []models.Gym
	requirements models.Requirements
	prices       models.PriceTable
	err          error
}

func (r *referenceStub) ListGyms(ctx context.Context) ([]models.Gym, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.gyms, nil
}

func (r *referenceStub) Requirements(ctx context.Context) (models.Requirements, error) {
	out := models.Requirements{}
	for k, v := range r.requirements {
		out[k] = v
	}
	return out, nil
}

func (r *referenceStub) ListRequirements(ctx context.Context) ([]models.Requirement, error) {
	out := make([]models.Requirement, 0, len(r.requirements))
	for k, v := range r.requirements {
		out = append(out, models.Requirement{EventType: k, RequiredCount: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventType < out[j].EventType })
	return out, nil
}

func (r *referenceStub) UpsertRequirement(ctx context.Context, req models.Requirement) error {
	if r.err != nil {
		return r.err
	}
	if r.requirements == nil {
		r.requirements = models.Requirements{}
	}
	r.requirements[req.EventType] = req.RequiredCount
	return nil
}

func (r *referenceStub) PriceTable(ctx context.Context) (models.PriceTable, error) {
	return r.prices, nil
}

func fixtureRule(id string, ruleType models.RuleType, gymIDs []string, program string, value string) models.Rule {
	return models.Rule{
		ID:          id,
		RuleType:    ruleType,
		GymIDs:      pq.StringArray(gymIDs),
		Program:     program,
		Scope:       models.ScopeAllEvents,
		Value:       value,
		IsPermanent: true,
		Label:       id,
		CreatedAt:   fixtureNow.AddDate(0, -1, 0),
	}
}

func fixtureEvent(id, gymID, program string, day int, price *float64) models.Event {
	return models.Event{
		ID:        id,
		GymID:     gymID,
		Type:      program,
		Title:     program + " " + id,
		Date:      time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC),
		Time:      "6:30 PM - 9:30 PM",
		Price:     price,
		SourceURL: "https://portal.example.com/e/" + id,
	}
}

func errorCode(err error) string {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
