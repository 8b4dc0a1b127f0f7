package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/models"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
)

const (
	defaultEventPageSize = 50
	maxEventPageSize     = 200
	defaultAuditLimit    = 100
)

// EventRepository abstracts the event store.
type EventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event, actor string) error
	Update(ctx context.Context, event *models.Event, changes []models.AuditEntry) error
	Delete(ctx context.Context, event models.Event, actor string) error
	InsertIfAbsent(ctx context.Context, events []models.Event, actor string) ([]models.Event, error)
}

// AuditReader lists audit history.
type AuditReader interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, error)
}

// EventService manages events and their audit trail.
type EventService struct {
	repo      EventRepository
	audit     AuditReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs an event service.
func NewEventService(repo EventRepository, audit AuditReader, cache *CacheService, v *validator.Validate, logger *zap.Logger) *EventService {
	if v == nil {
		v = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	v.RegisterTagNameFunc(jsonFieldName)
	return &EventService{repo: repo, audit: audit, cache: cache, validator: v, logger: logger}
}

// List returns events with pagination.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultEventPageSize
	}
	if filter.PageSize > maxEventPageSize {
		filter.PageSize = maxEventPageSize
	}
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns an event by id.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// Create stores a single event.
func (s *EventService) Create(ctx context.Context, req dto.EventRequest, actor string) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "invalid event payload", importErrors(0, err))
	}
	event, err := eventFromRequest(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if err := s.repo.Create(ctx, &event, actor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.cache.InvalidateCompliance(ctx)
	return &event, nil
}

// Update applies a patch and records one audit entry per changed field.
func (s *EventService) Update(ctx context.Context, id string, req dto.UpdateEventRequest, actor string) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "invalid event payload", importErrors(0, err))
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := applyEventPatch(*current, req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	changes := diffEvents(*current, updated, actor)
	if len(changes) == 0 {
		return current, nil
	}
	if err := s.repo.Update(ctx, &updated, changes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	s.cache.InvalidateCompliance(ctx)
	return &updated, nil
}

// Delete removes an event, keeping its audit history.
func (s *EventService) Delete(ctx context.Context, id, actor string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, *current, actor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.cache.InvalidateCompliance(ctx)
	return nil
}

// Import validates every record before writing any. A single invalid record rejects the batch
// with itemized errors. Valid batches are inserted keyed on source_url; rows already stored are
// left untouched.
func (s *EventService) Import(ctx context.Context, req dto.ImportEventsRequest, actor string) (*dto.ImportResult, error) {
	if len(req.Events) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "import requires at least one event")
	}
	var problems []dto.ImportError
	events := make([]models.Event, 0, len(req.Events))
	for i, record := range req.Events {
		if err := s.validator.Struct(record); err != nil {
			problems = append(problems, importErrors(i, err)...)
			continue
		}
		event, err := eventFromRequest(record)
		if err != nil {
			problems = append(problems, dto.ImportError{Index: i, Field: "type", Message: err.Error()})
			continue
		}
		events = append(events, event)
	}
	if len(problems) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, fmt.Sprintf("%d invalid record(s), nothing imported", len(problems)), problems)
	}

	inserted, err := s.repo.InsertIfAbsent(ctx, events, actor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import events")
	}
	if len(inserted) > 0 {
		s.cache.InvalidateCompliance(ctx)
	}
	s.logger.Info("events imported", zap.Int("received", len(events)), zap.Int("inserted", len(inserted)), zap.String("actor", actor))
	return &dto.ImportResult{
		Received: len(events),
		Inserted: len(inserted),
		Existing: len(events) - len(inserted),
		Events:   inserted,
	}, nil
}

// Audit lists history for one event, or across all events when eventID is empty.
func (s *EventService) Audit(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, error) {
	if filter.Limit <= 0 || filter.Limit > defaultAuditLimit*5 {
		filter.Limit = defaultAuditLimit
	}
	entries, err := s.audit.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit entries")
	}
	return entries, nil
}

func eventFromRequest(req dto.EventRequest) (models.Event, error) {
	date, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		return models.Event{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	eventType := models.NormalizeProgram(req.Type)
	if eventType == "" {
		return models.Event{}, fmt.Errorf("type is required")
	}
	return models.Event{
		GymID:     strings.TrimSpace(req.GymID),
		Type:      eventType,
		Title:     strings.TrimSpace(req.Title),
		Date:      date,
		Time:      strings.TrimSpace(req.Time),
		Price:     req.Price,
		SourceURL: strings.TrimSpace(req.SourceURL),
		SoldOut:   req.SoldOut,
	}, nil
}

func applyEventPatch(event models.Event, req dto.UpdateEventRequest) (models.Event, error) {
	if req.GymID != nil {
		event.GymID = strings.TrimSpace(*req.GymID)
	}
	if req.Type != nil {
		eventType := models.NormalizeProgram(*req.Type)
		if eventType == "" {
			return event, fmt.Errorf("type is required")
		}
		event.Type = eventType
	}
	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Date != nil {
		date, err := time.Parse(models.DateLayout, *req.Date)
		if err != nil {
			return event, fmt.Errorf("date must be YYYY-MM-DD")
		}
		event.Date = date
	}
	if req.Time != nil {
		event.Time = strings.TrimSpace(*req.Time)
	}
	if req.ClearPrice {
		event.Price = nil
	} else if req.Price != nil {
		price := *req.Price
		event.Price = &price
	}
	if req.SourceURL != nil {
		event.SourceURL = strings.TrimSpace(*req.SourceURL)
	}
	if req.SoldOut != nil {
		event.SoldOut = *req.SoldOut
	}
	return event, nil
}

// diffEvents emits one UPDATE entry per changed field. The entries carry the pre-change
// title, gym and date.
func diffEvents(before, after models.Event, actor string) []models.AuditEntry {
	var changes []models.AuditEntry
	add := func(field string, oldValue, newValue *string) {
		if equalOptional(oldValue, newValue) {
			return
		}
		name := field
		changes = append(changes, models.AuditEntry{
			EventID:      before.ID,
			Action:       models.AuditActionUpdate,
			FieldChanged: &name,
			OldValue:     oldValue,
			NewValue:     newValue,
			ChangedBy:    actor,
			EventTitle:   before.Title,
			GymID:        before.GymID,
			EventDate:    before.Date,
		})
	}
	add("gym_id", &before.GymID, &after.GymID)
	add("type", &before.Type, &after.Type)
	add("title", &before.Title, &after.Title)
	beforeDate, afterDate := before.DateKey(), after.DateKey()
	add("date", &beforeDate, &afterDate)
	add("time", &before.Time, &after.Time)
	add("price", priceString(before.Price), priceString(after.Price))
	add("source_url", &before.SourceURL, &after.SourceURL)
	beforeSold, afterSold := strconv.FormatBool(before.SoldOut), strconv.FormatBool(after.SoldOut)
	add("sold_out", &beforeSold, &afterSold)
	return changes
}

func priceString(price *float64) *string {
	if price == nil {
		return nil
	}
	s := strconv.FormatFloat(*price, 'f', 2, 64)
	return &s
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func importErrors(index int, err error) []dto.ImportError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []dto.ImportError{{Index: index, Message: err.Error()}}
	}
	out := make([]dto.ImportError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, dto.ImportError{Index: index, Field: fe.Field(), Message: validationMessage(fe)})
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be formatted as " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}
