package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/models"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
	"github.com/noah-isme/gym-ops-api/pkg/response"
)

type eventService interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, req dto.EventRequest, actor string) (*models.Event, error)
	Update(ctx context.Context, id string, req dto.UpdateEventRequest, actor string) (*models.Event, error)
	Delete(ctx context.Context, id, actor string) error
	Import(ctx context.Context, req dto.ImportEventsRequest, actor string) (*dto.ImportResult, error)
	Audit(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, error)
}

// EventHandler exposes event CRUD, batch import and audit history.
type EventHandler struct {
	service eventService
}

// NewEventHandler constructs the event handler.
func NewEventHandler(service eventService) *EventHandler {
	return &EventHandler{service: service}
}

// List godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Param gym_id query string false "Gym ID"
// @Param type query string false "Program type"
// @Param month query string false "Month (YYYY-MM)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	filter := models.EventFilter{
		GymID: queryFirst(c, "gym_id", "gymId"),
		Type:  queryFirst(c, "type"),
	}
	if month := queryFirst(c, "month"); month != "" {
		period, err := models.ParseMonth(month)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
			return
		}
		filter.Range = &period
	}
	var err error
	if filter.Page, err = queryInt(c, "page"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.PageSize, err = queryInt(c, "page_size"); err != nil {
		response.Error(c, err)
		return
	}

	events, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Create event
// @Tags Events
// @Accept json
// @Produce json
// @Security AdminSession
// @Param payload body dto.EventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	event, err := h.service.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update event
// @Tags Events
// @Accept json
// @Produce json
// @Security AdminSession
// @Param id path string true "Event ID"
// @Param payload body dto.UpdateEventRequest true "Changed fields"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	event, err := h.service.Update(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete event
// @Tags Events
// @Security AdminSession
// @Param id path string true "Event ID"
// @Success 204
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Import events in bulk
// @Description Validates every record first; any invalid record rejects the whole batch with itemized errors.
// @Tags Events
// @Accept json
// @Produce json
// @Security AdminSession
// @Param payload body dto.ImportEventsRequest true "Events"
// @Success 200 {object} response.Envelope
// @Router /events/import [post]
func (h *EventHandler) Import(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ImportEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
		return
	}
	result, err := h.service.Import(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// EventAudit godoc
// @Summary Audit history of one event
// @Tags Audit
// @Produce json
// @Param id path string true "Event ID"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/audit [get]
func (h *EventHandler) EventAudit(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.audit(c, models.AuditFilter{EventID: c.Param("id"), Limit: limit})
}

// RecentAudit godoc
// @Summary Recent audit entries
// @Tags Audit
// @Produce json
// @Param gym_id query string false "Gym ID"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Envelope
// @Router /audit [get]
func (h *EventHandler) RecentAudit(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.audit(c, models.AuditFilter{GymID: queryFirst(c, "gym_id", "gymId"), Limit: limit})
}

func (h *EventHandler) audit(c *gin.Context, filter models.AuditFilter) {
	entries, err := h.service.Audit(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
