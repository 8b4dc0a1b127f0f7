package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/models"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
	"github.com/noah-isme/gym-ops-api/pkg/response"
)

const defaultRunListLimit = 20

type collectorService interface {
	Trigger(ctx context.Context, reconcile bool, actor string) (*models.CollectionRun, error)
	Get(ctx context.Context, id string) (*models.CollectionRun, error)
	List(ctx context.Context, limit int) ([]models.CollectionRun, error)
}

// CollectorHandler exposes asynchronous collection runs.
type CollectorHandler struct {
	service collectorService
}

// NewCollectorHandler constructs the collector handler.
func NewCollectorHandler(service collectorService) *CollectorHandler {
	return &CollectorHandler{service: service}
}

// Trigger godoc
// @Summary Start a collection run
// @Description Queues a collection across every configured portal. Reconciliation into the store is on unless disabled.
// @Tags Collector
// @Accept json
// @Produce json
// @Security AdminSession
// @Param payload body dto.CollectionRunRequest false "Run options"
// @Success 202 {object} response.Envelope
// @Router /collector/runs [post]
func (h *CollectorHandler) Trigger(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CollectionRunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid collection payload"))
		return
	}
	reconcile := true
	if req.Reconcile != nil {
		reconcile = *req.Reconcile
	}
	run, err := h.service.Trigger(c.Request.Context(), reconcile, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, run)
}

// List godoc
// @Summary Recent collection runs
// @Tags Collector
// @Produce json
// @Param limit query int false "Limit"
// @Success 200 {object} response.Envelope
// @Router /collector/runs [get]
func (h *CollectorHandler) List(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.Error(c, err)
		return
	}
	if limit <= 0 {
		limit = defaultRunListLimit
	}
	runs, err := h.service.List(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, nil)
}

// Get godoc
// @Summary Get a collection run
// @Tags Collector
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /collector/runs/{id} [get]
func (h *CollectorHandler) Get(c *gin.Context) {
	run, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}
