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

type ruleService interface {
	List(ctx context.Context, includeExpired bool) ([]models.RuleView, error)
	Create(ctx context.Context, req dto.RuleRequest) (*models.Rule, error)
	Update(ctx context.Context, id string, req dto.RuleRequest) (*models.Rule, error)
	Delete(ctx context.Context, id string) error
}

// RuleHandler exposes validation rule administration.
type RuleHandler struct {
	service ruleService
}

// NewRuleHandler constructs the rule handler.
func NewRuleHandler(service ruleService) *RuleHandler {
	return &RuleHandler{service: service}
}

// List godoc
// @Summary List validation rules
// @Tags Rules
// @Produce json
// @Param include_expired query bool false "Include expired rules"
// @Success 200 {object} response.Envelope
// @Router /rules [get]
func (h *RuleHandler) List(c *gin.Context) {
	includeExpired, err := queryBool(c, "include_expired", "includeExpired")
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.List(c.Request.Context(), includeExpired)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Create validation rule
// @Tags Rules
// @Accept json
// @Produce json
// @Security AdminSession
// @Param payload body dto.RuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Router /rules [post]
func (h *RuleHandler) Create(c *gin.Context) {
	var req dto.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule payload"))
		return
	}
	rule, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// Update godoc
// @Summary Replace validation rule
// @Tags Rules
// @Accept json
// @Produce json
// @Security AdminSession
// @Param id path string true "Rule ID"
// @Param payload body dto.RuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Router /rules/{id} [put]
func (h *RuleHandler) Update(c *gin.Context) {
	var req dto.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule payload"))
		return
	}
	rule, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Delete godoc
// @Summary Delete validation rule
// @Tags Rules
// @Security AdminSession
// @Param id path string true "Rule ID"
// @Success 204
// @Router /rules/{id} [delete]
func (h *RuleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
