package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/middleware"
	"github.com/noah-isme/gym-ops-api/internal/models"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
	"github.com/noah-isme/gym-ops-api/pkg/response"
)

type complianceService interface {
	Overview(ctx context.Context, month string) (*dto.ComplianceOverview, error)
	Gym(ctx context.Context, gymID, month string) (*models.ComplianceReport, bool, error)
	Gyms(ctx context.Context) ([]models.Gym, error)
	Requirements(ctx context.Context) ([]models.Requirement, error)
	UpsertRequirement(ctx context.Context, eventType string, req dto.RequirementRequest) (*models.Requirement, error)
}

type validationService interface {
	Report(ctx context.Context, gymID, month string) (*models.ValidationReport, error)
}

type complianceExporter interface {
	Export(ctx context.Context, month, format string) (*dto.ExportFile, error)
}

// ComplianceHandler exposes monthly compliance, validation reports and requirement settings.
type ComplianceHandler struct {
	compliance complianceService
	validation validationService
	exporter   complianceExporter
}

// NewComplianceHandler constructs the compliance handler.
func NewComplianceHandler(compliance complianceService, validation validationService, exporter complianceExporter) *ComplianceHandler {
	return &ComplianceHandler{compliance: compliance, validation: validation, exporter: exporter}
}

// Overview godoc
// @Summary Compliance overview for every gym
// @Tags Compliance
// @Produce json
// @Param month query string false "Month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /compliance [get]
func (h *ComplianceHandler) Overview(c *gin.Context) {
	start := time.Now()
	overview, err := h.compliance.Overview(c.Request.Context(), queryFirst(c, "month"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil, middleware.TimedMeta(c, false, start))
}

// Gym godoc
// @Summary Compliance report for one gym
// @Tags Compliance
// @Produce json
// @Param gymId path string true "Gym ID"
// @Param month query string false "Month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /compliance/{gymId} [get]
func (h *ComplianceHandler) Gym(c *gin.Context) {
	start := time.Now()
	report, cacheHit, err := h.compliance.Gym(c.Request.Context(), c.Param("gymId"), queryFirst(c, "month"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil, middleware.TimedMeta(c, cacheHit, start))
}

// Export godoc
// @Summary Export the compliance overview
// @Tags Compliance
// @Produce text/csv
// @Produce application/pdf
// @Param month query string false "Month (YYYY-MM)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /compliance/export [get]
func (h *ComplianceHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export not configured"))
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), queryFirst(c, "month"), queryFirst(c, "format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}

// Validation godoc
// @Summary Validation report for a gym month
// @Tags Validation
// @Produce json
// @Param gym_id query string true "Gym ID"
// @Param month query string false "Month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /validation [get]
func (h *ComplianceHandler) Validation(c *gin.Context) {
	report, err := h.validation.Report(c.Request.Context(), queryFirst(c, "gym_id", "gymId"), queryFirst(c, "month"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Gyms godoc
// @Summary List gyms
// @Tags Gyms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /gyms [get]
func (h *ComplianceHandler) Gyms(c *gin.Context) {
	gyms, err := h.compliance.Gyms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gyms, nil)
}

// Requirements godoc
// @Summary List monthly requirements
// @Tags Requirements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /requirements [get]
func (h *ComplianceHandler) Requirements(c *gin.Context) {
	items, err := h.compliance.Requirements(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// UpsertRequirement godoc
// @Summary Set the monthly minimum for an event type
// @Tags Requirements
// @Accept json
// @Produce json
// @Security AdminSession
// @Param eventType path string true "Event type"
// @Param payload body dto.RequirementRequest true "Requirement"
// @Success 200 {object} response.Envelope
// @Router /requirements/{eventType} [put]
func (h *ComplianceHandler) UpsertRequirement(c *gin.Context) {
	var req dto.RequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid requirement payload"))
		return
	}
	item, err := h.compliance.UpsertRequirement(c.Request.Context(), c.Param("eventType"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
