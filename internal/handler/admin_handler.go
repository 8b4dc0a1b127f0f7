package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
	"github.com/noah-isme/gym-ops-api/pkg/response"
)

type adminService interface {
	Unlock(ctx context.Context, req dto.UnlockRequest) (*dto.UnlockResponse, error)
}

// AdminHandler exposes the PIN gate.
type AdminHandler struct {
	service adminService
}

// NewAdminHandler constructs the admin handler.
func NewAdminHandler(service adminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// Unlock godoc
// @Summary Unlock admin mode
// @Description Exchanges the admin PIN for a short-lived session token used as a Bearer credential.
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.UnlockRequest true "PIN"
// @Success 200 {object} response.Envelope
// @Router /admin/unlock [post]
func (h *AdminHandler) Unlock(c *gin.Context) {
	var req dto.UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid unlock payload"))
		return
	}
	session, err := h.service.Unlock(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}
