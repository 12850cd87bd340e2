package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/shift-sync-api/internal/service"
	appErrors "github.com/noah-isme/shift-sync-api/pkg/errors"
	"github.com/noah-isme/shift-sync-api/pkg/response"
)

type reconcileService interface {
	ReconcileOwner(ctx context.Context, ownerID string) (service.ReconcileResult, error)
}

// ReconcileHandler triggers an on-demand reconciliation run for one owner,
// outside the periodic loop.
type ReconcileHandler struct {
	service reconcileService
}

// NewReconcileHandler builds a new handler.
func NewReconcileHandler(service reconcileService) *ReconcileHandler {
	return &ReconcileHandler{service: service}
}

// Run godoc
// @Summary Reconcile one owner's calendar now
// @Tags Reconciliation
// @Produce json
// @Param ownerId path string true "Owner id"
// @Success 200 {object} response.Envelope
// @Router /reconcile/{ownerId} [post]
func (h *ReconcileHandler) Run(c *gin.Context) {
	ownerID := c.Param("ownerId")
	if ownerID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ownerId is required"))
		return
	}
	result, err := h.service.ReconcileOwner(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
