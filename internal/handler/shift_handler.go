package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/shift-sync-api/internal/models"
	appErrors "github.com/noah-isme/shift-sync-api/pkg/errors"
	"github.com/noah-isme/shift-sync-api/pkg/response"
)

type shiftReadService interface {
	Get(ctx context.Context, id string) (*models.Shift, error)
	GetSchedule(ctx context.Context, ownerID string, dateRange models.DateRange) ([]models.Shift, error)
}

// ShiftHandler exposes read access to the committed schedule.
type ShiftHandler struct {
	service shiftReadService
}

// NewShiftHandler builds a new handler.
func NewShiftHandler(service shiftReadService) *ShiftHandler {
	return &ShiftHandler{service: service}
}

// Get godoc
// @Summary Get shift by id
// @Tags Shifts
// @Produce json
// @Param id path string true "Shift id"
// @Success 200 {object} response.Envelope
// @Router /shifts/{id} [get]
func (h *ShiftHandler) Get(c *gin.Context) {
	shift, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shift, nil)
}

// Schedule godoc
// @Summary Get an owner's schedule window
// @Tags Shifts
// @Produce json
// @Param ownerId query string true "Owner id"
// @Param from query string true "Window start (YYYY-MM-DD)"
// @Param to query string true "Window end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /shifts [get]
func (h *ShiftHandler) Schedule(c *gin.Context) {
	ownerID := c.Query("ownerId")
	if ownerID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ownerId query parameter is required"))
		return
	}
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD"))
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD"))
		return
	}

	shifts, err := h.service.GetSchedule(c.Request.Context(), ownerID, models.DateRange{From: from, To: to})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shifts, nil)
}
