package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/shift-sync-api/internal/models"
	appErrors "github.com/noah-isme/shift-sync-api/pkg/errors"
	"github.com/noah-isme/shift-sync-api/pkg/response"
)

type changeLogService interface {
	ReadFrom(ctx context.Context, after int64, limit int) ([]models.ChangeLogEntry, error)
	Latest(ctx context.Context) (int64, error)
}

// ChangeLogHandler exposes the append-only change log for audit reads.
type ChangeLogHandler struct {
	service changeLogService
}

// NewChangeLogHandler builds a new handler.
func NewChangeLogHandler(service changeLogService) *ChangeLogHandler {
	return &ChangeLogHandler{service: service}
}

// List godoc
// @Summary Read change-log entries
// @Tags Change Log
// @Produce json
// @Param after query int false "Return entries after this sequence number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /changelog [get]
func (h *ChangeLogHandler) List(c *gin.Context) {
	after, err := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil || after < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "after must be a non-negative integer"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := h.service.ReadFrom(c.Request.Context(), after, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Latest godoc
// @Summary Get the latest change-log sequence number
// @Tags Change Log
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /changelog/latest [get]
func (h *ChangeLogHandler) Latest(c *gin.Context) {
	seq, err := h.service.Latest(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"sequenceNumber": seq}, nil)
}
