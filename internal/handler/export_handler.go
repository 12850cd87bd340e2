package handler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/shift-sync-api/internal/service"
	appErrors "github.com/noah-isme/shift-sync-api/pkg/errors"
	"github.com/noah-isme/shift-sync-api/pkg/response"
)

type exportService interface {
	ExportChangeLog(ctx context.Context, after int64, format service.ExportFormat) (*service.ExportResult, error)
}

// ExportHandler streams change-log exports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler builds a new handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// ChangeLog godoc
// @Summary Export the change log
// @Tags Exports
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param after query int false "Export entries after this sequence number"
// @Success 200 {file} binary
// @Router /exports/changelog [get]
func (h *ExportHandler) ChangeLog(c *gin.Context) {
	after, err := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil || after < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "after must be a non-negative integer"))
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	result, err := h.service.ExportChangeLog(c.Request.Context(), after, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(200, result.ContentType, result.Content)
}
