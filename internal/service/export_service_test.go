package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-sync-api/internal/models"
)

type changeLogReaderStub struct {
	entries []models.ChangeLogEntry
	calls   int
}

func (r *changeLogReaderStub) ReadFrom(ctx context.Context, after int64, limit int) ([]models.ChangeLogEntry, error) {
	r.calls++
	var page []models.ChangeLogEntry
	for _, entry := range r.entries {
		if entry.SequenceNumber <= after {
			continue
		}
		page = append(page, entry)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func logEntries(n int) []models.ChangeLogEntry {
	resolution := models.ResolutionAutoClean
	entries := make([]models.ChangeLogEntry, 0, n)
	for i := 1; i <= n; i++ {
		entries = append(entries, models.ChangeLogEntry{
			SequenceNumber: int64(i),
			ProposalID:     "prop-1",
			Kind:           models.ProposalKindCreate,
			Origin:         models.ProposalOriginUser,
			Decision:       models.ChangeDecisionCommitted,
			Resolution:     &resolution,
			CreatedAt:      time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
		})
	}
	return entries
}

func TestExportChangeLogCSV(t *testing.T) {
	reader := &changeLogReaderStub{entries: logEntries(3)}
	svc := NewExportService(reader, 100, nil)

	result, err := svc.ExportChangeLog(context.Background(), 0, ExportFormatCSV)
	require.NoError(t, err)
	require.Equal(t, "text/csv", result.ContentType)
	require.Equal(t, "change-log.csv", result.Filename)

	lines := strings.Split(strings.TrimSpace(string(result.Content)), "\n")
	require.Len(t, lines, 4)
	require.Contains(t, lines[0], "Sequence")
	require.Contains(t, lines[1], "AUTO_CLEAN")
}

func TestExportChangeLogPagesThroughLog(t *testing.T) {
	reader := &changeLogReaderStub{entries: logEntries(5)}
	svc := NewExportService(reader, 2, nil)

	result, err := svc.ExportChangeLog(context.Background(), 0, ExportFormatCSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(result.Content)), "\n")
	require.Len(t, lines, 6)
	require.Equal(t, 3, reader.calls)
}

func TestExportChangeLogResumesAfterSequence(t *testing.T) {
	reader := &changeLogReaderStub{entries: logEntries(5)}
	svc := NewExportService(reader, 100, nil)

	result, err := svc.ExportChangeLog(context.Background(), 3, ExportFormatCSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(result.Content)), "\n")
	require.Len(t, lines, 3)
}

func TestExportChangeLogPDF(t *testing.T) {
	reader := &changeLogReaderStub{entries: logEntries(2)}
	svc := NewExportService(reader, 100, nil)

	result, err := svc.ExportChangeLog(context.Background(), 0, ExportFormatPDF)
	require.NoError(t, err)
	require.Equal(t, "application/pdf", result.ContentType)
	require.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestExportChangeLogUnknownFormat(t *testing.T) {
	svc := NewExportService(&changeLogReaderStub{}, 100, nil)
	_, err := svc.ExportChangeLog(context.Background(), 0, ExportFormat("xml"))
	require.Error(t, err)
}
