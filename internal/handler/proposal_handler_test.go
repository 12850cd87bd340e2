package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-sync-api/internal/dto"
	"github.com/noah-isme/shift-sync-api/internal/models"
	appErrors "github.com/noah-isme/shift-sync-api/pkg/errors"
)

type proposalServiceMock struct {
	submitted  *dto.SubmitProposalRequest
	actor      string
	submitResp *models.ChangeProposal
	submitErr  error
}

func (m *proposalServiceMock) Submit(ctx context.Context, req dto.SubmitProposalRequest, actorID string, origin models.ProposalOrigin) (*models.ChangeProposal, error) {
	m.submitted = &req
	m.actor = actorID
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return m.submitResp, nil
}

func (m *proposalServiceMock) Approve(ctx context.Context, id string, req dto.ReviewProposalRequest, actorID string) (*models.ChangeProposal, error) {
	return m.submitResp, m.submitErr
}

func (m *proposalServiceMock) Deny(ctx context.Context, id string, req dto.ReviewProposalRequest, actorID string) (*models.ChangeProposal, error) {
	return m.submitResp, m.submitErr
}

func (m *proposalServiceMock) Cancel(ctx context.Context, id string, actorID string) (*models.ChangeProposal, error) {
	return m.submitResp, m.submitErr
}

func (m *proposalServiceMock) Get(ctx context.Context, id string) (*models.ChangeProposal, error) {
	if m.submitResp == nil {
		return nil, appErrors.ErrNotFound
	}
	return m.submitResp, nil
}

func (m *proposalServiceMock) List(ctx context.Context, query dto.ProposalQuery) ([]models.ChangeProposal, error) {
	return nil, nil
}

type bulkServiceMock struct{}

func (m *bulkServiceMock) SubmitBatch(ctx context.Context, req dto.BulkChangeRequest, actorID string, origin models.ProposalOrigin) ([]dto.BulkItemOutcome, error) {
	return []dto.BulkItemOutcome{}, nil
}

func TestProposalHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &proposalServiceMock{submitResp: &models.ChangeProposal{ID: "prop-1", Status: models.ProposalStatusCommitted}}
	handler := NewProposalHandler(mock, &bulkServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.SubmitProposalRequest{
		Kind: models.ProposalKindCreate,
		Payload: models.ShiftPayload{
			OwnerID: "me",
			Date:    "2025-06-02",
		},
	})
	req, _ := http.NewRequest(http.MethodPost, "/proposals", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "phone-app")
	c.Request = req

	handler.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "phone-app", mock.actor)
	require.Equal(t, models.ProposalKindCreate, mock.submitted.Kind)
}

func TestProposalHandlerSubmitInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewProposalHandler(&proposalServiceMock{}, &bulkServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/proposals", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProposalHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewProposalHandler(&proposalServiceMock{}, &bulkServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/proposals/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestActorDefaultsToLocal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &proposalServiceMock{submitResp: &models.ChangeProposal{ID: "prop-1"}}
	handler := NewProposalHandler(mock, &bulkServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.SubmitProposalRequest{Kind: models.ProposalKindCreate})
	req, _ := http.NewRequest(http.MethodPost, "/proposals", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Submit(c)
	require.Equal(t, "local", mock.actor)
}
