package client

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gabe/consultant/internal/apierr"
	"github.com/gabe/consultant/internal/models"
)

type problemList struct {
	Problems []models.Problem `json:"problems"`
}

type messageList struct {
	HearingMessages []models.Message `json:"hearingMessages"`
}

type documentList struct {
	Documents []models.Document `json:"documents"`
}

type eventList struct {
	Events []models.EventPayload `json:"events"`
}

// ListProblems returns every problem.
// GET /api/problems
func (c *Client) ListProblems(ctx context.Context) ([]models.Problem, error) {
	var out problemList
	if err := c.do(ctx, http.MethodGet, c.adminPath("/api/problems"), nil, &out); err != nil {
		return nil, err
	}
	return out.Problems, nil
}

// CreateProblem submits a new problem and returns its id.
// POST /api/problems
func (c *Client) CreateProblem(ctx context.Context, description string) (string, error) {
	var out models.CreatedResource
	req := models.CreateProblemRequest{Description: description}
	if err := c.do(ctx, http.MethodPost, c.adminPath("/api/problems"), req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// GetProblem fetches one problem.
// GET /api/problems/{problemId}
func (c *Client) GetProblem(ctx context.Context, problemID string) (*models.Problem, error) {
	var out models.Problem
	if err := c.do(ctx, http.MethodGet, c.adminPath("/api/problems/%s", problemID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProblem removes a problem.
// DELETE /api/problems/{problemId}
func (c *Client) DeleteProblem(ctx context.Context, problemID string) error {
	return c.do(ctx, http.MethodDelete, c.adminPath("/api/problems/%s", problemID), nil, nil)
}

// GetHearing fetches the hearing of a problem.
// GET /api/hearings/{problemId}
func (c *Client) GetHearing(ctx context.Context, problemID string) (*models.Hearing, error) {
	var out models.Hearing
	if err := c.do(ctx, http.MethodGet, c.adminPath("/api/hearings/%s", problemID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListHearingMessages returns the conversation of a hearing in server order.
// GET /api/hearing-messages/{hearingId}
func (c *Client) ListHearingMessages(ctx context.Context, hearingID string) ([]models.Message, error) {
	var out messageList
	if err := c.do(ctx, http.MethodGet, c.adminPath("/api/hearing-messages/%s", hearingID), nil, &out); err != nil {
		return nil, err
	}
	return out.HearingMessages, nil
}

// GetHearingMap fetches the mindmap built once a hearing completes.
// GET /api/hearing-maps/{hearingId}
func (c *Client) GetHearingMap(ctx context.Context, hearingID string) (*models.HearingMap, error) {
	var out models.HearingMap
	if err := c.do(ctx, http.MethodGet, c.adminPath("/api/hearing-maps/%s", hearingID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExecuteHearing sends one user turn to the agent. A nil message opens the hearing.
// POST {agent}/api/hearings/{problemId}
func (c *Client) ExecuteHearing(ctx context.Context, problemID string, userMessage *string) (*models.HearingReply, error) {
	var out models.HearingReply
	req := models.ExecuteHearingRequest{UserMessage: userMessage}
	if err := c.do(ctx, http.MethodPost, c.agentPath("/api/hearings/%s", problemID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDocuments returns every uploaded document.
// GET /api/documents
func (c *Client) ListDocuments(ctx context.Context) ([]models.Document, error) {
	var out documentList
	if err := c.do(ctx, http.MethodGet, c.adminPath("/api/documents"), nil, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// GetDocument fetches one document.
// GET /api/documents/{documentId}
func (c *Client) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	var out models.Document
	if err := c.do(ctx, http.MethodGet, c.adminPath("/api/documents/%s", documentID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDocument uploads a document and returns its id.
// POST /api/documents
func (c *Client) CreateDocument(ctx context.Context, req models.CreateDocumentRequest) (string, error) {
	var out models.CreatedResource
	if err := c.do(ctx, http.MethodPost, c.adminPath("/api/documents"), req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// DeleteDocument removes a document.
// DELETE /api/documents/{documentId}
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	return c.do(ctx, http.MethodDelete, c.adminPath("/api/documents/%s", documentID), nil, nil)
}

// GetReport fetches the final report of a problem.
// GET /api/reports/{problemId}
func (c *Client) GetReport(ctx context.Context, problemID string) (*models.Report, error) {
	var out models.Report
	if err := c.do(ctx, http.MethodGet, c.adminPath("/api/reports/%s", problemID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListEvents returns the raw event payloads recorded so far. Payloads are not
// validated here so one bad entry does not hide the rest.
// GET /api/events/{problemId}
func (c *Client) ListEvents(ctx context.Context, problemID string) ([]models.EventPayload, error) {
	var out eventList
	if err := c.do(ctx, http.MethodGet, c.adminPath("/api/events/%s", problemID), nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// GetJobConfig fetches the agent settings of a problem.
// GET /api/job-configs/{problemId}
func (c *Client) GetJobConfig(ctx context.Context, problemID string) (*models.JobConfig, error) {
	var out models.JobConfig
	if err := c.do(ctx, http.MethodGet, c.adminPath("/api/job-configs/%s", problemID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateJobConfig changes the agent settings of a problem.
// PUT /api/job-configs/{problemId}
func (c *Client) UpdateJobConfig(ctx context.Context, problemID string, enableInternalSearch bool) (*models.JobConfig, error) {
	var out models.JobConfig
	req := models.UpdateJobConfigRequest{EnableInternalSearch: enableInternalSearch}
	if err := c.do(ctx, http.MethodPut, c.adminPath("/api/job-configs/%s", problemID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OpenEventStream connects to the live event feed. The caller owns the
// returned body and must close it.
// GET /api/events/{problemId}/stream
func (c *Client) OpenEventStream(ctx context.Context, problemID string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.adminPath("/api/events/%s/stream", problemID), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apierr.FromTransport(err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return nil, apierr.FromResponse(resp.StatusCode, data, http.StatusText(resp.StatusCode))
	}

	return resp.Body, nil
}
