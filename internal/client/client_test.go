package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gabe/consultant/internal/apierr"
	"github.com/gabe/consultant/internal/auth"
	"github.com/gabe/consultant/internal/config"
	"github.com/gabe/consultant/internal/metrics"
	"github.com/gabe/consultant/internal/mockserver"
	"github.com/gabe/consultant/internal/models"
	"github.com/gabe/consultant/internal/sse"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, opts mockserver.Options, token string) (*Client, *mockserver.Server) {
	t.Helper()
	backend := mockserver.New(opts)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(func() {
		backend.Close()
		srv.Close()
	})

	cfg := config.APIConfig{AdminURL: srv.URL, AgentURL: srv.URL, Timeout: "5s"}
	return New(cfg, auth.NewSession(token), srv.Client()), backend
}

func TestProblemEndpoints(t *testing.T) {
	c, _ := newTestClient(t, mockserver.Options{}, "")
	ctx := context.Background()

	id, err := c.CreateProblem(ctx, "Sales are flat")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	problems, err := c.ListProblems(ctx)
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, id, problems[0].ID)

	problem, err := c.GetProblem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ProblemStatusPending, problem.Status)

	cfg, err := c.UpdateJobConfig(ctx, id, true)
	require.NoError(t, err)
	assert.True(t, cfg.EnableInternalSearch)

	got, err := c.GetJobConfig(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.EnableInternalSearch)

	require.NoError(t, c.DeleteProblem(ctx, id))
	_, err = c.GetProblem(ctx, id)
	assert.ErrorIs(t, err, apierr.ErrNotFound)
	assert.Equal(t, "Not Found", apierr.Message(err))
}

func TestHearingRoundTrip(t *testing.T) {
	c, _ := newTestClient(t, mockserver.Options{HearingTurns: 2}, "")
	ctx := context.Background()

	id, err := c.CreateProblem(ctx, "Churn is rising")
	require.NoError(t, err)

	reply, err := c.ExecuteHearing(ctx, id, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, reply.AssistantMessage)
	assert.False(t, reply.IsCompleted)

	hearing, err := c.GetHearing(ctx, id)
	require.NoError(t, err)

	answer := "Keep customers longer"
	_, err = c.ExecuteHearing(ctx, id, &answer)
	require.NoError(t, err)

	messages, err := c.ListHearingMessages(ctx, hearing.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, models.RoleAssistant, messages[0].Role)
	assert.Equal(t, models.RoleUser, messages[1].Role)
	assert.Equal(t, answer, messages[1].Message)
}

func TestHearingMapAfterCompletion(t *testing.T) {
	c, _ := newTestClient(t, mockserver.Options{HearingTurns: 1, StepDelay: time.Millisecond}, "")
	ctx := context.Background()

	id, err := c.CreateProblem(ctx, "Churn is rising")
	require.NoError(t, err)
	_, err = c.ExecuteHearing(ctx, id, nil)
	require.NoError(t, err)
	hearing, err := c.GetHearing(ctx, id)
	require.NoError(t, err)

	_, err = c.GetHearingMap(ctx, hearing.ID)
	assert.ErrorIs(t, err, apierr.ErrNotFound)

	answer := "Keep (paying) customers longer"
	_, err = c.ExecuteHearing(ctx, id, &answer)
	require.NoError(t, err)

	hm, err := c.GetHearingMap(ctx, hearing.ID)
	require.NoError(t, err)
	assert.Equal(t, hearing.ID, hm.HearingID)
	assert.Equal(t, id, hm.ProblemID)
	assert.Contains(t, hm.Content, "mindmap")
	assert.Contains(t, hm.Content, "root((Churn is rising))")
	assert.Contains(t, hm.Content, "Keep paying customers longer")
}

func TestDocumentEndpoints(t *testing.T) {
	c, _ := newTestClient(t, mockserver.Options{}, "")
	ctx := context.Background()

	id, err := c.CreateDocument(ctx, models.CreateDocumentRequest{Title: "pricing", DocumentType: models.DocumentTypeCSV, Data: "YSxi"})
	require.NoError(t, err)

	_, err = c.CreateDocument(ctx, models.CreateDocumentRequest{Title: "pricing", DocumentType: models.DocumentTypeCSV, Data: "YSxi"})
	assert.ErrorIs(t, err, apierr.ErrConflict)

	docs, err := c.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc, err := c.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "pricing", doc.Title)

	require.NoError(t, c.DeleteDocument(ctx, id))
	err = c.DeleteDocument(ctx, id)
	assert.Equal(t, http.StatusNotFound, apierr.Code(err))
}

func TestBearerTokenIsSent(t *testing.T) {
	c, _ := newTestClient(t, mockserver.Options{Token: "t0k"}, "t0k")
	_, err := c.ListProblems(context.Background())
	require.NoError(t, err)

	anon, _ := newTestClient(t, mockserver.Options{Token: "t0k"}, "")
	_, err = anon.ListProblems(context.Background())
	assert.ErrorIs(t, err, apierr.ErrUnauthorized)
}

func TestEventStream(t *testing.T) {
	c, backend := newTestClient(t, mockserver.Options{}, "")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	id, err := c.CreateProblem(ctx, "Costs are up")
	require.NoError(t, err)

	body, err := c.OpenEventStream(ctx, id)
	require.NoError(t, err)
	defer body.Close()

	require.Eventually(t, func() bool { return backend.Subscribers(id) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, backend.Publish(id, models.EventPayload{ID: "e1", EventType: "action", ActionType: "plan", Message: "planning"}))

	stop := errors.New("stop")
	var got sse.Frame
	err = sse.Parse(body, func(f sse.Frame) error {
		got = f
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, "e1", got.ID)
	assert.Equal(t, "action", got.Event)
	assert.JSONEq(t, `{"actionType":"plan","message":"planning"}`, got.Data)

	payloads, err := c.ListEvents(ctx, id)
	require.NoError(t, err)
	require.Len(t, payloads, 1)
}

func TestTransportErrorIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(config.APIConfig{AdminURL: url, AgentURL: url, Timeout: "1s"}, nil, nil)
	_, err := c.ListProblems(context.Background())
	assert.ErrorIs(t, err, apierr.ErrInternal)
}

func TestMetricsCountRequests(t *testing.T) {
	m := metrics.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		io.WriteString(w, `{"message":"short and stout"}`)
	}))
	defer srv.Close()

	c := New(config.APIConfig{AdminURL: srv.URL, AgentURL: srv.URL}, nil, srv.Client(), WithMetrics(m))
	_, err := c.ListDocuments(context.Background())
	require.Error(t, err)
	assert.Equal(t, "short and stout", apierr.Message(err))
	assert.Equal(t, http.StatusInternalServerError, apierr.Code(err))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.APIRequests.WithLabelValues("get", "418")))
}
