package mockserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gabe/consultant/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createProblem(t *testing.T, s *Server) string {
	t.Helper()
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/problems", models.CreateProblemRequest{Description: "Our onboarding takes too long"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.CreatedResource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created.ID
}

func TestProblemLifecycle(t *testing.T) {
	s := New(Options{HearingTurns: 1, StepDelay: time.Millisecond})
	defer s.Close()

	id := createProblem(t, s)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/problems/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var problem models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemStatusPending, problem.Status)
	assert.Equal(t, "Our onboarding takes too long", problem.Title)

	// opening turn
	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/hearings/"+id, models.ExecuteHearingRequest{})
	require.Equal(t, http.StatusOK, rec.Code)

	answer := "Faster onboarding"
	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/hearings/"+id, models.ExecuteHearingRequest{UserMessage: &answer})
	require.Equal(t, http.StatusOK, rec.Code)
	var reply models.HearingReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.True(t, reply.IsCompleted)

	// further turns are rejected while processing
	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/hearings/"+id, models.ExecuteHearingRequest{UserMessage: &answer})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Eventually(t, func() bool {
		return doJSON(t, s.Handler(), http.MethodGet, "/api/reports/"+id, nil).Code == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/events/"+id, nil)
	var events struct {
		Events []models.EventPayload `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.NotEmpty(t, events.Events)
	last := events.Events[len(events.Events)-1]
	assert.Equal(t, string(models.ActionTypeDone), last.ActionType)
}

func TestHearingMessagesRequireUserMessageAfterOpening(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	id := createProblem(t, s)
	doJSON(t, s.Handler(), http.MethodPost, "/api/hearings/"+id, models.ExecuteHearingRequest{})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/hearings/"+id, models.ExecuteHearingRequest{})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "user message is required", body.Message)
}

func TestHearingMapExistsOnlyAfterCompletion(t *testing.T) {
	s := New(Options{HearingTurns: 2, StepDelay: time.Millisecond})
	defer s.Close()

	id := createProblem(t, s)
	doJSON(t, s.Handler(), http.MethodPost, "/api/hearings/"+id, models.ExecuteHearingRequest{})

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/hearings/"+id, nil)
	var hearing models.Hearing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hearing))

	first, second := "Shorter\nsetup", "Fewer [manual] steps"
	doJSON(t, s.Handler(), http.MethodPost, "/api/hearings/"+id, models.ExecuteHearingRequest{UserMessage: &first})
	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/hearing-maps/"+hearing.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	doJSON(t, s.Handler(), http.MethodPost, "/api/hearings/"+id, models.ExecuteHearingRequest{UserMessage: &second})
	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/hearing-maps/"+hearing.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var hm models.HearingMap
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hm))
	assert.Equal(t, id, hm.ProblemID)
	assert.Equal(t, "mindmap\n  root((Our onboarding takes too long))\n    Shorter setup\n    Fewer manual steps\n", hm.Content)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/hearing-maps/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentStatusAdvances(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(Options{DocumentDelay: time.Minute, Now: func() time.Time { return now }})
	defer s.Close()

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/documents", models.CreateDocumentRequest{
		Title: "notes", DocumentType: models.DocumentTypeMarkdown, Data: "IyBoaQ==",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.CreatedResource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	status := func() models.DocumentStatus {
		rec := doJSON(t, s.Handler(), http.MethodGet, "/api/documents/"+created.ID, nil)
		var doc models.Document
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
		return doc.DocumentStatus
	}

	assert.Equal(t, models.DocumentStatusPending, status())
	now = now.Add(time.Minute)
	assert.Equal(t, models.DocumentStatusProcessing, status())
	now = now.Add(time.Minute)
	assert.Equal(t, models.DocumentStatusDone, status())
}

func TestCreateDocumentValidation(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/documents", models.CreateDocumentRequest{
		Title: "x", DocumentType: "docx", Data: "",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/documents", models.CreateDocumentRequest{
		Title: "x", DocumentType: models.DocumentTypeCSV, Data: "not base64!",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireToken(t *testing.T) {
	s := New(Options{Token: "secret"})
	defer s.Close()

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/problems", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/problems", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownProblemIs404(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	for _, path := range []string{"/api/problems/nope", "/api/hearings/nope", "/api/events/nope", "/api/job-configs/nope"} {
		rec := doJSON(t, s.Handler(), http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}
