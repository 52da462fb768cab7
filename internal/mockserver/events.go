package mockserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gabe/consultant/internal/models"
	"github.com/gabe/consultant/internal/sse"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// subscriberBuffer bounds how far a slow stream client may fall behind before
// events are dropped for it. Dropped events are still returned by ListEvents.
const subscriberBuffer = 256

type step struct {
	action models.ActionType
	input  string
	output string
}

func runSteps(internalSearch bool) []step {
	search := "Searching public sources for comparable cases."
	if internalSearch {
		search = "Searching public sources and uploaded documents for comparable cases."
	}
	return []step{
		{models.ActionTypePlan, "Reading the hearing transcript.", "Drafted a three part research plan."},
		{models.ActionTypeSearch, search, "Collected background material."},
		{models.ActionTypeAnalyze, "Comparing options against the stated constraints.", "Ranked the candidate approaches."},
		{models.ActionTypeWrite, "Writing the proposal.", "Proposal draft complete."},
		{models.ActionTypeReview, "Reviewing the draft for gaps.", "Review passed."},
	}
}

// ListEvents returns every event recorded for a problem.
// GET /api/events/:problemId
func (s *Server) ListEvents(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.lookupProblem(c.Param("problemId"))
	if err != nil {
		return err
	}
	events := append([]models.EventPayload{}, state.events...)
	return c.JSON(http.StatusOK, map[string]any{"events": events})
}

type streamData struct {
	ActionType string `json:"actionType"`
	Message    string `json:"message"`
}

// StreamEvents pushes new events of a problem as server-sent events.
// GET /api/events/:problemId/stream
func (s *Server) StreamEvents(c echo.Context) error {
	problemID := c.Param("problemId")

	s.mu.Lock()
	if _, err := s.lookupProblem(problemID); err != nil {
		s.mu.Unlock()
		return err
	}
	ch := s.subscribe(problemID)
	s.mu.Unlock()
	defer s.unsubscribe(problemID, ch)

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ctx := c.Request().Context()
	keepAlive := time.NewTicker(s.opts.KeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.ctx.Done():
			return nil
		case <-keepAlive.C:
			if err := sse.WriteComment(w, "keep-alive"); err != nil {
				return nil
			}
			w.Flush()
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := json.Marshal(streamData{ActionType: ev.ActionType, Message: ev.Message})
			if err != nil {
				return err
			}
			if err := sse.Write(w, sse.Frame{ID: ev.ID, Event: ev.EventType, Data: string(data)}); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

// subscribe must be called with s.mu held
func (s *Server) subscribe(problemID string) chan models.EventPayload {
	ch := make(chan models.EventPayload, subscriberBuffer)
	if s.subscribers[problemID] == nil {
		s.subscribers[problemID] = make(map[chan models.EventPayload]struct{})
	}
	s.subscribers[problemID][ch] = struct{}{}
	return ch
}

func (s *Server) unsubscribe(problemID string, ch chan models.EventPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subscribers[problemID]
	if _, ok := subs[ch]; ok {
		delete(subs, ch)
		close(ch)
	}
}

// Subscribers reports how many stream clients are connected to a problem
func (s *Server) Subscribers(problemID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers[problemID])
}

// DropStreams disconnects every stream client, as a restarting backend would
func (s *Server) DropStreams() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for problemID, subs := range s.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(s.subscribers, problemID)
	}
}

// Publish records an event and pushes it to connected stream clients.
// An empty ID is replaced with a fresh UUID.
func (s *Server) Publish(problemID string, ev models.EventPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publishLocked(problemID, ev)
}

func (s *Server) publishLocked(problemID string, ev models.EventPayload) error {
	state, ok := s.problems[problemID]
	if !ok {
		return fmt.Errorf("problem %s not found", problemID)
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	state.events = append(state.events, ev)

	for ch := range s.subscribers[problemID] {
		select {
		case ch <- ev:
		default:
			s.opts.Logger.Warn("stream subscriber is full, dropping event", "problem_id", problemID, "event_id", ev.ID)
		}
	}
	return nil
}

// startRun must be called with s.mu held
func (s *Server) startRun(problemID string) {
	internalSearch := s.problems[problemID].jobConfig.EnableInternalSearch
	s.wg.Add(1)
	go s.run(problemID, runSteps(internalSearch))
}

func (s *Server) run(problemID string, steps []step) {
	defer s.wg.Done()

	publish := func(kind models.EventKind, action models.ActionType, message string) bool {
		select {
		case <-s.ctx.Done():
			return false
		case <-time.After(s.opts.StepDelay):
		}
		err := s.Publish(problemID, models.EventPayload{
			EventType:  string(kind),
			ActionType: string(action),
			Message:    message,
		})
		return err == nil
	}

	for _, st := range steps {
		if !publish(models.EventKindAction, st.action, st.input) {
			return
		}
		if !publish(models.EventKindOutput, st.action, st.output) {
			return
		}
	}
	if !publish(models.EventKindAction, models.ActionTypeDone, "Report ready.") {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.problems[problemID]
	if !ok {
		return
	}
	state.report = &models.Report{
		ID:        uuid.NewString(),
		ProblemID: problemID,
		Content:   buildReport(state),
		CreatedAt: s.opts.Now(),
	}
	state.problem.Status = models.ProblemStatusDone
	s.opts.Logger.Info("simulated run finished", "problem_id", problemID)
}

func buildReport(state *problemState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", state.problem.Title)
	b.WriteString("## Problem\n\n")
	b.WriteString(state.problem.Description)
	b.WriteString("\n\n## Hearing summary\n\n")
	for _, m := range state.messages {
		if m.Role == models.RoleUser {
			fmt.Fprintf(&b, "- %s\n", m.Message)
		}
	}
	b.WriteString("\n## Recommendation\n\n")
	b.WriteString("Start with the lowest-cost option identified during analysis and review the outcome after one month.\n")
	return b.String()
}
