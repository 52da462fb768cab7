package mockserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gabe/consultant/internal/models"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const hearingCompletedMessage = "The hearing is complete. The agent will now research your problem."

var hearingQuestions = []string{
	"Thanks. What outcome would make this problem solved for you?",
	"Who is affected by this problem, and how often does it occur?",
	"What have you already tried, and what constraints should the proposal respect?",
	"Is there a deadline or budget the proposal needs to fit?",
}

func (s *Server) question(turn int) string {
	return hearingQuestions[turn%len(hearingQuestions)]
}

// GetHearing returns the hearing of a problem.
// GET /api/hearings/:problemId
func (s *Server) GetHearing(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.lookupProblem(c.Param("problemId"))
	if err != nil {
		return err
	}
	if state.hearing == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Not Found")
	}
	return c.JSON(http.StatusOK, state.hearing)
}

// ListHearingMessages returns the conversation in order.
// GET /api/hearing-messages/:hearingId
func (s *Server) ListHearingMessages(c echo.Context) error {
	hearingID := c.Param("hearingId")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, state := range s.problems {
		if state.hearing != nil && state.hearing.ID == hearingID {
			messages := append([]models.Message(nil), state.messages...)
			return c.JSON(http.StatusOK, map[string]any{"hearingMessages": messages})
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "Not Found")
}

// GetHearingMap returns the mindmap of a completed hearing.
// GET /api/hearing-maps/:hearingId
func (s *Server) GetHearingMap(c echo.Context) error {
	hearingID := c.Param("hearingId")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, state := range s.problems {
		if state.hearing != nil && state.hearing.ID == hearingID && state.hearingMap != nil {
			return c.JSON(http.StatusOK, state.hearingMap)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "Not Found")
}

// buildHearingMap lays the user's answers out as a mermaid mindmap under the problem title
func buildHearingMap(title string, messages []models.Message) string {
	var b strings.Builder
	b.WriteString("mindmap\n")
	fmt.Fprintf(&b, "  root((%s))\n", mindmapLabel(title))
	for _, m := range messages {
		if m.Role != models.RoleUser {
			continue
		}
		fmt.Fprintf(&b, "    %s\n", mindmapLabel(m.Message))
	}
	return b.String()
}

// mindmapLabel flattens text onto one line and strips mermaid shape delimiters
func mindmapLabel(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	return strings.Map(func(r rune) rune {
		switch r {
		case '(', ')', '[', ']', '{', '}':
			return -1
		}
		return r
	}, text)
}

// ExecuteHearing runs one hearing turn. A null user_message opens the hearing.
// POST /api/hearings/:problemId (agent API)
func (s *Server) ExecuteHearing(c echo.Context) error {
	var req models.ExecuteHearingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Bad Request")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.lookupProblem(c.Param("problemId"))
	if err != nil {
		return err
	}

	switch state.problem.Status {
	case models.ProblemStatusProcessing:
		return echo.NewHTTPError(http.StatusBadRequest, "problem already processing")
	case models.ProblemStatusDone, models.ProblemStatusFailed:
		return echo.NewHTTPError(http.StatusBadRequest, "problem already done")
	}

	now := s.opts.Now()

	if state.hearing == nil {
		state.hearing = &models.Hearing{ID: uuid.NewString(), ProblemID: state.problem.ID, CreatedAt: now}
		state.problem.Status = models.ProblemStatusHearing
	}

	if len(state.messages) == 0 {
		opening := fmt.Sprintf("Let's talk about %q. %s", state.problem.Title, s.question(0))
		s.appendMessage(state, models.RoleAssistant, opening)
		return c.JSON(http.StatusOK, models.HearingReply{AssistantMessage: opening})
	}

	if req.UserMessage == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "user message is required")
	}

	s.appendMessage(state, models.RoleUser, *req.UserMessage)
	state.turns++

	if state.turns >= s.opts.HearingTurns {
		s.appendMessage(state, models.RoleAssistant, hearingCompletedMessage)
		state.hearingMap = &models.HearingMap{
			ID:        uuid.NewString(),
			HearingID: state.hearing.ID,
			ProblemID: state.problem.ID,
			Content:   buildHearingMap(state.problem.Title, state.messages),
		}
		state.problem.Status = models.ProblemStatusProcessing
		s.startRun(state.problem.ID)
		return c.JSON(http.StatusOK, models.HearingReply{AssistantMessage: hearingCompletedMessage, IsCompleted: true})
	}

	reply := s.question(state.turns)
	s.appendMessage(state, models.RoleAssistant, reply)
	return c.JSON(http.StatusOK, models.HearingReply{AssistantMessage: reply})
}

// appendMessage must be called with s.mu held
func (s *Server) appendMessage(state *problemState, role models.Role, text string) {
	state.messages = append(state.messages, models.Message{
		ID:        uuid.NewString(),
		HearingID: state.hearing.ID,
		Role:      role,
		Message:   text,
		CreatedAt: s.opts.Now(),
	})
}
