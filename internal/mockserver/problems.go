package mockserver

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gabe/consultant/internal/models"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const maxTitleRunes = 40

// titleFor derives a short title from the first line of a description
func titleFor(description string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(description), "\n")
	if utf8.RuneCountInString(line) <= maxTitleRunes {
		return line
	}
	runes := []rune(line)
	return string(runes[:maxTitleRunes]) + "..."
}

// ListProblems returns all problems, newest first.
// GET /api/problems
func (s *Server) ListProblems(c echo.Context) error {
	s.mu.Lock()
	problems := make([]models.Problem, 0, len(s.problemOrder))
	for i := len(s.problemOrder) - 1; i >= 0; i-- {
		problems = append(problems, s.problems[s.problemOrder[i]].problem)
	}
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{"problems": problems})
}

// CreateProblem stores a pending problem.
// POST /api/problems
func (s *Server) CreateProblem(c echo.Context) error {
	var req models.CreateProblemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Bad Request")
	}
	if strings.TrimSpace(req.Description) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "description is required")
	}

	id := uuid.NewString()
	state := &problemState{
		problem: models.Problem{
			ID:          id,
			Title:       titleFor(req.Description),
			Description: req.Description,
			Status:      models.ProblemStatusPending,
			CreatedAt:   s.opts.Now(),
		},
		jobConfig: models.JobConfig{
			ID:        uuid.NewString(),
			ProblemID: id,
		},
	}

	s.mu.Lock()
	s.problems[id] = state
	s.problemOrder = append(s.problemOrder, id)
	s.mu.Unlock()

	return c.JSON(http.StatusCreated, models.CreatedResource{ID: id})
}

// GetProblem returns one problem.
// GET /api/problems/:problemId
func (s *Server) GetProblem(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.lookupProblem(c.Param("problemId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state.problem)
}

// DeleteProblem removes a problem and everything attached to it.
// DELETE /api/problems/:problemId
func (s *Server) DeleteProblem(c echo.Context) error {
	id := c.Param("problemId")

	s.mu.Lock()
	if _, err := s.lookupProblem(id); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.problems, id)
	s.problemOrder = removeID(s.problemOrder, id)
	s.mu.Unlock()

	return c.NoContent(http.StatusNoContent)
}

// GetJobConfig returns the agent settings of a problem.
// GET /api/job-configs/:problemId
func (s *Server) GetJobConfig(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.lookupProblem(c.Param("problemId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state.jobConfig)
}

// UpdateJobConfig changes the agent settings of a problem.
// PUT /api/job-configs/:problemId
func (s *Server) UpdateJobConfig(c echo.Context) error {
	var req models.UpdateJobConfigRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Bad Request")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.lookupProblem(c.Param("problemId"))
	if err != nil {
		return err
	}
	state.jobConfig.EnableInternalSearch = req.EnableInternalSearch
	return c.JSON(http.StatusOK, state.jobConfig)
}

// GetReport returns the report once the run has finished.
// GET /api/reports/:problemId
func (s *Server) GetReport(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.lookupProblem(c.Param("problemId"))
	if err != nil {
		return err
	}
	if state.report == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Not Found")
	}
	return c.JSON(http.StatusOK, state.report)
}

// lookupProblem must be called with s.mu held
func (s *Server) lookupProblem(id string) (*problemState, error) {
	state, ok := s.problems[id]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Not Found")
	}
	return state, nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
