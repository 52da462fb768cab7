// Package mockserver is an in-memory stand-in for the admin and agent APIs.
// It serves the same routes as the real backend from a single echo instance.
package mockserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gabe/consultant/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Options tunes the simulated backend
type Options struct {
	// Token, when set, is required as a bearer token on every request
	Token string
	// HearingTurns is the number of user answers before the hearing completes
	HearingTurns int
	// StepDelay separates the simulated agent events
	StepDelay time.Duration
	// DocumentDelay is how long a document stays in each non-terminal status
	DocumentDelay time.Duration
	// KeepAlive is the interval of SSE comment frames
	KeepAlive time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

func (o *Options) setDefaults() {
	if o.HearingTurns <= 0 {
		o.HearingTurns = 3
	}
	if o.StepDelay <= 0 {
		o.StepDelay = 500 * time.Millisecond
	}
	if o.DocumentDelay <= 0 {
		o.DocumentDelay = 2 * time.Second
	}
	if o.KeepAlive <= 0 {
		o.KeepAlive = 15 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type problemState struct {
	problem    models.Problem
	hearing    *models.Hearing
	hearingMap *models.HearingMap
	messages   []models.Message
	events     []models.EventPayload
	report     *models.Report
	jobConfig  models.JobConfig
	turns      int
}

// Server holds all backend state
type Server struct {
	opts Options
	echo *echo.Echo

	mu           sync.Mutex
	problems     map[string]*problemState
	problemOrder []string
	documents    map[string]*models.Document
	docOrder     []string
	subscribers  map[string]map[chan models.EventPayload]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a server with its routes registered
func New(opts Options) *Server {
	opts.setDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		opts:        opts,
		problems:    make(map[string]*problemState),
		documents:   make(map[string]*models.Document),
		subscribers: make(map[string]map[chan models.EventPayload]struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler
	e.Use(middleware.Recover())
	if opts.Token != "" {
		e.Use(s.requireToken)
	}
	s.RegisterRoutes(e)
	s.echo = e

	return s
}

// Handler returns the http.Handler serving every route
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Close()
		return s.echo.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close stops simulated runs and disconnects every stream
func (s *Server) Close() {
	s.cancel()
	s.DropStreams()
	s.wg.Wait()
}

// RegisterRoutes registers admin and agent routes with the echo server
func (s *Server) RegisterRoutes(e *echo.Echo) {
	// Problems
	e.GET("/api/problems", s.ListProblems)
	e.POST("/api/problems", s.CreateProblem)
	e.GET("/api/problems/:problemId", s.GetProblem)
	e.DELETE("/api/problems/:problemId", s.DeleteProblem)

	// Hearing
	e.GET("/api/hearings/:problemId", s.GetHearing)
	e.GET("/api/hearing-messages/:hearingId", s.ListHearingMessages)
	e.POST("/api/hearings/:problemId", s.ExecuteHearing)
	e.GET("/api/hearing-maps/:hearingId", s.GetHearingMap)

	// Documents
	e.GET("/api/documents", s.ListDocuments)
	e.POST("/api/documents", s.CreateDocument)
	e.GET("/api/documents/:documentId", s.GetDocument)
	e.DELETE("/api/documents/:documentId", s.DeleteDocument)

	// Agent output
	e.GET("/api/reports/:problemId", s.GetReport)
	e.GET("/api/events/:problemId", s.ListEvents)
	e.GET("/api/events/:problemId/stream", s.StreamEvents)

	// Job configs
	e.GET("/api/job-configs/:problemId", s.GetJobConfig)
	e.PUT("/api/job-configs/:problemId", s.UpdateJobConfig)
}

func (s *Server) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if strings.TrimPrefix(header, "Bearer ") != s.opts.Token || !strings.HasPrefix(header, "Bearer ") {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
		return next(c)
	}
}

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := "Internal Server Error"

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	}

	if c.Response().Committed {
		return
	}

	s.opts.Logger.Warn("request failed",
		"code", code,
		"message", message,
		"method", c.Request().Method,
		"uri", c.Request().RequestURI,
	)
	if err := c.JSON(code, ErrorResponse{Code: code, Message: message}); err != nil {
		s.opts.Logger.Error("failed to write response", "error", err)
	}
}
