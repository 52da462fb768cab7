// Package chat holds the client-side state of one problem's hearing.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gabe/consultant/internal/apierr"
	"github.com/gabe/consultant/internal/models"
	"github.com/gabe/consultant/internal/poll"
	"golang.org/x/sync/errgroup"
)

// DefaultMessagesInterval is how often AwaitMessages polls an empty hearing
const DefaultMessagesInterval = time.Second

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrSendInFlight   = errors.New("a message is already being sent")
	ErrInputClosed    = errors.New("the hearing is not accepting messages")
	ErrNothingToRetry = errors.New("no failed message to retry")
	ErrNotLoaded      = errors.New("problem not loaded")
	// ErrRefreshFailed means the message was delivered but the reload after it failed
	ErrRefreshFailed = errors.New("message delivered but refresh failed")
)

// API is the subset of the backend client a Session uses
type API interface {
	GetProblem(ctx context.Context, problemID string) (*models.Problem, error)
	GetHearing(ctx context.Context, problemID string) (*models.Hearing, error)
	ListHearingMessages(ctx context.Context, hearingID string) ([]models.Message, error)
	ExecuteHearing(ctx context.Context, problemID string, userMessage *string) (*models.HearingReply, error)
	GetJobConfig(ctx context.Context, problemID string) (*models.JobConfig, error)
}

// EventSource supplies the deduplicated event log, usually a stream.Consumer
type EventSource interface {
	Events() []models.Event
}

// Pending is an optimistic user message awaiting the agent's reply
type Pending struct {
	Text string
}

// Session merges server snapshots, optimistic user messages and agent events
// into the state the chat view renders. All methods are safe for concurrent use.
type Session struct {
	api       API
	problemID string
	events    EventSource
	now       func() time.Time

	mu          sync.Mutex
	problem     *models.Problem
	hearing     *models.Hearing
	jobConfig   *models.JobConfig
	messages    []models.Message
	initialized bool
	sending     bool
	failed      *models.Message
	pending     *models.Message
}

func NewSession(api API, problemID string, events EventSource) *Session {
	return &Session{api: api, problemID: problemID, events: events, now: time.Now}
}

// ProblemID returns the id the session was created for
func (s *Session) ProblemID() string {
	return s.problemID
}

// Load fetches the problem and, once the hearing has started, the hearing,
// its messages and the job config. The message snapshot replaces local state.
func (s *Session) Load(ctx context.Context) error {
	problem, err := s.api.GetProblem(ctx, s.problemID)
	if err != nil {
		return fmt.Errorf("failed to load problem: %w", err)
	}

	s.mu.Lock()
	s.problem = problem
	s.mu.Unlock()

	if problem.Status == models.ProblemStatusPending {
		return nil
	}

	var (
		hearing   *models.Hearing
		jobConfig *models.JobConfig
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := s.api.GetHearing(gctx, s.problemID)
		if err != nil {
			return fmt.Errorf("failed to load hearing: %w", err)
		}
		hearing = h
		return nil
	})
	g.Go(func() error {
		cfg, err := s.api.GetJobConfig(gctx, s.problemID)
		if err != nil {
			// older problems may have no job config
			if errors.Is(err, apierr.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load job config: %w", err)
		}
		jobConfig = cfg
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	messages, err := s.api.ListHearingMessages(ctx, hearing.ID)
	if err != nil {
		return fmt.Errorf("failed to load hearing messages: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hearing = hearing
	s.jobConfig = jobConfig
	s.replaceMessages(messages)
	return nil
}

// replaceMessages installs a server snapshot. A failed optimistic message is
// kept at the end so the user can still retry it, and a message still being
// sent stays until the snapshot contains it. Must be called with s.mu held.
func (s *Session) replaceMessages(snapshot []models.Message) {
	s.messages = append([]models.Message(nil), snapshot...)
	if s.failed != nil {
		s.messages = append(s.messages, *s.failed)
	}
	if s.pending != nil && !containsUserMessage(snapshot, s.pending.Message) {
		s.messages = append(s.messages, *s.pending)
	}
}

func containsUserMessage(messages []models.Message, text string) bool {
	for _, m := range messages {
		if m.Role == models.RoleUser && m.Message == text {
			return true
		}
	}
	return false
}

// Initialize opens the hearing when the problem is still pending. It runs at
// most once per session and reports whether it did anything.
func (s *Session) Initialize(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.problem == nil {
		s.mu.Unlock()
		return false, ErrNotLoaded
	}
	if s.problem.Status != models.ProblemStatusPending || s.initialized {
		s.mu.Unlock()
		return false, nil
	}
	s.initialized = true
	s.mu.Unlock()

	if _, err := s.api.ExecuteHearing(ctx, s.problemID, nil); err != nil {
		return true, fmt.Errorf("failed to start hearing: %w", err)
	}
	return true, s.Load(ctx)
}

// Begin validates text and appends it as an optimistic user message. The
// returned Pending must be passed to Send.
func (s *Session) Begin(text string) (Pending, error) {
	if strings.TrimSpace(text) == "" {
		return Pending{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sending {
		return Pending{}, ErrSendInFlight
	}
	if s.problem == nil {
		return Pending{}, ErrNotLoaded
	}
	if s.problem.Status != models.ProblemStatusHearing {
		return Pending{}, ErrInputClosed
	}

	// a new message supersedes an earlier failed one
	s.failed = nil
	s.sending = true
	msg := models.Message{
		Role:      models.RoleUser,
		Message:   text,
		CreatedAt: s.now(),
	}
	s.pending = &msg
	s.messages = append(s.messages, msg)
	return Pending{Text: text}, nil
}

// Send delivers a pending message. On success the agent reply is appended and
// the server snapshot is reloaded. On failure the optimistic message stays in
// place and can be re-sent with Retry. A failed reload after a delivered
// message is reported as ErrRefreshFailed.
func (s *Session) Send(ctx context.Context, p Pending) error {
	text := p.Text
	reply, err := s.api.ExecuteHearing(ctx, s.problemID, &text)

	s.mu.Lock()
	s.sending = false
	s.pending = nil
	if err != nil {
		s.failed = s.lastUserMessage(p.Text)
		s.mu.Unlock()
		return fmt.Errorf("failed to send message: %w", err)
	}

	s.failed = nil
	s.messages = append(s.messages, models.Message{
		Role:      models.RoleAssistant,
		Message:   reply.AssistantMessage,
		CreatedAt: s.now(),
	})
	if reply.IsCompleted && s.problem != nil {
		s.problem.Status = models.ProblemStatusProcessing
	}
	s.mu.Unlock()

	if err := s.Load(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	return nil
}

// lastUserMessage finds the optimistic entry for text. Must be called with s.mu held.
func (s *Session) lastUserMessage(text string) *models.Message {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if m := s.messages[i]; m.Role == models.RoleUser && m.Message == text {
			return &m
		}
	}
	return &models.Message{Role: models.RoleUser, Message: text, CreatedAt: s.now()}
}

// Submit is Begin followed by Send
func (s *Session) Submit(ctx context.Context, text string) error {
	p, err := s.Begin(text)
	if err != nil {
		return err
	}
	return s.Send(ctx, p)
}

// Retry re-sends the last failed message without appending it again
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.failed == nil {
		s.mu.Unlock()
		return ErrNothingToRetry
	}
	if s.sending {
		s.mu.Unlock()
		return ErrSendInFlight
	}
	p := Pending{Text: s.failed.Message}
	// the entry is already on screen; it moves from failed to pending
	s.pending = s.failed
	s.failed = nil
	s.sending = true
	s.mu.Unlock()

	return s.Send(ctx, p)
}

// AwaitMessages polls the hearing messages every interval while the list is
// empty. It returns once at least one message exists or ctx ends.
func (s *Session) AwaitMessages(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultMessagesInterval
	}

	return poll.Until(ctx, interval, func(ctx context.Context) (bool, error) {
		s.mu.Lock()
		hearing := s.hearing
		s.mu.Unlock()

		if hearing == nil {
			h, err := s.api.GetHearing(ctx, s.problemID)
			if err != nil {
				return false, nil
			}
			hearing = h
		}

		messages, err := s.api.ListHearingMessages(ctx, hearing.ID)
		if err != nil || len(messages) == 0 {
			return false, nil
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.hearing = hearing
		s.replaceMessages(messages)
		return true, nil
	})
}

// RefreshStatus refetches only the problem and returns its status
func (s *Session) RefreshStatus(ctx context.Context) (models.ProblemStatus, error) {
	problem, err := s.api.GetProblem(ctx, s.problemID)
	if err != nil {
		return "", fmt.Errorf("failed to refresh problem: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.problem = problem
	return problem.Status, nil
}

// View returns a snapshot for rendering
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		State:    stateFor(s.problem),
		Messages: append([]models.Message(nil), s.messages...),
		Sending:  s.sending,
		CanRetry: s.failed != nil && !s.sending,
	}
	if s.problem != nil {
		p := *s.problem
		v.Problem = &p
	}
	if s.jobConfig != nil {
		cfg := *s.jobConfig
		v.JobConfig = &cfg
	}
	v.InputEnabled = v.State == StateChat && !s.sending

	if v.State == StateMonitoring && s.events != nil {
		m := NewMonitor(s.events.Events())
		v.Monitor = &m
	}
	return v
}
