package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gabe/consultant/internal/apierr"
	"github.com/gabe/consultant/internal/models"
)

// fakeAPI keeps a tiny server-side hearing in memory
type fakeAPI struct {
	mu            sync.Mutex
	problem       models.Problem
	messages      []models.Message
	executed      []*string
	failNext      error
	block         chan struct{}
	completeAfter int
	// listErr fails ListHearingMessages once a message has been executed
	listErr error
}

func newFakeAPI(status models.ProblemStatus) *fakeAPI {
	return &fakeAPI{problem: models.Problem{ID: "p1", Title: "t", Status: status}}
}

func (f *fakeAPI) GetProblem(ctx context.Context, id string) (*models.Problem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.problem
	return &p, nil
}

func (f *fakeAPI) GetHearing(ctx context.Context, problemID string) (*models.Hearing, error) {
	return &models.Hearing{ID: "h1", ProblemID: problemID}, nil
}

func (f *fakeAPI) ListHearingMessages(ctx context.Context, hearingID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil && len(f.executed) > 0 {
		return nil, f.listErr
	}
	return append([]models.Message(nil), f.messages...), nil
}

func (f *fakeAPI) GetJobConfig(ctx context.Context, problemID string) (*models.JobConfig, error) {
	return nil, apierr.FromStatus(404, "Not Found")
}

func (f *fakeAPI) ExecuteHearing(ctx context.Context, problemID string, msg *string) (*models.HearingReply, error) {
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, msg)

	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}

	if msg == nil {
		f.problem.Status = models.ProblemStatusHearing
		f.messages = append(f.messages, models.Message{Role: models.RoleAssistant, Message: "What is wrong?"})
		return &models.HearingReply{AssistantMessage: "What is wrong?"}, nil
	}

	f.messages = append(f.messages,
		models.Message{Role: models.RoleUser, Message: *msg},
		models.Message{Role: models.RoleAssistant, Message: "Noted."},
	)
	completed := f.completeAfter > 0 && len(f.executed) >= f.completeAfter
	if completed {
		f.problem.Status = models.ProblemStatusProcessing
	}
	return &models.HearingReply{AssistantMessage: "Noted.", IsCompleted: completed}, nil
}

func loaded(t *testing.T, api *fakeAPI) *Session {
	t.Helper()
	s := NewSession(api, "p1", nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return s
}

func roles(msgs []models.Message) string {
	out := ""
	for _, m := range msgs {
		out += string(m.Role[0])
	}
	return out
}

func TestInitializeRunsOnce(t *testing.T) {
	api := newFakeAPI(models.ProblemStatusPending)
	s := loaded(t, api)

	if v := s.View(); v.State != StateLoading {
		t.Fatalf("pending problem should render loading, got %s", v.State)
	}

	ran, err := s.Initialize(context.Background())
	if err != nil || !ran {
		t.Fatalf("expected Initialize to run, ran=%v err=%v", ran, err)
	}
	ran, _ = s.Initialize(context.Background())
	if ran {
		t.Error("Initialize should run only once")
	}
	if len(api.executed) != 1 || api.executed[0] != nil {
		t.Fatalf("expected one execute with nil message, got %v", api.executed)
	}

	v := s.View()
	if v.State != StateChat || !v.InputEnabled || len(v.Messages) != 1 {
		t.Errorf("unexpected view after init: %+v", v)
	}
}

func TestSubmitAppendsAndRevalidates(t *testing.T) {
	api := newFakeAPI(models.ProblemStatusPending)
	s := loaded(t, api)
	s.Initialize(context.Background())

	if err := s.Submit(context.Background(), "Our costs doubled"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if got := roles(s.View().Messages); got != "aua" {
		t.Errorf("expected assistant,user,assistant got %s", got)
	}
}

func TestBeginIsOptimisticAndBlocksSecondSend(t *testing.T) {
	api := newFakeAPI(models.ProblemStatusHearing)
	s := loaded(t, api)

	p, err := s.Begin("first")
	if err != nil {
		t.Fatal(err)
	}
	v := s.View()
	if len(v.Messages) != 1 || !v.Sending || v.InputEnabled {
		t.Fatalf("expected optimistic message while sending, got %+v", v)
	}

	if _, err := s.Begin("second"); !errors.Is(err, ErrSendInFlight) {
		t.Fatalf("expected ErrSendInFlight, got %v", err)
	}
	if len(s.View().Messages) != 1 {
		t.Fatal("rejected submit must not append a message")
	}

	if err := s.Send(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Begin("   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestFailedSendKeepsMessageAndRetryDoesNotDuplicate(t *testing.T) {
	api := newFakeAPI(models.ProblemStatusHearing)
	api.failNext = apierr.FromStatus(500, "boom")
	s := loaded(t, api)

	err := s.Submit(context.Background(), "hello")
	if !errors.Is(err, apierr.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	v := s.View()
	if len(v.Messages) != 1 || v.Messages[0].Message != "hello" || !v.CanRetry {
		t.Fatalf("expected retained optimistic message, got %+v", v)
	}

	// a snapshot while the message is failed keeps it visible
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(s.View().Messages) != 1 {
		t.Fatalf("failed message lost on reload: %+v", s.View().Messages)
	}

	if err := s.Retry(context.Background()); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	msgs := s.View().Messages
	count := 0
	for _, m := range msgs {
		if m.Message == "hello" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one copy of the message, got %d in %+v", count, msgs)
	}
	if err := s.Retry(context.Background()); !errors.Is(err, ErrNothingToRetry) {
		t.Errorf("expected ErrNothingToRetry, got %v", err)
	}
}

func TestReloadWhileSendingKeepsOptimisticMessage(t *testing.T) {
	api := newFakeAPI(models.ProblemStatusHearing)
	s := loaded(t, api)

	p, err := s.Begin("my answer")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	v := s.View()
	if len(v.Messages) != 1 || v.Messages[0].Message != "my answer" || !v.Sending {
		t.Fatalf("in-flight message lost on reload: %+v", v)
	}

	if err := s.Send(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if got := roles(s.View().Messages); got != "ua" {
		t.Errorf("expected user,assistant after delivery, got %s", got)
	}
}

func TestDeliveredMessageWithFailedRefreshIsNotRetryable(t *testing.T) {
	api := newFakeAPI(models.ProblemStatusHearing)
	api.listErr = errors.New("list down")
	s := loaded(t, api)

	err := s.Submit(context.Background(), "hello")
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("expected ErrRefreshFailed, got %v", err)
	}
	if len(api.executed) != 1 {
		t.Fatalf("expected one execute, got %d", len(api.executed))
	}
	v := s.View()
	if v.CanRetry || v.Sending {
		t.Errorf("delivered message must not be retryable: %+v", v)
	}
	if got := roles(v.Messages); got != "ua" {
		t.Errorf("expected local user,assistant, got %s", got)
	}
	if err := s.Retry(context.Background()); !errors.Is(err, ErrNothingToRetry) {
		t.Errorf("expected ErrNothingToRetry, got %v", err)
	}
}

func TestInputClosedWhileProcessing(t *testing.T) {
	api := newFakeAPI(models.ProblemStatusHearing)
	api.completeAfter = 1
	s := loaded(t, api)

	if err := s.Submit(context.Background(), "last answer"); err != nil {
		t.Fatal(err)
	}
	v := s.View()
	if v.State != StateMonitoring || v.InputEnabled {
		t.Fatalf("expected monitoring with input disabled, got %+v", v)
	}
	if _, err := s.Begin("more"); !errors.Is(err, ErrInputClosed) {
		t.Errorf("expected ErrInputClosed, got %v", err)
	}
}

func TestConcurrentSubmitSendsOnce(t *testing.T) {
	api := newFakeAPI(models.ProblemStatusHearing)
	api.block = make(chan struct{})
	s := loaded(t, api)

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background(), "one") }()

	deadline := time.Now().Add(time.Second)
	for !s.View().Sending && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := s.Submit(context.Background(), "one"); !errors.Is(err, ErrSendInFlight) {
		t.Fatalf("expected ErrSendInFlight, got %v", err)
	}

	close(api.block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if len(api.executed) != 1 {
		t.Errorf("expected a single execute, got %d", len(api.executed))
	}
}

type staticEvents []models.Event

func (s staticEvents) Events() []models.Event { return s }

func TestMonitorShowsLastActionAndDedupedLog(t *testing.T) {
	mk := func(id, kind, action, msg string) models.Event {
		ev, err := models.DecodeEvent(models.EventPayload{ID: id, EventType: kind, ActionType: action, Message: msg})
		if err != nil {
			t.Fatal(err)
		}
		return ev
	}

	api := newFakeAPI(models.ProblemStatusProcessing)
	s := NewSession(api, "p1", staticEvents{
		mk("1", "action", "plan", "Planning"),
		mk("2", "output", "plan", "Plan done"),
		mk("3", "action", "search", "Searching"),
		mk("2", "output", "plan", "Plan done"),
		mk("4", "output", "search", "Found 3 sources"),
	})
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	v := s.View()
	if v.Monitor == nil {
		t.Fatal("expected monitor while processing")
	}
	if v.Monitor.Current != "Searching" {
		t.Errorf("expected last action message, got %q", v.Monitor.Current)
	}
	if len(v.Monitor.Log) != 4 {
		t.Errorf("expected 4 unique events, got %d", len(v.Monitor.Log))
	}
}

func TestAwaitMessagesPollsUntilNonEmpty(t *testing.T) {
	api := newFakeAPI(models.ProblemStatusHearing)
	s := NewSession(api, "p1", nil)

	go func() {
		time.Sleep(20 * time.Millisecond)
		api.mu.Lock()
		api.messages = append(api.messages, models.Message{Role: models.RoleAssistant, Message: "hi"})
		api.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.AwaitMessages(ctx, 5*time.Millisecond); err != nil {
		t.Fatalf("AwaitMessages failed: %v", err)
	}
	if len(s.View().Messages) != 1 {
		t.Error("expected the polled message")
	}
}

func TestViewStates(t *testing.T) {
	cases := map[models.ProblemStatus]ViewState{
		models.ProblemStatusPending:    StateLoading,
		models.ProblemStatusHearing:    StateChat,
		models.ProblemStatusProcessing: StateMonitoring,
		models.ProblemStatusDone:       StateReport,
		models.ProblemStatusFailed:     StateFailed,
	}
	for status, want := range cases {
		if got := stateFor(&models.Problem{Status: status}); got != want {
			t.Errorf("%s: expected %s, got %s", status, want, got)
		}
	}
}
