// Package stream follows the live event feed of a problem.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gabe/consultant/internal/metrics"
	"github.com/gabe/consultant/internal/models"
	"github.com/gabe/consultant/internal/sse"
	"github.com/google/uuid"
)

// DefaultReconnectDelay is the fixed wait between a dropped connection and the next attempt
const DefaultReconnectDelay = 3 * time.Second

var (
	// ErrConnectionClosed is reported each time the stream drops and a reconnect is scheduled
	ErrConnectionClosed = errors.New("event stream connection closed. reconnecting...")
	ErrAlreadyRunning   = errors.New("event stream consumer already running")
)

// Source is the subset of the API client the consumer needs
type Source interface {
	ListEvents(ctx context.Context, problemID string) ([]models.EventPayload, error)
	OpenEventStream(ctx context.Context, problemID string) (io.ReadCloser, error)
}

// Options configures a Consumer. Callbacks run on the consumer goroutine and
// must not block for long.
type Options struct {
	ReconnectDelay time.Duration
	// OnEvent is called when an event is added or its content changes
	OnEvent func(models.Event)
	// OnError receives transport and parse failures. None of them stop the consumer.
	OnError func(error)
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Consumer merges polled and pushed events of one problem into an EventLog
// and keeps the push connection alive until stopped.
type Consumer struct {
	source    Source
	problemID string
	opts      Options
	log       *EventLog

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(source Source, problemID string, opts Options) *Consumer {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Consumer{
		source:    source,
		problemID: problemID,
		opts:      opts,
		log:       NewEventLog(),
	}
}

// Start fetches the recorded events and then follows the stream in the
// background until Stop is called or ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		if !closed(c.done) {
			return ErrAlreadyRunning
		}
		// previous run ended with its parent context
		c.cancel()
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.run(runCtx, c.done)
	return nil
}

// Stop closes the connection and waits for the consumer to exit. It is safe
// to call more than once.
func (c *Consumer) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the consumer goroutine is alive
func (c *Consumer) Running() bool {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	return done != nil && !closed(done)
}

func closed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// Events returns the deduplicated events in arrival order
func (c *Consumer) Events() []models.Event {
	return c.log.Events()
}

func (c *Consumer) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	c.poll(ctx)

	for {
		err := c.follow(ctx)
		if ctx.Err() != nil {
			return
		}

		c.opts.Logger.Warn("event stream closed", "problem_id", c.problemID, "error", err)
		c.reportError(ErrConnectionClosed)
		c.opts.Metrics.ObserveReconnect()

		timer := time.NewTimer(c.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		// Catch up on anything pushed while disconnected
		c.poll(ctx)
	}
}

// follow holds one stream connection open until it ends
func (c *Consumer) follow(ctx context.Context) error {
	body, err := c.source.OpenEventStream(ctx, c.problemID)
	if err != nil {
		return err
	}
	defer body.Close()

	c.opts.Logger.Debug("event stream connected", "problem_id", c.problemID)
	return sse.Parse(body, func(frame sse.Frame) error {
		ev, err := decodeFrame(frame)
		if err != nil {
			c.opts.Metrics.ObserveParseFailure()
			c.reportError(fmt.Errorf("failed to parse event: %w", err))
			return nil
		}
		c.merge(ev, metrics.SourcePush)
		return nil
	})
}

func (c *Consumer) poll(ctx context.Context) {
	payloads, err := c.source.ListEvents(ctx, c.problemID)
	if err != nil {
		if ctx.Err() == nil {
			c.reportError(fmt.Errorf("failed to fetch events: %w", err))
		}
		return
	}

	for _, p := range payloads {
		ev, err := models.DecodeEvent(p)
		if err != nil {
			c.opts.Metrics.ObserveParseFailure()
			c.reportError(fmt.Errorf("failed to parse event: %w", err))
			continue
		}
		c.merge(ev, metrics.SourcePoll)
	}
}

func (c *Consumer) merge(ev models.Event, source string) {
	added, changed := c.log.Merge(ev)
	c.opts.Metrics.ObserveEvent(source, !added)
	if changed && c.opts.OnEvent != nil {
		c.opts.OnEvent(ev)
	}
}

func (c *Consumer) reportError(err error) {
	if c.opts.OnError != nil {
		c.opts.OnError(err)
	}
}

type frameData struct {
	ActionType string `json:"actionType"`
	Message    string `json:"message"`
}

// decodeFrame turns one SSE frame into an Event. Named frames carry only the
// action type and message; unnamed frames carry a full event payload.
func decodeFrame(frame sse.Frame) (models.Event, error) {
	switch frame.Event {
	case "", "message":
		var p models.EventPayload
		if err := json.Unmarshal([]byte(frame.Data), &p); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidEvent, err)
		}
		if p.ID == "" {
			p.ID = frameID(frame)
		}
		return models.DecodeEvent(p)
	default:
		var d frameData
		if err := json.Unmarshal([]byte(frame.Data), &d); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidEvent, err)
		}
		return models.DecodeEvent(models.EventPayload{
			ID:         frameID(frame),
			EventType:  frame.Event,
			ActionType: d.ActionType,
			Message:    d.Message,
		})
	}
}

func frameID(frame sse.Frame) string {
	if frame.ID != "" {
		return frame.ID
	}
	return uuid.NewString()
}
