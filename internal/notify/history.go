package notify

import (
	"log/slog"
	"sync"
)

// DefaultHistorySize is how many notifications a History keeps
const DefaultHistorySize = 50

// History records notifications in the log and keeps the most recent ones in
// memory for display.
type History struct {
	logger *slog.Logger
	limit  int

	mu    sync.Mutex
	items []Notification
}

// NewHistory creates a history. A nil logger uses slog.Default.
func NewHistory(logger *slog.Logger, limit int) *History {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &History{logger: logger, limit: limit}
}

// Notify logs and stores the notification
func (h *History) Notify(n Notification) error {
	attrs := []any{"type", string(n.Type), "title", n.Title, "message", n.Message}
	for k, v := range n.Data {
		attrs = append(attrs, k, v)
	}
	if n.Type == NotificationTypeError || n.Type == NotificationTypeProblemFailed {
		h.logger.Warn("notification", attrs...)
	} else {
		h.logger.Info("notification", attrs...)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = append(h.items, n)
	if over := len(h.items) - h.limit; over > 0 {
		h.items = append([]Notification(nil), h.items[over:]...)
	}
	return nil
}

// Recent returns stored notifications, oldest first
func (h *History) Recent() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Notification(nil), h.items...)
}

// Close is a no-op
func (h *History) Close() error {
	return nil
}
