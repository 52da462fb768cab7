package notify

import (
	"errors"
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeHearingQuestion NotificationType = "hearing_question"
	NotificationTypeReportReady     NotificationType = "report_ready"
	NotificationTypeProblemFailed   NotificationType = "problem_failed"
	NotificationTypeDocumentSettled NotificationType = "document_settled"
	NotificationTypeConnectionIssue NotificationType = "connection_issue"
	NotificationTypeError           NotificationType = "error"
	NotificationTypeInfo            NotificationType = "info"
)

// Notification represents a notification to be sent
type Notification struct {
	Type      NotificationType
	Title     string
	Message   string
	Timestamp time.Time
	Data      map[string]any
}

// Notifier is the interface for notification backends
type Notifier interface {
	Notify(notification Notification) error
	Close() error
}

// Manager fans notifications out to multiple backends
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new notification manager. Nil notifiers are skipped.
func NewManager(notifiers ...Notifier) *Manager {
	m := &Manager{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Notify sends a notification to all registered backends. A failing backend
// does not stop delivery to the rest.
func (m *Manager) Notify(notification Notification) error {
	if m == nil {
		return nil
	}
	if notification.Timestamp.IsZero() {
		notification.Timestamp = time.Now()
	}

	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Notify(notification); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes all notifiers
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
