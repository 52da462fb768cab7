package notify

import (
	"fmt"

	"github.com/gabe/consultant/internal/models"
)

// NotifyHearingQuestion tells the user the agent asked something
func (m *Manager) NotifyHearingQuestion(problem *models.Problem, question string) error {
	return m.Notify(Notification{
		Type:    NotificationTypeHearingQuestion,
		Title:   "New question",
		Message: truncate(question, 120),
		Data: map[string]any{
			"problem_id": problem.ID,
			"title":      problem.Title,
		},
	})
}

// NotifyReportReady sends a notification once a problem's report exists
func (m *Manager) NotifyReportReady(problem *models.Problem) error {
	return m.Notify(Notification{
		Type:    NotificationTypeReportReady,
		Title:   "Report ready",
		Message: fmt.Sprintf("The report for %q is ready", problem.Title),
		Data: map[string]any{
			"problem_id": problem.ID,
		},
	})
}

// NotifyProblemFailed sends a notification when the agent gives up on a problem
func (m *Manager) NotifyProblemFailed(problem *models.Problem) error {
	return m.Notify(Notification{
		Type:    NotificationTypeProblemFailed,
		Title:   "Problem failed",
		Message: fmt.Sprintf("Processing %q failed", problem.Title),
		Data: map[string]any{
			"problem_id": problem.ID,
		},
	})
}

// NotifyDocumentSettled reports the end of a document's ingestion
func (m *Manager) NotifyDocumentSettled(doc models.Document) error {
	title := "Document ready"
	if doc.DocumentStatus == models.DocumentStatusFailed {
		title = "Document failed"
	}
	return m.Notify(Notification{
		Type:    NotificationTypeDocumentSettled,
		Title:   title,
		Message: fmt.Sprintf("%s (%s) is %s", doc.Title, doc.DocumentType, doc.DocumentStatus),
		Data: map[string]any{
			"document_id": doc.ID,
			"status":      string(doc.DocumentStatus),
		},
	})
}

// NotifyConnectionIssue reports a dropped event stream
func (m *Manager) NotifyConnectionIssue(problemID string, err error) error {
	return m.Notify(Notification{
		Type:    NotificationTypeConnectionIssue,
		Title:   "Connection issue",
		Message: err.Error(),
		Data: map[string]any{
			"problem_id": problemID,
		},
	})
}

// NotifyError sends a generic failure notification
func (m *Manager) NotifyError(title string, err error) error {
	return m.Notify(Notification{
		Type:    NotificationTypeError,
		Title:   title,
		Message: err.Error(),
	})
}

// NotifyInfo sends a general informational notification
func (m *Manager) NotifyInfo(title, message string) error {
	return m.Notify(Notification{
		Type:    NotificationTypeInfo,
		Title:   title,
		Message: message,
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
