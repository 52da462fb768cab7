package models

import "time"

// ProblemStatus represents where a problem is in its lifecycle.
// Transitions are driven by the backend; the client only observes them.
type ProblemStatus string

const (
	ProblemStatusPending    ProblemStatus = "pending"
	ProblemStatusHearing    ProblemStatus = "hearing"
	ProblemStatusProcessing ProblemStatus = "processing"
	ProblemStatusDone       ProblemStatus = "done"
	ProblemStatusFailed     ProblemStatus = "failed"
)

// IsTerminal reports whether the backend has finished with the problem
func (s ProblemStatus) IsTerminal() bool {
	return s == ProblemStatusDone || s == ProblemStatusFailed
}

// Problem is a user-submitted consultation request
type Problem struct {
	ID          string        `json:"id" yaml:"id"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	Status      ProblemStatus `json:"status" yaml:"status"`
	CreatedAt   time.Time     `json:"createdAt" yaml:"created_at"`
}

// CreateProblemRequest is the body of POST /api/problems
type CreateProblemRequest struct {
	Description string `json:"description"`
}

// CreatedResource is returned by create endpoints
type CreatedResource struct {
	ID string `json:"id"`
}

// JobConfig holds per-problem agent settings
type JobConfig struct {
	ID                   string `json:"id" yaml:"id"`
	ProblemID            string `json:"problemId" yaml:"problem_id"`
	EnableInternalSearch bool   `json:"enableInternalSearch" yaml:"enable_internal_search"`
}

// UpdateJobConfigRequest is the body of PUT /api/job-configs/{problemId}
type UpdateJobConfigRequest struct {
	EnableInternalSearch bool `json:"enableInternalSearch"`
}

// Report is the final markdown artifact for a problem.
// It is created once by the backend and never changes afterwards.
type Report struct {
	ID        string    `json:"id" yaml:"id"`
	ProblemID string    `json:"problemId" yaml:"problem_id"`
	Content   string    `json:"content" yaml:"content"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}
