package models

import "time"

// Role identifies who authored a hearing message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Hearing is the interactive question/answer phase of a problem.
// There is exactly one hearing per problem.
type Hearing struct {
	ID        string    `json:"id" yaml:"id"`
	ProblemID string    `json:"problemId" yaml:"problem_id"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// Message is one entry of the hearing conversation
type Message struct {
	ID        string    `json:"id,omitempty" yaml:"id,omitempty"`
	HearingID string    `json:"hearingId,omitempty" yaml:"hearing_id,omitempty"`
	Role      Role      `json:"role" yaml:"role"`
	Message   string    `json:"message" yaml:"message"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// ExecuteHearingRequest is the body sent to the agent API.
// A nil UserMessage asks the agent to open the hearing.
type ExecuteHearingRequest struct {
	UserMessage *string `json:"user_message"`
}

// HearingReply is the agent's answer to an ExecuteHearingRequest
type HearingReply struct {
	AssistantMessage string `json:"assistant_message"`
	IsCompleted      bool   `json:"is_completed"`
}

// HearingMap is the mermaid mindmap summarising a completed hearing
type HearingMap struct {
	ID        string `json:"id" yaml:"id"`
	HearingID string `json:"hearingId" yaml:"hearing_id"`
	ProblemID string `json:"problemId" yaml:"problem_id"`
	Content   string `json:"content" yaml:"content"`
}
