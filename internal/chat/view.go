package chat

import "github.com/gabe/consultant/internal/models"

// ViewState is what the chat screen shows for a problem
type ViewState int

const (
	StateLoading ViewState = iota
	StateChat
	StateMonitoring
	StateReport
	StateFailed
)

func (s ViewState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateChat:
		return "chat"
	case StateMonitoring:
		return "monitoring"
	case StateReport:
		return "report"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func stateFor(p *models.Problem) ViewState {
	if p == nil {
		return StateLoading
	}
	switch p.Status {
	case models.ProblemStatusHearing:
		return StateChat
	case models.ProblemStatusProcessing:
		return StateMonitoring
	case models.ProblemStatusDone:
		return StateReport
	case models.ProblemStatusFailed:
		return StateFailed
	default:
		return StateLoading
	}
}

// View is a render snapshot of a Session
type View struct {
	State        ViewState
	Problem      *models.Problem
	JobConfig    *models.JobConfig
	Messages     []models.Message
	Sending      bool
	InputEnabled bool
	CanRetry     bool
	// Monitor is set while the agent is processing
	Monitor *Monitor
}

// Monitor summarizes agent progress
type Monitor struct {
	// Current is the message of the most recent action event
	Current    string
	HasCurrent bool
	// Log holds every event once, in arrival order
	Log []models.Event
}

// NewMonitor builds the monitor panel from an event list
func NewMonitor(events []models.Event) Monitor {
	var m Monitor
	seen := make(map[string]bool, len(events))

	for _, ev := range events {
		if seen[ev.EventID()] {
			continue
		}
		seen[ev.EventID()] = true
		m.Log = append(m.Log, ev)

		if action, ok := ev.(models.ActionEvent); ok {
			m.Current = action.Message
			m.HasCurrent = true
		}
	}
	return m
}
