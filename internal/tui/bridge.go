package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gabe/consultant/internal/models"
)

type (
	eventMsg     struct{}
	streamErrMsg struct{ err error }
)

// Bridge carries stream callbacks into the bubbletea loop. Pass OnEvent and
// OnError to the stream consumer options.
type Bridge struct {
	ch chan tea.Msg
}

func NewBridge() *Bridge {
	return &Bridge{ch: make(chan tea.Msg, 64)}
}

func (b *Bridge) OnEvent(models.Event) {
	b.send(eventMsg{})
}

func (b *Bridge) OnError(err error) {
	b.send(streamErrMsg{err: err})
}

// send never blocks the consumer. Dropped event ticks are harmless because
// the view reads the whole log on every render.
func (b *Bridge) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
	}
}

func (b *Bridge) wait() tea.Cmd {
	if b == nil {
		return nil
	}
	return func() tea.Msg {
		return <-b.ch
	}
}
