package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gabe/consultant/internal/apierr"
	"github.com/gabe/consultant/internal/chat"
	"github.com/gabe/consultant/internal/display"
	"github.com/gabe/consultant/internal/models"
	"github.com/gabe/consultant/internal/notify"
	"github.com/gabe/consultant/internal/prefs"
	"github.com/gabe/consultant/internal/stream"
)

const (
	sidebarWidth    = 32
	minSidebarWidth = 90
)

// Streamer follows a problem's live events
type Streamer interface {
	Start(ctx context.Context) error
	Stop()
	Events() []models.Event
}

// ReportSource fetches the final report of a problem
type ReportSource interface {
	GetReport(ctx context.Context, problemID string) (*models.Report, error)
}

// Options wires a Model. Session and Reports are required.
type Options struct {
	Session          *chat.Session
	Reports          ReportSource
	Stream           Streamer
	Bridge           *Bridge
	Prefs            *prefs.Store
	Notifier         *notify.Manager
	StatusInterval   time.Duration
	MessagesInterval time.Duration
	Logger           *slog.Logger
}

type (
	loadedMsg      struct{ err error }
	initializedMsg struct {
		ran bool
		err error
	}
	sentMsg    struct{ err error }
	awaitedMsg struct{ err error }
	statusMsg  struct {
		status models.ProblemStatus
		err    error
	}
	reportMsg struct {
		content string
		err     error
	}
	streamStartedMsg struct{ err error }
	tickMsg          time.Time
	toastExpiredMsg  struct{}
)

// Model is the chat screen for one problem
type Model struct {
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	toasts   *ToastQueue

	toastDuration time.Duration

	width       int
	height      int
	sidebarOpen bool
	showEvents  bool
	slashIndex  int

	lastStatus    models.ProblemStatus
	awaiting      bool
	streaming     bool
	report        string
	reportErr     error
	reportLoading bool
}

// New creates the chat model
func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = 5 * time.Second
	}
	if opts.MessagesInterval <= 0 {
		opts.MessagesInterval = chat.DefaultMessagesInterval
	}

	input := textarea.New()
	input.Placeholder = "Answer the consultant... (/ for commands)"
	input.ShowLineNumbers = false
	input.CharLimit = 4000
	input.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	input.SetHeight(clampHeight(3))
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	sidebar := prefs.Default().SidebarOpen
	if opts.Prefs != nil {
		if p, err := opts.Prefs.Load(); err == nil {
			sidebar = p.SidebarOpen
		} else {
			opts.Logger.Warn("failed to load prefs", "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		opts:          opts,
		ctx:           ctx,
		cancel:        cancel,
		viewport:      viewport.New(80, 20),
		input:         input,
		spinner:       sp,
		toasts:        NewToastQueue(),
		toastDuration: DefaultToastDuration,
		sidebarOpen:   sidebar,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textarea.Blink,
		m.loadCmd(),
		m.opts.Bridge.wait(),
		tickEvery(m.opts.StatusInterval),
	)
}

func tickEvery(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loadCmd() tea.Cmd {
	session := m.opts.Session
	ctx := m.ctx
	return func() tea.Msg {
		return loadedMsg{err: session.Load(ctx)}
	}
}

func (m Model) initCmd() tea.Cmd {
	session := m.opts.Session
	ctx := m.ctx
	return func() tea.Msg {
		ran, err := session.Initialize(ctx)
		return initializedMsg{ran: ran, err: err}
	}
}

func (m Model) sendCmd(p chat.Pending) tea.Cmd {
	session := m.opts.Session
	ctx := m.ctx
	return func() tea.Msg {
		return sentMsg{err: session.Send(ctx, p)}
	}
}

func (m Model) retryCmd() tea.Cmd {
	session := m.opts.Session
	ctx := m.ctx
	return func() tea.Msg {
		return sentMsg{err: session.Retry(ctx)}
	}
}

func (m Model) awaitCmd() tea.Cmd {
	session := m.opts.Session
	ctx := m.ctx
	interval := m.opts.MessagesInterval
	return func() tea.Msg {
		return awaitedMsg{err: session.AwaitMessages(ctx, interval)}
	}
}

func (m Model) statusCmd() tea.Cmd {
	session := m.opts.Session
	ctx := m.ctx
	return func() tea.Msg {
		status, err := session.RefreshStatus(ctx)
		return statusMsg{status: status, err: err}
	}
}

func (m Model) reportCmd() tea.Cmd {
	reports := m.opts.Reports
	ctx := m.ctx
	problemID := m.opts.Session.ProblemID()
	width := m.viewport.Width
	return func() tea.Msg {
		report, err := reports.GetReport(ctx, problemID)
		if err != nil {
			return reportMsg{err: err}
		}
		rendered, err := display.RenderMarkdown(report.Content, width)
		if err != nil {
			// fall back to the raw markdown
			return reportMsg{content: report.Content}
		}
		return reportMsg{content: rendered}
	}
}

func (m *Model) startStreamCmd() tea.Cmd {
	if m.opts.Stream == nil || m.streaming {
		return nil
	}
	m.streaming = true
	st := m.opts.Stream
	ctx := m.ctx
	return func() tea.Msg {
		return streamStartedMsg{err: st.Start(ctx)}
	}
}

func (m *Model) stopStreamCmd() tea.Cmd {
	if m.opts.Stream == nil || !m.streaming {
		return nil
	}
	m.streaming = false
	st := m.opts.Stream
	return func() tea.Msg {
		st.Stop()
		return nil
	}
}

func (m *Model) toast(level ToastLevel, message string) tea.Cmd {
	wasEmpty := m.toasts.Len() == 0
	if !m.toasts.Push(Toast{Message: message, Level: level}) || !wasEmpty {
		return nil
	}
	return m.expireToast()
}

func (m *Model) expireToast() tea.Cmd {
	return tea.Tick(m.toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{}
	})
}

func (m *Model) toastError(prefix string, err error) tea.Cmd {
	m.opts.Logger.Warn(prefix, "problem_id", m.opts.Session.ProblemID(), "error", err)
	msg := err.Error()
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
	}
	return m.toast(ToastError, prefix+": "+msg)
}

// afterLoad reacts to the freshly loaded state: it opens the hearing, waits
// for the first question, follows events or fetches the report.
func (m *Model) afterLoad() []tea.Cmd {
	v := m.opts.Session.View()
	var cmds []tea.Cmd

	prev := m.lastStatus
	if v.Problem != nil {
		m.lastStatus = v.Problem.Status
	}

	switch v.State {
	case chat.StateLoading:
		if v.Problem != nil {
			cmds = append(cmds, m.initCmd())
		}
	case chat.StateChat:
		if len(v.Messages) == 0 && !m.awaiting {
			m.awaiting = true
			cmds = append(cmds, m.awaitCmd())
		}
	case chat.StateMonitoring:
		cmds = append(cmds, m.startStreamCmd())
	case chat.StateReport:
		if m.report == "" && !m.reportLoading {
			m.reportLoading = true
			cmds = append(cmds, m.reportCmd())
		}
		if prev != "" && prev != models.ProblemStatusDone {
			m.notify(func(n *notify.Manager) error { return n.NotifyReportReady(v.Problem) })
		}
	case chat.StateFailed:
		cmds = append(cmds, m.stopStreamCmd())
		if prev != "" && prev != models.ProblemStatusFailed {
			m.notify(func(n *notify.Manager) error { return n.NotifyProblemFailed(v.Problem) })
		}
	}
	return cmds
}

func (m *Model) notify(fn func(*notify.Manager) error) {
	if m.opts.Notifier == nil {
		return
	}
	if err := fn(m.opts.Notifier); err != nil {
		m.opts.Logger.Debug("notification failed", "error", err)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case loadedMsg:
		if msg.err != nil {
			cmds = append(cmds, m.toastError("Failed to load", msg.err))
		} else {
			cmds = append(cmds, m.afterLoad()...)
		}

	case initializedMsg:
		if msg.err != nil {
			cmds = append(cmds, m.toastError("Failed to start the hearing", msg.err))
		}
		if msg.ran {
			cmds = append(cmds, m.afterLoad()...)
		}

	case sentMsg:
		switch {
		case errors.Is(msg.err, chat.ErrRefreshFailed):
			cmds = append(cmds, m.toastError("Failed to refresh", msg.err))
		case msg.err != nil:
			cmds = append(cmds, m.toastError("Message not sent", msg.err))
		}
		cmds = append(cmds, m.afterLoad()...)

	case awaitedMsg:
		m.awaiting = false
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			cmds = append(cmds, m.toastError("Failed to load messages", msg.err))
		}

	case tickMsg:
		if s := m.lastStatus; s == "" || !s.IsTerminal() {
			cmds = append(cmds, m.statusCmd())
		}
		cmds = append(cmds, tickEvery(m.opts.StatusInterval))

	case statusMsg:
		if msg.err != nil {
			m.opts.Logger.Debug("status refresh failed", "error", msg.err)
		} else if msg.status != m.lastStatus {
			cmds = append(cmds, m.loadCmd())
		}

	case streamStartedMsg:
		if msg.err != nil && !errors.Is(msg.err, stream.ErrAlreadyRunning) {
			m.streaming = false
			cmds = append(cmds, m.toastError("Failed to follow events", msg.err))
		}

	case eventMsg:
		cmds = append(cmds, m.opts.Bridge.wait())

	case streamErrMsg:
		cmds = append(cmds, m.toast(ToastError, msg.err.Error()), m.opts.Bridge.wait())

	case reportMsg:
		m.reportLoading = false
		m.report = msg.content
		m.reportErr = msg.err
		if msg.err != nil {
			cmds = append(cmds, m.toastError("Failed to load report", msg.err))
		} else {
			cmds = append(cmds, m.stopStreamCmd())
		}

	case toastExpiredMsg:
		m.toasts.Pop()
		if m.toasts.Len() > 0 {
			cmds = append(cmds, m.expireToast())
		}

	case tea.KeyMsg:
		cmd, handled, quit := m.handleKey(msg)
		if quit {
			return m, cmd
		}
		cmds = append(cmds, cmd)
		if handled {
			m.refresh()
			return m, tea.Batch(cmds...)
		}
		var inputCmd tea.Cmd
		m.input, inputCmd = m.input.Update(msg)
		cmds = append(cmds, inputCmd)
		m.slashIndex = 0

	case tea.MouseMsg:
		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)

	default:
		var inputCmd tea.Cmd
		m.input, inputCmd = m.input.Update(msg)
		cmds = append(cmds, inputCmd)
	}

	m.refresh()
	return m, tea.Batch(cmds...)
}

// handleKey processes keys the chat view owns. handled means the key must
// not reach the textarea.
func (m *Model) handleKey(msg tea.KeyMsg) (cmd tea.Cmd, handled bool, quit bool) {
	suggestions := m.suggestions()

	switch msg.String() {
	case "ctrl+c", "esc":
		return m.quit(), true, true
	case "ctrl+b":
		return m.toggleSidebar(), true, false
	case "ctrl+r":
		return m.retry(), true, false
	case "pgup", "pgdown":
		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		return vpCmd, true, false
	case "up", "down":
		if len(suggestions) > 0 {
			delta := 1
			if msg.String() == "up" {
				delta = -1
			}
			m.slashIndex = NextSlashIndex(m.slashIndex, len(suggestions), delta)
			return nil, true, false
		}
	case "tab":
		if len(suggestions) > 0 {
			m.input.SetValue("/" + suggestions[m.slashIndex%len(suggestions)].Name)
			m.input.CursorEnd()
			return nil, true, false
		}
		return m.toggleSidebar(), true, false
	case "enter":
		if len(suggestions) > 0 {
			name, _, _ := ParseSlash(m.input.Value())
			if !matchesCommand(suggestions, name) {
				name = suggestions[m.slashIndex%len(suggestions)].Name
			}
			m.input.Reset()
			m.slashIndex = 0
			cmd, quit := m.runSlash(name)
			return cmd, true, quit
		}
		return m.submit(), true, false
	}
	return nil, false, false
}

func matchesCommand(cmds []SlashCommand, name string) bool {
	for _, c := range cmds {
		if c.Name == name {
			return true
		}
	}
	return false
}

// suggestions returns the slash commands matching the input while the user
// is typing a command
func (m *Model) suggestions() []SlashCommand {
	value := m.input.Value()
	if !strings.HasPrefix(value, "/") || strings.Contains(value, " ") {
		return nil
	}
	return FilterSlashCommands(DefaultSlashCommands(), value)
}

func (m *Model) submit() tea.Cmd {
	p, err := m.opts.Session.Begin(m.input.Value())
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return nil
	case errors.Is(err, chat.ErrSendInFlight):
		return m.toast(ToastInfo, "Wait for the reply before sending another message")
	case errors.Is(err, chat.ErrInputClosed):
		return m.toast(ToastInfo, "The hearing is not accepting messages")
	case err != nil:
		return m.toastError("Message not sent", err)
	}

	m.input.Reset()
	m.showEvents = false
	m.viewport.GotoBottom()
	return m.sendCmd(p)
}

func (m *Model) retry() tea.Cmd {
	if !m.opts.Session.View().CanRetry {
		return m.toast(ToastInfo, "Nothing to retry")
	}
	return m.retryCmd()
}

func (m *Model) runSlash(name string) (tea.Cmd, bool) {
	switch name {
	case "retry":
		return m.retry(), false
	case "events":
		m.showEvents = !m.showEvents
		if m.showEvents {
			return m.startStreamCmd(), false
		}
		return nil, false
	case "report":
		if m.opts.Session.View().State != chat.StateReport {
			return m.toast(ToastInfo, "The report is not ready yet"), false
		}
		m.showEvents = false
		if m.report == "" && !m.reportLoading {
			m.reportLoading = true
			return m.reportCmd(), false
		}
		m.viewport.GotoTop()
		return nil, false
	case "sidebar":
		return m.toggleSidebar(), false
	case "help":
		return m.toast(ToastInfo, renderHelp()), false
	case "quit":
		return m.quit(), true
	default:
		return m.toast(ToastError, "Unknown command /"+name), false
	}
}

func (m *Model) toggleSidebar() tea.Cmd {
	m.sidebarOpen = !m.sidebarOpen
	m.resize()
	if m.opts.Prefs == nil {
		return nil
	}
	open := m.sidebarOpen
	if _, err := m.opts.Prefs.Update(func(p *prefs.Prefs) { p.SidebarOpen = open }); err != nil {
		return m.toastError("Failed to save preferences", err)
	}
	return nil
}

func (m *Model) quit() tea.Cmd {
	m.cancel()
	if m.opts.Stream != nil {
		m.opts.Stream.Stop()
	}
	return tea.Quit
}

func (m *Model) showSidebar() bool {
	return m.sidebarOpen && m.width >= minSidebarWidth
}

func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	contentWidth := m.width
	if m.showSidebar() {
		contentWidth -= sidebarWidth
	}
	m.input.SetWidth(contentWidth - 2)
	m.input.SetHeight(clampHeight(m.height / 6))

	// header + input + footer
	chrome := 2 + m.input.Height() + 2
	m.viewport.Width = contentWidth
	m.viewport.Height = max(3, m.height-chrome)
}

// refresh re-renders the viewport, keeping the scroll pinned to the bottom
// when it already was
func (m *Model) refresh() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderContent())
	if atBottom && !(m.opts.Session.View().State == chat.StateReport && !m.showEvents) {
		m.viewport.GotoBottom()
	}
}

func (m *Model) events() []models.Event {
	if m.opts.Stream == nil {
		return nil
	}
	return m.opts.Stream.Events()
}

func (m *Model) renderContent() string {
	v := m.opts.Session.View()
	width := max(20, m.viewport.Width-2)

	if m.showEvents {
		return renderEventLog(m.events(), width)
	}

	switch v.State {
	case chat.StateLoading:
		return m.spinner.View() + " " + mutedStyle.Render("Preparing your hearing...")
	case chat.StateReport:
		switch {
		case m.report != "":
			return m.report
		case m.reportErr != nil:
			return errorStyle.Render("The report could not be loaded. Type /report to try again.")
		default:
			return m.spinner.View() + " " + mutedStyle.Render("Loading report...")
		}
	}

	var sb strings.Builder
	sb.WriteString(renderTranscript(v, width))

	switch v.State {
	case chat.StateChat:
		if v.Sending {
			sb.WriteString("\n\n")
			sb.WriteString(m.spinner.View() + " " + mutedStyle.Render("Consultant is thinking..."))
		}
	case chat.StateMonitoring:
		sb.WriteString("\n\n")
		sb.WriteString(renderMonitor(v.Monitor, m.spinner.View(), width))
	case chat.StateFailed:
		sb.WriteString("\n\n")
		sb.WriteString(errorStyle.Render("The consultant could not finish this problem."))
	}
	return sb.String()
}

func (m Model) renderHeader(v chat.View) string {
	title := logoStyle.Render("consultant")
	if p := v.Problem; p != nil {
		title += "  " + titleStyle.Render(p.Title) + "  " + display.ProblemStatus(p.Status)
	}
	return title
}

func (m Model) renderInput(v chat.View) string {
	var sb strings.Builder
	if suggestions := m.suggestions(); len(suggestions) > 0 {
		var lines []string
		for i, cmd := range suggestions {
			line := "/" + cmd.Name + "  " + cmd.Description
			if i == m.slashIndex%len(suggestions) {
				lines = append(lines, menuSelectedStyle.Render(line))
			} else {
				lines = append(lines, menuStyle.Render(line))
			}
		}
		sb.WriteString(strings.Join(lines, "\n"))
		sb.WriteString("\n")
	}

	if !v.InputEnabled && !v.Sending && v.State != chat.StateChat {
		sb.WriteString(helpStyle.Render("Input is closed for this problem. Slash commands still work."))
		sb.WriteString("\n")
	}
	sb.WriteString(m.input.View())
	return sb.String()
}

func (m Model) renderFooter() string {
	if toast, ok := m.toasts.Peek(); ok {
		return toastStyle(toast.Level).Render(toast.Message)
	}
	return keyStyle.Render("enter") + helpStyle.Render(" send  ") +
		keyStyle.Render("/") + helpStyle.Render(" commands  ") +
		keyStyle.Render("ctrl+b") + helpStyle.Render(" sidebar  ") +
		keyStyle.Render("ctrl+c") + helpStyle.Render(" quit")
}

func (m Model) View() string {
	v := m.opts.Session.View()

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.renderInput(v),
	)
	if m.showSidebar() {
		side := renderSidebar(v, len(m.events()), sidebarWidth-2, max(3, m.height-3))
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, side)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(v),
		"",
		main,
		m.renderFooter(),
	)
}

var startProgram = func(model tea.Model) error {
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

// Run starts the chat screen and blocks until the user quits
func Run(opts Options) error {
	return startProgram(New(opts))
}
