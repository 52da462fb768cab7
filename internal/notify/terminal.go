package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// TerminalNotifier sends desktop notifications through osascript on macOS
// and notify-send on Linux. On other systems it is a no-op.
type TerminalNotifier struct {
	enabled bool
	command func(title, message string) *exec.Cmd
}

// NewTerminalNotifier creates a terminal notifier. enabled comes from config.
func NewTerminalNotifier(enabled bool) *TerminalNotifier {
	t := &TerminalNotifier{}
	if !enabled {
		return t
	}

	switch runtime.GOOS {
	case "darwin":
		t.command = func(title, message string) *exec.Cmd {
			script := fmt.Sprintf(`display notification "%s" with title "%s"`,
				escapeAppleScript(message), escapeAppleScript(title))
			return exec.Command("osascript", "-e", script)
		}
	case "linux":
		if _, err := exec.LookPath("notify-send"); err != nil {
			return t
		}
		t.command = func(title, message string) *exec.Cmd {
			return exec.Command("notify-send", "--app-name=consultant", title, message)
		}
	default:
		return t
	}
	t.enabled = true
	return t
}

// Enabled reports whether notifications will actually be shown
func (t *TerminalNotifier) Enabled() bool {
	return t.enabled
}

// Notify shows the notification
func (t *TerminalNotifier) Notify(notification Notification) error {
	if !t.enabled {
		return nil
	}

	if err := t.command(notification.Title, notification.Message).Run(); err != nil {
		return fmt.Errorf("failed to send terminal notification: %w", err)
	}
	return nil
}

// Close cleans up resources (no-op for terminal notifier)
func (t *TerminalNotifier) Close() error {
	return nil
}

// escapeAppleScript escapes quotes and backslashes for AppleScript
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}
