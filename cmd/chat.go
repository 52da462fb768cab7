package cmd

import (
	"context"
	"fmt"

	"github.com/gabe/consultant/internal/chat"
	"github.com/gabe/consultant/internal/config"
	"github.com/gabe/consultant/internal/prefs"
	"github.com/gabe/consultant/internal/stream"
	"github.com/gabe/consultant/internal/tui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat <problem-id>",
	Short: "Open the interactive hearing chat for a problem",
	Long: `Open the full-screen chat for a problem. While the hearing is open you
answer the consultant's questions. Once it closes the screen follows the
agent's progress and shows the report when it is ready.

Keys:
  enter       send
  alt+enter   new line
  ctrl+r      resend the last failed message
  ctrl+b      toggle the sidebar
  pgup/pgdn   scroll
  esc/ctrl+c  quit`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return runChat(ctx, a, args[0])
		})
	},
}

func runChat(ctx context.Context, a *app, problemID string) error {
	bridge := tui.NewBridge()
	consumer := stream.New(a.client, problemID, stream.Options{
		ReconnectDelay: config.Duration(a.cfg.Stream.ReconnectDelay, stream.DefaultReconnectDelay),
		OnEvent:        bridge.OnEvent,
		OnError:        bridge.OnError,
		Metrics:        a.metrics,
		Logger:         a.logger,
	})
	defer consumer.Stop()

	session := chat.NewSession(a.client, problemID, consumer)

	err := tui.Run(tui.Options{
		Session:          session,
		Reports:          a.client,
		Stream:           consumer,
		Bridge:           bridge,
		Prefs:            prefs.NewStore(config.ExpandPath(a.cfg.UI.PrefsFile)),
		Notifier:         a.notifier,
		StatusInterval:   config.Duration(a.cfg.Poll.ProblemInterval, 0),
		MessagesInterval: config.Duration(a.cfg.Poll.MessagesInterval, 0),
		Logger:           a.logger,
	})
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
