package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gabe/consultant/internal/mockserver"
	"github.com/spf13/cobra"
)

var (
	mockAddr      string
	mockToken     string
	mockTurns     int
	mockStepDelay time.Duration
	mockDocDelay  time.Duration
)

var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Run an in-memory backend for local development",
	Long: `Serve the admin and agent APIs from memory. Problems run through a
short scripted hearing and then emit agent events and a report.

Point the client at it with:
  CONSULTANT_ADMIN_URL=http://localhost:8080 CONSULTANT_AGENT_URL=http://localhost:8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		level := slog.LevelInfo
		if logLevel != "" {
			level = parseLevel(logLevel)
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		srv := mockserver.New(mockserver.Options{
			Token:         mockToken,
			HearingTurns:  mockTurns,
			StepDelay:     mockStepDelay,
			DocumentDelay: mockDocDelay,
			Logger:        logger,
		})

		fmt.Fprintf(cmd.OutOrStdout(), "Mock backend listening on %s\n", mockAddr)
		logger.Info("mock server starting", "addr", mockAddr, "auth", mockToken != "")
		return srv.Start(ctx, mockAddr)
	},
}

func init() {
	mockServerCmd.Flags().StringVar(&mockAddr, "addr", ":8080", "listen address")
	mockServerCmd.Flags().StringVar(&mockToken, "token", "", "require this bearer token")
	mockServerCmd.Flags().IntVar(&mockTurns, "turns", 3, "answers before the hearing completes")
	mockServerCmd.Flags().DurationVar(&mockStepDelay, "step-delay", 500*time.Millisecond, "delay between agent events")
	mockServerCmd.Flags().DurationVar(&mockDocDelay, "document-delay", 2*time.Second, "time a document spends in each processing status")
	rootCmd.AddCommand(mockServerCmd)
}
