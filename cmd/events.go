package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabe/consultant/internal/config"
	"github.com/gabe/consultant/internal/display"
	"github.com/gabe/consultant/internal/models"
	"github.com/gabe/consultant/internal/stream"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	eventsFollow      bool
	eventsMetricsAddr string
)

var eventsCmd = &cobra.Command{
	Use:   "events <problem-id>",
	Short: "Show the agent's events for a problem",
	Long: `Print the events the agent recorded for a problem. With --follow the
command stays connected to the live stream, reconnecting when it drops,
and prints each new event until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if eventsFollow {
				return followEvents(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), a, args[0])
			}
			return listEvents(ctx, cmd.OutOrStdout(), a, args[0])
		})
	},
}

func listEvents(ctx context.Context, out io.Writer, a *app, problemID string) error {
	payloads, err := a.client.ListEvents(ctx, problemID)
	if err != nil {
		return err
	}

	events := make([]models.Event, 0, len(payloads))
	valid := make([]models.EventPayload, 0, len(payloads))
	for _, p := range payloads {
		ev, err := models.DecodeEvent(p)
		if err != nil {
			a.logger.Warn("skipping invalid event", "problem_id", problemID, "error", err)
			continue
		}
		events = append(events, ev)
		valid = append(valid, models.EncodeEvent(ev))
	}

	return display.Write(out, a.format, valid, func(w io.Writer) error {
		if len(events) == 0 {
			_, err := fmt.Fprintln(w, "No events yet.")
			return err
		}
		_, err := fmt.Fprintln(w, display.FormatEventsAsText(events))
		return err
	})
}

func followEvents(ctx context.Context, out, errOut io.Writer, a *app, problemID string) error {
	g, gctx := errgroup.WithContext(ctx)
	serveMetrics(gctx, g, a, eventsMetricsAddr)

	consumer := stream.New(a.client, problemID, stream.Options{
		ReconnectDelay: config.Duration(a.cfg.Stream.ReconnectDelay, stream.DefaultReconnectDelay),
		OnEvent: func(ev models.Event) {
			if err := writeFollowedEvent(out, a.format, ev); err != nil {
				a.logger.Warn("failed to print event", "error", err)
			}
		},
		OnError: func(err error) {
			fmt.Fprintln(errOut, display.Muted(err.Error()))
		},
		Metrics: a.metrics,
		Logger:  a.logger,
	})
	if err := consumer.Start(gctx); err != nil {
		return err
	}

	g.Go(func() error {
		<-gctx.Done()
		consumer.Stop()
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// writeFollowedEvent prints one live event. Structured formats emit one
// document per event so the output can be piped.
func writeFollowedEvent(out io.Writer, format display.Format, ev models.Event) error {
	switch format {
	case display.FormatJSON:
		return display.WriteJSON(out, models.EncodeEvent(ev))
	case display.FormatYAML:
		if _, err := fmt.Fprintln(out, "---"); err != nil {
			return err
		}
		return display.WriteYAML(out, models.EncodeEvent(ev))
	default:
		_, err := fmt.Fprintln(out, display.StyledEvent(ev))
		return err
	}
}

func init() {
	eventsCmd.Flags().BoolVarP(&eventsFollow, "follow", "f", false, "keep following the live stream")
	eventsCmd.Flags().StringVar(&eventsMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while following")
	rootCmd.AddCommand(eventsCmd)
}
