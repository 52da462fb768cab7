package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabe/consultant/internal/apierr"
	"github.com/gabe/consultant/internal/display"
	"github.com/gabe/consultant/internal/models"
	"github.com/spf13/cobra"
)

var (
	problemFile           string
	problemInternalSearch bool
	problemChat           bool
	problemMapOut         string
)

var problemsCmd = &cobra.Command{
	Use:     "problems",
	Aliases: []string{"problem", "p"},
	Short:   "Manage consultation problems",
}

var problemsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			problems, err := a.client.ListProblems(ctx)
			if err != nil {
				return err
			}
			return display.Write(cmd.OutOrStdout(), a.format, problems, func(w io.Writer) error {
				return display.ProblemTable(w, problems)
			})
		})
	},
}

var problemsCreateCmd = &cobra.Command{
	Use:   "create [description...]",
	Short: "Submit a new problem",
	Long: `Submit a new problem. The description is taken from the arguments,
from --file, or from stdin when neither is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		description, err := readDescription(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			id, err := a.client.CreateProblem(ctx, description)
			if err != nil {
				return err
			}
			a.logger.Info("created problem", "problem_id", id)

			if cmd.Flags().Changed("internal-search") {
				if _, err := a.client.UpdateJobConfig(ctx, id, problemInternalSearch); err != nil {
					return fmt.Errorf("problem %s created but internal search not updated: %w", id, err)
				}
			}

			if problemChat {
				return runChat(ctx, a, id)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created problem %s\n", display.ID(id))
			fmt.Fprintf(out, "Start the hearing with: consultant chat %s\n", id)
			return nil
		})
	},
}

var problemsShowCmd = &cobra.Command{
	Use:   "show <problem-id>",
	Short: "Show a problem and its hearing transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			problem, err := a.client.GetProblem(ctx, args[0])
			if err != nil {
				return err
			}
			messages, err := hearingMessages(ctx, a, problem.ID)
			if err != nil {
				return err
			}

			v := struct {
				Problem  *models.Problem  `json:"problem" yaml:"problem"`
				Messages []models.Message `json:"messages" yaml:"messages"`
			}{problem, messages}
			return display.Write(cmd.OutOrStdout(), a.format, v, func(w io.Writer) error {
				return display.ProblemDetail(w, problem, messages)
			})
		})
	},
}

var problemsMapCmd = &cobra.Command{
	Use:   "map <problem-id>",
	Short: "Print the mermaid mindmap of a completed hearing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			hearing, err := a.client.GetHearing(ctx, args[0])
			if errors.Is(err, apierr.ErrNotFound) {
				return fmt.Errorf("no hearing for %s yet, start it with: consultant chat %s", args[0], args[0])
			}
			if err != nil {
				return err
			}
			hm, err := a.client.GetHearingMap(ctx, hearing.ID)
			if errors.Is(err, apierr.ErrNotFound) {
				return fmt.Errorf("no hearing map for %s yet, finish the hearing first", args[0])
			}
			if err != nil {
				return err
			}

			if problemMapOut != "" {
				if err := os.WriteFile(problemMapOut, []byte(hm.Content), 0644); err != nil {
					return fmt.Errorf("failed to write hearing map: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Hearing map saved to %s\n", problemMapOut)
				return nil
			}
			return display.Write(cmd.OutOrStdout(), a.format, hm, func(w io.Writer) error {
				_, err := fmt.Fprint(w, hm.Content)
				return err
			})
		})
	},
}

var problemsDeleteCmd = &cobra.Command{
	Use:     "delete <problem-id>...",
	Aliases: []string{"rm"},
	Short:   "Delete problems",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			var errs []error
			for _, id := range args {
				if err := a.client.DeleteProblem(ctx, id); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", id, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted problem %s\n", display.ID(id))
			}
			return errors.Join(errs...)
		})
	},
}

// hearingMessages returns nil when the hearing has not been opened yet
func hearingMessages(ctx context.Context, a *app, problemID string) ([]models.Message, error) {
	hearing, err := a.client.GetHearing(ctx, problemID)
	if errors.Is(err, apierr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a.client.ListHearingMessages(ctx, hearing.ID)
}

func readDescription(stdin io.Reader, args []string) (string, error) {
	var text string
	switch {
	case problemFile != "":
		data, err := os.ReadFile(problemFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", problemFile, err)
		}
		text = string(data)
	case len(args) > 0:
		text = strings.Join(args, " ")
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("problem description is empty")
	}
	return text, nil
}

func init() {
	problemsCreateCmd.Flags().StringVarP(&problemFile, "file", "f", "", "read the description from a file")
	problemsCreateCmd.Flags().BoolVar(&problemInternalSearch, "internal-search", false, "let the agent search uploaded documents")
	problemsCreateCmd.Flags().BoolVar(&problemChat, "chat", false, "open the hearing chat after creating")
	problemsMapCmd.Flags().StringVar(&problemMapOut, "out", "", "write the mindmap to a file")

	problemsCmd.AddCommand(problemsListCmd)
	problemsCmd.AddCommand(problemsCreateCmd)
	problemsCmd.AddCommand(problemsShowCmd)
	problemsCmd.AddCommand(problemsMapCmd)
	problemsCmd.AddCommand(problemsDeleteCmd)
	rootCmd.AddCommand(problemsCmd)
}
