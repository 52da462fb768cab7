package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gabe/consultant/internal/config"
	"github.com/gabe/consultant/internal/display"
	"github.com/gabe/consultant/internal/documents"
	"github.com/gabe/consultant/internal/models"
	"github.com/gabe/consultant/internal/upload"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentUploads bounds how many files are sent at once
const maxConcurrentUploads = 3

var (
	docQuery       string
	docType        string
	docStatus      string
	docWatch       bool
	docMetricsAddr string
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs", "d"},
	Short:   "Manage reference documents",
	Long: fmt.Sprintf(`Upload and manage the documents the agent can search.
Accepted files: %v.`, upload.AllowedExtensions()),
}

var documentsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := documentFilter()
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			all, err := a.client.ListDocuments(ctx)
			if err != nil {
				return err
			}
			docs := filter.Apply(all)
			return display.Write(cmd.OutOrStdout(), a.format, docs, func(w io.Writer) error {
				if err := display.DocumentTable(w, docs); err != nil {
					return err
				}
				return display.DocumentOptions(w, documents.TypeOptions(all), documents.StatusOptions(all))
			})
		})
	},
}

var documentsShowCmd = &cobra.Command{
	Use:   "show <document-id>",
	Short: "Show one document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			doc, err := a.client.GetDocument(ctx, args[0])
			if err != nil {
				return err
			}
			return display.Write(cmd.OutOrStdout(), a.format, doc, func(w io.Writer) error {
				return display.DocumentTable(w, []models.Document{*doc})
			})
		})
	},
}

var documentsUploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload pdf, markdown or csv files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := documentFilter(); err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			uploader := upload.NewUploader(a.client, a.uploadLimits(), a.metrics)
			out := cmd.OutOrStdout()

			var (
				mu   sync.Mutex
				errs []error
			)
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(maxConcurrentUploads)
			for _, path := range args {
				g.Go(func() error {
					id, err := uploader.Upload(gctx, path)
					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						errs = append(errs, err)
						return nil
					}
					a.logger.Info("uploaded document", "path", path, "document_id", id)
					fmt.Fprintf(out, "Uploaded %s as %s\n", path, display.ID(id))
					return nil
				})
			}
			g.Wait()

			if docWatch && len(errs) < len(args) {
				if err := watchDocuments(ctx, out, cmd.ErrOrStderr(), a); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		})
	},
}

var documentsDeleteCmd = &cobra.Command{
	Use:     "delete <document-id>...",
	Aliases: []string{"rm"},
	Short:   "Delete documents",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			failed := documents.DeleteAll(ctx, a.client, args)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d of %d documents\n", len(args)-failed, len(args))
			if failed > 0 {
				return fmt.Errorf("%d documents could not be deleted", failed)
			}
			return nil
		})
	},
}

var documentsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Refresh the document list until every upload is processed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return watchDocuments(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), a)
		})
	},
}

func documentFilter() (documents.Filter, error) {
	t, err := models.ParseDocumentType(docType)
	if err != nil {
		return documents.Filter{}, err
	}
	st, err := models.ParseDocumentStatus(docStatus)
	if err != nil {
		return documents.Filter{}, err
	}
	return documents.Filter{Query: docQuery, Type: t, Status: st}, nil
}

// completeDocumentField offers the values present in the current document
// list, falling back to every known value when the backend is unreachable.
func completeDocumentField(options func([]models.Document) []string, fallback []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		values := fallback
		_ = withApp(cmd, func(ctx context.Context, a *app) error {
			docs, err := a.client.ListDocuments(ctx)
			if err == nil && len(docs) > 0 {
				values = options(docs)
			}
			return err
		})
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func typeStrings(docs []models.Document) []string {
	return toStrings(documents.TypeOptions(docs))
}

func statusStrings(docs []models.Document) []string {
	return toStrings(documents.StatusOptions(docs))
}

// watchDocuments prints the filtered list on every change and notifies as
// documents finish processing
func watchDocuments(ctx context.Context, out, errOut io.Writer, a *app) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	serveMetrics(gctx, g, a, docMetricsAddr)

	filter, err := documentFilter()
	if err != nil {
		return err
	}
	var prev []models.Document
	g.Go(func() error {
		// a settled list also shuts the metrics endpoint down
		defer stop()
		return documents.Watch(gctx, a.client, config.Duration(a.cfg.Poll.DocumentsInterval, 0),
			func(docs []models.Document) {
				for _, d := range documents.NewlySettled(prev, docs) {
					if err := a.notifier.NotifyDocumentSettled(d); err != nil {
						a.logger.Warn("notification failed", "error", err)
					}
				}
				prev = docs
				fmt.Fprintln(out)
				if err := display.DocumentTable(out, filter.Apply(docs)); err != nil {
					a.logger.Warn("failed to print documents", "error", err)
				}
			},
			func(err error) {
				fmt.Fprintln(errOut, display.Muted(err.Error()))
			},
		)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func init() {
	for _, c := range []*cobra.Command{documentsListCmd, documentsWatchCmd, documentsUploadCmd} {
		c.Flags().StringVarP(&docQuery, "query", "q", "", "only documents whose title contains this text")
		c.Flags().StringVar(&docType, "type", "", "only documents of this type (pdf, markdown, csv)")
		c.Flags().StringVar(&docStatus, "status", "", "only documents with this status (pending, processing, done, failed)")
		c.RegisterFlagCompletionFunc("type", completeDocumentField(typeStrings, toStrings(models.DocumentTypes())))
		c.RegisterFlagCompletionFunc("status", completeDocumentField(statusStrings, toStrings(models.DocumentStatuses())))
	}
	documentsUploadCmd.Flags().BoolVarP(&docWatch, "watch", "w", false, "watch processing after the upload")
	for _, c := range []*cobra.Command{documentsWatchCmd, documentsUploadCmd} {
		c.Flags().StringVar(&docMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while watching")
	}

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	documentsCmd.AddCommand(documentsUploadCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	documentsCmd.AddCommand(documentsWatchCmd)
	rootCmd.AddCommand(documentsCmd)
}
