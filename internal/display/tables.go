package display

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gabe/consultant/internal/models"
)

// ProblemTable writes problems as an aligned table
func ProblemTable(out io.Writer, problems []models.Problem) error {
	if len(problems) == 0 {
		_, err := fmt.Fprintln(out, "No problems yet. Create one with: consultant problems create")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tCREATED\tTITLE")
	for _, p := range problems {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Status, formatTime(p.CreatedAt), truncate(p.Title, 60))
	}
	return w.Flush()
}

// DocumentTable writes documents as an aligned table
func DocumentTable(out io.Writer, docs []models.Document) error {
	if len(docs) == 0 {
		_, err := fmt.Fprintln(out, "No documents match.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tRETRIES\tUPDATED\tTITLE")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			d.ID, d.DocumentType, d.DocumentStatus, d.RetryCount, formatTime(d.UpdatedAt), truncate(d.Title, 60))
	}
	return w.Flush()
}

// DocumentOptions writes the types and statuses present in the full list, so
// the user knows which --type and --status values will match anything
func DocumentOptions(out io.Writer, types []models.DocumentType, statuses []models.DocumentStatus) error {
	if len(types) == 0 && len(statuses) == 0 {
		return nil
	}
	ts := make([]string, len(types))
	for i, t := range types {
		ts[i] = string(t)
	}
	ss := make([]string, len(statuses))
	for i, s := range statuses {
		ss[i] = string(s)
	}
	line := fmt.Sprintf("types: %s  statuses: %s", strings.Join(ts, ", "), strings.Join(ss, ", "))
	_, err := fmt.Fprintf(out, "\n%s\n", Muted(line))
	return err
}

// ProblemDetail writes a problem with its hearing transcript
func ProblemDetail(out io.Writer, p *models.Problem, messages []models.Message) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", Header(p.Title), ID(p.ID))
	fmt.Fprintf(&sb, "Status:  %s\n", ProblemStatus(p.Status))
	fmt.Fprintf(&sb, "Created: %s\n\n", formatTime(p.CreatedAt))
	sb.WriteString(p.Description)
	sb.WriteString("\n")

	if len(messages) > 0 {
		sb.WriteString("\n")
		sb.WriteString(Header("Hearing"))
		sb.WriteString("\n")
		for _, m := range messages {
			who := "Consultant"
			if m.Role == models.RoleUser {
				who = "You"
			}
			fmt.Fprintf(&sb, "%s: %s\n", Muted(who), m.Message)
		}
	}

	_, err := io.WriteString(out, sb.String())
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
