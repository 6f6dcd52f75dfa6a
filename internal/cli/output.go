package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spec-kit/ar-tracker/internal/api/dto"
	"github.com/spec-kit/ar-tracker/internal/domain"
)

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printTickets(tickets []domain.Ticket) error {
	if a.asJSON {
		return a.printJSON(dto.FromTickets(tickets))
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "AR NUMBER\tSTATUS\tSEVERITY\tREQUESTOR\tASSIGNEE\tTITLE")
	for _, t := range tickets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ARNumber, t.Status, t.Severity, t.RequestorUsername, t.Assignee, t.Title)
	}
	return w.Flush()
}

func (a *app) printTicket(t *domain.Ticket) error {
	if a.asJSON {
		return a.printJSON(dto.FromTicket(t))
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	row := func(k, v string) { fmt.Fprintf(w, "%s:\t%s\n", k, v) }
	row("AR Number", t.ARNumber)
	row("Title", t.Title)
	row("Product", t.Product+" / "+t.SubProduct)
	row("Severity", t.Severity)
	row("Priority", string(t.Priority))
	row("Status", string(t.Status))
	row("Requestor", t.RequestorUsername)
	row("Assignee", t.Assignee)
	row("Created", t.CreatedAt.Format(time.RFC3339))
	if t.UpdatedAt != nil {
		row("Updated", t.UpdatedAt.Format(time.RFC3339))
	}
	if t.ResolutionNotes != "" {
		row("Resolution", t.ResolutionNotes)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\n%s\n", t.Description)
	if len(t.ProgressLog) > 0 {
		fmt.Fprintf(a.out, "\nProgress:\n  %s\n", strings.Join(t.ProgressLog, "\n  "))
	}
	return nil
}
