package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ar-tracker/internal/api/dto"
	"github.com/spec-kit/ar-tracker/internal/domain"
)

func newTicketsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tickets",
		Aliases: []string{"ticket", "ar"},
		Short:   "List, file and update action requests",
	}
	cmd.AddCommand(
		newTicketsListCmd(a),
		newTicketsCreateCmd(a),
		newTicketsShowCmd(a),
		newTicketsStatusCmd(a),
		newTicketsResolveCmd(a),
	)
	return cmd
}

func newTicketsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tickets you filed or are assigned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			tickets, err := sess.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			return a.printTickets(tickets)
		},
	}
}

func newTicketsCreateCmd(a *app) *cobra.Command {
	var req dto.CreateTicketRequest
	var priority string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "File a new action request",
		Long: `File a new action request as the token's user. The AR number is generated
locally; the ticket always starts in Assigned.

Example:
  arctl tickets create --title "Broken link" --description "404 on bylaws" \
    --product About --sub-product Bylaws --severity "1 day"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			req.Priority = domain.TicketPriority(priority)
			created, err := sess.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.printTicket(created)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Title, "title", "", "short summary")
	f.StringVar(&req.Description, "description", "", "what is wrong")
	f.StringVar(&req.Product, "product", "", "catalog product")
	f.StringVar(&req.SubProduct, "sub-product", "", "catalog sub-product")
	f.StringVar(&req.Severity, "severity", "", `response window, e.g. "4 hours"`)
	f.StringVar(&priority, "priority", "", priorityUsage())
	f.StringVar(&req.Assignee, "assignee", "", "assignee username")
	f.StringVar(&req.AssigneeEmail, "assignee-email", "", "assignee email")
	for _, name := range []string{"title", "description", "product", "sub-product", "severity"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newTicketsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <ar-number>",
		Short: "Show one ticket with its progress log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			ticket, err := sess.Details(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printTicket(ticket)
		},
	}
}

func newTicketsStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <ar-number> <status>",
		Short: "Move a ticket to Assigned, In Progress, Resolved or Closed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			ticket, err := sess.ChangeStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printTicket(ticket)
			}
			fmt.Fprintf(a.out, "%s is now %s\n", ticket.ARNumber, ticket.Status)
			return nil
		},
	}
}

func newTicketsResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "notes <ar-number> <resolution-notes>",
		Short: "Record resolution notes (staff only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			ticket, err := sess.SaveResolutionNotes(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.printTicket(ticket)
		},
	}
}

func priorityUsage() string {
	labels := make([]string, len(domain.Priorities))
	for i, p := range domain.Priorities {
		labels[i] = string(p)
	}
	return fmt.Sprintf("one of %s (default %s)", strings.Join(labels, ", "), domain.DefaultPriority)
}
