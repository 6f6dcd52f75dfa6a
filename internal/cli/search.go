package cli

import (
	"fmt"
	"net/url"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spec-kit/ar-tracker/internal/search"
)

// criteriaFlags maps CLI flags onto the query keys search.FromValues reads.
type criteriaFlags struct {
	values map[string]*string
}

var criteriaFlagKeys = []struct{ flag, key, usage string }{
	{"ar", "arNumber", "AR number substring"},
	{"severity", "severity", "exact severity label"},
	{"priority", "priority", "exact priority"},
	{"requestor", "requestorUsername", "requestor username substring"},
	{"assignee", "assigneeUsername", "assignee username or email substring"},
	{"status", "status", "exact status"},
	{"from", "startDate", "created on or after (YYYY-MM-DD or RFC 3339)"},
	{"to", "endDate", "created on or before (YYYY-MM-DD or RFC 3339)"},
	{"product", "product", "exact product"},
	{"sub-product", "subProduct", "exact sub-product"},
}

func bindCriteria(fs *pflag.FlagSet) *criteriaFlags {
	cf := &criteriaFlags{values: make(map[string]*string, len(criteriaFlagKeys))}
	for _, k := range criteriaFlagKeys {
		cf.values[k.key] = fs.String(k.flag, "", k.usage)
	}
	return cf
}

func (cf *criteriaFlags) criteria() (search.Criteria, error) {
	q := url.Values{}
	for key, v := range cf.values {
		if *v != "" {
			q.Set(key, *v)
		}
	}
	return search.FromValues(q.Get)
}

func newSearchCmd(a *app) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search tickets; every given filter must match",
		Args:  cobra.NoArgs,
	}
	cf := bindCriteria(cmd.Flags())
	cmd.Flags().BoolVar(&local, "local", false, "filter your own ticket list instead of querying the store")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		criteria, err := cf.criteria()
		if err != nil {
			return err
		}
		sess, err := a.session()
		if err != nil {
			return err
		}
		if local {
			if _, err := sess.Refresh(cmd.Context()); err != nil {
				return err
			}
			return a.printTickets(sess.FilterLocal(criteria))
		}
		tickets, err := sess.Search(cmd.Context(), criteria)
		if err != nil {
			return err
		}
		return a.printTickets(tickets)
	}
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Ticket counts by status plus one row per ticket (staff only)",
		Args:  cobra.NoArgs,
	}
	cf := bindCriteria(cmd.Flags())
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		criteria, err := cf.criteria()
		if err != nil {
			return err
		}
		sess, err := a.session()
		if err != nil {
			return err
		}
		report, err := sess.Report(cmd.Context(), criteria)
		if err != nil {
			return err
		}
		if a.asJSON {
			return a.printJSON(report)
		}

		statuses := make([]string, 0, len(report.ByStatus))
		for s := range report.ByStatus {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)
		fmt.Fprintf(a.out, "Total: %d\n", report.Total)
		for _, s := range statuses {
			fmt.Fprintf(a.out, "  %-12s %d\n", s, report.ByStatus[s])
		}
		fmt.Fprintln(a.out)

		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "AR NUMBER\tREQUESTOR\tSTATUS\tTITLE")
		for _, row := range report.Rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", row.ARNumber, row.Requestor, row.Status, row.Title)
		}
		return w.Flush()
	}
	return cmd
}
