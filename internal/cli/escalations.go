package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ar-tracker/internal/escalation"
)

func newEscalationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escalations",
		Short: "Show tickets that have outlived their severity window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			resp, err := sess.Client().Escalations(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(resp)
			}
			if resp.ComputedAt == nil {
				fmt.Fprintln(a.out, "no escalation scan has completed yet")
				return nil
			}
			fmt.Fprintf(a.out, "computed %s, every %ds\n", resp.ComputedAt.Format(time.RFC3339), resp.IntervalSeconds)
			for _, ar := range resp.Escalated {
				fmt.Fprintln(a.out, ar)
			}
			return nil
		},
	}
	cmd.AddCommand(newEscalationsWatchCmd(a))
	return cmd
}

func newEscalationsWatchCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		refresh  bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-evaluate your tickets locally until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			if !refresh {
				if _, err := sess.Refresh(cmd.Context()); err != nil {
					return err
				}
			}
			err = sess.Watch(cmd.Context(), interval, refresh, func(r escalation.Result) {
				a.printWatchResult(r)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", a.cfg.Escalation.Interval(), "evaluation period")
	cmd.Flags().BoolVar(&refresh, "refresh", true, "reload tickets from the store before each evaluation")
	return cmd
}

func (a *app) printWatchResult(r escalation.Result) {
	if a.asJSON {
		_ = a.printJSON(map[string]any{
			"computedAt": r.ComputedAt.UTC(),
			"scanned":    r.Scanned,
			"escalated":  r.Escalated.Sorted(),
		})
		return
	}
	escalated := r.Escalated.Sorted()
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tscanned=%d\tescalated=%d\t%s\n",
		r.ComputedAt.UTC().Format(time.RFC3339), r.Scanned, len(escalated), strings.Join(escalated, ","))
	_ = w.Flush()
}
