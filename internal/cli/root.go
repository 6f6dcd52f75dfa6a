// Package cli implements the arctl command tree.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/ar-tracker/internal/client"
	"github.com/spec-kit/ar-tracker/internal/config"
)

// app carries the resolved global flags to every subcommand.
type app struct {
	cfg     *config.Config
	out     io.Writer
	logger  *zap.Logger
	baseURL string
	token   string
	timeout time.Duration
	asJSON  bool
	now     func() time.Time
}

// NewRootCommand builds the arctl command tree. Flag defaults come from cfg.Client.
func NewRootCommand(cfg *config.Config, logger *zap.Logger, out io.Writer) *cobra.Command {
	a := &app{cfg: cfg, out: out, logger: logger, now: time.Now}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}

	root := &cobra.Command{
		Use:   "arctl",
		Short: "arctl files and tracks action requests",
		Long: `arctl talks to the AR tracker API. It files tickets, moves them through
Assigned, In Progress, Resolved and Closed, searches the store and watches for
tickets that have outlived their severity window.

The token is read from --token or ARCTL_TOKEN; "arctl token" issues a development
token signed with AUTH_JWT_SECRET.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.baseURL, "base-url", cfg.Client.BaseURL, "ticket store base URL")
	flags.StringVar(&a.token, "token", cfg.Client.Token, "bearer token")
	flags.DurationVar(&a.timeout, "timeout", cfg.Client.Timeout(), "per-request timeout")
	flags.BoolVar(&a.asJSON, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newTokenCmd(a),
		newTicketsCmd(a),
		newSearchCmd(a),
		newReportCmd(a),
		newEscalationsCmd(a),
		newCatalogCmd(a),
	)
	return root
}

func (a *app) client() *client.Client {
	return client.New(a.baseURL, a.token, a.timeout)
}

func (a *app) session() (*client.Session, error) {
	if a.token == "" {
		return nil, fmt.Errorf("no token: pass --token or set ARCTL_TOKEN")
	}
	return client.NewSession(a.client(), client.SessionOptions{
		StaffGroup: a.cfg.Auth.StaffGroup,
		Now:        a.now,
		Logger:     a.logger,
	})
}
