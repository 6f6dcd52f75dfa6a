package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ar-tracker/internal/auth"
	"github.com/spec-kit/ar-tracker/internal/domain"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		identity domain.AuthContext
		staff    bool
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development token signed with AUTH_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if identity.UserID == "" {
				return fmt.Errorf("--user-id is required")
			}
			if identity.Username == "" {
				identity.Username = identity.UserID
			}
			if staff {
				identity.Groups = append(identity.Groups, a.cfg.Auth.StaffGroup)
			}
			tokens := auth.NewTokenManager(a.cfg.Auth.JWTSecret, int(ttl.Minutes()), a.cfg.Auth.StaffGroup)
			token, expires, err := tokens.GenerateToken(identity)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(map[string]any{"token": token, "expiresAt": expires.UTC()})
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&identity.UserID, "user-id", "", "subject of the token")
	cmd.Flags().StringVar(&identity.Username, "username", "", "username claim (defaults to user id)")
	cmd.Flags().StringVar(&identity.Email, "email", "", "email claim")
	cmd.Flags().StringSliceVar(&identity.Groups, "group", nil, "extra group claims")
	cmd.Flags().BoolVar(&staff, "staff", false, "add the staff group")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Duration(a.cfg.Auth.AccessTokenTTLMinutes)*time.Minute, "token lifetime")
	return cmd
}
