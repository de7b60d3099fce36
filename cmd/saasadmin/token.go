package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/saasadmin/pkg/config"
	"github.com/dmitrymomot/saasadmin/pkg/session"
	"github.com/dmitrymomot/saasadmin/pkg/tenant"
)

// newTokenCmd issues a session token signed with SESSION_JWT_SECRET, for
// local development and smoke tests against a running server.
func newTokenCmd() *cobra.Command {
	var (
		id  tenant.Identity
		ttl time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id.TenantID == "" {
				return errors.New("--tenant is required")
			}

			var cfg session.Config
			if err := config.Load(&cfg); err != nil {
				return err
			}
			resolver, err := session.NewJWTResolver(cfg)
			if err != nil {
				return err
			}

			token, err := resolver.Issue(id, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&id.TenantID, "tenant", "", "tenant id")
	f.StringVar(&id.TenantName, "tenant-name", "", "tenant display name")
	f.StringVar(&id.Email, "email", "", "user email")
	f.StringVar(&id.UserID, "user", "", "user id")
	f.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
