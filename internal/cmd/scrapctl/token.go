package scrapctl

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/louisbranch/scrapkart/internal/platform/requestctx"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/auth"
)

func tokenCmd(c *cli) *cobra.Command {
	var user, email, name string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:         "token",
		Short:       "Mint a bearer token for local testing",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"store": "none"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			subject, err := actingUser(user)
			if err != nil {
				return err
			}
			verifier, err := auth.NewVerifier(c.cfg.Auth, nil)
			if err != nil {
				return err
			}
			token, err := verifier.Issue(requestctx.User{ID: subject.ID, Email: email, DisplayName: name}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	userFlag(cmd, &user)
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&name, "name", "", "display name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
