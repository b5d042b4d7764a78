package scrapctl

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/louisbranch/scrapkart/internal/services/marketplace/address"
)

func addressesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "Manage buyer delivery addresses",
	}
	cmd.AddCommand(addressesListCmd(c), addressesAddCmd(c))
	return cmd
}

func addressesListCmd(c *cli) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's saved addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, err := actingUser(user)
			if err != nil {
				return err
			}
			addresses, err := c.services.Addresses.List(cmd.Context(), owner)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tADDRESS")
			for _, a := range addresses {
				fmt.Fprintf(w, "%s\t%s\n", a.ID, strings.Join(a.Lines(), "; "))
			}
			return w.Flush()
		},
	}
	userFlag(cmd, &user)
	return cmd
}

func addressesAddCmd(c *cli) *cobra.Command {
	var user string
	var input address.CreateInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a delivery address for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, err := actingUser(user)
			if err != nil {
				return err
			}
			created, err := c.services.Addresses.Create(cmd.Context(), owner, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "address %s saved for %s\n", created.ID, owner.ID)
			return nil
		},
	}
	userFlag(cmd, &user)
	flags := cmd.Flags()
	flags.StringVar(&input.Name, "name", "", "recipient name")
	flags.StringVar(&input.Phone, "phone", "", "contact phone")
	flags.StringVar(&input.Line1, "line1", "", "street address")
	flags.StringVar(&input.Line2, "line2", "", "apartment, landmark")
	flags.StringVar(&input.City, "city", "", "city")
	flags.StringVar(&input.State, "state", "", "state")
	flags.StringVar(&input.PostalCode, "postal-code", "", "postal code")
	return cmd
}
