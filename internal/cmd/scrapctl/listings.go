package scrapctl

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/louisbranch/scrapkart/internal/services/marketplace/catalog"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
)

func listingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Browse and buy listings",
	}
	cmd.AddCommand(listingsListCmd(c), listingsBuyCmd(c))
	return cmd
}

func listingsListCmd(c *cli) *cobra.Command {
	var scope, user, location, filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := catalog.ParseScope(scope)
			if err != nil {
				return err
			}
			listings, err := c.services.Catalog.List(cmd.Context(), catalog.Query{
				Scope:    parsed,
				UserID:   user,
				Location: location,
				Filter:   filter,
			})
			if err != nil {
				return err
			}
			return writeListings(cmd.OutOrStdout(), listings)
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "my-listings or my-purchases (requires --user)")
	userFlag(cmd, &user)
	cmd.Flags().StringVar(&location, "location", "", "case-insensitive address substring")
	cmd.Flags().StringVar(&filter, "filter", "", `AIP-160 filter, e.g. 'price < 500.0 AND status = "available"'`)
	return cmd
}

func listingsBuyCmd(c *cli) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "buy <listing-id>",
		Short: "Purchase a listing on behalf of a buyer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buyer, err := actingUser(user)
			if err != nil {
				return err
			}
			sold, err := c.services.Catalog.Purchase(cmd.Context(), args[0], buyer)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "listing %s sold to %s for %s\n",
				sold.ID, buyer.ID, c.services.Workflow.FormatAmount(c.services.Workflow.Total(sold.Price)))
			return nil
		},
	}
	userFlag(cmd, &user)
	return cmd
}

func writeListings(out io.Writer, listings []listing.Listing) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTYPES\tWEIGHT_KG\tPRICE\tSTATUS\tSELLER\tADDRESS")
	for _, l := range listings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.Title, strings.Join(l.ScrapTypes, ","), l.WeightKg.String(),
			l.Price.StringFixed(2), l.Status, l.SellerID, l.Address)
	}
	return w.Flush()
}
