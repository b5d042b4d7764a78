package scrapctl

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/louisbranch/scrapkart/internal/platform/requestctx"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/address"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
)

// Fixtures is the seed file layout.
type Fixtures struct {
	Addresses []AddressFixture `yaml:"addresses"`
	Listings  []ListingFixture `yaml:"listings"`
}

// AddressFixture is one saved delivery address.
type AddressFixture struct {
	User       string `yaml:"user"`
	Name       string `yaml:"name"`
	Phone      string `yaml:"phone"`
	Line1      string `yaml:"line1"`
	Line2      string `yaml:"line2"`
	City       string `yaml:"city"`
	State      string `yaml:"state"`
	PostalCode string `yaml:"postal_code"`
}

// ListingFixture is one listing; SoldTo buys it on behalf of that user.
type ListingFixture struct {
	Seller      string   `yaml:"seller"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	ScrapTypes  []string `yaml:"scrap_types"`
	WeightKg    string   `yaml:"weight_kg"`
	Price       string   `yaml:"price"`
	ImageURL    string   `yaml:"image_url"`
	Address     string   `yaml:"address"`
	SoldTo      string   `yaml:"sold_to"`
}

// LoadFixtures decodes a seed file.
func LoadFixtures(r io.Reader) (Fixtures, error) {
	var fixtures Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fixtures); err != nil {
		if err == io.EOF {
			return Fixtures{}, nil
		}
		return Fixtures{}, fmt.Errorf("decode fixtures: %w", err)
	}
	return fixtures, nil
}

func seedCmd(c *cli) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load addresses and listings from a YAML fixture file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open fixtures: %w", err)
			}
			defer f.Close()
			fixtures, err := LoadFixtures(f)
			if err != nil {
				return err
			}
			return c.seed(cmd.Context(), cmd.OutOrStdout(), fixtures)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "fixture file path")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (c *cli) seed(ctx context.Context, out io.Writer, fixtures Fixtures) error {
	for i, fx := range fixtures.Addresses {
		user, err := actingUser(fx.User)
		if err != nil {
			return fmt.Errorf("address %d: %w", i, err)
		}
		created, err := c.services.Addresses.Create(ctx, user, address.CreateInput{
			Name:       fx.Name,
			Phone:      fx.Phone,
			Line1:      fx.Line1,
			Line2:      fx.Line2,
			City:       fx.City,
			State:      fx.State,
			PostalCode: fx.PostalCode,
		})
		if err != nil {
			return fmt.Errorf("address %d: %w", i, err)
		}
		fmt.Fprintf(out, "address %s user=%s\n", created.ID, user.ID)
	}

	for i, fx := range fixtures.Listings {
		seller, err := actingUser(fx.Seller)
		if err != nil {
			return fmt.Errorf("listing %d: %w", i, err)
		}
		weight, err := decimal.NewFromString(fx.WeightKg)
		if err != nil {
			return fmt.Errorf("listing %d: weight_kg %q: %w", i, fx.WeightKg, err)
		}
		price, err := decimal.NewFromString(fx.Price)
		if err != nil {
			return fmt.Errorf("listing %d: price %q: %w", i, fx.Price, err)
		}
		created, err := c.services.Catalog.Create(ctx, seller, listing.CreateInput{
			Title:       fx.Title,
			Description: fx.Description,
			ScrapTypes:  fx.ScrapTypes,
			WeightKg:    weight,
			Price:       price,
			ImageURL:    fx.ImageURL,
			Address:     fx.Address,
		})
		if err != nil {
			return fmt.Errorf("listing %d: %w", i, err)
		}
		if fx.SoldTo != "" {
			created, err = c.services.Catalog.Purchase(ctx, created.ID, requestctx.User{ID: fx.SoldTo})
			if err != nil {
				return fmt.Errorf("listing %d: purchase: %w", i, err)
			}
		}
		fmt.Fprintf(out, "listing %s status=%s seller=%s\n", created.ID, created.Status, seller.ID)
	}
	return nil
}
