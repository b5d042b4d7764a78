package scrapctl

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/louisbranch/scrapkart/internal/services/marketplace/assist"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
)

// draftOutput is the YAML shape printed by autofill.
type draftOutput struct {
	ScrapType       string  `yaml:"scrap_type"`
	Quality         string  `yaml:"quality"`
	EstimatedWeight float64 `yaml:"estimated_weight_kg"`
	Price           string  `yaml:"price"`
	Title           string  `yaml:"title"`
	Description     string  `yaml:"description"`
	EnhancedImage   string  `yaml:"enhanced_image,omitempty"`
}

func autofillCmd(c *cli) *cobra.Command {
	var path string
	var enhance bool
	cmd := &cobra.Command{
		Use:   "autofill",
		Short: "Draft a listing from a photo using the AI provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			img, err := readImageFile(path)
			if err != nil {
				return err
			}
			draft, err := c.services.Assist.Autofill(cmd.Context(), img)
			if err != nil {
				return err
			}
			out := newDraftOutput(draft)
			if enhance {
				ref, err := c.services.Assist.EnhanceImage(cmd.Context(), img)
				if err != nil {
					return err
				}
				out.EnhancedImage = ref
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("encode draft: %w", err)
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVar(&path, "image", "", "photo of the scrap material")
	cmd.Flags().BoolVar(&enhance, "enhance", false, "also store an enhanced copy of the photo")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func newDraftOutput(draft assist.Draft) draftOutput {
	return draftOutput{
		ScrapType:       draft.Analysis.ScrapType,
		Quality:         draft.Analysis.Quality,
		EstimatedWeight: draft.Analysis.EstimatedWeight,
		Price:           draft.Price.StringFixed(2),
		Title:           draft.Title,
		Description:     draft.Description,
	}
}

func readImageFile(path string) (storage.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return storage.Image{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return storage.Image{}, fmt.Errorf("read image: %w", err)
	}
	return storage.Image{ContentType: http.DetectContentType(data), Data: data}, nil
}
