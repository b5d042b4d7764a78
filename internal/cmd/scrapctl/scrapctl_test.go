package scrapctl

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/scrapkart/internal/services/marketplace/assist"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/auth"
	server "github.com/louisbranch/scrapkart/internal/services/marketplace/app"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage/memory"
)

const fixturesYAML = `
addresses:
  - user: buyer-1
    name: Asha Rao
    phone: "9876543210"
    line1: 4 Residency Road
    city: Bengaluru
    state: Karnataka
    postal_code: "560025"
listings:
  - seller: seller-1
    title: Copper wire offcuts
    scrap_types: [copper]
    weight_kg: "2.5"
    price: "900"
    image_url: /images/copper
    address: Koregaon Park, Pune
  - seller: seller-1
    title: Cardboard bales
    scrap_types: [cardboard]
    weight_kg: "40"
    price: "320"
    image_url: /images/cardboard
    address: Andheri, Mumbai
    sold_to: buyer-1
`

type scriptedProvider struct{}

func (scriptedProvider) GenerateText(_ context.Context, req assist.Request) (string, error) {
	switch {
	case req.Model == assist.ModelDescribe:
		return `{"title":"Clean copper","description":"Bright copper wire."}`, nil
	case req.Image != nil:
		return `{"scrapType":"Copper Wire","quality":"Good","estimatedWeight":2}`, nil
	default:
		return "Around 450 per kg", nil
	}
}

func (scriptedProvider) GenerateImage(context.Context, assist.Request) (storage.Image, error) {
	return storage.Image{ContentType: "image/png", Data: []byte("enhanced")}, nil
}

type harness struct {
	store *memory.Store
	cfg   Config
}

func newHarness() *harness {
	return &harness{
		store: memory.New(),
		cfg:   Config{Auth: auth.Config{Secret: strings.Repeat("z", 32), Issuer: "scrapkart"}},
	}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := &cli{
		cfg: h.cfg,
		openGateway: func(context.Context, server.StoreConfig) (storage.Gateway, error) {
			return h.store, nil
		},
		provider: scriptedProvider{},
	}
	root := newRootCommand(c)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestSeedThenQuery(t *testing.T) {
	h := newHarness()
	fixtures := writeFile(t, "fixtures.yaml", []byte(fixturesYAML))

	out, err := h.run(t, "seed", "--file", fixtures)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if strings.Count(out, "listing ") != 2 || !strings.Contains(out, "status=sold") {
		t.Fatalf("seed output = %q", out)
	}

	out, err = h.run(t, "listings", "list", "--location", "pune")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Copper wire offcuts") || strings.Contains(out, "Cardboard bales") {
		t.Fatalf("location list = %q", out)
	}

	out, err = h.run(t, "listings", "list", "--scope", "my-purchases", "--user", "buyer-1")
	if err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	if !strings.Contains(out, "Cardboard bales") || strings.Contains(out, "Copper wire offcuts") {
		t.Fatalf("purchases list = %q", out)
	}

	out, err = h.run(t, "listings", "list", "--filter", `status = "available"`)
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if !strings.Contains(out, "900.00") || strings.Contains(out, "320.00") {
		t.Fatalf("filtered list = %q", out)
	}

	out, err = h.run(t, "addresses", "list", "--user", "buyer-1")
	if err != nil {
		t.Fatalf("addresses list: %v", err)
	}
	if !strings.Contains(out, "Bengaluru, Karnataka - 560025") {
		t.Fatalf("addresses = %q", out)
	}
}

func TestListingsBuy(t *testing.T) {
	h := newHarness()
	if _, err := h.run(t, "seed", "--file", writeFile(t, "fixtures.yaml", []byte(fixturesYAML))); err != nil {
		t.Fatalf("seed: %v", err)
	}
	listings, err := h.store.ListListings(context.Background())
	if err != nil {
		t.Fatalf("ListListings() error = %v", err)
	}
	var available string
	for _, l := range listings {
		if l.Status == "available" {
			available = l.ID
		}
	}
	if available == "" {
		t.Fatal("expected an available listing")
	}

	if _, err := h.run(t, "listings", "buy", available, "--user", "seller-1"); err == nil {
		t.Fatal("expected seller to be refused")
	}
	if _, err := h.run(t, "listings", "buy", available); err == nil {
		t.Fatal("expected missing --user to fail")
	}
	out, err := h.run(t, "listings", "buy", available, "--user", "buyer-2")
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if !strings.Contains(out, "sold to buyer-2") || !strings.Contains(out, "940.00") {
		t.Fatalf("buy output = %q", out)
	}
}

func TestAddressesAdd(t *testing.T) {
	h := newHarness()
	out, err := h.run(t, "addresses", "add", "--user", "buyer-1",
		"--name", "Asha Rao", "--phone", "9876543210", "--line1", "4 Residency Road",
		"--city", "Bengaluru", "--state", "Karnataka", "--postal-code", "560025")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "saved for buyer-1") {
		t.Fatalf("add output = %q", out)
	}
	if _, err := h.run(t, "addresses", "add", "--user", "buyer-1", "--name", "Asha Rao"); err == nil {
		t.Fatal("expected validation error for incomplete address")
	}
}

func TestAutofill(t *testing.T) {
	h := newHarness()
	png := []byte("\x89PNG\r\n\x1a\n0000")
	out, err := h.run(t, "autofill", "--image", writeFile(t, "scrap.png", png), "--enhance")
	if err != nil {
		t.Fatalf("autofill: %v", err)
	}
	for _, want := range []string{"scrap_type: Copper Wire", "price: \"900.00\"", "title: Clean copper", "enhanced_image: data:image/png;base64,"} {
		if !strings.Contains(out, want) {
			t.Fatalf("autofill output missing %q:\n%s", want, out)
		}
	}
}

func TestTokenDoesNotOpenStore(t *testing.T) {
	h := newHarness()
	opened := false
	c := &cli{
		cfg: h.cfg,
		openGateway: func(context.Context, server.StoreConfig) (storage.Gateway, error) {
			opened = true
			return h.store, nil
		},
	}
	root := newRootCommand(c)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--user", "buyer-1"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("token: %v", err)
	}
	if opened {
		t.Fatal("token command opened the store")
	}
	verifier, err := auth.NewVerifier(h.cfg.Auth, nil)
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}
	user, err := verifier.Verify(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if user.ID != "buyer-1" {
		t.Fatalf("user = %+v", user)
	}
}

func TestLoadFixturesRejectsUnknownFields(t *testing.T) {
	if _, err := LoadFixtures(strings.NewReader("listings:\n  - colour: red\n")); err == nil {
		t.Fatal("expected unknown field error")
	}
	fixtures, err := LoadFixtures(strings.NewReader(""))
	if err != nil {
		t.Fatalf("empty fixtures: %v", err)
	}
	if len(fixtures.Listings) != 0 {
		t.Fatalf("fixtures = %+v", fixtures)
	}
}
