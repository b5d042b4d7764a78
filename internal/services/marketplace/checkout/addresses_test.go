package checkout

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/louisbranch/scrapkart/internal/platform/errors"
	"github.com/louisbranch/scrapkart/internal/platform/requestctx"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage/memory"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage/storagetest"
)

func TestAddressBook(t *testing.T) {
	t.Parallel()

	book := NewAddressBook(memory.New())
	ctx := context.Background()
	user := requestctx.User{ID: "user-1"}

	if _, err := book.List(ctx, requestctx.User{}); apperrors.GetCode(err) != apperrors.CodeUnauthenticated {
		t.Fatalf("List(anonymous) code = %s", apperrors.GetCode(err))
	}
	if _, err := book.Create(ctx, requestctx.User{}, storagetest.AddressInput("Home")); apperrors.GetCode(err) != apperrors.CodeUnauthenticated {
		t.Fatalf("Create(anonymous) code = %s", apperrors.GetCode(err))
	}

	input := storagetest.AddressInput("Home")
	input.PostalCode = ""
	_, err := book.Create(ctx, user, input)
	if domainErr, ok := apperrors.As(err); !ok || domainErr.Metadata["Field"] != "postal_code" {
		t.Fatalf("Create(no postal code) error = %v", err)
	}

	for _, name := range []string{"Home", "Office"} {
		if _, err := book.Create(ctx, user, storagetest.AddressInput(name)); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}
	got, err := book.List(ctx, user)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "Home" || got[1].Name != "Office" {
		t.Fatalf("List() = %+v", got)
	}
}

func TestAddressErrorPassesContextErrors(t *testing.T) {
	t.Parallel()

	if err := addressError("x", context.Canceled); !errors.Is(err, context.Canceled) {
		t.Fatalf("addressError(canceled) = %v", err)
	}
	if addressError("x", nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}
