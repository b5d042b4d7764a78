package requestctx

import (
	"context"
	"testing"
)

func TestUserFromContextRoundTrip(t *testing.T) {
	ctx := WithUser(context.Background(), User{ID: "user-42", Email: "a@example.com"})
	got, ok := UserFromContext(ctx)
	if !ok {
		t.Fatal("expected user in context")
	}
	if got.ID != "user-42" || got.Email != "a@example.com" {
		t.Fatalf("UserFromContext = %+v", got)
	}
	if id := UserIDFromContext(ctx); id != "user-42" {
		t.Fatalf("UserIDFromContext = %q, want user-42", id)
	}
}

func TestUserFromContextEmpty(t *testing.T) {
	if _, ok := UserFromContext(context.Background()); ok {
		t.Fatal("expected no user")
	}
	if got := UserIDFromContext(nil); got != "" {
		t.Fatalf("expected empty id for nil context, got %q", got)
	}
}

func TestUserFromContextIgnoresBlankID(t *testing.T) {
	ctx := WithUser(nil, User{ID: "   "})
	if _, ok := UserFromContext(ctx); ok {
		t.Fatal("expected blank user to be treated as absent")
	}
}
