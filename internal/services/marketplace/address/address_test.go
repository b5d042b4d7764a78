package address

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validInput() CreateInput {
	return CreateInput{
		Name:       "Asha Patil",
		Phone:      "9876543210",
		Line1:      "12 MG Road",
		City:       "Pune",
		State:      "Maharashtra",
		PostalCode: "411001",
	}
}

func TestNormalizeCreateInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*CreateInput)
		wantErr   error
		wantField string
	}{
		{name: "valid"},
		{name: "line2 optional", mutate: func(in *CreateInput) { in.Line2 = "" }},
		{name: "name", mutate: func(in *CreateInput) { in.Name = " " }, wantErr: ErrEmptyName, wantField: "name"},
		{name: "phone", mutate: func(in *CreateInput) { in.Phone = "" }, wantErr: ErrEmptyPhone, wantField: "phone"},
		{name: "line1", mutate: func(in *CreateInput) { in.Line1 = "" }, wantErr: ErrEmptyLine1, wantField: "line1"},
		{name: "city", mutate: func(in *CreateInput) { in.City = "" }, wantErr: ErrEmptyCity, wantField: "city"},
		{name: "state", mutate: func(in *CreateInput) { in.State = "" }, wantErr: ErrEmptyState, wantField: "state"},
		{name: "postal code", mutate: func(in *CreateInput) { in.PostalCode = "\t" }, wantErr: ErrEmptyPostalCode, wantField: "postal_code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			input := validInput()
			if tt.mutate != nil {
				tt.mutate(&input)
			}
			_, err := NormalizeCreateInput(input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NormalizeCreateInput() error = %v, want %v", err, tt.wantErr)
			}
			if got := FieldFor(err); got != tt.wantField {
				t.Fatalf("FieldFor() = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got, err := Create(" user-1 ", validInput(), func() time.Time { return now }, func() (string, error) { return "addr-1", nil })
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.ID != "addr-1" || got.UserID != "user-1" || !got.CreatedAt.Equal(now) {
		t.Fatalf("Create() = %+v", got)
	}

	if _, err := Create("", validInput(), nil, nil); !errors.Is(err, ErrEmptyUserID) {
		t.Fatalf("Create(blank user) error = %v", err)
	}
}

func TestLinesSkipsEmptyLine2(t *testing.T) {
	t.Parallel()

	addr := Address{Name: "A", Line1: "L1", City: "Pune", State: "MH", PostalCode: "411001", Phone: "1"}
	lines := addr.Lines()
	if strings.Join(lines, "|") != "A|L1|Pune, MH - 411001|1" {
		t.Fatalf("Lines() = %v", lines)
	}
	addr.Line2 = "L2"
	if len(addr.Lines()) != 5 {
		t.Fatalf("Lines() with line2 = %v", addr.Lines())
	}
}
