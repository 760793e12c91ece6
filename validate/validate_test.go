package validate

import (
	"errors"
	"testing"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1", 1, true},
		{"42", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, err := ParseID(tt.in)
		if tt.ok != (err == nil) {
			t.Fatalf("ParseID(%q): unexpected error state %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCheck(t *testing.T) {
	type signup struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Internal string `json:"-"`
	}

	if err := Check(signup{Email: "a@b.com", Password: "longenough"}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	err := Check(signup{Email: "nope", Password: "short"})
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected field errors, got %v", err)
	}

	fields := fe.Fields()
	if len(fields) != 2 || fields["email"] == "" || fields["password"] == "" {
		t.Fatalf("expected email and password to be reported, got %v", fields)
	}
	if err.Error() != fields["email"] {
		t.Fatalf("expected the first violation as message, got %q", err.Error())
	}
}

func TestGenerateID(t *testing.T) {
	if err := CheckID(GenerateID()); err != nil {
		t.Fatalf("generated id does not parse: %v", err)
	}
}
