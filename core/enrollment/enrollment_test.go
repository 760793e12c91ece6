package enrollment

import (
	"testing"
	"time"
)

func TestStatusGrantsAccess(t *testing.T) {
	tests := map[Status]bool{
		Active:    true,
		Completed: true,
		Expired:   false,
		"":        false,
	}

	for s, exp := range tests {
		if got := s.GrantsAccess(); got != exp {
			t.Errorf("status %q: expected %t, got %t", s, exp, got)
		}
	}
}

func TestNew(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	e := New("u1", 4, "", now)
	if e.Status != Active {
		t.Fatalf("expected status %q, got %q", Active, e.Status)
	}
	if e.PaymentID != nil {
		t.Fatalf("expected no payment id, got %q", *e.PaymentID)
	}

	e = New("u1", 4, "pay-1", now)
	if e.PaymentID == nil || *e.PaymentID != "pay-1" {
		t.Fatal("expected payment id pay-1")
	}
	if !e.EnrollmentDate.Equal(now) {
		t.Fatalf("expected enrollment date %v, got %v", now, e.EnrollmentDate)
	}
}
