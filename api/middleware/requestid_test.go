package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"caller id kept", "abc-123", true},
		{"missing id generated", "", false},
		{"spaces rejected", "abc 123", false},
		{"too long rejected", strings.Repeat("a", maxRequestIDLen+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := RequestID()(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				got = ContextRequestID(ctx)
				return nil
			})

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set(RequestIDHeader, tt.header)
			}
			w := httptest.NewRecorder()

			if err := h(r.Context(), w, r); err != nil {
				t.Fatal(err)
			}

			if got == "" {
				t.Fatal("no request id in context")
			}
			if (got == tt.header) != tt.keep {
				t.Errorf("header %q: got id %q", tt.header, got)
			}
			if w.Header().Get(RequestIDHeader) != got {
				t.Errorf("response header %q differs from context id %q", w.Header().Get(RequestIDHeader), got)
			}
		})
	}
}
