package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/campus-reservations/internal/application"
)

func TestRequirePrincipal(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests without a user id", func(t *testing.T) {
		t.Parallel()

		handler := RequirePrincipal(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called without a principal")
		}))

		for _, header := range []string{"", "   "} {
			req := httptest.NewRequest(http.MethodGet, "/resources", nil)
			if header != "" {
				req.Header.Set("X-User-ID", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("X-User-ID %q: expected 401, got %d", header, rec.Code)
			}
		}
	})

	t.Run("attaches the forwarded principal to the request context", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name        string
			adminHeader string
			want        application.Principal
		}{
			{name: "regular user", want: application.Principal{UserID: "user-001"}},
			{name: "admin flag", adminHeader: "true", want: application.Principal{UserID: "user-001", IsAdmin: true}},
			{name: "admin flag is case-insensitive", adminHeader: "TRUE", want: application.Principal{UserID: "user-001", IsAdmin: true}},
			{name: "non-boolean admin flag is ignored", adminHeader: "yes", want: application.Principal{UserID: "user-001"}},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				captured := make(chan application.Principal, 1)
				handler := RequirePrincipal(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					principal, ok := PrincipalFromContext(r.Context())
					if !ok {
						t.Error("expected a principal in the request context")
					}
					captured <- principal
					w.WriteHeader(http.StatusOK)
				}))

				req := httptest.NewRequest(http.MethodGet, "/resources", nil)
				req.Header.Set("X-User-ID", tc.want.UserID)
				if tc.adminHeader != "" {
					req.Header.Set("X-User-Admin", tc.adminHeader)
				}
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)

				if rec.Code != http.StatusOK {
					t.Fatalf("expected 200, got %d", rec.Code)
				}
				if got := <-captured; got != tc.want {
					t.Fatalf("principal = %+v, want %+v", got, tc.want)
				}
			})
		}
	})
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	called := false
	handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if LoggerFromContext(r.Context()) == nil {
			t.Error("expected a request logger in the context")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/resources", nil))

	if !called {
		t.Fatal("expected the wrapped handler to be called")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
