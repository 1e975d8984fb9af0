package resolve

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCanonicalize_StripsTrackingParams(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "utm params stripped",
			in:   "https://lu.ma/abc123?utm_source=x&utm_medium=email",
			want: "https://lu.ma/abc123",
		},
		{
			name: "fbclid stripped",
			in:   "https://example.com/event?fbclid=XYZ",
			want: "https://example.com/event",
		},
		{
			name: "non-tracking params kept and sorted",
			in:   "https://example.com/e?z=1&a=2&utm_campaign=c",
			want: "https://example.com/e?a=2&z=1",
		},
		{
			name: "host lowercased",
			in:   "https://Lu.Ma/abc123",
			want: "https://lu.ma/abc123",
		},
		{
			name: "default port dropped",
			in:   "https://example.com:443/e",
			want: "https://example.com/e",
		},
		{
			name: "fragment dropped",
			in:   "https://example.com/e#tickets",
			want: "https://example.com/e",
		},
		{
			name: "trailing slash trimmed",
			in:   "https://example.com/e/",
			want: "https://example.com/e",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.in)
			if err != nil {
				t.Fatalf("Canonicalize(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	in := "https://Lu.Ma/abc123/?utm_source=x&ref=tw#top"
	once, err := Canonicalize(in)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	twice, err := Canonicalize(once)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if once != twice {
		t.Errorf("not idempotent: %q vs %q", once, twice)
	}
}

func TestCanonicalize_Rejects(t *testing.T) {
	for _, in := range []string{"", "not a url", "ftp://example.com/x", "https://"} {
		if _, err := Canonicalize(in); err == nil {
			t.Errorf("Canonicalize(%q): expected error, got nil", in)
		}
	}
}

func TestEquivalent(t *testing.T) {
	if !Equivalent("https://lu.ma/abc123", "https://lu.ma/abc123?utm_source=x") {
		t.Error("expected tracking-only difference to be equivalent")
	}
	if Equivalent("https://lu.ma/abc123", "https://lu.ma/def456") {
		t.Error("expected different paths to not be equivalent")
	}
}

func TestResolve_FollowsRedirectChain(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/start":
			http.Redirect(w, r, server.URL+"/middle", http.StatusFound)
		case "/middle":
			http.Redirect(w, r, server.URL+"/final", http.StatusMovedPermanently)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	r := NewResolver(5*time.Second, "test-agent", 5, false, "", "", "")
	resolved, err := r.Resolve(context.Background(), server.URL+"/start")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if !strings.HasSuffix(resolved.CanonicalURL, "/final") {
		t.Errorf("expected canonical URL ending in /final, got %s", resolved.CanonicalURL)
	}
	if len(resolved.RedirectChain) != 2 {
		t.Errorf("expected 2 hops in chain, got %d: %v", len(resolved.RedirectChain), resolved.RedirectChain)
	}
}

func TestResolve_TooManyRedirects(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	r := NewResolver(5*time.Second, "test-agent", 3, false, "", "", "")
	_, err := r.Resolve(context.Background(), server.URL+"/loop")
	if err == nil {
		t.Fatal("expected error for redirect loop, got nil")
	}
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Errorf("expected *ResolutionError, got %T", err)
	}
}

func TestResolve_FallsBackToGET(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := NewResolver(5*time.Second, "test-agent", 5, false, "", "", "")
	resolved, err := r.Resolve(context.Background(), server.URL+"/head-hostile")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.CanonicalURL == "" {
		t.Error("expected canonical URL, got empty")
	}
}
