package resolve

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"eventscout/internal/util"
)

// Resolved is the outcome of following a discovered URL to its final form.
type Resolved struct {
	SourceURL     string   // URL as discovered
	CanonicalURL  string   // final URL after redirects + canonicalization
	RedirectChain []string // redirect hops, in order (excludes source, includes final)
	ResolvedAt    time.Time
}

// ResolutionError wraps network or redirect failures during resolution.
type ResolutionError struct {
	URL string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.URL, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// trackingParams are query parameters stripped before comparison. Keys are
// matched exactly; utm_* is matched by prefix.
var trackingParams = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"mc_cid": true,
	"mc_eid": true,
	"ref":    true,
	"igshid": true,
}

// Resolver follows redirect chains and produces canonical URLs for dedup.
type Resolver struct {
	transport    http.RoundTripper
	timeout      time.Duration
	userAgent    string
	maxRedirects int
}

// NewResolver creates a resolver. maxRedirects bounds the chain length.
func NewResolver(timeout time.Duration, userAgent string, maxRedirects int, insecureTLS bool, httpProxy, httpsProxy, noProxy string) *Resolver {
	if maxRedirects <= 0 {
		maxRedirects = 5
	}

	transport := &http.Transport{
		Proxy: util.NewProxyFunc(httpProxy, httpsProxy, noProxy),
	}
	if insecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Resolver{
		transport:    transport,
		timeout:      timeout,
		userAgent:    userAgent,
		maxRedirects: maxRedirects,
	}
}

// Resolve follows the redirect chain for rawURL and returns its canonical
// form. A HEAD request is tried first; servers that reject HEAD get one GET.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*Resolved, error) {
	canonical, err := Canonicalize(rawURL)
	if err != nil {
		return nil, &ResolutionError{URL: rawURL, Err: err}
	}

	chain, final, err := r.follow(ctx, http.MethodHead, canonical)
	if err != nil {
		// Some hosts 405 on HEAD. Retry once with GET before giving up.
		chain, final, err = r.follow(ctx, http.MethodGet, canonical)
		if err != nil {
			return nil, &ResolutionError{URL: rawURL, Err: err}
		}
	}

	canonicalFinal, err := Canonicalize(final)
	if err != nil {
		return nil, &ResolutionError{URL: rawURL, Err: err}
	}

	return &Resolved{
		SourceURL:     rawURL,
		CanonicalURL:  canonicalFinal,
		RedirectChain: chain,
		ResolvedAt:    time.Now().UTC(),
	}, nil
}

// follow issues a request with a per-call client whose redirect callback
// records each hop.
func (r *Resolver) follow(ctx context.Context, method, target string) (chain []string, final string, err error) {
	client := &http.Client{
		Timeout:   r.timeout,
		Transport: r.transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= r.maxRedirects {
				return fmt.Errorf("stopped after %d redirects", r.maxRedirects)
			}
			chain = append(chain, req.URL.String())
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	return chain, resp.Request.URL.String(), nil
}

// Canonicalize normalizes a URL for dedup comparison: lowercase scheme and
// host, default ports dropped, fragment dropped, tracking params stripped,
// remaining query sorted, trailing slash trimmed. Idempotent.
func Canonicalize(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme: %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("missing host")
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	// Drop default ports
	switch {
	case parsed.Scheme == "http" && strings.HasSuffix(parsed.Host, ":80"):
		parsed.Host = strings.TrimSuffix(parsed.Host, ":80")
	case parsed.Scheme == "https" && strings.HasSuffix(parsed.Host, ":443"):
		parsed.Host = strings.TrimSuffix(parsed.Host, ":443")
	}

	parsed.Fragment = ""
	parsed.RawQuery = stripTracking(parsed.Query())
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")

	return parsed.String(), nil
}

// Equivalent reports whether two URLs canonicalize to the same form.
// Used purely for dedup, never for identity.
func Equivalent(a, b string) bool {
	ca, errA := Canonicalize(a)
	cb, errB := Canonicalize(b)
	if errA != nil || errB != nil {
		return false
	}
	return ca == cb
}

// stripTracking removes tracking parameters and re-encodes the rest in
// sorted key order.
func stripTracking(q url.Values) string {
	keys := make([]string, 0, len(q))
	for key := range q {
		if trackingParams[key] || strings.HasPrefix(key, "utm_") {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	kept := url.Values{}
	for _, key := range keys {
		for _, v := range q[key] {
			kept.Add(key, v)
		}
	}
	return kept.Encode()
}
