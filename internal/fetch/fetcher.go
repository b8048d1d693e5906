// Package fetch retrieves ontology documents over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AcceptHeader prefers RDF/XML (OWL files) and falls back to Turtle and N-Triples
const AcceptHeader = "application/rdf+xml, application/owl+xml;q=0.9, text/turtle;q=0.8, application/n-triples;q=0.7, application/xml;q=0.5, */*;q=0.1"

// Document is a fetched ontology source
type Document struct {
	URL         string // final URL after redirects
	ContentType string
	Body        []byte
}

// Options configures a Fetcher
type Options struct {
	Timeout        time.Duration
	UserAgent      string
	MaxContentSize int64
	MaxRetries     int
	BlockPrivate   bool
}

// Fetcher fetches ontology documents with size and redirect limits
type Fetcher struct {
	client         *http.Client
	timeout        time.Duration
	userAgent      string
	maxContentSize int64
	maxRetries     int
	blockPrivate   bool
}

// New creates a new fetcher
func New(opts Options) *Fetcher {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	f := &Fetcher{
		timeout:        opts.Timeout,
		userAgent:      opts.UserAgent,
		maxContentSize: opts.MaxContentSize,
		maxRetries:     opts.MaxRetries,
		blockPrivate:   opts.BlockPrivate,
	}

	dial := dialer.DialContext
	if opts.BlockPrivate {
		dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, fmt.Errorf("invalid address: %w", err)
			}
			ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
			if err != nil {
				return nil, fmt.Errorf("DNS lookup failed: %w", err)
			}
			for _, ipAddr := range ips {
				if IsPrivateIP(ipAddr.IP) {
					return nil, fmt.Errorf("connection to private IP %s is not allowed", ipAddr.IP)
				}
			}
			for _, ipAddr := range ips {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ipAddr.IP.String(), port))
				if err == nil {
					return conn, nil
				}
			}
			return nil, fmt.Errorf("failed to connect to any resolved IP")
		}
	}

	f.client = &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dial,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: opts.Timeout,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
		Timeout: opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return f.ValidateURL(req.URL.String())
		},
	}

	return f
}

// ValidateURL checks that rawURL is an absolute http(s) URL and, when
// private addresses are blocked, that it does not name a local host.
func (f *Fetcher) ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	if !f.blockPrivate {
		return nil
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "localhost" || strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return fmt.Errorf("local host URLs are not allowed")
	}
	if ip := net.ParseIP(host); ip != nil && IsPrivateIP(ip) {
		return fmt.Errorf("private IP addresses are not allowed")
	}
	return nil
}

// MaxDuration bounds one Fetch: every attempt may use the full timeout
// and every retry waits out its backoff. Zero means unbounded.
func (f *Fetcher) MaxDuration() time.Duration {
	if f.timeout <= 0 {
		return 0
	}
	return f.timeout*time.Duration(f.maxRetries+1) + RetryWait(f.maxRetries)
}

// Fetch retrieves the document at rawURL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	if err := f.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", AcceptHeader)
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := DoWithRetry(ctx, f.client, req, f.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxContentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxContentSize {
		return nil, fmt.Errorf("content too large (exceeds %d bytes)", f.maxContentSize)
	}

	return &Document{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// IsPrivateIP checks if an IP is in loopback, private, link-local or
// carrier-grade NAT ranges.
func IsPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}
	if v4 := ip.To4(); v4 != nil {
		return v4[0] == 100 && v4[1]&0xc0 == 64
	}
	return false
}
