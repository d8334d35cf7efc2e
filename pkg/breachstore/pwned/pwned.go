// Package pwned checks passwords against the Pwned Passwords range API.
// Only the first five hex characters of the SHA-1 digest leave the host.
package pwned

import (
	"bufio"
	"context"
	"crypto/sha1" //nolint:gosec // required by the range API
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
)

var logger = logging.Get("pwned")

const (
	// DefaultBaseURL is the public range endpoint.
	DefaultBaseURL = "https://api.pwnedpasswords.com/range/"

	// DefaultTimeout bounds one lookup.
	DefaultTimeout = 10 * time.Second

	// PrefixLen is the number of hash characters sent.
	PrefixLen = 5
)

var (
	// ErrEmptyPassword is returned for an empty password.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrUpstream is returned for a non-200 response.
	ErrUpstream = errors.New("range API returned an error")
)

// Result is the outcome of a lookup.
type Result struct {
	Pwned bool  `json:"pwned" yaml:"pwned"`
	Count int64 `json:"count" yaml:"count"`
}

// Client queries the range API.
type Client struct {
	baseURL   string
	userAgent string
	hc        *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another range endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		c.baseURL = u
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New returns a client with the default endpoint and timeout.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: "breachstore",
		hc:        &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Hash returns the uppercase SHA-1 hex digest of password split into the
// prefix that is sent and the suffix that is matched locally.
func Hash(password string) (prefix, suffix string) {
	sum := sha1.Sum([]byte(password)) //nolint:gosec // required by the range API
	h := strings.ToUpper(hex.EncodeToString(sum[:]))
	return h[:PrefixLen], h[PrefixLen:]
}

// Check looks password up. Padding entries (count 0) never match.
func (c *Client) Check(ctx context.Context, password string) (Result, error) {
	if password == "" {
		return Result{}, ErrEmptyPassword
	}
	prefix, suffix := Hash(password)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+prefix, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Add-Padding", "true")

	resp, err := c.hc.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("range request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		h, n, ok := strings.Cut(strings.TrimSpace(sc.Text()), ":")
		if !ok || !strings.EqualFold(h, suffix) {
			continue
		}
		count, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return Result{}, fmt.Errorf("parsing count %q: %w", n, err)
		}
		return Result{Pwned: count > 0, Count: count}, nil
	}
	if err := sc.Err(); err != nil {
		return Result{}, fmt.Errorf("reading range response: %w", err)
	}
	return Result{}, nil
}

// IsPwned reports whether password appears in the dataset. Any failure
// is logged and reported as not found.
func (c *Client) IsPwned(ctx context.Context, password string) bool {
	res, err := c.Check(ctx, password)
	if err != nil {
		logger.Warn("pwned check failed", "error", err)
		return false
	}
	return res.Pwned
}
