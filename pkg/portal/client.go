package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"paystubdl/pkg/config"
	errs "paystubdl/pkg/errors"
	"paystubdl/pkg/logger"
	"paystubdl/pkg/ratelimit"
)

// Options configures a portal Client
type Options struct {
	BaseURL    string
	WarmupURL  string
	AuthDomain string
	UserAgent  string

	Username string
	Password string

	// Interval is the minimum gap between the completion of one request
	// and the start of the next
	Interval time.Duration
	Timeout  time.Duration

	// Transport overrides the HTTP transport; nil uses http.DefaultTransport
	Transport http.RoundTripper
	Logger    logger.Logger
}

// OptionsFromConfig builds client options from the loaded configuration
func OptionsFromConfig(cfg *config.Config, log logger.Logger) Options {
	return Options{
		BaseURL:    cfg.Portal.BaseURL,
		WarmupURL:  cfg.Portal.WarmupURL,
		AuthDomain: cfg.Portal.AuthDomain,
		UserAgent:  cfg.Portal.UserAgent,
		Username:   cfg.Username,
		Password:   cfg.Password,
		Interval:   cfg.Portal.RequestInterval(),
		Timeout:    cfg.Portal.Timeout(),
		Logger:     log,
	}
}

// Client is an authenticated, throttled session against the payroll portal
type Client struct {
	httpClient *http.Client
	limiter    ratelimit.Limiter
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a session and performs the warm-up request.
// A failed warm-up is reported as an auth error.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create cookie jar")
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	c := &Client{
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: opts.Timeout,
			Transport: &sessionTransport{
				base:       base,
				userAgent:  opts.UserAgent,
				username:   opts.Username,
				password:   opts.Password,
				authDomain: strings.ToLower(opts.AuthDomain),
			},
		},
		limiter: ratelimit.NewFixedInterval(opts.Interval),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		logger:  log,
	}

	if err := c.warmup(ctx, opts.WarmupURL); err != nil {
		return nil, err
	}

	return c, nil
}

// warmup loads the landing page so the portal sets its session cookies
func (c *Client) warmup(ctx context.Context, warmupURL string) error {
	c.logger.DebugWithFields("warming up session", map[string]interface{}{
		"url": warmupURL,
	})

	resp, err := c.Request(ctx, warmupURL, nil)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, err, "session warm-up failed")
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	u, err := url.Parse(warmupURL)
	if err == nil && len(c.httpClient.Jar.Cookies(u)) == 0 {
		c.logger.WarnWithFields("warm-up set no session cookies", map[string]interface{}{
			"url": warmupURL,
		})
	}

	return nil
}

// Request sends one throttled request. A nil body issues a GET, anything
// else a POST carrying data. Non-2xx responses are closed and returned as
// typed errors; on success the caller owns the response body and must
// close it. The next request waits for the interval counted from the end
// of this body.
func (c *Client) Request(ctx context.Context, rawURL string, data []byte) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "request cancelled")
	}

	method := http.MethodGet
	var body io.Reader
	if data != nil {
		method = http.MethodPost
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.limiter.Done()
		c.logger.WithError(err).ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   method,
			"url":      rawURL,
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, fmt.Sprintf("%s %s", method, rawURL))
	}

	logger.LogRequest(c.logger, method, rawURL, resp.StatusCode, duration)

	if err := checkResponseStatus(resp); err != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		c.limiter.Done()
		return nil, err
	}

	// the request completes when its body has been read or closed
	resp.Body = &completionBody{ReadCloser: resp.Body, done: c.limiter.Done}
	return resp, nil
}

// completionBody calls done once, at EOF or on Close, whichever is first
type completionBody struct {
	io.ReadCloser
	done func()
	once sync.Once
}

func (b *completionBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err == io.EOF {
		b.once.Do(b.done)
	}
	return n, err
}

func (b *completionBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.done)
	return err
}

// checkResponseStatus maps non-2xx statuses onto typed errors
func checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	t := errs.FromStatusCode(resp.StatusCode)
	if t == "" {
		t = errs.ErrorTypeUnknown
	}

	var message string
	switch t {
	case errs.ErrorTypeAuth:
		message = "authentication rejected"
	case errs.ErrorTypeNotFound:
		message = "resource not found"
	case errs.ErrorTypeServerError:
		message = "server error"
	default:
		message = fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
	}

	return errs.WithCode(t, resp.StatusCode, message)
}

// ListStatements fetches the index of at most limit pay statements, in the
// order the portal returns them
func (c *Client) ListStatements(ctx context.Context, limit int) ([]PayStatement, error) {
	indexURL := IndexURL(c.baseURL, limit)

	resp, err := c.Request(ctx, indexURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read statement index")
	}

	var index indexResponse
	if err := json.Unmarshal(body, &index); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse statement index", map[string]interface{}{
			"url":          indexURL,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "statement index is not valid JSON")
	}

	if index.PayStatements == nil {
		return nil, errs.New(errs.ErrorTypeParsing, "statement index has no payStatements field")
	}

	c.logger.DebugWithFields("listed pay statements", map[string]interface{}{
		"count": len(*index.PayStatements),
		"limit": limit,
	})

	return *index.PayStatements, nil
}

// DocumentURL returns the absolute download URL for a statement href
func (c *Client) DocumentURL(href string) string {
	return DocumentURL(c.baseURL, href)
}

// sessionTransport stamps the browser User-Agent on every request and
// attaches basic auth for hosts inside the auth domain. Running at the
// transport level covers redirected requests too.
type sessionTransport struct {
	base       http.RoundTripper
	userAgent  string
	username   string
	password   string
	authDomain string
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if t.username != "" && withinDomain(req.URL.Hostname(), t.authDomain) {
		req.SetBasicAuth(t.username, t.password)
	}
	return t.base.RoundTrip(req)
}

// withinDomain reports whether host equals domain or is a subdomain of it.
// An empty domain matches every host.
func withinDomain(host, domain string) bool {
	if domain == "" {
		return true
	}
	host = strings.ToLower(host)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
