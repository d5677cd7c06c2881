// Package checker verifies that discovered URLs respond under an
// authenticated CMS session.
//
// A Checker moves through Unauthenticated, Authenticating, Authenticated,
// Probing and Done; a failed login ends in Failed and no URL is probed.
package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/errgroup"

	"github.com/dbsmedya/gounveil/internal/config"
	"github.com/dbsmedya/gounveil/internal/logger"
	"github.com/dbsmedya/gounveil/internal/types"
)

const (
	maxLoginPageBytes = 2 << 20
	maxMessageLength  = 100
)

// State is the checker lifecycle state.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
	StateProbing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateProbing:
		return "probing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures a Checker.
type Options struct {
	BaseURL      string
	Username     string
	Password     string
	LoginPath    string
	VerifyPath   string
	Timeout      time.Duration // per request
	Workers      int           // <= 1 probes sequentially
	MaxRedirects int
	UserAgent    string
}

// OptionsFromConfig builds Options from the check section of the config.
func OptionsFromConfig(baseURL string, cfg config.CheckConfig) Options {
	return Options{
		BaseURL:      baseURL,
		Username:     cfg.Username,
		Password:     cfg.Password,
		LoginPath:    cfg.LoginPath,
		VerifyPath:   cfg.VerifyPath,
		Timeout:      cfg.Timeout,
		Workers:      cfg.Workers,
		MaxRedirects: cfg.MaxRedirects,
		UserAgent:    cfg.UserAgent,
	}
}

func (o *Options) applyDefaults() {
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.LoginPath == "" {
		o.LoginPath = "/admin/login/"
	}
	if o.VerifyPath == "" {
		o.VerifyPath = "/admin/"
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MaxRedirects <= 0 {
		o.MaxRedirects = 10
	}
}

// Checker holds one CMS session. The session is written only while
// authenticating and shared read-only by probe workers afterwards.
type Checker struct {
	opts   Options
	client *http.Client
	logger *logger.Logger

	mu    sync.Mutex
	state State
}

// New creates a Checker with an empty cookie jar.
func New(opts Options, log *logger.Logger) (*Checker, error) {
	if log == nil {
		log = logger.NewDefault()
	}
	opts.applyDefaults()
	if _, err := url.ParseRequestURI(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	maxRedirects := opts.MaxRedirects
	client := &http.Client{
		Jar: jar,
		// Past the hop limit the last redirect response is classified as is.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return &Checker{opts: opts, client: client, logger: log}, nil
}

// State returns the current lifecycle state.
func (c *Checker) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Checker) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Checker) url(path string) string {
	return c.opts.BaseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Checker) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	return req, nil
}

// Authenticate logs in through the CMS login form and verifies the session by
// loading a protected page. Any failure is returned as *AuthError.
func (c *Checker) Authenticate(ctx context.Context) error {
	c.setState(StateAuthenticating)
	if err := c.authenticate(ctx); err != nil {
		c.setState(StateFailed)
		c.logger.Warnw("authentication failed", "error", err)
		return err
	}
	c.setState(StateAuthenticated)
	c.logger.Infow("authenticated", "user", c.opts.Username)
	return nil
}

func (c *Checker) authenticate(ctx context.Context) error {
	if c.opts.Username == "" || c.opts.Password == "" {
		return &AuthError{Step: "credentials", Err: ErrMissingCredentials}
	}

	// Post to the login page as reached after redirects.
	token, loginURL, err := c.fetchToken(ctx, c.url(c.opts.LoginPath))
	if err != nil {
		return err
	}

	form := url.Values{
		"username": {c.opts.Username},
		"password": {c.opts.Password},
		CSRFField:  {token},
		"next":     {c.opts.VerifyPath},
	}
	req, err := c.newRequest(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return &AuthError{Step: "login_post", URL: loginURL, Err: wrapCause(ErrLoginUnreachable, err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", loginURL)

	resp, err := c.do(req)
	if err != nil {
		return &AuthError{Step: "login_post", URL: loginURL, Err: wrapCause(ErrLoginUnreachable, err)}
	}
	drain(resp)

	return c.verify(ctx, loginURL)
}

// fetchToken loads the login page and extracts its CSRF token. It also
// returns the login page URL after redirects.
func (c *Checker) fetchToken(ctx context.Context, loginURL string) (string, string, error) {
	fail := func(err error) (string, string, error) {
		return "", "", &AuthError{Step: "login_page", URL: loginURL, Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodGet, loginURL, http.NoBody)
	if err != nil {
		return fail(wrapCause(ErrLoginUnreachable, err))
	}
	resp, err := c.do(req)
	if err != nil {
		return fail(wrapCause(ErrLoginUnreachable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fail(wrapCause(ErrLoginUnreachable, fmt.Errorf("status %d", resp.StatusCode)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLoginPageBytes))
	if err != nil {
		return fail(wrapCause(ErrLoginUnreachable, err))
	}

	token := ExtractCSRFToken(body)
	if token == "" {
		return fail(ErrTokenNotFound)
	}

	final := *resp.Request.URL
	final.RawQuery = ""
	final.Fragment = ""
	return token, final.String(), nil
}

// verify requires a protected page to load without bouncing back to the login form.
func (c *Checker) verify(ctx context.Context, loginURL string) error {
	verifyURL := c.url(c.opts.VerifyPath)
	req, err := c.newRequest(ctx, http.MethodGet, verifyURL, http.NoBody)
	if err != nil {
		return &AuthError{Step: "verify", URL: verifyURL, Err: wrapCause(ErrLoginUnreachable, err)}
	}
	resp, err := c.do(req)
	if err != nil {
		return &AuthError{Step: "verify", URL: verifyURL, Err: wrapCause(ErrLoginUnreachable, err)}
	}
	drain(resp)

	if resp.StatusCode == http.StatusForbidden || c.isLoginPage(resp.Request.URL, loginURL) {
		return &AuthError{Step: "verify", URL: verifyURL, Err: ErrInvalidCredentials}
	}
	return nil
}

// isLoginPage reports whether u is the login page, either as configured or
// as reached after redirects. Trailing slashes are ignored.
func (c *Checker) isLoginPage(u *url.URL, loginURL string) bool {
	path := strings.TrimRight(u.Path, "/")
	if path == strings.TrimRight(c.opts.LoginPath, "/") {
		return true
	}
	login, err := url.Parse(loginURL)
	return err == nil && path == strings.TrimRight(login.Path, "/")
}

// do runs req with the per-request timeout.
func (c *Checker) do(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), c.opts.Timeout)
	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxLoginPageBytes))
	_ = resp.Body.Close()
}

// Probe requests entry.URL once, following redirects, and classifies the outcome.
func (c *Checker) Probe(ctx context.Context, entry types.URLEntry) types.CheckedURLEntry {
	checked := types.CheckedURLEntry{URLEntry: entry}

	req, err := c.newRequest(ctx, http.MethodGet, entry.URL, http.NoBody)
	if err != nil {
		checked.Status = transportStatus(err)
		return checked
	}
	resp, err := c.do(req)
	if err != nil {
		checked.Status = transportStatus(err)
		c.logger.WithURL(entry.URL).Debugw("probe failed", "error", err)
		return checked
	}
	drain(resp)

	checked.Status = ClassifyStatus(resp.StatusCode)
	return checked
}

// ClassifyStatus maps an HTTP status code to a check status.
func ClassifyStatus(code int) types.CheckStatus {
	switch {
	case code == http.StatusOK:
		return types.CheckStatus{Status: types.StatusOK, Code: code}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return types.CheckStatus{Status: types.StatusAuthFailed, Code: code}
	case code == http.StatusNotFound || code == http.StatusGone:
		return types.CheckStatus{Status: types.StatusNotFound, Code: code}
	case code >= http.StatusInternalServerError:
		return types.CheckStatus{Status: types.StatusServerError, Code: code}
	default:
		return types.CheckStatus{Status: types.StatusError, Code: code}
	}
}

func transportStatus(err error) types.CheckStatus {
	msg := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		msg = urlErr.Err.Error()
	}
	msg = runewidth.Truncate(msg, maxMessageLength, "")
	return types.CheckStatus{Status: types.StatusError, Message: msg}
}

// Check authenticates and probes every entry once, in order. On
// authentication failure the *AuthError is returned and nothing is probed.
func (c *Checker) Check(ctx context.Context, entries []types.URLEntry) (*Report, error) {
	if err := c.Authenticate(ctx); err != nil {
		return nil, err
	}

	c.setState(StateProbing)
	start := time.Now()
	results := make([]types.CheckedURLEntry, len(entries))

	if c.opts.Workers <= 1 {
		for i, e := range entries {
			results[i] = c.Probe(ctx, e)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(c.opts.Workers)
		for i, e := range entries {
			g.Go(func() error {
				results[i] = c.Probe(ctx, e)
				return nil
			})
		}
		_ = g.Wait()
	}

	c.setState(StateDone)
	report := NewReport(results, time.Since(start))
	c.logger.Infow("check complete",
		"total", len(results),
		"ok", report.OK,
		"failed", report.Failed,
		"success_rate", fmt.Sprintf("%.1f%%", report.SuccessRate),
		"duration", report.Duration,
	)
	return report, nil
}

// Unchecked wraps entries with the UNCHECKED status, for runs whose check
// pass is disabled.
func Unchecked(entries []types.URLEntry) []types.CheckedURLEntry {
	out := make([]types.CheckedURLEntry, len(entries))
	for i, e := range entries {
		out[i] = types.CheckedURLEntry{URLEntry: e, Status: types.CheckStatus{Status: types.StatusUnchecked}}
	}
	return out
}
