// Package clickweb is a client for the click-web command pages of an
// archivy-style server. It opens command forms and runs commands, rendering
// the streamed output into HEADER, BODY and FOOTER sinks.
package clickweb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/clickweb/pkg/router"
	"github.com/papercomputeco/clickweb/pkg/section"
	"github.com/papercomputeco/clickweb/pkg/session"
	"github.com/papercomputeco/clickweb/pkg/sink"
)

const (
	commandPathPrefix = "/cli/"

	// DefaultTimeout bounds a whole command run, streaming included.
	DefaultTimeout = 5 * time.Minute
)

// omittedCommands are refused by the server; the client refuses them first.
var omittedCommands = map[string]bool{
	"shell":  true,
	"run":    true,
	"routes": true,
}

// ErrOmittedCommand is returned for commands that cannot be run over the web.
var ErrOmittedCommand = errors.New("command cannot be run over the web")

// StatusError is returned when the server answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, body)
}

// Client talks to one click-web server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    *time.Duration
	logger     *slog.Logger
	sessions   *session.Manager
	buffered   bool
	readerOpts []router.ReaderOption
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the timeout of the HTTP client. Zero disables it. A client
// passed to WithHTTPClient is copied rather than changed.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = &d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithBuffered reads the whole response before rendering it, and renders it
// into BODY as markup without section routing.
func WithBuffered(buffered bool) Option {
	return func(c *Client) {
		c.buffered = buffered
	}
}

// WithChunkSize sets the size of the reads handed to the section router.
func WithChunkSize(n int) Option {
	return func(c *Client) {
		c.readerOpts = append(c.readerOpts, router.WithChunkSize(n))
	}
}

// NewClient returns a Client for the server at base, e.g.
// "http://localhost:5000".
func NewClient(base string, opts ...Option) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server url %q must include scheme and host", base)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil {
		hc := *c.httpClient
		hc.Timeout = *c.timeout
		c.httpClient = &hc
	}
	c.sessions = session.NewManager(c.logger)
	return c, nil
}

// CommandURL returns the URL of the command page for path, a slash separated
// command path such as "add" or "plugins/sync".
func (c *Client) CommandURL(path string) (string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", errors.New("command path is empty")
	}

	parts := strings.Split(path, "/")
	for i, p := range parts {
		if omittedCommands[p] {
			return "", fmt.Errorf("%q: %w", p, ErrOmittedCommand)
		}
		parts[i] = url.PathEscape(p)
	}

	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + commandPathPrefix + strings.Join(parts, "/")
	return u.String(), nil
}

// Busy reports whether a command run is in flight.
func (c *Client) Busy() bool {
	return c.sessions.Busy()
}

// OpenCommand fetches and parses the form of a command.
func (c *Client) OpenCommand(ctx context.Context, path string) (*Form, error) {
	target, err := c.CommandURL(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	c.logger.Debug("opening command", "url", target)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching command form: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return ParseForm(resp.Body)
}

// Execute submits values to the command and returns the response body,
// which the caller must close.
func (c *Client) Execute(ctx context.Context, path string, values url.Values) (io.ReadCloser, error) {
	target, err := c.CommandURL(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// The streaming renderer only handles plain text responses.
	req.Header.Set("Accept", "text/plain")

	c.logger.Debug("posting command", "url", target, "fields", len(values))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting command: %w", err)
	}

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// Run executes the command and renders its output into sinks. The sinks are
// reset first. Run fails with session.ErrBusy while another run is in flight.
func (c *Client) Run(ctx context.Context, path string, values url.Values, sinks sink.Set) error {
	s, err := c.sessions.Begin(ctx)
	if err != nil {
		return err
	}
	return c.run(s, path, values, sinks)
}

// Rerun is Run, except that a run already in flight is cancelled instead of
// blocking the new one.
func (c *Client) Rerun(ctx context.Context, path string, values url.Values, sinks sink.Set) error {
	return c.RunSession(c.Takeover(ctx), path, values, sinks)
}

// Takeover cancels the run in flight, if any, and reserves the slot for a
// new run started later with RunSession. Callers that start runs from
// several goroutines take over in their own order, so the latest reservation
// is the one that survives.
func (c *Client) Takeover(ctx context.Context) *session.Session {
	return c.sessions.Takeover(ctx)
}

// RunSession runs the command within s, a session from Takeover. s is done
// when RunSession returns. A session that was taken over before the run
// started fails without contacting the server.
func (c *Client) RunSession(s *session.Session, path string, values url.Values, sinks sink.Set) error {
	return c.run(s, path, values, sinks)
}

func (c *Client) run(s *session.Session, path string, values url.Values, sinks sink.Set) (err error) {
	defer func() { s.Done(err) }()

	if err := context.Cause(s.Context()); err != nil {
		return err
	}

	logger := c.logger.With("session", s.ID, "command", path)
	start := time.Now()

	body, err := c.Execute(s.Context(), path, values)
	if err != nil {
		return err
	}
	defer body.Close()

	sinks.Reset()

	if c.buffered {
		err = c.renderBuffered(body, sinks)
	} else {
		err = router.Pump(s.Context(), body, sinks, c.readerOpts...)
	}

	var unknown *section.UnknownSectionError
	switch {
	case errors.As(err, &unknown):
		logger.Error("aborting run on unknown output section", "section", unknown.Section)
	case err != nil:
		logger.Debug("run failed", "err", err, "elapsed", time.Since(start))
	default:
		logger.Debug("run finished", "elapsed", time.Since(start))
	}
	return err
}

func (c *Client) renderBuffered(body io.Reader, sinks sink.Set) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	return sinks.Append(section.Body, section.Markup, string(data))
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
}
