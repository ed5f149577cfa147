package sink

import (
	"html"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"
)

var (
	HeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	FooterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// Terminal renders fragments onto a character stream. Text is written as-is.
// Markup has its tags stripped and entities decoded before it is written.
type Terminal struct {
	mu     *sync.Mutex
	w      io.Writer
	style  *lipgloss.Style
	policy *bluemonday.Policy
}

// TerminalOption configures the set built by NewTerminalSet.
type TerminalOption func(*terminalConfig)

type terminalConfig struct {
	plain bool
}

// WithPlain disables styling of the header and footer sections.
func WithPlain(plain bool) TerminalOption {
	return func(c *terminalConfig) {
		c.plain = plain
	}
}

// NewTerminalSet returns a Set whose three sinks share w. Writes from the
// three sinks are serialized.
func NewTerminalSet(w io.Writer, opts ...TerminalOption) Set {
	cfg := &terminalConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	mu := &sync.Mutex{}
	policy := bluemonday.StrictPolicy()
	newSink := func(style lipgloss.Style) *Terminal {
		t := &Terminal{mu: mu, w: w, policy: policy}
		if !cfg.plain {
			t.style = &style
		}
		return t
	}

	return Set{
		Header: newSink(HeaderStyle),
		Body:   &Terminal{mu: mu, w: w, policy: policy},
		Footer: newSink(FooterStyle),
	}
}

func (t *Terminal) AppendText(s string) error {
	return t.write(s)
}

func (t *Terminal) AppendMarkup(s string) error {
	return t.write(StripMarkup(t.policy, s))
}

func (t *Terminal) write(s string) error {
	if s == "" {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := io.WriteString(t.w, t.render(s))
	return err
}

// render styles each line on its own so lipgloss does not pad lines of a
// partial fragment to a common width.
func (t *Terminal) render(s string) string {
	if t.style == nil {
		return s
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = t.style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// StripMarkup removes every tag from s and decodes the remaining entities,
// leaving the text a browser would display.
func StripMarkup(policy *bluemonday.Policy, s string) string {
	if policy == nil {
		policy = bluemonday.StrictPolicy()
	}
	return html.UnescapeString(policy.Sanitize(s))
}
