package runcmder

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/microcosm-cc/bluemonday"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/clickweb/pkg/clickweb"
	"github.com/papercomputeco/clickweb/pkg/cliui"
	"github.com/papercomputeco/clickweb/pkg/section"
	"github.com/papercomputeco/clickweb/pkg/session"
	"github.com/papercomputeco/clickweb/pkg/sink"
)

var (
	tuiTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	tuiMutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	tuiDividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	tuiOKStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	tuiFailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

const (
	minPaneHeight = 3
	chromeLines   = 5 // status line, three pane titles, help
)

type runKeyMap struct {
	Rerun key.Binding
	Up    key.Binding
	Down  key.Binding
	Quit  key.Binding
}

func (k runKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Rerun, k.Up, k.Down, k.Quit}
}

func (k runKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeyMap() runKeyMap {
	return runKeyMap{
		Rerun: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "run again")),
		Up:    key.NewBinding(key.WithKeys("k", "up", "pgup"), key.WithHelp("k", "scroll up")),
		Down:  key.NewBinding(key.WithKeys("j", "down", "pgdown"), key.WithHelp("j", "scroll down")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// fragmentMsg carries one routed write into the model. gen identifies the
// run it belongs to; fragments of a replaced run are dropped.
type fragmentMsg struct {
	gen      int
	section  section.Section
	mode     section.AppendMode
	fragment string
}

type runDoneMsg struct {
	gen     int
	err     error
	elapsed time.Duration
}

// sender delivers messages to the running program. It is shared by all
// copies of the model.
type sender struct {
	mu   sync.Mutex
	send func(bubbletea.Msg)
}

func (s *sender) Send(msg bubbletea.Msg) {
	s.mu.Lock()
	fn := s.send
	s.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

func (s *sender) set(fn func(bubbletea.Msg)) {
	s.mu.Lock()
	s.send = fn
	s.mu.Unlock()
}

type pane struct {
	title   string
	style   *lipgloss.Style
	content *strings.Builder
	view    viewport.Model
}

func newPane(title string, style *lipgloss.Style) pane {
	return pane{title: title, style: style, content: &strings.Builder{}, view: viewport.New(0, 0)}
}

func (p *pane) reset() {
	p.content.Reset()
	p.view.SetContent("")
	p.view.GotoTop()
}

func (p *pane) append(s string) {
	follow := p.view.AtBottom()
	p.content.WriteString(s)
	p.refresh()
	if follow {
		p.view.GotoBottom()
	}
}

func (p *pane) refresh() {
	content := p.content.String()
	if p.style != nil {
		lines := strings.Split(content, "\n")
		for i, line := range lines {
			if line != "" {
				lines[i] = p.style.Render(line)
			}
		}
		content = strings.Join(lines, "\n")
	}
	p.view.SetContent(content)
}

type runModel struct {
	ctx    context.Context
	client *clickweb.Client
	path   string
	values url.Values
	sender *sender
	policy *bluemonday.Policy

	panes   [3]pane // indexed by section.Section
	gen     int
	session *session.Session // run owned by gen
	running bool
	err     error
	elapsed time.Duration
	width   int
	height  int
	keys    runKeyMap
	help    help.Model
}

func runTUI(ctx context.Context, client *clickweb.Client, path string, values url.Values) error {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newRunModel(ctx, client, path, values)
	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)
	model.sender.set(program.Send)

	final, err := program.Run()
	if err != nil && !errors.Is(err, bubbletea.ErrProgramKilled) {
		return err
	}
	if m, ok := final.(runModel); ok && m.err != nil {
		return m.err
	}
	return nil
}

func newRunModel(ctx context.Context, client *clickweb.Client, path string, values url.Values) runModel {
	m := runModel{
		ctx:    ctx,
		client: client,
		path:   path,
		values: values,
		sender: &sender{},
		policy: bluemonday.StrictPolicy(),
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
	m.panes[section.Header] = newPane("header", &sink.HeaderStyle)
	m.panes[section.Body] = newPane("output", nil)
	m.panes[section.Footer] = newPane("footer", &sink.FooterStyle)
	m.begin()
	return m
}

func (m runModel) Init() bubbletea.Cmd {
	return m.runCmd()
}

// begin resets the panes for a new run. The run itself is started by the
// command returned from runCmd.
// begin takes over the client's session slot here, on the update loop, so
// that back to back reruns reserve it in key press order.
func (m *runModel) begin() {
	m.gen++
	m.session = m.client.Takeover(m.ctx)
	m.running = true
	m.err = nil
	for i := range m.panes {
		m.panes[i].reset()
	}
}

// runCmd runs the command in the background. Rerun cancels the run in flight
// if any.
func (m runModel) runCmd() bubbletea.Cmd {
	gen := m.gen
	sinks := sink.Set{
		Header: m.paneSink(gen, section.Header),
		Body:   m.paneSink(gen, section.Body),
		Footer: m.paneSink(gen, section.Footer),
	}
	client, s, path, values := m.client, m.session, m.path, m.values

	return func() bubbletea.Msg {
		start := time.Now()
		err := client.RunSession(s, path, values, sinks)
		return runDoneMsg{gen: gen, err: err, elapsed: time.Since(start)}
	}
}

func (m runModel) paneSink(gen int, s section.Section) sink.Func {
	send := m.sender
	return func(mode section.AppendMode, fragment string) error {
		send.Send(fragmentMsg{gen: gen, section: s, mode: mode, fragment: fragment})
		return nil
	}
}

func (m runModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil
	case fragmentMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		fragment := msg.fragment
		if msg.mode == section.Markup {
			fragment = sink.StripMarkup(m.policy, fragment)
		}
		m.panes[msg.section].append(fragment)
		return m, nil
	case runDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.running = false
		m.err = msg.err
		m.elapsed = msg.elapsed
		return m, nil
	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m runModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, bubbletea.Quit
	case key.Matches(msg, m.keys.Rerun):
		m.begin()
		return m, m.runCmd()
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		body := &m.panes[section.Body]
		var cmd bubbletea.Cmd
		body.view, cmd = body.view.Update(msg)
		return m, cmd
	}
	return m, nil
}

// layout gives header and footer a fifth of the screen each and the body
// the rest.
func (m *runModel) layout() {
	avail := max(m.height-chromeLines, 3*minPaneHeight)
	side := max(avail/5, minPaneHeight)
	heights := map[section.Section]int{
		section.Header: side,
		section.Footer: side,
		section.Body:   avail - 2*side,
	}
	for s, h := range heights {
		p := &m.panes[s]
		p.view.Width = m.width
		p.view.Height = h
		p.refresh()
	}
}

func (m runModel) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(m.statusLine(width))
	b.WriteString("\n")
	for _, s := range []section.Section{section.Header, section.Body, section.Footer} {
		p := m.panes[s]
		b.WriteString(paneTitle(width, p.title))
		b.WriteString("\n")
		b.WriteString(p.view.View())
		b.WriteString("\n")
	}
	b.WriteString(tuiMutedStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m runModel) statusLine(width int) string {
	var status string
	switch {
	case m.running:
		status = tuiMutedStyle.Render("running")
	case m.err != nil:
		status = tuiFailStyle.Render("failed: " + describeRunError(m.err))
	default:
		status = tuiOKStyle.Render("done in " + cliui.FormatDuration(m.elapsed))
	}
	line := fmt.Sprintf("%s %s", tuiTitleStyle.Render(m.path), status)
	return ansi.Truncate(line, width, "…")
}

func paneTitle(width int, title string) string {
	label := " " + title + " "
	fill := width - 2 - ansi.StringWidth(label)
	if fill < 0 {
		return ansi.Truncate(tuiDividerStyle.Render("──"+label), width, "")
	}
	return tuiDividerStyle.Render("──" + label + strings.Repeat("─", fill))
}
