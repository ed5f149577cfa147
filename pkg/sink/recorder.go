package sink

import (
	"strings"
	"sync"

	"github.com/papercomputeco/clickweb/pkg/section"
)

// Call is a single recorded append.
type Call struct {
	Mode     section.AppendMode
	Fragment string
}

// Recorder keeps every append in order. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// NewRecorderSet returns a Set backed by three independent recorders.
func NewRecorderSet() (Set, *Recorder, *Recorder, *Recorder) {
	h, b, f := NewRecorder(), NewRecorder(), NewRecorder()
	return Set{Header: h, Body: b, Footer: f}, h, b, f
}

func (r *Recorder) AppendText(s string) error {
	r.record(section.Text, s)
	return nil
}

func (r *Recorder) AppendMarkup(s string) error {
	r.record(section.Markup, s)
	return nil
}

func (r *Recorder) record(mode section.AppendMode, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Mode: mode, Fragment: s})
}

// Calls returns a copy of the recorded appends.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// String concatenates every recorded fragment regardless of mode.
func (r *Recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var b strings.Builder
	for _, c := range r.calls {
		b.WriteString(c.Fragment)
	}
	return b.String()
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
