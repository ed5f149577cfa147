// Package sink provides the output destinations a command run is rendered
// into. A run has three sinks, one per section, and each sink accepts
// fragments either as escaped text or as raw markup. Fragments are always
// appended; nothing ever replaces content already written.
package sink

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/papercomputeco/clickweb/pkg/section"
)

// Sink is an append-only output region.
type Sink interface {
	// AppendText appends s as plain text. Any markup in s is shown literally.
	AppendText(s string) error

	// AppendMarkup appends s as markup.
	AppendMarkup(s string) error
}

// Resetter is implemented by sinks that can drop their content before a new
// run starts.
type Resetter interface {
	Reset()
}

// Set groups the three sinks of a run.
type Set struct {
	Header Sink
	Body   Sink
	Footer Sink
}

// For returns the sink for s.
func (set Set) For(s section.Section) (Sink, error) {
	var out Sink
	switch s {
	case section.Header:
		out = set.Header
	case section.Body:
		out = set.Body
	case section.Footer:
		out = set.Footer
	}
	if out == nil {
		return nil, fmt.Errorf("no sink configured for %s", s)
	}
	return out, nil
}

// Append routes fragment to the sink for s using mode.
func (set Set) Append(s section.Section, mode section.AppendMode, fragment string) error {
	dst, err := set.For(s)
	if err != nil {
		return err
	}

	switch mode {
	case section.Markup:
		return dst.AppendMarkup(fragment)
	default:
		return dst.AppendText(fragment)
	}
}

// Reset clears every sink in the set that supports it. Sinks shared between
// sections are only reset once.
func (set Set) Reset() {
	seen := make([]Resetter, 0, 3)
	for _, s := range []Sink{set.Header, set.Body, set.Footer} {
		r, ok := s.(Resetter)
		if !ok || slices.ContainsFunc(seen, func(prev Resetter) bool { return sameResetter(prev, r) }) {
			continue
		}
		seen = append(seen, r)
		r.Reset()
	}
}

// sameResetter reports whether a and b are the same sink. Values of
// non-comparable types are never the same.
func sameResetter(a, b Resetter) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// Func adapts a callback into a Sink. The callback receives the append mode
// along with the fragment.
type Func func(mode section.AppendMode, fragment string) error

func (f Func) AppendText(s string) error {
	return f(section.Text, s)
}

func (f Func) AppendMarkup(s string) error {
	return f(section.Markup, s)
}
