// Package router splits a streamed click-web command response into its
// HEADER, BODY and FOOTER sections.
//
// The server interleaves plain command output with small HTML blocks wrapped
// in section markers:
//
//	<!-- CLICK_WEB START HEADER -->
//	<div class="command-line">Executing: add</div>
//	<!-- CLICK_WEB END HEADER -->
//	...command output...
//	<!-- CLICK_WEB START FOOTER -->
//	<b>DONE</b>
//	<!-- CLICK_WEB END FOOTER -->
//
// A Router consumes the decoded chunks in arrival order and turns each one
// into a list of Writes. The current section survives chunk boundaries, so a
// section opened in one chunk keeps receiving text from the following ones.
//
// Markers are expected to arrive whole inside a single chunk. A marker cut in
// two by the transport is not reassembled; both halves are treated as text.
package router

import (
	"strings"

	"github.com/papercomputeco/clickweb/pkg/section"
)

// Write is a single fragment routed to a sink.
type Write struct {
	Sink     section.Section
	Fragment string
	Mode     section.AppendMode
}

// Router holds the section state of one streamed response. A Router must not
// be reused across responses.
type Router struct {
	state section.State
	err   error
}

// New returns a Router in the initial BODY/text state.
func New() *Router {
	return &Router{state: section.Initial()}
}

// State returns the section state that applies to the next chunk.
func (r *Router) State() section.State {
	return r.state
}

// Normalize replaces every "<br>" with a newline.
func Normalize(chunk string) string {
	return strings.ReplaceAll(chunk, "<br>", "\n")
}

// Route processes one chunk and returns the writes it produces, in stream
// order. Marker text is never part of a write and empty fragments are
// dropped.
//
// If the chunk contains a START marker for an unknown section, Route returns
// the writes that precede that marker together with an
// *section.UnknownSectionError. The router is then unusable: every later call
// returns the same error and no writes.
func (r *Router) Route(chunk string) ([]Write, error) {
	if r.err != nil {
		return nil, r.err
	}

	chunk = Normalize(chunk)
	if !section.Contains(chunk) {
		if chunk == "" {
			return nil, nil
		}
		return []Write{r.write(chunk)}, nil
	}

	var writes []Write
	for _, segment := range section.Split(chunk) {
		if m, ok := section.ParseMarker(segment); ok {
			next, err := section.Transition(m)
			if err != nil {
				r.err = err
				return writes, err
			}
			r.state = next
			continue
		}

		if segment != "" {
			writes = append(writes, r.write(segment))
		}
	}
	return writes, nil
}

func (r *Router) write(fragment string) Write {
	return Write{Sink: r.state.Sink, Fragment: fragment, Mode: r.state.Mode}
}
