package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/papercomputeco/clickweb/pkg/sink"
)

// DefaultChunkSize is the largest chunk handed to the Router in one call.
const DefaultChunkSize = 32 * 1024

// Reader pulls chunks off a response body and routes them.
//
// ┌───────────────────┐   ┌─────────────┐   ┌────────┐   ┌─────────┐
// │ body io.Reader    │──▶│ UTF-8 decode│──▶│ Router │──▶│ []Write │
// └───────────────────┘   └─────────────┘   └────────┘   └─────────┘
//
// Every Read of the body becomes exactly one chunk, so a marker the server
// wrote whole reaches the Router whole. The only bytes held back are the
// leading bytes of a multi-byte character cut by the read; they are
// prepended to the next read. Chunks handed to the Router are therefore
// always valid UTF-8.
type Reader struct {
	src     io.Reader
	dec     transform.Transformer
	size    int
	buf     []byte
	dst     []byte
	pending []byte
	eof     bool
	router  *Router
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithChunkSize sets the read size. Values below 1 are ignored.
func WithChunkSize(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.size = n
		}
	}
}

// NewReader returns a Reader over src with a fresh Router.
func NewReader(src io.Reader, opts ...ReaderOption) *Reader {
	r := &Reader{
		src:    src,
		dec:    unicode.UTF8.NewDecoder(),
		size:   DefaultChunkSize,
		router: New(),
	}
	for _, opt := range opts {
		opt(r)
	}

	// Room for a carried partial character ahead of a full read. An invalid
	// byte decodes to a 3-byte U+FFFD, hence the larger output buffer.
	r.buf = make([]byte, r.size+utf8.UTFMax)
	r.dst = make([]byte, 3*len(r.buf))
	return r
}

// Router returns the Router driven by r.
func (r *Reader) Router() *Router {
	return r.router
}

// Next reads one chunk and returns its writes. The slice may be empty when
// the chunk held only markers. Next returns io.EOF once the body is
// exhausted. Routing errors are returned with the writes that preceded them.
func (r *Reader) Next() ([]Write, error) {
	for {
		if r.eof {
			return nil, io.EOF
		}

		k := copy(r.buf, r.pending)
		n, err := r.src.Read(r.buf[k : k+r.size])
		atEOF := errors.Is(err, io.EOF)
		if atEOF {
			r.eof = true
		}

		var writes []Write
		if n > 0 || (atEOF && k > 0) {
			chunk, decErr := r.decode(r.buf[:k+n], atEOF)
			if decErr != nil {
				return nil, fmt.Errorf("decoding response stream: %w", decErr)
			}
			if chunk != "" {
				var routeErr error
				writes, routeErr = r.router.Route(chunk)
				if routeErr != nil {
					return writes, routeErr
				}
			}
		}

		switch {
		case err != nil && !atEOF:
			return writes, fmt.Errorf("reading response stream: %w", err)
		case len(writes) > 0, n > 0:
			// EOF is surfaced on the following call so the last writes are
			// not mixed up with end of stream.
			return writes, nil
		case atEOF:
			return nil, io.EOF
		}
	}
}

// decode converts src to a string, keeping an incomplete trailing character
// in r.pending unless atEOF.
func (r *Reader) decode(src []byte, atEOF bool) (string, error) {
	var out strings.Builder
	for {
		nDst, nSrc, err := r.dec.Transform(r.dst, src, atEOF)
		out.Write(r.dst[:nDst])
		src = src[nSrc:]

		switch {
		case err == nil:
			r.pending = r.pending[:0]
			return out.String(), nil
		case errors.Is(err, transform.ErrShortSrc):
			r.pending = append(r.pending[:0], src...)
			return out.String(), nil
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				r.dst = make([]byte, 2*len(r.dst))
			}
		default:
			return out.String(), err
		}
	}
}

// Dispatch applies writes to sinks in order and stops at the first failure.
func Dispatch(sinks sink.Set, writes []Write) error {
	for _, w := range writes {
		if err := sinks.Append(w.Sink, w.Mode, w.Fragment); err != nil {
			return fmt.Errorf("appending to %s: %w", w.Sink, err)
		}
	}
	return nil
}

// Pump routes src into sinks until the stream ends. Each chunk is fully
// dispatched before the next one is read. Pump returns nil at end of stream,
// the routing error for a bad marker, the wrapped transport error, or the
// context error if ctx is cancelled between chunks. No finalization happens
// at end of stream: a section left open stays where it is.
func Pump(ctx context.Context, src io.Reader, sinks sink.Set, opts ...ReaderOption) error {
	r := NewReader(src, opts...)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		writes, err := r.Next()
		if dispatchErr := Dispatch(sinks, writes); dispatchErr != nil {
			return dispatchErr
		}

		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
	}
}
