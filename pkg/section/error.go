package section

import "fmt"

// UnknownSectionError is returned when a START marker names a section other
// than HEADER or FOOTER. It aborts the stream it occurred in.
type UnknownSectionError struct {
	Section string
	Marker  string
}

func (e *UnknownSectionError) Error() string {
	return fmt.Sprintf("unknown section %q in marker %q", e.Section, e.Marker)
}
