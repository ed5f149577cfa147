// Package section defines the closed vocabulary of the click-web output
// stream: the three output sections, the START/END phases of a section marker,
// and the append mode each section is rendered with.
package section

import "fmt"

// Section identifies one of the three output regions of a command run.
type Section int

const (
	// Body is the default section. Everything outside a START/END pair lands here.
	Body Section = iota
	Header
	Footer
)

func (s Section) String() string {
	switch s {
	case Header:
		return "HEADER"
	case Body:
		return "BODY"
	case Footer:
		return "FOOTER"
	default:
		return fmt.Sprintf("Section(%d)", int(s))
	}
}

// Phase is the START or END half of a section marker.
type Phase int

const (
	Start Phase = iota
	End
)

func (p Phase) String() string {
	switch p {
	case Start:
		return "START"
	case End:
		return "END"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// AppendMode selects how a fragment is appended to a sink.
type AppendMode int

const (
	// Text fragments are appended as escaped plain text.
	Text AppendMode = iota

	// Markup fragments are appended as raw markup.
	Markup
)

func (m AppendMode) String() string {
	switch m {
	case Text:
		return "text"
	case Markup:
		return "markup"
	default:
		return fmt.Sprintf("AppendMode(%d)", int(m))
	}
}

// State is the routing state carried from one chunk to the next.
type State struct {
	Sink Section
	Mode AppendMode
}

// Initial returns the state every stream starts in: BODY as plain text.
func Initial() State {
	return State{Sink: Body, Mode: Text}
}

func (s State) String() string {
	return s.Sink.String() + "/" + s.Mode.String()
}
