package section

import (
	"regexp"
	"strings"
)

// MarkerPrefix is the fixed opening of every section marker. A chunk that does
// not contain it cannot contain a marker.
const MarkerPrefix = "<!-- CLICK_WEB"

// markerPattern matches a complete marker. The capture group lets Split keep
// the marker text between the surrounding segments.
var markerPattern = regexp.MustCompile(`<!-- CLICK_WEB ([A-Z]+) ([A-Z]+) -->`)

// Marker is a decoded section delimiter.
type Marker struct {
	// Section is the raw section token. It is kept as written so that an
	// unrecognized section can be reported verbatim.
	Section string
	Phase   Phase

	// Raw is the full marker text as it appeared in the stream.
	Raw string
}

// ParseMarker decodes a complete marker token. Both word orders are accepted:
// "<!-- CLICK_WEB HEADER START -->" and "<!-- CLICK_WEB START HEADER -->".
// The second bool is false when raw is not a marker at all, in which case it
// must be treated as ordinary content.
func ParseMarker(raw string) (Marker, bool) {
	m := markerPattern.FindStringSubmatch(raw)
	if m == nil || m[0] != raw {
		return Marker{}, false
	}

	first, second := m[1], m[2]
	if p, ok := parsePhase(second); ok {
		return Marker{Section: first, Phase: p, Raw: raw}, true
	}
	if p, ok := parsePhase(first); ok {
		return Marker{Section: second, Phase: p, Raw: raw}, true
	}
	return Marker{}, false
}

func parsePhase(word string) (Phase, bool) {
	switch word {
	case "START":
		return Start, true
	case "END":
		return End, true
	default:
		return 0, false
	}
}

// Contains reports whether chunk holds the marker prefix. It is a cheap
// pre-check before Split.
func Contains(chunk string) bool {
	return strings.Contains(chunk, MarkerPrefix)
}

// Split cuts chunk into alternating text and marker segments:
// [text, marker, text, ..., marker, text]. Text segments may be empty.
// Concatenating the result gives chunk back.
func Split(chunk string) []string {
	locs := markerPattern.FindAllStringIndex(chunk, -1)
	segments := make([]string, 0, 2*len(locs)+1)

	last := 0
	for _, loc := range locs {
		segments = append(segments, chunk[last:loc[0]], chunk[loc[0]:loc[1]])
		last = loc[1]
	}
	return append(segments, chunk[last:])
}

// Transition returns the state a marker moves the stream into.
// A START marker naming anything but HEADER or FOOTER is fatal for the stream
// and yields an *UnknownSectionError.
func Transition(m Marker) (State, error) {
	if m.Phase == End {
		return Initial(), nil
	}

	switch m.Section {
	case "HEADER":
		return State{Sink: Header, Mode: Markup}, nil
	case "FOOTER":
		return State{Sink: Footer, Mode: Markup}, nil
	default:
		return State{}, &UnknownSectionError{Section: m.Section, Marker: m.Raw}
	}
}
