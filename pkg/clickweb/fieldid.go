package clickweb

import (
	"fmt"
	"strconv"
	"strings"
)

const fieldIDParts = 7

// FieldID is the structured name click-web gives every form input:
//
//	[command_index].[param_index].[param_type].[click_type].[nargs].[form_type].[name]
//
// e.g. "0.0.option.text.1.text.--an-option". The name part may itself contain
// dots.
type FieldID struct {
	CommandIndex int
	ParamIndex   int

	// ParamType is "option", "flag" or "argument".
	ParamType string

	// ClickType is the click parameter type, e.g. "text", "int", "file[rb]".
	ClickType string

	// Nargs is the click nargs value. -1 marks a variadic argument.
	Nargs int

	// FormType is the HTML input type used for the field.
	FormType string

	// Name is the command line spelling, "--an-option" or "an-argument".
	Name string
}

// ParseFieldID decodes an encoded field name.
func ParseFieldID(key string) (FieldID, error) {
	parts := strings.SplitN(key, ".", fieldIDParts)
	if len(parts) != fieldIDParts {
		return FieldID{}, fmt.Errorf("field id %q: expected %d parts, got %d", key, fieldIDParts, len(parts))
	}

	cmdIdx, err := strconv.Atoi(parts[0])
	if err != nil {
		return FieldID{}, fmt.Errorf("field id %q: command index: %w", key, err)
	}
	paramIdx, err := strconv.Atoi(parts[1])
	if err != nil {
		return FieldID{}, fmt.Errorf("field id %q: param index: %w", key, err)
	}
	nargs, err := strconv.Atoi(parts[4])
	if err != nil {
		return FieldID{}, fmt.Errorf("field id %q: nargs: %w", key, err)
	}

	return FieldID{
		CommandIndex: cmdIdx,
		ParamIndex:   paramIdx,
		ParamType:    parts[2],
		ClickType:    parts[3],
		Nargs:        nargs,
		FormType:     parts[5],
		Name:         parts[6],
	}, nil
}

// String encodes the id back into its form field name.
func (id FieldID) String() string {
	return strings.Join([]string{
		strconv.Itoa(id.CommandIndex),
		strconv.Itoa(id.ParamIndex),
		id.ParamType,
		id.ClickType,
		strconv.Itoa(id.Nargs),
		id.FormType,
		id.Name,
	}, ".")
}

// IsOption reports whether the field is an option or a flag rather than a
// positional argument.
func (id FieldID) IsOption() bool {
	return strings.HasPrefix(id.Name, "--")
}

// IsFlag reports whether the field is a boolean flag.
func (id FieldID) IsFlag() bool {
	return id.ParamType == "flag"
}

// IsFile reports whether the field takes a file or folder upload.
func (id FieldID) IsFile() bool {
	return strings.HasPrefix(id.ClickType, "file") || strings.HasPrefix(id.ClickType, "path")
}

// IsVariadic reports whether the argument accepts any number of values.
func (id FieldID) IsVariadic() bool {
	return id.Nargs == -1
}

// Less orders fields the way the server builds the command line: by command
// index, then parameter index.
func (id FieldID) Less(other FieldID) bool {
	if id.CommandIndex != other.CommandIndex {
		return id.CommandIndex < other.CommandIndex
	}
	return id.ParamIndex < other.ParamIndex
}
