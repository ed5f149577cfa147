package clickweb

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// FormID is the id of the command form on a click-web command page.
const FormID = "inputform"

// ErrNoForm is returned by ParseForm when the page has no command form.
var ErrNoForm = errors.New("no command form found")

// Field is one named input of a command form. Inputs sharing a name, like
// the hidden "off" value and the checkbox of a flag, are merged into one
// Field.
type Field struct {
	Key string

	// ID is the decoded key. It is nil for inputs that do not follow the
	// click-web naming scheme.
	ID *FieldID

	InputType string
	Value     string
	Checked   bool
	Required  bool

	// OffValue is the value of the hidden input paired with a checkbox. It is
	// always submitted, followed by Value when the box is checked.
	OffValue    string
	HasOffValue bool

	// Options holds the choices of a select input.
	Options []string
}

// Label returns the command line spelling when known, the raw key otherwise.
func (f Field) Label() string {
	if f.ID != nil {
		return f.ID.Name
	}
	return f.Key
}

// Form is a parsed command form.
type Form struct {
	Title  string
	Action string
	Fields []Field
}

// ParseForm reads a command page and extracts its form.
func ParseForm(r io.Reader) (*Form, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing command page: %w", err)
	}

	formNode := findNode(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "form" && getAttr(n, "id") == FormID
	})
	if formNode == nil {
		formNode = findNode(doc, func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.Data == "form"
		})
	}
	if formNode == nil {
		return nil, ErrNoForm
	}

	form := &Form{Action: getAttr(formNode, "action")}
	if title := findNode(doc, isHeading); title != nil {
		form.Title = strings.TrimSpace(textContent(title))
	}

	index := make(map[string]int)
	walk(formNode, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.Data {
		case "input", "textarea", "select":
			form.addInput(n, index)
		}
	})

	sort.SliceStable(form.Fields, func(i, j int) bool {
		a, b := form.Fields[i].ID, form.Fields[j].ID
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return a.Less(*b)
	})
	return form, nil
}

func (f *Form) addInput(n *html.Node, index map[string]int) {
	name := getAttr(n, "name")
	if name == "" {
		return
	}

	inputType := n.Data
	if n.Data == "input" {
		inputType = strings.ToLower(getAttr(n, "type"))
		if inputType == "" {
			inputType = "text"
		}
	}
	if inputType == "submit" || inputType == "button" {
		return
	}

	field := Field{
		Key:       name,
		InputType: inputType,
		Value:     getAttr(n, "value"),
		Checked:   hasAttr(n, "checked"),
		Required:  hasAttr(n, "required"),
	}
	switch n.Data {
	case "textarea":
		field.Value = textContent(n)
	case "select":
		field.Options, field.Value = selectOptions(n)
	}
	if id, err := ParseFieldID(name); err == nil {
		field.ID = &id
	}

	i, seen := index[name]
	if !seen {
		index[name] = len(f.Fields)
		f.Fields = append(f.Fields, field)
		return
	}

	// A flag renders as a hidden "off" input followed by the checkbox.
	existing := &f.Fields[i]
	switch {
	case existing.InputType == "hidden" && field.InputType == "checkbox":
		field.OffValue, field.HasOffValue = existing.Value, true
		*existing = field
	case existing.InputType == "checkbox" && field.InputType == "hidden":
		existing.OffValue, existing.HasOffValue = field.Value, true
	}
}

// Field returns the field matching name. name may be the raw key, the
// command line spelling ("--tag" or "tag") or an argument name.
func (f *Form) Field(name string) (*Field, bool) {
	want := strings.TrimPrefix(name, "--")
	for i := range f.Fields {
		field := &f.Fields[i]
		if field.Key == name {
			return field, true
		}
		if field.ID != nil && strings.TrimPrefix(field.ID.Name, "--") == want {
			return field, true
		}
	}
	return nil, false
}

// Values builds the request body for the form. assignments maps field names
// (as accepted by Field) to values. Fields without an assignment keep what a
// browser would submit for them untouched. Flags accept a boolean string.
// Variadic arguments take one value per line, as the web form does.
func (f *Form) Values(assignments map[string][]string) (url.Values, error) {
	assigned := make(map[string][]string, len(assignments))
	for name, vals := range assignments {
		field, ok := f.Field(name)
		if !ok {
			return nil, fmt.Errorf("unknown field %q", name)
		}
		if field.ID != nil && field.ID.IsFile() && field.InputType == "file" {
			return nil, fmt.Errorf("field %q: file uploads are not supported", name)
		}
		assigned[field.Key] = append(assigned[field.Key], vals...)
	}

	values := url.Values{}
	for _, field := range f.Fields {
		vals, ok := assigned[field.Key]

		switch field.InputType {
		case "checkbox":
			checked := field.Checked
			if ok {
				on, err := parseFlag(vals)
				if err != nil {
					return nil, fmt.Errorf("field %q: %w", field.Label(), err)
				}
				checked = on
			}
			if field.HasOffValue {
				values.Add(field.Key, field.OffValue)
			}
			if checked {
				on := field.Value
				if on == "" {
					on = "on"
				}
				values.Add(field.Key, on)
			}

		case "file":
			// Left out: the request is form-encoded.

		default:
			if !ok {
				values.Add(field.Key, field.Value)
				continue
			}
			if field.ID != nil && field.ID.IsVariadic() {
				values.Add(field.Key, strings.Join(vals, "\n"))
				continue
			}
			for _, v := range vals {
				values.Add(field.Key, v)
			}
		}
	}

	for _, field := range f.Fields {
		if field.Required && field.InputType != "file" && field.InputType != "checkbox" && strings.Join(values[field.Key], "") == "" {
			return nil, fmt.Errorf("field %q is required", field.Label())
		}
	}
	return values, nil
}

func parseFlag(vals []string) (bool, error) {
	if len(vals) == 0 {
		return true, nil
	}
	v := vals[len(vals)-1]
	if v == "" {
		return true, nil
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid flag value %q", v)
	}
	return on, nil
}

func selectOptions(n *html.Node) ([]string, string) {
	var (
		options  []string
		selected string
		found    bool
	)
	walk(n, func(c *html.Node) {
		if c.Type != html.ElementNode || c.Data != "option" {
			return
		}
		v, ok := attr(c, "value")
		if !ok {
			v = strings.TrimSpace(textContent(c))
		}
		options = append(options, v)
		if hasAttr(c, "selected") && !found {
			selected, found = v, true
		}
	})
	if !found && len(options) > 0 {
		selected = options[0]
	}
	return options, selected
}

func isHeading(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "h1", "h2", "h3":
		return true
	}
	return false
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func getAttr(n *html.Node, name string) string {
	v, _ := attr(n, name)
	return v
}

func hasAttr(n *html.Node, name string) bool {
	_, ok := attr(n, name)
	return ok
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}
