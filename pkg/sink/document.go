package sink

import (
	"html"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/papercomputeco/clickweb/pkg/section"
)

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
#output { white-space: pre-wrap; font-family: monospace; }
</style>
</head>
<body>
<div id="output-header">{{.Header}}</div>
<div id="output">{{.Body}}</div>
<div id="output-footer">{{.Footer}}</div>
</body>
</html>
`))

// Document collects a run into a standalone HTML page with the same three
// regions the click-web command page uses. Text is escaped; markup is
// sanitized and inserted as-is.
type Document struct {
	mu      sync.Mutex
	title   string
	policy  *bluemonday.Policy
	regions map[section.Section]*strings.Builder
}

// NewDocument returns an empty Document.
func NewDocument(title string) *Document {
	return &Document{
		title:  title,
		policy: bluemonday.UGCPolicy(),
		regions: map[section.Section]*strings.Builder{
			section.Header: {},
			section.Body:   {},
			section.Footer: {},
		},
	}
}

// Set returns the sinks writing into the document's regions.
func (d *Document) Set() Set {
	return Set{
		Header: &documentRegion{doc: d, section: section.Header},
		Body:   &documentRegion{doc: d, section: section.Body},
		Footer: &documentRegion{doc: d, section: section.Footer},
	}
}

// Region returns the HTML accumulated so far for s.
func (d *Document) Region(s section.Section) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.regions[s]; ok {
		return b.String()
	}
	return ""
}

// Render writes the full page to w.
func (d *Document) Render(w io.Writer) error {
	data := struct {
		Title  string
		Header template.HTML
		Body   template.HTML
		Footer template.HTML
	}{
		Title: d.title,
		// #nosec G203 -- regions only hold escaped text and sanitized markup.
		Header: template.HTML(d.Region(section.Header)),
		Body:   template.HTML(d.Region(section.Body)),
		Footer: template.HTML(d.Region(section.Footer)),
	}
	return documentTemplate.Execute(w, data)
}

func (d *Document) append(s section.Section, fragment string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regions[s].WriteString(fragment)
}

func (d *Document) reset(s section.Section) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regions[s].Reset()
}

type documentRegion struct {
	doc     *Document
	section section.Section
}

func (r *documentRegion) AppendText(s string) error {
	r.doc.append(r.section, html.EscapeString(s))
	return nil
}

func (r *documentRegion) AppendMarkup(s string) error {
	r.doc.append(r.section, r.doc.policy.Sanitize(s))
	return nil
}

func (r *documentRegion) Reset() {
	r.doc.reset(r.section)
}
