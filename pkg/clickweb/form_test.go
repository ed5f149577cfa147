package clickweb_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/clickweb/pkg/clickweb"
)

var _ = Describe("ParseForm", func() {
	var form *clickweb.Form

	BeforeEach(func() {
		var err error
		form, err = clickweb.ParseForm(strings.NewReader(addFormPage))
		Expect(err).NotTo(HaveOccurred())
	})

	It("reads title and action", func() {
		Expect(form.Title).To(Equal("add"))
		Expect(form.Action).To(Equal("/cli/add"))
	})

	It("orders fields by parameter index", func() {
		labels := make([]string, 0, len(form.Fields))
		for _, f := range form.Fields {
			labels = append(labels, f.Label())
		}
		Expect(labels).To(Equal([]string{"title", "--tag", "--force", "--format", "urls", "attachment"}))
	})

	It("merges the hidden and checkbox inputs of a flag", func() {
		f, ok := form.Field("--force")
		Expect(ok).To(BeTrue())
		Expect(f.InputType).To(Equal("checkbox"))
		Expect(f.Value).To(Equal("--force"))
		Expect(f.OffValue).To(Equal("--no-force"))
		Expect(f.HasOffValue).To(BeTrue())
	})

	It("reads select options and the selected value", func() {
		f, ok := form.Field("format")
		Expect(ok).To(BeTrue())
		Expect(f.Options).To(Equal([]string{"md", "html"}))
		Expect(f.Value).To(Equal("html"))
	})

	It("marks required fields", func() {
		f, ok := form.Field("title")
		Expect(ok).To(BeTrue())
		Expect(f.Required).To(BeTrue())
	})

	It("finds fields by raw key", func() {
		_, ok := form.Field("0.1.option.text.1.text.--tag")
		Expect(ok).To(BeTrue())
	})

	It("fails without a form", func() {
		_, err := clickweb.ParseForm(strings.NewReader("<html><body><p>nothing</p></body></html>"))
		Expect(err).To(MatchError(clickweb.ErrNoForm))
	})

	It("keeps inputs with foreign names", func() {
		f, err := clickweb.ParseForm(strings.NewReader(`<form><input name="csrf_token" type="hidden" value="abc"></form>`))
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Fields).To(HaveLen(1))
		Expect(f.Fields[0].ID).To(BeNil())
		Expect(f.Fields[0].Label()).To(Equal("csrf_token"))
	})
})

var _ = Describe("Form.Values", func() {
	var form *clickweb.Form

	BeforeEach(func() {
		var err error
		form, err = clickweb.ParseForm(strings.NewReader(addFormPage))
		Expect(err).NotTo(HaveOccurred())
	})

	It("submits defaults like a browser", func() {
		values, err := form.Values(map[string][]string{"title": {"Hello"}})
		Expect(err).NotTo(HaveOccurred())

		Expect(values["0.0.argument.text.1.text.title"]).To(Equal([]string{"Hello"}))
		Expect(values["0.1.option.text.1.text.--tag"]).To(Equal([]string{""}))
		Expect(values["0.2.flag.bool_flag.1.checkbox.--force"]).To(Equal([]string{"--no-force"}))
		Expect(values["0.3.option.choice.1.option.--format"]).To(Equal([]string{"html"}))
		Expect(values).NotTo(HaveKey("0.5.argument.file[rb].1.file.attachment"))
	})

	It("checks flags and repeats options", func() {
		values, err := form.Values(map[string][]string{
			"title":   {"Hello"},
			"--force": {"true"},
			"tag":     {"a", "b"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(values["0.2.flag.bool_flag.1.checkbox.--force"]).To(Equal([]string{"--no-force", "--force"}))
		Expect(values["0.1.option.text.1.text.--tag"]).To(Equal([]string{"a", "b"}))
	})

	It("joins variadic arguments one per line", func() {
		values, err := form.Values(map[string][]string{
			"title": {"Hello"},
			"urls":  {"https://a", "https://b"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(values["0.4.argument.text.-1.textarea.urls"]).To(Equal([]string{"https://a\nhttps://b"}))
	})

	It("requires required fields", func() {
		_, err := form.Values(nil)
		Expect(err).To(MatchError(ContainSubstring(`"title" is required`)))
	})

	It("rejects unknown fields", func() {
		_, err := form.Values(map[string][]string{"title": {"x"}, "--nope": {"1"}})
		Expect(err).To(MatchError(ContainSubstring("unknown field")))
	})

	It("rejects file uploads", func() {
		_, err := form.Values(map[string][]string{"title": {"x"}, "attachment": {"/tmp/a"}})
		Expect(err).To(MatchError(ContainSubstring("file uploads")))
	})

	It("rejects invalid flag values", func() {
		_, err := form.Values(map[string][]string{"title": {"x"}, "force": {"maybe"}})
		Expect(err).To(MatchError(ContainSubstring("invalid flag value")))
	})
})
