package section_test

import (
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/clickweb/pkg/section"
)

var _ = Describe("ParseMarker", func() {
	It("decodes SECTION PHASE order", func() {
		m, ok := section.ParseMarker("<!-- CLICK_WEB HEADER START -->")
		Expect(ok).To(BeTrue())
		Expect(m.Section).To(Equal("HEADER"))
		Expect(m.Phase).To(Equal(section.Start))
		Expect(m.Raw).To(Equal("<!-- CLICK_WEB HEADER START -->"))
	})

	It("decodes PHASE SECTION order as the server emits it", func() {
		m, ok := section.ParseMarker("<!-- CLICK_WEB END FOOTER -->")
		Expect(ok).To(BeTrue())
		Expect(m.Section).To(Equal("FOOTER"))
		Expect(m.Phase).To(Equal(section.End))
	})

	It("keeps an unknown section token", func() {
		m, ok := section.ParseMarker("<!-- CLICK_WEB SIDEBAR START -->")
		Expect(ok).To(BeTrue())
		Expect(m.Section).To(Equal("SIDEBAR"))
	})

	It("rejects a token pair without a phase", func() {
		_, ok := section.ParseMarker("<!-- CLICK_WEB HEADER FOOTER -->")
		Expect(ok).To(BeFalse())
	})

	It("rejects text that is not exactly one marker", func() {
		_, ok := section.ParseMarker("x<!-- CLICK_WEB HEADER START -->")
		Expect(ok).To(BeFalse())

		_, ok = section.ParseMarker("<!-- CLICK_WEB header start -->")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Split", func() {
	It("returns the chunk alone when there is no marker", func() {
		Expect(section.Split("plain text")).To(Equal([]string{"plain text"}))
	})

	It("alternates text and marker segments", func() {
		chunk := "a<!-- CLICK_WEB HEADER START -->b<!-- CLICK_WEB HEADER END -->c"
		Expect(section.Split(chunk)).To(Equal([]string{
			"a",
			"<!-- CLICK_WEB HEADER START -->",
			"b",
			"<!-- CLICK_WEB HEADER END -->",
			"c",
		}))
	})

	It("keeps empty text segments between adjacent markers", func() {
		chunk := "<!-- CLICK_WEB FOOTER START --><!-- CLICK_WEB FOOTER END -->"
		Expect(section.Split(chunk)).To(Equal([]string{
			"",
			"<!-- CLICK_WEB FOOTER START -->",
			"",
			"<!-- CLICK_WEB FOOTER END -->",
			"",
		}))
	})

	It("reassembles to the original chunk", func() {
		chunk := "x<!-- CLICK_WEB START HEADER -->\n<div>y</div>\n<!-- CLICK_WEB END HEADER -->z"
		Expect(strings.Join(section.Split(chunk), "")).To(Equal(chunk))
	})
})

var _ = Describe("Transition", func() {
	DescribeTable("maps markers to states",
		func(raw string, want section.State) {
			m, ok := section.ParseMarker(raw)
			Expect(ok).To(BeTrue())

			got, err := section.Transition(m)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("header start", "<!-- CLICK_WEB HEADER START -->", section.State{Sink: section.Header, Mode: section.Markup}),
		Entry("footer start", "<!-- CLICK_WEB FOOTER START -->", section.State{Sink: section.Footer, Mode: section.Markup}),
		Entry("header end", "<!-- CLICK_WEB HEADER END -->", section.Initial()),
		Entry("end of an unknown section", "<!-- CLICK_WEB SIDEBAR END -->", section.Initial()),
	)

	It("fails closed on an unknown START section", func() {
		m, _ := section.ParseMarker("<!-- CLICK_WEB SIDEBAR START -->")
		_, err := section.Transition(m)

		var unknown *section.UnknownSectionError
		Expect(errors.As(err, &unknown)).To(BeTrue())
		Expect(unknown.Section).To(Equal("SIDEBAR"))
		Expect(err.Error()).To(ContainSubstring("SIDEBAR"))
	})

	It("treats BODY START as unknown", func() {
		m, _ := section.ParseMarker("<!-- CLICK_WEB BODY START -->")
		_, err := section.Transition(m)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("State", func() {
	It("starts in BODY as text", func() {
		Expect(section.Initial()).To(Equal(section.State{Sink: section.Body, Mode: section.Text}))
		Expect(section.Initial().String()).To(Equal("BODY/text"))
	})
})
