package dotdir_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/clickweb/pkg/dotdir"
)

var _ = Describe("dotdir.Manager last run", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadLastRun", func() {
		It("returns nil when nothing was recorded", func() {
			run, err := m.LoadLastRun(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(run).To(BeNil())
		})

		It("loads a recorded run", func() {
			data := `{"command":"add","fields":{"title":["Hello"]},"target":"http://localhost:5000"}`
			Expect(os.WriteFile(filepath.Join(tmpDir, "last_run.json"), []byte(data), 0o600)).To(Succeed())

			run, err := m.LoadLastRun(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(run.Command).To(Equal("add"))
			Expect(run.Fields).To(HaveKeyWithValue("title", []string{"Hello"}))
			Expect(run.Target).To(Equal("http://localhost:5000"))
		})

		It("returns an error for invalid JSON", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "last_run.json"), []byte("not json"), 0o600)).To(Succeed())

			run, err := m.LoadLastRun(tmpDir)
			Expect(err).To(HaveOccurred())
			Expect(run).To(BeNil())
		})
	})

	Describe("SaveLastRun", func() {
		It("round-trips through the file", func() {
			now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
			in := &dotdir.LastRun{
				Command:     "plugins/sync",
				Fields:      map[string][]string{"--force": {"true"}},
				Target:      "http://localhost:5000",
				SubmittedAt: now,
			}
			Expect(m.SaveLastRun(in, tmpDir)).To(Succeed())

			out, err := m.LoadLastRun(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Command).To(Equal(in.Command))
			Expect(out.Fields).To(Equal(in.Fields))
			Expect(out.SubmittedAt.Equal(now)).To(BeTrue())
		})

		It("rejects nil", func() {
			Expect(m.SaveLastRun(nil, tmpDir)).To(HaveOccurred())
		})
	})
})
