package runcmder

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/clickweb/pkg/section"
)

const addFormPage = `<html><body>
<h2>add</h2>
<form id="inputform" method="post">
  <input type="text" name="0.0.argument.text.1.text.title" required>
  <input type="text" name="0.1.option.text.1.text.--tag" value="">
  <input type="hidden" name="0.2.flag.bool_flag.1.checkbox.--force" value="--no-force">
  <input type="checkbox" name="0.2.flag.bool_flag.1.checkbox.--force" value="--force">
</form>
</body></html>`

var addOutput = []string{
	"<!-- CLICK_WEB START HEADER -->\n<div class=\"command-line\">Executing: add</div>\n<!-- CLICK_WEB END HEADER -->",
	"note saved<br>",
	"<!-- CLICK_WEB START FOOTER -->\n<b>DONE</b>\n<!-- CLICK_WEB END FOOTER -->",
}

// producer is a click-web server for the "add" command.
type producer struct {
	mu     sync.Mutex
	posts  []url.Values
	chunks []string
}

func (p *producer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/cli/add", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, addFormPage)
			return
		}
		_ = r.ParseForm()

		p.mu.Lock()
		p.posts = append(p.posts, r.PostForm)
		chunks := p.chunks
		p.mu.Unlock()

		flusher, _ := w.(http.Flusher)
		for _, c := range chunks {
			fmt.Fprint(w, c)
			if flusher != nil {
				flusher.Flush()
			}
		}
	})
	return mux
}

func (p *producer) lastPost() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.posts) == 0 {
		return nil
	}
	return p.posts[len(p.posts)-1]
}

var _ = Describe("run command", func() {
	var (
		prod      *producer
		server    *httptest.Server
		configDir string
		stdout    *bytes.Buffer
		stderr    *bytes.Buffer
	)

	execute := func(args ...string) error {
		root := &cobra.Command{Use: "clickweb"}
		root.PersistentFlags().Bool("debug", false, "")
		root.PersistentFlags().String("config-dir", configDir, "")
		root.AddCommand(NewRunCmd())
		root.SetOut(stdout)
		root.SetErr(stderr)
		root.SetArgs(append([]string{"run", "--target", server.URL}, args...))
		return root.Execute()
	}

	BeforeEach(func() {
		prod = &producer{chunks: addOutput}
		server = httptest.NewServer(prod.handler())
		DeferCleanup(server.Close)

		var err error
		configDir, err = os.MkdirTemp("", "run-cmd-test-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { os.RemoveAll(configDir) })

		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
	})

	It("streams the sections to the terminal", func() {
		Expect(execute("add", "--field", "title=Reading list", "-F=--force")).To(Succeed())

		Expect(stdout.String()).To(Equal("\nExecuting: add\nnote saved\n\nDONE\n"))
		Expect(stderr.String()).To(ContainSubstring("finished in"))

		post := prod.lastPost()
		Expect(post.Get("0.0.argument.text.1.text.title")).To(Equal("Reading list"))
		Expect(post["0.2.flag.bool_flag.1.checkbox.--force"]).To(Equal([]string{"--no-force", "--force"}))
	})

	It("records the run and repeats it with --last", func() {
		Expect(execute("add", "--field", "title=First", "--field=--tag=books")).To(Succeed())

		data, err := os.ReadFile(filepath.Join(configDir, "last_run.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"command": "add"`))

		Expect(execute("--last", "--field", "title=Second")).To(Succeed())
		post := prod.lastPost()
		Expect(post.Get("0.0.argument.text.1.text.title")).To(Equal("Second"))
		Expect(post.Get("0.1.option.text.1.text.--tag")).To(Equal("books"))
	})

	It("writes an html document", func() {
		out := filepath.Join(configDir, "out.html")
		Expect(execute("add", "--field", "title=x", "--format", "html", "--html-path", out)).To(Succeed())

		data, err := os.ReadFile(out)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("Executing: add"))
		Expect(string(data)).To(ContainSubstring("note saved\n"))
		Expect(string(data)).To(ContainSubstring("<b>DONE</b>"))
		Expect(stdout.String()).To(BeEmpty())
	})

	It("reads everything at once when buffered", func() {
		Expect(execute("add", "--field", "title=x", "--buffered")).To(Succeed())
		Expect(stdout.String()).To(ContainSubstring("Executing: add"))
		Expect(stdout.String()).To(ContainSubstring("DONE"))
	})

	It("stops at an unknown section and keeps earlier output", func() {
		prod.chunks = []string{"partial\n<!-- CLICK_WEB START SIDEBAR -->ignored"}

		err := execute("add", "--field", "title=x")
		var unknown *section.UnknownSectionError
		Expect(errors.As(err, &unknown)).To(BeTrue())
		Expect(unknown.Section).To(Equal("SIDEBAR"))
		Expect(stdout.String()).To(Equal("partial\n"))
		Expect(stderr.String()).To(ContainSubstring(`unknown section "SIDEBAR"`))
	})

	It("rejects fields the form does not have", func() {
		err := execute("add", "--field", "title=x", "--field", "nope=1")
		Expect(err).To(MatchError(`unknown field "nope"`))
		Expect(prod.lastPost()).To(BeNil())
	})

	It("requires required fields", func() {
		Expect(execute("add")).To(MatchError(ContainSubstring(`field "title" is required`)))
	})

	It("needs a terminal for the tui", func() {
		err := execute("add", "--format", "tui")
		Expect(err).To(MatchError(ContainSubstring("interactive terminal")))
	})

	It("rejects unknown formats", func() {
		Expect(execute("add", "--format", "pdf")).To(MatchError(ContainSubstring(`invalid output format "pdf"`)))
	})

	It("fails --last when nothing was recorded", func() {
		Expect(execute("--last")).To(MatchError("no previous run recorded"))
	})

	It("writes JSON logs to --log-file", func() {
		logFile := filepath.Join(configDir, "run.log")
		Expect(execute("add", "--field", "title=x", "--log-file", logFile)).To(Succeed())

		data, err := os.ReadFile(logFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"msg":"posting command"`))
	})
})
