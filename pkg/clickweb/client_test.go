package clickweb_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/clickweb/pkg/clickweb"
	"github.com/papercomputeco/clickweb/pkg/logger"
	"github.com/papercomputeco/clickweb/pkg/section"
	"github.com/papercomputeco/clickweb/pkg/session"
	"github.com/papercomputeco/clickweb/pkg/sink"
)

// streamChunks writes each chunk and flushes so the client sees them as
// separate reads.
func streamChunks(w http.ResponseWriter, chunks ...string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	flusher, _ := w.(http.Flusher)
	for _, c := range chunks {
		fmt.Fprint(w, c)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		client   *clickweb.Client
		mu       sync.Mutex
		lastForm url.Values
		lastHdr  http.Header
		handler  http.HandlerFunc
	)

	BeforeEach(func() {
		lastForm, lastHdr = nil, nil
		handler = func(w http.ResponseWriter, r *http.Request) {
			streamChunks(w,
				"<!-- CLICK_WEB START HEADER -->\n<div class=\"command-line\">Executing: add</div>\n<!-- CLICK_WEB END HEADER -->",
				"note saved\n",
				"<!-- CLICK_WEB START FOOTER -->\n<b>DONE</b>\n<!-- CLICK_WEB END FOOTER -->",
			)
		}

		mux := http.NewServeMux()
		mux.HandleFunc("/cli/", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				if r.URL.Path != "/cli/add" {
					http.NotFound(w, r)
					return
				}
				fmt.Fprint(w, addFormPage)
			case http.MethodPost:
				_ = r.ParseForm()
				mu.Lock()
				lastForm = r.PostForm
				lastHdr = r.Header.Clone()
				mu.Unlock()
				handler(w, r)
			}
		})
		server = httptest.NewServer(mux)

		var err error
		client, err = clickweb.NewClient(server.URL, clickweb.WithLogger(logger.Nop()))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("NewClient", func() {
		It("requires scheme and host", func() {
			_, err := clickweb.NewClient("localhost:5000")
			Expect(err).To(HaveOccurred())
		})

		It("applies the timeout to a copy of a shared http client", func() {
			release := make(chan struct{})
			defer close(release)
			handler = func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-release:
				}
			}

			shared := &http.Client{}
			for _, opts := range [][]clickweb.Option{
				{clickweb.WithHTTPClient(shared), clickweb.WithTimeout(50 * time.Millisecond)},
				{clickweb.WithTimeout(50 * time.Millisecond), clickweb.WithHTTPClient(shared)},
			} {
				timed, err := clickweb.NewClient(server.URL, opts...)
				Expect(err).NotTo(HaveOccurred())

				set, _, _, _ := sink.NewRecorderSet()
				err = timed.Run(context.Background(), "add", nil, set)
				Expect(err).To(HaveOccurred())
				Expect(shared.Timeout).To(BeZero())
			}
		})
	})

	Describe("CommandURL", func() {
		It("builds the command page url", func() {
			u, err := client.CommandURL("/plugins/sync/")
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(Equal(server.URL + "/cli/plugins/sync"))
		})

		It("refuses omitted commands", func() {
			_, err := client.CommandURL("shell")
			Expect(err).To(MatchError(clickweb.ErrOmittedCommand))
		})

		It("refuses an empty path", func() {
			_, err := client.CommandURL("/")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("OpenCommand", func() {
		It("parses the command form", func() {
			form, err := client.OpenCommand(context.Background(), "add")
			Expect(err).NotTo(HaveOccurred())
			Expect(form.Title).To(Equal("add"))
			Expect(form.Fields).NotTo(BeEmpty())
		})

		It("returns a StatusError for unknown commands", func() {
			_, err := client.OpenCommand(context.Background(), "missing")

			var statusErr *clickweb.StatusError
			Expect(errors.As(err, &statusErr)).To(BeTrue())
			Expect(statusErr.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Run", func() {
		It("posts the form as plain-text request and routes the stream", func() {
			set, header, body, footer := sink.NewRecorderSet()
			values := url.Values{"0.0.argument.text.1.text.title": {"Hello"}}

			Expect(client.Run(context.Background(), "add", values, set)).To(Succeed())

			mu.Lock()
			Expect(lastForm.Get("0.0.argument.text.1.text.title")).To(Equal("Hello"))
			Expect(lastHdr.Get("Accept")).To(Equal("text/plain"))
			mu.Unlock()

			Expect(header.String()).To(ContainSubstring("Executing: add"))
			Expect(body.Calls()).To(Equal([]sink.Call{{Mode: section.Text, Fragment: "note saved\n"}}))
			Expect(footer.String()).To(ContainSubstring("<b>DONE</b>"))
			Expect(client.Busy()).To(BeFalse())
		})

		It("clears sinks from a previous run", func() {
			set, _, body, _ := sink.NewRecorderSet()
			Expect(client.Run(context.Background(), "add", nil, set)).To(Succeed())
			Expect(client.Run(context.Background(), "add", nil, set)).To(Succeed())
			Expect(body.String()).To(Equal("note saved\n"))
		})

		It("aborts on an unknown section", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				streamChunks(w, "out\n", "<!-- CLICK_WEB START SIDEBAR -->nav")
			}
			set, _, body, _ := sink.NewRecorderSet()

			err := client.Run(context.Background(), "add", nil, set)
			var unknown *section.UnknownSectionError
			Expect(errors.As(err, &unknown)).To(BeTrue())
			Expect(body.String()).To(Equal("out\n"))
			Expect(client.Busy()).To(BeFalse())
		})

		It("surfaces server errors and frees the session", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			}
			set, _, _, _ := sink.NewRecorderSet()

			err := client.Run(context.Background(), "add", nil, set)
			var statusErr *clickweb.StatusError
			Expect(errors.As(err, &statusErr)).To(BeTrue())
			Expect(statusErr.Error()).To(ContainSubstring("boom"))
			Expect(client.Busy()).To(BeFalse())
		})

		It("refuses a second run while one is in flight", func() {
			release := make(chan struct{})
			started := make(chan struct{})
			handler = func(w http.ResponseWriter, _ *http.Request) {
				streamChunks(w, "first\n")
				close(started)
				<-release
			}

			done := make(chan error, 1)
			go func() {
				set, _, _, _ := sink.NewRecorderSet()
				done <- client.Run(context.Background(), "add", nil, set)
			}()

			Eventually(started).Should(BeClosed())
			Expect(client.Busy()).To(BeTrue())

			set, _, _, _ := sink.NewRecorderSet()
			Expect(client.Run(context.Background(), "add", nil, set)).To(MatchError(session.ErrBusy))

			close(release)
			Eventually(done).Should(Receive(BeNil()))
		})

		It("cancels the running command on rerun", func() {
			release := make(chan struct{})
			defer close(release)
			started := make(chan struct{}, 2)
			calls := 0
			handler = func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				calls++
				first := calls == 1
				mu.Unlock()
				if !first {
					streamChunks(w, "second\n")
					return
				}
				streamChunks(w, "first\n")
				started <- struct{}{}
				select {
				case <-r.Context().Done():
				case <-release:
				}
			}

			done := make(chan error, 1)
			go func() {
				set, _, _, _ := sink.NewRecorderSet()
				done <- client.Run(context.Background(), "add", nil, set)
			}()
			Eventually(started).Should(Receive())

			set, _, body, _ := sink.NewRecorderSet()
			Expect(client.Rerun(context.Background(), "add", nil, set)).To(Succeed())
			Expect(body.String()).To(Equal("second\n"))

			Eventually(done, 5*time.Second).Should(Receive(HaveOccurred()))
			Expect(client.Busy()).To(BeFalse())
		})
	})

	Describe("RunSession", func() {
		It("runs within a session reserved by Takeover", func() {
			s := client.Takeover(context.Background())
			Expect(client.Busy()).To(BeTrue())

			set, _, body, _ := sink.NewRecorderSet()
			Expect(client.RunSession(s, "add", nil, set)).To(Succeed())
			Expect(body.String()).To(Equal("note saved\n"))
			Expect(client.Busy()).To(BeFalse())
		})

		It("does not post for a session taken over before it ran", func() {
			stale := client.Takeover(context.Background())
			latest := client.Takeover(context.Background())

			set, _, _, _ := sink.NewRecorderSet()
			Expect(client.RunSession(stale, "add", url.Values{"stale": {"1"}}, set)).To(MatchError(session.ErrTakenOver))
			mu.Lock()
			Expect(lastForm).To(BeNil())
			mu.Unlock()
			Expect(client.Busy()).To(BeTrue())

			Expect(client.RunSession(latest, "add", nil, set)).To(Succeed())
			Expect(client.Busy()).To(BeFalse())
		})
	})

	Describe("buffered mode", func() {
		It("renders the whole response into BODY as markup", func() {
			buffered, err := clickweb.NewClient(server.URL, clickweb.WithBuffered(true))
			Expect(err).NotTo(HaveOccurred())

			set, header, body, _ := sink.NewRecorderSet()
			Expect(buffered.Run(context.Background(), "add", nil, set)).To(Succeed())

			Expect(header.Calls()).To(BeEmpty())
			calls := body.Calls()
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].Mode).To(Equal(section.Markup))
			Expect(calls[0].Fragment).To(ContainSubstring("note saved"))
		})
	})

	Describe("Execute", func() {
		It("returns the raw body", func() {
			body, err := client.Execute(context.Background(), "add", nil)
			Expect(err).NotTo(HaveOccurred())
			defer body.Close()

			data, err := io.ReadAll(body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("CLICK_WEB START HEADER"))
		})
	})
})
