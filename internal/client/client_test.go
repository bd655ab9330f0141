package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pdf-saas/orchestrator/internal/client"
	"github.com/pdf-saas/orchestrator/pkg/requestid"
)

var _ = Describe("extraction client", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("uploads the file and returns the content", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/pdf/2/5"))
			Expect(r.Header.Get(requestid.Header)).To(Equal("req-1"))

			f, hdr, err := r.FormFile("file")
			Expect(err).To(BeNil())
			Expect(hdr.Filename).To(Equal("lecture.pdf"))
			data, _ := io.ReadAll(f)
			Expect(string(data)).To(Equal("%PDF-1.4"))

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(client.ExtractionResponse{Content: "page text"})
		}))
		defer server.Close()

		c := client.NewExtractionClient(server.URL, 5*time.Second)
		content, err := c.Extract(requestid.ToContext(ctx, "req-1"), client.PageRange{Start: 2, End: 5}, "lecture.pdf", []byte("%PDF-1.4"))
		Expect(err).To(BeNil())
		Expect(content).To(Equal("page text"))
	})

	It("returns an upstream status error on non-2xx", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("extractor exploded"))
		}))
		defer server.Close()

		c := client.NewExtractionClient(server.URL, 5*time.Second)
		_, err := c.Extract(ctx, client.PageRange{Start: 1, End: 1}, "a.pdf", []byte("x"))
		Expect(err).NotTo(BeNil())

		var statusErr *client.ErrUpstreamStatus
		Expect(errors.As(err, &statusErr)).To(BeTrue())
		Expect(statusErr.StatusCode).To(Equal(http.StatusInternalServerError))
		Expect(statusErr.Error()).To(ContainSubstring("extractor exploded"))
	})

	It("fails on an undecodable body", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		c := client.NewExtractionClient(server.URL, 5*time.Second)
		_, err := c.Extract(ctx, client.PageRange{Start: 1, End: 1}, "a.pdf", []byte("x"))
		Expect(err).NotTo(BeNil())
		Expect(err.Error()).To(ContainSubstring("decode"))
	})

	It("fails when the service is unreachable", func() {
		c := client.NewExtractionClient("http://127.0.0.1:1", time.Second)
		_, err := c.Extract(ctx, client.PageRange{Start: 1, End: 1}, "a.pdf", []byte("x"))
		Expect(err).NotTo(BeNil())
	})
})

var _ = Describe("summarization client", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("posts the content and returns the raw body", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/summarize"))
			Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))

			var req client.SummarizationRequest
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			Expect(req.Content).To(Equal("page text"))

			_, _ = w.Write([]byte("```json\n{\"summary\": \"s\"}\n```"))
		}))
		defer server.Close()

		c := client.NewSummarizationClient(server.URL, 5*time.Second)
		text, err := c.Summarize(ctx, "page text")
		Expect(err).To(BeNil())
		Expect(text).To(Equal("```json\n{\"summary\": \"s\"}\n```"))
	})

	It("unquotes a JSON string body", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode("{\"summary\": \"s\"}")
		}))
		defer server.Close()

		c := client.NewSummarizationClient(server.URL, 5*time.Second)
		text, err := c.Summarize(ctx, "page text")
		Expect(err).To(BeNil())
		Expect(text).To(Equal(`{"summary": "s"}`))
	})

	It("times out", func() {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		c := client.NewSummarizationClient(server.URL, 50*time.Millisecond)
		_, err := c.Summarize(ctx, "page text")
		Expect(err).NotTo(BeNil())
		Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
	})

	It("stops when the caller cancels", func() {
		started := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-r.Context().Done()
		}))
		defer server.Close()

		cctx, cancel := context.WithCancel(ctx)
		go func() {
			<-started
			cancel()
		}()

		c := client.NewSummarizationClient(server.URL, 10*time.Second)
		_, err := c.Summarize(cctx, "page text")
		Expect(err).NotTo(BeNil())
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})
})

var _ = Describe("rendering client", func() {
	It("sends the document as a named file with the uid field", func() {
		pdf := []byte("%PDF-1.7 rendered")
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/generate_pdf"))
			Expect(r.FormValue("uid")).To(Equal("job-1"))

			f, hdr, err := r.FormFile("file")
			Expect(err).To(BeNil())
			Expect(hdr.Filename).To(Equal("job-1.json"))
			Expect(hdr.Header.Get("Content-Type")).To(Equal("application/json"))
			data, _ := io.ReadAll(f)
			Expect(string(data)).To(Equal(`{"summary":"s"}`))

			_, _ = w.Write(pdf)
		}))
		defer server.Close()

		c := client.NewRenderingClient(server.URL, 5*time.Second)
		body, err := c.Render(context.Background(), "job-1", []byte(`{"summary":"s"}`))
		Expect(err).To(BeNil())
		Expect(body).To(Equal(pdf))
	})

	It("returns an upstream status error on non-2xx", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		c := client.NewRenderingClient(server.URL, 5*time.Second)
		_, err := c.Render(context.Background(), "job-1", []byte(`{}`))

		var statusErr *client.ErrUpstreamStatus
		Expect(errors.As(err, &statusErr)).To(BeTrue())
		Expect(statusErr.Service).To(Equal("rendering"))
	})

	It("fails instead of truncating an oversized response", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(make([]byte, 33<<20))
		}))
		defer server.Close()

		c := client.NewRenderingClient(server.URL, 30*time.Second)
		body, err := c.Render(context.Background(), "job-1", []byte(`{}`))
		Expect(body).To(BeNil())

		var sizeErr *client.ErrResponseTooLarge
		Expect(errors.As(err, &sizeErr)).To(BeTrue())
		Expect(sizeErr.Service).To(Equal("rendering"))
		Expect(sizeErr.Limit).To(Equal(32 << 20))
	})

	It("accepts a response of exactly the limit", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(make([]byte, 32<<20))
		}))
		defer server.Close()

		c := client.NewRenderingClient(server.URL, 30*time.Second)
		body, err := c.Render(context.Background(), "job-1", []byte(`{}`))
		Expect(err).To(BeNil())
		Expect(body).To(HaveLen(32 << 20))
	})
})
