package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pdf-saas/orchestrator/internal/client"
	"github.com/pdf-saas/orchestrator/internal/config"
	"github.com/pdf-saas/orchestrator/internal/document"
	"github.com/pdf-saas/orchestrator/internal/service"
	"github.com/pdf-saas/orchestrator/internal/store"
	"github.com/pdf-saas/orchestrator/internal/store/model"
	"github.com/pdf-saas/orchestrator/pkg/migrations"
)

const modelAnswer = "```json\n" + `{
  "summary": "Photosynthesis turns light into sugar.",
  "key_points": ["chlorophyll absorbs light", "oxygen is released"],
  "mcq": [
    {"question": "Where does it happen?", "options": {"a": "chloroplast", "b": "nucleus"}, "answer": "a", "explanation": "Chloroplasts hold chlorophyll."}
  ]
}` + "\n```"

type fakeExtractor struct {
	calls   int
	pages   client.PageRange
	content string
	err     error
	delay   time.Duration
}

func (f *fakeExtractor) Extract(ctx context.Context, pages client.PageRange, filename string, data []byte) (string, error) {
	f.calls++
	f.pages = pages
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.content, f.err
}

type fakeSummarizer struct {
	calls   int
	content string
	answer  string
	err     error
	delay   time.Duration
}

func (f *fakeSummarizer) Summarize(ctx context.Context, content string) (string, error) {
	f.calls++
	f.content = content
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.answer, f.err
}

type fakeRenderer struct {
	calls    int
	jobID    string
	document []byte
	body     []byte
	err      error
}

func (f *fakeRenderer) Render(ctx context.Context, jobID string, document []byte) ([]byte, error) {
	f.calls++
	f.jobID = jobID
	f.document = document
	return f.body, f.err
}

type failingDocumentStore struct {
	store.DocumentStore
}

func (failingDocumentStore) Put(ctx context.Context, jobID uuid.UUID, data []byte) (string, error) {
	return "", errors.New("disk full")
}

var _ = Describe("pipeline service", Ordered, func() {
	var (
		s          store.Store
		documents  store.DocumentStore
		extractor  *fakeExtractor
		summarizer *fakeSummarizer
		renderer   *fakeRenderer
		cfg        service.PipelineConfig
		ctx        context.Context
	)

	newService := func() *service.PipelineService {
		return service.NewPipelineService(cfg, extractor, summarizer, renderer, s, documents)
	}

	submit := func() (*service.SubmitResult, error) {
		return newService().Submit(ctx, service.SubmitRequest{
			Pages:    client.PageRange{Start: 1, End: 3},
			Filename: "biology.pdf",
			Data:     []byte("%PDF-1.4"),
		})
	}

	lastJob := func() model.Job {
		jobs, err := s.Job().List(context.TODO(), store.NewJobQueryFilter(), store.NewJobQueryOptions().WithSortOrder(store.SortByCreatedTime))
		Expect(err).To(BeNil())
		Expect(jobs).NotTo(BeEmpty())
		return jobs[len(jobs)-1]
	}

	BeforeAll(func() {
		dbCfg := config.NewDefault()
		dbCfg.Database.Type = store.DBTypeSqlite
		dbCfg.Database.Name = filepath.Join(GinkgoT().TempDir(), "service.db")

		db, err := store.InitDB(dbCfg)
		Expect(err).To(BeNil())
		Expect(migrations.MigrateStore(db, store.DBTypeSqlite)).To(Succeed())
		s = store.NewStore(db)
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		var err error
		documents, err = store.NewFSDocumentStore(GinkgoT().TempDir())
		Expect(err).To(BeNil())

		extractor = &fakeExtractor{content: "Photosynthesis happens in chloroplasts."}
		summarizer = &fakeSummarizer{answer: modelAnswer}
		renderer = &fakeRenderer{body: []byte("%PDF-1.7 rendered")}
		cfg = service.PipelineConfig{
			ExtractTimeout:   time.Second,
			SummarizeTimeout: time.Second,
			RenderTimeout:    time.Second,
		}
		ctx = context.Background()
	})

	Context("submit", func() {
		It("runs every stage and persists the document", func() {
			result, err := submit()
			Expect(err).To(BeNil())
			Expect(result.Kind).To(Equal(document.KindStructured))
			Expect(extractor.calls).To(Equal(1))
			Expect(extractor.pages).To(Equal(client.PageRange{Start: 1, End: 3}))
			Expect(summarizer.calls).To(Equal(1))
			Expect(summarizer.content).To(Equal("Photosynthesis happens in chloroplasts."))

			data, err := documents.Get(ctx, result.JobID)
			Expect(err).To(BeNil())
			decoded, err := document.Decode(data)
			Expect(err).To(BeNil())
			Expect(decoded.Document.KeyPoints).To(Equal([]string{"chlorophyll absorbs light", "oxygen is released"}))

			job, err := s.Job().Get(ctx, result.JobID)
			Expect(err).To(BeNil())
			Expect(job.Stage).To(Equal(model.StagePersisted))
			Expect(job.Status).To(Equal(model.JobStatusSucceeded))
			Expect(*job.DocumentLocation).To(Equal(result.Location))
			Expect(*job.DocumentKind).To(Equal("structured"))
			Expect(job.FailedStage).To(BeNil())
		})

		It("persists a diagnostic when the model output is unrecoverable", func() {
			summarizer.answer = "Sorry, I cannot help with that."

			result, err := submit()
			Expect(err).To(BeNil())
			Expect(result.Kind).To(Equal(document.KindDiagnostic))

			data, err := documents.Get(ctx, result.JobID)
			Expect(err).To(BeNil())
			decoded, err := document.Decode(data)
			Expect(err).To(BeNil())
			Expect(decoded.Diagnostic.OriginalError).NotTo(BeEmpty())
			Expect(decoded.Diagnostic.RepairedText).To(Equal("Sorry, I cannot help with that."))
		})

		It("rejects an invalid page range without calling anyone", func() {
			_, err := newService().Submit(ctx, service.SubmitRequest{Pages: client.PageRange{Start: 5, End: 2}, Data: []byte("x")})
			Expect(err).NotTo(BeNil())

			var validationErr *service.ErrValidation
			Expect(errors.As(err, &validationErr)).To(BeTrue())
			Expect(extractor.calls).To(Equal(0))
		})

		It("rejects an empty upload", func() {
			_, err := newService().Submit(ctx, service.SubmitRequest{Pages: client.PageRange{Start: 1, End: 1}})

			var validationErr *service.ErrValidation
			Expect(errors.As(err, &validationErr)).To(BeTrue())
			Expect(extractor.calls).To(Equal(0))
		})

		It("stops after an extraction failure", func() {
			extractor.err = &client.ErrUpstreamStatus{Service: "extraction", StatusCode: 500}

			_, err := submit()
			Expect(err).NotTo(BeNil())

			var upstreamErr *service.ErrUpstreamFailure
			Expect(errors.As(err, &upstreamErr)).To(BeTrue())
			Expect(upstreamErr.Stage).To(Equal("extract"))
			Expect(summarizer.calls).To(Equal(0))

			job := lastJob()
			Expect(job.Status).To(Equal(model.JobStatusFailed))
			Expect(*job.FailedStage).To(Equal(model.FailedStageExtract))
			Expect(*job.Error).To(ContainSubstring("status 500"))
		})

		It("treats empty extracted text as an extraction failure", func() {
			extractor.content = "  \n "

			_, err := submit()

			var upstreamErr *service.ErrUpstreamFailure
			Expect(errors.As(err, &upstreamErr)).To(BeTrue())
			Expect(upstreamErr.Stage).To(Equal("extract"))
			Expect(summarizer.calls).To(Equal(0))
		})

		It("stops after a summarization failure and persists nothing", func() {
			summarizer.err = &client.ErrUpstreamStatus{Service: "summarization", StatusCode: 503}

			_, err := submit()

			var upstreamErr *service.ErrUpstreamFailure
			Expect(errors.As(err, &upstreamErr)).To(BeTrue())
			Expect(upstreamErr.Stage).To(Equal("summarize"))
			Expect(upstreamErr.Timeout()).To(BeFalse())

			job := lastJob()
			Expect(job.Stage).To(Equal(model.StageExtracted))
			_, err = documents.Get(ctx, job.ID)
			Expect(err).To(Equal(store.ErrRecordNotFound))
		})

		It("reports a summarization timeout", func() {
			summarizer.delay = time.Second
			cfg.SummarizeTimeout = 20 * time.Millisecond

			_, err := submit()

			var upstreamErr *service.ErrUpstreamFailure
			Expect(errors.As(err, &upstreamErr)).To(BeTrue())
			Expect(upstreamErr.Stage).To(Equal("summarize"))
			Expect(upstreamErr.Timeout()).To(BeTrue())
		})

		It("cancels the in-flight call when the caller goes away", func() {
			extractor.delay = 5 * time.Second
			cfg.ExtractTimeout = 10 * time.Second

			cctx, cancel := context.WithCancel(ctx)
			time.AfterFunc(20*time.Millisecond, cancel)
			ctx = cctx

			start := time.Now()
			_, err := submit()
			Expect(err).NotTo(BeNil())
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))

			job := lastJob()
			Expect(job.Status).To(Equal(model.JobStatusFailed))
		})

		It("fails the persist stage when the store refuses the write", func() {
			documents = failingDocumentStore{DocumentStore: documents}

			_, err := submit()

			var upstreamErr *service.ErrUpstreamFailure
			Expect(errors.As(err, &upstreamErr)).To(BeTrue())
			Expect(upstreamErr.Stage).To(Equal("persist"))
			Expect(*lastJob().FailedStage).To(Equal(model.FailedStagePersist))
		})

		It("records strict validation problems without failing", func() {
			cfg.StrictDocuments = true

			result, err := submit()
			Expect(err).To(BeNil())

			job, err := s.Job().Get(ctx, result.JobID)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusSucceeded))
			Expect(job.ValidationError).NotTo(BeNil())
			Expect(*job.ValidationError).To(ContainSubstring("exactly 10"))
		})
	})

	Context("render", func() {
		It("forwards the persisted document and returns the body unchanged", func() {
			result, err := submit()
			Expect(err).To(BeNil())
			persisted, err := documents.Get(ctx, result.JobID)
			Expect(err).To(BeNil())

			body, err := newService().Render(ctx, result.JobID.String())
			Expect(err).To(BeNil())
			Expect(body).To(Equal([]byte("%PDF-1.7 rendered")))
			Expect(renderer.jobID).To(Equal(result.JobID.String()))
			Expect(renderer.document).To(Equal(persisted))

			job, err := s.Job().Get(ctx, result.JobID)
			Expect(err).To(BeNil())
			Expect(job.Stage).To(Equal(model.StageRendered))
		})

		It("returns not found without calling the renderer", func() {
			_, err := newService().Render(ctx, uuid.NewString())

			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
			Expect(renderer.calls).To(Equal(0))
		})

		It("rejects a malformed id", func() {
			_, err := newService().Render(ctx, "../../etc/passwd")

			var validationErr *service.ErrValidation
			Expect(errors.As(err, &validationErr)).To(BeTrue())
			Expect(renderer.calls).To(Equal(0))
		})

		It("tolerates a document without a job row", func() {
			id := uuid.New()
			_, err := documents.Put(ctx, id, []byte(`{"summary":"s","key_points":[],"mcq":[]}`))
			Expect(err).To(BeNil())

			body, err := newService().Render(ctx, id.String())
			Expect(err).To(BeNil())
			Expect(body).NotTo(BeEmpty())
		})

		It("reports a renderer failure", func() {
			result, err := submit()
			Expect(err).To(BeNil())
			renderer.err = errors.New("connection refused")

			_, err = newService().Render(ctx, result.JobID.String())

			var upstreamErr *service.ErrUpstreamFailure
			Expect(errors.As(err, &upstreamErr)).To(BeTrue())
			Expect(upstreamErr.Stage).To(Equal("render"))
		})
	})

	Context("job queries", func() {
		It("returns the job", func() {
			result, err := submit()
			Expect(err).To(BeNil())

			job, err := newService().GetJob(ctx, result.JobID.String())
			Expect(err).To(BeNil())
			Expect(job.Filename).To(Equal("biology.pdf"))
		})

		It("returns not found for an unknown job", func() {
			_, err := newService().GetJob(ctx, uuid.NewString())

			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("lists failed jobs", func() {
			extractor.err = errors.New("boom")
			_, _ = submit()

			jobs, err := newService().ListJobs(ctx, service.JobFilter{Status: model.JobStatusFailed})
			Expect(err).To(BeNil())
			Expect(jobs).NotTo(BeEmpty())
			for _, j := range jobs {
				Expect(j.Status).To(Equal(model.JobStatusFailed))
			}
		})

		It("lists jobs by failed stage and stage", func() {
			summarizer.err = errors.New("model overloaded")
			_, _ = submit()
			_, _ = submit()

			jobs, err := newService().ListJobs(ctx, service.JobFilter{FailedStage: model.FailedStageSummarize})
			Expect(err).To(BeNil())
			Expect(len(jobs)).To(BeNumerically(">=", 2))
			for _, j := range jobs {
				Expect(*j.FailedStage).To(Equal(model.FailedStageSummarize))
				Expect(j.Stage).To(Equal(model.StageExtracted))
			}

			jobs, err = newService().ListJobs(ctx, service.JobFilter{Stage: model.StageExtracted, FailedStage: model.FailedStageSummarize, Limit: 1})
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
		})

		It("rejects the nil job id", func() {
			_, err := newService().GetJob(ctx, uuid.Nil.String())

			var validationErr *service.ErrValidation
			Expect(errors.As(err, &validationErr)).To(BeTrue())

			_, err = newService().GetDocument(ctx, uuid.Nil.String())
			Expect(errors.As(err, &validationErr)).To(BeTrue())
		})

		It("returns the persisted document", func() {
			result, err := submit()
			Expect(err).To(BeNil())

			data, err := newService().GetDocument(ctx, result.JobID.String())
			Expect(err).To(BeNil())
			Expect(strings.HasSuffix(string(data), "\n")).To(BeTrue())
		})
	})
})
