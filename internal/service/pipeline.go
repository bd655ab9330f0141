package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdf-saas/orchestrator/internal/client"
	"github.com/pdf-saas/orchestrator/internal/document"
	"github.com/pdf-saas/orchestrator/internal/recovery"
	"github.com/pdf-saas/orchestrator/internal/store"
	"github.com/pdf-saas/orchestrator/internal/store/model"
	"github.com/pdf-saas/orchestrator/pkg/metrics"
	"github.com/pdf-saas/orchestrator/pkg/requestid"
)

type Extractor interface {
	Extract(ctx context.Context, pages client.PageRange, filename string, data []byte) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

type Renderer interface {
	Render(ctx context.Context, jobID string, document []byte) ([]byte, error)
}

// PipelineConfig bounds every collaborator call. A zero timeout leaves the call bounded only
// by the caller's context.
type PipelineConfig struct {
	ExtractTimeout   time.Duration
	SummarizeTimeout time.Duration
	PersistTimeout   time.Duration
	RenderTimeout    time.Duration
	StrictDocuments  bool
}

type SubmitRequest struct {
	Pages    client.PageRange
	Filename string
	Data     []byte
}

type SubmitResult struct {
	JobID    uuid.UUID
	Location string
	Kind     document.Kind
}

// PipelineService runs the submit and render flows. Each stage is called only after the
// previous one succeeded and the first failure ends the call.
type PipelineService struct {
	cfg        PipelineConfig
	extractor  Extractor
	summarizer Summarizer
	renderer   Renderer
	store      store.Store
	documents  store.DocumentStore
	log        *zap.SugaredLogger
}

func NewPipelineService(cfg PipelineConfig, extractor Extractor, summarizer Summarizer, renderer Renderer, s store.Store, documents store.DocumentStore) *PipelineService {
	return &PipelineService{
		cfg:        cfg,
		extractor:  extractor,
		summarizer: summarizer,
		renderer:   renderer,
		store:      s,
		documents:  documents,
		log:        zap.S().Named("pipeline_service"),
	}
}

func (p *PipelineService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if req.Pages.Start < 1 || req.Pages.End < req.Pages.Start {
		return nil, NewErrInvalidPageRange(req.Pages.Start, req.Pages.End)
	}
	if len(req.Data) == 0 {
		return nil, NewErrEmptyUpload()
	}

	job := model.NewJob(uuid.New(), req.Pages.Start, req.Pages.End, req.Filename)
	if id := requestid.FromContext(ctx); id != "" {
		job.RequestID = &id
	}
	if _, err := p.store.Job().Create(ctx, *job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	log := p.log.With("job_id", job.ID, "request_id", requestid.FromContext(ctx))
	log.Infow("job created", "start_page", req.Pages.Start, "end_page", req.Pages.End, "filename", req.Filename, "size", len(req.Data))

	content, err := runStage(ctx, log, model.FailedStageExtract, p.cfg.ExtractTimeout, func(ctx context.Context) (string, error) {
		content, err := p.extractor.Extract(ctx, req.Pages, req.Filename, req.Data)
		if err == nil && strings.TrimSpace(content) == "" {
			return "", errors.New("extraction returned no text")
		}
		return content, err
	})
	if err != nil {
		return nil, p.fail(ctx, job, model.FailedStageExtract, err)
	}
	p.advance(ctx, job, model.StageExtracted)

	raw, err := runStage(ctx, log, model.FailedStageSummarize, p.cfg.SummarizeTimeout, func(ctx context.Context) (string, error) {
		return p.summarizer.Summarize(ctx, content)
	})
	if err != nil {
		return nil, p.fail(ctx, job, model.FailedStageSummarize, err)
	}
	p.advance(ctx, job, model.StageSummarized)

	outcome := recovery.Recover(raw)
	metrics.IncreaseRecoveryTierMetric(string(outcome.Tier))
	if outcome.Err != nil {
		log.Warnw("model output could not be recovered", "tier", outcome.Tier, "error", outcome.Err)
	} else {
		log.Infow("model output recovered", "tier", outcome.Tier)
	}

	if p.cfg.StrictDocuments && outcome.Result.Document != nil {
		if err := document.Validate(*outcome.Result.Document); err != nil {
			log.Warnw("document failed strict validation", "error", err)
			reason := err.Error()
			job.ValidationError = &reason
		}
	}

	data, err := outcome.Result.Encode()
	if err != nil {
		return nil, p.fail(ctx, job, model.FailedStagePersist, err)
	}

	location, err := runStage(ctx, log, model.FailedStagePersist, p.cfg.PersistTimeout, func(ctx context.Context) (string, error) {
		return p.documents.Put(ctx, job.ID, data)
	})
	if err != nil {
		return nil, p.fail(ctx, job, model.FailedStagePersist, err)
	}

	kind := string(outcome.Result.Kind())
	job.Stage = model.StagePersisted
	job.Status = model.JobStatusSucceeded
	job.DocumentKind = &kind
	job.DocumentLocation = &location
	p.save(ctx, job)

	log.Infow("job persisted", "location", location, "kind", kind)
	return &SubmitResult{JobID: job.ID, Location: location, Kind: outcome.Result.Kind()}, nil
}

// Render sends the persisted document of a job to the rendering service and returns its
// answer unchanged.
func (p *PipelineService) Render(ctx context.Context, jobID string) ([]byte, error) {
	id, err := parseJobID(jobID)
	if err != nil {
		return nil, err
	}

	data, err := p.GetDocument(ctx, jobID)
	if err != nil {
		return nil, err
	}

	log := p.log.With("job_id", id, "request_id", requestid.FromContext(ctx))
	body, err := runStage(ctx, log, model.FailedStageRender, p.cfg.RenderTimeout, func(ctx context.Context) ([]byte, error) {
		return p.renderer.Render(ctx, id.String(), data)
	})
	if err != nil {
		return nil, NewErrUpstreamFailure(model.FailedStageRender, err)
	}

	p.markRendered(context.WithoutCancel(ctx), id)
	log.Infow("job rendered", "size", len(body))
	return body, nil
}

func (p *PipelineService) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	id, err := parseJobID(jobID)
	if err != nil {
		return nil, err
	}

	job, err := p.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// JobFilter narrows ListJobs. Empty fields match every job and a zero Limit is no cap.
type JobFilter struct {
	Status      string
	Stage       string
	FailedStage string
	Limit       int
}

// ListJobs returns jobs oldest first.
func (p *PipelineService) ListJobs(ctx context.Context, filter JobFilter) (model.JobList, error) {
	qf := store.NewJobQueryFilter()
	if filter.Status != "" {
		qf = qf.ByStatus(filter.Status)
	}
	if filter.Stage != "" {
		qf = qf.ByStage(filter.Stage)
	}
	if filter.FailedStage != "" {
		qf = qf.ByFailedStage(filter.FailedStage)
	}
	opts := store.NewJobQueryOptions().WithSortOrder(store.SortByCreatedTime)
	if filter.Limit > 0 {
		opts = opts.WithLimit(filter.Limit)
	}

	jobs, err := p.store.Job().List(ctx, qf, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// GetDocument returns the persisted record of a job byte for byte.
func (p *PipelineService) GetDocument(ctx context.Context, jobID string) ([]byte, error) {
	id, err := parseJobID(jobID)
	if err != nil {
		return nil, err
	}

	data, err := p.documents.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrDocumentNotFound(id)
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return data, nil
}

func parseJobID(jobID string) (uuid.UUID, error) {
	id, err := uuid.Parse(jobID)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, NewErrInvalidJobID(jobID)
	}
	return id, nil
}

func runStage[T any](ctx context.Context, log *zap.SugaredLogger, stage string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	v, err := fn(ctx)
	elapsed := time.Since(start)
	metrics.ObserveStage(stage, elapsed, err)

	if err != nil {
		log.Errorw("stage failed", "stage", stage, "elapsed", elapsed, "error", err)
	} else {
		log.Debugw("stage completed", "stage", stage, "elapsed", elapsed)
	}
	return v, err
}

func (p *PipelineService) advance(ctx context.Context, job *model.Job, stage string) {
	job.Stage = stage
	p.save(ctx, job)
}

func (p *PipelineService) fail(ctx context.Context, job *model.Job, stage string, cause error) error {
	upstreamErr := NewErrUpstreamFailure(stage, cause)

	msg := upstreamErr.Error()
	job.Status = model.JobStatusFailed
	job.FailedStage = &stage
	job.Error = &msg
	p.save(ctx, job)

	return upstreamErr
}

// save records the job row. The row is bookkeeping only, so a failure is logged and the
// pipeline goes on.
func (p *PipelineService) save(ctx context.Context, job *model.Job) {
	if _, err := p.store.Job().Update(context.WithoutCancel(ctx), *job); err != nil {
		p.log.Errorw("failed to update job", "job_id", job.ID, "stage", job.Stage, "status", job.Status, "error", err)
	}
}

func (p *PipelineService) markRendered(ctx context.Context, id uuid.UUID) {
	ctx, err := p.store.NewTransactionContext(ctx)
	if err != nil {
		p.log.Errorw("failed to start transaction", "job_id", id, "error", err)
		return
	}

	job, err := p.store.Job().Get(ctx, id)
	if err != nil {
		_, _ = store.Rollback(ctx)
		if !errors.Is(err, store.ErrRecordNotFound) {
			p.log.Errorw("failed to load job", "job_id", id, "error", err)
		}
		return
	}

	job.Stage = model.StageRendered
	if _, err := p.store.Job().Update(ctx, *job); err != nil {
		_, _ = store.Rollback(ctx)
		p.log.Errorw("failed to update job", "job_id", id, "error", err)
		return
	}

	if _, err := store.Commit(ctx); err != nil {
		p.log.Errorw("failed to commit job update", "job_id", id, "error", err)
	}
}
