package v1alpha1

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/pdf-saas/orchestrator/internal/handlers/validator"
	"github.com/pdf-saas/orchestrator/internal/service"
	"github.com/pdf-saas/orchestrator/internal/store/model"
)

// Pipeline is the part of the service layer the HTTP surface drives.
type Pipeline interface {
	Submit(ctx context.Context, req service.SubmitRequest) (*service.SubmitResult, error)
	Render(ctx context.Context, jobID string) ([]byte, error)
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, filter service.JobFilter) (model.JobList, error)
	GetDocument(ctx context.Context, jobID string) ([]byte, error)
}

type ServiceHandler struct {
	pipelineSrv    Pipeline
	validator      *validator.Validator
	maxUploadBytes int64
}

func NewServiceHandler(pipelineSrv Pipeline, maxUploadBytes int64) *ServiceHandler {
	v := validator.NewValidator()
	v.Register(validator.NewJobValidationRules()...)

	return &ServiceHandler{
		pipelineSrv:    pipelineSrv,
		validator:      v,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *ServiceHandler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.Health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/jobs/{start}/{end}", h.CreateJob)
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{id}", h.GetJob)
		r.Get("/jobs/{id}/document", h.GetJobDocument)
		r.Post("/render", h.RenderJob)
	})

	// routes kept for clients of the first release
	router.Post("/upload/{start}/{end}", h.UploadLegacy)
	router.Post("/generate", h.RenderJob)
}
