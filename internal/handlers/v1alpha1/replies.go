package v1alpha1

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/pdf-saas/orchestrator/internal/handlers/validator"
	"github.com/pdf-saas/orchestrator/internal/service"
	"github.com/pdf-saas/orchestrator/internal/store/model"
	"github.com/pdf-saas/orchestrator/pkg/middleware"
	"github.com/pdf-saas/orchestrator/pkg/requestid"
)

type JobCreatedReply struct {
	JobID                  string `json:"jobId"`
	StoredDocumentLocation string `json:"storedDocumentLocation"`
	DocumentKind           string `json:"documentKind"`
}

type LegacyUploadReply struct {
	UID          string `json:"uid"`
	JSONFilePath string `json:"json_file_path"`
}

type JobReply struct {
	ID               string    `json:"id"`
	Stage            string    `json:"stage"`
	Status           string    `json:"status"`
	FailedStage      *string   `json:"failedStage,omitempty"`
	Error            *string   `json:"error,omitempty"`
	DocumentKind     *string   `json:"documentKind,omitempty"`
	DocumentLocation *string   `json:"documentLocation,omitempty"`
	ValidationError  *string   `json:"validationError,omitempty"`
	StartPage        int       `json:"startPage"`
	EndPage          int       `json:"endPage"`
	Filename         string    `json:"filename"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type JobListReply struct {
	Jobs []JobReply `json:"jobs"`
}

type HealthReply struct {
	Status string `json:"status"`
}

type ErrorReply struct {
	Message   string `json:"message"`
	Stage     string `json:"stage,omitempty"`
	RequestID string `json:"requestId,omitempty"`

	status int
}

func (j JobCreatedReply) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, http.StatusCreated)
	return nil
}

func (l LegacyUploadReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (j JobReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (j JobListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (h HealthReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (e ErrorReply) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.status)
	return nil
}

func newJobReply(job *model.Job) JobReply {
	return JobReply{
		ID:               job.ID.String(),
		Stage:            job.Stage,
		Status:           job.Status,
		FailedStage:      job.FailedStage,
		Error:            job.Error,
		DocumentKind:     job.DocumentKind,
		DocumentLocation: job.DocumentLocation,
		ValidationError:  job.ValidationError,
		StartPage:        job.StartPage,
		EndPage:          job.EndPage,
		Filename:         job.Filename,
		CreatedAt:        job.CreatedAt,
		UpdatedAt:        job.UpdatedAt,
	}
}

func newErrorReply(r *http.Request, status int, message string) ErrorReply {
	return ErrorReply{Message: message, RequestID: requestid.FromRequest(r), status: status}
}

// renderError maps service errors to their status code.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	reply := newErrorReply(r, http.StatusInternalServerError, err.Error())

	var upstreamErr *service.ErrUpstreamFailure
	switch {
	case errors.As(err, new(*service.ErrValidation)), errors.As(err, new(*validator.ErrInvalidInput)):
		reply.status = http.StatusBadRequest
	case errors.As(err, new(*service.ErrResourceNotFound)):
		reply.status = http.StatusNotFound
	case errors.As(err, &upstreamErr):
		reply.status = http.StatusBadGateway
		if upstreamErr.Timeout() {
			reply.status = http.StatusGatewayTimeout
		}
		reply.Stage = upstreamErr.Stage
		w.Header().Set(middleware.FailedStageHeader, upstreamErr.Stage)
	}

	if reply.status >= http.StatusInternalServerError {
		zap.S().Named("handler").Errorw("request failed", "path", r.URL.Path, "request_id", reply.RequestID, "status", reply.status, "error", err)
	}
	_ = render.Render(w, r, reply)
}
