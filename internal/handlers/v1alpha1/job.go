package v1alpha1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/pdf-saas/orchestrator/internal/client"
	"github.com/pdf-saas/orchestrator/internal/handlers/validator"
	"github.com/pdf-saas/orchestrator/internal/service"
)

// multipart parts above this size are spooled to disk
const multipartMemory = 32 << 20

func (h *ServiceHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	result, ok := h.submit(w, r)
	if !ok {
		return
	}

	_ = render.Render(w, r, JobCreatedReply{
		JobID:                  result.JobID.String(),
		StoredDocumentLocation: result.Location,
		DocumentKind:           string(result.Kind),
	})
}

func (h *ServiceHandler) UploadLegacy(w http.ResponseWriter, r *http.Request) {
	result, ok := h.submit(w, r)
	if !ok {
		return
	}

	_ = render.Render(w, r, LegacyUploadReply{UID: result.JobID.String(), JSONFilePath: result.Location})
}

func (h *ServiceHandler) submit(w http.ResponseWriter, r *http.Request) (*service.SubmitResult, bool) {
	start, errStart := strconv.Atoi(chi.URLParam(r, "start"))
	end, errEnd := strconv.Atoi(chi.URLParam(r, "end"))
	if errStart != nil || errEnd != nil {
		_ = render.Render(w, r, newErrorReply(r, http.StatusBadRequest, "page range must be two integers"))
		return nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			_ = render.Render(w, r, newErrorReply(r, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", maxErr.Limit)))
			return nil, false
		}
		_ = render.Render(w, r, newErrorReply(r, http.StatusBadRequest, fmt.Sprintf("failed to read multipart form: %v", err)))
		return nil, false
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = render.Render(w, r, newErrorReply(r, http.StatusBadRequest, "file is required"))
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		_ = render.Render(w, r, newErrorReply(r, http.StatusBadRequest, fmt.Sprintf("failed to read file: %v", err)))
		return nil, false
	}

	form := validator.UploadForm{
		Pages:    validator.PageRange{Start: start, End: end},
		Filename: header.Filename,
		Size:     len(data),
	}
	if err := h.validator.Struct(form); err != nil {
		renderError(w, r, err)
		return nil, false
	}

	result, err := h.pipelineSrv.Submit(r.Context(), service.SubmitRequest{
		Pages:    client.PageRange{Start: start, End: end},
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		renderError(w, r, err)
		return nil, false
	}
	return result, true
}

type renderRequest struct {
	JobID string `json:"jobId"`
	UID   string `json:"uid"`
}

func (h *ServiceHandler) RenderJob(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		_ = render.Render(w, r, newErrorReply(r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err)))
		return
	}

	form := validator.RenderForm{JobID: req.JobID}
	if form.JobID == "" {
		form.JobID = req.UID
	}
	if err := h.validator.Struct(form); err != nil {
		renderError(w, r, err)
		return
	}

	body, err := h.pipelineSrv.Render(r.Context(), form.JobID)
	if err != nil {
		renderError(w, r, err)
		return
	}

	writeRaw(w, body)
}

func (h *ServiceHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.pipelineSrv.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	_ = render.Render(w, r, newJobReply(job))
}

func (h *ServiceHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || l < 0 {
			_ = render.Render(w, r, newErrorReply(r, http.StatusBadRequest, "limit must be a non negative integer"))
			return
		}
		limit = l
	}

	query := r.URL.Query()
	jobs, err := h.pipelineSrv.ListJobs(r.Context(), service.JobFilter{
		Status:      query.Get("status"),
		Stage:       query.Get("stage"),
		FailedStage: query.Get("failedStage"),
		Limit:       limit,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	reply := JobListReply{Jobs: make([]JobReply, 0, len(jobs))}
	for i := range jobs {
		reply.Jobs = append(reply.Jobs, newJobReply(&jobs[i]))
	}
	_ = render.Render(w, r, reply)
}

func (h *ServiceHandler) GetJobDocument(w http.ResponseWriter, r *http.Request) {
	data, err := h.pipelineSrv.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	writeRaw(w, data)
}

func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	_ = render.Render(w, r, HealthReply{Status: "ok"})
}

// writeRaw sends body untouched. JSON bodies are labelled as such, anything else is sniffed.
func writeRaw(w http.ResponseWriter, body []byte) {
	contentType := "application/json"
	if !json.Valid(body) {
		contentType = http.DetectContentType(body)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
