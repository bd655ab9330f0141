package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/pdf-saas/orchestrator/pkg/requestid"
)

// maxResponseBytes bounds what a collaborator may send back.
const maxResponseBytes = 32 << 20

// collaborator holds what every outbound client shares: a base URL, a per-call timeout and
// the underlying http client. The timeout is applied to the caller's context so cancellation
// of the caller aborts the request as well.
type collaborator struct {
	name       string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func newCollaborator(name, baseURL string, timeout, defaultTimeout time.Duration) collaborator {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return collaborator{
		name:       name,
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

func (c collaborator) post(ctx context.Context, path string, contentType string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s service: %w", c.name, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response body: %w", c.name, err)
	}
	if len(data) > maxResponseBytes {
		return nil, &ErrResponseTooLarge{Service: c.name, Limit: maxResponseBytes}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ErrUpstreamStatus{Service: c.name, StatusCode: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}

type formFile struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

// multipartBody encodes one file part followed by plain form fields.
func multipartBody(file formFile, fields map[string]string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.filename))
	h.Set("Content-Type", file.contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.data); err != nil {
		return nil, "", err
	}

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
