package client

import (
	"context"
	"fmt"
	"time"
)

const defaultRenderingTimeout = 60 * time.Second

// RenderingClient calls the PDF generation service.
type RenderingClient struct {
	collaborator
}

func NewRenderingClient(baseURL string, timeout time.Duration) *RenderingClient {
	return &RenderingClient{collaborator: newCollaborator("rendering", baseURL, timeout, defaultRenderingTimeout)}
}

// Render sends the persisted document as {jobID}.json and returns the service's body unchanged.
func (c *RenderingClient) Render(ctx context.Context, jobID string, document []byte) ([]byte, error) {
	body, contentType, err := multipartBody(formFile{
		field:       "file",
		filename:    fmt.Sprintf("%s.json", jobID),
		contentType: "application/json",
		data:        document,
	}, map[string]string{"uid": jobID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	return c.post(ctx, "/generate_pdf", contentType, body)
}
