package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const defaultExtractionTimeout = 60 * time.Second

type PageRange struct {
	Start int
	End   int
}

// ExtractionClient calls the text extraction service.
type ExtractionClient struct {
	collaborator
}

func NewExtractionClient(baseURL string, timeout time.Duration) *ExtractionClient {
	return &ExtractionClient{collaborator: newCollaborator("extraction", baseURL, timeout, defaultExtractionTimeout)}
}

type ExtractionResponse struct {
	Content string `json:"content"`
}

// Extract uploads the PDF and returns the text of the requested pages.
func (c *ExtractionClient) Extract(ctx context.Context, pages PageRange, filename string, data []byte) (string, error) {
	if filename == "" {
		filename = "upload.pdf"
	}
	body, contentType, err := multipartBody(formFile{
		field:       "file",
		filename:    filename,
		contentType: "application/pdf",
		data:        data,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to encode upload: %w", err)
	}

	resp, err := c.post(ctx, fmt.Sprintf("/pdf/%d/%d", pages.Start, pages.End), contentType, body)
	if err != nil {
		return "", err
	}

	var extracted ExtractionResponse
	if err := json.Unmarshal(resp, &extracted); err != nil {
		return "", fmt.Errorf("failed to decode extraction response: %w", err)
	}
	return extracted.Content, nil
}
