package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const defaultSummarizationTimeout = 30 * time.Second

// SummarizationClient calls the generative summarization service.
type SummarizationClient struct {
	collaborator
}

func NewSummarizationClient(baseURL string, timeout time.Duration) *SummarizationClient {
	return &SummarizationClient{collaborator: newCollaborator("summarization", baseURL, timeout, defaultSummarizationTimeout)}
}

type SummarizationRequest struct {
	Content string `json:"content"`
}

// Summarize returns the model's free-form answer. A body that is a JSON string literal is
// unquoted; anything else is returned as is.
func (c *SummarizationClient) Summarize(ctx context.Context, content string) (string, error) {
	body, err := json.Marshal(SummarizationRequest{Content: content})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.post(ctx, "/summarize", "application/json", body)
	if err != nil {
		return "", err
	}

	trimmed := bytes.TrimSpace(resp)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err == nil {
			return text, nil
		}
	}
	return string(resp), nil
}
