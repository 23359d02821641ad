package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"JournalDigest/internal/ports"
)

// Client talks to a self-hosted inference service that answers relevance questions.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.SemanticJudge = (*Client)(nil)

type judgeRequest struct {
	Interest string `json:"interest"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
}

type judgeResponse struct {
	Answer string `json:"answer"`
}

// NewClient creates a reusable HTTP client; timeout <= 0 keeps the 15s default.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Judge posts the interest profile and article and returns the service's answer.
func (c *Client) Judge(ctx context.Context, req ports.JudgeRequest) (string, error) {
	var resp judgeResponse
	err := c.post(ctx, judgeRequest{
		Interest: req.Interest,
		Title:    req.Title,
		Summary:  req.Summary,
	}, &resp)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Answer) == "" {
		return "", errors.New("inference response has no answer")
	}
	return resp.Answer, nil
}

func (c *Client) post(ctx context.Context, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
