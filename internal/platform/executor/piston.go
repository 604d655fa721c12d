package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"codeapt/internal/domain/model"
)

// RunRequest is one program run: source, runtime and optional stdin.
type RunRequest struct {
	Runtime model.Runtime
	Source  string
	Stdin   string
}

// RunResult carries what the sandbox captured.
type RunResult struct {
	Stdout string
	Stderr string
}

// Combined is stdout followed by stderr.
func (r *RunResult) Combined() string {
	return r.Stdout + r.Stderr
}

type pistonFile struct {
	Content string `json:"content"`
}

type pistonRequest struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Files    []pistonFile `json:"files"`
	Stdin    string       `json:"stdin"`
}

type pistonResponse struct {
	Message string `json:"message"`
	Run     *struct {
		Stdout string `json:"stdout"`
		Stderr string `json:"stderr"`
	} `json:"run"`
}

// Client talks to a Piston compatible /execute endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Run executes req once. Any transport error, non-2xx status or response
// without a run section is returned as an error.
func (c *Client) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	body, err := json.Marshal(pistonRequest{
		Language: req.Runtime.Language,
		Version:  req.Runtime.Version,
		Files:    []pistonFile{{Content: req.Source}},
		Stdin:    req.Stdin,
	})
	if err != nil {
		return nil, fmt.Errorf("executor.Run marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("executor.Run request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executor.Run send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("executor.Run read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("executor.Run: status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var pr pistonResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("executor.Run decode: %w", err)
	}
	if pr.Run == nil {
		return nil, fmt.Errorf("executor.Run: response has no run section: %s", pr.Message)
	}
	return &RunResult{Stdout: pr.Run.Stdout, Stderr: pr.Run.Stderr}, nil
}
