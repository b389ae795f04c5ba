// Package analyzer provides the Ollama-backed analysis capability consumed
// by the dispatcher. Prompting, response parsing, and retry policy all live
// here; the pipeline never sees anything but findings or an error.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"loupe/internal/finding"
)

const defaultTimeout = 5 * time.Minute

// Ollama reviews chunk content through the Ollama /api/chat endpoint.
type Ollama struct {
	baseURL    string
	model      string
	client     *http.Client
	maxRetries int

	promptTokens atomic.Int64
	outputTokens atomic.Int64
}

// NewOllama creates an analyzer targeting the given Ollama instance and
// model. Transient HTTP failures are retried maxRetries times with
// exponential backoff; pass 0 to disable retries.
func NewOllama(baseURL, model string, maxRetries int) *Ollama {
	return &Ollama{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		maxRetries: maxRetries,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message         chatMessage `json:"message"`
	PromptEvalCount int64       `json:"prompt_eval_count"`
	EvalCount       int64       `json:"eval_count"`
}

// Analyze sends one chunk to the backend and parses its findings. Every
// failure mode (transport error after retries, non-200 status, malformed
// output) surfaces as an error for the dispatcher to record.
func (o *Ollama) Analyze(ctx context.Context, content string) ([]finding.Finding, error) {
	raw, err := o.chat(ctx, []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: BuildUserPrompt(content)},
	})
	if err != nil {
		return nil, err
	}
	return ParseFindings(raw)
}

// Usage returns the accumulated backend token counters: opaque cost
// numbers passed through to the report footer, never reinterpreted.
func (o *Ollama) Usage() (prompt, output int64) {
	return o.promptTokens.Load(), o.outputTokens.Load()
}

func (o *Ollama) chat(ctx context.Context, messages []chatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		content, retryable, err := o.chatOnce(ctx, body)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}
	return "", lastErr
}

func (o *Ollama) chatOnce(ctx context.Context, body []byte) (content string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", true, fmt.Errorf("ollama chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("ollama chat returned %d: %s", resp.StatusCode, string(respBody))
		// Server-side and rate-limit errors are worth retrying; client
		// errors (bad model name, bad request) are not.
		return "", resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests, err
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", false, fmt.Errorf("decode chat response: %w", err)
	}

	o.promptTokens.Add(result.PromptEvalCount)
	o.outputTokens.Add(result.EvalCount)
	return result.Message.Content, false, nil
}
