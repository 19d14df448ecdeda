package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	json "github.com/goccy/go-json"
)

const anthropicBaseURL = "https://api.anthropic.com"

type AnthropicClient struct {
	http    *http.Client
	apiKey  string
	baseURL string
}

func NewAnthropicClient() *AnthropicClient {
	return NewAnthropicClientWith(os.Getenv("ANTHROPIC_API_KEY"), anthropicBaseURL, nil)
}

func NewAnthropicClientWith(apiKey, baseURL string, hc *http.Client) *AnthropicClient {
	if hc == nil {
		hc = &http.Client{}
	}
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	return &AnthropicClient{http: hc, apiKey: apiKey, baseURL: baseURL}
}

func (c *AnthropicClient) Name() string { return "anthropic" }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicMsgReq struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMsgResp struct {
	Content    []struct{ Text string `json:"text"` } `json:"content"`
	StopReason string                                `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *AnthropicClient) Do(ctx context.Context, req Request) (Response, error) {
	if c.apiKey == "" {
		return Response{}, fmt.Errorf("%w: missing ANTHROPIC_API_KEY", ErrUnavailable)
	}
	payload := anthropicMsgReq{
		Model:     req.Model,
		MaxTokens: 4096,
		System:    req.SystemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}
	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return Response{}, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Response{}, &HTTPError{StatusCode: resp.StatusCode, Body: string(b), Provider: c.Name()}
	}
	var r anthropicMsgResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Response{}, err
	}
	if r.StopReason == "refusal" {
		return Response{}, ErrContentRefused
	}
	if len(r.Content) == 0 {
		return Response{}, errors.New("no content")
	}
	return Response{Text: r.Content[0].Text, TokensIn: r.Usage.InputTokens, TokensOut: r.Usage.OutputTokens}, nil
}
