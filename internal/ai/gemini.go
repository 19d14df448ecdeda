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

const geminiBaseURL = "https://generativelanguage.googleapis.com"

type GeminiClient struct {
	http    *http.Client
	apiKey  string
	baseURL string
}

// NewGeminiClient reads GEMINI_API_KEY, falling back to GOOGLE_API_KEY.
func NewGeminiClient() *GeminiClient {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		key = os.Getenv("GOOGLE_API_KEY")
	}
	return NewGeminiClientWith(key, geminiBaseURL, nil)
}

func NewGeminiClientWith(apiKey, baseURL string, hc *http.Client) *GeminiClient {
	if hc == nil {
		hc = &http.Client{}
	}
	if baseURL == "" {
		baseURL = geminiBaseURL
	}
	return &GeminiClient{http: hc, apiKey: apiKey, baseURL: baseURL}
}

func (c *GeminiClient) Name() string { return "gemini" }

type gPart struct {
	Text string `json:"text,omitempty"`
}

type gContent struct {
	Role  string  `json:"role,omitempty"`
	Parts []gPart `json:"parts"`
}

type gGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type gRequest struct {
	SystemInstruction *gContent         `json:"system_instruction,omitempty"`
	Contents          []gContent        `json:"contents"`
	GenerationConfig  gGenerationConfig `json:"generationConfig"`
}

type gResponse struct {
	Candidates []struct {
		Content      gContent `json:"content"`
		FinishReason string   `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *GeminiClient) Do(ctx context.Context, req Request) (Response, error) {
	if c.apiKey == "" {
		return Response{}, fmt.Errorf("%w: missing GEMINI_API_KEY", ErrUnavailable)
	}
	payload := gRequest{
		Contents: []gContent{{Role: "user", Parts: []gPart{{Text: req.Prompt}}}},
	}
	if req.SystemPrompt != "" {
		payload.SystemInstruction = &gContent{Parts: []gPart{{Text: req.SystemPrompt}}}
	}
	if req.JSONOutput {
		payload.GenerationConfig.ResponseMimeType = "application/json"
	}
	body, _ := json.Marshal(payload)

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return Response{}, ErrRateLimited
	}
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		if len(raw) > 2048 {
			raw = raw[:2048]
		}
		return Response{}, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw), Provider: c.Name()}
	}
	var gr gResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return Response{}, err
	}
	if gr.Error != nil {
		return Response{}, fmt.Errorf("gemini error: %s", gr.Error.Message)
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return Response{}, fmt.Errorf("%w: %s", ErrContentRefused, gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return Response{}, errors.New("gemini returned empty response")
	}
	return Response{
		Text:      gr.Candidates[0].Content.Parts[0].Text,
		TokensIn:  gr.UsageMetadata.PromptTokenCount,
		TokensOut: gr.UsageMetadata.CandidatesTokenCount,
	}, nil
}
