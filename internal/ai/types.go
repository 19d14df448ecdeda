package ai

import (
	"context"
	"errors"
	"time"
)

// Request is a single text-in/text-out completion request.
type Request struct {
	Model        string
	SystemPrompt string
	Prompt       string
	Timeout      time.Duration
	// JSONOutput asks the provider for a bare JSON response when it supports it.
	JSONOutput bool
}

type Response struct {
	Text      string
	TokensIn  int
	TokensOut int
}

// Client interface for providers like Gemini, OpenAI, Anthropic.
type Client interface {
	Name() string
	Do(ctx context.Context, req Request) (Response, error)
}

var (
	ErrRateLimited    = errors.New("rate_limited")
	ErrContentRefused = errors.New("content_refused")
	// ErrUnavailable means the provider is not configured (no key) and was never called.
	ErrUnavailable = errors.New("provider_unavailable")
)

func IsRateLimited(err error) bool   { return errors.Is(err, ErrRateLimited) }
func IsContentRefused(err error) bool { return errors.Is(err, ErrContentRefused) }
func IsUnavailable(err error) bool    { return errors.Is(err, ErrUnavailable) }
