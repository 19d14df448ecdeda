// Package structuring turns raw recognised text into attendance records,
// preferring AI providers and falling back to deterministic extraction.
package structuring

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/attendplanner/internal/ai"
	"github.com/local/attendplanner/internal/attendance"
	"github.com/local/attendplanner/internal/extract"
	mpkg "github.com/local/attendplanner/internal/metrics"
)

const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Provider is one AI client and the model to ask.
type Provider struct {
	Client ai.Client
	Model  string
}

// Outcome is a structured result plus where it came from.
type Outcome struct {
	Attendance attendance.Structured
	Source     string
	Provider   string
	// Reason is set when Source is SourceFallback.
	Reason string
}

type Option func(*Router)

func WithBreaker(b Breaker) Option {
	return func(r *Router) {
		if b != nil {
			r.breaker = b
		}
	}
}

// WithInflightLimit skips a provider while n of its requests are already running.
func WithInflightLimit(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.limiter = NewInflightLimiter(n)
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// Router asks providers in order and falls back to the extractor when none of
// them gives a usable answer.
type Router struct {
	providers []Provider
	breaker   Breaker
	limiter   *InflightLimiter
	timeout   time.Duration
	fallback  *extract.Extractor
}

func NewRouter(providers []Provider, opts ...Option) *Router {
	r := &Router{
		providers: providers,
		breaker:   noBreaker{},
		timeout:   30 * time.Second,
		fallback:  extract.New(extract.UnknownStudent),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Structure never fails. Provider problems are logged and answered with the
// deterministic extractor's result on the same text.
func (r *Router) Structure(ctx context.Context, rawText string) attendance.Structured {
	return r.Route(ctx, rawText).Attendance
}

func (r *Router) Route(ctx context.Context, rawText string) Outcome {
	var lastErr error
	for _, p := range r.providers {
		if p.Client == nil {
			continue
		}
		res, err := r.try(ctx, p, rawText)
		if err == nil {
			mpkg.IncStructuring(SourceAI, "")
			mpkg.AddRecords(SourceAI, len(res.Records))
			log.Info().
				Str("provider", p.Client.Name()).
				Str("model", p.Model).
				Int("records", len(res.Records)).
				Msg("attendance structured by provider")
			return Outcome{Attendance: res, Source: SourceAI, Provider: p.Client.Name()}
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	reason := ReasonUnavailable
	var se *StructuringError
	if errors.As(lastErr, &se) {
		reason = se.Reason
	}
	res := r.fallback.FromText(rawText)
	mpkg.IncStructuring(SourceFallback, reason)
	mpkg.AddRecords(SourceFallback, len(res.Records))
	log.Warn().
		Err(lastErr).
		Str("reason", reason).
		Int("records", len(res.Records)).
		Msg("falling back to deterministic extraction")
	return Outcome{Attendance: res, Source: SourceFallback, Reason: reason}
}

func (r *Router) try(ctx context.Context, p Provider, rawText string) (attendance.Structured, error) {
	name := p.Client.Name()
	if r.breaker.IsOpen(ctx, name, p.Model) {
		log.Debug().Str("provider", name).Str("model", p.Model).Msg("circuit open, skipping provider")
		return attendance.Structured{}, &StructuringError{Provider: name, Reason: ReasonBreakerOpen}
	}

	if r.limiter != nil {
		release, ok := r.limiter.Allow(name, p.Model)
		if !ok {
			log.Debug().Str("provider", name).Str("model", p.Model).Msg("provider busy, skipping")
			return attendance.Structured{}, &StructuringError{Provider: name, Reason: ReasonBusy}
		}
		defer release()
	}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.Client.Do(cctx, ai.Request{
		Model:        p.Model,
		SystemPrompt: systemPrompt,
		Prompt:       buildPrompt(rawText),
		Timeout:      r.timeout,
		JSONOutput:   true,
	})
	dur := time.Since(start)

	if err != nil {
		if ai.IsUnavailable(err) {
			mpkg.ObserveProvider(name, p.Model, "unavailable", dur)
			return attendance.Structured{}, &StructuringError{Provider: name, Reason: ReasonUnavailable, Err: err}
		}
		result := ai.Classify(err)
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			result = "timeout"
		}
		mpkg.ObserveProvider(name, p.Model, result, dur)
		if result == "timeout" || ai.IsTransient(err) {
			r.breaker.Open(ctx, name, p.Model)
		}
		log.Warn().
			Str("provider", name).
			Str("model", p.Model).
			Dur("duration", dur).
			Str("result", result).
			Err(err).
			Msg("structuring provider call failed")
		return attendance.Structured{}, &StructuringError{Provider: name, Reason: ReasonCallFailed, Err: err}
	}

	mpkg.ObserveProvider(name, p.Model, "success", dur)
	r.breaker.Close(ctx, name, p.Model)

	res, err := parseResponse(name, resp.Text)
	if err != nil {
		log.Warn().
			Str("provider", name).
			Str("model", p.Model).
			Int("tokens_out", resp.TokensOut).
			Err(err).
			Msg("unusable structuring response")
		return attendance.Structured{}, err
	}
	return res, nil
}
