package ocr

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Scanner runs the recognizer over every preprocessing variant of a page,
// pools the tokens and rebuilds lines.
type Scanner struct {
	rec Recognizer
}

func NewScanner(rec Recognizer) *Scanner { return &Scanner{rec: rec} }

// ScanPages treats each element of pages as one page; each page is a list of
// encoded image variants. Lines of consecutive pages are concatenated.
func (s *Scanner) ScanPages(ctx context.Context, pages [][]Variant) ([]Line, int, error) {
	var lines []Line
	tokens := 0
	for i, variants := range pages {
		var pooled []Token
		var lastErr error
		for j, v := range variants {
			if err := ctx.Err(); err != nil {
				return nil, tokens, &ExtractionError{Stage: "recognize", Err: err}
			}
			got, err := s.rec.Recognize(ctx, v.Data)
			if err != nil {
				var ee *ExtractionError
				if errors.As(err, &ee) && ee.Stage == "init" {
					return nil, tokens, err
				}
				log.Warn().Err(err).Int("page", i+1).Int("variant", j).Msg("variant recognition failed")
				lastErr = err
				continue
			}
			pooled = append(pooled, toPageSpace(got, v.Scale)...)
		}
		if len(pooled) == 0 && lastErr != nil {
			return nil, tokens, &ExtractionError{Stage: "recognize", Err: fmt.Errorf("page %d: %w", i+1, lastErr)}
		}
		tokens += len(pooled)
		lines = append(lines, Reconstruct(pooled)...)
	}
	log.Debug().Int("pages", len(pages)).Int("tokens", tokens).Int("lines", len(lines)).Msg("scan completed")
	return lines, tokens, nil
}

func toPageSpace(tokens []Token, scale float64) []Token {
	if scale == 0 || scale == 1 {
		return tokens
	}
	out := make([]Token, len(tokens))
	for i, t := range tokens {
		t.Position.X /= scale
		t.Position.Y /= scale
		out[i] = t
	}
	return out
}
