// Package tesseract provides the Tesseract-backed token source.
package tesseract

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog/log"

	"github.com/local/attendplanner/internal/ocr"
)

// Recognizer wraps a single gosseract client. The client is not safe for
// concurrent use, so calls are serialised.
type Recognizer struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New builds a client for the given languages ("eng" when empty).
func New(languages ...string) (*Recognizer, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	c := gosseract.NewClient()
	if err := c.SetLanguage(languages...); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("set language %s: %w", strings.Join(languages, "+"), err)
	}
	log.Info().Str("version", c.Version()).Strs("languages", languages).Msg("tesseract client ready")
	return &Recognizer{client: c}, nil
}

// Recognize returns word-level tokens with confidence scaled to 0..1.
func (r *Recognizer) Recognize(ctx context.Context, image []byte) ([]ocr.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("bounding boxes: %w", err)
	}
	tokens := make([]ocr.Token, 0, len(boxes))
	for _, b := range boxes {
		if strings.TrimSpace(b.Word) == "" {
			continue
		}
		tokens = append(tokens, ocr.Token{
			Text:       b.Word,
			Position:   ocr.Point{X: float64(b.Box.Min.X), Y: float64(b.Box.Min.Y)},
			Confidence: b.Confidence / 100,
		})
	}
	return tokens, nil
}

func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client.Close()
}
