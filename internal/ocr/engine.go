package ocr

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Handle owns a lazily constructed Recognizer. The engine is expensive to build,
// so it is created on first use and shared; concurrent first calls build it once.
// A failed construction is not cached and is retried on the next call.
type Handle struct {
	newFn func() (Recognizer, error)

	mu  sync.Mutex
	rec Recognizer
}

func NewHandle(newFn func() (Recognizer, error)) *Handle {
	return &Handle{newFn: newFn}
}

// Get returns the shared recognizer, constructing it if needed.
func (h *Handle) Get() (Recognizer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rec != nil {
		return h.rec, nil
	}
	log.Info().Msg("initializing OCR engine")
	rec, err := h.newFn()
	if err != nil {
		return nil, &ExtractionError{Stage: "init", Err: err}
	}
	h.rec = rec
	log.Info().Msg("OCR engine initialized")
	return rec, nil
}

// Recognize delegates to the shared recognizer.
func (h *Handle) Recognize(ctx context.Context, image []byte) ([]Token, error) {
	rec, err := h.Get()
	if err != nil {
		return nil, err
	}
	return rec.Recognize(ctx, image)
}

// Close releases the engine if it was ever built.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rec == nil {
		return nil
	}
	err := h.rec.Close()
	h.rec = nil
	return err
}
