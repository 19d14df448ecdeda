// Package imagerender turns PDF dashboards into page images.
package imagerender

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

// PageCount reads the page count without rendering anything.
func PageCount(pdf []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(pdf), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}
	return n, nil
}

// TooManyPagesError is returned when a PDF exceeds the page limit.
type TooManyPagesError struct {
	Pages, Max int
}

func (e *TooManyPagesError) Error() string {
	return fmt.Sprintf("PDF has %d pages, at most %d are accepted", e.Pages, e.Max)
}

// RenderPages renders every page at dpi and returns PNG bytes per page.
func RenderPages(pdf []byte, dpi, maxPages int) ([][]byte, error) {
	n, err := PageCount(pdf)
	if err != nil {
		return nil, err
	}
	if maxPages > 0 && n > maxPages {
		return nil, &TooManyPagesError{Pages: n, Max: maxPages}
	}

	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := make([][]byte, 0, n)
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}
		b, err := encodePNG(img)
		if err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}
		log.Debug().
			Int("page", i+1).
			Int("width", img.Bounds().Dx()).
			Int("height", img.Bounds().Dy()).
			Int("dpi", dpi).
			Msg("rendered PDF page")
		pages = append(pages, b)
	}
	return pages, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExtractText returns the text layer of every page, pages separated by a blank
// line. Scanned PDFs have no text layer and yield "".
func ExtractText(pdf []byte) (string, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Msg("failed to extract text from page")
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}
	return b.String(), nil
}
