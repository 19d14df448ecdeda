package ocr

import (
	"context"
	"strings"
)

// Point is the top-left corner of a token's bounding quadrilateral.
type Point struct {
	X float64
	Y float64
}

// Token is one unit of recognised text.
type Token struct {
	Text       string
	Position   Point
	Confidence float64 // 0..1
}

// Line is a cluster of tokens on one visual row, ordered left to right.
type Line struct {
	Tokens []Token
	Text   string
}

// Variant is one encoded rendition of a page. Scale is its size relative to
// the page; recognised positions are divided by it so all variants share the
// page's coordinate space. Zero means 1.
type Variant struct {
	Data  []byte
	Scale float64
}

// Recognizer is the OCR engine boundary. Implementations may be called several
// times per image with different preprocessing variants.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) ([]Token, error)
	Close() error
}

// JoinLines renders lines as a newline separated text blob.
func JoinLines(lines []Line) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, l.Text)
	}
	return strings.Join(parts, "\n")
}
