package ocr

import (
	"sort"
	"strings"
)

const (
	// ConfidenceFloor drops tokens the engine is unsure about.
	ConfidenceFloor = 0.3
	// LineTolerance is the max vertical distance (px) from a line's anchor.
	LineTolerance = 20.0
)

// Reconstruct clusters tokens into visual lines. Tokens from several variants of
// the same image may overlap; they are kept as is and deduplicated downstream.
func Reconstruct(tokens []Token) []Line {
	kept := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Confidence < ConfidenceFloor {
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		return nil
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Position.Y < kept[j].Position.Y })

	var lines []Line
	current := []Token{kept[0]}
	anchor := kept[0].Position.Y
	for _, t := range kept[1:] {
		if t.Position.Y-anchor > LineTolerance {
			lines = append(lines, finishLine(current))
			current = []Token{t}
			anchor = t.Position.Y
			continue
		}
		current = append(current, t)
	}
	lines = append(lines, finishLine(current))
	return lines
}

func finishLine(tokens []Token) Line {
	sort.SliceStable(tokens, func(i, j int) bool { return tokens[i].Position.X < tokens[j].Position.X })
	words := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if w := strings.TrimSpace(t.Text); w != "" {
			words = append(words, w)
		}
	}
	return Line{Tokens: tokens, Text: strings.Join(words, " ")}
}
