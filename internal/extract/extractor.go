// Package extract recovers per-subject attendance records from recognised text
// without any external service.
package extract

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/attendplanner/internal/attendance"
	"github.com/local/attendplanner/internal/ocr"
)

// UnknownStudent is used when the image carries no recoverable identity.
const UnknownStudent = "unknown"

// Extractor turns lines of text into deduplicated attendance records.
type Extractor struct {
	StudentID string
}

func New(studentID string) *Extractor {
	if studentID == "" {
		studentID = UnknownStudent
	}
	return &Extractor{StudentID: studentID}
}

// FromLines extracts records from reconstructed OCR lines.
func (e *Extractor) FromLines(lines []ocr.Line) attendance.Structured {
	texts := make([]string, 0, len(lines))
	for _, l := range lines {
		texts = append(texts, l.Text)
	}
	return e.Extract(texts)
}

// FromText splits a raw text blob into lines and extracts records.
func (e *Extractor) FromText(text string) attendance.Structured {
	return e.Extract(SplitLines(text))
}

// Extract processes lines in order. The first line seen for a subject code wins;
// later lines with the same code are dropped.
func (e *Extractor) Extract(lines []string) attendance.Structured {
	seen := make(map[string]bool)
	var records []attendance.Record
	for _, line := range lines {
		sm, ok := FindSubject(line)
		if !ok {
			continue
		}
		if seen[sm.Code] {
			log.Debug().Str("subject", sm.Code).Msg("duplicate subject line dropped")
			continue
		}
		// counts are read from the rest of the line so the code's own digits never pair up
		rest := line[:sm.Start] + " " + line[sm.End:]
		attended, total, ok := FindCounts(rest)
		if !ok || total == 0 {
			continue
		}
		ct := DetectClassType(line)
		records = append(records, attendance.NewRecord(sm.Code, sm.Code, ct, attended, total))
		seen[sm.Code] = true
	}
	return attendance.Summarize(e.StudentID, records)
}

// SplitLines splits on newlines. Text without any newline (engines that return a
// single space-joined string) is split on spaces and regrouped so that a new
// line starts at every word that begins a subject code.
func SplitLines(text string) []string {
	if strings.Contains(text, "\n") {
		var out []string
		for _, l := range strings.Split(text, "\n") {
			if strings.TrimSpace(l) != "" {
				out = append(out, l)
			}
		}
		return out
	}
	words := strings.Fields(text)
	var out []string
	var cur []string
	for _, w := range words {
		if sm, ok := FindSubject(w); ok && sm.Start == 0 && len(cur) > 0 {
			out = append(out, strings.Join(cur, " "))
			cur = nil
		}
		cur = append(cur, w)
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}
