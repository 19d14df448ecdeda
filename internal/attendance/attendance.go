package attendance

import (
	"fmt"
	"math"
	"strings"
)

// ClassType distinguishes lecture sessions from lab/practical sessions.
type ClassType int

const (
	Lecture ClassType = iota
	Practical
)

func (c ClassType) String() string {
	if c == Practical {
		return "PRACTICAL"
	}
	return "LECTURE"
}

// MarshalText keeps the wire name used by downstream consumers ("THEORY" for lectures).
func (c ClassType) MarshalText() ([]byte, error) {
	if c == Practical {
		return []byte("PRACTICAL"), nil
	}
	return []byte("THEORY"), nil
}

func (c *ClassType) UnmarshalText(b []byte) error {
	ct, err := ParseClassType(string(b))
	if err != nil {
		return err
	}
	*c = ct
	return nil
}

// ParseClassType accepts THEORY, LECTURE, LECT, PRACTICAL and LAB in any case.
func ParseClassType(s string) (ClassType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "THEORY", "LECTURE", "LECT":
		return Lecture, nil
	case "PRACTICAL", "LAB":
		return Practical, nil
	}
	return Lecture, fmt.Errorf("unknown class type %q", s)
}

// Record is one subject's attendance as read from the dashboard.
type Record struct {
	SubjectCode string    `json:"subjectCode,omitempty"`
	SubjectName string    `json:"subjectName"`
	ClassType   ClassType `json:"classType"`
	Attended    int       `json:"attended"`
	Total       int       `json:"total"`
	Percentage  float64   `json:"percentage"`
}

// NewRecord builds a record and derives its percentage.
func NewRecord(code, name string, ct ClassType, attended, total int) Record {
	return Record{
		SubjectCode: code,
		SubjectName: name,
		ClassType:   ct,
		Attended:    attended,
		Total:       total,
		Percentage:  Percent(attended, total),
	}
}

// Structured is the full set of records for one student.
type Structured struct {
	StudentID         string   `json:"student_id"`
	Records           []Record `json:"records"`
	OverallPercentage float64  `json:"overallPercentage"`
}

// Totals sums attended and total classes over all records.
func (s Structured) Totals() (attended, total int) {
	for _, r := range s.Records {
		attended += r.Attended
		total += r.Total
	}
	return attended, total
}

// Summarize builds a Structured value and computes the overall percentage.
func Summarize(studentID string, records []Record) Structured {
	if records == nil {
		records = []Record{}
	}
	s := Structured{StudentID: studentID, Records: records}
	attended, total := s.Totals()
	s.OverallPercentage = Percent(attended, total)
	return s
}

// Percent returns attended/total*100 rounded to two decimals, or 0 when total is 0.
func Percent(attended, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(float64(attended) / float64(total) * 100)
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
