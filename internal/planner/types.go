package planner

import (
	"fmt"
	"strconv"
)

// Recommendation is the advice given for one course.
type Recommendation int

const (
	CannotMiss Recommendation = iota
	AttendIfPossible
	SafeToSkip
	NoData
)

var recommendationText = map[Recommendation]string{
	CannotMiss:       "Cannot miss lectures",
	AttendIfPossible: "Attend if possible",
	SafeToSkip:       "Safe to miss some classes",
	NoData:           "No data available",
}

func (r Recommendation) String() string {
	if s, ok := recommendationText[r]; ok {
		return s
	}
	return "Recommendation(" + strconv.Itoa(int(r)) + ")"
}

func (r Recommendation) MarshalText() ([]byte, error) {
	s, ok := recommendationText[r]
	if !ok {
		return nil, fmt.Errorf("unknown recommendation %d", int(r))
	}
	return []byte(s), nil
}

func (r *Recommendation) UnmarshalText(b []byte) error {
	for k, v := range recommendationText {
		if v == string(b) {
			*r = k
			return nil
		}
	}
	return fmt.Errorf("unknown recommendation %q", string(b))
}

// Summary holds the department-wide figures of a plan.
type Summary struct {
	CurrentPercentage       float64 `json:"currentPercentage"`
	TotalClasses            int     `json:"totalClasses"`
	TotalAttended           int     `json:"totalAttended"`
	FutureClasses           int     `json:"futureClasses"`
	AllowedSkips            float64 `json:"allowedSkips"`
	AdditionalClassesNeeded float64 `json:"additionalClassesNeeded"`
}

// Percentage is an optional sub-percentage. It renders as "NN.N%" or "N/A".
type Percentage struct {
	Value float64
	Valid bool
}

func (p Percentage) String() string {
	if !p.Valid {
		return "N/A"
	}
	return strconv.FormatFloat(p.Value, 'f', 1, 64) + "%"
}

func (p Percentage) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Percentage) UnmarshalText(b []byte) error {
	s := string(b)
	if s == "N/A" {
		*p = Percentage{}
		return nil
	}
	if len(s) == 0 || s[len(s)-1] != '%' {
		return fmt.Errorf("invalid percentage %q", s)
	}
	v, err := strconv.ParseFloat(s[:len(s)-1], 64)
	if err != nil {
		return fmt.Errorf("invalid percentage %q: %w", s, err)
	}
	*p = Percentage{Value: v, Valid: true}
	return nil
}

type CurrentAttendance struct {
	Lectures Percentage `json:"lectures"`
	Labs     Percentage `json:"labs"`
}

type WeeklyClasses struct {
	Lectures int `json:"lectures"`
	Labs     int `json:"labs"`
}

// CourseRecommendation is the plan for one course.
type CourseRecommendation struct {
	Course            string            `json:"course"`
	CurrentAttendance CurrentAttendance `json:"currentAttendance"`
	WeeklyClasses     WeeklyClasses     `json:"weeklyClasses"`
	CanSkip           bool              `json:"canSkip"`
	FutureClasses     int               `json:"futureClasses"`
	Recommendation    Recommendation    `json:"recommendation"`
}

// SkipPlan is the result of one calculation.
type SkipPlan struct {
	Summary         Summary                `json:"summary"`
	Recommendations []CourseRecommendation `json:"recommendations"`
}
