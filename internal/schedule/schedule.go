// Package schedule holds department weekly course loads and projects future classes.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CourseLoad is the weekly number of lectures and labs for one course.
type CourseLoad struct {
	CourseKey       string `json:"course" bson:"course"`
	LecturesPerWeek int    `json:"lectures" bson:"lectures"`
	LabsPerWeek     int    `json:"labs" bson:"labs"`
}

// PerWeek is lectures plus labs.
func (c CourseLoad) PerWeek() int { return c.LecturesPerWeek + c.LabsPerWeek }

// Schedule is a department's course loads in the order they were registered.
type Schedule struct {
	Department string       `json:"department" bson:"department"`
	Courses    []CourseLoad `json:"courses" bson:"courses"`
}

// Source returns the registered schedule of a department.
type Source interface {
	GetSchedule(ctx context.Context, department string) (Schedule, error)
	ListDepartments(ctx context.Context) ([]string, error)
}

var ErrNotFound = errors.New("schedule not found")

// NotFoundError is returned when a department has no registered schedule.
type NotFoundError struct {
	Department string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no schedule found for department: %s", e.Department)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Project returns weeks * sum(lectures+labs) over all courses.
func Project(courses []CourseLoad, weeks int) int {
	perWeek := 0
	for _, c := range courses {
		perWeek += c.PerWeek()
	}
	return perWeek * weeks
}

// Lookup returns the first course whose key contains base. Missing courses get
// a zero load.
func Lookup(courses []CourseLoad, base string) CourseLoad {
	if base == "" {
		return CourseLoad{}
	}
	for _, c := range courses {
		if strings.Contains(c.CourseKey, base) {
			return c
		}
	}
	return CourseLoad{}
}

func validate(s Schedule) error {
	if strings.TrimSpace(s.Department) == "" {
		return errors.New("department is required")
	}
	for _, c := range s.Courses {
		if c.CourseKey == "" {
			return fmt.Errorf("department %s: course key is required", s.Department)
		}
		if c.LecturesPerWeek < 0 || c.LabsPerWeek < 0 {
			return fmt.Errorf("department %s: course %s has a negative weekly load", s.Department, c.CourseKey)
		}
	}
	return nil
}
