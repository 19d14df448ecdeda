package planner

import "fmt"

// InputError reports an out-of-range calculation argument.
type InputError struct {
	Field string
	Value float64
}

func (e *InputError) Error() string {
	switch e.Field {
	case "desiredAttendance":
		return fmt.Sprintf("desiredAttendance must be in (0, 100], got %v", e.Value)
	case "timeFrame":
		return fmt.Sprintf("timeFrame must be a non-negative number of weeks, got %v", e.Value)
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Value)
}

// Validate checks the goal percentage and remaining weeks.
func Validate(desired float64, weeks int) error {
	if !(desired > 0 && desired <= 100) {
		return &InputError{Field: "desiredAttendance", Value: desired}
	}
	if weeks < 0 {
		return &InputError{Field: "timeFrame", Value: float64(weeks)}
	}
	return nil
}
