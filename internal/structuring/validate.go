package structuring

import (
	"math"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/local/attendplanner/internal/attendance"
	"github.com/local/attendplanner/internal/extract"
)

var (
	topLevelKeys = []string{"student_id", "records", "overallPercentage"}
	recordKeys   = []string{"subjectName", "classType", "attended", "total", "percentage"}
)

// parseResponse decodes and validates an AI answer. Percentages are derived
// again from the counts so the result obeys the same rounding as the extractor.
func parseResponse(provider, text string) (attendance.Structured, error) {
	body := cleanResponse(text)
	if body == "" {
		return attendance.Structured{}, &StructuringError{Provider: provider, Reason: ReasonNotJSON}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &top); err != nil {
		return attendance.Structured{}, &StructuringError{Provider: provider, Reason: ReasonNotJSON, Err: err}
	}
	if raw, ok := top["error"]; ok {
		var msg string
		_ = json.Unmarshal(raw, &msg)
		return attendance.Structured{}, &StructuringError{Provider: provider, Reason: ReasonReportedByAI, Err: &MalformedRecordError{Index: -1, Field: "error", Msg: msg}}
	}
	for _, k := range topLevelKeys {
		if _, ok := top[k]; !ok {
			return attendance.Structured{}, invalid(provider, -1, k, "missing")
		}
	}

	var studentID string
	if err := json.Unmarshal(top["student_id"], &studentID); err != nil {
		return attendance.Structured{}, invalid(provider, -1, "student_id", "not a string")
	}
	var overall float64
	if err := json.Unmarshal(top["overallPercentage"], &overall); err != nil {
		return attendance.Structured{}, invalid(provider, -1, "overallPercentage", "not a number")
	}
	var rawRecords []map[string]json.RawMessage
	if err := json.Unmarshal(top["records"], &rawRecords); err != nil {
		return attendance.Structured{}, invalid(provider, -1, "records", "not an array of objects")
	}

	records := make([]attendance.Record, 0, len(rawRecords))
	for i, rr := range rawRecords {
		rec, err := parseRecord(i, rr)
		if err != nil {
			return attendance.Structured{}, &StructuringError{Provider: provider, Reason: ReasonInvalid, Err: err}
		}
		records = append(records, rec)
	}

	if studentID == "" {
		studentID = extract.UnknownStudent
	}
	return attendance.Summarize(studentID, records), nil
}

func parseRecord(i int, rr map[string]json.RawMessage) (attendance.Record, error) {
	for _, k := range recordKeys {
		if _, ok := rr[k]; !ok {
			return attendance.Record{}, &MalformedRecordError{Index: i, Field: k, Msg: "missing"}
		}
	}

	var name, classType string
	if err := json.Unmarshal(rr["subjectName"], &name); err != nil || strings.TrimSpace(name) == "" {
		return attendance.Record{}, &MalformedRecordError{Index: i, Field: "subjectName", Msg: "not a non-empty string"}
	}
	if err := json.Unmarshal(rr["classType"], &classType); err != nil {
		return attendance.Record{}, &MalformedRecordError{Index: i, Field: "classType", Msg: "not a string"}
	}
	var ct attendance.ClassType
	switch strings.ToUpper(strings.TrimSpace(classType)) {
	case "THEORY":
		ct = attendance.Lecture
	case "PRACTICAL":
		ct = attendance.Practical
	default:
		return attendance.Record{}, &MalformedRecordError{Index: i, Field: "classType", Msg: "want THEORY or PRACTICAL, got " + classType}
	}

	attended, err := count(rr["attended"])
	if err != nil {
		return attendance.Record{}, &MalformedRecordError{Index: i, Field: "attended", Msg: err.Error()}
	}
	total, err := count(rr["total"])
	if err != nil {
		return attendance.Record{}, &MalformedRecordError{Index: i, Field: "total", Msg: err.Error()}
	}
	var pct float64
	if err := json.Unmarshal(rr["percentage"], &pct); err != nil {
		return attendance.Record{}, &MalformedRecordError{Index: i, Field: "percentage", Msg: "not a number"}
	}

	name = strings.TrimSpace(name)
	code := name
	if sm, ok := extract.FindSubject(name); ok {
		code = sm.Code
	}
	return attendance.NewRecord(code, name, ct, attended, total), nil
}

type countError string

func (e countError) Error() string { return string(e) }

// count accepts whole numbers written as 24 or 24.0.
func count(raw json.RawMessage) (int, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, countError("not a number")
	}
	if f < 0 || f != math.Trunc(f) {
		return 0, countError("not a non-negative whole number")
	}
	if f > math.MaxInt32 {
		return 0, countError("out of range")
	}
	return int(f), nil
}

func invalid(provider string, index int, field, msg string) error {
	return &StructuringError{Provider: provider, Reason: ReasonInvalid, Err: &MalformedRecordError{Index: index, Field: field, Msg: msg}}
}
