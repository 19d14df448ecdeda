package attendance

import (
	"encoding/json"
	"testing"
)

func TestPercent(t *testing.T) {
	cases := []struct {
		attended, total int
		want            float64
	}{
		{24, 30, 80},
		{9, 10, 90},
		{2, 3, 66.67},
		{1, 3, 33.33},
		{5, 0, 0},
		{0, 0, 0},
	}
	for _, c := range cases {
		if got := Percent(c.attended, c.total); got != c.want {
			t.Fatalf("Percent(%d,%d): expected %v, got %v", c.attended, c.total, c.want, got)
		}
	}
}

func TestSummarizeOverall(t *testing.T) {
	s := Summarize("unknown", []Record{
		NewRecord("IT101", "IT101", Lecture, 24, 30),
		NewRecord("CE263", "CE263", Practical, 9, 10),
	})
	if s.OverallPercentage != 82.5 {
		t.Fatalf("expected overall 82.5, got %v", s.OverallPercentage)
	}
	if a, tot := s.Totals(); a != 33 || tot != 40 {
		t.Fatalf("expected totals 33/40, got %d/%d", a, tot)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize("unknown", nil)
	if s.OverallPercentage != 0 {
		t.Fatalf("expected 0, got %v", s.OverallPercentage)
	}
	if s.Records == nil {
		t.Fatal("expected non-nil records slice")
	}
}

func TestClassTypeWireName(t *testing.T) {
	b, err := json.Marshal(NewRecord("IT101", "IT101", Lecture, 1, 2))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	if m["classType"] != "THEORY" {
		t.Fatalf("expected THEORY, got %v", m["classType"])
	}

	var r Record
	if err := json.Unmarshal([]byte(`{"subjectName":"CE263","classType":"PRACTICAL","attended":9,"total":10,"percentage":90}`), &r); err != nil {
		t.Fatal(err)
	}
	if r.ClassType != Practical {
		t.Fatalf("expected PRACTICAL, got %s", r.ClassType)
	}
	if err := json.Unmarshal([]byte(`{"classType":"SEMINAR"}`), &r); err == nil {
		t.Fatal("expected error for unknown class type")
	}
}
