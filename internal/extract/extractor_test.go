package extract

import (
	"testing"

	"github.com/local/attendplanner/internal/attendance"
	"github.com/local/attendplanner/internal/ocr"
)

func TestExtractLectureLine(t *testing.T) {
	s := New("").Extract([]string{"IT101 24/30"})
	if s.StudentID != UnknownStudent {
		t.Fatalf("expected student %q, got %q", UnknownStudent, s.StudentID)
	}
	if len(s.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(s.Records))
	}
	r := s.Records[0]
	if r.SubjectCode != "IT101" || r.ClassType != attendance.Lecture || r.Attended != 24 || r.Total != 30 || r.Percentage != 80.0 {
		t.Fatalf("unexpected record %+v", r)
	}
}

func TestExtractPracticalLine(t *testing.T) {
	s := New("unknown").Extract([]string{"CE263 LAB 9/10"})
	if len(s.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(s.Records))
	}
	r := s.Records[0]
	if r.ClassType != attendance.Practical || r.Percentage != 90.0 {
		t.Fatalf("unexpected record %+v", r)
	}
}

func TestExtractOverall(t *testing.T) {
	s := New("unknown").Extract([]string{"IT101 24/30", "CE263 LAB 9/10"})
	if s.OverallPercentage != 82.5 {
		t.Fatalf("expected 82.5, got %v", s.OverallPercentage)
	}
}

func TestExtractDeduplicatesFirstWins(t *testing.T) {
	s := New("unknown").Extract([]string{"IT101 24/30", "IT101 10/30"})
	if len(s.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(s.Records))
	}
	if s.Records[0].Attended != 24 {
		t.Fatalf("expected first occurrence (24), got %d", s.Records[0].Attended)
	}
}

func TestExtractSkipsLinesWithoutCounts(t *testing.T) {
	s := New("unknown").Extract([]string{"IT101 Data Structures", "IT101 20/25", "MA201 0/0", "no subject 5/6"})
	if len(s.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(s.Records))
	}
	if s.Records[0].Attended != 20 {
		t.Fatalf("expected the counted IT101 line to win, got %+v", s.Records[0])
	}
}

func TestExtractEmpty(t *testing.T) {
	s := New("unknown").Extract(nil)
	if len(s.Records) != 0 || s.OverallPercentage != 0 {
		t.Fatalf("expected empty result, got %+v", s)
	}
}

func TestSubjectCascade(t *testing.T) {
	cases := []struct {
		line, code, strategy string
	}{
		{"IT101 24/30", "IT101", "adjoining"},
		{"it356 3/4", "IT356", "adjoining"},
		{"HS131.02 DS 10/12", "HS131.02", "adjoining"},
		{"CSE/205 10/12", "CSE205", "slash"},
		{"ce - 263 lab 9/10", "CE263", "dash"},
		{"MA 201 18/20", "MA201", "space"},
		{"xIT101 24/30", "IT101", "substring"},
		{"course:IT: 359 5/9", "IT359", "substring"},
	}
	for _, c := range cases {
		sm, ok := FindSubject(c.line)
		if !ok {
			t.Fatalf("%q: expected a subject", c.line)
		}
		if sm.Code != c.code || sm.Strategy != c.strategy {
			t.Fatalf("%q: expected %s via %s, got %s via %s", c.line, c.code, c.strategy, sm.Code, sm.Strategy)
		}
	}
	if _, ok := FindSubject("Lecture total 24/30"); ok {
		t.Fatal("expected no subject when letters follow a prefix")
	}
	if _, ok := FindSubject("IT            101"); !ok {
		t.Fatal("expected the space strategy to match")
	}
}

func TestCountCascade(t *testing.T) {
	cases := []struct {
		line      string
		a, t      int
		wantMatch bool
	}{
		{"24 / 30", 24, 30, true},
		{"24 out of 30", 24, 30, true},
		{"Attended 7 OUT OF 9", 7, 9, true},
		{"present: 12 total: 15", 12, 15, true},
		{"nothing here", 0, 0, false},
	}
	for _, c := range cases {
		a, tot, ok := FindCounts(c.line)
		if ok != c.wantMatch || a != c.a || tot != c.t {
			t.Fatalf("%q: expected %d/%d (%v), got %d/%d (%v)", c.line, c.a, c.t, c.wantMatch, a, tot, ok)
		}
	}
}

func TestDetectClassType(t *testing.T) {
	for _, l := range []string{"CE263 LAB", "Practical", "IT101 practice", "Workshop IT2", "PRAC"} {
		if DetectClassType(l) != attendance.Practical {
			t.Fatalf("%q: expected PRACTICAL", l)
		}
	}
	if DetectClassType("IT101 24/30") != attendance.Lecture {
		t.Fatal("expected LECTURE")
	}
}

func TestFromTextAndLinesAgree(t *testing.T) {
	text := "IT101 24/30\nCE263 LAB 9/10"
	a := New("unknown").FromText(text)
	b := New("unknown").FromLines([]ocr.Line{{Text: "IT101 24/30"}, {Text: "CE263 LAB 9/10"}})
	if len(a.Records) != 2 || len(b.Records) != 2 || a.OverallPercentage != b.OverallPercentage {
		t.Fatalf("expected identical results, got %+v and %+v", a, b)
	}
}

func TestSplitLinesWithoutNewlines(t *testing.T) {
	lines := SplitLines("IT101 24/30 CE263 LAB 9/10")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "IT101 24/30" || lines[1] != "CE263 LAB 9/10" {
		t.Fatalf("unexpected split %q", lines)
	}
	if got := SplitLines("a\n\n b \n"); len(got) != 2 {
		t.Fatalf("expected blank lines dropped, got %q", got)
	}
}

func TestBaseCourse(t *testing.T) {
	if got := BaseCourse("IT355 / SNT"); got != "IT355" {
		t.Fatalf("expected IT355, got %q", got)
	}
	if got := BaseCourse("CE263"); got != "CE263" {
		t.Fatalf("expected CE263, got %q", got)
	}
}
