package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/local/attendplanner/internal/attendance"
)

// practicalIndicators mark a line as a lab/practical session.
var practicalIndicators = []string{"lab", "practical", "practice", "workshop", "prac"}

// DetectClassType is PRACTICAL when any indicator appears, case-insensitively.
func DetectClassType(line string) attendance.ClassType {
	lower := strings.ToLower(line)
	for _, ind := range practicalIndicators {
		if strings.Contains(lower, ind) {
			return attendance.Practical
		}
	}
	return attendance.Lecture
}

// CountMatcher is one strategy of the attended/total cascade.
type CountMatcher struct {
	Name string
	re   *regexp.Regexp
}

func (c CountMatcher) Match(line string) (attended, total int, ok bool) {
	m := c.re.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	a, err1 := strconv.Atoi(m[1])
	t, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return a, t, true
}

// CountCascade lists count patterns in priority order.
var CountCascade = []CountMatcher{
	{Name: "fraction", re: regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)},
	{Name: "out_of", re: regexp.MustCompile(`(?i)(\d+)\s+out\s+of\s+(\d+)`)},
	{Name: "attended_out_of", re: regexp.MustCompile(`(?i)attended\s*:?\s*(\d+)\s+out\s+of\s+(\d+)`)},
	{Name: "present_total", re: regexp.MustCompile(`(?i)present\s*:?\s*(\d+)\D*?total\s*:?\s*(\d+)`)},
}

// FindCounts returns the first attended/total pair found in line.
func FindCounts(line string) (attended, total int, ok bool) {
	for _, c := range CountCascade {
		if a, t, ok := c.Match(line); ok {
			return a, t, true
		}
	}
	return 0, 0, false
}
