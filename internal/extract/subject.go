package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Prefixes is the allow-list of department/course letter groups. Longer
// prefixes come first so that CSE wins over CS.
var Prefixes = []string{"CSE", "HS", "IT", "MA", "EC", "DS", "WT", "CE", "CS", "ME", "EE"}

// fallbackWindow bounds how far after a bare prefix the digit run may start.
const fallbackWindow = 10

// SubjectMatch is a recovered subject code plus the span it occupied in the line.
type SubjectMatch struct {
	Code       string
	Start, End int
	Strategy   string
}

// SubjectMatcher is one strategy of the subject-code cascade.
type SubjectMatcher struct {
	Name  string
	Match func(line string) (SubjectMatch, bool)
}

var digitRun = regexp.MustCompile(`\d+(?:\.\d+)?`)

func prefixAlternation() string {
	quoted := make([]string, len(Prefixes))
	for i, p := range Prefixes {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(quoted, "|")
}

func regexMatcher(name, sep string) SubjectMatcher {
	re := regexp.MustCompile(`(?i)\b(` + prefixAlternation() + `)` + sep + `(\d+(?:\.\d+)?)`)
	return SubjectMatcher{
		Name: name,
		Match: func(line string) (SubjectMatch, bool) {
			m := re.FindStringSubmatchIndex(line)
			if m == nil {
				return SubjectMatch{}, false
			}
			code := strings.ToUpper(line[m[2]:m[3]]) + line[m[4]:m[5]]
			return SubjectMatch{Code: code, Start: m[0], End: m[1], Strategy: name}, true
		},
	}
}

// substringMatcher finds any known prefix anywhere in the line and takes the
// digit run that follows it within fallbackWindow characters. Only spaces and
// punctuation may sit between the prefix and the digits.
func substringMatcher() SubjectMatcher {
	return SubjectMatcher{
		Name: "substring",
		Match: func(line string) (SubjectMatch, bool) {
			best := SubjectMatch{Start: -1}
			for _, p := range Prefixes {
				for from := 0; from < len(line); {
					idx := indexFold(line, p, from)
					if idx < 0 {
						break
					}
					from = idx + len(p)
					if best.Start >= 0 && idx >= best.Start {
						break
					}
					if run, end, ok := digitsAfter(line, idx+len(p)); ok {
						best = SubjectMatch{Code: p + run, Start: idx, End: end, Strategy: "substring"}
						break
					}
				}
			}
			return best, best.Start >= 0
		},
	}
}

// indexFold is a case-insensitive strings.Index for an ASCII needle.
func indexFold(s, needle string, from int) int {
	for i := from; i+len(needle) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func digitsAfter(line string, from int) (string, int, bool) {
	limit := from + fallbackWindow
	if limit > len(line) {
		limit = len(line)
	}
	for i := from; i < limit; i++ {
		c := line[i]
		switch {
		case c >= '0' && c <= '9':
			loc := digitRun.FindStringIndex(line[i:])
			return line[i : i+loc[1]], i + loc[1], true
		case unicode.IsLetter(rune(c)) || c >= utf8.RuneSelf:
			return "", 0, false
		}
	}
	return "", 0, false
}

// SubjectCascade lists the strategies in priority order.
var SubjectCascade = []SubjectMatcher{
	regexMatcher("adjoining", ``),
	regexMatcher("slash", `\s*/\s*`),
	regexMatcher("dash", `\s*-\s*`),
	regexMatcher("space", `\s+`),
	substringMatcher(),
}

// FindSubject runs the cascade and returns the first hit.
func FindSubject(line string) (SubjectMatch, bool) {
	for _, m := range SubjectCascade {
		if sm, ok := m.Match(line); ok {
			return sm, true
		}
	}
	return SubjectMatch{}, false
}

// BaseCourse returns the part of a subject name before the first separator.
func BaseCourse(subjectName string) string {
	if i := strings.IndexAny(subjectName, "/|"); i >= 0 {
		subjectName = subjectName[:i]
	}
	return strings.TrimSpace(subjectName)
}
