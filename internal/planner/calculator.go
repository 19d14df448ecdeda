// Package planner computes how many future classes a student may skip.
package planner

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/local/attendplanner/internal/attendance"
	"github.com/local/attendplanner/internal/extract"
	mpkg "github.com/local/attendplanner/internal/metrics"
	"github.com/local/attendplanner/internal/schedule"
)

const (
	cannotMissBelow = 75.0
	safeAbove       = 90.0
	canSkipAbove    = 85.0
)

// Calculator resolves department schedules and builds skip plans.
type Calculator struct {
	schedules schedule.Source
}

func NewCalculator(src schedule.Source) *Calculator {
	return &Calculator{schedules: src}
}

// Calculate fails with schedule.ErrNotFound when the department has no
// schedule and with *InputError for out-of-range arguments.
func (c *Calculator) Calculate(ctx context.Context, s attendance.Structured, department string, desired float64, weeks int) (SkipPlan, error) {
	if err := Validate(desired, weeks); err != nil {
		mpkg.IncPlan("invalid")
		return SkipPlan{}, err
	}
	sched, err := c.schedules.GetSchedule(ctx, department)
	if err != nil {
		mpkg.IncPlan("no_schedule")
		log.Warn().Err(err).Str("department", department).Msg("cannot calculate skips")
		return SkipPlan{}, err
	}

	plan := Plan(s, sched.Courses, desired, weeks)
	mpkg.IncPlan("ok")
	log.Info().
		Str("department", department).
		Int("courses", len(plan.Recommendations)).
		Int("future_classes", plan.Summary.FutureClasses).
		Float64("allowed_skips", plan.Summary.AllowedSkips).
		Msg("skip plan calculated")
	return plan, nil
}

type courseTally struct {
	lectAttended, lectTotal int
	labAttended, labTotal   int
}

// Plan is the pure calculation over already loaded course loads.
func Plan(s attendance.Structured, courses []schedule.CourseLoad, desired float64, weeks int) SkipPlan {
	totalAttended, totalClasses := s.Totals()

	current := 0.0
	if totalClasses > 0 {
		current = float64(totalAttended) / float64(totalClasses) * 100
	}
	future := schedule.Project(courses, weeks)
	minimumRequired := desired / 100 * float64(totalClasses+future)
	additional := math.Max(0, minimumRequired-float64(totalAttended))
	allowed := math.Max(0, float64(future)-additional)
	cannotMissAll := float64(future) <= additional

	var order []string
	tallies := make(map[string]*courseTally)
	for _, r := range s.Records {
		base := extract.BaseCourse(r.SubjectName)
		if base == "" {
			base = r.SubjectCode
		}
		t, ok := tallies[base]
		if !ok {
			t = &courseTally{}
			tallies[base] = t
			order = append(order, base)
		}
		if r.ClassType == attendance.Practical {
			t.labAttended += r.Attended
			t.labTotal += r.Total
		} else {
			t.lectAttended += r.Attended
			t.lectTotal += r.Total
		}
	}

	recs := make([]CourseRecommendation, 0, len(order))
	for _, course := range order {
		t := tallies[course]
		lect := subPercentage(t.lectAttended, t.lectTotal)
		lab := subPercentage(t.labAttended, t.labTotal)
		load := schedule.Lookup(courses, course)

		recs = append(recs, CourseRecommendation{
			Course:            course,
			CurrentAttendance: CurrentAttendance{Lectures: lect, Labs: lab},
			WeeklyClasses:     WeeklyClasses{Lectures: load.LecturesPerWeek, Labs: load.LabsPerWeek},
			CanSkip:           above(lect, canSkipAbove) || above(lab, canSkipAbove),
			FutureClasses:     load.PerWeek() * weeks,
			Recommendation:    recommend(lect, lab, cannotMissAll),
		})
	}

	return SkipPlan{
		Summary: Summary{
			CurrentPercentage:       current,
			TotalClasses:            totalClasses,
			TotalAttended:           totalAttended,
			FutureClasses:           future,
			AllowedSkips:            allowed,
			AdditionalClassesNeeded: additional,
		},
		Recommendations: recs,
	}
}

// recommend applies the rules in order: global shortfall, no data, any
// sub-percentage strictly below 75, any strictly above 90.
func recommend(lect, lab Percentage, cannotMissAll bool) Recommendation {
	switch {
	case cannotMissAll:
		return CannotMiss
	case !lect.Valid && !lab.Valid:
		return NoData
	case below(lect, cannotMissBelow) || below(lab, cannotMissBelow):
		return CannotMiss
	case above(lect, safeAbove) || above(lab, safeAbove):
		return SafeToSkip
	}
	return AttendIfPossible
}

func subPercentage(attended, total int) Percentage {
	if total <= 0 {
		return Percentage{}
	}
	return Percentage{Value: float64(attended) * 100 / float64(total), Valid: true}
}

func above(p Percentage, limit float64) bool { return p.Valid && p.Value > limit }
func below(p Percentage, limit float64) bool { return p.Valid && p.Value < limit }
