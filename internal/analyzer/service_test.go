package analyzer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"

	"github.com/local/attendplanner/internal/attendance"
	"github.com/local/attendplanner/internal/ocr"
	"github.com/local/attendplanner/internal/planner"
	"github.com/local/attendplanner/internal/schedule"
	"github.com/local/attendplanner/internal/store"
	"github.com/local/attendplanner/internal/structuring"
)

type fakeRecognizer struct {
	tokens []ocr.Token
	err    error
	calls  int
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ []byte) ([]ocr.Token, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

func (f *fakeRecognizer) Close() error { return nil }

type fakeArchive struct {
	keys []string
	err  error
}

func (f *fakeArchive) UploadScreenshot(_ context.Context, studentID, _, ext, _ string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	k := "screenshots/" + studentID + "/x" + ext
	f.keys = append(f.keys, k)
	return k, nil
}

func dashboardTokens() []ocr.Token {
	tok := func(text string, x, y float64) ocr.Token {
		return ocr.Token{Text: text, Position: ocr.Point{X: x, Y: y}, Confidence: 0.9}
	}
	return []ocr.Token{
		tok("24/30", 200, 12),
		tok("IT355", 10, 10),
		tok("IT356", 10, 60),
		tok("Lab", 100, 60),
		tok("9/10", 200, 61),
	}
}

func pngBytes(t *testing.T) []byte { return pngSized(t, 4) }

func pngSized(t *testing.T, size int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, size, size))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type fixture struct {
	svc     *Service
	rec     *fakeRecognizer
	archive *fakeArchive
	records *store.RecordStore
}

func newFixture(t *testing.T, useVariants bool) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	src := schedule.NewMemorySource(schedule.DefaultSchedules()...)

	f := &fixture{
		rec:     &fakeRecognizer{tokens: dashboardTokens()},
		archive: &fakeArchive{},
		records: store.NewRecordStore(rdb, 0),
	}
	opts := DefaultOptions()
	opts.UseVariants = useVariants
	f.svc = New(Dependencies{
		Recognizer: f.rec,
		Structurer: structuring.NewRouter(nil),
		Calculator: planner.NewCalculator(src),
		Schedules:  src,
		Records:    f.records,
		Cache:      store.NewTextCache(rdb, 0),
		Archive:    f.archive,
	}, opts)
	return f
}

func TestAnalyzeEndToEnd(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	res, err := f.svc.Analyze(ctx, Upload{Data: pngBytes(t), StudentID: "22IT001", Department: "4IT", Desired: 75, Weeks: 4})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Source != structuring.SourceFallback {
		t.Fatalf("expected fallback source without providers, got %s", res.Source)
	}
	att := res.Attendance
	if att.StudentID != "22IT001" || len(att.Records) != 2 || att.OverallPercentage != 82.5 {
		t.Fatalf("unexpected attendance: %+v", att)
	}
	if att.Records[1].SubjectCode != "IT356" || att.Records[1].ClassType != attendance.Practical {
		t.Fatalf("unexpected second record: %+v", att.Records[1])
	}

	// 4IT has 22 classes a week: 88 future, 0.75*128=96 needed, 63 more, 25 skippable
	sum := res.Recommendations.Summary
	if sum.FutureClasses != 88 || sum.AdditionalClassesNeeded != 63 || sum.AllowedSkips != 25 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if res.RecordID == "" || len(f.archive.keys) != 1 || res.ArchiveKey != f.archive.keys[0] {
		t.Fatalf("expected record and archive key, got %+v", res)
	}
	saved, err := f.records.Get(ctx, res.RecordID)
	if err != nil || saved.Department != "4IT" {
		t.Fatalf("expected saved record, got %+v (%v)", saved, err)
	}
}

func TestAnalyzePoolsVariants(t *testing.T) {
	f := newFixture(t, true)
	res, err := f.svc.Analyze(context.Background(), Upload{Data: pngBytes(t), Department: "4IT", Desired: 75, Weeks: 4})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if f.rec.calls != 3 {
		t.Fatalf("expected 3 variant recognitions, got %d", f.rec.calls)
	}
	if len(res.Attendance.Records) != 2 || res.Attendance.StudentID != "123" {
		t.Fatalf("unexpected attendance: %+v", res.Attendance)
	}
}

func TestAnalyzeUsesTextCache(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	up := Upload{Data: pngBytes(t), Department: "4IT", Desired: 75, Weeks: 4}

	if _, err := f.svc.Analyze(ctx, up); err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	if _, err := f.svc.Analyze(ctx, up); err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if f.rec.calls != 1 {
		t.Fatalf("expected the recognizer to run once, got %d", f.rec.calls)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.Analyze(ctx, Upload{Data: pngBytes(t), Department: "9XX", Desired: 75, Weeks: 4})
	if !errors.Is(err, schedule.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = f.svc.Analyze(ctx, Upload{Data: []byte("IT101 24/30"), Department: "4IT", Desired: 75, Weeks: 4})
	var ut *UnsupportedTypeError
	if !errors.As(err, &ut) {
		t.Fatalf("expected UnsupportedTypeError, got %v", err)
	}

	_, err = f.svc.Analyze(ctx, Upload{Data: pngBytes(t), Department: "4IT", Desired: 0, Weeks: 4})
	var ie *planner.InputError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InputError, got %v", err)
	}

	// a different image so the cached text of the first upload is not reused
	f.rec.err = errors.New("engine crashed")
	_, err = f.svc.Analyze(ctx, Upload{Data: pngSized(t, 5), Department: "4IT", Desired: 75, Weeks: 4})
	var ee *ocr.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestAnalyzeIgnoresArchiveFailure(t *testing.T) {
	f := newFixture(t, false)
	f.archive.err = errors.New("access denied")
	res, err := f.svc.Analyze(context.Background(), Upload{Data: pngBytes(t), Department: "4IT", Desired: 75, Weeks: 4})
	if err != nil {
		t.Fatalf("expected archive failure to be ignored, got %v", err)
	}
	if res.ArchiveKey != "" || res.RecordID == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestPlanNormalisesPercentages(t *testing.T) {
	f := newFixture(t, false)
	desired := 75.0
	weeks := 4
	plan, err := f.svc.Plan(context.Background(), PlanRequest{
		Department: "4IT",
		Attendance: attendance.Structured{Records: []attendance.Record{
			{SubjectName: "IT355", ClassType: attendance.Lecture, Attended: 24, Total: 30, Percentage: 12},
			{SubjectName: "IT356", ClassType: attendance.Practical, Attended: 9, Total: 10},
		}},
		Desired: &desired,
		Weeks:   &weeks,
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Summary.AllowedSkips != 25 || len(plan.Recommendations) != 2 {
		t.Fatalf("unexpected plan: %+v", plan.Summary)
	}
}
