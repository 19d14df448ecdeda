// Package analyzer runs the screenshot to skip-plan pipeline and serves it over HTTP.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/attendplanner/internal/attendance"
	"github.com/local/attendplanner/internal/filetype"
	"github.com/local/attendplanner/internal/imagerender"
	mpkg "github.com/local/attendplanner/internal/metrics"
	"github.com/local/attendplanner/internal/ocr"
	"github.com/local/attendplanner/internal/planner"
	"github.com/local/attendplanner/internal/preprocess"
	"github.com/local/attendplanner/internal/schedule"
	"github.com/local/attendplanner/internal/store"
	"github.com/local/attendplanner/internal/structuring"
)

type Structurer interface {
	Route(ctx context.Context, rawText string) structuring.Outcome
}

type Calculator interface {
	Calculate(ctx context.Context, s attendance.Structured, department string, desired float64, weeks int) (planner.SkipPlan, error)
}

type RecordStore interface {
	Save(ctx context.Context, studentID, department string, data attendance.Structured, plan planner.SkipPlan) (string, error)
	Get(ctx context.Context, id string) (store.Record, error)
	ListByStudent(ctx context.Context, studentID string, limit int) ([]store.Record, error)
}

type TextCache interface {
	Get(ctx context.Context, contentKey string) (string, bool, error)
	Set(ctx context.Context, contentKey, text string) error
}

type Archive interface {
	UploadScreenshot(ctx context.Context, studentID, contentType, ext, originalName string, data []byte) (string, error)
}

// Dependencies wires the pipeline. Cache and Archive are optional.
type Dependencies struct {
	Recognizer ocr.Recognizer
	Structurer Structurer
	Calculator Calculator
	Schedules  schedule.Source
	Records    RecordStore
	Cache      TextCache
	Archive    Archive
}

type Options struct {
	// UseVariants recognises grayscale/threshold/upscale variants instead of the raw upload.
	UseVariants bool
	Variants    preprocess.Options
	PDFDPI      int
	PDFMaxPages int
	MaxUpload   int64

	DefaultStudentID string
	DefaultDesired   float64
	DefaultWeeks     int
}

func DefaultOptions() Options {
	return Options{
		UseVariants:      true,
		Variants:         preprocess.DefaultOptions(),
		PDFDPI:           150,
		PDFMaxPages:      5,
		MaxUpload:        16 << 20,
		DefaultStudentID: "123",
		DefaultDesired:   75,
		DefaultWeeks:     4,
	}
}

type Service struct {
	deps Dependencies
	opts Options
}

func New(deps Dependencies, opts Options) *Service {
	return &Service{deps: deps, opts: opts}
}

// Upload is one screenshot (or PDF export) to analyse.
type Upload struct {
	Data       []byte
	Filename   string
	StudentID  string
	Department string
	Desired    float64
	Weeks      int
}

// Analysis is the result returned to clients and stored as a record.
type Analysis struct {
	RecordID        string                `json:"record_id,omitempty"`
	Source          string                `json:"source"`
	Attendance      attendance.Structured `json:"attendance"`
	Recommendations planner.SkipPlan      `json:"recommendations"`
	ArchiveKey      string                `json:"archive_key,omitempty"`
}

// Analyze recognises text, structures it, plans skips and saves the result.
func (s *Service) Analyze(ctx context.Context, up Upload) (Analysis, error) {
	start := time.Now()
	defer func() { mpkg.ObserveAnalyze(time.Since(start)) }()

	if up.Department == "" {
		return Analysis{}, &RequestError{Msg: "Department is required"}
	}
	if up.StudentID == "" {
		up.StudentID = s.opts.DefaultStudentID
	}
	if err := planner.Validate(up.Desired, up.Weeks); err != nil {
		return Analysis{}, err
	}

	info := filetype.Detect(up.Data)
	if !info.Supported() {
		return Analysis{}, &UnsupportedTypeError{MIMEType: info.MIMEType}
	}

	text, err := s.recognize(ctx, up.Data, info)
	if err != nil {
		return Analysis{}, err
	}

	out := s.deps.Structurer.Route(ctx, text)
	data := out.Attendance
	data.StudentID = up.StudentID

	plan, err := s.deps.Calculator.Calculate(ctx, data, up.Department, up.Desired, up.Weeks)
	if err != nil {
		return Analysis{}, err
	}

	res := Analysis{Source: out.Source, Attendance: data, Recommendations: plan}
	if s.deps.Archive != nil {
		key, err := s.deps.Archive.UploadScreenshot(ctx, up.StudentID, info.MIMEType, info.Extension, up.Filename, up.Data)
		if err != nil {
			log.Warn().Err(err).Str("student_id", up.StudentID).Msg("screenshot archive failed")
		}
		res.ArchiveKey = key
	}
	if s.deps.Records != nil {
		id, err := s.deps.Records.Save(ctx, up.StudentID, up.Department, data, plan)
		if err != nil {
			return Analysis{}, fmt.Errorf("save record: %w", err)
		}
		res.RecordID = id
	}

	log.Info().
		Str("student_id", up.StudentID).
		Str("department", up.Department).
		Str("source", out.Source).
		Int("records", len(data.Records)).
		Str("record_id", res.RecordID).
		Dur("duration", time.Since(start)).
		Msg("attendance analysed")
	return res, nil
}

// recognize returns the text of an upload, from cache when the same bytes were seen before.
func (s *Service) recognize(ctx context.Context, data []byte, info filetype.Info) (string, error) {
	key := store.ContentKey(data)
	if s.deps.Cache != nil {
		text, ok, err := s.deps.Cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("text cache read failed")
		} else if ok {
			log.Debug().Str("content_key", key).Msg("text cache hit")
			return text, nil
		}
	}

	pages := [][]byte{data}
	if info.Kind == filetype.KindPDF {
		n, err := imagerender.PageCount(data)
		if err != nil {
			return "", &UnreadableError{Err: err}
		}
		if s.opts.PDFMaxPages > 0 && n > s.opts.PDFMaxPages {
			return "", &RequestError{Msg: (&imagerender.TooManyPagesError{Pages: n, Max: s.opts.PDFMaxPages}).Error()}
		}
		// exported dashboards carry a text layer; only scans need recognition
		if text, err := imagerender.ExtractText(data); err == nil && text != "" {
			log.Info().Int("chars", len(text)).Msg("using PDF text layer")
			s.cacheText(ctx, key, text)
			return text, nil
		}
		rendered, err := imagerender.RenderPages(data, s.opts.PDFDPI, s.opts.PDFMaxPages)
		if err != nil {
			return "", &UnreadableError{Err: err}
		}
		pages = rendered
	}

	inputs := make([][]ocr.Variant, 0, len(pages))
	for _, p := range pages {
		if !s.opts.UseVariants {
			inputs = append(inputs, []ocr.Variant{{Data: p, Scale: 1}})
			continue
		}
		encoded, err := preprocess.EncodeVariants(p, s.opts.Variants)
		if err != nil {
			return "", &UnreadableError{Err: err}
		}
		variants := make([]ocr.Variant, 0, len(encoded))
		for _, e := range encoded {
			variants = append(variants, ocr.Variant{Data: e.Data, Scale: e.Scale})
		}
		inputs = append(inputs, variants)
	}

	lines, tokens, err := ocr.NewScanner(s.deps.Recognizer).ScanPages(ctx, inputs)
	if err != nil {
		return "", err
	}
	mpkg.AddTokens(tokens)
	text := ocr.JoinLines(lines)
	log.Info().Int("pages", len(pages)).Int("tokens", tokens).Int("lines", len(lines)).Msg("text recognised")

	s.cacheText(ctx, key, text)
	return text, nil
}

func (s *Service) cacheText(ctx context.Context, key, text string) {
	if s.deps.Cache == nil || text == "" {
		return
	}
	if err := s.deps.Cache.Set(ctx, key, text); err != nil {
		log.Warn().Err(err).Msg("text cache write failed")
	}
}

// PlanRequest is an already structured payload to plan against.
type PlanRequest struct {
	Department string                `json:"department"`
	Attendance attendance.Structured `json:"attendance"`
	Desired    *float64              `json:"desiredAttendance"`
	Weeks      *int                  `json:"timeFrame"`
}

// Plan runs the calculator on structured data. Percentages are derived again from the counts.
func (s *Service) Plan(ctx context.Context, req PlanRequest) (planner.SkipPlan, error) {
	if req.Department == "" {
		return planner.SkipPlan{}, &RequestError{Msg: "Department is required"}
	}
	desired, weeks := s.opts.DefaultDesired, s.opts.DefaultWeeks
	if req.Desired != nil {
		desired = *req.Desired
	}
	if req.Weeks != nil {
		weeks = *req.Weeks
	}
	recs := make([]attendance.Record, 0, len(req.Attendance.Records))
	for _, r := range req.Attendance.Records {
		if r.Attended < 0 || r.Total < 0 {
			return planner.SkipPlan{}, &RequestError{Msg: fmt.Sprintf("record %s has negative counts", r.SubjectName)}
		}
		recs = append(recs, attendance.NewRecord(r.SubjectCode, r.SubjectName, r.ClassType, r.Attended, r.Total))
	}
	data := attendance.Summarize(req.Attendance.StudentID, recs)
	return s.deps.Calculator.Calculate(ctx, data, req.Department, desired, weeks)
}
