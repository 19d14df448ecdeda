package analyzer

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/local/attendplanner/internal/ocr"
	"github.com/local/attendplanner/internal/planner"
	"github.com/local/attendplanner/internal/schedule"
	"github.com/local/attendplanner/internal/store"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /plan", s.handlePlan)
	mux.HandleFunc("GET /records/{studentID}", s.handleRecords)
	mux.HandleFunc("GET /record/{id}", s.handleRecord)
	mux.HandleFunc("GET /schedules", s.handleDepartments)
	mux.HandleFunc("GET /schedules/{department}", s.handleSchedule)
}

func (s *Service) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUpload)
	if err := r.ParseMultipartForm(s.opts.MaxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "screenshot exceeds upload limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("screenshot")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No screenshot provided")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read screenshot")
		return
	}

	up := Upload{
		Data:       data,
		Filename:   header.Filename,
		StudentID:  strings.TrimSpace(r.FormValue("student_id")),
		Department: strings.TrimSpace(r.FormValue("department")),
		Desired:    s.opts.DefaultDesired,
		Weeks:      s.opts.DefaultWeeks,
	}
	if v := r.FormValue("desiredAttendance"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "desiredAttendance must be a number")
			return
		}
		up.Desired = f
	}
	if v := r.FormValue("timeFrame"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "timeFrame must be a whole number of weeks")
			return
		}
		up.Weeks = n
	}

	res, err := s.Analyze(r.Context(), up)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: res})
}

func (s *Service) handlePlan(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req PlanRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	plan, err := s.Plan(r.Context(), req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: plan})
}

func (s *Service) handleRecords(w http.ResponseWriter, r *http.Request) {
	if s.deps.Records == nil {
		writeError(w, http.StatusServiceUnavailable, "record storage is not configured")
		return
	}
	limit := store.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	recs, err := s.deps.Records.ListByStudent(r.Context(), r.PathValue("studentID"), limit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: recs})
}

func (s *Service) handleRecord(w http.ResponseWriter, r *http.Request) {
	if s.deps.Records == nil {
		writeError(w, http.StatusServiceUnavailable, "record storage is not configured")
		return
	}
	rec, err := s.deps.Records.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: rec})
}

func (s *Service) handleDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := s.deps.Schedules.ListDepartments(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: depts})
}

func (s *Service) handleSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := s.deps.Schedules.GetSchedule(r.Context(), r.PathValue("department"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: sched})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var (
		reqErr   *RequestError
		inputErr *planner.InputError
		typeErr  *UnsupportedTypeError
		readErr  *UnreadableError
	)
	switch {
	case errors.As(err, &reqErr), errors.As(err, &inputErr):
		return http.StatusBadRequest
	case errors.As(err, &typeErr):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &readErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, schedule.ErrNotFound), errors.Is(err, store.ErrRecordNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	var ee *ocr.ExtractionError
	if status == http.StatusInternalServerError {
		if errors.As(err, &ee) {
			msg = "text recognition failed"
		} else {
			msg = "internal error"
		}
		log.Error().Err(err).Msg("request failed")
	}
	writeError(w, status, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
