package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/KaramelBytes/tdprofiler/internal/errors"
	"github.com/KaramelBytes/tdprofiler/internal/insights"
	"github.com/KaramelBytes/tdprofiler/internal/jobs"
	"github.com/KaramelBytes/tdprofiler/internal/parser"
	"github.com/KaramelBytes/tdprofiler/internal/report"
	"github.com/KaramelBytes/tdprofiler/internal/utils"
)

var (
	errJobNotFound    = apperrors.NotFound("Job")
	errJobNotComplete = apperrors.New(apperrors.CodeNotFound, "Job not found or not completed")
	errProfileMissing = apperrors.New(apperrors.CodeNotFound, "Profiling job not found or not completed")
	errColumnNotFound = apperrors.NotFound("Column")
	errFileRequired   = apperrors.InvalidInput("file is required")
)

// UploadResponse acknowledges an accepted upload.
type UploadResponse struct {
	JobID            string      `json:"job_id"`
	Status           jobs.Status `json:"status"`
	Filename         string      `json:"filename"`
	FileSizeBytes    int64       `json:"file_size_bytes"`
	EstimatedTimeSec int         `json:"estimated_time_sec"`
	ProgressURL      string      `json:"progress_url"`
}

// InsightsResponse wraps generated insights with the model that produced them.
type InsightsResponse struct {
	JobID     string            `json:"job_id"`
	ModelUsed string            `json:"model_used"`
	Insights  insights.Insights `json:"insights"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to TD Profiler API"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || r.ContentLength > s.cfg.MaxUploadBytes {
			writeDetail(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File exceeds the %d MB upload limit", s.cfg.MaxUploadBytes>>20))
			return
		}
		writeError(w, errFileRequired)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperrors.Wrap(err, "read upload"))
		return
	}
	name := filepath.Base(header.Filename)
	job := s.jobs.Create(name, int64(len(content)))

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		s.runProfile(job.ID, name, content)
	}()

	writeJSON(w, http.StatusOK, UploadResponse{
		JobID:            job.ID,
		Status:           job.Status,
		Filename:         job.Filename,
		FileSizeBytes:    job.SizeBytes,
		EstimatedTimeSec: estimatedSeconds,
		ProgressURL:      "/api/profile/" + job.ID,
	})
}

// runProfile parses and profiles one upload and records the outcome.
func (s *Server) runProfile(id, name string, content []byte) {
	log := s.log.WithJob(id).WithFile(name)
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorw("profiling panicked", "panic", rec)
			s.jobs.Fail(id, fmt.Errorf("profiling panicked: %v", rec))
		}
	}()

	t, err := parser.ParseBytes(name, content)
	if err != nil {
		log.Warnw("profiling failed", "error", err)
		s.jobs.Fail(id, err)
		return
	}
	p := s.profiler.Profile(t)
	if !s.jobs.Complete(id, p) {
		log.Warn("job expired before profiling finished")
		return
	}
	log.Infow("profiling completed",
		"rows", p.Summary.RowCount,
		"columns", p.Summary.ColumnCount,
		"quality_score", p.Summary.QualityScore,
		"duration", time.Since(start),
	)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(chi.URLParam(r, "job_id"))
	if !ok {
		writeError(w, errJobNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// completedJob returns the job only when its profile is available.
func (s *Server) completedJob(r *http.Request) (jobs.Job, bool) {
	job, ok := s.jobs.Get(chi.URLParam(r, "job_id"))
	if !ok || job.Status != jobs.StatusCompleted || job.Result == nil {
		return jobs.Job{}, false
	}
	return job, true
}

func (s *Server) handleColumn(w http.ResponseWriter, r *http.Request) {
	job, ok := s.completedJob(r)
	if !ok {
		writeError(w, errJobNotComplete)
		return
	}
	col, ok := job.Result.Column(chi.URLParam(r, "column_name"))
	if !ok {
		writeError(w, errColumnNotFound)
		return
	}
	writeJSON(w, http.StatusOK, col)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	job, ok := s.completedJob(r)
	if !ok {
		writeError(w, errProfileMissing)
		return
	}
	gen := s.insights
	if gen == nil {
		gen = insights.NewGenerator(nil, insights.Config{}, s.log)
	}
	model := gen.ResolveModel(r.URL.Query().Get("model"))
	out, err := gen.Generate(r.Context(), job.Result, model)
	if err != nil {
		s.log.WithJob(job.ID).Warnw("serving fallback insights", "model", model, "error", err)
	}
	writeJSON(w, http.StatusOK, InsightsResponse{JobID: job.ID, ModelUsed: model, Insights: out})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	job, ok := s.completedJob(r)
	if !ok {
		writeError(w, errJobNotComplete)
		return
	}
	f, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, apperrors.UnsupportedFormat(err.Error()))
		return
	}
	body, err := report.Render(f, job.Filename, job.Result)
	if err != nil {
		writeError(w, apperrors.Wrap(err, "render report"))
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", utils.ReplaceExt(job.Filename, "_profile"+f.Extension())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
