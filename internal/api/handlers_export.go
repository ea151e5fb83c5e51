package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"panelforge/internal/geometry"
	"panelforge/internal/pipeline"
)

// handleExport accepts a multipart form with a "manifest" YAML file and the
// "meshes" files it references, and queues an export job. Uploaded mesh
// filenames are flattened to their base names, so the manifest must reference
// them without directories.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	manifestFile, _, err := r.FormFile("manifest")
	if err != nil {
		jsonError(w, "manifest is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer manifestFile.Close()

	manifestData, err := io.ReadAll(io.LimitReader(manifestFile, 1<<20))
	if err != nil {
		jsonError(w, "failed to read manifest", http.StatusInternalServerError)
		return
	}

	meshes := make(map[string][]byte)
	var total int64
	for _, fh := range r.MultipartForm.File["meshes"] {
		filename := sanitizeFilename(fh.Filename)
		if !geometry.IsSupportedExtension(filename) {
			jsonError(w, fmt.Sprintf("unsupported mesh format: %s", filepath.Ext(filename)), http.StatusBadRequest)
			return
		}
		f, err := fh.Open()
		if err != nil {
			jsonError(w, "failed to open mesh file "+filename, http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil {
			jsonError(w, "failed to read mesh file "+filename, http.StatusInternalServerError)
			return
		}
		total += int64(len(data))
		if total > s.cfg.MaxUploadBytes {
			jsonError(w, fmt.Sprintf("upload exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		meshes[filename] = data
	}

	job := pipeline.NewJob(manifestData, meshes)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/export/%s/status", job.ID),
	})
}

func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

// handleExportFile serves the written IFC file once the job completes.
func (s *Server) handleExportFile(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	path := job.OutputPath()
	if job.Snapshot().Status != pipeline.StatusCompleted || path == "" {
		jsonError(w, "export not completed", http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "application/x-step")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// handleExportReport renders the job's markdown run summary as HTML.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	report := job.Report()
	if report == "" {
		jsonError(w, "no report available", http.StatusConflict)
		return
	}
	var html strings.Builder
	if err := goldmark.Convert([]byte(report), &html); err != nil {
		jsonError(w, "failed to render report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, html.String())
}

func (s *Server) handleExportStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"exports":     s.orchestrator.Stats().Snapshot(),
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
