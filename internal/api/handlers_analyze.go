package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/statutefinder/internal/citation"
	"github.com/dgallion1/statutefinder/internal/parser"
	"github.com/dgallion1/statutefinder/internal/report"
)

// rawTextFilename names request bodies posted as text/plain.
const rawTextFilename = "input.txt"

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"formats":        s.orchestrator.Worker().Loader().Capabilities(),
		"report_formats": report.Formats(),
	})
}

// handleAnalyze analyses an upload synchronously and returns the report.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	renderer, err := rendererFor(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	filename, data, status, err := s.readUpload(w, r)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	res, err := s.orchestrator.Worker().Analyze(r.Context(), filename, data, nil)
	if res == nil {
		jsonError(w, err.Error(), loaderStatus(err))
		return
	}
	if err != nil {
		s.log.Warn("analysis not archived", "filename", filename, "error", err)
	}

	writeReport(w, renderer, res.Analysis)
}

// readUpload returns the uploaded file from a multipart "file" field, or the
// raw body for any other content type.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, int, error) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
		if err != nil {
			return "", nil, http.StatusBadRequest, fmt.Errorf("failed to read body: %w", err)
		}
		if int64(len(data)) > s.cfg.MaxUploadBytes {
			return "", nil, http.StatusRequestEntityTooLarge, fmt.Errorf("body exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
		}
		filename := rawTextFilename
		if name := r.URL.Query().Get("filename"); name != "" {
			filename = sanitizeFilename(name)
		}
		return filename, data, 0, nil
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return "", nil, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, http.StatusBadRequest, fmt.Errorf("file is required: %w", err)
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		return "", nil, http.StatusBadRequest, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return "", nil, http.StatusInternalServerError, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return "", nil, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}
	return filename, data, 0, nil
}

func rendererFor(r *http.Request) (report.Renderer, error) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	return report.ForFormat(format, report.Options{})
}

func writeReport(w http.ResponseWriter, renderer report.Renderer, a *citation.Analysis) {
	out, err := renderer.Render(a)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	io.WriteString(w, out)
}

// loaderStatus maps loader errors onto HTTP status codes.
func loaderStatus(err error) int {
	switch {
	case errors.Is(err, parser.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, parser.ErrMissingCapability):
		return http.StatusNotImplemented
	case errors.Is(err, parser.ErrExtractionFailure):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
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
