package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/statutefinder/internal/archive"
	"github.com/dgallion1/statutefinder/internal/citation"
	"github.com/dgallion1/statutefinder/internal/config"
	"github.com/dgallion1/statutefinder/internal/parser"
	"github.com/dgallion1/statutefinder/internal/pipeline"
	"github.com/dgallion1/statutefinder/internal/stats"
)

type testEnv struct {
	server *Server
	orch   *pipeline.Orchestrator
	store  *archive.Store
}

func newTestEnv(t *testing.T, cfg config.Config, withArchive bool) *testEnv {
	t.Helper()
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 1 << 20
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := stats.New(time.Hour)

	env := &testEnv{}
	var arch pipeline.Archiver
	var history History
	if withArchive {
		store, err := archive.Open(filepath.Join(t.TempDir(), "archive.db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		env.store = store
		arch = store
		history = store
	}

	worker := pipeline.NewWorker(parser.NewLoader(parser.Options{Disabled: []parser.Format{parser.FormatPDF}}), citation.NewAnalyzer(nil), arch, st, log)
	env.orch = pipeline.NewOrchestrator(pipeline.Options{WorkerCount: 1, MaxQueueSize: 4}, worker, log)
	env.orch.Start(context.Background())
	t.Cleanup(env.orch.Stop)

	env.server = NewServer(env.orch, history, st, log, cfg)
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, config.Config{APIKey: "secret"}, false)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t, config.Config{APIKey: "secret"}, false)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/formats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/formats", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, env.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/formats", nil)
	req.Header.Set("Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, env.do(req).Code)
}

func TestFormats(t *testing.T) {
	env := newTestEnv(t, config.Config{}, false)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/formats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	formats := body["formats"].([]any)
	require.Len(t, formats, 5)
	pdf := formats[1].(map[string]any)
	assert.Equal(t, "pdf", pdf["format"])
	assert.Equal(t, false, pdf["available"])
	assert.Equal(t, []any{"json", "text", "yaml"}, body["report_formats"])
}

func TestAnalyze_RawText(t *testing.T) {
	env := newTestEnv(t, config.Config{}, false)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("See 42 USC 1983 and 42 USC 1983."))
	req.Header.Set("Content-Type", "text/plain")

	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	assert.EqualValues(t, 2, body["total_references"])
	assert.EqualValues(t, 1, body["unique_references"])
	xref := body["cross_reference_map"].(map[string]any)
	assert.Len(t, xref["42 USC 1983"], 2)
}

func TestAnalyze_MultipartTextReport(t *testing.T) {
	env := newTestEnv(t, config.Config{}, false)
	body, contentType := multipartBody(t, "file", "memo.md", "# Memo\n\nSee **40 CFR 122.26**.")
	req := httptest.NewRequest(http.MethodPost, "/api/analyze?format=text", body)
	req.Header.Set("Content-Type", contentType)

	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "STATUTE CROSS-REFERENCE ANALYSIS")
	assert.Contains(t, rec.Body.String(), "  • 40 CFR 122.26")
}

func TestAnalyze_Errors(t *testing.T) {
	env := newTestEnv(t, config.Config{}, false)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze?format=pdf", strings.NewReader("x"))
	assert.Equal(t, http.StatusBadRequest, env.do(req).Code)

	body, contentType := multipartBody(t, "file", "sheet.xlsx", "x")
	req = httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	assert.Equal(t, http.StatusBadRequest, env.do(req).Code)

	body, contentType = multipartBody(t, "file", "scan.pdf", "%PDF-1.4")
	req = httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	assert.Equal(t, http.StatusNotImplemented, env.do(req).Code)

	body, contentType = multipartBody(t, "file", "broken.docx", "not a zip")
	req = httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	assert.Equal(t, http.StatusUnprocessableEntity, env.do(req).Code)
}

func TestAnalyze_TooLarge(t *testing.T) {
	env := newTestEnv(t, config.Config{MaxUploadBytes: 8}, false)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("See 42 USC 1983."))
	assert.Equal(t, http.StatusRequestEntityTooLarge, env.do(req).Code)
}

func TestJobs_Lifecycle(t *testing.T) {
	env := newTestEnv(t, config.Config{}, true)
	body, contentType := multipartBody(t, "file", "brief.txt", "Pub. L. No. 117-58 amended 42 U.S.C. § 1983.")
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	req.Header.Set("Content-Type", contentType)

	rec := env.do(req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	jobID := decode(t, rec)["job_id"].(string)
	require.NotEmpty(t, jobID)

	require.Eventually(t, func() bool {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID, nil))
		return decode(t, rec)["status"] == string(pipeline.StatusCompleted)
	}, 2*time.Second, 10*time.Millisecond)

	status := decode(t, env.do(httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID, nil)))
	assert.Equal(t, "brief", status["title"])
	assert.NotEmpty(t, status["archive_id"])

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID+"/report?format=yaml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "total_references:")

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/citations?q=117-58", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	hits := decode(t, rec)["occurrences"].([]any)
	require.Len(t, hits, 1)
	assert.Equal(t, "PublicLaw", hits[0].(map[string]any)["family"])

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["documents"], 1)
}

func TestJobs_NotFound(t *testing.T) {
	env := newTestEnv(t, config.Config{}, false)
	assert.Equal(t, http.StatusNotFound, env.do(httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil)).Code)
	assert.Equal(t, http.StatusNotFound, env.do(httptest.NewRequest(http.MethodGet, "/api/jobs/missing/report", nil)).Code)
}

func TestJobs_Batch(t *testing.T) {
	env := newTestEnv(t, config.Config{}, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range map[string]string{"a.txt": "42 USC 1983", "b.xlsx": "x"} {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		io.WriteString(fw, content)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/jobs/batch", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := env.do(req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	jobs := decode(t, rec)["jobs"].([]any)
	require.Len(t, jobs, 2)
	var queued, rejected int
	for _, j := range jobs {
		m := j.(map[string]any)
		if _, ok := m["error"]; ok {
			rejected++
		} else {
			queued++
		}
	}
	assert.Equal(t, 1, queued)
	assert.Equal(t, 1, rejected)
}

func TestCitations_NoArchive(t *testing.T) {
	env := newTestEnv(t, config.Config{}, false)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/citations?q=1983", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no archive configured", decode(t, rec)["error"])
}

func TestCitations_MissingQuery(t *testing.T) {
	env := newTestEnv(t, config.Config{}, true)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/citations", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, config.Config{}, false)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("42 USC 1983"))
	require.Equal(t, http.StatusOK, env.do(req).Code)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode(t, rec)["stats"].(map[string]any)
	assert.EqualValues(t, 1, st["documents"])
	assert.EqualValues(t, 1, st["references"])
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, config.Config{RateLimit: 0.001, RateBurst: 2}, false)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/formats", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		codes = append(codes, env.do(req).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodGet, "/api/formats", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusOK, env.do(other).Code)

	// Health is outside the limited group.
	health := httptest.NewRequest(http.MethodGet, "/health", nil)
	health.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, http.StatusOK, env.do(health).Code)
}
