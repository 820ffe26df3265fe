package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/statutefinder/internal/archive"
	"github.com/dgallion1/statutefinder/internal/citation"
	"github.com/dgallion1/statutefinder/internal/parser"
	"github.com/dgallion1/statutefinder/internal/stats"
)

// Archiver persists finished analyses. *archive.Store satisfies it.
type Archiver interface {
	Save(ctx context.Context, filename, contentHash string, a *citation.Analysis) (archive.Record, error)
}

// Result is the outcome of analysing one file.
type Result struct {
	Document    *parser.Document
	Analysis    *citation.Analysis
	ContentHash string
	ArchiveID   string
}

// Worker loads and analyses documents.
type Worker struct {
	loader   *parser.Loader
	analyzer *citation.Analyzer
	archive  Archiver
	stats    *stats.Stats
	log      *slog.Logger
}

// NewWorker creates a worker. archive and st may be nil.
func NewWorker(loader *parser.Loader, analyzer *citation.Analyzer, archive Archiver, st *stats.Stats, log *slog.Logger) *Worker {
	return &Worker{
		loader:   loader,
		analyzer: analyzer,
		archive:  archive,
		stats:    st,
		log:      log,
	}
}

// Analyze extracts text from data, analyses it and archives the result.
// onPhase, when non-nil, is told when analysis starts. An archive failure is
// logged and returned alongside a valid Result.
func (w *Worker) Analyze(ctx context.Context, filename string, data []byte, onPhase func(JobStatus)) (*Result, error) {
	log := w.log.With("filename", filename)

	parseStart := time.Now()
	doc, err := w.loader.LoadBytes(data, filename)
	if err != nil {
		if w.stats != nil {
			w.stats.RecordFailure()
		}
		return nil, err
	}
	parseDur := time.Since(parseStart)

	if onPhase != nil {
		onPhase(StatusAnalyzing)
	}
	analyzeStart := time.Now()
	a := w.analyzer.Analyze(doc.Text)
	analyzeDur := time.Since(analyzeStart)

	if w.stats != nil {
		w.stats.RecordDocument(parseDur, analyzeDur, a.TotalReferences)
	}
	log.Info("analyzed document",
		"format", doc.Format,
		"total", a.TotalReferences,
		"unique", a.UniqueReferences,
		"parse_ms", parseDur.Milliseconds(),
		"analyze_ms", analyzeDur.Milliseconds(),
	)

	res := &Result{
		Document:    doc,
		Analysis:    a,
		ContentHash: ContentHashHex([]byte(doc.Text)),
	}

	if w.archive != nil {
		rec, err := w.archive.Save(ctx, filename, res.ContentHash, a)
		if err != nil {
			log.Warn("archive write failed", "error", err)
			return res, fmt.Errorf("archive: %w", err)
		}
		res.ArchiveID = rec.ID
	}
	return res, nil
}

// Process runs a queued job through parsing and analysis.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	job.SetStatus(StatusParsing, "parsing")
	res, err := w.Analyze(ctx, job.Filename, job.FileData(), func(s JobStatus) {
		job.SetStatus(s, string(s))
	})
	if res == nil {
		log.Error("analysis failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		job.SetFileData(nil)
		return
	}

	job.SetDocument(res.Document, res.ContentHash)
	job.SetAnalysis(res.Analysis)
	if err != nil {
		job.AddError(err.Error())
	}
	if res.ArchiveID != "" {
		job.SetArchiveID(res.ArchiveID)
	}
	job.SetStatus(StatusCompleted, "done")
}

// Loader returns the loader the worker extracts text with.
func (w *Worker) Loader() *parser.Loader {
	return w.loader
}
