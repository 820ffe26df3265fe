package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/statutefinder/internal/archive"
	"github.com/dgallion1/statutefinder/internal/citation"
	"github.com/dgallion1/statutefinder/internal/parser"
	"github.com/dgallion1/statutefinder/internal/stats"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingArchive struct{}

func (failingArchive) Save(context.Context, string, string, *citation.Analysis) (archive.Record, error) {
	return archive.Record{}, errors.New("disk full")
}

func newWorker(arch Archiver, st *stats.Stats) *Worker {
	return NewWorker(parser.NewLoader(parser.Options{}), citation.NewAnalyzer(nil), arch, st, discardLogger())
}

func TestWorker_Analyze(t *testing.T) {
	st := stats.New(time.Hour)
	w := newWorker(nil, st)

	var phases []JobStatus
	res, err := w.Analyze(context.Background(), "brief.txt", []byte("See 42 USC 1983."), func(s JobStatus) {
		phases = append(phases, s)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Analysis.TotalReferences)
	assert.Equal(t, "brief", res.Document.Title)
	assert.Equal(t, ContentHashHex([]byte("See 42 USC 1983.")), res.ContentHash)
	assert.Empty(t, res.ArchiveID)
	assert.Equal(t, []JobStatus{StatusAnalyzing}, phases)

	snap := st.Snapshot()
	assert.EqualValues(t, 1, snap.Documents)
	assert.EqualValues(t, 1, snap.References)
}

func TestWorker_AnalyzeLoaderError(t *testing.T) {
	st := stats.New(time.Hour)
	w := newWorker(nil, st)

	res, err := w.Analyze(context.Background(), "sheet.xlsx", []byte("x"), nil)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, parser.ErrUnsupportedFormat)
	assert.EqualValues(t, 1, st.Snapshot().Failures)
}

func TestWorker_ProcessArchives(t *testing.T) {
	store, err := archive.Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	w := newWorker(store, nil)
	job := NewJob("brief.txt", []byte("See 42 USC 1983 and 40 CFR 122.26."))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 2, snap.TotalReferences)
	assert.NotEmpty(t, snap.ArchiveID)
	assert.Empty(t, snap.Errors)
	assert.Nil(t, job.FileData())

	hits, err := store.FindCitation(context.Background(), "40 CFR", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, snap.ArchiveID, hits[0].DocumentID)
}

func TestWorker_ProcessArchiveFailureStillCompletes(t *testing.T) {
	w := newWorker(failingArchive{}, nil)
	job := NewJob("brief.txt", []byte("See 42 USC 1983."))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	require.Len(t, snap.Errors, 1)
	assert.Contains(t, snap.Errors[0], "disk full")
	assert.NotNil(t, job.Analysis())
}

func TestWorker_ProcessFailure(t *testing.T) {
	w := newWorker(nil, nil)
	job := NewJob("broken.pdf", []byte("not a pdf"))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	require.Len(t, snap.Errors, 1)
	assert.Contains(t, snap.Errors[0], parser.ErrExtractionFailure.Error())
	assert.Nil(t, job.Analysis())
}

func TestOrchestrator_SubmitAndComplete(t *testing.T) {
	o := NewOrchestrator(Options{WorkerCount: 2, MaxQueueSize: 4}, newWorker(nil, nil), discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("brief.txt", []byte("Pub. L. No. 117-58 and § 501"))
	require.NoError(t, o.Submit(job))

	require.Eventually(t, func() bool {
		return o.GetJob(job.ID).Snapshot().Status == StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	a := o.GetJob(job.ID).Analysis()
	require.NotNil(t, a)
	assert.Equal(t, 1, a.ByFamily[citation.PublicLaw])
	assert.Equal(t, 1, a.ByFamily[citation.SectionOnly])
}

func TestOrchestrator_QueueFull(t *testing.T) {
	// Not started, so nothing drains the queue.
	o := NewOrchestrator(Options{WorkerCount: 1, MaxQueueSize: 1}, newWorker(nil, nil), discardLogger())

	require.NoError(t, o.Submit(NewJob("a.txt", []byte("a"))))
	second := NewJob("b.txt", []byte("b"))
	err := o.Submit(second)
	assert.ErrorContains(t, err, "queue is full")
	assert.Equal(t, StatusFailed, second.Snapshot().Status)
	assert.Equal(t, 1, o.QueueDepth())
}
