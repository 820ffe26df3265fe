package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/dgallion1/statutefinder/internal/citation"
	"github.com/dgallion1/statutefinder/internal/parser"
)

// JobStatus represents the state of an analysis job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusAnalyzing JobStatus = "analyzing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of a single document analysis.
type Job struct {
	mu sync.Mutex

	ID       string
	Status   JobStatus
	Phase    string
	Filename string

	Title       string
	Format      parser.Format
	ContentHash string
	ArchiveID   string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Internal: not serialized.
	fileData []byte
	analysis *citation.Analysis
	errors   []string
}

// NewJobID returns a random job identifier.
func NewJobID() string {
	return uuid.NewString()
}

// NewJob creates a queued job for an uploaded file.
func NewJob(filename string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        NewJobID(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// SetDocument records what the loader extracted.
func (j *Job) SetDocument(doc *parser.Document, contentHash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = doc.Title
	j.Format = doc.Format
	j.ContentHash = contentHash
	j.UpdatedAt = time.Now()
}

// SetAnalysis stores the finished analysis and releases the raw file bytes.
func (j *Job) SetAnalysis(a *citation.Analysis) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.analysis = a
	j.fileData = nil
	j.UpdatedAt = time.Now()
}

// Analysis returns the finished analysis, or nil while the job is running.
func (j *Job) Analysis() *citation.Analysis {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.analysis
}

// SetArchiveID records the archive document the analysis was saved as.
func (j *Job) SetArchiveID(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ArchiveID = id
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID               string        `json:"job_id"`
	Status           JobStatus     `json:"status"`
	Phase            string        `json:"phase"`
	Filename         string        `json:"filename"`
	Title            string        `json:"title,omitempty"`
	Format           parser.Format `json:"format,omitempty"`
	ContentHash      string        `json:"content_hash,omitempty"`
	ArchiveID        string        `json:"archive_id,omitempty"`
	TotalReferences  int           `json:"total_references"`
	UniqueReferences int           `json:"unique_references"`
	Errors           []string      `json:"errors"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.errors...)
	snap := JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Title:       j.Title,
		Format:      j.Format,
		ContentHash: j.ContentHash,
		ArchiveID:   j.ArchiveID,
		Errors:      errs,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
	if j.analysis != nil {
		snap.TotalReferences = j.analysis.TotalReferences
		snap.UniqueReferences = j.analysis.UniqueReferences
	}
	return snap
}

// JobStore is a thread-safe in-memory job registry. Jobs expire ttl after
// they were last put.
type JobStore struct {
	cache *cache.Cache
}

func NewJobStore(ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JobStore{cache: cache.New(ttl, 5*time.Minute)}
}

// Put stores job and resets its expiry.
func (s *JobStore) Put(job *Job) {
	s.cache.Set(job.ID, job, cache.DefaultExpiration)
}

func (s *JobStore) Get(id string) *Job {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil
	}
	return v.(*Job)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.cache.DeleteExpired()
}

// Len returns the number of stored jobs, expired ones included until cleanup.
func (s *JobStore) Len() int {
	return s.cache.ItemCount()
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
