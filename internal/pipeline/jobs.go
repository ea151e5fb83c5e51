package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"panelforge/internal/ifc"
)

// JobStatus represents the state of an export job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusBuilding  JobStatus = "building"
	StatusExporting JobStatus = "exporting"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of a single IFC export.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`
	Storey string    `json:"storey"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	manifestData []byte
	meshFiles    map[string][]byte
	outputPath   string
	report       string
}

// Progress tracks export progress.
type Progress struct {
	Units         int      `json:"units"`
	Elements      int      `json:"elements"`
	Containers    int      `json:"containers"`
	AssemblyNodes int      `json:"assembly_nodes"`
	Errors        []string `json:"errors"`
}

// NewJob creates a queued job holding the uploaded manifest and mesh bytes.
func NewJob(manifestData []byte, meshFiles map[string][]byte) *Job {
	now := time.Now()
	return &Job{
		ID:           uuid.NewString(),
		Status:       StatusQueued,
		Phase:        "queued",
		CreatedAt:    now,
		UpdatedAt:    now,
		manifestData: manifestData,
		meshFiles:    meshFiles,
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
	j.Progress.Errors = append(j.Progress.Errors, err)
	j.UpdatedAt = time.Now()
}

// SetStorey records the resolved storey name.
func (j *Job) SetStorey(storey string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Storey = storey
	j.UpdatedAt = time.Now()
}

// SetUnits records how many records the build stage produced.
func (j *Job) SetUnits(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Units = n
	j.UpdatedAt = time.Now()
}

// SetResult records the export outcome.
func (j *Job) SetResult(res *ifc.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Elements = res.Elements
	j.Progress.Containers = res.Containers
	j.Progress.AssemblyNodes = res.AssemblyNodes
	j.outputPath = res.Path
	j.report = res.Report
	j.UpdatedAt = time.Now()
}

// OutputPath returns the written IFC file path, empty until export succeeds.
func (j *Job) OutputPath() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.outputPath
}

// Report returns the markdown run summary, empty until export succeeds.
func (j *Job) Report() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.report
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Storey   string    `json:"storey"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:     j.ID,
		Status: j.Status,
		Phase:  j.Phase,
		Storey: j.Storey,
		Progress: Progress{
			Units:         j.Progress.Units,
			Elements:      j.Progress.Elements,
			Containers:    j.Progress.Containers,
			AssemblyNodes: j.Progress.AssemblyNodes,
			Errors:        errs,
		},
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}
