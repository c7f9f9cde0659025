// Package session keeps the most recent job batch and resume profile between
// otherwise independent pipeline requests.
package session

import (
	"sync"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/resume"
)

// Phase is the position of a session in the pipeline state machine.
type Phase string

const (
	PhaseEmpty       Phase = "empty"
	PhaseJobsReady   Phase = "jobs_ready"
	PhaseResumeReady Phase = "resume_ready"
	PhaseBothReady   Phase = "both_ready"
	PhaseRecommended Phase = "recommended"
)

// Snapshot is a consistent view of both slots. The pointed-to values are never mutated.
type Snapshot struct {
	Batch  *jobs.Batch
	Resume *resume.Profile
}

// Missing names the slots that are not populated yet.
func (s Snapshot) Missing() []string {
	var missing []string
	if s.Batch == nil || s.Batch.Len() == 0 {
		missing = append(missing, "jobs")
	}
	if s.Resume == nil || s.Resume.RawText == "" {
		missing = append(missing, "resume")
	}
	return missing
}

// State is the single writer of the job and resume slots. It is safe for concurrent use.
type State struct {
	mu          sync.RWMutex
	batch       *jobs.Batch
	resume      *resume.Profile
	recommended string
}

func New() *State {
	return &State{}
}

// SetBatch replaces the job slot. The batch must not be modified afterwards.
func (s *State) SetBatch(b *jobs.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch = b
	s.recommended = ""
}

// SetResume replaces the resume slot. The profile must not be modified afterwards.
func (s *State) SetResume(p *resume.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resume = p
	s.recommended = ""
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Batch: s.batch, Resume: s.resume}
}

// MarkRecommended records a finished recommendation. It is ignored when the
// ranked batch or resume has been replaced in the meantime.
func (s *State) MarkRecommended(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Batch == nil || snap.Resume == nil {
		return
	}
	if s.batch != snap.Batch || s.resume != snap.Resume {
		return
	}
	s.recommended = snap.Batch.ID
}

func (s *State) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phaseLocked()
}

func (s *State) phaseLocked() Phase {
	hasJobs := s.batch != nil
	hasResume := s.resume != nil
	switch {
	case hasJobs && hasResume && s.recommended != "":
		return PhaseRecommended
	case hasJobs && hasResume:
		return PhaseBothReady
	case hasJobs:
		return PhaseJobsReady
	case hasResume:
		return PhaseResumeReady
	default:
		return PhaseEmpty
	}
}

// Status is a read-only summary suitable for transports.
type Status struct {
	Phase          Phase  `json:"phase"`
	BatchID        string `json:"batch_id,omitempty"`
	JobsCount      int    `json:"jobs_count"`
	ResumeLoaded   bool   `json:"resume_loaded"`
	ResumeLanguage string `json:"resume_language,omitempty"`
}

func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{Phase: s.phaseLocked(), JobsCount: s.batch.Len()}
	if s.batch != nil {
		st.BatchID = s.batch.ID
	}
	if s.resume != nil {
		st.ResumeLoaded = true
		st.ResumeLanguage = s.resume.Language
	}
	return st
}
