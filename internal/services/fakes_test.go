package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"cvtailor/internal/models"
)

// fakeCompletion routes prompts to scripted responses. If respond is set it
// decides per prompt; otherwise responses are popped from the queue.
type fakeCompletion struct {
	mu      sync.Mutex
	calls   []string
	queue   []string
	errs    []error
	respond func(prompt string) (string, error)
}

func (f *fakeCompletion) Complete(_ context.Context, prompt string, _ float32, _ int32) (string, error) {
	return f.next(prompt)
}

func (f *fakeCompletion) CompleteWithRetry(_ context.Context, prompt string, _ float32, _ int32, _ int) (string, error) {
	return f.next(prompt)
}

func (f *fakeCompletion) GenerateEmbedding(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeCompletion) next(prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, prompt)

	if f.respond != nil {
		return f.respond(prompt)
	}
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if len(f.queue) == 0 {
		return "", fmt.Errorf("fake completion: no scripted response")
	}
	resp := f.queue[0]
	f.queue = f.queue[1:]
	return resp, nil
}

func (f *fakeCompletion) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// memArtifactStore is an in-memory ArtifactStore for coordinator tests.
type memArtifactStore struct {
	mu        sync.Mutex
	artifacts map[string][][]byte // key: company/kind, newest last
}

func newMemArtifactStore() *memArtifactStore {
	return &memArtifactStore{artifacts: make(map[string][][]byte)}
}

func (s *memArtifactStore) Write(company string, kind ArtifactKind, payload []byte, _ time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := company + "/" + string(kind)
	s.artifacts[key] = append(s.artifacts[key], payload)
	return fmt.Sprintf("%s_%d", kind, len(s.artifacts[key])), nil
}

func (s *memArtifactStore) ReadLatest(company string, kind ArtifactKind) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := company + "/" + string(kind)
	versions := s.artifacts[key]
	if len(versions) == 0 {
		return nil, ErrArtifactNotFound
	}
	return versions[len(versions)-1], nil
}

func (s *memArtifactStore) count(company string, kind ArtifactKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.artifacts[company+"/"+string(kind)])
}

// memRunRepo is an in-memory PipelineRunRepository.
type memRunRepo struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*models.PipelineRun
}

func newMemRunRepo() *memRunRepo {
	return &memRunRepo{runs: make(map[uuid.UUID]*models.PipelineRun)}
}

func (r *memRunRepo) Create(run *models.PipelineRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *run
	r.runs[run.ID] = &clone
	return nil
}

func (r *memRunRepo) FindByID(id uuid.UUID) (*models.PipelineRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("pipeline run not found")
	}
	clone := *run
	return &clone, nil
}

func (r *memRunRepo) FindLatestByCompany(company string) (*models.PipelineRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.PipelineRun
	for _, run := range r.runs {
		if run.Company != company {
			continue
		}
		if latest == nil || run.StartedAt.After(latest.StartedAt) {
			latest = run
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no pipeline runs for company %s", company)
	}
	clone := *latest
	return &clone, nil
}

func (r *memRunRepo) FindRunning(limit int) ([]models.PipelineRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PipelineRun
	for _, run := range r.runs {
		if run.Status == models.RunRunning && len(out) < limit {
			out = append(out, *run)
		}
	}
	return out, nil
}

func (r *memRunRepo) MarkCompleted(id uuid.UUID, overallScore float64, gradeBand string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return fmt.Errorf("pipeline run not found")
	}
	now := time.Now()
	run.Status = models.RunCompleted
	run.OverallScore = &overallScore
	run.GradeBand = &gradeBand
	run.CompletedAt = &now
	return nil
}

func (r *memRunRepo) MarkFailed(id uuid.UUID, stage, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return fmt.Errorf("pipeline run not found")
	}
	now := time.Now()
	run.Status = models.RunFailed
	run.FailedStage = &stage
	run.ErrorMessage = &errorMsg
	run.CompletedAt = &now
	return nil
}
