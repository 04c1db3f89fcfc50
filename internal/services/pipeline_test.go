package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvtailor/internal/models"
)

const (
	pipelineCV = "Alice is a data engineer with Python, SQL and strong communication skills, working across fintech platforms."
	pipelineJD = "Looking for a data engineer skilled in Python and SQL, with communication strength in the fintech industry."
)

// scriptedPipelineFake routes each pipeline prompt to a canned response by
// its distinguishing marker text.
func scriptedPipelineFake() *fakeCompletion {
	return &fakeCompletion{respond: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "extracting skills from a candidate CV"),
			strings.Contains(prompt, "extracting skills from a job description"):
			return "TECHNICAL: Python, SQL\nSOFT: communication\nDOMAIN: fintech", nil
		case strings.Contains(prompt, "Assess the following dimensions"):
			return `{"core_competency_pct": 80, "experience_seniority_pct": 60,
				"potential_ability_pct": 70, "company_fit_pct": 50,
				"bonus_points": 1.5, "notes": "solid profile"}`, nil
		case strings.Contains(prompt, "expert CV coach"):
			return "Quantify the fintech delivery outcomes and lead with Python and SQL impact.", nil
		case strings.Contains(prompt, "expert CV writer"):
			return "Alice Doe - Data Engineer. Delivered Python and SQL pipelines for fintech platforms, praised for clear communication.", nil
		default:
			return "", errors.New("unexpected prompt")
		}
	}}
}

func newTestCoordinator(t *testing.T, fake *fakeCompletion, repo *memRunRepo, store *memArtifactStore) PipelineCoordinator {
	t.Helper()
	scorer, err := NewATSScorer(defaultScoringConfig())
	require.NoError(t, err)

	return NewPipelineCoordinator(
		repo,
		store,
		NewSkillExtractor(fake, 3),
		NewSkillMatcher(fake, 3),
		scorer,
		NewQualitativeAssessor(fake, 3),
		NewTailorService(fake, nil, 3),
	)
}

func submitInput() SubmitInput {
	return SubmitInput{
		Company:    "Acme",
		OriginalCV: pipelineCV,
		JDText:     pipelineJD,
	}
}

func TestPipelineHappyPath(t *testing.T) {
	repo := newMemRunRepo()
	store := newMemArtifactStore()
	coordinator := newTestCoordinator(t, scriptedPipelineFake(), repo, store)

	run, err := coordinator.Submit(context.Background(), submitInput())
	require.NoError(t, err)
	assert.Equal(t, models.RunRunning, run.Status)
	assert.Equal(t, 1, run.Iteration)
	assert.Equal(t, ContentFingerprint(pipelineCV, pipelineJD), run.Fingerprint)

	require.NoError(t, coordinator.Execute(context.Background(), run.ID))
	assert.False(t, coordinator.Tracks(run.ID), "registry entry released after completion")

	stored, err := repo.FindByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, stored.Status)
	require.NotNil(t, stored.OverallScore)
	// Group 1 fully matched (40) + group 2 (20 + 12 + 7 + 2.5) + bonus 1.5.
	assert.InDelta(t, 83.0, *stored.OverallScore, 1e-9)
	require.NotNil(t, stored.GradeBand)
	assert.Equal(t, string(models.GradeStrong), *stored.GradeBand)

	for _, kind := range []ArtifactKind{
		ArtifactSkillSetCV, ArtifactSkillSetJD, ArtifactMatchResult,
		ArtifactATSScore, ArtifactRecommendation, ArtifactTailoredCV,
	} {
		assert.Equal(t, 1, store.count("Acme", kind), "artifact %s", kind)
	}

	payload, err := store.ReadLatest("Acme", ArtifactTailoredCV)
	require.NoError(t, err)
	var artifact textArtifact
	require.NoError(t, json.Unmarshal(payload, &artifact))
	assert.Contains(t, artifact.Content, "Data Engineer")
	assert.False(t, artifact.GeneratedAt.IsZero())
}

func TestPipelineRejectsConcurrentDuplicates(t *testing.T) {
	repo := newMemRunRepo()
	coordinator := newTestCoordinator(t, scriptedPipelineFake(), repo, newMemArtifactStore())

	const submitters = 5
	var wg sync.WaitGroup
	var mu sync.Mutex
	var admitted, duplicates int

	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := coordinator.Submit(context.Background(), submitInput())

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, ErrDuplicateRun):
				duplicates++
			default:
				t.Errorf("unexpected submit error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
	assert.Equal(t, submitters-1, duplicates)

	running, err := repo.FindRunning(10)
	require.NoError(t, err)
	assert.Len(t, running, 1, "only the admitted run is recorded")
}

func TestPipelinePrefersLatestTailoredCV(t *testing.T) {
	repo := newMemRunRepo()
	store := newMemArtifactStore()
	coordinator := newTestCoordinator(t, scriptedPipelineFake(), repo, store)

	tailored := "Alice Doe - Data Engineer. Previously tailored CV emphasizing Python, SQL and fintech delivery."
	payload, err := json.Marshal(textArtifact{Content: tailored, GeneratedAt: time.Now()})
	require.NoError(t, err)
	_, err = store.Write("Acme", ArtifactTailoredCV, payload, time.Now())
	require.NoError(t, err)

	run, err := coordinator.Submit(context.Background(), submitInput())
	require.NoError(t, err)

	assert.Equal(t, ContentFingerprint(tailored, pipelineJD), run.Fingerprint,
		"run must be keyed on the newest tailored CV, not the original upload")
	assert.Equal(t, 2, run.Iteration)
}

func TestPipelineResubmitAfterCompletion(t *testing.T) {
	repo := newMemRunRepo()
	store := newMemArtifactStore()
	coordinator := newTestCoordinator(t, scriptedPipelineFake(), repo, store)

	first, err := coordinator.Submit(context.Background(), submitInput())
	require.NoError(t, err)
	require.NoError(t, coordinator.Execute(context.Background(), first.ID))

	// The completed run released its registry slot, and the new tailored CV
	// changes the fingerprint, so the rerun is a fresh refinement.
	second, err := coordinator.Submit(context.Background(), submitInput())
	require.NoError(t, err)
	assert.NotEqual(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, 2, second.Iteration)
}

func TestPipelineSkipsRerunWhenNothingChanged(t *testing.T) {
	repo := newMemRunRepo()
	coordinator := newTestCoordinator(t, scriptedPipelineFake(), repo, newMemArtifactStore())

	// A completed run for exactly these inputs already exists.
	prior := &models.PipelineRun{
		ID:          uuid.New(),
		Company:     "Acme",
		Fingerprint: ContentFingerprint(pipelineCV, pipelineJD),
		Status:      models.RunRunning,
		Iteration:   1,
		StartedAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.Create(prior))
	require.NoError(t, repo.MarkCompleted(prior.ID, 83.0, string(models.GradeStrong)))

	_, err := coordinator.Submit(context.Background(), submitInput())
	assert.ErrorIs(t, err, ErrDuplicateRun, "identical inputs after a completed run are a no-op")
}

func TestPipelineFailureRecordsStageWithoutArtifacts(t *testing.T) {
	fake := &fakeCompletion{respond: func(string) (string, error) {
		return "", &ServiceError{Op: "complete", Err: errors.New("provider down")}
	}}
	repo := newMemRunRepo()
	store := newMemArtifactStore()
	coordinator := newTestCoordinator(t, fake, repo, store)

	run, err := coordinator.Submit(context.Background(), submitInput())
	require.NoError(t, err)

	err = coordinator.Execute(context.Background(), run.ID)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "extract", stageErr.Stage)

	stored, err := repo.FindByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunFailed, stored.Status)
	require.NotNil(t, stored.FailedStage)
	assert.Equal(t, "extract", *stored.FailedStage)

	for _, kind := range []ArtifactKind{
		ArtifactSkillSetCV, ArtifactSkillSetJD, ArtifactMatchResult,
		ArtifactATSScore, ArtifactRecommendation, ArtifactTailoredCV,
	} {
		assert.Zero(t, store.count("Acme", kind), "failed run must leave no %s artifact", kind)
	}

	assert.False(t, coordinator.Tracks(run.ID), "registry entry released after failure")
}

func TestPipelineExecuteUnknownRun(t *testing.T) {
	coordinator := newTestCoordinator(t, scriptedPipelineFake(), newMemRunRepo(), newMemArtifactStore())

	err := coordinator.Execute(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown pipeline run")
}

func TestContentFingerprintSeparatesInputs(t *testing.T) {
	// The separator prevents boundary ambiguity between CV and JD text.
	assert.NotEqual(t, ContentFingerprint("ab", "c"), ContentFingerprint("a", "bc"))
	assert.Equal(t, ContentFingerprint("a", "b"), ContentFingerprint("a", "b"))
}
