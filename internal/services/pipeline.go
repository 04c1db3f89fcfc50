package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cvtailor/internal/models"
	"cvtailor/internal/repositories"
)

// SubmitInput carries everything needed to admit a tailoring run. OriginalCV
// is the fallback input; the coordinator prefers the newest tailored CV.
type SubmitInput struct {
	Company      string
	OriginalCV   string
	JDText       string
	CVDocumentID uuid.UUID
	JDDocumentID uuid.UUID
}

// PipelineCoordinator orchestrates extract -> match -> score -> recommend ->
// tailor, enforcing at most one running pipeline per (company, fingerprint).
type PipelineCoordinator interface {
	Submit(ctx context.Context, input SubmitInput) (*models.PipelineRun, error)
	Execute(ctx context.Context, runID uuid.UUID) error
	Tracks(runID uuid.UUID) bool
}

type runKey struct {
	company     string
	fingerprint string
}

type runEntry struct {
	key       runKey
	cvText    string
	jdText    string
	iteration int
}

type pipelineCoordinator struct {
	runRepo   repositories.PipelineRunRepository
	store     ArtifactStore
	extractor SkillExtractor
	matcher   SkillMatcher
	scorer    ATSScorer
	assessor  QualitativeAssessor
	tailor    TailorService

	// mu guards the dedup registry only. It is never held across a
	// completion call or any other blocking operation.
	mu       sync.Mutex
	inflight map[runKey]uuid.UUID
	pending  map[uuid.UUID]*runEntry
}

func NewPipelineCoordinator(
	runRepo repositories.PipelineRunRepository,
	store ArtifactStore,
	extractor SkillExtractor,
	matcher SkillMatcher,
	scorer ATSScorer,
	assessor QualitativeAssessor,
	tailor TailorService,
) PipelineCoordinator {
	return &pipelineCoordinator{
		runRepo:   runRepo,
		store:     store,
		extractor: extractor,
		matcher:   matcher,
		scorer:    scorer,
		assessor:  assessor,
		tailor:    tailor,
		inflight:  make(map[runKey]uuid.UUID),
		pending:   make(map[uuid.UUID]*runEntry),
	}
}

// textArtifact is the JSON envelope for text-valued artifacts.
type textArtifact struct {
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ContentFingerprint hashes the combined CV and JD text into the
// deduplication key component.
func ContentFingerprint(cvText, jdText string) string {
	h := sha256.New()
	h.Write([]byte(cvText))
	h.Write([]byte{0})
	h.Write([]byte(jdText))
	return hex.EncodeToString(h.Sum(nil))
}

// Submit implements PipelineCoordinator. It resolves the effective CV (the
// newest tailored CV for the company, otherwise the original), fingerprints
// the inputs, and admits the run unless an identical one is in flight, in
// which case ErrDuplicateRun is returned as a no-op signal.
func (c *pipelineCoordinator) Submit(ctx context.Context, input SubmitInput) (*models.PipelineRun, error) {
	if input.Company == "" {
		return nil, fmt.Errorf("company is required")
	}

	// The latest-CV rule is re-evaluated on every submit, never cached, so
	// a rerun always refines the newest prior output.
	cvText, iteration := c.resolveCV(input.Company, input.OriginalCV)
	fingerprint := ContentFingerprint(cvText, input.JDText)
	key := runKey{company: input.Company, fingerprint: fingerprint}

	// Completed runs are retained for dedup lookups: identical inputs that
	// already produced a result are a no-op until something changes.
	if latest, err := c.runRepo.FindLatestByCompany(input.Company); err == nil &&
		latest.Fingerprint == fingerprint && latest.Status == models.RunCompleted {
		log.Printf("⏭️ Inputs unchanged since completed run %s for %s, skipping\n", latest.ID, input.Company)
		return nil, ErrDuplicateRun
	}

	run := &models.PipelineRun{
		ID:           uuid.New(),
		Company:      input.Company,
		Fingerprint:  fingerprint,
		CVDocumentID: input.CVDocumentID,
		JDDocumentID: input.JDDocumentID,
		Status:       models.RunRunning,
		Iteration:    iteration,
		StartedAt:    time.Now(),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	c.mu.Lock()
	if _, exists := c.inflight[key]; exists {
		c.mu.Unlock()
		log.Printf("⏭️ Duplicate run skipped for %s (fingerprint %.12s)\n", input.Company, fingerprint)
		return nil, ErrDuplicateRun
	}
	c.inflight[key] = run.ID
	c.pending[run.ID] = &runEntry{
		key:       key,
		cvText:    cvText,
		jdText:    input.JDText,
		iteration: iteration,
	}
	c.mu.Unlock()

	if err := c.runRepo.Create(run); err != nil {
		c.release(run.ID, key)
		return nil, fmt.Errorf("failed to record pipeline run: %w", err)
	}

	return run, nil
}

// resolveCV returns the text the run should tailor: the most recent tailored
// CV for the company if one exists, otherwise the original upload.
func (c *pipelineCoordinator) resolveCV(company, originalCV string) (string, int) {
	payload, err := c.store.ReadLatest(company, ArtifactTailoredCV)
	if err != nil {
		return originalCV, 1
	}

	var artifact textArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil || artifact.Content == "" {
		log.Printf("⚠️ Unreadable tailored CV artifact for %s, falling back to original: %v\n", company, err)
		return originalCV, 1
	}

	iteration := 2
	if latest, err := c.runRepo.FindLatestByCompany(company); err == nil {
		iteration = latest.Iteration + 1
	}

	return artifact.Content, iteration
}

// Tracks implements PipelineCoordinator. Used by the worker's recovery
// poller to distinguish live runs from ones orphaned by a restart.
func (c *pipelineCoordinator) Tracks(runID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[runID]
	return ok
}

func (c *pipelineCoordinator) release(runID uuid.UUID, key runKey) {
	c.mu.Lock()
	delete(c.inflight, key)
	delete(c.pending, runID)
	c.mu.Unlock()
}

// Execute implements PipelineCoordinator. Stages run in strict dependency
// order; the two extractions run concurrently. Artifacts are buffered and
// flushed only after every stage succeeds, so a failed or cancelled run
// never leaves partial final artifacts behind.
func (c *pipelineCoordinator) Execute(ctx context.Context, runID uuid.UUID) error {
	c.mu.Lock()
	entry, ok := c.pending[runID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown pipeline run %s", runID)
	}
	defer c.release(runID, entry.key)

	log.Printf("🔄 Starting tailoring run %s for %s (iteration %d)\n", runID, entry.key.company, entry.iteration)

	// Stage 1: extract CV and JD skills concurrently.
	var cvSkills, jdSkills *models.SkillSet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		skills, err := c.extractor.Extract(gctx, entry.cvText, models.SourceCV)
		if err != nil {
			return err
		}
		cvSkills = skills
		return nil
	})
	g.Go(func() error {
		skills, err := c.extractor.Extract(gctx, entry.jdText, models.SourceJD)
		if err != nil {
			return err
		}
		jdSkills = skills
		return nil
	})
	if err := g.Wait(); err != nil {
		return c.fail(runID, "extract", err)
	}

	if err := ctx.Err(); err != nil {
		return c.fail(runID, "extract", err)
	}

	// Stage 2: reconcile JD requirements against CV evidence.
	log.Println("🤖 Matching skills against job requirements...")
	report, err := c.matcher.Match(ctx, cvSkills, jdSkills)
	if err != nil {
		return c.fail(runID, "match", err)
	}
	for _, category := range report.Degraded {
		log.Printf("⚠️ Category %s degraded to all-missing for run %s\n", category, runID)
	}

	// Stage 3: qualitative assessment and scoring.
	log.Println("🤖 Assessing qualitative signals...")
	signals, err := c.assessor.Assess(ctx, entry.cvText, entry.jdText, report)
	if err != nil {
		return c.fail(runID, "assess", err)
	}

	score := c.scorer.Score(report, signals)
	log.Printf("📊 ATS score for %s: %.2f (%s)\n", entry.key.company, score.OverallScore, score.GradeBand)

	if err := ctx.Err(); err != nil {
		return c.fail(runID, "score", err)
	}

	// Stage 4: recommendation and tailored CV generation.
	log.Println("🤖 Generating improvement recommendation...")
	recommendation, err := c.tailor.Recommend(ctx, entry.key.company, score, report)
	if err != nil {
		return c.fail(runID, "recommend", err)
	}

	log.Println("🤖 Generating tailored CV...")
	tailoredCV, err := c.tailor.GenerateTailoredCV(ctx, entry.cvText, entry.jdText, recommendation)
	if err != nil {
		return c.fail(runID, "tailor", err)
	}

	// Stage 5: persist all artifacts, then mark the run completed.
	log.Println("💾 Persisting run artifacts...")
	if err := c.persistArtifacts(entry, cvSkills, jdSkills, report, score, recommendation, tailoredCV); err != nil {
		return c.fail(runID, "persist", err)
	}

	if err := c.runRepo.MarkCompleted(runID, score.OverallScore, string(score.GradeBand)); err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}

	log.Printf("✅ Tailoring run %s completed successfully\n", runID)
	return nil
}

func (c *pipelineCoordinator) persistArtifacts(
	entry *runEntry,
	cvSkills, jdSkills *models.SkillSet,
	report *models.MatchReport,
	score *models.ATSScore,
	recommendation, tailoredCV string,
) error {
	now := time.Now()

	artifacts := []struct {
		kind    ArtifactKind
		payload interface{}
	}{
		{ArtifactSkillSetCV, cvSkills},
		{ArtifactSkillSetJD, jdSkills},
		{ArtifactMatchResult, report},
		{ArtifactATSScore, score},
		{ArtifactRecommendation, textArtifact{Content: recommendation, GeneratedAt: now}},
		{ArtifactTailoredCV, textArtifact{Content: tailoredCV, GeneratedAt: now}},
	}

	for _, a := range artifacts {
		payload, err := json.Marshal(a.payload)
		if err != nil {
			return fmt.Errorf("failed to encode %s artifact: %w", a.kind, err)
		}
		if _, err := c.store.Write(entry.key.company, a.kind, payload, now); err != nil {
			return fmt.Errorf("failed to write %s artifact: %w", a.kind, err)
		}
	}

	return nil
}

func (c *pipelineCoordinator) fail(runID uuid.UUID, stage string, cause error) error {
	log.Printf("❌ Run %s failed at stage %s: %v\n", runID, stage, cause)
	if err := c.runRepo.MarkFailed(runID, stage, cause.Error()); err != nil {
		log.Printf("❌ Failed to record run failure: %v\n", err)
	}
	return &StageError{Stage: stage, Err: cause}
}
