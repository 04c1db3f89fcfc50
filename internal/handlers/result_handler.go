package handlers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cvtailor/internal/models"
	"cvtailor/internal/repositories"
	"cvtailor/internal/services"
)

type ResultHandler struct {
	runRepo repositories.PipelineRunRepository
	store   services.ArtifactStore
}

func NewResultHandler(runRepo repositories.PipelineRunRepository, store services.ArtifactStore) *ResultHandler {
	return &ResultHandler{
		runRepo: runRepo,
		store:   store,
	}
}

// HandleGetResult handles GET /result/:id.
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	idParam := c.Params("id")
	runID, err := uuid.Parse(idParam)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid run ID format",
		})
	}

	run, err := h.runRepo.FindByID(runID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Pipeline run not found",
		})
	}

	response := models.ResultResponse{
		ID:        run.ID.String(),
		Company:   run.Company,
		Status:    string(run.Status),
		Iteration: run.Iteration,
	}

	if run.Status == models.RunCompleted {
		response.Score = h.loadScore(run.Company)
		response.Recommendation = h.loadText(run.Company, services.ArtifactRecommendation)
		response.TailoredCV = h.loadText(run.Company, services.ArtifactTailoredCV)
	}

	if run.Status == models.RunFailed {
		response.FailedStage = run.FailedStage
		response.ErrorMessage = run.ErrorMessage
	}

	return c.JSON(response)
}

// loadScore reads the latest persisted ATS score and converts it to the
// presentation form. Rounding to one decimal place happens here and only
// here.
func (h *ResultHandler) loadScore(company string) *models.ScoreBreakdown {
	payload, err := h.store.ReadLatest(company, services.ArtifactATSScore)
	if err != nil {
		log.Printf("⚠️ Failed to read score artifact for %s: %v\n", company, err)
		return nil
	}

	var score models.ATSScore
	if err := json.Unmarshal(payload, &score); err != nil {
		log.Printf("⚠️ Failed to decode score artifact for %s: %v\n", company, err)
		return nil
	}

	breakdown := &models.ScoreBreakdown{
		Overall:   services.Round1(score.OverallScore),
		GradeBand: string(score.GradeBand),
		Bonus:     services.Round1(score.BonusPoints),
	}
	for _, cs := range score.CategoryScores {
		breakdown.Categories = append(breakdown.Categories, models.CategoryBreakdown{
			Category:  string(cs.Category),
			MatchRate: services.Round1(cs.RawRate * 100),
			MaxPoints: cs.MaxPoints,
			Points:    services.Round1(cs.WeightedPoints),
		})
	}

	return breakdown
}

func (h *ResultHandler) loadText(company string, kind services.ArtifactKind) *string {
	payload, err := h.store.ReadLatest(company, kind)
	if err != nil {
		log.Printf("⚠️ Failed to read %s artifact for %s: %v\n", kind, company, err)
		return nil
	}

	var artifact struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(payload, &artifact); err != nil || artifact.Content == "" {
		return nil
	}

	return &artifact.Content
}
