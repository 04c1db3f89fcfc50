package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"cvtailor/internal/models"
)

// TailorService generates the improvement recommendation and the revised CV.
type TailorService interface {
	Recommend(ctx context.Context, company string, score *models.ATSScore, report *models.MatchReport) (string, error)
	GenerateTailoredCV(ctx context.Context, cvText, jdText, recommendation string) (string, error)
}

type tailorService struct {
	completion     CompletionService
	contextService ContextService
	promptBuilder  *PromptBuilder
	maxRetries     int
}

func NewTailorService(completion CompletionService, contextService ContextService, maxRetries int) TailorService {
	return &tailorService{
		completion:     completion,
		contextService: contextService,
		promptBuilder:  NewPromptBuilder(),
		maxRetries:     maxRetries,
	}
}

// Recommend implements TailorService.
func (t *tailorService) Recommend(ctx context.Context, company string, score *models.ATSScore, report *models.MatchReport) (string, error) {
	ragContext := t.retrieveContext(ctx, company, []string{"role_guide", "ats_keywords"})

	prompt := t.promptBuilder.BuildRecommendationPrompt(company, score, report.MissingSkills(), ragContext)

	recommendation, err := t.completion.CompleteWithRetry(ctx, prompt, 0.5, 2048, t.maxRetries)
	if err != nil {
		return "", fmt.Errorf("failed to generate recommendation: %w", err)
	}

	return strings.TrimSpace(recommendation), nil
}

// GenerateTailoredCV implements TailorService.
func (t *tailorService) GenerateTailoredCV(ctx context.Context, cvText, jdText, recommendation string) (string, error) {
	prompt := t.promptBuilder.BuildTailoredCVPrompt(cvText, jdText, recommendation)

	tailored, err := t.completion.CompleteWithRetry(ctx, prompt, 0.4, 8192, t.maxRetries)
	if err != nil {
		return "", fmt.Errorf("failed to generate tailored CV: %w", err)
	}

	tailored = strings.TrimSpace(tailored)
	if len(tailored) < MinDocumentChars {
		return "", fmt.Errorf("tailored CV suspiciously short (%d chars)", len(tailored))
	}

	return tailored, nil
}

// retrieveContext pulls reference chunks from the vector store. Retrieval
// failures degrade to empty context rather than failing the stage.
func (t *tailorService) retrieveContext(ctx context.Context, company string, docTypes []string) string {
	if t.contextService == nil {
		return "No relevant context found."
	}

	var allResults []SearchResult
	for _, docType := range docTypes {
		query := t.promptBuilder.BuildRetrievalQuery(docType, company)

		embedding, err := t.completion.GenerateEmbedding(ctx, query)
		if err != nil {
			log.Printf("⚠️ Failed to embed retrieval query for %s: %v\n", docType, err)
			continue
		}

		results, err := t.contextService.SearchSimilar(ctx, embedding, docType, 3)
		if err != nil {
			log.Printf("⚠️ Failed to search context for %s: %v\n", docType, err)
			continue
		}
		allResults = append(allResults, results...)
	}

	return FormatRAGContext(allResults)
}
