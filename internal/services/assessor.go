package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"cvtailor/internal/models"
)

// QualitativeAssessor produces the group-2 extra signals (competency,
// seniority, potential, company fit) plus the signed bonus adjustment.
type QualitativeAssessor interface {
	Assess(ctx context.Context, cvText, jdText string, report *models.MatchReport) (models.ExtraSignals, error)
}

type qualitativeAssessor struct {
	completion    CompletionService
	promptBuilder *PromptBuilder
	maxRetries    int
}

func NewQualitativeAssessor(completion CompletionService, maxRetries int) QualitativeAssessor {
	return &qualitativeAssessor{
		completion:    completion,
		promptBuilder: NewPromptBuilder(),
		maxRetries:    maxRetries,
	}
}

// Assess implements QualitativeAssessor. On provider failure it degrades to
// zero signals with a note, so partial scoring remains possible.
func (a *qualitativeAssessor) Assess(ctx context.Context, cvText, jdText string, report *models.MatchReport) (models.ExtraSignals, error) {
	prompt := a.promptBuilder.BuildQualitativeAssessmentPrompt(cvText, jdText, summarizeMatches(report))

	response, err := a.completion.CompleteWithRetry(ctx, prompt, 0.3, 1024, a.maxRetries)
	if err != nil {
		log.Printf("⚠️ Qualitative assessment failed, degrading to zero signals: %v\n", err)
		return models.ExtraSignals{Notes: "qualitative assessment unavailable"}, nil
	}

	var signals models.ExtraSignals
	if err := json.Unmarshal([]byte(extractJSON(response)), &signals); err != nil {
		log.Printf("⚠️ Unparsable qualitative assessment, degrading to zero signals: %v\n", err)
		return models.ExtraSignals{Notes: "qualitative assessment unparsable"}, nil
	}

	return signals, nil
}

func summarizeMatches(report *models.MatchReport) string {
	var b strings.Builder
	for _, category := range []models.SkillCategory{
		models.CategoryTechnical,
		models.CategorySoft,
		models.CategoryDomain,
	} {
		result := report.Result(category)
		fmt.Fprintf(&b, "%s: %d of %d requirements covered\n",
			category, len(result.Matched), len(result.Matched)+len(result.Missing))
	}
	if missing := report.MissingSkills(); len(missing) > 0 {
		fmt.Fprintf(&b, "missing: %s\n", strings.Join(missing, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// extractJSON tries to extract JSON from text that might contain markdown or other formatting
func extractJSON(text string) string {
	// Remove markdown code blocks
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	// Find JSON object boundaries
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}

	return text
}
