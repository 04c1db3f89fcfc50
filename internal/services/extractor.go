package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"cvtailor/internal/models"
)

// MinDocumentChars is the smallest document the extractor will accept.
const MinDocumentChars = 50

// extractParseRetries is how many times a malformed response is re-requested
// before giving up with a ParseError.
const extractParseRetries = 2

type SkillExtractor interface {
	Extract(ctx context.Context, documentText string, source models.SourceType) (*models.SkillSet, error)
}

type skillExtractor struct {
	completion    CompletionService
	promptBuilder *PromptBuilder
	maxRetries    int
}

func NewSkillExtractor(completion CompletionService, maxRetries int) SkillExtractor {
	return &skillExtractor{
		completion:    completion,
		promptBuilder: NewPromptBuilder(),
		maxRetries:    maxRetries,
	}
}

// Extract implements SkillExtractor. Pure function of its inputs apart from
// the outbound completion call.
func (e *skillExtractor) Extract(ctx context.Context, documentText string, source models.SourceType) (*models.SkillSet, error) {
	documentText = strings.TrimSpace(documentText)
	if len(documentText) < MinDocumentChars {
		return nil, fmt.Errorf("%s document has %d characters: %w", source, len(documentText), ErrInsufficientContent)
	}

	prompt := e.promptBuilder.BuildSkillExtractionPrompt(documentText, source)

	var lastParseErr error
	attempts := 1 + extractParseRetries

	for attempt := 1; attempt <= attempts; attempt++ {
		response, err := e.completion.CompleteWithRetry(ctx, prompt, 0.2, 1024, e.maxRetries)
		if err != nil {
			return nil, fmt.Errorf("skill extraction (%s): %w", source, err)
		}

		skills, err := parseSkillResponse(response)
		if err != nil {
			lastParseErr = err
			log.Printf("⚠️ Malformed extraction response for %s (attempt %d/%d): %v\n", source, attempt, attempts, err)
			continue
		}

		return e.postProcess(skills, documentText), nil
	}

	return nil, &ParseError{Stage: fmt.Sprintf("extract_%s", source), Attempts: attempts, Err: lastParseErr}
}

// parseSkillResponse parses the three labeled comma-lists. All three section
// headers must be present and at least one list must be non-empty.
func parseSkillResponse(response string) (*models.SkillSet, error) {
	var skills models.SkillSet
	var seenTechnical, seenSoft, seenDomain bool

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(upper, "TECHNICAL:"):
			seenTechnical = true
			skills.Technical = splitSkillList(line[len("TECHNICAL:"):])
		case strings.HasPrefix(upper, "SOFT:"):
			seenSoft = true
			skills.Soft = splitSkillList(line[len("SOFT:"):])
		case strings.HasPrefix(upper, "DOMAIN:"):
			seenDomain = true
			skills.Domain = splitSkillList(line[len("DOMAIN:"):])
		}
	}

	if !seenTechnical || !seenSoft || !seenDomain {
		return nil, fmt.Errorf("missing section headers (technical=%t soft=%t domain=%t)",
			seenTechnical, seenSoft, seenDomain)
	}
	if skills.IsEmpty() {
		return nil, fmt.Errorf("all skill lists empty")
	}

	return &skills, nil
}

func splitSkillList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "NONE") {
		return nil
	}

	var items []string
	for _, part := range strings.Split(raw, ",") {
		term := cleanSkillTerm(part)
		if term != "" {
			items = append(items, term)
		}
	}
	return items
}

// cleanSkillTerm trims whitespace and surrounding punctuation while
// preserving the term's original casing.
func cleanSkillTerm(term string) string {
	return strings.Trim(term, " \t\"'`.,;:!?()[]*-•")
}

// postProcess enforces the SkillSet invariants: each term verbatim-traceable
// to the source document, and no term in more than one category. Category
// priority for cross-category dedup is technical > domain > soft.
func (e *skillExtractor) postProcess(skills *models.SkillSet, documentText string) *models.SkillSet {
	lowerDoc := strings.ToLower(documentText)
	seen := make(map[string]bool)

	keep := func(items []string) []string {
		var out []string
		for _, term := range items {
			key := strings.ToLower(term)
			if seen[key] {
				continue
			}
			if !strings.Contains(lowerDoc, key) {
				log.Printf("⚠️ Dropping hallucinated skill %q: not present in source document\n", term)
				continue
			}
			seen[key] = true
			out = append(out, term)
		}
		return out
	}

	return &models.SkillSet{
		Technical: keep(skills.Technical),
		Domain:    keep(skills.Domain),
		Soft:      keep(skills.Soft),
	}
}
