package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"cvtailor/internal/models"
)

type SkillMatcher interface {
	Match(ctx context.Context, cvSkills, jdSkills *models.SkillSet) (*models.MatchReport, error)
}

type skillMatcher struct {
	completion    CompletionService
	promptBuilder *PromptBuilder
	maxRetries    int
}

func NewSkillMatcher(completion CompletionService, maxRetries int) SkillMatcher {
	return &skillMatcher{
		completion:    completion,
		promptBuilder: NewPromptBuilder(),
		maxRetries:    maxRetries,
	}
}

// matchEntry is one classified JD requirement before ordering.
type matchEntry struct {
	matched   bool
	evidence  string
	kind      models.MatchKind
	rationale string
}

// Match implements SkillMatcher. Each category is reconciled independently;
// a failed category degrades to all-missing instead of aborting the run.
func (m *skillMatcher) Match(ctx context.Context, cvSkills, jdSkills *models.SkillSet) (*models.MatchReport, error) {
	report := &models.MatchReport{}

	for _, category := range []models.SkillCategory{
		models.CategoryTechnical,
		models.CategorySoft,
		models.CategoryDomain,
	} {
		result, degraded := m.matchCategory(ctx, category, cvSkills.Category(category), jdSkills.Category(category))
		*report.Result(category) = result
		if degraded {
			report.Degraded = append(report.Degraded, category)
		}
	}

	return report, nil
}

func (m *skillMatcher) matchCategory(ctx context.Context, category models.SkillCategory, cvItems, jdItems []string) (models.MatchResult, bool) {
	var result models.MatchResult
	if len(jdItems) == 0 {
		return result, false
	}

	// Exact case-insensitive matches always win over semantic reasoning and
	// never reach the completion service.
	cvByKey := make(map[string]string, len(cvItems))
	for _, item := range cvItems {
		key := strings.ToLower(item)
		if _, ok := cvByKey[key]; !ok {
			cvByKey[key] = item
		}
	}

	entries := make(map[string]matchEntry, len(jdItems))
	var remaining []string
	for _, jd := range jdItems {
		if evidence, ok := cvByKey[strings.ToLower(jd)]; ok {
			entries[strings.ToLower(jd)] = matchEntry{
				matched:   true,
				evidence:  evidence,
				kind:      models.MatchExact,
				rationale: "exact match with candidate skill",
			}
		} else {
			remaining = append(remaining, jd)
		}
	}

	degraded := false
	switch {
	case len(remaining) == 0:
		// nothing left to reason about
	case len(cvItems) == 0:
		for _, jd := range remaining {
			entries[strings.ToLower(jd)] = matchEntry{
				rationale: "candidate lists no skills in this category",
			}
		}
	default:
		prompt := m.promptBuilder.BuildSkillMatchPrompt(category, cvItems, remaining)
		response, err := m.completion.CompleteWithRetry(ctx, prompt, 0.2, 2048, m.maxRetries)
		if err != nil {
			// Conservative fallback: every unresolved requirement becomes
			// missing so a provider outage never inflates the score.
			log.Printf("⚠️ Skill comparison failed for %s, defaulting to missing: %v\n", category, err)
			for _, jd := range remaining {
				entries[strings.ToLower(jd)] = matchEntry{
					rationale: "comparison service unavailable; conservatively treated as missing",
				}
			}
			degraded = true
		} else {
			m.mergeClassifications(category, entries, response, remaining, cvItems)
		}
	}

	// Emit in JD input order so the partition is deterministic.
	for _, jd := range jdItems {
		entry, ok := entries[strings.ToLower(jd)]
		if !ok {
			entry = matchEntry{rationale: "not classified by comparison service"}
		}
		if entry.matched {
			result.Matched = append(result.Matched, models.MatchedSkill{
				JDRequirement: jd,
				CVEvidence:    entry.evidence,
				Kind:          entry.kind,
				Rationale:     entry.rationale,
			})
		} else {
			result.Missing = append(result.Missing, models.MissingSkill{
				JDRequirement: jd,
				Rationale:     entry.rationale,
			})
		}
	}

	return result, degraded
}

// mergeClassifications parses the comparison response and repairs it
// deterministically: first occurrence wins on duplicates, unknown JD items
// are dropped, unclassified JD items fall through to missing.
func (m *skillMatcher) mergeClassifications(category models.SkillCategory, entries map[string]matchEntry, response string, jdItems, cvItems []string) {
	valid := make(map[string]string, len(jdItems)) // normalized -> original
	for _, jd := range jdItems {
		valid[strings.ToLower(jd)] = jd
	}

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, "|")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if len(fields) < 2 {
			continue
		}

		verdict := strings.ToUpper(fields[0])
		if verdict != "MATCHED" && verdict != "MISSING" {
			continue
		}

		jdKey := strings.ToLower(cleanSkillTerm(fields[1]))
		jdOriginal, ok := valid[jdKey]
		if !ok {
			log.Printf("⚠️ Comparison cited unknown %s requirement %q, dropping line\n", category, fields[1])
			continue
		}
		if _, dup := entries[jdKey]; dup {
			log.Printf("⚠️ Duplicate classification for %s requirement %q, keeping first\n", category, jdOriginal)
			continue
		}

		if verdict == "MISSING" {
			rationale := "no equivalent candidate skill"
			if len(fields) >= 3 {
				rationale = fields[2]
			}
			entries[jdKey] = matchEntry{rationale: rationale}
			continue
		}

		var citedEvidence, rationale string
		if len(fields) >= 3 {
			citedEvidence = fields[2]
		}
		if len(fields) >= 4 {
			rationale = fields[3]
		}

		evidence, ok := resolveEvidence(jdOriginal, citedEvidence, cvItems)
		if !ok {
			// Ambiguous semantic link: precision over recall.
			entries[jdKey] = matchEntry{
				rationale: "cited evidence not traceable to candidate skills",
			}
			continue
		}

		if rationale == "" {
			rationale = fmt.Sprintf("covered by %s", evidence)
		}
		entries[jdKey] = matchEntry{
			matched:   true,
			evidence:  evidence,
			kind:      models.MatchSemantic,
			rationale: rationale,
		}
	}
}

// resolveEvidence maps the cited evidence back onto an actual CV item. When
// the citation is ambiguous, the most specific CV item wins: the one sharing
// the longest overlapping term with the requirement or citation.
func resolveEvidence(jdItem, cited string, cvItems []string) (string, bool) {
	citedKey := strings.ToLower(strings.TrimSpace(cited))

	// Direct citation of a CV item.
	for _, cv := range cvItems {
		if strings.ToLower(cv) == citedKey {
			return cv, true
		}
	}

	// Substring containment between citation and CV items.
	var best string
	if citedKey != "" {
		for _, cv := range cvItems {
			cvKey := strings.ToLower(cv)
			if strings.Contains(citedKey, cvKey) || strings.Contains(cvKey, citedKey) {
				if len(cv) > len(best) {
					best = cv
				}
			}
		}
		if best != "" {
			return best, true
		}
	}

	// Longest overlapping term between the JD requirement and any CV item.
	bestLen := 0
	for _, cv := range cvItems {
		if n := longestCommonTerm(jdItem, cv); n > bestLen || (n == bestLen && n > 0 && len(cv) > len(best)) {
			bestLen = n
			best = cv
		}
	}
	if bestLen >= 3 {
		return best, true
	}

	return "", false
}

// longestCommonTerm returns the length of the longest token (>= 3 chars)
// shared between two skill strings, case-insensitively.
func longestCommonTerm(a, b string) int {
	tokensA := skillTokens(a)
	tokensB := make(map[string]bool)
	for _, t := range skillTokens(b) {
		tokensB[t] = true
	}

	longest := 0
	for _, t := range tokensA {
		if tokensB[t] && len(t) > longest {
			longest = len(t)
		}
	}
	return longest
}

func skillTokens(s string) []string {
	var tokens []string
	for _, t := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == '/' || r == ',' || r == '(' || r == ')' || r == '-'
	}) {
		if len(t) >= 3 {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
