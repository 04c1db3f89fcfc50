package services

import (
	"fmt"
	"strings"

	"cvtailor/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildSkillExtractionPrompt creates the prompt for skill extraction. The
// response schema is three labeled comma-separated lines so the parser can
// validate it without trusting the model.
func (pb *PromptBuilder) BuildSkillExtractionPrompt(documentText string, source models.SourceType) string {
	docLabel := "candidate CV"
	if source == models.SourceJD {
		docLabel = "job description"
	}

	return fmt.Sprintf(`You are an expert ATS analyst extracting skills from a %s.

DOCUMENT:
%s

Extract three lists of skills that appear in the document:
1. TECHNICAL - tools, programming languages, platforms, frameworks
2. SOFT - interpersonal and communication competencies
3. DOMAIN - industry terms, certifications, business domains

Rules:
- Only include terms that literally appear in the document text. Never invent or infer skills.
- Keep each skill short (1-4 words), using the document's own wording.
- A skill must appear in exactly one list.

Respond with EXACTLY three lines in this format and nothing else:
TECHNICAL: skill, skill, skill
SOFT: skill, skill
DOMAIN: skill, skill

If a list has no skills write NONE after the label.`,
		docLabel, documentText)
}

// BuildSkillMatchPrompt creates the per-category comparison prompt. Exact
// matches are resolved locally before this prompt is built, so only the
// still-unmatched JD requirements are listed.
func (pb *PromptBuilder) BuildSkillMatchPrompt(category models.SkillCategory, cvItems, jdItems []string) string {
	return fmt.Sprintf(`You are an expert ATS analyst comparing a candidate's %s skills against a job description.

CANDIDATE SKILLS:
%s

JOB REQUIREMENTS:
%s

For EACH job requirement decide whether the candidate's skills cover it, including
semantic equivalences (e.g. "Power BI" covers "BI tools"). Be strict: when a link
is uncertain, classify the requirement as MISSING. Never count a requirement twice.

Respond with one line per job requirement, in the order given, using EXACTLY one
of these formats and nothing else:
MATCHED | <job requirement> | <candidate skill that covers it> | <one-sentence rationale>
MISSING | <job requirement> | <one-sentence rationale>`,
		category, formatSkillList(cvItems), formatSkillList(jdItems))
}

// BuildQualitativeAssessmentPrompt creates the prompt for the group-2
// qualitative signals (competency, seniority, potential, company fit) plus
// the signed bonus adjustment.
func (pb *PromptBuilder) BuildQualitativeAssessmentPrompt(cvText, jdText, matchSummary string) string {
	return fmt.Sprintf(`You are an expert technical recruiter assessing a candidate against a job description.

JOB DESCRIPTION:
%s

CANDIDATE CV:
%s

SKILL MATCH SUMMARY:
%s

Assess the following dimensions as percentages from 0 to 100:
1. core_competency_pct - how well the candidate's core strengths align with the role's primary duties
2. experience_seniority_pct - years of experience and seniority relative to the role
3. potential_ability_pct - growth trajectory and learning signals
4. company_fit_pct - industry and culture alignment

Also assign bonus_points between -5 and 5: positive for well-roundedness beyond
the requirements, negative for major red flags or gaps.

Return your response in the following JSON format:
{
  "core_competency_pct": <0-100>,
  "experience_seniority_pct": <0-100>,
  "potential_ability_pct": <0-100>,
  "company_fit_pct": <0-100>,
  "bonus_points": <-5 to 5>,
  "notes": "<2-3 sentences justifying the numbers>"
}

Base every number only on the provided text. Return only valid JSON.`,
		jdText, cvText, matchSummary)
}

// BuildRecommendationPrompt creates the prompt for the improvement
// recommendation that drives CV tailoring.
func (pb *PromptBuilder) BuildRecommendationPrompt(company string, score *models.ATSScore, missingSkills []string, ragContext string) string {
	return fmt.Sprintf(`You are an expert CV coach helping a candidate improve their ATS score for a role at %s.

CURRENT ATS SCORE: %.2f / 100 (%s)

MISSING JOB REQUIREMENTS:
%s

REFERENCE CONTEXT:
%s

Write a concise, actionable recommendation (5-8 sentences) telling the candidate:
1. Which missing requirements matter most for the score
2. Which existing CV content should be reworded to surface relevant evidence
3. What NOT to do (never fabricate experience the candidate does not have)

Return ONLY the recommendation text.`,
		company, score.OverallScore, score.GradeBand, formatSkillList(missingSkills), ragContext)
}

// BuildTailoredCVPrompt creates the prompt for generating the revised CV.
func (pb *PromptBuilder) BuildTailoredCVPrompt(cvText, jdText, recommendation string) string {
	return fmt.Sprintf(`You are an expert CV writer optimizing a candidate's CV for an Applicant Tracking System.

ORIGINAL CV:
%s

TARGET JOB DESCRIPTION:
%s

IMPROVEMENT RECOMMENDATION:
%s

Rewrite the CV following the recommendation. Rules:
- Keep every fact truthful; rephrase and reorganize, never invent experience.
- Surface the job description's keywords wherever the candidate has genuine evidence.
- Keep the candidate's structure (sections, chronology) recognizable.

Return ONLY the full text of the revised CV.`,
		cvText, jdText, recommendation)
}

// BuildRetrievalQuery creates the query text for RAG context retrieval.
func (pb *PromptBuilder) BuildRetrievalQuery(docType, company string) string {
	switch docType {
	case "role_guide":
		return fmt.Sprintf("CV writing guidance for roles at %s", company)
	case "ats_keywords":
		return "ATS keyword optimization guidelines and scoring criteria"
	default:
		return company
	}
}

func formatSkillList(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatRAGContext renders retrieved context chunks for prompt injection.
func FormatRAGContext(results []SearchResult) string {
	if len(results) == 0 {
		return "No relevant context found."
	}

	var parts []string
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Context %d (Score: %.2f) ---\n%s",
			i+1, result.Score, strings.TrimSpace(result.Text)))
	}

	return strings.Join(parts, "\n\n")
}
