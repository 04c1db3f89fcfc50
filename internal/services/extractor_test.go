package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvtailor/internal/models"
)

const sampleCV = `Jane Doe, Senior Data Analyst.
Built dashboards in Python and Power BI for the retail analytics team.
Known for clear communication and mentoring junior analysts.
Certified Scrum Master with strong SQL and data warehousing background.`

func TestExtractParsesThreeCategories(t *testing.T) {
	fake := &fakeCompletion{queue: []string{
		"TECHNICAL: Python, SQL, Power BI\nSOFT: communication, mentoring\nDOMAIN: retail analytics, Scrum Master",
	}}
	extractor := NewSkillExtractor(fake, 3)

	skills, err := extractor.Extract(context.Background(), sampleCV, models.SourceCV)
	require.NoError(t, err)

	assert.Equal(t, []string{"Python", "SQL", "Power BI"}, skills.Technical)
	assert.Equal(t, []string{"communication", "mentoring"}, skills.Soft)
	assert.Equal(t, []string{"retail analytics", "Scrum Master"}, skills.Domain)
}

func TestExtractRejectsShortDocument(t *testing.T) {
	fake := &fakeCompletion{}
	extractor := NewSkillExtractor(fake, 3)

	_, err := extractor.Extract(context.Background(), "too short", models.SourceCV)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientContent)
	assert.Zero(t, fake.callCount(), "no completion call for rejected input")
}

func TestExtractDropsHallucinatedTerms(t *testing.T) {
	fake := &fakeCompletion{queue: []string{
		"TECHNICAL: Python, Kubernetes\nSOFT: communication\nDOMAIN: retail analytics",
	}}
	extractor := NewSkillExtractor(fake, 3)

	skills, err := extractor.Extract(context.Background(), sampleCV, models.SourceCV)
	require.NoError(t, err)

	assert.Equal(t, []string{"Python"}, skills.Technical, "Kubernetes is not in the document")
}

func TestExtractCrossCategoryDedup(t *testing.T) {
	// "SQL" appears in technical and soft; technical has priority.
	// "retail analytics" appears in domain and soft; domain beats soft.
	fake := &fakeCompletion{queue: []string{
		"TECHNICAL: SQL, Python\nSOFT: sql, retail analytics, communication\nDOMAIN: Retail Analytics",
	}}
	extractor := NewSkillExtractor(fake, 3)

	skills, err := extractor.Extract(context.Background(), sampleCV, models.SourceCV)
	require.NoError(t, err)

	assert.Equal(t, []string{"SQL", "Python"}, skills.Technical)
	assert.Equal(t, []string{"Retail Analytics"}, skills.Domain)
	assert.Equal(t, []string{"communication"}, skills.Soft)

	// Dedup invariant: no term in more than one category.
	seen := make(map[string]int)
	for _, list := range [][]string{skills.Technical, skills.Soft, skills.Domain} {
		for _, term := range list {
			seen[strings.ToLower(term)]++
		}
	}
	for term, count := range seen {
		assert.Equal(t, 1, count, "term %q appears %d times", term, count)
	}
}

func TestExtractRetriesOnMalformedResponse(t *testing.T) {
	fake := &fakeCompletion{queue: []string{
		"I could not find any skills, sorry!",
		"TECHNICAL: Python\nSOFT: communication\nDOMAIN: NONE",
	}}
	extractor := NewSkillExtractor(fake, 3)

	skills, err := extractor.Extract(context.Background(), sampleCV, models.SourceCV)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.callCount())
	assert.Equal(t, []string{"Python"}, skills.Technical)
	assert.Empty(t, skills.Domain)
}

func TestExtractParseErrorAfterRetryBudget(t *testing.T) {
	fake := &fakeCompletion{queue: []string{
		"nonsense", "more nonsense", "still nonsense",
	}}
	extractor := NewSkillExtractor(fake, 3)

	_, err := extractor.Extract(context.Background(), sampleCV, models.SourceJD)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "extract_jd", parseErr.Stage)
	assert.Equal(t, 3, parseErr.Attempts)
}

func TestExtractServiceErrorAborts(t *testing.T) {
	fake := &fakeCompletion{errs: []error{&ServiceError{Op: "complete", Err: errors.New("boom")}}}
	extractor := NewSkillExtractor(fake, 1)

	_, err := extractor.Extract(context.Background(), sampleCV, models.SourceCV)
	require.Error(t, err)

	var svcErr *ServiceError
	assert.ErrorAs(t, err, &svcErr)
}

func TestParseSkillResponseRequiresAllHeaders(t *testing.T) {
	_, err := parseSkillResponse("TECHNICAL: Python\nSOFT: teamwork")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing section headers")
}

func TestCleanSkillTerm(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Python  ", "Python"},
		{"\"Power BI\"", "Power BI"},
		{"- SQL.", "SQL"},
		{"(teamwork)", "teamwork"},
		{"...", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanSkillTerm(tt.in))
	}
}
