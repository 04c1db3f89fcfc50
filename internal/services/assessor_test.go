package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvtailor/internal/models"
)

func TestAssessParsesFencedJSON(t *testing.T) {
	fake := &fakeCompletion{queue: []string{
		"Here is my assessment:\n```json\n" +
			`{"core_competency_pct": 85, "experience_seniority_pct": 70,
			  "potential_ability_pct": 60, "company_fit_pct": 55,
			  "bonus_points": -2, "notes": "strong core, thin domain history"}` +
			"\n```",
	}}
	assessor := NewQualitativeAssessor(fake, 3)

	signals, err := assessor.Assess(context.Background(), pipelineCV, pipelineJD, &models.MatchReport{})
	require.NoError(t, err)

	assert.InDelta(t, 85, signals.CoreCompetencyPct, 1e-9)
	assert.InDelta(t, 70, signals.ExperienceSeniorityPct, 1e-9)
	assert.InDelta(t, -2, signals.BonusPoints, 1e-9)
	assert.Contains(t, signals.Notes, "strong core")
}

func TestAssessDegradesOnProviderFailure(t *testing.T) {
	fake := &fakeCompletion{respond: func(string) (string, error) {
		return "", errors.New("provider down")
	}}
	assessor := NewQualitativeAssessor(fake, 2)

	signals, err := assessor.Assess(context.Background(), pipelineCV, pipelineJD, &models.MatchReport{})
	require.NoError(t, err, "assessment degrades, never aborts the run")

	assert.Zero(t, signals.CoreCompetencyPct)
	assert.Zero(t, signals.BonusPoints)
	assert.Equal(t, "qualitative assessment unavailable", signals.Notes)
}

func TestAssessDegradesOnUnparsableResponse(t *testing.T) {
	fake := &fakeCompletion{queue: []string{"I cannot assess this candidate."}}
	assessor := NewQualitativeAssessor(fake, 2)

	signals, err := assessor.Assess(context.Background(), pipelineCV, pipelineJD, &models.MatchReport{})
	require.NoError(t, err)
	assert.Equal(t, "qualitative assessment unparsable", signals.Notes)
}

func TestSummarizeMatches(t *testing.T) {
	report := &models.MatchReport{
		Technical: models.MatchResult{
			Matched: []models.MatchedSkill{{JDRequirement: "Python"}},
			Missing: []models.MissingSkill{{JDRequirement: "Kafka"}},
		},
	}

	summary := summarizeMatches(report)
	assert.Contains(t, summary, "technical: 1 of 2 requirements covered")
	assert.Contains(t, summary, "missing: Kafka")
}
