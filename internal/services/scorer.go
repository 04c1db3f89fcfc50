package services

import (
	"fmt"
	"math"

	"cvtailor/internal/config"
	"cvtailor/internal/models"
)

type ATSScorer interface {
	Score(report *models.MatchReport, signals models.ExtraSignals) *models.ATSScore
}

type atsScorer struct {
	cfg config.ScoringConfig
}

// NewATSScorer validates the point table up front so a misconfigured weight
// set fails at startup, not per request.
func NewATSScorer(cfg config.ScoringConfig) (ATSScorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}
	return &atsScorer{cfg: cfg}, nil
}

// Score implements ATSScorer. All arithmetic is done on unrounded floats;
// rounding happens only at presentation time.
func (s *atsScorer) Score(report *models.MatchReport, signals models.ExtraSignals) *models.ATSScore {
	categories := []models.CategoryScore{
		scoreCategory(models.ScoreTechnicalSkills, report.Technical.MatchRate(), s.cfg.TechnicalPoints),
		scoreCategory(models.ScoreSoftSkills, report.Soft.MatchRate(), s.cfg.SoftPoints),
		scoreCategory(models.ScoreDomainKeywords, report.Domain.MatchRate(), s.cfg.DomainPoints),
		scoreCategory(models.ScoreCoreCompetency, clampRate(signals.CoreCompetencyPct/100), s.cfg.CoreCompetencyPoints),
		scoreCategory(models.ScoreExperienceSeniority, clampRate(signals.ExperienceSeniorityPct/100), s.cfg.ExperiencePoints),
		scoreCategory(models.ScorePotentialAbility, clampRate(signals.PotentialAbilityPct/100), s.cfg.PotentialPoints),
		scoreCategory(models.ScoreCompanyFit, clampRate(signals.CompanyFitPct/100), s.cfg.CompanyFitPoints),
	}

	total := 0.0
	for _, c := range categories {
		total += c.WeightedPoints
	}

	bonus := clamp(signals.BonusPoints, -s.cfg.BonusClamp, s.cfg.BonusClamp)
	overall := clamp(total+bonus, 0, 100)

	return &models.ATSScore{
		CategoryScores: categories,
		BonusPoints:    bonus,
		OverallScore:   overall,
		GradeBand:      GradeBandFor(overall),
	}
}

func scoreCategory(category models.ScoreCategory, rate, maxPoints float64) models.CategoryScore {
	return models.CategoryScore{
		Category:       category,
		RawRate:        rate,
		MaxPoints:      maxPoints,
		WeightedPoints: rate * maxPoints,
	}
}

// GradeBandFor maps an overall score onto its qualitative band. The bands
// are non-overlapping and cover the full [0, 100] range.
func GradeBandFor(overall float64) models.GradeBand {
	switch {
	case overall >= 90:
		return models.GradeExceptional
	case overall >= 80:
		return models.GradeStrong
	case overall >= 70:
		return models.GradeGood
	case overall >= 60:
		return models.GradeModerate
	default:
		return models.GradePoor
	}
}

// Round1 rounds to one decimal place. Presentation only; never applied
// before aggregation.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clampRate(rate float64) float64 {
	return clamp(rate, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
