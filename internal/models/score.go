package models

// ScoreCategory names one weighted scoring dimension.
type ScoreCategory string

const (
	ScoreTechnicalSkills     ScoreCategory = "technical_skills"
	ScoreSoftSkills          ScoreCategory = "soft_skills"
	ScoreDomainKeywords      ScoreCategory = "domain_keywords"
	ScoreCoreCompetency      ScoreCategory = "core_competency"
	ScoreExperienceSeniority ScoreCategory = "experience_seniority"
	ScorePotentialAbility    ScoreCategory = "potential_ability"
	ScoreCompanyFit          ScoreCategory = "company_fit"
)

// CategoryScore is one dimension's contribution to the overall score.
// RawRate is kept unrounded; rounding happens at presentation only.
type CategoryScore struct {
	Category       ScoreCategory `json:"category"`
	RawRate        float64       `json:"raw_match_rate"`
	MaxPoints      float64       `json:"category_max_points"`
	WeightedPoints float64       `json:"weighted_points"`
}

// GradeBand is the qualitative label for an overall score.
type GradeBand string

const (
	GradeExceptional GradeBand = "exceptional"
	GradeStrong      GradeBand = "strong"
	GradeGood        GradeBand = "good"
	GradeModerate    GradeBand = "moderate"
	GradePoor        GradeBand = "poor"
)

// ATSScore is the aggregate scoring result for one pipeline run.
// Immutable; a rerun produces a new instance so score history is preserved.
type ATSScore struct {
	CategoryScores []CategoryScore `json:"category_scores"`
	BonusPoints    float64         `json:"bonus_points"`
	OverallScore   float64         `json:"overall_score"`
	GradeBand      GradeBand       `json:"grade_band"`
}

// ExtraSignals carries the qualitative group-2 percentages (0-100) and the
// signed bonus adjustment produced by the upstream assessment.
type ExtraSignals struct {
	CoreCompetencyPct      float64 `json:"core_competency_pct"`
	ExperienceSeniorityPct float64 `json:"experience_seniority_pct"`
	PotentialAbilityPct    float64 `json:"potential_ability_pct"`
	CompanyFitPct          float64 `json:"company_fit_pct"`
	BonusPoints            float64 `json:"bonus_points"`
	Notes                  string  `json:"notes,omitempty"`
}
