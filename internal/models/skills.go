package models

// SourceType identifies which document a skill set was extracted from.
type SourceType string

const (
	SourceCV SourceType = "cv"
	SourceJD SourceType = "jd"
)

// SkillCategory is one of the three extraction buckets.
type SkillCategory string

const (
	CategoryTechnical SkillCategory = "technical"
	CategorySoft      SkillCategory = "soft"
	CategoryDomain    SkillCategory = "domain"
)

// SkillSet holds the three-category extraction result for one document.
// Immutable once created; a re-extraction produces a new instance.
type SkillSet struct {
	Technical []string `json:"technical"`
	Soft      []string `json:"soft"`
	Domain    []string `json:"domain"`
}

// Category returns the items for one bucket.
func (s *SkillSet) Category(c SkillCategory) []string {
	switch c {
	case CategoryTechnical:
		return s.Technical
	case CategorySoft:
		return s.Soft
	case CategoryDomain:
		return s.Domain
	}
	return nil
}

// IsEmpty reports whether extraction produced no skills at all.
func (s *SkillSet) IsEmpty() bool {
	return len(s.Technical) == 0 && len(s.Soft) == 0 && len(s.Domain) == 0
}

type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchSemantic MatchKind = "semantic"
)

// MatchedSkill is a JD requirement reconciled to CV evidence.
type MatchedSkill struct {
	JDRequirement string    `json:"jd_requirement"`
	CVEvidence    string    `json:"cv_evidence"`
	Kind          MatchKind `json:"match_kind"`
	Rationale     string    `json:"rationale"`
}

// MissingSkill is a JD requirement with no CV evidence.
type MissingSkill struct {
	JDRequirement string `json:"jd_requirement"`
	Rationale     string `json:"rationale"`
}

// MatchResult partitions one category's JD requirements into matched and missing.
// Every JD requirement appears in exactly one of the two lists.
type MatchResult struct {
	Matched []MatchedSkill `json:"matched"`
	Missing []MissingSkill `json:"missing"`
}

// MatchRate returns |matched| / (|matched| + |missing|), 0 for an empty category.
func (m *MatchResult) MatchRate() float64 {
	total := len(m.Matched) + len(m.Missing)
	if total == 0 {
		return 0
	}
	return float64(len(m.Matched)) / float64(total)
}

// MatchReport is the full matcher output across the three categories.
// Degraded lists categories that fell back to all-missing because the
// comparison service failed; callers surface these as warnings.
type MatchReport struct {
	Technical MatchResult     `json:"technical"`
	Soft      MatchResult     `json:"soft"`
	Domain    MatchResult     `json:"domain"`
	Degraded  []SkillCategory `json:"degraded,omitempty"`
}

// Result returns the MatchResult for one category.
func (r *MatchReport) Result(c SkillCategory) *MatchResult {
	switch c {
	case CategoryTechnical:
		return &r.Technical
	case CategorySoft:
		return &r.Soft
	case CategoryDomain:
		return &r.Domain
	}
	return nil
}

// MissingSkills collects every missing JD requirement across categories.
func (r *MatchReport) MissingSkills() []string {
	var out []string
	for _, res := range []MatchResult{r.Technical, r.Soft, r.Domain} {
		for _, m := range res.Missing {
			out = append(out, m.JDRequirement)
		}
	}
	return out
}
