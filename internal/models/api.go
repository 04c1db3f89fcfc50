package models

type UploadResponse struct {
	ID           string `json:"id"`
	Company      string `json:"company"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	DocType      string `json:"doc_type"`
}

// TailorRequest starts a tailoring run. Document ids are optional; when
// omitted, the company's most recent upload of that type is used.
type TailorRequest struct {
	Company      string `json:"company" validate:"required"`
	CVDocumentID string `json:"cv_document_id,omitempty"`
	JDDocumentID string `json:"jd_document_id,omitempty"`
}

type TailorResponse struct {
	ID      string `json:"id"`
	Company string `json:"company"`
	Status  string `json:"status"`
}

// CategoryBreakdown is the presentation form of a CategoryScore. Rates and
// points are rounded to one decimal place here and nowhere earlier.
type CategoryBreakdown struct {
	Category  string  `json:"category"`
	MatchRate float64 `json:"match_rate"`
	MaxPoints float64 `json:"max_points"`
	Points    float64 `json:"points"`
}

type ScoreBreakdown struct {
	Overall    float64             `json:"overall_score"`
	GradeBand  string              `json:"grade_band"`
	Bonus      float64             `json:"bonus_points"`
	Categories []CategoryBreakdown `json:"categories"`
}

type ResultResponse struct {
	ID             string          `json:"id"`
	Company        string          `json:"company"`
	Status         string          `json:"status"`
	Iteration      int             `json:"iteration"`
	Score          *ScoreBreakdown `json:"score,omitempty"`
	Recommendation *string         `json:"recommendation,omitempty"`
	TailoredCV     *string         `json:"tailored_cv,omitempty"`
	FailedStage    *string         `json:"failed_stage,omitempty"`
	ErrorMessage   *string         `json:"error_message,omitempty"`
}
