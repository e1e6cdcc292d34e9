package models

import "time"

const (
	StatusCompliant    = "Compliant"
	StatusNeedsReview  = "Needs Review"
	StatusNonCompliant = "Non-Compliant"
)

type FinancialPenalty struct {
	RiskLevel   string `json:"riskLevel"`
	Description string `json:"description"`
}

type EthicalMarketing struct {
	Score      float64 `json:"score"`
	Assessment string  `json:"assessment"`
}

type Violation struct {
	Severity           string `json:"severity"`
	Regulation         string `json:"regulation"`
	Description        string `json:"description"`
	ProblematicContent string `json:"problematicContent"`
	EnglishTranslation string `json:"englishTranslation,omitempty"`
	Suggestion         string `json:"suggestion"`
	Solution           string `json:"solution"`
}

// AuditResult is the analysis outcome returned to callers.
type AuditResult struct {
	Score            float64          `json:"score"`
	Status           string           `json:"status"`
	Summary          string           `json:"summary"`
	Transcription    string           `json:"transcription"`
	FinancialPenalty FinancialPenalty `json:"financialPenalty"`
	EthicalMarketing EthicalMarketing `json:"ethicalMarketing"`
	Violations       []Violation      `json:"violations"`
}

// PlaceholderResult builds the "could not audit" result. Violations is
// always a non-nil empty slice so it serializes as [].
func PlaceholderResult(summary string) AuditResult {
	return AuditResult{
		Score:   0,
		Status:  StatusNeedsReview,
		Summary: summary,
		FinancialPenalty: FinancialPenalty{
			RiskLevel:   "Unknown",
			Description: "Could not evaluate.",
		},
		EthicalMarketing: EthicalMarketing{
			Score:      0,
			Assessment: "Could not evaluate.",
		},
		Violations: []Violation{},
	}
}

// AuditRecord is the persisted unit. It is never mutated after creation.
type AuditRecord struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	ContentType   ContentType `json:"contentType"`
	OriginalInput string      `json:"originalInput"`
	ExtractedText string      `json:"extractedText"`
	Transcript    string      `json:"transcript"`
	AuditResult   AuditResult `json:"auditResult"`
	CreatedAt     time.Time   `json:"createdAt"`
}
