// Package analyzer runs the compliance audit on extracted text through an
// LLM and validates the reply before anything downstream trusts it.
package analyzer

import (
	"context"
	"fmt"

	"github.com/clobrano/contentaudit/internal/models"
)

// Meta describes the content being audited.
type Meta struct {
	InputType    models.ContentType
	Category     string
	AnalysisMode string
}

// Analyzer returns the raw model reply for content. The reply is expected
// to be an AuditResult JSON object but is not trusted until Invoker has
// validated it.
type Analyzer interface {
	Analyze(ctx context.Context, content string, meta Meta) (string, error)
}

const compliancePrompt = `You are a senior Indian regulatory compliance auditor for advertising and healthcare marketing.

TASK:
Audit the given %s content (category: %s) for Indian advertising and healthcare compliance.

REGULATIONS:
- Drugs and Magic Remedies Act, 1954 (Schedule J)
- ASCI Code & Healthcare Guidelines 2024
- Consumer Protection Act 2019
- UCPMP 2024
- IRDAI Advertising Norms (if applicable)

OUTPUT RULES:
- Return ONLY valid JSON, not wrapped in markdown
- Do not return code or file modifications
- Do not repeat points
- Every recommendation must be actionable and replacement-based: quote the problematic sentence and give the compliant replacement

FORMAT RULES:
- suggestion and solution are numbered points (1., 2., 3.), at most 3 each

JSON SCHEMA:
{
  "score": number,
  "status": "Compliant" | "Needs Review" | "Non-Compliant",
  "summary": string,
  "transcription": string,
  "financialPenalty": {"riskLevel": "High" | "Medium" | "Low" | "None", "description": string},
  "ethicalMarketing": {"score": number, "assessment": string},
  "violations": [
    {
      "severity": "Critical" | "High" | "Medium" | "Low",
      "regulation": string,
      "description": string,
      "problematicContent": string,
      "englishTranslation": string,
      "suggestion": string,
      "solution": string
    }
  ]
}

ANALYSIS MODE: %s`

// BuildPrompt returns the audit instructions for meta.
func BuildPrompt(meta Meta) string {
	inputType := string(meta.InputType)
	if inputType == "" {
		inputType = string(models.ContentTypeText)
	}
	category := meta.Category
	if category == "" {
		category = "General"
	}
	mode := meta.AnalysisMode
	if mode == "" {
		mode = "Standard"
	}
	return fmt.Sprintf(compliancePrompt, inputType, category, mode)
}
