package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clobrano/contentaudit/internal/failure"
	"github.com/clobrano/contentaudit/internal/logger"
	"github.com/clobrano/contentaudit/internal/models"
)

// requiredKeys must all be present in a reply for it to count as an audit.
var requiredKeys = []string{"score", "status", "summary", "financialPenalty", "ethicalMarketing", "violations"}

// forbiddenKeys mark replies where the model answered with a file edit
// instead of an audit.
var forbiddenKeys = []string{"file_path", "modified_content"}

var fencePattern = regexp.MustCompile("(?i)```(?:json)?")

// Invoker calls the Analyzer and turns its reply into a validated
// AuditResult.
type Invoker struct {
	analyzer Analyzer
	timeout  time.Duration
	log      *zap.Logger
}

func NewInvoker(a Analyzer, timeout time.Duration, log *zap.Logger) *Invoker {
	return &Invoker{analyzer: a, timeout: timeout, log: logger.OrNop(log)}
}

// Invoke returns AnalysisUnavailable when the call fails and
// InvalidAnalysisShape when the reply is not a well-formed audit.
func (i *Invoker) Invoke(ctx context.Context, text string, meta Meta) (models.AuditResult, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	raw, err := i.analyzer.Analyze(ctx, text, meta)
	if err != nil {
		return models.AuditResult{}, failure.Wrap(failure.AnalysisUnavailable, err, "Compliance analysis is unavailable. Please try again later.")
	}

	result, err := ParseResult(raw)
	if err != nil {
		i.log.Warn("Rejected analysis reply",
			zap.String("input_type", string(meta.InputType)),
			zap.Int("reply_length", len(raw)),
			zap.Error(err),
		)
		return models.AuditResult{}, err
	}
	return result, nil
}

// ParseResult strips markdown fences from raw and validates it as an
// audit result object.
func ParseResult(raw string) (models.AuditResult, error) {
	cleaned := cleanReply(raw)
	if cleaned == "" {
		return models.AuditResult{}, shapeError("empty reply", nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return models.AuditResult{}, shapeError("reply is not a JSON object", err)
	}

	for _, key := range forbiddenKeys {
		if _, ok := fields[key]; ok {
			return models.AuditResult{}, shapeError("reply is a file modification, not an audit", nil)
		}
	}

	var missing []string
	for _, key := range requiredKeys {
		if v, ok := fields[key]; !ok || string(v) == "null" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return models.AuditResult{}, shapeError("missing keys: "+strings.Join(missing, ", "), nil)
	}

	if v := bytes.TrimSpace(fields["violations"]); len(v) == 0 || v[0] != '[' {
		return models.AuditResult{}, shapeError("violations is not an array", nil)
	}

	var result models.AuditResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return models.AuditResult{}, shapeError("reply does not match the audit schema", err)
	}
	if result.Violations == nil {
		result.Violations = []models.Violation{}
	}
	return result, nil
}

func shapeError(detail string, err error) error {
	return failure.Wrap(failure.InvalidAnalysisShape, err,
		fmt.Sprintf("AI response parsing failed (%s).", detail))
}

// cleanReply removes code fences and any prose around the outermost
// JSON object.
func cleanReply(raw string) string {
	s := strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
