package recovery

import (
	"errors"
	"fmt"

	"github.com/pdf-saas/orchestrator/internal/document"
)

// Tier names the stage of the cascade that produced an Outcome.
type Tier string

const (
	TierExtraction    Tier = "extraction"
	TierNormalization Tier = "normalization"
	TierRepair        Tier = "repair"
	TierDiagnostic    Tier = "diagnostic"
)

// Outcome is the result of Recover. Err holds the last strict-parse error when Tier is
// TierDiagnostic and is nil otherwise.
type Outcome struct {
	Result document.Result
	Tier   Tier
	Err    error
}

// Recover coerces free-form model output into a StructuredDocument, escalating through
// extraction, normalization and structural repair. When every tier fails it returns a
// DiagnosticResult carrying the last parse error and the most repaired text.
func Recover(raw string) (out Outcome) {
	candidate := raw
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("recovery aborted: %v", r)
			out = Outcome{
				Result: document.Diagnostic(document.NewDiagnostic(err, candidate)),
				Tier:   TierDiagnostic,
				Err:    err,
			}
		}
	}()

	candidate = ExtractBraceSpan(StripFence(raw))
	doc, err := strictParse(candidate)
	if err == nil {
		return Outcome{Result: document.Structured(doc), Tier: TierExtraction}
	}

	candidate = apply(candidate, NormalizationStrategies)
	doc, err = strictParse(candidate)
	if err == nil {
		return Outcome{Result: document.Structured(doc), Tier: TierNormalization}
	}

	candidate = apply(candidate, RepairStrategies)
	doc, err = strictParse(candidate)
	if err == nil {
		return Outcome{Result: document.Structured(doc), Tier: TierRepair}
	}

	if err.Error() == "" {
		err = errors.New("unknown parse error")
	}
	return Outcome{
		Result: document.Diagnostic(document.NewDiagnostic(err, candidate)),
		Tier:   TierDiagnostic,
		Err:    err,
	}
}
