package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// OptionKey is the choice key of a multiple-choice option.
type OptionKey string

const (
	OptionA OptionKey = "a"
	OptionB OptionKey = "b"
	OptionC OptionKey = "c"
	OptionD OptionKey = "d"
)

// OptionKeys lists the allowed choice keys in presentation order.
var OptionKeys = []OptionKey{OptionA, OptionB, OptionC, OptionD}

func (k OptionKey) Valid() bool {
	switch k {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	default:
		return false
	}
}

// StructuredDocument is the canonical output of the summarization stage.
type StructuredDocument struct {
	Summary   string    `json:"summary"`
	KeyPoints []string  `json:"key_points"`
	Mcq       []McqItem `json:"mcq" validate:"len=10,dive"`
}

type McqItem struct {
	Question    string               `json:"question" validate:"required"`
	Options     map[OptionKey]string `json:"options" validate:"required,min=2,dive,keys,option_key,endkeys"`
	Answer      OptionKey            `json:"answer" validate:"required"`
	Explanation string               `json:"explanation"`
}

// UnmarshalJSON accepts the singular "option" key emitted by the summarization prompt
// when "options" is absent.
func (m *McqItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		Question    string               `json:"question"`
		Options     map[OptionKey]string `json:"options"`
		Option      map[OptionKey]string `json:"option"`
		Answer      OptionKey            `json:"answer"`
		Explanation string               `json:"explanation"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Question = raw.Question
	m.Options = raw.Options
	if m.Options == nil {
		m.Options = raw.Option
	}
	m.Answer = raw.Answer
	m.Explanation = raw.Explanation
	return nil
}

// DiagnosticMessage is the fixed headline of every DiagnosticResult.
const DiagnosticMessage = "failed to parse model output after all repair tiers"

// DiagnosticResult replaces a StructuredDocument when the model output could not be recovered.
// It keeps the parser error and the best-effort repaired text so nothing is silently dropped.
type DiagnosticResult struct {
	Error         string `json:"error"`
	OriginalError string `json:"originalError"`
	RepairedText  string `json:"repairedText"`
}

func NewDiagnostic(originalErr error, repairedText string) *DiagnosticResult {
	msg := "unknown parse error"
	if originalErr != nil && originalErr.Error() != "" {
		msg = originalErr.Error()
	}
	return &DiagnosticResult{
		Error:         DiagnosticMessage,
		OriginalError: msg,
		RepairedText:  repairedText,
	}
}

type Kind string

const (
	KindStructured Kind = "structured"
	KindDiagnostic Kind = "diagnostic"
)

// Result holds exactly one of a StructuredDocument or a DiagnosticResult.
type Result struct {
	Document   *StructuredDocument
	Diagnostic *DiagnosticResult
}

func Structured(doc StructuredDocument) Result {
	return Result{Document: &doc}
}

func Diagnostic(d *DiagnosticResult) Result {
	return Result{Diagnostic: d}
}

func (r Result) Kind() Kind {
	if r.Document != nil {
		return KindStructured
	}
	return KindDiagnostic
}

func (r Result) MarshalJSON() ([]byte, error) {
	switch {
	case r.Document != nil && r.Diagnostic != nil:
		return nil, errors.New("result holds both a document and a diagnostic")
	case r.Document != nil:
		return json.Marshal(r.Document)
	case r.Diagnostic != nil:
		return json.Marshal(r.Diagnostic)
	default:
		return nil, errors.New("result is empty")
	}
}

// Encode renders the persisted form of the result.
func (r Result) Encode() ([]byte, error) {
	data, err := r.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Decode reads a persisted record back. A record carrying "originalError" is a diagnostic.
func Decode(data []byte) (Result, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Result{}, fmt.Errorf("decoding persisted document: %w", err)
	}

	if _, ok := fields["originalError"]; ok {
		var d DiagnosticResult
		if err := json.Unmarshal(data, &d); err != nil {
			return Result{}, fmt.Errorf("decoding diagnostic result: %w", err)
		}
		return Diagnostic(&d), nil
	}

	var doc StructuredDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{}, fmt.Errorf("decoding structured document: %w", err)
	}
	return Structured(doc), nil
}
