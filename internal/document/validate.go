package document

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// ValidationError lists every reason a document failed the strict check.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document failed strict validation: %s", strings.Join(e.Reasons, "; "))
}

func documentValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("option_key", func(fl validator.FieldLevel) bool {
			return OptionKey(fl.Field().String()).Valid()
		})
		validate.RegisterStructValidation(mcqAnswerInOptions, McqItem{})
	})
	return validate
}

func mcqAnswerInOptions(sl validator.StructLevel) {
	item := sl.Current().Interface().(McqItem)
	if item.Answer == "" {
		return
	}
	if _, ok := item.Options[item.Answer]; !ok {
		sl.ReportError(item.Answer, "Answer", "answer", "answer_in_options", string(item.Answer))
	}
}

// Validate applies the strict document rules: exactly ten questions, each with a question
// text, option keys within a..d and an answer naming one of its options.
// Recovery never calls this.
func Validate(doc StructuredDocument) error {
	err := documentValidator().Struct(doc)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	reasons := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		reasons = append(reasons, describe(fe))
	}
	return &ValidationError{Reasons: reasons}
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "StructuredDocument.")
	switch fe.Tag() {
	case "len":
		return fmt.Sprintf("%s must hold exactly %s items", field, fe.Param())
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must hold at least %s entries", field, fe.Param())
	case "option_key":
		return fmt.Sprintf("%s is not one of a, b, c, d", field)
	case "answer_in_options":
		return fmt.Sprintf("%s %q is not one of the options", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
