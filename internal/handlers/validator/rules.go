package validator

import "github.com/go-playground/validator/v10"

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func registerStructFn(fn func(sl validator.StructLevel), types ...any) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		v.RegisterStructValidation(fn, types...)
	}
}

func NewJobValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerStructFn(pageRangeValidator, PageRange{}),
		},
		{
			Rule: registerFn("job_id", jobIDValidator),
		},
	}
}
