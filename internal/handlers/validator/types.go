package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// PageRange is an inclusive, 1-based page interval.
type PageRange struct {
	Start int
	End   int
}

type UploadForm struct {
	Pages    PageRange
	Filename string
	Size     int `validate:"gt=0"`
}

type RenderForm struct {
	JobID string `validate:"required,job_id"`
}

func pageRangeValidator(sl validator.StructLevel) {
	pr, ok := sl.Current().Interface().(PageRange)
	if !ok {
		return
	}
	if pr.Start < 1 {
		sl.ReportError(pr.Start, "Start", "Start", "page_range", "")
	}
	if pr.End < pr.Start {
		sl.ReportError(pr.End, "End", "End", "page_range", "")
	}
}

func jobIDValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	id, err := uuid.Parse(val)
	return err == nil && id != uuid.Nil
}
