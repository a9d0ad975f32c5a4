package models

import (
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks struct tags on any model value, including slices of models
// when called per element.
func Validate(v any) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// registration only fails on an empty tag or nil func
		_ = validate.RegisterValidation("notblank", validators.NotBlank)
	})
	return validate.Struct(v)
}
