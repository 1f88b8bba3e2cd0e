// Package validation runs struct-tag field validation (go-playground/validator) and turns
// failures into field-keyed apperror values.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/user/foodgram-go/apperror"
)

// tagColorPattern is the accepted hex color format for tags: #abc or #aabbcc.
var tagColorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// slugPattern accepts ASCII letters, digits, hyphens and underscores.
var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// Validator wraps go-playground/validator with apperror conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator using JSON field names and the project's custom rules.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for an empty tag or nil func, neither can happen here.
	_ = v.RegisterValidation("tagcolor", func(fl validator.FieldLevel) bool {
		return tagColorPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notme", func(fl validator.FieldLevel) bool {
		return !strings.EqualFold(fl.Field().String(), "me")
	})

	return &Validator{v: v}
}

// Validate validates a struct. All failing fields are reported together.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return formatError(err)
	}
	return nil
}

func formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return apperror.NewInternalError("validation could not run", err)
	}
	fields := make(map[string][]string, len(validationErrs))
	for _, e := range validationErrs {
		fields[e.Field()] = append(fields[e.Field()], friendlyMessage(e))
	}
	return apperror.NewFieldsError("validation failed", fields)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "tagcolor":
		return "must be a hex color such as #E26C2D"
	case "slug":
		return "may contain only latin letters, digits, hyphens and underscores"
	case "notme":
		return `"me" cannot be used as a username`
	case "alphanumunicode", "username":
		return "contains forbidden characters"
	default:
		return "is invalid"
	}
}
