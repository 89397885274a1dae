package dto

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/infonest-auth/internal/domain"
	apperrors "github.com/spec-kit/infonest-auth/pkg/util/errorutil"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		// role accepts any casing of the supported roles
		_ = validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return domain.NormalizeRole(fl.Field().String()).Valid()
		})
	})
	return validate
}

// Validate checks struct tags and returns a VALIDATION_FAILED error listing the offending fields.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	details := make(map[string]any, len(fieldErrs))
	names := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = describe(fe)
		names = append(names, fe.Field())
	}
	return apperrors.NewValidationError("invalid fields: "+strings.Join(names, ", "), details)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "role":
		return "must be one of STUDENT, FACULTY, ADMIN, OFFICE"
	default:
		return "is invalid"
	}
}
