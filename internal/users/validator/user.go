package validator

import (
	"errors"
	"roombook/pkg/logger"
	"roombook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type UserValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewUserValidator(log *logger.Logger) *UserValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize user validator", "error", err)
	}

	return &UserValidator{
		validate: v,
		logger:   log,
	}
}

// Validate checks a model.Registration or model.Credentials. Field failures
// come back as validation.ValidationErrors.
func (v *UserValidator) Validate(input any) error {
	if err := v.validate.Struct(input); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return validation.Translate(validationErrs)
		}
		return err
	}
	return nil
}
