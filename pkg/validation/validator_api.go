package validation

import (
	"github.com/forest-army/faucet-claimer/pkg/config"
)

type APIValidator struct {
	BaseValidator
}

func NewAPIValidator() *APIValidator {
	return &APIValidator{}
}

func (v *APIValidator) Validate(cfg *config.Schema) ValidationErrors {
	var errors ValidationErrors
	api := cfg.API

	errors = append(errors, v.ValidateHTTPURL("api.baseURL", api.BaseURL)...)

	if api.ProviderType == "" {
		errors = append(errors, ValidationError{
			Field:   "api.providerType",
			Message: "cannot be empty",
		})
	}
	if api.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "api.timeout",
			Message: "must be positive",
		})
	}
	if api.RequestsPerSecond < 0 {
		errors = append(errors, ValidationError{
			Field:   "api.requestsPerSecond",
			Message: "cannot be negative",
		})
	}

	return errors
}
