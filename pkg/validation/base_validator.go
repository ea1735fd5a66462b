package validation

import (
	"net/url"
)

// BaseValidator provides common validation logic for all sections
type BaseValidator struct{}

// ValidateHTTPURL checks that raw is an absolute http(s) URL.
func (v *BaseValidator) ValidateHTTPURL(field, raw string) ValidationErrors {
	var errors ValidationErrors

	if raw == "" {
		errors = append(errors, ValidationError{
			Field:   field,
			Message: "URL cannot be empty",
		})
		return errors
	}

	parsedURL, err := url.Parse(raw)
	if err != nil {
		errors = append(errors, ValidationError{
			Field:   field,
			Message: "invalid URL",
		})
		return errors
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, ValidationError{
			Field:   field,
			Message: "URL scheme must be either http or https",
		})
	}
	if parsedURL.Host == "" {
		errors = append(errors, ValidationError{
			Field:   field,
			Message: "URL must include a host",
		})
	}

	return errors
}
