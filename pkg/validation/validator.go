package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/forest-army/faucet-claimer/pkg/config"
	"github.com/forest-army/faucet-claimer/pkg/logger"
)

// ErrConfiguration marks every error caused by user input or configuration.
// Such errors are reported and end the run with exit status 1.
var ErrConfiguration = errors.New("configuration error")

// ValidationError represents a validation error with a specific field and message
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ValidationErrors holds multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var errMsgs []string
	for _, err := range e {
		errMsgs = append(errMsgs, err.Error())
	}
	return strings.Join(errMsgs, "; ")
}

func (e ValidationErrors) Is(target error) bool {
	return target == ErrConfiguration
}

// SectionValidator validates one section of the configuration
type SectionValidator interface {
	Validate(cfg *config.Schema) ValidationErrors
}

// ConfigValidator handles validation of the entire configuration
type ConfigValidator struct {
	validators []SectionValidator
}

// NewConfigValidator creates a new ConfigValidator with the registered section validators
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		validators: []SectionValidator{
			NewAPIValidator(),
			NewEthereumValidator(),
		},
	}
}

// ValidateConfig validates the entire configuration schema
func (v *ConfigValidator) ValidateConfig(cfg *config.Schema) error {
	var allErrors ValidationErrors

	if errs := v.validateGlobal(&cfg.Global); len(errs) > 0 {
		allErrors = append(allErrors, errs...)
	}
	if errs := v.validateLoops(cfg); len(errs) > 0 {
		allErrors = append(allErrors, errs...)
	}

	for _, validator := range v.validators {
		if errs := validator.Validate(cfg); len(errs) > 0 {
			allErrors = append(allErrors, errs...)
		}
	}

	if len(allErrors) > 0 {
		return allErrors
	}
	return nil
}

// validateGlobal validates the global configuration
func (v *ConfigValidator) validateGlobal(global *config.Global) ValidationErrors {
	var errors ValidationErrors
	logger.Debugf("validating global config: %+v", *global)

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(global.LogLevel)] {
		errors = append(errors, ValidationError{
			Field:   "global.logLevel",
			Message: "must be one of: debug, info, warn, error",
		})
	}

	return errors
}

func (v *ConfigValidator) validateLoops(cfg *config.Schema) ValidationErrors {
	var errors ValidationErrors

	if cfg.Claim.Pause < 0 {
		errors = append(errors, ValidationError{Field: "claim.pause", Message: "cannot be negative"})
	}
	if cfg.Claim.MaxClaims < 0 {
		errors = append(errors, ValidationError{Field: "claim.maxClaims", Message: "cannot be negative"})
	}
	if cfg.Batch.Pause < 0 {
		errors = append(errors, ValidationError{Field: "batch.pause", Message: "cannot be negative"})
	}
	if strings.TrimSpace(cfg.Batch.Output) == "" {
		errors = append(errors, ValidationError{Field: "batch.output", Message: "cannot be empty"})
	}

	return errors
}

// ParseWalletCount parses the number of wallets to create. Only positive
// integers are accepted.
func ParseWalletCount(input string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, invalidWalletCount()
	}
	if err := ValidateWalletCount(n); err != nil {
		return 0, err
	}
	return n, nil
}

// ValidateWalletCount rejects counts below 1.
func ValidateWalletCount(n int) error {
	if n <= 0 {
		return invalidWalletCount()
	}
	return nil
}

func invalidWalletCount() ValidationError {
	return ValidationError{
		Field:   "count",
		Message: "please enter a valid number greater than 0",
	}
}
