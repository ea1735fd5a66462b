package validation

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/forest-army/faucet-claimer/pkg/config"
	"github.com/forest-army/faucet-claimer/pkg/currency"
)

// EthereumValidator checks the optional chain section and EVM-specific inputs.
type EthereumValidator struct {
	BaseValidator
}

func NewEthereumValidator() *EthereumValidator {
	return &EthereumValidator{}
}

func (v *EthereumValidator) Validate(cfg *config.Schema) ValidationErrors {
	var errors ValidationErrors

	if cfg.Chain == nil {
		return nil
	}
	// An rpcURLEnv that resolved to nothing leaves balance lookups disabled.
	if cfg.Chain.RPCURL != "" {
		errors = append(errors, v.ValidateHTTPURL("chain.rpcURL", cfg.Chain.RPCURL)...)
	}
	errors = append(errors, v.validateUnit(cfg.Chain.Unit)...)

	return errors
}

func (v *EthereumValidator) validateUnit(unit *currency.Unit) ValidationErrors {
	var errors ValidationErrors

	if unit == nil {
		errors = append(errors, ValidationError{
			Field:   "chain.unit",
			Message: "unit cannot be empty",
		})
		return errors
	}

	valid := []string{currency.DefaultETH.Name, currency.DefaultGWEI.Name, currency.DefaultWEI.Name}
	for _, name := range valid {
		if strings.EqualFold(unit.Name, name) {
			return nil
		}
	}
	errors = append(errors, ValidationError{
		Field:   "chain.unit",
		Message: fmt.Sprintf("unit must be one of %s", strings.Join(valid, ", ")),
	})
	return errors
}

// ValidatePrivateKey checks the secret of the existing-wallet flow.
func ValidatePrivateKey(envName, secret string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return ValidationError{
			Field:   envName,
			Message: fmt.Sprintf("%s not found in environment or .env", envName),
		}
	}
	if _, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimPrefix(secret, "0x"), "0X")); err != nil {
		return ValidationError{
			Field:   envName,
			Message: fmt.Sprintf("%s must be a hex-encoded secp256k1 private key", envName),
		}
	}
	return nil
}
