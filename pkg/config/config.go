package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/forest-army/faucet-claimer/pkg/currency"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	DefaultBaseURL       = "https://api.testnet.incentiv.net/api"
	DefaultProviderType  = "BROWSER_EXTENSION"
	DefaultPrivateKeyEnv = "PRIVATE_KEY"
	DefaultOutput        = "wallets.json"
	DefaultTimeout       = 30 * time.Second
	DefaultPause         = 1 * time.Second
)

// DefaultHeaders mimic the browser extension the faucet UI is served to.
var DefaultHeaders = map[string]string{
	"accept":             "application/json",
	"content-type":       "application/json",
	"accept-language":    "en-US,en;q=0.9",
	"sec-ch-ua":          `"Chromium";v="134", "Not:A-Brand";v="24", "Microsoft Edge";v="134"`,
	"sec-ch-ua-mobile":   "?0",
	"sec-ch-ua-platform": `"Windows"`,
	"sec-fetch-dest":     "empty",
	"sec-fetch-mode":     "cors",
	"sec-fetch-site":     "same-site",
	"Referer":            "https://testnet.incentiv.net/",
	"Referrer-Policy":    "strict-origin-when-cross-origin",
}

type Schema struct {
	Global Global `yaml:"global"`
	API    API    `yaml:"api"`
	Wallet Wallet `yaml:"wallet"`
	Claim  Claim  `yaml:"claim"`
	Batch  Batch  `yaml:"batch"`
	Chain  *Chain `yaml:"chain"`
}

type Global struct {
	Environment string `yaml:"environment"`
	MetricsAddr string `yaml:"metricsAddr"` // empty disables the metrics server
	LogLevel    string `yaml:"logLevel"`
}

// API describes the remote faucet service.
type API struct {
	BaseURL           string            `yaml:"baseURL"`
	BaseURLEnv        string            `yaml:"baseURLEnv"`
	ProviderType      string            `yaml:"providerType"`
	Timeout           time.Duration     `yaml:"timeout"`
	RequestsPerSecond float64           `yaml:"requestsPerSecond"` // 0 means unlimited
	UserAgent         string            `yaml:"userAgent"`
	Headers           map[string]string `yaml:"headers"`
}

type Wallet struct {
	PrivateKeyEnv string `yaml:"privateKeyEnv"`
	PrivateKey    string `yaml:"-"`
}

// Claim tunes the existing-wallet loop.
type Claim struct {
	Pause     time.Duration `yaml:"pause"`
	MaxClaims int           `yaml:"maxClaims"` // 0 means run until stopped
}

// Batch tunes the wallet creation loop.
type Batch struct {
	Pause  time.Duration `yaml:"pause"`
	Output string        `yaml:"output"`
}

// Chain enables balance lookups for claimed wallets.
type Chain struct {
	RPCURL    string         `yaml:"rpcURL"`
	RPCURLEnv string         `yaml:"rpcURLEnv"`
	Unit      *currency.Unit `yaml:"unit"`
}

func (s *Schema) Normalize() error {
	if s.Global.LogLevel == "" {
		s.Global.LogLevel = "info"
	}
	if s.Global.Environment == "" {
		s.Global.Environment = "testnet"
	}
	if err := s.API.Normalize(); err != nil {
		return fmt.Errorf("failed to normalize api config: %w", err)
	}
	if err := s.Wallet.Normalize(); err != nil {
		return fmt.Errorf("failed to normalize wallet config: %w", err)
	}
	if s.Batch.Output == "" {
		s.Batch.Output = DefaultOutput
	}
	if s.Chain != nil {
		if err := s.Chain.Normalize(); err != nil {
			return fmt.Errorf("failed to normalize chain config: %w", err)
		}
	}
	return nil
}

func (a *API) Normalize() error {
	if a.BaseURLEnv != "" {
		envValue := os.Getenv(a.BaseURLEnv)
		if envValue != "" {
			a.BaseURL = envValue
		}
	}
	if a.BaseURL == "" {
		a.BaseURL = DefaultBaseURL
	}
	if a.ProviderType == "" {
		a.ProviderType = DefaultProviderType
	}
	if a.Timeout == 0 {
		a.Timeout = DefaultTimeout
	}
	// Configured headers override defaults key by key.
	headers := make(map[string]string, len(DefaultHeaders)+len(a.Headers))
	for k, v := range DefaultHeaders {
		headers[k] = v
	}
	for k, v := range a.Headers {
		headers[k] = v
	}
	a.Headers = headers
	return nil
}

func (w *Wallet) Normalize() error {
	if w.PrivateKeyEnv == "" {
		w.PrivateKeyEnv = DefaultPrivateKeyEnv
	}
	w.PrivateKey = os.Getenv(w.PrivateKeyEnv)
	return nil
}

func (c *Chain) Normalize() error {
	if c.RPCURLEnv != "" {
		envValue := os.Getenv(c.RPCURLEnv)
		if envValue != "" {
			c.RPCURL = envValue
		}
	}
	if c.Unit == nil {
		c.Unit = currency.DefaultETH
	}
	return nil
}

// BalanceEnabled reports whether a chain RPC endpoint was configured.
func (s *Schema) BalanceEnabled() bool {
	return s.Chain != nil && s.Chain.RPCURL != ""
}

// LoadDotEnv loads variables from the given .env files (default ".env").
// A missing file is not an error; the secret may come from the real environment.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// newSchema returns a schema holding the defaults that zero cannot stand for.
// YAML decodes over it, so an explicit "pause: 0s" disables the pause.
func newSchema() *Schema {
	return &Schema{
		Claim: Claim{Pause: DefaultPause},
		Batch: Batch{Pause: DefaultPause},
	}
}

// Default returns a normalized configuration without reading any file.
func Default() (*Schema, error) {
	cfg := newSchema()
	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("failed to normalize config: %w", err)
	}
	return cfg, nil
}

// Load reads path when it exists, otherwise falls back to Default.
func Load(path string) (*Schema, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return ReadConfigWithError(file)
}

func ReadConfigWithError(r io.Reader) (*Schema, error) {
	config := newSchema()
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(config); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := config.Normalize(); err != nil {
		return nil, fmt.Errorf("failed to normalize config: %w", err)
	}
	return config, nil
}
