package collector

import (
	"context"
	"sync"
	"time"

	"github.com/carlmjohnson/flowmatic"
	"github.com/forest-army/faucet-claimer/pkg/currency"
	"github.com/forest-army/faucet-claimer/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultMaxConcurrency = 10
	DefaultTimeout        = 10 * time.Second
)

// Account is a wallet whose balance is exported.
type Account struct {
	Name    string
	Address string
}

type BaseResult struct {
	Account Account
	Value   float64
	Health  float64
}

// BalanceProcessor reads the balance of a single account from a chain.
type BalanceProcessor interface {
	CollectAccountBalance(ctx context.Context, account *Account) (*BaseResult, error)
	Close() error
}

// BalanceCollector exports the balance of every wallet the run has funded.
// Accounts are added while the run progresses; each scrape reads them all.
type BalanceCollector struct {
	metrics   *prometheus.GaugeVec
	health    *prometheus.GaugeVec
	processor BalanceProcessor
	timeout   time.Duration

	mu       sync.Mutex
	accounts []*Account
	seen     map[string]bool

	collectMutex sync.Mutex
}

// CollectorOption defines functional options for BalanceCollector
type CollectorOption func(*BalanceCollector)

// WithCollectorTimeout sets the timeout for one scrape
func WithCollectorTimeout(timeout time.Duration) CollectorOption {
	return func(c *BalanceCollector) {
		c.timeout = timeout
	}
}

func NewBalanceCollector(processor BalanceProcessor, unit *currency.Unit, constLabels prometheus.Labels, opts ...CollectorOption) *BalanceCollector {
	labels := prometheus.Labels{}
	for k, v := range constLabels {
		labels[k] = v
	}
	healthLabels := prometheus.Labels{}
	for k, v := range labels {
		healthLabels[k] = v
	}
	if unit != nil {
		labels["unit"] = unit.Symbol
	}

	collector := &BalanceCollector{
		processor: processor,
		timeout:   DefaultTimeout,
		seen:      make(map[string]bool),
		metrics: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "faucet_wallet_balance",
				Help:        "Balance of wallets funded by the faucet",
				ConstLabels: labels,
			},
			[]string{"address", "account_name"},
		),
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "faucet_wallet_health",
				Help:        "Whether the last balance read for a wallet succeeded",
				ConstLabels: healthLabels,
			},
			[]string{"address", "account_name"},
		),
	}

	for _, opt := range opts {
		opt(collector)
	}

	return collector
}

// Track adds an account to the scrape set. Addresses already tracked are ignored.
func (c *BalanceCollector) Track(name, address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen[address] {
		return
	}
	c.seen[address] = true
	c.accounts = append(c.accounts, &Account{Name: name, Address: address})
	logger.Debugf("tracking balance of %s (%s)", address, name)
}

func (c *BalanceCollector) Accounts() []*Account {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Account, len(c.accounts))
	copy(out, c.accounts)
	return out
}

// collectMetrics reads all tracked balances concurrently
func (c *BalanceCollector) collectMetrics() []*BaseResult {
	accounts := c.Accounts()
	results := make([]*BaseResult, 0, len(accounts))
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	resultsChan := make(chan *BaseResult, len(accounts))

	err := flowmatic.Each(DefaultMaxConcurrency, accounts, func(account *Account) error {
		logger.Debugf("collecting balance for account: %s", account.Address)

		result, err := c.processor.CollectAccountBalance(ctx, account)
		if err != nil {
			logger.Errorf("error collecting balance for account %s: %v", account.Address, err)
			result = &BaseResult{
				Account: *account,
				Health:  0,
			}
		}

		resultsChan <- result
		return nil
	})
	if err != nil {
		logger.Errorf("error in collection process: %v", err)
	}

	close(resultsChan)
	for result := range resultsChan {
		results = append(results, result)
	}

	return results
}

// Implement prometheus.Collector interface
func (c *BalanceCollector) Describe(ch chan<- *prometheus.Desc) {
	c.metrics.Describe(ch)
	c.health.Describe(ch)
}

func (c *BalanceCollector) Collect(ch chan<- prometheus.Metric) {
	c.collectMutex.Lock()
	defer c.collectMutex.Unlock()

	for _, result := range c.collectMetrics() {
		labels := prometheus.Labels{
			"address":      result.Account.Address,
			"account_name": result.Account.Name,
		}

		c.health.With(labels).Set(result.Health)
		if result.Health > 0 {
			c.metrics.With(labels).Set(result.Value)
		}
	}

	c.health.Collect(ch)
	c.metrics.Collect(ch)
	c.health.Reset()
	c.metrics.Reset()
}

// Close implements proper cleanup
func (c *BalanceCollector) Close() error {
	return c.processor.Close()
}
