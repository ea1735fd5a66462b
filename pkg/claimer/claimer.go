// Package claimer drives the two faucet flows: the perpetual claim loop of an
// existing wallet and the batch creation of new wallets.
package claimer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forest-army/faucet-claimer/pkg/auth"
	"github.com/forest-army/faucet-claimer/pkg/config"
	"github.com/forest-army/faucet-claimer/pkg/faucet"
	"github.com/forest-army/faucet-claimer/pkg/logger"
	"github.com/forest-army/faucet-claimer/pkg/report"
	"github.com/forest-army/faucet-claimer/pkg/scheduler"
	"github.com/forest-army/faucet-claimer/pkg/validation"
	"github.com/forest-army/faucet-claimer/pkg/wallet"
)

// Claim outcomes passed to Observer.ClaimObserved.
const (
	ResultSuccess  = "success"
	ResultConflict = "conflict"
	ResultFailed   = "failed"
)

// Reporter is the console surface the flows write to.
type Reporter interface {
	Line(format string, args ...any)
	Stamp(format string, args ...any)
	Step(step string)
	Failure(message string)
	Divider()
	Blank()
}

// BalanceReader renders the balance of an address for display.
type BalanceReader interface {
	DisplayBalance(ctx context.Context, address string) (string, error)
}

// Observer receives claim and wallet outcomes, e.g. for metrics.
type Observer interface {
	ClaimObserved(address, result string)
	WalletObserved(success bool)
}

type Orchestrator struct {
	auth   auth.Authenticator
	faucet faucet.Fauceter
	waiter scheduler.Waiter
	report Reporter

	newIdentity  func() (*wallet.Identity, error)
	loadIdentity func(secret string) (*wallet.Identity, error)

	secret     string
	secretEnv  string
	claimPause time.Duration
	maxClaims  int
	batchPause time.Duration
	output     string

	balances BalanceReader
	observer Observer
	now      func() time.Time
}

type Option func(*Orchestrator)

// WithSecret sets the private key of the existing-wallet flow and the name of
// the variable it came from.
func WithSecret(envName, secret string) Option {
	return func(o *Orchestrator) {
		o.secretEnv = envName
		o.secret = secret
	}
}

func WithIdentityFactory(create func() (*wallet.Identity, error)) Option {
	return func(o *Orchestrator) {
		o.newIdentity = create
	}
}

func WithIdentityLoader(load func(secret string) (*wallet.Identity, error)) Option {
	return func(o *Orchestrator) {
		o.loadIdentity = load
	}
}

// WithClaimPause sets the pause after a successful claim.
func WithClaimPause(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.claimPause = d
	}
}

// WithMaxClaims stops the existing-wallet loop after n successful claims; 0 never stops.
func WithMaxClaims(n int) Option {
	return func(o *Orchestrator) {
		o.maxClaims = n
	}
}

// WithBatchPause sets the pause between two batch wallets.
func WithBatchPause(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.batchPause = d
	}
}

// WithOutput sets the batch artifact path. An empty path keeps records in memory.
func WithOutput(path string) Option {
	return func(o *Orchestrator) {
		o.output = path
	}
}

func WithBalanceReader(balances BalanceReader) Option {
	return func(o *Orchestrator) {
		o.balances = balances
	}
}

func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// FromConfig maps the claim, batch and wallet sections to options.
func FromConfig(cfg *config.Schema) []Option {
	return []Option{
		WithSecret(cfg.Wallet.PrivateKeyEnv, cfg.Wallet.PrivateKey),
		WithClaimPause(cfg.Claim.Pause),
		WithMaxClaims(cfg.Claim.MaxClaims),
		WithBatchPause(cfg.Batch.Pause),
		WithOutput(cfg.Batch.Output),
	}
}

func New(authenticator auth.Authenticator, fauceter faucet.Fauceter, waiter scheduler.Waiter, reporter Reporter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		auth:         authenticator,
		faucet:       fauceter,
		waiter:       waiter,
		report:       reporter,
		newIdentity:  wallet.CreateIdentity,
		loadIdentity: wallet.LoadIdentity,
		secretEnv:    config.DefaultPrivateKeyEnv,
		claimPause:   config.DefaultPause,
		batchPause:   config.DefaultPause,
		output:       config.DefaultOutput,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) timestamp() string {
	return report.Timestamp(o.now())
}

func (o *Orchestrator) observeClaim(address, result string) {
	if o.observer != nil {
		o.observer.ClaimObserved(address, result)
	}
}

func (o *Orchestrator) observeWallet(success bool) {
	if o.observer != nil {
		o.observer.WalletObserved(success)
	}
}

// reportBalance prints the balance line when a chain endpoint is configured.
// A failed lookup never fails the flow.
func (o *Orchestrator) reportBalance(ctx context.Context, address string) {
	if o.balances == nil {
		return
	}
	balance, err := o.balances.DisplayBalance(ctx, address)
	if err != nil {
		logger.WarnContext(ctx, "balance lookup failed", "address", address, "error", err)
		return
	}
	o.report.Line("Balance: %s", balance)
}

// pause sleeps for d unless ctx ends first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isCancellation reports whether err is only the run being stopped.
func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

func configurationError(err error) error {
	if errors.Is(err, validation.ErrConfiguration) {
		return err
	}
	return fmt.Errorf("%w: %w", validation.ErrConfiguration, err)
}
