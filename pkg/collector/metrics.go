package collector

import (
	"time"

	"github.com/forest-army/faucet-claimer/pkg/wallet"
	"github.com/prometheus/client_golang/prometheus"
)

// ClaimMetrics counts claim and wallet outcomes. It also implements
// scheduler.ProgressReporter so the cooldown gauge follows the countdown.
type ClaimMetrics struct {
	claims   *prometheus.CounterVec
	wallets  *prometheus.CounterVec
	cooldown prometheus.Gauge
	balances *BalanceCollector
}

type MetricsOption func(*ClaimMetrics)

// WithBalances tracks every successfully claimed wallet in balances.
func WithBalances(balances *BalanceCollector) MetricsOption {
	return func(m *ClaimMetrics) {
		m.balances = balances
	}
}

func NewClaimMetrics(constLabels prometheus.Labels, opts ...MetricsOption) *ClaimMetrics {
	m := &ClaimMetrics{
		claims: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "faucet_claims_total",
				Help:        "Faucet claim attempts by result",
				ConstLabels: constLabels,
			},
			[]string{"result"},
		),
		wallets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "faucet_wallets_total",
				Help:        "Wallets processed by the batch flow by result",
				ConstLabels: constLabels,
			},
			[]string{"result"},
		),
		cooldown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "faucet_cooldown_remaining_seconds",
			Help:        "Seconds until the next faucet claim is allowed",
			ConstLabels: constLabels,
		}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds every metric to reg.
func (m *ClaimMetrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{m.claims, m.wallets, m.cooldown}
	if m.balances != nil {
		collectors = append(collectors, m.balances)
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ClaimObserved records one claim attempt.
func (m *ClaimMetrics) ClaimObserved(address, result string) {
	m.claims.WithLabelValues(result).Inc()
	if result == "success" && m.balances != nil && address != "" {
		m.balances.Track(wallet.Username(address), address)
	}
}

// WalletObserved records the terminal state of one batch slot.
func (m *ClaimMetrics) WalletObserved(success bool) {
	result := "failed"
	if success {
		result = "success"
	}
	m.wallets.WithLabelValues(result).Inc()
}

func (m *ClaimMetrics) CooldownProgress(remaining time.Duration) {
	m.cooldown.Set(remaining.Seconds())
}

func (m *ClaimMetrics) CooldownCompleted() {
	m.cooldown.Set(0)
}
