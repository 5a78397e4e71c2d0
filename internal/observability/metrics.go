package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the exchange.
type Metrics struct {
	// --- Trading ---
	TradesExecuted  *prometheus.CounterVec // labels: side, direction
	TradesRejected  *prometheus.CounterVec // labels: direction, reason
	TradeDuration   *prometheus.HistogramVec
	TradeVolume     prometheus.Counter
	FeesCollected   prometheus.Counter
	DepositsTotal   prometheus.Counter
	MarketsCreated  prometheus.Counter
	OpenMarkets     prometheus.Gauge

	// --- Settlement ---
	MarketsResolved  *prometheus.CounterVec // labels: outcome
	MarketsFrozen    prometheus.Counter
	RewardsClaimed   prometheus.Counter
	RewardsPaid      prometheus.Counter
	PlatformFeesPaid prometheus.Counter
	ClaimsRejected   *prometheus.CounterVec // labels: reason

	// --- Persistence ---
	PersistEntriesWritten prometheus.Counter
	PersistClaimsWritten  prometheus.Counter
	PersistBatchSize      prometheus.Histogram
	PersistBatchDur       prometheus.Histogram
	PersistErrors         *prometheus.CounterVec
	PersistRetry          prometheus.Counter

	// --- Feed ---
	FeedPublished prometheus.Counter
	FeedDropped   prometheus.Counter

	// --- HTTP API ---
	HTTPRequests *prometheus.CounterVec // labels: route, status
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	tradeBuckets := []float64{
		0.000005, 0.00001, 0.000025, 0.00005,
		0.0001, 0.00025, 0.0005, 0.001, 0.005,
	}

	return &Metrics{
		TradesExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "market_trades_executed_total",
			Help: "Trades applied to the ledger",
		}, []string{"side", "direction"}),

		TradesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "market_trades_rejected_total",
			Help: "Trades rejected before any state change",
		}, []string{"direction", "reason"}),

		TradeDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "market_trade_duration_seconds",
			Help:    "Time to validate and apply a trade",
			Buckets: tradeBuckets,
		}, []string{"direction"}),

		TradeVolume: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_trade_volume_total",
			Help: "Base currency traded across all markets",
		}),

		FeesCollected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_fees_collected_total",
			Help: "Trading fees accumulated across all markets",
		}),

		DepositsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_deposits_total",
			Help: "Base currency deposited into user balances",
		}),

		MarketsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_markets_created_total",
			Help: "Markets created",
		}),

		OpenMarkets: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "market_open_markets",
			Help: "Markets currently open for trading",
		}),

		MarketsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "market_markets_resolved_total",
			Help: "Markets resolved",
		}, []string{"outcome"}),

		MarketsFrozen: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_markets_frozen_total",
			Help: "Markets frozen without payout",
		}),

		RewardsClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_rewards_claimed_total",
			Help: "Successful reward claims",
		}),

		RewardsPaid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_rewards_paid_total",
			Help: "Base currency paid out to winners",
		}),

		PlatformFeesPaid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_platform_fees_paid_total",
			Help: "Platform fees credited to the admin at resolution",
		}),

		ClaimsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "market_claims_rejected_total",
			Help: "Reward claims rejected",
		}, []string{"reason"}),

		PersistEntriesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_persist_entries_written_total",
			Help: "Audit entries written to Postgres",
		}),

		PersistClaimsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_persist_claims_written_total",
			Help: "Reward claims written to Postgres",
		}),

		PersistBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "market_persist_batch_size",
			Help:    "Audit entries per write batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		}),

		PersistBatchDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "market_persist_batch_duration_seconds",
			Help:    "Postgres batch write duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "market_persist_errors_total",
			Help: "Persistence errors",
		}, []string{"error_type"}),

		PersistRetry: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_persist_retry_total",
			Help: "Persistence retries",
		}),

		FeedPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_feed_published_total",
			Help: "Events published to the outbound stream",
		}),

		FeedDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "market_feed_dropped_total",
			Help: "Events dropped due to a full publish channel",
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "market_http_requests_total",
			Help: "HTTP API requests",
		}, []string{"route", "status"}),

		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "market_http_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"route"}),
	}
}
