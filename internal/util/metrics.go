package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_total",
		Help: "Total number of checkout sessions created",
	}, []string{"purchase_type"})

	CheckoutFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Total number of rejected or failed checkout attempts",
	}, []string{"reason"})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Total number of processed payment webhook events",
	}, []string{"purchase_type", "result"})

	WalletDeductionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_deductions_total",
		Help: "Total number of successful credit deductions",
	})

	WalletInsufficientTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_insufficient_funds_total",
		Help: "Total number of deductions rejected for insufficient credits",
	})

	WalletCreditsAddedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_credits_added_total",
		Help: "Total number of wallet credit operations",
	}, []string{"type"})

	OrdersFulfilledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_fulfilled_total",
		Help: "Total number of fulfilled orders",
	}, []string{"outcome"})

	PrintJobsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "print_jobs_created_total",
		Help: "Total number of print jobs created",
	}, []string{"status"})

	FulfillmentLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fulfillment_latency_seconds",
		Help:    "Latency of order fulfillment",
		Buckets: prometheus.DefBuckets,
	})

	PrintSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "print_status_sync_total",
		Help: "Total number of print job status sync runs",
	}, []string{"result"})

	EarningsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "earnings_recorded_total",
		Help: "Total number of earnings recorded",
	})

	EarningsMaturedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "earnings_matured_total",
		Help: "Total number of earnings transitioned from pending to available",
	})

	PayoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payouts_total",
		Help: "Total number of payout attempts",
	}, []string{"result"})

	PayoutAmountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payout_amount_cents_total",
		Help: "Total amount transferred to creators, in cents",
	})

	PayoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payout_latency_seconds",
		Help:    "Latency of payout batching",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
