package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	LedgerTransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Ledger transactions recorded by type.",
		},
		[]string{"type"},
	)

	InvoicePaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoice_payments_total",
			Help: "Invoice payment attempts by outcome.",
		},
		[]string{"outcome"},
	)

	CompanyCreditAddedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "company_credit_added_total",
			Help: "Sum of overpayment excess credited to company balances.",
		},
	)

	ExpenseSyncActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expense_sync_actions_total",
			Help: "Mirror expense create, update and delete actions.",
		},
		[]string{"action"},
	)
)
