package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Posting-side counters. The transport layer decides whether/where to expose
// the default registry; the core only increments.
var (
	MetricSalesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopledger_sales_posted_total",
		Help: "Sales committed end-to-end (stock + journal + cashflow).",
	})
	MetricJournalsPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopledger_journals_posted_total",
		Help: "Journals appended, including reversals.",
	})
	MetricInsufficientStock = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopledger_insufficient_stock_total",
		Help: "Sales or adjustments rejected for insufficient stock.",
	})
	MetricTxRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopledger_tx_retries_total",
		Help: "Transactions retried after deadlock/serialization failure.",
	})
	MetricTransientConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopledger_transient_conflicts_total",
		Help: "Transactions surfaced to callers as transient conflicts.",
	})
)
