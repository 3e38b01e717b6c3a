package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Intent creation attempts partitioned by outcome
	paymentIntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_intents_total",
			Help: "Payment intent requests partitioned by outcome",
		},
		[]string{"outcome"},
	)

	// Verified webhook events partitioned by event type and outcome
	paymentWebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Verified payment webhook events partitioned by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	// Finalized sales partitioned by outcome
	paymentSettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_settlements_total",
			Help: "Finalize attempts partitioned by outcome",
		},
		[]string{"outcome"},
	)
)

const (
	outcomeCreated   = "created"
	outcomeCached    = "cached"
	outcomeRejected  = "rejected"
	outcomeError     = "error"
	outcomeIgnored   = "ignored"
	outcomeDuplicate = "duplicate"
	outcomeSettled   = "settled"
	outcomeConflict  = "conflict"
	outcomeInvalid   = "invalid"
)
