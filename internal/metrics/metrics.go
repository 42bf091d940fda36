// Package metrics defines the Prometheus instrumentation for the
// newsletter pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_runs_total",
		Help: "Completed newsletter runs by outcome",
	}, []string{"outcome"})

	NewslettersBuilt = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "newsletters_built_total",
		Help: "Newsletters successfully rendered and written",
	})

	RecipientFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_recipient_failures_total",
		Help: "Per-recipient pipeline failures by stage",
	}, []string{"stage"})

	EntriesClassified = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_entries_classified_total",
		Help: "Library items classified into newsletter entries by type",
	}, []string{"type"})

	UnknownItemTypes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "newsletter_unknown_item_types_total",
		Help: "Library items dropped because their type is not recognized",
	})

	MailsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "newsletter_mails_sent_total",
		Help: "Newsletter mails handed to the SMTP server",
	})

	BuildSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "newsletter_build_seconds",
		Help:    "Time to build one recipient's newsletter",
		Buckets: prometheus.DefBuckets,
	})
)

// MustRegister registers all pipeline metrics with the given registerer
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		RunsTotal,
		NewslettersBuilt,
		RecipientFailures,
		EntriesClassified,
		UnknownItemTypes,
		MailsSent,
		BuildSeconds,
	)
}
