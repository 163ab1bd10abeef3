// Package metrics exposes governance activity as Prometheus collectors fed
// from the event stream.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/asthmajoy/govcore/pkg/events"
	"github.com/asthmajoy/govcore/pkg/gov"
)

// Collector holds the governance Prometheus collectors.
type Collector struct {
	proposalsCreated  prometheus.Counter
	votesCast         prometheus.Counter
	proposalsExecuted prometheus.Counter
	proposalsCanceled prometheus.Counter
	refundsIssued     prometheus.Counter
	reconciliations   prometheus.Counter
	paused            prometheus.Gauge
}

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		proposalsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "govcore_proposals_created_total",
			Help: "Number of proposals created.",
		}),
		votesCast: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "govcore_votes_cast_total",
			Help: "Number of votes cast.",
		}),
		proposalsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "govcore_proposals_executed_total",
			Help: "Number of proposals executed.",
		}),
		proposalsCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "govcore_proposals_canceled_total",
			Help: "Number of proposals canceled.",
		}),
		refundsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "govcore_refunds_issued_total",
			Help: "Number of stake refunds issued.",
		}),
		reconciliations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "govcore_execution_reconciliations_total",
			Help: "Number of executions reconciled from delay queue state.",
		}),
		paused: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "govcore_paused",
			Help: "Whether the system is paused (1) or not (0).",
		}),
	}
	reg.MustRegister(
		c.proposalsCreated,
		c.votesCast,
		c.proposalsExecuted,
		c.proposalsCanceled,
		c.refundsIssued,
		c.reconciliations,
		c.paused,
	)
	return c
}

// Watch subscribes the collector to an event manager and updates the
// collectors as events arrive. It blocks until every registered channel is
// closed, so it is normally run in its own goroutine.
func (c *Collector) Watch(manager *events.Manager) {
	ch := make(chan events.Entry, 64)
	for _, event := range []string{
		gov.EventProposalCreated,
		gov.EventVoteCast,
		gov.EventProposalExecuted,
		gov.EventProposalCanceled,
		gov.EventRefundIssued,
		gov.EventExecutionReconciled,
		gov.EventPaused,
		gov.EventUnpaused,
	} {
		manager.Register(event, ch)
	}

	for entry := range ch {
		switch entry.Type {
		case gov.EventProposalCreated:
			c.proposalsCreated.Inc()
		case gov.EventVoteCast:
			c.votesCast.Inc()
		case gov.EventProposalExecuted:
			c.proposalsExecuted.Inc()
		case gov.EventProposalCanceled:
			c.proposalsCanceled.Inc()
		case gov.EventRefundIssued:
			c.refundsIssued.Inc()
		case gov.EventExecutionReconciled:
			c.reconciliations.Inc()
		case gov.EventPaused:
			c.paused.Set(1)
		case gov.EventUnpaused:
			c.paused.Set(0)
		}
	}
}
