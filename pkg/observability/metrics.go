// Package observability provides engine metrics for Prometheus scraping.
//
// The Metrics type plugs into the engine as a LogSink, so instrumenting a run
// does not touch the execution core.
package observability

import (
	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics translates engine log entries into Prometheus counters.
type Metrics struct {
	nodeSteps       *prometheus.CounterVec
	llmErrors       prometheus.Counter
	approvalsWaited prometheus.Counter
	delegationCalls *prometheus.CounterVec
	runsFinished    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		nodeSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentry",
			Name:      "node_steps_total",
			Help:      "Node executions started, by log entry node id.",
		}, []string{"node"}),
		llmErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agentry",
			Name:      "llm_errors_total",
			Help:      "Failures returned by the LLM capability.",
		}),
		approvalsWaited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agentry",
			Name:      "approvals_waited_total",
			Help:      "Approval checkpoints that suspended or queued a run.",
		}),
		delegationCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentry",
			Name:      "delegation_calls_total",
			Help:      "Nested delegation call events, by outcome.",
		}, []string{"outcome"}),
		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentry",
			Name:      "runs_finished_total",
			Help:      "Runs that reached a terminal status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.nodeSteps, m.llmErrors, m.approvalsWaited, m.delegationCalls, m.runsFinished)
	return m
}

// Sink returns a LogSink feeding these collectors.
func (m *Metrics) Sink() ports.LogSink {
	return func(entry domain.LogEntry) {
		switch entry.Type {
		case domain.LogStepStart:
			m.nodeSteps.WithLabelValues(entry.NodeID).Inc()
		case domain.LogLLMError:
			m.llmErrors.Inc()
		case domain.LogWaitInput:
			m.approvalsWaited.Inc()
		case domain.LogDelegationCallStart:
			m.delegationCalls.WithLabelValues("start").Inc()
		case domain.LogDelegationCallEnd:
			m.delegationCalls.WithLabelValues("end").Inc()
		case domain.LogDelegationCallError:
			m.delegationCalls.WithLabelValues("error").Inc()
		}
	}
}

// ObserveResult records the terminal status of a finished run.
func (m *Metrics) ObserveResult(result domain.RunResult) {
	if result.Status.Terminal() {
		m.runsFinished.WithLabelValues(string(result.Status)).Inc()
	}
}
