package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	pdfsaas = "pdfsaas"

	pipelineStageTotal    = "pipeline_stage_total"
	pipelineStageDuration = "pipeline_stage_duration_seconds"
	recoveryTierTotal     = "recovery_tier_total"

	// Labels
	stageLabel   = "stage"
	outcomeLabel = "outcome"
	tierLabel    = "tier"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

/**
* Metrics definition
**/
var pipelineStageTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: pdfsaas,
		Name:      pipelineStageTotal,
		Help:      "number of pipeline stage executions by outcome",
	},
	[]string{stageLabel, outcomeLabel},
)

var pipelineStageDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: pdfsaas,
		Name:      pipelineStageDuration,
		Help:      "time spent in each pipeline stage",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	},
	[]string{stageLabel},
)

var recoveryTierTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: pdfsaas,
		Name:      recoveryTierTotal,
		Help:      "number of model outputs resolved by each recovery tier",
	},
	[]string{tierLabel},
)

// ObserveStage records one execution of a pipeline stage.
func ObserveStage(stage string, elapsed time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	pipelineStageTotalMetric.With(prometheus.Labels{stageLabel: stage, outcomeLabel: outcome}).Inc()
	pipelineStageDurationMetric.With(prometheus.Labels{stageLabel: stage}).Observe(elapsed.Seconds())
}

func IncreaseRecoveryTierMetric(tier string) {
	recoveryTierTotalMetric.With(prometheus.Labels{tierLabel: tier}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(pipelineStageTotalMetric)
	prometheus.MustRegister(pipelineStageDurationMetric)
	prometheus.MustRegister(recoveryTierTotalMetric)
}
