package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ObservationsScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "searchapi_observations_scored_total",
		Help: "Total number of observations scored.",
	})
	PredictionsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "searchapi_predictions_stored_total",
		Help: "Total number of predictions stored in DB.",
	})
	DuplicateInserts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "searchapi_duplicate_inserts_total",
		Help: "Total number of inserts rejected for a duplicate observation ID.",
	})
	ValidationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "searchapi_validation_failures_total",
		Help: "Total number of observations rejected by schema validation.",
	})
	ScoringFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "searchapi_scoring_failures_total",
		Help: "Total number of scoring adapter failures.",
	})
	Reconciliations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "searchapi_reconciliations_total",
		Help: "Total number of ground-truth outcomes reconciled.",
	})
)
