package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered on the default registry through promauto.
// Labels never carry aliases or URLs.

var (
	// HTTPRequestDuration tracks request latency per route template
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pitico_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route", "status"},
	)

	// URLsRegisteredTotal counts newly created records
	URLsRegisteredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pitico_urls_registered_total",
			Help: "Total number of URLs registered under a new alias",
		},
	)

	// RegistrationsExistingTotal counts registrations answered with an existing alias
	RegistrationsExistingTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pitico_registrations_existing_total",
			Help: "Total number of registrations of an already registered URL",
		},
	)

	// RedirectsTotal counts successful resolutions
	RedirectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pitico_redirects_total",
			Help: "Total number of aliases resolved to their original URL",
		},
	)

	// AliasNotFoundTotal counts resolutions of unknown aliases
	AliasNotFoundTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pitico_alias_not_found_total",
			Help: "Total number of resolutions of unknown aliases",
		},
	)

	// StorageErrorsTotal counts failed store operations
	StorageErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitico_storage_errors_total",
			Help: "Total number of storage errors",
		},
		[]string{"operation"},
	)
)

// RecordRegistration increments the counter matching the registration outcome
func RecordRegistration(existing bool) {
	if existing {
		RegistrationsExistingTotal.Inc()
		return
	}
	URLsRegisteredTotal.Inc()
}

// RecordRedirect increments redirect counter
func RecordRedirect() {
	RedirectsTotal.Inc()
}

// RecordAliasNotFound increments the not-found counter
func RecordAliasNotFound() {
	AliasNotFoundTotal.Inc()
}

// RecordStorageError increments the storage error counter of operation
func RecordStorageError(operation string) {
	StorageErrorsTotal.WithLabelValues(operation).Inc()
}
