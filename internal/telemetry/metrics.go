package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/khuwani"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Claim metrics
	ClaimsAttemptedTotal metric.Int64Counter
	ClaimsWonTotal       metric.Int64Counter
	ClaimsLostTotal      metric.Int64Counter
	ClaimDuration        metric.Float64Histogram

	// Release metrics
	ReleasesTotal        metric.Int64Counter
	ReleaseMissesTotal   metric.Int64Counter

	// Khuwani lifecycle metrics
	KhuwaniesCreatedTotal metric.Int64Counter
	KhuwaniesDeletedTotal metric.Int64Counter
	QuranInstancesAdded   metric.Int64Counter
	ClaimResetsTotal      metric.Int64Counter

	// Slug metrics
	SlugRetriesTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	// Claim metrics
	m.ClaimsAttemptedTotal, _ = meter.Int64Counter(
		"khuwani.claims.attempted.total",
		metric.WithDescription("Total number of sipara claim attempts"),
		metric.WithUnit("{claim}"),
	)

	m.ClaimsWonTotal, _ = meter.Int64Counter(
		"khuwani.claims.won.total",
		metric.WithDescription("Total number of successful sipara claims"),
		metric.WithUnit("{claim}"),
	)

	m.ClaimsLostTotal, _ = meter.Int64Counter(
		"khuwani.claims.lost.total",
		metric.WithDescription("Total number of claim attempts that lost the slot race"),
		metric.WithUnit("{claim}"),
	)

	m.ClaimDuration, _ = meter.Float64Histogram(
		"khuwani.claims.duration",
		metric.WithDescription("Duration of claim operations"),
		metric.WithUnit("ms"),
	)

	// Release metrics
	m.ReleasesTotal, _ = meter.Int64Counter(
		"khuwani.releases.total",
		metric.WithDescription("Total number of successful sipara releases"),
		metric.WithUnit("{release}"),
	)

	m.ReleaseMissesTotal, _ = meter.Int64Counter(
		"khuwani.releases.misses.total",
		metric.WithDescription("Total number of release attempts that matched no claim"),
		metric.WithUnit("{release}"),
	)

	// Khuwani lifecycle metrics
	m.KhuwaniesCreatedTotal, _ = meter.Int64Counter(
		"khuwani.khuwanies.created.total",
		metric.WithDescription("Total number of khuwanies created"),
		metric.WithUnit("{khuwani}"),
	)

	m.KhuwaniesDeletedTotal, _ = meter.Int64Counter(
		"khuwani.khuwanies.deleted.total",
		metric.WithDescription("Total number of khuwanies deleted"),
		metric.WithUnit("{khuwani}"),
	)

	m.QuranInstancesAdded, _ = meter.Int64Counter(
		"khuwani.quran_instances.added.total",
		metric.WithDescription("Total number of Quran instances added to khuwanies"),
		metric.WithUnit("{instance}"),
	)

	m.ClaimResetsTotal, _ = meter.Int64Counter(
		"khuwani.claims.resets.total",
		metric.WithDescription("Total number of khuwani claim resets"),
		metric.WithUnit("{reset}"),
	)

	// Slug metrics
	m.SlugRetriesTotal, _ = meter.Int64Counter(
		"khuwani.slugs.retries.total",
		metric.WithDescription("Total number of slug generation retries after a collision pre-check hit"),
		metric.WithUnit("{retry}"),
	)

	return m
}
