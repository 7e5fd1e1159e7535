package telemetry

import (
	"context"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMeterProvider installs a Prometheus-backed MeterProvider and returns
// the /metrics handler. A nil registry means the default one.
func InitMeterProvider(serviceName, serviceVersion string, reg *promclient.Registry) (http.Handler, func(context.Context) error, error) {
	var (
		registerer promclient.Registerer = promclient.DefaultRegisterer
		gatherer   promclient.Gatherer   = promclient.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(registerer))
	if err != nil {
		return nil, nil, err
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(newResource(serviceName, serviceVersion)),
	)
	otel.SetMeterProvider(mp)

	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}), mp.Shutdown, nil
}
