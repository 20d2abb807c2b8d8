package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Config controls telemetry setup.
type Config struct {
	Enabled  bool
	Endpoint string
	Protocol string // grpc | http
	Service  string
	Version  string
}

// Provider wires the OTEL meter provider and exposes the instruments the
// service records. When disabled it is a no-op.
type Provider struct {
	Enabled bool
	meter   metric.Meter

	requestsCounter     metric.Int64Counter
	requestDuration     metric.Float64Histogram
	fallbackCounter     metric.Int64Counter
	notificationCounter metric.Int64Counter

	shutdownMeterProvider func(context.Context) error
}

// NewProvider configures the OTLP metric exporter. When disabled, returns a
// no-op provider.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !cfg.Enabled {
		p := &Provider{
			Enabled: false,
			meter:   noop.NewMeterProvider().Meter(""),
		}
		p.initInstruments()
		return p, nil
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.Service),
			attribute.String("service.version", cfg.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	var reader sdkmetric.Reader
	switch strings.ToLower(cfg.Protocol) {
	case "", "grpc":
		exp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(cfg.Endpoint), otlpmetricgrpc.WithInsecure())
		if err != nil {
			return nil, err
		}
		reader = sdkmetric.NewPeriodicReader(exp)
	case "http":
		exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(cfg.Endpoint), otlpmetrichttp.WithInsecure())
		if err != nil {
			return nil, err
		}
		reader = sdkmetric.NewPeriodicReader(exp)
	default:
		p := &Provider{Enabled: false, meter: noop.NewMeterProvider().Meter("")}
		p.initInstruments()
		return p, nil
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)

	p := &Provider{
		Enabled:               true,
		meter:                 mp.Meter("crashsense"),
		shutdownMeterProvider: mp.Shutdown,
	}
	p.initInstruments()
	return p, nil
}

func (p *Provider) initInstruments() {
	if p == nil {
		return
	}
	// Instrument creation errors are ignored to keep telemetry best-effort.
	p.requestsCounter, _ = p.meter.Int64Counter("crashsense_requests_total")
	p.requestDuration, _ = p.meter.Float64Histogram("crashsense_request_duration_ms")
	p.fallbackCounter, _ = p.meter.Int64Counter("crashsense_reasoner_fallback_total")
	p.notificationCounter, _ = p.meter.Int64Counter("crashsense_notifications_total")
}

// Shutdown flushes the meter provider.
func (p *Provider) Shutdown(ctx context.Context) {
	if p == nil || p.shutdownMeterProvider == nil {
		return
	}
	_ = p.shutdownMeterProvider(ctx)
}

// RecordRequest emits the per-request counter and duration with the verdict
// severity as a label.
func (p *Provider) RecordRequest(severity string, accident bool, durMs float64) {
	if p == nil {
		return
	}
	labels := metric.WithAttributes(
		attribute.String("crashsense.severity", severity),
		attribute.Bool("crashsense.accident", accident),
	)
	p.requestsCounter.Add(context.Background(), 1, labels)
	p.requestDuration.Record(context.Background(), durMs, labels)
}

// RecordFallback counts a degradation from the assisted tier.
func (p *Provider) RecordFallback() {
	if p == nil {
		return
	}
	p.fallbackCounter.Add(context.Background(), 1)
}

// RecordNotification counts an alert outcome.
func (p *Provider) RecordNotification(status string) {
	if p == nil {
		return
	}
	p.notificationCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("crashsense.outcome", status)))
}
