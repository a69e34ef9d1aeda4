package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// DefaultExportInterval is how often metrics are written when enabled.
const DefaultExportInterval = 30 * time.Second

// ProviderConfig controls the metrics export pipeline.
type ProviderConfig struct {
	Enabled     bool
	ServiceName string
	Interval    time.Duration

	// Writer receives JSON metric exports. Required when enabled.
	Writer io.Writer
}

// Provider owns the SDK meter provider installed as the global one.
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	config        ProviderConfig
}

// Setup installs a meter provider that periodically exports to cfg.Writer.
// When disabled the global provider is left as the no-op default.
func Setup(cfg ProviderConfig) (*Provider, error) {
	p := &Provider{config: cfg}
	if !cfg.Enabled {
		return p, nil
	}
	if cfg.Writer == nil {
		return nil, fmt.Errorf("metrics enabled but no writer configured")
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "handplay"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultExportInterval
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.Writer))
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Interval))),
	)
	otel.SetMeterProvider(p.meterProvider)

	return p, nil
}

// Enabled returns whether metrics are exported.
func (p *Provider) Enabled() bool {
	return p.meterProvider != nil
}

// Shutdown flushes pending metrics and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	if err := p.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("metric shutdown failed: %w", err)
	}
	return nil
}
