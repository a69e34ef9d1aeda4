// Package telemetry holds the OpenTelemetry instruments shared by the
// detection pipeline and the game loop, and the SDK pipeline that exports
// them. Instruments from the global provider are no-ops until Setup
// installs one.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/ayusman/handplay"

// Metrics groups the application's instruments.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	framesProcessed metric.Int64Counter
	framesDropped   metric.Int64Counter
	handsDetected   metric.Int64Counter
	rounds          metric.Int64Counter
	score           metric.Int64Histogram
}

// New creates the instruments on the global meter provider.
func New() (*Metrics, error) {
	return NewWithProvider(otel.GetMeterProvider())
}

// NewWithProvider creates the instruments on mp.
func NewWithProvider(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(instrumentationName)
	metrics := &Metrics{}

	var err error

	metrics.framesProcessed, err = m.Int64Counter(
		"handplay.frames.processed",
		metric.WithDescription("Camera frames run through the hand detector"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames processed counter: %w", err)
	}

	metrics.framesDropped, err = m.Int64Counter(
		"handplay.frames.dropped",
		metric.WithDescription("Camera frames dropped before producing a result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames dropped counter: %w", err)
	}

	metrics.handsDetected, err = m.Int64Counter(
		"handplay.hands.detected",
		metric.WithDescription("Hands reported by the detector"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating hands detected counter: %w", err)
	}

	metrics.rounds, err = m.Int64Counter(
		"handplay.game.rounds",
		metric.WithDescription("Game rounds that reached game over"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rounds counter: %w", err)
	}

	metrics.score, err = m.Int64Histogram(
		"handplay.game.score",
		metric.WithDescription("Final score of finished rounds"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating score histogram: %w", err)
	}

	return metrics, nil
}

// FrameProcessed records one detected frame and the number of hands in it.
func (m *Metrics) FrameProcessed(ctx context.Context, hands int) {
	if m == nil {
		return
	}
	m.framesProcessed.Add(ctx, 1)
	if hands > 0 {
		m.handsDetected.Add(ctx, int64(hands))
	}
}

// FrameDropped records a frame lost to a read or detection error.
func (m *Metrics) FrameDropped(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.framesDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RoundFinished records the final score of a game round.
func (m *Metrics) RoundFinished(ctx context.Context, score int) {
	if m == nil {
		return
	}
	m.rounds.Add(ctx, 1)
	m.score.Record(ctx, int64(score))
}
