package render

import (
	"context"
	"fmt"
	"time"
)

// HeadlessConfig controls the windowless runner.
type HeadlessConfig struct {
	// Hz is the step rate. Defaults to 60.
	Hz int

	// Ticks stops the runner after this many steps. Zero runs until ctx is done.
	Ticks uint64
}

// RunHeadless calls step at a fixed rate without opening a window.
// It returns nil after cfg.Ticks steps, ctx.Err() on cancellation, or the
// first error from step.
func RunHeadless(ctx context.Context, step func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}

	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if step != nil {
				if err := step(); err != nil {
					return err
				}
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}
