package detector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/ayusman/handplay/internal/capture"
	"github.com/ayusman/handplay/internal/latest"
	"github.com/ayusman/handplay/internal/telemetry"
)

// ErrSessionRunning is returned when a running session is reconfigured or started twice.
var ErrSessionRunning = errors.New("session already running")

// Session is a running landmark source. Results are delivered to the
// registered callback once per processed frame, from the session's own
// goroutine. Frames may be dropped under load.
type Session interface {
	// Configure sets detector options. It must be called before Start.
	Configure(config Config) error

	// OnResult registers the callback that receives each FrameResult.
	OnResult(fn func(FrameResult))

	// Start acquires the camera and begins delivering results.
	Start(ctx context.Context) error

	// Stop halts delivery and releases the camera and detector.
	Stop() error
}

// DetectorFactory builds the detector a session runs.
type DetectorFactory func(Config) (Detector, error)

// CameraSession reads frames from a camera, runs them through a Detector and
// delivers the results. It owns both the camera and the detector.
type CameraSession struct {
	camera     capture.Camera
	newDetect  DetectorFactory
	logger     zerolog.Logger
	metrics    *telemetry.Metrics
	preview    bool
	lastJPEG   latest.Cell[[]byte]
	lastResult latest.Cell[FrameResult]

	mu       sync.Mutex
	config   Config
	detector Detector
	onResult func(FrameResult)
	cancel   context.CancelFunc
	done     chan struct{}
}

// SessionOption configures a CameraSession.
type SessionOption func(*CameraSession)

// WithPreview keeps a JPEG copy of the most recent frame for streaming.
func WithPreview() SessionOption {
	return func(s *CameraSession) {
		s.preview = true
	}
}

// WithMetrics records frame counters on m.
func WithMetrics(m *telemetry.Metrics) SessionOption {
	return func(s *CameraSession) {
		s.metrics = m
	}
}

// NewCameraSession creates a session over the given camera.
// The detector is built by newDetect when the session starts.
func NewCameraSession(camera capture.Camera, newDetect DetectorFactory, logger zerolog.Logger, opts ...SessionOption) *CameraSession {
	s := &CameraSession{
		camera:    camera,
		newDetect: newDetect,
		logger:    logger.With().Str("component", "session").Logger(),
		config:    DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MediaPipeFactory returns a DetectorFactory that starts the MediaPipe service
// eagerly so a missing model surfaces as ErrDetectorUnavailable at Start.
func MediaPipeFactory(logger zerolog.Logger) DetectorFactory {
	return func(config Config) (Detector, error) {
		d, err := NewMediaPipeDetector(config, logger)
		if err != nil {
			return nil, err
		}
		if err := d.Start(); err != nil {
			return nil, err
		}
		return d, nil
	}
}

// Configure sets detector options.
func (s *CameraSession) Configure(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return ErrSessionRunning
	}
	s.config = config
	return nil
}

// OnResult registers the result callback.
func (s *CameraSession) OnResult(fn func(FrameResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onResult = fn
}

// Start opens the camera, builds the detector and launches the frame loop.
// Camera and detector failures are returned as-is and are not retried.
func (s *CameraSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return ErrSessionRunning
	}

	d, err := s.newDetect(s.config)
	if err != nil {
		return fmt.Errorf("start detector: %w", err)
	}

	if err := s.camera.Open(); err != nil {
		d.Close()
		return fmt.Errorf("open camera: %w", err)
	}

	s.detector = d
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(loopCtx, d, s.done)

	s.logger.Info().
		Int("fps", s.camera.FPS()).
		Int("maxHands", s.config.MaxHands).
		Msg("session started")
	return nil
}

// Stop halts the frame loop and releases the camera and detector.
// Calling Stop on a stopped session is a no-op.
func (s *CameraSession) Stop() error {
	s.mu.Lock()
	cancel, done, d := s.cancel, s.done, s.detector
	s.cancel, s.done, s.detector = nil, nil, nil
	s.mu.Unlock()

	if done == nil {
		return nil
	}

	cancel()
	<-done

	var errs []error
	if err := s.camera.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close camera: %w", err))
	}
	if d != nil {
		if err := d.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close detector: %w", err))
		}
	}

	s.logger.Info().Msg("session stopped")
	return errors.Join(errs...)
}

// Preview returns the JPEG encoding of the most recent frame.
func (s *CameraSession) Preview() ([]byte, bool) {
	return s.lastJPEG.Load()
}

// LastResult returns the most recently delivered frame result.
func (s *CameraSession) LastResult() (FrameResult, bool) {
	return s.lastResult.Load()
}

func (s *CameraSession) run(ctx context.Context, d Detector, done chan struct{}) {
	defer close(done)

	fps := s.camera.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.processFrame(ctx, d)
		}
	}
}

func (s *CameraSession) processFrame(ctx context.Context, d Detector) {
	frame, err := s.camera.ReadFrame()
	if err != nil {
		s.logger.Debug().Err(err).Msg("frame read failed")
		s.metrics.FrameDropped(ctx, "read")
		return
	}
	defer frame.Close()

	if s.preview {
		if buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame); err == nil {
			data := make([]byte, buf.Len())
			copy(data, buf.GetBytes())
			buf.Close()
			s.lastJPEG.Store(data)
		}
	}

	hands, err := d.Detect(frame)
	if err != nil {
		s.logger.Warn().Err(err).Msg("hand detection failed")
		s.metrics.FrameDropped(ctx, "detect")
		return
	}

	s.mu.Lock()
	maxHands := s.config.MaxHands
	fn := s.onResult
	s.mu.Unlock()

	result := FrameResult{
		Hands:     capHands(hands, maxHands),
		Timestamp: time.Now(),
	}
	s.lastResult.Store(result)
	s.metrics.FrameProcessed(ctx, len(result.Hands))

	if fn != nil {
		fn(result)
	}
}

func capHands(hands []HandLandmarks, maxHands int) []HandLandmarks {
	if maxHands > 0 && len(hands) > maxHands {
		return hands[:maxHands]
	}
	return hands
}

// StubSession is a Session driven by the caller. Emit delivers a frame
// synchronously to the registered callback while the session is running.
type StubSession struct {
	mu       sync.Mutex
	config   Config
	onResult func(FrameResult)
	running  bool
	startErr error
	starts   int
}

// NewStubSession creates a stopped stub session with the default config.
func NewStubSession() *StubSession {
	return &StubSession{config: DefaultConfig()}
}

// FailStart makes Start return err, simulating an unavailable camera or model.
func (s *StubSession) FailStart(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startErr = err
}

func (s *StubSession) Configure(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSessionRunning
	}
	s.config = config
	return nil
}

func (s *StubSession) OnResult(fn func(FrameResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onResult = fn
}

func (s *StubSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	if s.running {
		return ErrSessionRunning
	}
	s.running = true
	s.starts++
	return nil
}

func (s *StubSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

// Config returns the options last passed to Configure.
func (s *StubSession) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Running reports whether the session has been started and not stopped.
func (s *StubSession) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Emit delivers one frame with the given hands, capped at MaxHands.
// It reports false when the session is not running and nothing was delivered.
func (s *StubSession) Emit(hands ...HandLandmarks) bool {
	s.mu.Lock()
	fn := s.onResult
	running := s.running
	maxHands := s.config.MaxHands
	s.mu.Unlock()

	if !running || fn == nil {
		return false
	}
	fn(FrameResult{Hands: capHands(hands, maxHands), Timestamp: time.Now()})
	return true
}
