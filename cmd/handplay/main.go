package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/handplay/internal/app"
	"github.com/ayusman/handplay/internal/capture"
	"github.com/ayusman/handplay/internal/config"
	"github.com/ayusman/handplay/internal/detector"
	"github.com/ayusman/handplay/internal/logging"
	"github.com/ayusman/handplay/internal/render"
	"github.com/ayusman/handplay/internal/server"
	"github.com/ayusman/handplay/internal/telemetry"
	"github.com/ayusman/handplay/internal/tray"
)

func main() {
	configDir := flag.String("config", defaultConfigDir(), "Directory containing handplay.json.")
	flag.String("mode", config.ModeCounter, "Consumer of the landmark stream: counter or game.")
	flag.Bool("headless", false, "Run without a window.")
	flag.Int("hz", 60, "Tick rate in headless mode.")
	ticks := flag.Uint64("ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.String("addr", ":8080", "HTTP listen address; empty disables the server.")
	flag.Bool("tray", false, "Show a system tray item (headless only).")
	flag.Parse()

	if err := config.Load(*configDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyFlags()

	if err := run(*ticks); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"mode":     "mode",
	"headless": "headless",
	"hz":       "loopHz",
	"addr":     "server.addr",
	"tray":     "tray",
}

// applyFlags copies explicitly set flags over the config file values.
func applyFlags() {
	flag.Visit(func(f *flag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if getter, ok := f.Value.(flag.Getter); ok {
			config.Set(key, getter.Get())
		}
		if f.Name == "addr" && f.Value.String() == "" {
			config.Set("server.enabled", false)
		}
	})
}

func run(ticks uint64) error {
	logCfg := config.GetLoggingConfig()
	opts := logging.Options{}
	if logCfg.GraylogEnabled {
		opts.GraylogAddress = logCfg.GraylogAddress
	}
	logger, err := logging.Setup(logCfg.Level, opts)
	if err != nil {
		logger.Warn().Err(err).Msg("graylog output disabled")
	}
	if f := config.ConfigFile(); f != "" {
		logger.Info().Str("file", f).Msg("loaded config")
	}

	provider, err := setupMetrics(config.GetMetricsConfig())
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("metrics shutdown")
		}
	}()

	metrics, err := telemetry.New()
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	mode := app.Mode(config.Mode())
	headless := config.Headless()
	useTray := config.TrayEnabled()
	if useTray && !headless {
		logger.Warn().Msg("tray requires -headless; ignoring")
		useTray = false
	}

	sessionOpts := []detector.SessionOption{detector.WithMetrics(metrics)}
	if config.PreviewEnabled() {
		sessionOpts = append(sessionOpts, detector.WithPreview())
	}
	cam := capture.NewCamera(config.CameraConfig())
	session := detector.NewCameraSession(cam, detector.MediaPipeFactory(logger), logger, sessionOpts...)

	gameCfg := config.GameConfig()
	a, err := app.New(app.Config{
		Mode:         mode,
		Detector:     config.DetectorConfig(string(mode)),
		Game:         gameCfg,
		LoopHz:       config.LoopHz(),
		ExternalLoop: !headless,
		Logger:       logger,
		Metrics:      metrics,
	}, session)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		switch {
		case errors.Is(err, detector.ErrDetectorUnavailable):
			return fmt.Errorf("%w (is the hand landmark model installed?)", err)
		case errors.Is(err, capture.ErrCameraUnavailable):
			return fmt.Errorf("%w (check camera permissions)", err)
		}
		return err
	}
	defer func() {
		if err := a.Stop(); err != nil {
			logger.Warn().Err(err).Msg("shutdown")
		}
	}()

	srvCfg := config.GetServerConfig()
	if srvCfg.Enabled {
		webDir := findWebDir()
		if webDir != "" {
			logger.Info().Str("dir", webDir).Msg("serving static files")
		}
		srv := server.New(server.Config{
			StaticDir:    webDir,
			Source:       a,
			Logger:       logger,
			PushInterval: srvCfg.PushInterval,
			StreamFPS:    srvCfg.StreamFPS,
		})
		go func() {
			if err := srv.Run(ctx, srvCfg.Addr); err != nil {
				logger.Error().Err(err).Msg("http server failed")
			}
		}()
	}

	if !headless {
		return render.RunWindow(a, render.WindowConfig{
			Title:  "handplay",
			Game:   gameCfg,
			Mirror: true,
			Logger: logger,
			Done:   ctx.Done(),
		})
	}

	// the app's own loop ticks the game; the runner only bounds the run
	headlessCfg := render.HeadlessConfig{Hz: config.LoopHz(), Ticks: ticks}

	if !useTray {
		return render.RunHeadless(ctx, nil, headlessCfg)
	}
	return runWithTray(ctx, stop, a, headlessCfg, srvCfg, logger)
}

// runWithTray runs the headless loop in the background and the tray on the
// main goroutine. Either one finishing ends the other.
func runWithTray(ctx context.Context, cancel context.CancelFunc, a *app.App, cfg render.HeadlessConfig, srvCfg config.ServerConfig, logger zerolog.Logger) error {
	t := tray.New(a.Mode())
	t.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
		logger.Info().Bool("enabled", enabled).Msg("detection toggled")
	})
	t.OnRestart(a.Restart)
	t.OnQuit(cancel)
	if srvCfg.Enabled {
		url := browserURL(srvCfg.Addr)
		t.OnOpen(func() {
			if err := openBrowser(url); err != nil {
				logger.Warn().Err(err).Str("url", url).Msg("open browser")
			}
		})
	}

	go t.Watch(ctx, a, 250*time.Millisecond)

	errCh := make(chan error, 1)
	go func() {
		errCh <- render.RunHeadless(ctx, nil, cfg)
		t.Quit()
	}()

	t.Run()
	cancel()
	return <-errCh
}

// setupMetrics installs the metrics exporter, writing to cfg.File or stderr.
func setupMetrics(cfg config.MetricsConfig) (*telemetry.Provider, error) {
	pc := telemetry.ProviderConfig{
		Enabled:     cfg.Enabled,
		ServiceName: "handplay",
		Interval:    cfg.Interval,
		Writer:      os.Stderr,
	}
	if cfg.Enabled && cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open metrics file: %w", err)
		}
		pc.Writer = f
	}
	return telemetry.Setup(pc)
}

func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

func defaultConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".handplay")
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.handplay/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".handplay", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
