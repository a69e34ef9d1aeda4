// Package config loads handplay settings from defaults, an optional
// handplay.json and HANDPLAY_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ayusman/handplay/internal/capture"
	"github.com/ayusman/handplay/internal/detector"
	"github.com/ayusman/handplay/internal/game"
)

const (
	fileName  = "handplay"
	envPrefix = "HANDPLAY"
)

// Application modes.
const (
	ModeCounter = "counter"
	ModeGame    = "game"
)

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	Addr         string        `json:"addr" mapstructure:"addr"`
	PushInterval time.Duration `json:"pushInterval" mapstructure:"pushInterval"`
	StreamFPS    int           `json:"streamFps" mapstructure:"streamFps"`
}

// MetricsConfig holds the metrics export settings. An empty File writes to stderr.
type MetricsConfig struct {
	Enabled  bool          `json:"enabled" mapstructure:"enabled"`
	Interval time.Duration `json:"interval" mapstructure:"interval"`
	File     string        `json:"file" mapstructure:"file"`
}

// LoggingConfig holds log level and sink settings.
type LoggingConfig struct {
	Level          string `json:"level" mapstructure:"level"`
	GraylogEnabled bool   `json:"graylogEnabled" mapstructure:"graylogEnabled"`
	GraylogAddress string `json:"graylogAddress" mapstructure:"graylogAddress"`
}

// Load sets defaults and reads handplay.json from configDir if present.
// A missing file is not an error; a malformed one is.
func Load(configDir string) error {
	viper.SetDefault("mode", ModeCounter)
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("headless", false)
	viper.SetDefault("loopHz", 60)
	viper.SetDefault("tray", false)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	cam := capture.DefaultConfig()
	viper.SetDefault("camera.device", cam.DeviceID)
	viper.SetDefault("camera.width", cam.Width)
	viper.SetDefault("camera.height", cam.Height)
	viper.SetDefault("camera.fps", cam.FPS)
	viper.SetDefault("camera.preview", true)

	setDetectorDefaults(ModeCounter, detector.DefaultConfig())
	setDetectorDefaults(ModeGame, detector.GameConfig())

	g := game.DefaultConfig()
	viper.SetDefault("game.width", g.Width)
	viper.SetDefault("game.height", g.Height)
	viper.SetDefault("game.avatarX", g.AvatarX)
	viper.SetDefault("game.avatarSize", g.AvatarSize)
	viper.SetDefault("game.initialY", g.InitialY)
	viper.SetDefault("game.obstacleWidth", g.ObstacleWidth)
	viper.SetDefault("game.gap", g.Gap)
	viper.SetDefault("game.speed", g.Speed)
	viper.SetDefault("game.spawnThreshold", g.SpawnThreshold)
	viper.SetDefault("game.margin", g.Margin)

	viper.SetDefault("server.enabled", true)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.pushInterval", "66ms")
	viper.SetDefault("server.streamFps", 15)

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.interval", "30s")
	viper.SetDefault("metrics.file", "")

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(fileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

func setDetectorDefaults(mode string, c detector.Config) {
	prefix := "detector." + mode + "."
	viper.SetDefault(prefix+"maxHands", c.MaxHands)
	viper.SetDefault(prefix+"modelComplexity", c.ModelComplexity)
	viper.SetDefault(prefix+"minDetectionConfidence", c.MinConfidence)
	viper.SetDefault(prefix+"minTrackingConfidence", c.MinTrackingConf)
}

// ConfigFile returns the path of the loaded config file, or "" if none was found.
func ConfigFile() string {
	return viper.ConfigFileUsed()
}

// Mode returns the configured application mode.
func Mode() string {
	return strings.ToLower(viper.GetString("mode"))
}

// CameraConfig returns the capture device settings.
func CameraConfig() capture.Config {
	return capture.Config{
		DeviceID: viper.GetInt("camera.device"),
		Width:    viper.GetInt("camera.width"),
		Height:   viper.GetInt("camera.height"),
		FPS:      viper.GetInt("camera.fps"),
	}
}

// PreviewEnabled reports whether the session keeps a JPEG preview for streaming.
func PreviewEnabled() bool {
	return viper.GetBool("camera.preview")
}

// DetectorConfig returns the detector options for an application mode.
// Unknown modes get the counter's options.
func DetectorConfig(mode string) detector.Config {
	if mode != ModeGame {
		mode = ModeCounter
	}
	prefix := "detector." + mode + "."
	return detector.Config{
		MaxHands:        viper.GetInt(prefix + "maxHands"),
		ModelComplexity: viper.GetInt(prefix + "modelComplexity"),
		MinConfidence:   viper.GetFloat64(prefix + "minDetectionConfidence"),
		MinTrackingConf: viper.GetFloat64(prefix + "minTrackingConfidence"),
	}
}

// GameConfig returns the game world settings.
func GameConfig() game.Config {
	return game.Config{
		Width:          viper.GetFloat64("game.width"),
		Height:         viper.GetFloat64("game.height"),
		AvatarX:        viper.GetFloat64("game.avatarX"),
		AvatarSize:     viper.GetFloat64("game.avatarSize"),
		InitialY:       viper.GetFloat64("game.initialY"),
		ObstacleWidth:  viper.GetFloat64("game.obstacleWidth"),
		Gap:            viper.GetFloat64("game.gap"),
		Speed:          viper.GetFloat64("game.speed"),
		SpawnThreshold: viper.GetFloat64("game.spawnThreshold"),
		Margin:         viper.GetFloat64("game.margin"),
	}
}

// GetServerConfig returns the HTTP surface settings.
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Enabled:      viper.GetBool("server.enabled"),
		Addr:         viper.GetString("server.addr"),
		PushInterval: viper.GetDuration("server.pushInterval"),
		StreamFPS:    viper.GetInt("server.streamFps"),
	}
}

// GetLoggingConfig returns the log level and sink settings.
func GetLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:          viper.GetString("logLevel"),
		GraylogEnabled: viper.GetBool("graylog.enabled"),
		GraylogAddress: viper.GetString("graylog.address"),
	}
}

// GetMetricsConfig returns the metrics export settings.
func GetMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:  viper.GetBool("metrics.enabled"),
		Interval: viper.GetDuration("metrics.interval"),
		File:     viper.GetString("metrics.file"),
	}
}

// LoopHz returns the headless game loop rate.
func LoopHz() int {
	return viper.GetInt("loopHz")
}

// Headless reports whether to run without a window.
func Headless() bool {
	return viper.GetBool("headless")
}

// TrayEnabled reports whether to show the system tray item.
func TrayEnabled() bool {
	return viper.GetBool("tray")
}

// Set overrides a key, typically from a command-line flag.
func Set(key string, value any) {
	viper.Set(key, value)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
