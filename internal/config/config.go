// SPDX-License-Identifier: MIT

// Package config loads the engine configuration from YAML with
// environment overrides layered on top: defaults, then file, then
// AUDIOVIZ_* variables, then validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"audioviz/internal/analysis"
	applog "audioviz/internal/log"
	"audioviz/internal/source"
	"audioviz/internal/spectral"
)

// Config is the root configuration structure, loaded from YAML.
type Config struct {
	LogLevel  string          `yaml:"log_level"` // "debug", "info", "warn", "error", "fatal"
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Capture   CaptureConfig   `yaml:"capture"`
	Tone      ToneConfig      `yaml:"tone"`
	Transport TransportConfig `yaml:"transport"`
}

// AnalysisConfig selects the spectral analysis geometry.
type AnalysisConfig struct {
	TransformSize   int     `yaml:"transform_size"`   // power of two, >= 32
	SmoothingFactor float64 `yaml:"smoothing_factor"` // 0..1, frame-to-frame decay
	Window          string  `yaml:"window"`           // "hann", "hamming", "blackman", ...
}

// CaptureConfig configures the live input stream.
type CaptureConfig struct {
	DeviceID        int     `yaml:"device_id"`         // -1 for the system default input
	Channels        int     `yaml:"channels"`          // captured channels, first is analyzed
	SampleRate      float64 `yaml:"sample_rate"`       // Hz
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // samples per capture callback
	LowLatency      bool    `yaml:"low_latency"`
	GateThreshold   float64 `yaml:"gate_threshold"` // 0 disables the noise gate
}

// ToneConfig configures the built-in generator used by --tone runs.
type ToneConfig struct {
	Frequency float64 `yaml:"frequency"` // Hz
	Amplitude float64 `yaml:"amplitude"` // 0..1 peak
}

// TransportConfig configures the frame fan-out.
type TransportConfig struct {
	Interval  time.Duration   `yaml:"interval"` // publish cadence
	WebSocket WebSocketConfig `yaml:"websocket"`
	UDP       UDPConfig       `yaml:"udp"`
}

// WebSocketConfig configures the JSON frame hub.
type WebSocketConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"` // host:port, empty host binds all interfaces
}

// UDPConfig configures the binary datagram sink.
type UDPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Target  string `yaml:"target"` // host:port
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Analysis: AnalysisConfig{
			TransformSize:   analysis.DefaultTransformSize,
			SmoothingFactor: analysis.DefaultSmoothing,
			Window:          "hann",
		},
		Capture: CaptureConfig{
			DeviceID:        source.DefaultDeviceID,
			Channels:        2,
			SampleRate:      analysis.DefaultSampleRate,
			FramesPerBuffer: 1024,
			LowLatency:      false,
			GateThreshold:   0.001,
		},
		Tone: ToneConfig{
			Frequency: 440.0,
			Amplitude: 0.8,
		},
		Transport: TransportConfig{
			Interval: 16 * time.Millisecond,
			WebSocket: WebSocketConfig{
				Enabled: true,
				Addr:    ":8080",
			},
			UDP: UDPConfig{
				Enabled: false,
				Target:  "127.0.0.1:9090",
			},
		},
	}
}

// Load reads the configuration from path. An empty path searches the
// default locations and falls back to built-in defaults when no file
// exists. Environment overrides apply after the file, validation last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{"audioviz.yaml", "config.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level %q is not a known level", c.LogLevel)
	}

	if err := c.AnalysisConfig().Validate(); err != nil {
		return err
	}
	if _, err := spectral.ParseWindowFunc(c.Analysis.Window); err != nil {
		return fmt.Errorf("analysis.window: %w", err)
	}

	if c.Capture.DeviceID < source.DefaultDeviceID {
		return fmt.Errorf("capture.device_id %d is invalid", c.Capture.DeviceID)
	}
	if c.Capture.Channels < 1 {
		return fmt.Errorf("capture.channels must be at least 1, got %d", c.Capture.Channels)
	}
	if c.Capture.FramesPerBuffer < 1 {
		return fmt.Errorf("capture.frames_per_buffer must be at least 1, got %d", c.Capture.FramesPerBuffer)
	}
	if c.Capture.GateThreshold < 0 || c.Capture.GateThreshold > 1 {
		return fmt.Errorf("capture.gate_threshold must be in [0, 1], got %v", c.Capture.GateThreshold)
	}

	if c.Tone.Frequency <= 0 {
		return fmt.Errorf("tone.frequency must be positive, got %v", c.Tone.Frequency)
	}
	if c.Tone.Amplitude < 0 || c.Tone.Amplitude > 1 {
		return fmt.Errorf("tone.amplitude must be in [0, 1], got %v", c.Tone.Amplitude)
	}

	if c.Transport.Interval <= 0 {
		return fmt.Errorf("transport.interval must be positive, got %v", c.Transport.Interval)
	}
	if c.Transport.WebSocket.Enabled && c.Transport.WebSocket.Addr == "" {
		return fmt.Errorf("transport.websocket.addr must be set when the hub is enabled")
	}
	if c.Transport.UDP.Enabled && c.Transport.UDP.Target == "" {
		return fmt.Errorf("transport.udp.target must be set when UDP is enabled")
	}

	return nil
}

// AnalysisConfig assembles the analyzer configuration from the
// analysis and capture sections.
func (c *Config) AnalysisConfig() analysis.Config {
	return analysis.Config{
		TransformSize:   c.Analysis.TransformSize,
		SmoothingFactor: c.Analysis.SmoothingFactor,
		SampleRate:      c.Capture.SampleRate,
	}
}

// WindowFunc resolves the configured window function name. Call after
// Validate; unknown names fall back to Hann.
func (c *Config) WindowFunc() spectral.WindowFunc {
	w, _ := spectral.ParseWindowFunc(c.Analysis.Window)
	return w
}

// CaptureOptions maps the capture section onto source options.
func (c *Config) CaptureOptions() source.Options {
	return source.Options{
		DeviceID:        c.Capture.DeviceID,
		Channels:        c.Capture.Channels,
		SampleRate:      c.Capture.SampleRate,
		FramesPerBuffer: c.Capture.FramesPerBuffer,
		GateThreshold:   c.Capture.GateThreshold,
		LowLatency:      c.Capture.LowLatency,
	}
}

// applyEnvOverrides layers AUDIOVIZ_* environment variables over the
// loaded values. Unparseable values are ignored with a warning rather
// than failing the load.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("AUDIOVIZ_LOG_LEVEL"); ok {
		c.LogLevel = val
		applog.Debugf("Config: log_level from env: %s", val)
	}
	if val, ok := os.LookupEnv("AUDIOVIZ_TRANSFORM_SIZE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Analysis.TransformSize = n
			applog.Debugf("Config: analysis.transform_size from env: %d", n)
		} else {
			applog.Warnf("Config: ignoring AUDIOVIZ_TRANSFORM_SIZE=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("AUDIOVIZ_SMOOTHING"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.Analysis.SmoothingFactor = f
			applog.Debugf("Config: analysis.smoothing_factor from env: %v", f)
		} else {
			applog.Warnf("Config: ignoring AUDIOVIZ_SMOOTHING=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("AUDIOVIZ_WINDOW"); ok {
		c.Analysis.Window = val
		applog.Debugf("Config: analysis.window from env: %s", val)
	}
	if val, ok := os.LookupEnv("AUDIOVIZ_DEVICE_ID"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Capture.DeviceID = n
			applog.Debugf("Config: capture.device_id from env: %d", n)
		} else {
			applog.Warnf("Config: ignoring AUDIOVIZ_DEVICE_ID=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("AUDIOVIZ_SAMPLE_RATE"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.Capture.SampleRate = f
			applog.Debugf("Config: capture.sample_rate from env: %v", f)
		} else {
			applog.Warnf("Config: ignoring AUDIOVIZ_SAMPLE_RATE=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("AUDIOVIZ_WS_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Transport.WebSocket.Enabled = b
			applog.Debugf("Config: transport.websocket.enabled from env: %v", b)
		} else {
			applog.Warnf("Config: ignoring AUDIOVIZ_WS_ENABLED=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("AUDIOVIZ_WS_ADDR"); ok {
		c.Transport.WebSocket.Addr = val
		applog.Debugf("Config: transport.websocket.addr from env: %s", val)
	}
	if val, ok := os.LookupEnv("AUDIOVIZ_UDP_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDP.Enabled = b
			applog.Debugf("Config: transport.udp.enabled from env: %v", b)
		} else {
			applog.Warnf("Config: ignoring AUDIOVIZ_UDP_ENABLED=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("AUDIOVIZ_UDP_TARGET"); ok {
		c.Transport.UDP.Target = val
		applog.Debugf("Config: transport.udp.target from env: %s", val)
	}
	if val, ok := os.LookupEnv("AUDIOVIZ_INTERVAL"); ok {
		if d, err := time.ParseDuration(val); err == nil {
			c.Transport.Interval = d
			applog.Debugf("Config: transport.interval from env: %s", d)
		} else {
			applog.Warnf("Config: ignoring AUDIOVIZ_INTERVAL=%q: %v", val, err)
		}
	}
}
