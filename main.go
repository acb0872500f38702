// SPDX-License-Identifier: MIT
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"audioviz/cmd"
	"audioviz/internal/analysis"
	"audioviz/internal/config"
	"audioviz/internal/decode"
	applog "audioviz/internal/log"
	"audioviz/internal/source"
	"audioviz/internal/spectral"
	"audioviz/internal/transport"
	"audioviz/internal/transport/udp"
	"audioviz/internal/tui"
	"audioviz/internal/waveform"
	"audioviz/pkg/build"
)

// main is the entry point. The program flow is divided into three
// distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Resolve build information
//   - Parse command line arguments
//   - Load configuration and set the log level
//   - Execute one-off commands if requested
//
// 2. Run Phase (Hot Path):
//   - Start the signal source (capture stream or tone generator)
//   - Bind the analyzer to it
//   - Start the frame publisher and its transports
//   - Run the terminal meter, or block headless until a signal
//
// 3. Shutdown Phase (Cold Path):
//   - Stop the publisher and close the transports
//   - Tear down the analyzer
//   - Stop the capture stream and release PortAudio
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Binaries built without ldflags run with "unknown" metadata.
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build info incomplete: %v", err)
	}

	options, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}

	// Help, completion and the version flag are handled inside cobra.
	if options.Command == "" {
		return
	}

	cfg, err := config.Load(options.ConfigPath)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	level, _ := applog.ParseLevel(cfg.LogLevel)
	if options.Verbose {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)

	switch options.Command {
	case "version":
		fmt.Println(build.Get().String())
	case "devices":
		if err := listDevices(); err != nil {
			applog.Fatalf("%v", err)
		}
	case "thumb":
		if err := writeThumbnail(options); err != nil {
			applog.Fatalf("%v", err)
		}
	case "live":
		if err := runLive(options, cfg); err != nil {
			applog.Fatalf("%v", err)
		}
	default:
		applog.Fatalf("unknown command %q", options.Command)
	}
}

// runLive wires the realtime pipeline and blocks until shutdown.
func runLive(options *cmd.Options, cfg *config.Config) error {
	// ==================== RUN PHASE (Hot Path) ====================

	var (
		src     analysis.SignalSource
		capture *source.Capture
		level   func() float64
	)

	if options.Tone {
		src = source.NewTone(cfg.Tone.Frequency, cfg.Capture.SampleRate, cfg.Tone.Amplitude)
		applog.Infof("Source: test tone (%.1f Hz)", cfg.Tone.Frequency)
	} else {
		if err := source.Initialize(); err != nil {
			return err
		}
		defer source.Terminate()

		// The ring holds twice the analysis window so a callback burst
		// never overwrites samples the analyzer is about to read.
		ring := source.NewRing(cfg.Analysis.TransformSize * 2)

		var err error
		capture, err = source.NewCapture(ring, cfg.CaptureOptions())
		if err != nil {
			return err
		}
		if err := capture.Start(); err != nil {
			return err
		}
		defer capture.Stop()

		src = ring
		level = capture.Level
		applog.Infof("Source: %s", capture.Device().Name)
	}

	analyzer, err := analysis.New(spectral.NewProvider(cfg.WindowFunc()), cfg.AnalysisConfig())
	if err != nil {
		return err
	}
	if err := analyzer.Initialize(src); err != nil {
		return err
	}
	defer analyzer.Teardown()

	sinks, err := buildSinks(cfg)
	if err != nil {
		return err
	}
	for _, sink := range sinks {
		defer sink.Close()
	}

	if len(sinks) > 0 {
		publisher, err := transport.NewPublisher(cfg.Transport.Interval, analyzer, level, sinks...)
		if err != nil {
			return err
		}
		publisher.Start()
		defer publisher.Close()
	}

	// Hot-reload the tunable parts of an explicitly given config file.
	if options.ConfigPath != "" {
		watcher, err := config.NewWatcher(options.ConfigPath)
		if err != nil {
			applog.Warnf("Config watch disabled: %v", err)
		} else {
			defer watcher.Close()
			go applyUpdates(watcher.Updates(), capture)
		}
	}

	if options.Headless {
		done := make(chan os.Signal, 1)
		signal.Notify(done, os.Interrupt, syscall.SIGTERM)
		applog.Infof("Running headless, Ctrl+C to stop")
		<-done
	} else if err := tui.StartMeterUI(analyzer, level); err != nil {
		return err
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	// Deferred teardown unwinds in reverse: publisher, sinks,
	// analyzer, capture stream, PortAudio.
	applog.Infof("Shutting down")
	return nil
}

// applyUpdates applies the hot-reloadable settings from each config
// reload. Analysis geometry and transports stay as they were started.
func applyUpdates(updates <-chan *config.Config, capture *source.Capture) {
	for next := range updates {
		if level, ok := applog.ParseLevel(next.LogLevel); ok {
			applog.SetLevel(level)
		}
		if capture != nil {
			capture.SetGateThreshold(next.Capture.GateThreshold)
		}
		applog.Infof("Configuration reloaded")
	}
}

// buildSinks creates the enabled transports. The WebSocket hub starts
// serving immediately; the UDP transport just dials.
func buildSinks(cfg *config.Config) ([]transport.Transport, error) {
	var sinks []transport.Transport

	if cfg.Transport.WebSocket.Enabled {
		hub := transport.NewWebSocketHub(cfg.Transport.WebSocket.Addr)
		if err := hub.Start(); err != nil {
			return nil, err
		}
		sinks = append(sinks, hub)
	}

	if cfg.Transport.UDP.Enabled {
		udpSink, err := udp.New(cfg.Transport.UDP.Target)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, udpSink)
	}

	return sinks, nil
}

// listDevices prints the host audio device table.
func listDevices() error {
	if err := source.Initialize(); err != nil {
		return err
	}
	defer source.Terminate()

	devices, err := source.ListDevices()
	if err != nil {
		return err
	}

	fmt.Printf("%-4s %-36s %-14s %-12s %s\n", "ID", "Name", "Type", "Channels", "Sample Rate")
	for _, d := range devices {
		marker := " "
		if d.DefaultInput {
			marker = "*"
		}
		fmt.Printf("%-3d%s %-36s %-14s %2d in/%2d out %9.0f Hz\n",
			d.ID, marker, d.Name, d.Kind(), d.InputChannels, d.OutputChannels, d.SampleRate)
	}
	fmt.Println("\n* default input device")
	return nil
}

// writeThumbnail decodes an audio file, reduces it to a waveform
// thumbnail and emits the JSON to stdout or --out.
func writeThumbnail(options *cmd.Options) error {
	clip, err := decode.File(options.ThumbFile)
	if err != nil {
		return err
	}

	thumbnail, err := waveform.NewThumbnail(clip.Samples, int(clip.SampleRate), options.ThumbBlocks)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(thumbnail, "", "  ")
	if err != nil {
		return err
	}

	if options.ThumbOut != "" {
		return os.WriteFile(options.ThumbOut, append(data, '\n'), 0o644)
	}
	fmt.Println(string(data))
	return nil
}
