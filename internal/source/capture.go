// SPDX-License-Identifier: MIT
package source

import (
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	applog "audioviz/internal/log"
)

// Options configures a live capture stream.
type Options struct {
	DeviceID        int     // -1 selects the system default input
	Channels        int     // interleaved input channels, first is analyzed
	SampleRate      float64 // Hz
	FramesPerBuffer int     // samples per callback
	GateThreshold   float64 // 0.0 disables the gate, 1.0 mutes everything
	LowLatency      bool
}

// Capture pulls interleaved int32 frames from a PortAudio input stream
// and feeds the first channel into a Ring as normalized float64
// samples. A closed noise gate feeds silence so the spectrum decays
// instead of freezing on the last loud frame.
type Capture struct {
	ring    *Ring
	opts    Options
	device  *portaudio.DeviceInfo
	latency time.Duration
	stream  *portaudio.Stream

	inputBuffer   []int32
	mono          []float64
	gateThreshold int32
	level         uint32 // atomic float32 bits, peak of the last buffer
}

// NewCapture resolves the input device and preallocates the callback
// buffers. PortAudio must already be initialized.
func NewCapture(ring *Ring, opts Options) (*Capture, error) {
	if ring == nil {
		return nil, fmt.Errorf("capture: nil ring")
	}
	if opts.Channels < 1 || opts.FramesPerBuffer < 1 || opts.SampleRate <= 0 {
		return nil, fmt.Errorf("capture: invalid stream geometry (%d ch, %d frames, %.0f Hz)",
			opts.Channels, opts.FramesPerBuffer, opts.SampleRate)
	}

	device, err := InputDevice(opts.DeviceID)
	if err != nil {
		return nil, err
	}

	c := &Capture{
		ring:        ring,
		opts:        opts,
		device:      device,
		inputBuffer: make([]int32, opts.FramesPerBuffer*opts.Channels),
		mono:        make([]float64, opts.FramesPerBuffer),
	}
	c.SetGateThreshold(opts.GateThreshold)

	if opts.LowLatency {
		c.latency = device.DefaultLowInputLatency
	} else {
		c.latency = device.DefaultHighInputLatency
	}

	return c, nil
}

// Start opens and starts the input stream.
func (c *Capture) Start() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: c.opts.Channels,
			Device:   c.device,
			Latency:  c.latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0,
			Device:   nil,
		},
		FramesPerBuffer: c.opts.FramesPerBuffer,
		SampleRate:      c.opts.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, c.processInput)
	if err != nil {
		return fmt.Errorf("capture: open stream: %w", err)
	}
	c.stream = stream

	if err := c.stream.Start(); err != nil {
		c.stream.Close()
		c.stream = nil
		return fmt.Errorf("capture: start stream: %w", err)
	}

	applog.Infof("Capture: streaming from %q (%d ch, %.0f Hz, %d frames)",
		c.device.Name, c.opts.Channels, c.opts.SampleRate, c.opts.FramesPerBuffer)
	return nil
}

// Stop stops and closes the stream. Safe to call when never started.
func (c *Capture) Stop() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("capture: stop stream: %w", err)
	}
	if err := c.stream.Close(); err != nil {
		return fmt.Errorf("capture: close stream: %w", err)
	}
	c.stream = nil
	return nil
}

// Device returns the resolved input device.
func (c *Capture) Device() *portaudio.DeviceInfo {
	return c.device
}

// SetGateThreshold adjusts the noise gate. The value is 0.0-1.0 where
// 0 leaves the gate always open and 1 closes it for any signal.
func (c *Capture) SetGateThreshold(threshold float64) {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}
	c.gateThreshold = int32(threshold * float64(math.MaxInt32))
}

// Level returns the peak amplitude of the most recent buffer as a
// 0.0-1.0 fraction.
func (c *Capture) Level() float64 {
	return float64(math.Float32frombits(atomic.LoadUint32(&c.level)))
}

// processInput is the stream callback.
// Performance critical:
// - Runs on a dedicated OS thread (LockOSThread)
// - Pre-allocated buffers only, no allocations in the hot path
// - Branchless peak scan
func (c *Capture) processInput(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	copy(c.inputBuffer, in)

	peak := peakAmplitude(c.inputBuffer)
	atomic.StoreUint32(&c.level, math.Float32bits(float32(peak)/float32(math.MaxInt32)))

	if c.gateThreshold > 0 && peak <= c.gateThreshold {
		for i := range c.mono {
			c.mono[i] = 0
		}
	} else {
		monoMix(c.inputBuffer, c.opts.Channels, c.mono)
	}

	c.ring.Push(c.mono)
}

// peakAmplitude returns the maximum absolute sample value without
// branching in the scan loop.
func peakAmplitude(in []int32) int32 {
	var peak int32
	for i := range in {
		sample := in[i]
		mask := sample >> 31
		amplitude := (sample ^ mask) - mask
		diff := amplitude - peak
		peak += (diff & (diff >> 31)) ^ diff
	}
	return peak
}

// monoMix copies the first channel of interleaved int32 frames into
// dst normalized to [-1, 1].
func monoMix(in []int32, channels int, dst []float64) {
	for i := range dst {
		idx := i * channels
		if idx < len(in) {
			dst[i] = float64(in[idx]) / float64(math.MaxInt32)
		} else {
			dst[i] = 0
		}
	}
}
