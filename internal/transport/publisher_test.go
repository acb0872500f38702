// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	applog "audioviz/internal/log"
)

func TestMain(m *testing.M) {
	applog.SetLevel(applog.LevelFatal)
	m.Run()
}

// stubSampler serves a fixed spectrum, with switches for the not-ready
// and failure paths.
type stubSampler struct {
	spectrum []byte
	notReady bool
	err      error
}

func (s *stubSampler) SampleFrequencyDataInto(dst []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.notReady {
		return 0, nil
	}
	return copy(dst, s.spectrum), nil
}

func (s *stubSampler) BinCount() int {
	return len(s.spectrum)
}

// mockSink records every frame it receives.
type mockSink struct {
	mu      sync.Mutex
	frames  []*Frame
	sendErr error
	closed  bool
}

func (m *mockSink) Send(frame *Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.frames = append(m.frames, frame)
	return nil
}

func (m *mockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockSink) Frames() []*Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Frame, len(m.frames))
	copy(out, m.frames)
	return out
}

// bassOnly builds a spectrum whose first 10% of bins saturate and the
// rest stay silent: bass 1.0, mid 0, treble 0, average 0.1.
func bassOnly(n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n/10; i++ {
		out[i] = 255
	}
	return out
}

func TestNewPublisherValidation(t *testing.T) {
	sink := &mockSink{}
	sampler := &stubSampler{spectrum: bassOnly(100)}

	if _, err := NewPublisher(time.Millisecond, nil, nil, sink); err == nil {
		t.Error("Expected error for nil sampler, got nil")
	}
	if _, err := NewPublisher(time.Millisecond, sampler, nil); err == nil {
		t.Error("Expected error for zero sinks, got nil")
	}

	p, err := NewPublisher(-1, sampler, nil, sink)
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}
	if p.interval != DefaultInterval {
		t.Errorf("Expected default interval %s, got %s", DefaultInterval, p.interval)
	}
}

func TestPublishFrameBands(t *testing.T) {
	sampler := &stubSampler{spectrum: bassOnly(100)}
	sink := &mockSink{}
	p, err := NewPublisher(time.Millisecond, sampler, nil, sink)
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}

	p.publishFrame()
	p.publishFrame()

	frames := sink.Frames()
	if len(frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(frames))
	}

	f := frames[0]
	if f.Seq != 1 || frames[1].Seq != 2 {
		t.Errorf("Expected sequence 1,2, got %d,%d", f.Seq, frames[1].Seq)
	}
	if math.Abs(f.Bass-1.0) > 1e-9 {
		t.Errorf("Expected bass 1.0, got %v", f.Bass)
	}
	if f.Mid != 0 || f.Treble != 0 {
		t.Errorf("Expected silent mid/treble, got %v/%v", f.Mid, f.Treble)
	}
	if math.Abs(f.Average-0.1) > 1e-9 {
		t.Errorf("Expected average 0.1, got %v", f.Average)
	}
	if math.Abs(f.Level-f.Average) > 1e-9 {
		t.Errorf("Expected level to fall back to average, got %v", f.Level)
	}
	if len(f.Spectrum) != 100 {
		t.Errorf("Expected 100 spectrum bytes, got %d", len(f.Spectrum))
	}
	if f.Timestamp == 0 {
		t.Error("Expected a nonzero timestamp")
	}
}

func TestPublishFrameCopiesSpectrum(t *testing.T) {
	sampler := &stubSampler{spectrum: bassOnly(100)}
	sink := &mockSink{}
	p, _ := NewPublisher(time.Millisecond, sampler, nil, sink)

	p.publishFrame()
	for i := range sampler.spectrum {
		sampler.spectrum[i] = 7
	}
	p.publishFrame()

	frames := sink.Frames()
	if frames[0].Spectrum[0] != 255 {
		t.Errorf("First frame spectrum mutated: got %d", frames[0].Spectrum[0])
	}
	if frames[1].Spectrum[0] != 7 {
		t.Errorf("Second frame missed new data: got %d", frames[1].Spectrum[0])
	}
}

func TestPublishFrameLevelFunc(t *testing.T) {
	sampler := &stubSampler{spectrum: bassOnly(100)}
	sink := &mockSink{}
	p, _ := NewPublisher(time.Millisecond, sampler, func() float64 { return 0.42 }, sink)

	p.publishFrame()

	frames := sink.Frames()
	if len(frames) != 1 {
		t.Fatalf("Expected 1 frame, got %d", len(frames))
	}
	if math.Abs(frames[0].Level-0.42) > 1e-9 {
		t.Errorf("Expected level 0.42, got %v", frames[0].Level)
	}
}

func TestPublishFrameNotReady(t *testing.T) {
	sampler := &stubSampler{spectrum: make([]byte, 100), notReady: true}
	sink := &mockSink{}
	p, _ := NewPublisher(time.Millisecond, sampler, nil, sink)

	p.publishFrame()

	if n := len(sink.Frames()); n != 0 {
		t.Errorf("Expected no frames from a not-ready sampler, got %d", n)
	}
}

func TestPublishFrameSampleError(t *testing.T) {
	sampler := &stubSampler{spectrum: make([]byte, 100), err: fmt.Errorf("boom")}
	sink := &mockSink{}
	p, _ := NewPublisher(time.Millisecond, sampler, nil, sink)

	p.publishFrame()

	if n := len(sink.Frames()); n != 0 {
		t.Errorf("Expected no frames after sampling error, got %d", n)
	}
}

func TestPublishFrameSilenceSettles(t *testing.T) {
	sampler := &stubSampler{spectrum: make([]byte, 100)}
	sink := &mockSink{}
	p, _ := NewPublisher(time.Millisecond, sampler, nil, sink)

	// Silence publishes one settling frame, then pauses.
	p.publishFrame()
	p.publishFrame()
	p.publishFrame()
	if n := len(sink.Frames()); n != 1 {
		t.Fatalf("Expected 1 settling frame during silence, got %d", n)
	}

	// Signal returns: publishing resumes.
	copy(sampler.spectrum, bassOnly(100))
	p.publishFrame()
	if n := len(sink.Frames()); n != 2 {
		t.Fatalf("Expected publishing to resume on signal, got %d frames", n)
	}

	// Back to silence: one more settling frame, then quiet again.
	for i := range sampler.spectrum {
		sampler.spectrum[i] = 0
	}
	p.publishFrame()
	p.publishFrame()
	if n := len(sink.Frames()); n != 3 {
		t.Fatalf("Expected exactly one settling frame after signal, got %d", n)
	}
}

func TestPublishFrameSinkErrorContinues(t *testing.T) {
	sampler := &stubSampler{spectrum: bassOnly(100)}
	failing := &mockSink{sendErr: fmt.Errorf("sink down")}
	healthy := &mockSink{}
	p, _ := NewPublisher(time.Millisecond, sampler, nil, failing, healthy)

	p.publishFrame()

	if n := len(healthy.Frames()); n != 1 {
		t.Errorf("Expected healthy sink to receive the frame, got %d", n)
	}
}

func TestPublisherStartStop(t *testing.T) {
	sampler := &stubSampler{spectrum: bassOnly(100)}
	sink := &mockSink{}
	p, _ := NewPublisher(2*time.Millisecond, sampler, nil, sink)

	if err := p.Stop(); err != nil {
		t.Errorf("Stop before Start failed: %v", err)
	}

	p.Start()
	p.Start() // second Start is a no-op

	deadline := time.Now().Add(2 * time.Second)
	for len(sink.Frames()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if len(sink.Frames()) == 0 {
		t.Fatal("Expected at least one published frame while running")
	}

	if err := p.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Errorf("Second Stop failed: %v", err)
	}

	if err := p.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
