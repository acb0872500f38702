// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"testing"

	applog "audioviz/internal/log"
)

func TestMain(m *testing.M) {
	// Keep lifecycle logging out of test output.
	applog.SetLevel(applog.LevelFatal)
	m.Run()
}

// --- Test Fixtures ---

type stubSource struct{ name string }

func (s *stubSource) Window(dst []float64) int { return 0 }

type stubCapability struct {
	freq     []byte
	wave     []byte
	released int
}

func (c *stubCapability) FrequencyData(dst []byte) int  { return copy(dst, c.freq) }
func (c *stubCapability) TimeDomainData(dst []byte) int { return copy(dst, c.wave) }
func (c *stubCapability) Release()                      { c.released++ }

type stubProvider struct {
	err      error
	acquired int
	lastCap  *stubCapability
}

func (p *stubProvider) Acquire(src SignalSource, cfg Config) (Capability, error) {
	p.acquired++
	if p.err != nil {
		return nil, p.err
	}
	p.lastCap = &stubCapability{
		freq: bytePattern(cfg.BinCount()),
		wave: bytePattern(cfg.TransformSize),
	}
	return p.lastCap, nil
}

var (
	_ SignalSource = (*stubSource)(nil)
	_ Capability   = (*stubCapability)(nil)
	_ Provider     = (*stubProvider)(nil)
)

func bytePattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 256)
	}
	return b
}

func newReadyAnalyzer(t *testing.T, cfg Config) (*Analyzer, *stubProvider, *stubSource) {
	t.Helper()
	provider := &stubProvider{}
	a, err := New(provider, cfg)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	src := &stubSource{name: t.Name()}
	if err := a.Initialize(src); err != nil {
		t.Fatalf("Initialize() unexpected error: %v", err)
	}
	return a, provider, src
}

// --- Construction ---

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"non power of two", Config{TransformSize: 100, SmoothingFactor: 0.8, SampleRate: 44100}},
		{"below minimum", Config{TransformSize: 16, SmoothingFactor: 0.8, SampleRate: 44100}},
		{"zero size", Config{TransformSize: 0, SmoothingFactor: 0.8, SampleRate: 44100}},
		{"negative smoothing", Config{TransformSize: 2048, SmoothingFactor: -0.1, SampleRate: 44100}},
		{"smoothing above one", Config{TransformSize: 2048, SmoothingFactor: 1.1, SampleRate: 44100}},
		{"zero sample rate", Config{TransformSize: 2048, SmoothingFactor: 0.8, SampleRate: 0}},
		{"negative sample rate", Config{TransformSize: 2048, SmoothingFactor: 0.8, SampleRate: -44100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&stubProvider{}, tt.cfg)
			if !errors.Is(err, ErrConfig) {
				t.Errorf("New() error = %v, expected ErrConfig", err)
			}
		})
	}
}

func TestNewRejectsNilProvider(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	if !errors.Is(err, ErrConfig) {
		t.Errorf("New(nil provider) error = %v, expected ErrConfig", err)
	}
}

func TestNewAcceptsDefaultConfig(t *testing.T) {
	a, err := New(&stubProvider{}, DefaultConfig())
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	if a.State() != StateUninitialized {
		t.Errorf("fresh analyzer state = %v, expected uninitialized", a.State())
	}
}

// --- Degraded sampling outside Ready ---

func TestSamplingBeforeInitializeIsEmpty(t *testing.T) {
	a, err := New(&stubProvider{}, DefaultConfig())
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	if got := a.SampleFrequencyData(); len(got) != 0 {
		t.Errorf("SampleFrequencyData() before initialize returned %d values, expected empty", len(got))
	}
	if got := a.SampleTimeDomainData(); len(got) != 0 {
		t.Errorf("SampleTimeDomainData() before initialize returned %d values, expected empty", len(got))
	}
}

// --- Initialize ---

func TestInitializeHappyPath(t *testing.T) {
	cfg := DefaultConfig()
	a, provider, _ := newReadyAnalyzer(t, cfg)

	if a.State() != StateReady {
		t.Fatalf("state = %v, expected ready", a.State())
	}
	if provider.acquired != 1 {
		t.Errorf("provider acquired %d times, expected 1", provider.acquired)
	}

	freq := a.SampleFrequencyData()
	if len(freq) != cfg.BinCount() {
		t.Errorf("frequency snapshot length = %d, expected %d", len(freq), cfg.BinCount())
	}
	for i, v := range freq {
		if v != byte(i%256) {
			t.Fatalf("frequency snapshot[%d] = %d, expected %d", i, v, byte(i%256))
		}
	}

	wave := a.SampleTimeDomainData()
	if len(wave) != cfg.TransformSize {
		t.Errorf("time-domain snapshot length = %d, expected %d", len(wave), cfg.TransformSize)
	}
}

func TestInitializeTwiceSameSourceIsNoOp(t *testing.T) {
	a, provider, src := newReadyAnalyzer(t, DefaultConfig())

	if err := a.Initialize(src); err != nil {
		t.Fatalf("second Initialize() on same source = %v, expected nil no-op", err)
	}
	if provider.acquired != 1 {
		t.Errorf("provider acquired %d times after re-initialize, expected 1", provider.acquired)
	}
	if a.State() != StateReady {
		t.Errorf("state = %v after re-initialize, expected ready", a.State())
	}
}

func TestInitializeDifferentSourceWhileReady(t *testing.T) {
	a, _, _ := newReadyAnalyzer(t, DefaultConfig())

	err := a.Initialize(&stubSource{name: "other"})
	if !errors.Is(err, ErrAlreadyBound) {
		t.Errorf("Initialize(different source) error = %v, expected ErrAlreadyBound", err)
	}
}

func TestSecondAnalyzerSameSourceFailsFast(t *testing.T) {
	a1, _, src := newReadyAnalyzer(t, DefaultConfig())

	a2, err := New(&stubProvider{}, DefaultConfig())
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	if err := a2.Initialize(src); !errors.Is(err, ErrAlreadyBound) {
		t.Fatalf("second analyzer Initialize() error = %v, expected ErrAlreadyBound", err)
	}
	if a2.State() != StateUninitialized {
		t.Errorf("losing analyzer state = %v, expected uninitialized", a2.State())
	}

	// Once the holder lets go, the source is claimable again.
	a1.Teardown()
	if err := a2.Initialize(src); err != nil {
		t.Errorf("Initialize() after previous owner teardown = %v, expected success", err)
	}
}

func TestInitializeNilSource(t *testing.T) {
	a, err := New(&stubProvider{}, DefaultConfig())
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	if err := a.Initialize(nil); !errors.Is(err, ErrInitialization) {
		t.Errorf("Initialize(nil) error = %v, expected ErrInitialization", err)
	}
}

func TestInitializeFailureIsRetryable(t *testing.T) {
	provider := &stubProvider{err: errors.New("capability unavailable")}
	a, err := New(provider, DefaultConfig())
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	src := &stubSource{name: "retry"}

	if err := a.Initialize(src); !errors.Is(err, ErrInitialization) {
		t.Fatalf("Initialize() error = %v, expected ErrInitialization", err)
	}
	if a.State() != StateUninitialized {
		t.Fatalf("state after failed initialize = %v, expected uninitialized", a.State())
	}
	if got := a.SampleFrequencyData(); len(got) != 0 {
		t.Errorf("sampling after failed initialize returned %d values, expected empty", len(got))
	}

	// The failed attempt must not leave the source claimed.
	provider.err = nil
	if err := a.Initialize(src); err != nil {
		t.Fatalf("retry Initialize() = %v, expected success", err)
	}
	if a.State() != StateReady {
		t.Errorf("state after retry = %v, expected ready", a.State())
	}
	if provider.acquired != 2 {
		t.Errorf("provider acquired %d times, expected 2", provider.acquired)
	}
}

// --- Teardown ---

func TestTeardownIsIdempotent(t *testing.T) {
	a, provider, _ := newReadyAnalyzer(t, DefaultConfig())

	a.Teardown()
	a.Teardown()

	if a.State() != StateTornDown {
		t.Errorf("state = %v, expected torndown", a.State())
	}
	if provider.lastCap.released != 1 {
		t.Errorf("capability released %d times, expected exactly 1", provider.lastCap.released)
	}
	if got := a.SampleFrequencyData(); len(got) != 0 {
		t.Errorf("sampling after teardown returned %d values, expected empty", len(got))
	}
	if got := a.SampleTimeDomainData(); len(got) != 0 {
		t.Errorf("time sampling after teardown returned %d values, expected empty", len(got))
	}
}

func TestTeardownBeforeInitialize(t *testing.T) {
	a, err := New(&stubProvider{}, DefaultConfig())
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	a.Teardown()
	if a.State() != StateTornDown {
		t.Fatalf("state = %v, expected torndown", a.State())
	}
	if err := a.Initialize(&stubSource{}); !errors.Is(err, ErrInitialization) {
		t.Errorf("Initialize() after teardown error = %v, expected ErrInitialization", err)
	}
}

// --- Snapshot contracts ---

func TestSnapshotsAreDefensiveCopies(t *testing.T) {
	a, _, _ := newReadyAnalyzer(t, DefaultConfig())

	first := a.SampleFrequencyData()
	want := first[0]
	first[0] = want + 1 // Caller scribbles on its copy.

	second := a.SampleFrequencyData()
	if second[0] != want {
		t.Errorf("mutating a returned snapshot leaked into the next sample: got %d, expected %d", second[0], want)
	}
}

func TestFrequencySnapshotLengthPerTransformSize(t *testing.T) {
	for _, size := range []int{32, 64, 256, 1024, 2048, 8192} {
		t.Run(fmt.Sprintf("size_%d", size), func(t *testing.T) {
			cfg := Config{TransformSize: size, SmoothingFactor: 0.8, SampleRate: 44100}
			a, _, _ := newReadyAnalyzer(t, cfg)

			if got := a.SampleFrequencyData(); len(got) != size/2 {
				t.Errorf("snapshot length = %d, expected %d", len(got), size/2)
			}
			if got := a.SampleTimeDomainData(); len(got) != size {
				t.Errorf("time-domain length = %d, expected %d", len(got), size)
			}
		})
	}
}

func TestSampleIntoVariants(t *testing.T) {
	cfg := DefaultConfig()
	a, _, _ := newReadyAnalyzer(t, cfg)

	dst := make([]byte, cfg.BinCount())
	n, err := a.SampleFrequencyDataInto(dst)
	if err != nil || n != cfg.BinCount() {
		t.Fatalf("SampleFrequencyDataInto() = (%d, %v), expected (%d, nil)", n, err, cfg.BinCount())
	}

	if _, err := a.SampleFrequencyDataInto(make([]byte, 7)); err == nil {
		t.Error("SampleFrequencyDataInto() with wrong length expected error, got nil")
	}

	wave := make([]byte, cfg.TransformSize)
	n, err = a.SampleTimeDomainDataInto(wave)
	if err != nil || n != cfg.TransformSize {
		t.Fatalf("SampleTimeDomainDataInto() = (%d, %v), expected (%d, nil)", n, err, cfg.TransformSize)
	}

	a.Teardown()
	n, err = a.SampleFrequencyDataInto(dst)
	if n != 0 || err != nil {
		t.Errorf("SampleFrequencyDataInto() after teardown = (%d, %v), expected (0, nil)", n, err)
	}
}

func TestSampleIntoDoesNotAllocate(t *testing.T) {
	cfg := DefaultConfig()
	a, _, _ := newReadyAnalyzer(t, cfg)
	dst := make([]byte, cfg.BinCount())

	allocs := testing.AllocsPerRun(100, func() {
		if _, err := a.SampleFrequencyDataInto(dst); err != nil {
			t.Fatalf("SampleFrequencyDataInto() error: %v", err)
		}
	})
	if allocs != 0 {
		t.Errorf("SampleFrequencyDataInto() allocates %.1f per call, expected 0", allocs)
	}
}

// --- Accessors ---

func TestBinFrequency(t *testing.T) {
	a, _, _ := newReadyAnalyzer(t, DefaultConfig())

	if got := a.BinFrequency(0); got != 0 {
		t.Errorf("BinFrequency(0) = %f, expected 0", got)
	}
	want := 44100.0 / 2048.0
	if got := a.BinFrequency(1); got < want-1e-9 || got > want+1e-9 {
		t.Errorf("BinFrequency(1) = %f, expected %f", got, want)
	}
	if got := a.BinFrequency(-1); got != 0 {
		t.Errorf("BinFrequency(-1) = %f, expected 0", got)
	}
	if got := a.BinFrequency(a.BinCount()); got != 0 {
		t.Errorf("BinFrequency(out of range) = %f, expected 0", got)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUninitialized, "uninitialized"},
		{StateInitializing, "initializing"},
		{StateReady, "ready"},
		{StateTornDown, "torndown"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, expected %q", tt.state, got, tt.want)
		}
	}
}

func BenchmarkSampleFrequencyDataInto(b *testing.B) {
	provider := &stubProvider{}
	a, err := New(provider, DefaultConfig())
	if err != nil {
		b.Fatalf("New() error: %v", err)
	}
	if err := a.Initialize(&stubSource{name: "bench"}); err != nil {
		b.Fatalf("Initialize() error: %v", err)
	}
	dst := make([]byte, a.BinCount())

	b.ReportAllocs()
	for b.Loop() {
		if _, err := a.SampleFrequencyDataInto(dst); err != nil {
			b.Fatal(err)
		}
	}
}
