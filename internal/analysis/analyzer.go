// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"sync"

	applog "audioviz/internal/log"
)

// State tracks where an analyzer is in its lifecycle.
type State uint32

const (
	StateUninitialized State = iota // Created, nothing acquired yet.
	StateInitializing               // Acquire in flight.
	StateReady                      // Live; sampling returns data.
	StateTornDown                   // Terminal; sampling returns empty.
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateTornDown:
		return "torndown"
	default:
		return "unknown"
	}
}

// Analyzer wraps a realtime analysis capability behind a small state
// machine and exposes pull-based, UI-ready snapshots. It owns two
// preallocated snapshot buffers for its whole lifetime; callers only
// ever see defensive copies, so a retained snapshot can never alias the
// next sampling tick. All operations are synchronous and cheap enough
// to sit directly on a render loop.
//
// Lifecycle: Uninitialized -> Initializing -> Ready -> TornDown.
// Ready is the only state that yields live data; every sampling call in
// any other state returns an empty result instead of an error. TornDown
// is terminal.
type Analyzer struct {
	provider Provider // Injected capability factory. Immutable.
	cfg      Config   // Validated at construction. Immutable.

	mu         sync.RWMutex // Guards everything below.
	state      State
	source     SignalSource // Bound source while Ready.
	capability Capability   // Acquired capability while Ready.
	freqBuf    []byte       // Preallocated, len cfg.BinCount().
	timeBuf    []byte       // Preallocated, len cfg.TransformSize.
}

// Package-level registry of live source bindings. Exactly one analyzer
// may be bound to a given source at a time; a second claim fails fast
// with ErrAlreadyBound instead of producing two capabilities fighting
// over one signal.
var (
	bindMu sync.Mutex
	bound  = make(map[SignalSource]*Analyzer)
)

func claimSource(src SignalSource, a *Analyzer) error {
	bindMu.Lock()
	defer bindMu.Unlock()
	if owner, taken := bound[src]; taken && owner != a {
		return fmt.Errorf("%w: signal source is bound to another analyzer", ErrAlreadyBound)
	}
	bound[src] = a
	return nil
}

func releaseSource(src SignalSource, a *Analyzer) {
	bindMu.Lock()
	defer bindMu.Unlock()
	if owner, taken := bound[src]; taken && owner == a {
		delete(bound, src)
	}
}

// New validates cfg and returns an Uninitialized analyzer. Nothing is
// acquired or allocated yet; that happens in Initialize. Invalid
// configuration (and a nil provider) fails with ErrConfig.
func New(provider Provider, cfg Config) (*Analyzer, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: capability provider must not be nil", ErrConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	applog.Debugf("Analyzer: created (transform: %d, smoothing: %.2f, rate: %.1f Hz)",
		cfg.TransformSize, cfg.SmoothingFactor, cfg.SampleRate)

	return &Analyzer{
		provider: provider,
		cfg:      cfg,
		state:    StateUninitialized,
	}, nil
}

// Initialize binds the analyzer to src, acquires the capability from
// the injected provider, and allocates both snapshot buffers.
//
// Contract details:
//   - Re-initializing a Ready analyzer with the same source is a no-op
//     returning nil, so callers may safely re-run their setup path.
//   - A Ready analyzer refuses a different source with ErrAlreadyBound,
//     as does binding a source that another analyzer holds live.
//   - Acquisition failure logs once, returns ErrInitialization, and
//     leaves the analyzer Uninitialized so the caller may retry later
//     (for example once the source actually has data).
//   - A torn-down analyzer cannot be revived; ErrInitialization.
func (a *Analyzer) Initialize(src SignalSource) error {
	if src == nil {
		return fmt.Errorf("%w: signal source must not be nil", ErrInitialization)
	}

	a.mu.Lock()
	switch a.state {
	case StateTornDown:
		a.mu.Unlock()
		return fmt.Errorf("%w: analyzer is torn down", ErrInitialization)
	case StateReady:
		same := a.source == src
		a.mu.Unlock()
		if same {
			return nil
		}
		return fmt.Errorf("%w: analyzer is bound to a different source", ErrAlreadyBound)
	case StateInitializing:
		a.mu.Unlock()
		return fmt.Errorf("%w: initialization already in progress", ErrInitialization)
	}
	a.state = StateInitializing
	a.mu.Unlock()

	// Claim the source before touching the provider so a losing racer
	// never acquires a capability it would immediately have to release.
	if err := claimSource(src, a); err != nil {
		a.mu.Lock()
		a.state = StateUninitialized
		a.mu.Unlock()
		return err
	}

	// Provider code runs outside the lock: it is injected, and nothing
	// user-supplied may ever run while the analyzer lock is held.
	capability, err := a.provider.Acquire(src, a.cfg)
	if err != nil {
		releaseSource(src, a)
		a.mu.Lock()
		a.state = StateUninitialized
		a.mu.Unlock()
		applog.Errorf("Analyzer: capability acquisition failed: %v", err)
		return fmt.Errorf("%w: %v", ErrInitialization, err)
	}

	a.mu.Lock()
	if a.state != StateInitializing {
		// Torn down while acquiring. Back out completely.
		a.mu.Unlock()
		capability.Release()
		releaseSource(src, a)
		return fmt.Errorf("%w: analyzer torn down during initialization", ErrInitialization)
	}
	a.source = src
	a.capability = capability
	a.freqBuf = make([]byte, a.cfg.BinCount())
	a.timeBuf = make([]byte, a.cfg.TransformSize)
	a.state = StateReady
	a.mu.Unlock()

	applog.Infof("Analyzer: ready (bins: %d, window: %d samples)", a.cfg.BinCount(), a.cfg.TransformSize)
	return nil
}

// SampleFrequencyData returns the current magnitude spectrum as a fresh
// slice of cfg.BinCount() bytes. Outside Ready it returns an empty
// result, never an error; a polling loop that races setup or teardown
// just draws nothing for a frame.
func (a *Analyzer) SampleFrequencyData() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateReady {
		return nil
	}

	n := a.capability.FrequencyData(a.freqBuf)
	out := make([]byte, n)
	copy(out, a.freqBuf[:n])
	return out
}

// SampleFrequencyDataInto copies the current magnitude spectrum into
// dest without allocating, for hot readers like the UDP publisher.
// dest must be exactly cfg.BinCount() long. Outside Ready it writes
// nothing and returns 0, nil.
func (a *Analyzer) SampleFrequencyDataInto(dest []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateReady {
		return 0, nil
	}
	if len(dest) != len(a.freqBuf) {
		return 0, fmt.Errorf("destination length %d does not match bin count %d", len(dest), len(a.freqBuf))
	}

	n := a.capability.FrequencyData(a.freqBuf)
	copy(dest[:n], a.freqBuf[:n])
	return n, nil
}

// SampleTimeDomainData returns the current waveform window as a fresh
// slice of cfg.TransformSize bytes, 128 meaning zero amplitude. Same
// degraded contract as SampleFrequencyData outside Ready.
func (a *Analyzer) SampleTimeDomainData() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateReady {
		return nil
	}

	n := a.capability.TimeDomainData(a.timeBuf)
	out := make([]byte, n)
	copy(out, a.timeBuf[:n])
	return out
}

// SampleTimeDomainDataInto is the allocation-free variant of
// SampleTimeDomainData. dest must be exactly cfg.TransformSize long.
func (a *Analyzer) SampleTimeDomainDataInto(dest []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateReady {
		return 0, nil
	}
	if len(dest) != len(a.timeBuf) {
		return 0, fmt.Errorf("destination length %d does not match window size %d", len(dest), len(a.timeBuf))
	}

	n := a.capability.TimeDomainData(a.timeBuf)
	copy(dest[:n], a.timeBuf[:n])
	return n, nil
}

// Teardown releases the capability and the source binding and moves the
// analyzer to its terminal state. Idempotent: only the first call
// releases anything. Buffers are invalidated under the lock before the
// capability is released outside it, so a final poll interleaved with
// teardown sees either the full old state or the empty new one, never
// a half-cleared analyzer.
func (a *Analyzer) Teardown() {
	a.mu.Lock()
	if a.state == StateTornDown {
		a.mu.Unlock()
		return
	}
	capability := a.capability
	src := a.source
	a.capability = nil
	a.source = nil
	a.freqBuf = nil
	a.timeBuf = nil
	a.state = StateTornDown
	a.mu.Unlock()

	if src != nil {
		releaseSource(src, a)
	}
	if capability != nil {
		capability.Release()
	}
	applog.Debugf("Analyzer: torn down")
}

// State returns the current lifecycle state.
func (a *Analyzer) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Config returns the immutable configuration the analyzer was built with.
func (a *Analyzer) Config() Config {
	return a.cfg // Immutable after creation, no lock needed.
}

// BinCount returns the number of bins a frequency snapshot carries.
func (a *Analyzer) BinCount() int {
	return a.cfg.BinCount() // Immutable after creation, no lock needed.
}

// BinFrequency returns the center frequency (Hz) for a frequency bin
// index, or 0 for an out-of-range index.
func (a *Analyzer) BinFrequency(binIndex int) float64 {
	if binIndex < 0 || binIndex >= a.cfg.BinCount() {
		return 0.0
	}
	// Frequency resolution = sampleRate / transformSize.
	return float64(binIndex) * (a.cfg.SampleRate / float64(a.cfg.TransformSize))
}
