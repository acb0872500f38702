// SPDX-License-Identifier: MIT
package analysis

// SignalSource is a handle to a live mono signal. Implementations are
// pull-based: the capability asks for the most recent window whenever
// the analyzer samples, so sources just have to keep a rolling buffer
// current.
type SignalSource interface {
	// Window copies the most recent len(dst) samples into dst in
	// chronological order (oldest first) and returns how many samples
	// were actually available. Underfilled sources leave the leading
	// part of dst zeroed. Must not block.
	Window(dst []float64) int
}

// Capability is the realtime frequency/time-domain analysis handle the
// analyzer drives. One capability is acquired per Initialize and
// released exactly once on Teardown. Implementations must be
// synchronous, must not block, and must never call back into the
// analyzer that is driving them.
type Capability interface {
	// FrequencyData fills dst with the current byte-quantized magnitude
	// spectrum (one value per bin, 0..255) and returns the count
	// written. dst has room for the full bin count.
	FrequencyData(dst []byte) int

	// TimeDomainData fills dst with the current byte-quantized waveform
	// window (128 = zero amplitude) and returns the count written.
	TimeDomainData(dst []byte) int

	// Release frees whatever the capability holds. Idempotent.
	Release()
}

// Provider acquires analysis capabilities. Injecting it keeps the
// analyzer free of any concrete transform implementation and makes the
// whole engine trivially mockable: tests hand in a stub provider, the
// production wiring hands in the spectral one.
type Provider interface {
	// Acquire binds a capability to the given source with the given
	// geometry. Called exactly once per successful Initialize. A nil
	// source is rejected before Acquire is ever reached.
	Acquire(src SignalSource, cfg Config) (Capability, error)
}
