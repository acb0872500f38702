// SPDX-License-Identifier: MIT

// Package transport fans analysis frames out to render clients. The
// publisher samples the engine on a fixed interval and hands one frame
// to every configured sink; sinks are one-way and lossy, a slow
// consumer costs frames, never latency.
package transport

// Transport is a fan-out sink for analysis frames. Implementations
// must be safe for concurrent use and must not block the caller.
type Transport interface {
	Send(frame *Frame) error
	Close() error
}

// Sampler is the slice of the analysis engine the publisher reads.
// Decoupling it from the concrete analyzer keeps sinks and publisher
// testable with stubs.
type Sampler interface {
	// SampleFrequencyDataInto fills dst with the current spectrum and
	// returns the count written; (0, nil) means not ready yet.
	SampleFrequencyDataInto(dst []byte) (int, error)

	// BinCount reports the spectrum length the sampler produces.
	BinCount() int
}

// Frame is one published analysis snapshot. Spectrum is the
// byte-quantized magnitude spectrum; in JSON it serializes as base64.
type Frame struct {
	Seq       uint32  `json:"seq"`
	Timestamp int64   `json:"timestamp_ns"`
	Bass      float64 `json:"bass"`
	Mid       float64 `json:"mid"`
	Treble    float64 `json:"treble"`
	Average   float64 `json:"average"`
	Level     float64 `json:"level"`
	Spectrum  []byte  `json:"spectrum"`
}
