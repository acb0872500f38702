package waveform

import "fmt"

// Thumbnail is the serializable preview of one decoded track: the
// normalized envelope plus enough metadata for a renderer to scale it.
type Thumbnail struct {
	Peaks      []float64 `json:"peaks"`
	BlockCount int       `json:"block_count"`
	SampleRate int       `json:"sample_rate"`
	Duration   float64   `json:"duration_seconds"`
}

// NewThumbnail summarizes samples and wraps the envelope with metadata.
// sampleRate is only used for the duration field; it must be positive.
func NewThumbnail(samples []float64, sampleRate, blockCount int) (*Thumbnail, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("waveform: sample rate must be positive, got %d", sampleRate)
	}

	peaks, err := Summarize(samples, blockCount)
	if err != nil {
		return nil, err
	}

	return &Thumbnail{
		Peaks:      peaks,
		BlockCount: blockCount,
		SampleRate: sampleRate,
		Duration:   float64(len(samples)) / float64(sampleRate),
	}, nil
}
