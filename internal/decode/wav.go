// SPDX-License-Identifier: MIT
package decode

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// WAV decodes a PCM WAV file into a mono Clip. Multi-channel files are
// downmixed by averaging all channels per frame.
func WAV(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode: open %s: %w", path, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode: read wav %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("decode: wav %s: no PCM data", path)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("decode: wav %s: invalid channel count %d", path, channels)
	}

	bitDepth := int(d.BitDepth)
	if bitDepth == 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("decode: wav %s: unsupported bit depth %d", path, bitDepth)
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch]) / scale
		}
		samples[i] = sum / float64(channels)
	}

	return &Clip{
		Samples:    samples,
		SampleRate: float64(buf.Format.SampleRate),
		Channels:   channels,
	}, nil
}
