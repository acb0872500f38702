// SPDX-License-Identifier: MIT
package decode

import (
	"fmt"
	"os"

	"github.com/gopxl/beep/v2/mp3"
)

// streamChunk is the per-read frame count while draining the decoder.
const streamChunk = 4096

// MP3 decodes an MP3 file into a mono Clip by streaming the whole
// track through the decoder and averaging the stereo pair.
func MP3(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode: open %s: %w", path, err)
	}
	defer f.Close()

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: read mp3 %s: %w", path, err)
	}
	defer streamer.Close()

	samples := make([]float64, 0, streamer.Len())
	frame := make([][2]float64, streamChunk)
	for {
		n, ok := streamer.Stream(frame)
		for i := 0; i < n; i++ {
			samples = append(samples, (frame[i][0]+frame[i][1])/2)
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("decode: stream mp3 %s: %w", path, err)
	}

	return &Clip{
		Samples:    samples,
		SampleRate: float64(format.SampleRate),
		Channels:   format.NumChannels,
	}, nil
}
