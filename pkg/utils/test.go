package utils

import "math"

// GenerateSineWave produces size samples of a sine at frequency Hz in
// the engine's native [-1,1] float64 domain, peak amplitude 0.9.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*frequency*t) * 0.9
	}
	return buffer
}

// GenerateComplexWave produces a 440Hz fundamental with two weaker
// harmonics, useful when a test needs a spectrum with several peaks.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2 // 440Hz fundamental + harmonics
	}
	return buffer
}

// GenerateSineWaveInt32 is the capture-callback variant: the same sine
// scaled into the int32 sample domain PortAudio delivers.
func GenerateSineWaveInt32(size int, sampleRate, frequency float64) []int32 {
	buffer := make([]int32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = int32(math.Sin(2*math.Pi*frequency*t) * math.MaxInt32 * 0.9)
	}
	return buffer
}

// FindPeakBin returns the index of the largest value in
// snapshot[startBin..endBin]. Bounds are clamped; an empty snapshot
// yields 0.
func FindPeakBin(snapshot []byte, startBin, endBin int) int {
	if len(snapshot) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(snapshot) {
		endBin = len(snapshot) - 1
	}

	peakBin := startBin
	peakValue := snapshot[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if snapshot[bin] > peakValue {
			peakValue = snapshot[bin]
			peakBin = bin
		}
	}

	return peakBin
}
