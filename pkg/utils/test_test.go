// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"os"
	"testing"
)

const (
	testSize       = 1024
	testSampleRate = 44100
	testFrequency  = 440.0 // A4 note
)

var testSnapshot []byte

func TestMain(m *testing.M) {
	testSnapshot = make([]byte, testSize)

	// Create a peaked distribution with a known peak at testSize/4.
	for i := range testSnapshot {
		testSnapshot[i] = byte(255 * math.Exp(-0.01*math.Pow(float64(i-testSize/4), 2)))
	}

	os.Exit(m.Run())
}

func TestGenerateSineWave(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		sampleRate float64
		frequency  float64
	}{
		{"A4 Note", 1024, 44100, 440.0},
		{"Middle C", 1024, 44100, 261.63},
		{"High Sample Rate", 1024, 192000, 440.0},
		{"Low Sample Rate", 1024, 8000, 440.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GenerateSineWave(tt.size, tt.sampleRate, tt.frequency)

			if len(result) != tt.size {
				t.Errorf("GenerateSineWave() buffer size = %d, want %d",
					len(result), tt.size)
			}

			for i, v := range result {
				if math.Abs(v) > 0.9+1e-12 {
					t.Fatalf("GenerateSineWave()[%d] = %v, exceeds peak amplitude", i, v)
				}
			}

			// For a sine wave, samplesPerCycle = sampleRate / frequency.
			// Verify the signal crosses zero at roughly the right rate.
			samplesPerCycle := tt.sampleRate / tt.frequency

			if samplesPerCycle > 2 && float64(tt.size) > samplesPerCycle {
				crossCount := 0
				for i := 1; i < tt.size; i++ {
					if (result[i-1] < 0 && result[i] >= 0) ||
						(result[i-1] >= 0 && result[i] < 0) {
						crossCount++
					}
				}

				// Rough approximation of expected crossings (2 per cycle).
				expectedCrossings := float64(tt.size) / (samplesPerCycle / 2)
				// Allow 20% margin due to phase alignment and sampling.
				tolerance := 0.2 * expectedCrossings

				if math.Abs(float64(crossCount)-expectedCrossings) > tolerance {
					t.Errorf("GenerateSineWave() zero crossings = %d, expected approximately %.1f±%.1f",
						crossCount, expectedCrossings, tolerance)
				}
			}
		})
	}
}

func TestGenerateComplexWave(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		sampleRate float64
	}{
		{"Standard", 1024, 44100},
		{"Small", 16, 8000},
		{"Large", 8192, 96000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GenerateComplexWave(tt.size, tt.sampleRate)

			if len(result) != tt.size {
				t.Errorf("GenerateComplexWave() buffer size = %d, want %d",
					len(result), tt.size)
			}

			hasNonZero := false
			for _, v := range result {
				if math.Abs(v) > 1.0 {
					t.Fatalf("GenerateComplexWave() sample %v outside [-1,1]", v)
				}
				if v != 0 {
					hasNonZero = true
				}
			}

			if !hasNonZero {
				t.Errorf("GenerateComplexWave() produced all zeros")
			}
		})
	}
}

func TestGenerateSineWaveInt32(t *testing.T) {
	result := GenerateSineWaveInt32(testSize, testSampleRate, testFrequency)

	if len(result) != testSize {
		t.Fatalf("GenerateSineWaveInt32() buffer size = %d, want %d", len(result), testSize)
	}

	var peak int32
	for _, v := range result {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}

	// Peak should approach 0.9 of full scale without clipping.
	if peak < int32(0.8*math.MaxInt32) {
		t.Errorf("GenerateSineWaveInt32() peak = %d, want near 0.9 of full scale", peak)
	}
	if float64(peak) > 0.9*math.MaxInt32+1 {
		t.Errorf("GenerateSineWaveInt32() peak = %d, exceeds 0.9 of full scale", peak)
	}
}

func TestFindPeakBin(t *testing.T) {
	tests := []struct {
		name     string
		snapshot []byte
		start    int
		end      int
		expected int
	}{
		{"Full Range", testSnapshot, 0, testSize - 1, testSize / 4},
		{"Partial Range Start", testSnapshot, testSize / 8, testSize - 1, testSize / 4},
		{"Partial Range End", testSnapshot, 0, testSize / 3, testSize / 4},
		{"Negative Start", testSnapshot, -10, testSize - 1, testSize / 4},
		{"Out of Range End", testSnapshot, 0, testSize * 2, testSize / 4},
		{"Empty Slice", []byte{}, 0, 10, 0},
		{"Single Value", []byte{200}, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindPeakBin(tt.snapshot, tt.start, tt.end)

			if result != tt.expected {
				t.Errorf("FindPeakBin() = %d, want %d", result, tt.expected)
			}
		})
	}

	allocs := testing.AllocsPerRun(100, func() {
		FindPeakBin(testSnapshot, 0, len(testSnapshot)-1)
	})

	if allocs > 0 {
		t.Errorf("FindPeakBin allocated memory: got %.1f allocs, want 0", allocs)
	}
}

func BenchmarkGenerateSineWave(b *testing.B) {
	benchmarks := []struct {
		name string
		size int
	}{
		{"Small", 64},
		{"Standard", 1024},
		{"Large", 8192},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				GenerateSineWave(bm.size, testSampleRate, testFrequency)
			}
		})
	}
}

func BenchmarkFindPeakBin(b *testing.B) {
	benchmarks := []struct {
		name string
		size int
	}{
		{"Small", 64},
		{"Standard", 1024},
		{"Large", 8192},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			snapshot := make([]byte, bm.size)
			peakPos := bm.size / 2
			for i := range snapshot {
				snapshot[i] = byte(255 * math.Exp(-0.01*math.Pow(float64(i-peakPos), 2)))
			}

			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				FindPeakBin(snapshot, 0, bm.size-1)
			}
		})
	}
}
