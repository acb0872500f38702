// SPDX-License-Identifier: MIT
package spectral

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the tapering window applied before the transform.
type WindowFunc int

const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	BlackmanHarris
	Nuttall
	FlatTop
	Rectangular
)

// String returns the canonical config-file name of the window.
func (w WindowFunc) String() string {
	switch w {
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Blackman:
		return "blackman"
	case BlackmanHarris:
		return "blackmanharris"
	case Nuttall:
		return "nuttall"
	case FlatTop:
		return "flattop"
	case Rectangular:
		return "rect"
	default:
		return "unknown"
	}
}

// ParseWindowFunc converts a string name (case-insensitive) to a
// WindowFunc, returning the Hann default and an error if the name is
// unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hann", "hanning", "":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackmanharris":
		return BlackmanHarris, nil
	case "nuttall":
		return Nuttall, nil
	case "flattop":
		return FlatTop, nil
	case "rect", "rectangular":
		return Rectangular, nil
	default:
		return Hann, fmt.Errorf("unknown window function name: %q", name)
	}
}

// coefficients precalculates the window curve for an n-sample frame.
// The slice starts at 1.0 everywhere because the window funcs multiply
// in place; an uninitialized slice would zero the whole curve.
func coefficients(n int, w WindowFunc) []float64 {
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch w {
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanHarris:
		window.BlackmanHarris(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	case FlatTop:
		window.FlatTop(coeffs)
	case Rectangular:
		window.Rectangular(coeffs)
	default:
		window.Hann(coeffs)
	}
	return coeffs
}
