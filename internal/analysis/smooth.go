package analysis

import "math"

// Smooth applies exponential smoothing along a snapshot and returns the
// result as a fresh slice; the input is never mutated. The recurrence
// runs over the bin axis of this one snapshot:
//
//	output[0] = input[0]
//	output[i] = round(output[i-1]*factor + input[i]*(1-factor))
//
// factor is clamped into [0,1]. factor 0 is the identity. factor 1
// freezes the whole series at input[0] — allowed, but a degenerate
// setting callers should not reach for. Pure: no previous-frame state
// is retained here; frame-to-frame smoothing is the capability's job.
func Smooth(snapshot []byte, factor float64) []byte {
	if factor < 0 {
		factor = 0
	} else if factor > 1 {
		factor = 1
	}

	out := make([]byte, len(snapshot))
	if len(snapshot) == 0 {
		return out
	}

	out[0] = snapshot[0]
	prev := float64(snapshot[0])
	for i := 1; i < len(snapshot); i++ {
		v := math.Round(prev*factor + float64(snapshot[i])*(1-factor))
		out[i] = byte(v)
		prev = v
	}
	return out
}
