package analysis

// Band selects which region of a frequency snapshot BandEnergy reduces.
// Bands are positional fractions of the bin axis, not Hz ranges, so the
// split is independent of sample rate and transform size.
type Band int

const (
	BandBass    Band = iota // First 10% of bins.
	BandMid                 // Between bass and treble: 10%..70%.
	BandTreble              // Top 30% of bins: index >= 70% of length.
	BandAverage             // All bins.
)

// String returns the band name used in logs and wire frames.
func (b Band) String() string {
	switch b {
	case BandBass:
		return "bass"
	case BandMid:
		return "mid"
	case BandTreble:
		return "treble"
	case BandAverage:
		return "average"
	default:
		return "unknown"
	}
}

// Fractions of the bin axis where the positional bands begin and end.
const (
	bassUpperFrac   = 0.1
	trebleLowerFrac = 0.7
)

// BandEnergy reduces a frequency snapshot to one scalar in [0,1]: the
// arithmetic mean of the band's bins divided by 255. Deterministic, no
// hidden state. A zero-length snapshot (or a band whose index range is
// empty at this snapshot length) yields 0, never an error, so callers
// polling a not-yet-ready analyzer read silence rather than crashing.
func BandEnergy(snapshot []byte, band Band) float64 {
	n := len(snapshot)
	if n == 0 {
		return 0
	}

	var lo, hi int
	switch band {
	case BandBass:
		lo, hi = 0, int(float64(n)*bassUpperFrac)
	case BandMid:
		lo, hi = int(float64(n)*bassUpperFrac), int(float64(n)*trebleLowerFrac)
	case BandTreble:
		lo, hi = int(float64(n)*trebleLowerFrac), n
	case BandAverage:
		lo, hi = 0, n
	default:
		return 0
	}
	if hi <= lo {
		return 0
	}

	var sum float64
	for _, v := range snapshot[lo:hi] {
		sum += float64(v)
	}
	return sum / float64(hi-lo) / 255.0
}

// BandEnergies carries all four band reductions of one snapshot.
type BandEnergies struct {
	Bass    float64 `json:"bass"`
	Mid     float64 `json:"mid"`
	Treble  float64 `json:"treble"`
	Average float64 `json:"average"`
}

// Energies computes all four bands in a single pass over the snapshot.
// Equivalent to four BandEnergy calls, one scan instead of four.
func Energies(snapshot []byte) BandEnergies {
	n := len(snapshot)
	if n == 0 {
		return BandEnergies{}
	}

	bassHi := int(float64(n) * bassUpperFrac)
	trebleLo := int(float64(n) * trebleLowerFrac)

	var bassSum, midSum, trebleSum, total float64
	for i, v := range snapshot {
		f := float64(v)
		total += f
		switch {
		case i < bassHi:
			bassSum += f
		case i >= trebleLo:
			trebleSum += f
		default:
			midSum += f
		}
	}

	var out BandEnergies
	if bassHi > 0 {
		out.Bass = bassSum / float64(bassHi) / 255.0
	}
	if trebleLo < n {
		out.Treble = trebleSum / float64(n-trebleLo) / 255.0
	}
	if trebleLo > bassHi {
		out.Mid = midSum / float64(trebleLo-bassHi) / 255.0
	}
	out.Average = total / float64(n) / 255.0
	return out
}
