/*
Package bitint provides the power-of-2 helpers used for spectrum
transform and buffer sizing. Spectral transforms only accept
power-of-2 window lengths, so both configuration validation and
workspace allocation route through this package.

Design Principles:
- Zero Allocations: All operations use stack memory only
- Predictable Performance: O(1) constant time operations
- Real-Time Safe: No locks, syscalls, or blocking operations

Usage:

	// Validate a configured transform size
	ok := bitint.IsPowerOfTwo(transformSize)

	// Round a requested buffer length up for the transform
	n := bitint.NextPowerOfTwo(1000) // Returns 1024
*/
package bitint

import "math/bits"

// IsPowerOfTwo reports whether n is a power of 2.
// The expression (n & (n-1)) == 0 works because:
//   - Powers of 2 have exactly one bit set
//   - Subtracting 1 from a power of 2 sets all lower bits
//   - AND operation will be 0 only for powers of 2
//
// Examples:
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
//	-8     false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// NextPowerOfTwo returns the next power of 2 >= size. Powers of 2 are
// preserved; everything else rounds up.
//
// The subtraction (size-1) is what preserves exact powers of 2: for
// input 8, bits.Len64(7) = 3 and 1<<3 = 8, while without it
// bits.Len64(8) = 4 would double the input to 16.
//
// Examples:
//
//	Input  Output  Explanation
//	4      4      Already power of 2 (preserved)
//	5      8      Next power after 5
//	0      1      Handle zero case
//	-1     1      Handle negative case
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}

	// 64-bit platforms (where int is 64-bit)
	if ^uint(0)>>63 == 0 {
		return int(1 << (bits.Len64(uint64(size - 1))))
	}

	// 32-bit platforms
	return int(1 << (bits.Len32(uint32(size - 1))))
}
