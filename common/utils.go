package common

// Coalesce returns the first value that is not the zero value of T. Option fields left unset are
// resolved to their defaults this way.
//
// Parameters:
//   - values: candidates in priority order, usually the configured value then the default
//
// Returns:
//   - T: the first non-zero candidate, or the zero value if every candidate is zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// CeilDiv returns n / d rounded up. d must be positive.
//
// Parameters:
//   - n: the dividend (non-negative)
//   - d: the divisor
//
// Returns:
//   - int: the rounded-up quotient
func CeilDiv(n, d int) int {
	return (n + d - 1) / d
}
