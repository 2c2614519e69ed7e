package sample

// DownsampleReadings decimates readings to at most maxPoints for display.
// dst is reused when it has enough capacity.
func DownsampleReadings(dst []Reading, readings []Reading, maxPoints int) []Reading {
	return Downsample(dst, readings, maxPoints)
}

// Downsample picks at most maxPoints evenly spaced elements of src,
// appending them to dst[:0].
func Downsample[T any](dst, src []T, maxPoints int) []T {
	n := min(len(src), maxPoints)
	if cap(dst) >= n {
		dst = dst[:0]
	} else {
		dst = make([]T, 0, n)
	}

	if len(src) <= maxPoints {
		return append(dst, src...)
	}

	step := float64(len(src)) / float64(maxPoints)
	for i := range maxPoints {
		dst = append(dst, src[int(float64(i)*step)])
	}
	return dst
}
