package quiz

import "math/rand"

// Shuffle permutes s in place using Fisher-Yates. Empty and singleton slices
// are left untouched. The caller supplies the rand source so ordering is
// reproducible in tests.
func Shuffle[T any](rnd *rand.Rand, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
