package quiz_test

import (
	"math/rand"
	"testing"

	"timed-quiz-service/internal/quiz"
)

func TestShuffleIsPermutation(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for _, k := range []int{2, 3, 5, 8, 13, 50} {
		s := make([]int, k)
		for i := range s {
			s[i] = i
		}
		quiz.Shuffle(rnd, s)

		seen := make(map[int]bool, k)
		for _, v := range s {
			if v < 0 || v >= k {
				t.Fatalf("k=%d: foreign element %d", k, v)
			}
			if seen[v] {
				t.Fatalf("k=%d: duplicate element %d", k, v)
			}
			seen[v] = true
		}
		if len(seen) != k {
			t.Fatalf("k=%d: expected %d distinct elements, got %d", k, k, len(seen))
		}
	}
}

func TestShuffleNoOpForSmallSlices(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))

	var empty []string
	quiz.Shuffle(rnd, empty)
	if len(empty) != 0 {
		t.Fatalf("expected empty slice untouched")
	}

	single := []string{"only"}
	quiz.Shuffle(rnd, single)
	if single[0] != "only" {
		t.Fatalf("expected singleton untouched, got %v", single)
	}
}

func TestShuffleEventuallyReorders(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	moved := false
	for attempt := 0; attempt < 20 && !moved; attempt++ {
		s := []int{0, 1, 2, 3, 4, 5}
		quiz.Shuffle(rnd, s)
		for i, v := range s {
			if i != v {
				moved = true
				break
			}
		}
	}
	if !moved {
		t.Fatalf("shuffle never changed the order across 20 attempts")
	}
}
