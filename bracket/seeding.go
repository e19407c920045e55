package bracket

import "piqle_tournament/models"

// nextPow2 rounds n up to a power of two.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// BracketPairs returns the round 1 seed pairs for a bracket of the given size,
// top to bottom in standard tournament order (1 vs S, then the 8/9 quarter...).
//
// The seed order is built by doubling [1] until it covers the next power of
// two, each seed a followed by its partner len*2+1-a. Every seed is then paired
// with its mirror. Pairs where both seeds exceed size are dropped, which keeps
// non power of two sizes usable.
func BracketPairs(size int) [][2]int {
	if size <= 1 {
		return nil
	}
	full := nextPow2(size)

	order := []int{1}
	for len(order)*2 < full {
		s := len(order) * 2
		next := make([]int, 0, s)
		for _, a := range order {
			next = append(next, a, s+1-a)
		}
		order = next
	}

	pairs := make([][2]int, 0, len(order))
	for _, a := range order {
		b := full + 1 - a
		if a > size && b > size {
			continue
		}
		pairs = append(pairs, [2]int{a, b})
	}
	return pairs
}

// slotPosition maps a bracket seed to its round 1 position and side.
func slotPosition(size int) map[int]slotRef {
	refs := make(map[int]slotRef, size)
	for pos, p := range BracketPairs(size) {
		lo, hi := p[0], p[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		refs[lo] = slotRef{position: pos, side: models.SideA}
		refs[hi] = slotRef{position: pos, side: models.SideB}
	}
	return refs
}

type slotRef struct {
	position int
	side     models.Side
}
