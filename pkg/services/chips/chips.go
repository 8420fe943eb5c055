// Package chips converts bet amounts to chip-denomination breakdowns and
// back. It is a display/affordance helper independent of the game rules.
package chips

// Denominations holds the chip values in play, ascending.
var Denominations = []int{1, 5, 10, 25, 50, 100, 500, 1000}

// AmountToChips breaks an amount into chips, greedily assigning the
// largest denomination first. The greedy split is exact for this
// denomination set; it is not guaranteed minimal for arbitrary sets.
func AmountToChips(amount int) map[int]int {
	counts := make(map[int]int, len(Denominations))
	for _, denom := range Denominations {
		counts[denom] = 0
	}

	remaining := amount
	for i := len(Denominations) - 1; i >= 0; i-- {
		denom := Denominations[i]
		counts[denom] = remaining / denom
		remaining -= counts[denom] * denom
	}
	return counts
}

// ChipsToAmount sums a chip breakdown back into an amount. It is the
// exact inverse of AmountToChips for any amount the composer produces.
func ChipsToAmount(counts map[int]int) int {
	total := 0
	for denom, count := range counts {
		total += denom * count
	}
	return total
}

// Stack tracks the chips composing the bet under construction.
type Stack struct {
	counts map[int]int
}

// NewStack creates an empty chip stack.
func NewStack() *Stack {
	s := &Stack{counts: make(map[int]int, len(Denominations))}
	s.Reset()
	return s
}

// Add places one chip of the given denomination on the stack.
func (s *Stack) Add(denom int) {
	s.counts[denom]++
}

// Remove takes one chip of the given denomination off the stack, if any.
func (s *Stack) Remove(denom int) {
	if s.counts[denom] > 0 {
		s.counts[denom]--
	}
}

// Reset clears the stack.
func (s *Stack) Reset() {
	for _, denom := range Denominations {
		s.counts[denom] = 0
	}
}

// SetAmount replaces the stack with the greedy breakdown of amount.
func (s *Stack) SetAmount(amount int) {
	s.counts = AmountToChips(amount)
}

// Amount returns the total value of the stack.
func (s *Stack) Amount() int {
	return ChipsToAmount(s.counts)
}

// Counts returns a copy of the per-denomination chip counts.
func (s *Stack) Counts() map[int]int {
	out := make(map[int]int, len(s.counts))
	for denom, count := range s.counts {
		out[denom] = count
	}
	return out
}
