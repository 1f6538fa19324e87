package alns

import "sort"

// ranks assigns 1-based ranks to v, ascending; ties share a rank.
func ranks(v []float64) []int {
	idx := sortIndices(v)
	out := make([]int, len(v))
	if len(v) == 0 {
		return out
	}
	rank := 1
	out[idx[0]] = rank
	prev := v[idx[0]]
	for i := 1; i < len(idx); i++ {
		cur := v[idx[i]]
		if cur != prev {
			rank++
		}
		out[idx[i]] = rank
		prev = cur
	}
	return out
}

// sortIndices returns the indices of v ordered by ascending value.
func sortIndices(v []float64) []int {
	idx := make([]int, len(v))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })
	return idx
}

// removeAt deletes the element at position i, preserving order.
func removeAt(v []int, i int) []int {
	return append(v[:i], v[i+1:]...)
}

func intRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
