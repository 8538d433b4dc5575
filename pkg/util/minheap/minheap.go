// Package minheap implements a slice-backed binary min-heap used to find
// the n-th largest node value when pruning trees to a node budget.
package minheap

func Push(h []float64, x float64) []float64 {
	h = append(h, x)
	i := len(h) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if h[parent] <= h[i] {
			break
		}
		h[parent], h[i] = h[i], h[parent]
		i = parent
	}
	return h
}

func Pop(h []float64) []float64 {
	n := len(h) - 1
	h[0] = h[n]
	h = h[:n]
	i := 0
	for {
		smallest := i
		if l := 2*i + 1; l < n && h[l] < h[smallest] {
			smallest = l
		}
		if r := 2*i + 2; r < n && h[r] < h[smallest] {
			smallest = r
		}
		if smallest == i {
			return h
		}
		h[i], h[smallest] = h[smallest], h[i]
		i = smallest
	}
}
