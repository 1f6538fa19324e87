package alns

// Wheel is the adaptive roulette wheel over one operator family. Each
// operator carries a weight used for selection, plus a score/use-count
// pair accumulated between periodic weight updates.
type Wheel struct {
	parameter    float64 // share of the new observation in the EMA
	memoryLength int
	minWeight    float64

	weights []float64
	scores  []float64
	uses    []int
	last    int
}

func NewWheel(n int, parameter float64, memoryLength int, minWeight float64) *Wheel {
	w := &Wheel{
		parameter:    parameter,
		memoryLength: memoryLength,
		minWeight:    minWeight,
		weights:      make([]float64, n),
		scores:       make([]float64, n),
		uses:         make([]int, n),
	}
	for i := range w.weights {
		w.weights[i] = 1 / float64(n)
	}
	return w
}

// Select draws an operator id proportionally to the current weights and
// remembers it as the target for the next UpdateScore.
func (w *Wheel) Select(rng *Rand) int {
	sum := 0.0
	for _, weight := range w.weights {
		sum += weight
	}
	r := rng.Uni() * sum

	acc := 0.0
	for i, weight := range w.weights {
		acc += weight
		if r <= acc {
			w.last = i
			return i
		}
	}
	// floating point spill: the last positive weight wins
	w.last = len(w.weights) - 1
	return w.last
}

// UpdateScore credits the most recently selected operator.
func (w *Wheel) UpdateScore(reward float64) {
	w.uses[w.last]++
	w.scores[w.last] += reward
}

// UpdateWeights folds the accumulated scores into the weights with an
// exponential moving average and resets the accumulators. Weights are
// clamped from below so a momentarily bad operator is never starved out
// of the wheel entirely.
func (w *Wheel) UpdateWeights() {
	for i := range w.weights {
		if w.uses[i] > 0 {
			weight := w.parameter*(w.scores[i]/float64(w.uses[i])) + (1-w.parameter)*w.weights[i]
			if weight < w.minWeight {
				weight = w.minWeight
			}
			w.weights[i] = weight
		} else {
			w.weights[i] = w.minWeight
		}
		w.scores[i] = 0
		w.uses[i] = 0
	}
}

// Weights returns a copy of the current weights, mostly for reporting.
func (w *Wheel) Weights() []float64 {
	return append([]float64(nil), w.weights...)
}
