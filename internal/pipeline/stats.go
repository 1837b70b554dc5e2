package pipeline

import (
	"math"
	"sort"
)

// ChunkLengthStats summarizes the chunk lengths, in runes, of a run.
type ChunkLengthStats struct {
	// Min is the smallest chunk length.
	Min int `json:"min"`
	// Max is the largest chunk length.
	Max int `json:"max"`
	// Mean is the mean chunk length, rounded to two decimal places.
	Mean float64 `json:"mean"`
	// P95 is the 95th percentile chunk length.
	P95 int `json:"p95"`
}

// computeLengthStats computes min, max, mean, and p95 from chunk lengths.
func computeLengthStats(lengths []int) ChunkLengthStats {
	if len(lengths) == 0 {
		return ChunkLengthStats{}
	}

	sorted := make([]int, len(lengths))
	copy(sorted, lengths)
	sort.Ints(sorted)

	sum := 0
	for _, n := range lengths {
		sum += n
	}
	mean := float64(sum) / float64(len(lengths))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkLengthStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
