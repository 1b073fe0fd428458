// Package cosine holds the distance metric shared by the vector index backends.
package cosine

import (
	"math"
	"sort"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Distance returns 1 - cos(a, b), in [0, 2].
// Vectors of different length, or with zero norm, are at distance 1.
func Distance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// Rank sorts hits by ascending distance, breaking ties by chunk ID, and
// keeps at most topK.
func Rank(hits []driven.VectorHit, topK int) []driven.VectorHit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if topK >= 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}
