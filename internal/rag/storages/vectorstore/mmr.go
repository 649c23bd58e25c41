package vectorstore

import "math"

// cosineSimilarity computes the cosine similarity between two vectors.
// Mismatched lengths are compared over the shorter prefix; zero vectors
// yield 0.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// mmrSelect re-selects topK results from a candidate pool by maximal
// marginal relevance: each round picks the candidate maximizing
// lambda*sim(query, cand) - (1-lambda)*max(sim(cand, selected)). lambda 1
// reduces to pure relevance, lambda 0 to pure diversity. Returned indices
// are in selection order.
func mmrSelect(query []float32, vectors [][]float32, topK int, lambda float64) []int {
	if topK > len(vectors) {
		topK = len(vectors)
	}

	relevance := make([]float64, len(vectors))
	for i, v := range vectors {
		relevance[i] = cosineSimilarity(query, v)
	}

	selected := make([]int, 0, topK)
	used := make([]bool, len(vectors))

	for len(selected) < topK {
		best := -1
		bestScore := math.Inf(-1)

		for i := range vectors {
			if used[i] {
				continue
			}

			redundancy := 0.0
			for _, j := range selected {
				if sim := cosineSimilarity(vectors[i], vectors[j]); sim > redundancy {
					redundancy = sim
				}
			}

			score := lambda*relevance[i] - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				best = i
			}
		}

		if best < 0 {
			break
		}
		used[best] = true
		selected = append(selected, best)
	}

	return selected
}
