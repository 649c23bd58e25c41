package rerankers

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"empchat/internal/rag/interfaces"
	"empchat/internal/rag/schema"
)

const (
	// floorDate is the fixed lower bound of the recency normalization,
	// 2000-01-01 as YYYYMMDD. Documents dated before it (and documents
	// with unparseable dates, which map to 0) get a negative normalized
	// value; there is no clamping.
	floorDate = 20000101

	// topN is the number of reranked documents returned.
	topN = 5

	// dateDigits is the number of digits that make up a YYYYMMDD date.
	dateDigits = 8
)

// RecencyReranker blends each document's similarity score with a recency
// signal parsed from its source file name. Canonical file names have the
// form "{seq}-{YYYYMMDD}.pdf", so the date is the first run of digits after
// the first '-'.
type RecencyReranker struct {
	now func() time.Time
}

// NewRecencyReranker creates a new RecencyReranker.
func NewRecencyReranker() *RecencyReranker {
	return &RecencyReranker{now: time.Now}
}

// Rerank computes weighted scores for the scored documents and returns the
// top 5 by weighted score, descending. With recencyWeight 0 the result is
// ordered purely by similarity, with 1 purely by recency. The sort is stable:
// documents with equal weighted scores keep their input order. The input
// slice is not modified.
func (r *RecencyReranker) Rerank(scored []*schema.ScoredDocument, recencyWeight float64) []*schema.ScoredDocument {
	maxDate := r.todayNumeric()

	reranked := make([]*schema.ScoredDocument, 0, len(scored))
	for _, sd := range scored {
		numericDate := sourceDate(sd.Document.Source())
		normalized := float64(numericDate-floorDate) / float64(maxDate-floorDate)

		reranked = append(reranked, &schema.ScoredDocument{
			Document:      sd.Document,
			Score:         sd.Score,
			WeightedScore: (1-recencyWeight)*sd.Score + recencyWeight*normalized,
		})
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].WeightedScore > reranked[j].WeightedScore
	})

	if len(reranked) > topN {
		reranked = reranked[:topN]
	}
	return reranked
}

// todayNumeric returns today's date as a YYYYMMDD integer.
func (r *RecencyReranker) todayNumeric() int {
	n, _ := strconv.Atoi(r.now().Format("20060102"))
	return n
}

// sourceDate extracts the document date from a source file name: the digits
// following the first '-', truncated to 8. When the name has no '-' the whole
// string is scanned. Fewer than 8 digits, or a non-positive value, yields 0.
func sourceDate(source string) int {
	start := strings.Index(source, "-") + 1
	var digits []rune
	for _, c := range source[start:] {
		if c >= '0' && c <= '9' {
			digits = append(digits, c)
			if len(digits) == dateDigits {
				break
			}
		}
	}
	if len(digits) < dateDigits {
		return 0
	}

	n, err := strconv.Atoi(string(digits))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// compile-time check to ensure RecencyReranker implements the Reranker interface
var _ interfaces.Reranker = (*RecencyReranker)(nil)
