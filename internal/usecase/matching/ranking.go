package matching

import (
	"container/heap"
	"slices"
	"strings"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
)

// better orders results by score descending, then user ID ascending.
func better(a, b *domain.MatchResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.UserID < b.UserID
}

// resultHeap keeps the worst retained result at the root.
type resultHeap []domain.MatchResult

func (h resultHeap) Len() int           { return len(h) }
func (h resultHeap) Less(i, j int) bool { return better(&h[j], &h[i]) }
func (h resultHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *resultHeap) Push(x any) { *h = append(*h, x.(domain.MatchResult)) }

func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topK retains the best limit results seen so far.
type topK struct {
	limit int
	h     resultHeap
}

func newTopK(limit int) *topK {
	return &topK{limit: limit, h: make(resultHeap, 0, limit)}
}

func (t *topK) offer(r domain.MatchResult) {
	if t.limit <= 0 {
		return
	}
	if len(t.h) < t.limit {
		heap.Push(&t.h, r)
		return
	}
	if better(&r, &t.h[0]) {
		t.h[0] = r
		heap.Fix(&t.h, 0)
	}
}

func (t *topK) merge(other *topK) {
	for _, r := range other.h {
		t.offer(r)
	}
}

func (t *topK) sorted() []domain.MatchResult {
	out := slices.Clone([]domain.MatchResult(t.h))
	slices.SortFunc(out, func(a, b domain.MatchResult) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		return strings.Compare(a.UserID, b.UserID)
	})
	return out
}
