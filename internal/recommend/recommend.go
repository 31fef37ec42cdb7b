// Package recommend ranks items by their similarity to a query item.
package recommend

import (
	"sort"

	"findmovie/internal/domain"
	"findmovie/internal/similarity"
)

// Recommend returns up to n items most similar to the item titled title,
// best first. The query item itself is never part of the result. A title that
// is unknown or shared by several items yields an empty list.
func Recommend(sim *similarity.Matrix, title string, n int) []domain.Recommendation {
	i, err := sim.Index(title)
	if err != nil {
		return []domain.Recommendation{}
	}
	return rank(sim, i, n)
}

// RecommendByID is Recommend keyed by item id.
func RecommendByID(sim *similarity.Matrix, id int64, n int) []domain.Recommendation {
	i, ok := sim.IndexByID(id)
	if !ok {
		return []domain.Recommendation{}
	}
	return rank(sim, i, n)
}

// Lookup reports why a title would produce an empty recommendation list:
// domain.ErrItemNotFound or domain.ErrAmbiguousTitle. It returns nil for a
// title Recommend can rank against.
func Lookup(sim *similarity.Matrix, title string) error {
	_, err := sim.Index(title)
	return err
}

// rank sorts every other item by score descending. Equal scores keep index
// order, which is the rating matrix's column order.
func rank(sim *similarity.Matrix, query, n int) []domain.Recommendation {
	others := sim.Size() - 1
	if n > others {
		n = others
	}
	if n <= 0 {
		return []domain.Recommendation{}
	}

	scores := sim.Row(query)
	idxs := make([]int, 0, others)
	for j := range scores {
		if j != query {
			idxs = append(idxs, j)
		}
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })

	out := make([]domain.Recommendation, 0, n)
	for _, j := range idxs[:n] {
		it := sim.Item(j)
		out = append(out, domain.Recommendation{ItemID: it.ID, Title: it.Title, Score: scores[j]})
	}
	return out
}
