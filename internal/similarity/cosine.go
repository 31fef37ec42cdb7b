// Package similarity computes pairwise cosine similarity between the item
// columns of a rating matrix.
//
// Columns are L2-normalized once, after which the similarity matrix is the
// product of the normalized item×user matrix with its transpose. Only the
// nonzero cells of the rating matrix take part in that product, so the cost
// follows the number of co-rated pairs rather than items²×users.
package similarity

import (
	"context"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"findmovie/internal/matrix"
)

// Options tunes the similarity computation.
type Options struct {
	// Workers bounds the goroutines computing rows. Zero means runtime.NumCPU().
	Workers int
}

type entry struct {
	idx int
	val float64
}

// Compute builds the item×item cosine similarity matrix of m.
//
// Items whose vector has zero magnitude have similarity 0 with everything,
// themselves included. Every other item has a self-similarity of exactly 1.
// The only error returned is ctx.Err().
func Compute(ctx context.Context, m *matrix.RatingMatrix, opts Options) (*Matrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := m.Cols()
	s := newMatrix(m)
	if m.Empty() {
		return s, nil
	}

	cols, byUser := normalizedColumns(m)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		first := w
		g.Go(func() error {
			acc := make([]float64, n)
			// Upper-triangle rows shrink with i, so rows are dealt round-robin.
			for i := first; i < n; i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				s.fillRow(i, cols[i], byUser, acc)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

// normalizedColumns returns the nonzero cells of every L2-normalized column,
// both per column (ordered by row) and per user row (ordered by column).
func normalizedColumns(m *matrix.RatingMatrix) (cols [][]entry, byUser [][]entry) {
	rows, n := m.Rows(), m.Cols()
	cols = make([][]entry, n)
	byUser = make([][]entry, rows)
	for c := 0; c < n; c++ {
		norm := 0.0
		for r := 0; r < rows; r++ {
			v := m.At(r, c)
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			continue
		}
		for r := 0; r < rows; r++ {
			if v := m.At(r, c); v != 0 {
				x := v / norm
				cols[c] = append(cols[c], entry{idx: r, val: x})
				byUser[r] = append(byUser[r], entry{idx: c, val: x})
			}
		}
	}
	return cols, byUser
}

// fillRow writes row i of the upper triangle. acc is scratch space of length n.
func (s *Matrix) fillRow(i int, col []entry, byUser [][]entry, acc []float64) {
	if len(col) == 0 {
		return
	}
	for j := i; j < s.n; j++ {
		acc[j] = 0
	}
	for _, e := range col {
		cells := byUser[e.idx]
		start := sort.Search(len(cells), func(k int) bool { return cells[k].idx > i })
		for _, f := range cells[start:] {
			acc[f.idx] += e.val * f.val
		}
	}
	row := s.packed[s.offset(i, i):s.offset(i, s.n-1)+1]
	row[0] = 1
	for j := i + 1; j < s.n; j++ {
		row[j-i] = clamp(acc[j])
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
