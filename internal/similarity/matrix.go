package similarity

import (
	"findmovie/internal/domain"
	"findmovie/internal/matrix"
)

// Matrix is a square, symmetric item×item similarity matrix indexed by the
// columns of the rating matrix it was computed from. Only the upper triangle
// is stored, so At(i, j) and At(j, i) read the same value.
type Matrix struct {
	labels *matrix.RatingMatrix
	n      int
	packed []float64
}

func newMatrix(m *matrix.RatingMatrix) *Matrix {
	n := m.Cols()
	return &Matrix{labels: m, n: n, packed: make([]float64, n*(n+1)/2)}
}

// offset returns the packed index of (i, j) for i <= j.
func (s *Matrix) offset(i, j int) int {
	return i*s.n - i*(i-1)/2 + (j - i)
}

// Size returns the number of items on each axis.
func (s *Matrix) Size() int { return s.n }

// At returns sim(i, j).
func (s *Matrix) At(i, j int) float64 {
	if i > j {
		i, j = j, i
	}
	return s.packed[s.offset(i, j)]
}

// Row returns a copy of the similarities between item i and every item.
func (s *Matrix) Row(i int) []float64 {
	row := make([]float64, s.n)
	for j := range row {
		row[j] = s.At(i, j)
	}
	return row
}

// Item returns the item at index i.
func (s *Matrix) Item(i int) domain.Item { return s.labels.Item(i) }

// Index resolves a title to an index; see matrix.RatingMatrix.Column.
func (s *Matrix) Index(title string) (int, error) { return s.labels.Column(title) }

// IndexByID resolves an item id to an index.
func (s *Matrix) IndexByID(id int64) (int, bool) { return s.labels.ColumnByID(id) }

// Titles returns the distinct titles in index order.
func (s *Matrix) Titles() []string { return s.labels.Titles() }
