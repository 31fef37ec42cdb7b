package similarity

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"findmovie/internal/domain"
	"findmovie/internal/matrix"
)

const tolerance = 1e-9

func denseCosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func mustFromRows(t *testing.T, titles []string, rows [][]float64) *matrix.RatingMatrix {
	t.Helper()
	items := make([]domain.Item, len(titles))
	for i, title := range titles {
		items[i] = domain.Item{ID: int64(i + 1), Title: title}
	}
	users := make([]int64, len(rows))
	for i := range rows {
		users[i] = int64(i + 1)
	}
	m, err := matrix.FromRows(users, items, rows)
	if err != nil {
		t.Fatalf("FromRows() error = %v", err)
	}
	return m
}

func randomMatrix(t *testing.T, users, items int, density float64, seed int64) *matrix.RatingMatrix {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	titles := make([]string, items)
	for i := range titles {
		titles[i] = string(rune('A'+i%26)) + string(rune('a'+i/26))
	}
	rows := make([][]float64, users)
	for r := range rows {
		rows[r] = make([]float64, items)
		for c := range rows[r] {
			if rng.Float64() < density {
				rows[r][c] = float64(1+rng.Intn(10)) / 2
			}
		}
	}
	return mustFromRows(t, titles, rows)
}

func TestCompute_MatchesDenseCosine(t *testing.T) {
	m := randomMatrix(t, 40, 30, 0.3, 1)
	s, err := Compute(context.Background(), m, Options{Workers: 3})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if s.Size() != m.Cols() {
		t.Fatalf("Size() = %d, want %d", s.Size(), m.Cols())
	}
	for i := 0; i < m.Cols(); i++ {
		for j := i + 1; j < m.Cols(); j++ {
			want := denseCosine(m.ColumnVector(i), m.ColumnVector(j))
			if got := s.At(i, j); math.Abs(got-want) > tolerance {
				t.Errorf("At(%d, %d) = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestCompute_SymmetricWithUnitDiagonal(t *testing.T) {
	m := randomMatrix(t, 25, 20, 0.4, 2)
	s, err := Compute(context.Background(), m, Options{})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	for i := 0; i < s.Size(); i++ {
		nonzero := false
		for _, v := range m.ColumnVector(i) {
			if v != 0 {
				nonzero = true
				break
			}
		}
		if nonzero && s.At(i, i) != 1 {
			t.Errorf("At(%d, %d) = %v, want 1", i, i, s.At(i, i))
		}
		for j := 0; j < s.Size(); j++ {
			if math.Abs(s.At(i, j)-s.At(j, i)) > tolerance {
				t.Errorf("sim[%d][%d] = %v, sim[%d][%d] = %v", i, j, s.At(i, j), j, i, s.At(j, i))
			}
			if v := s.At(i, j); v < -1 || v > 1 {
				t.Errorf("At(%d, %d) = %v out of range", i, j, v)
			}
		}
	}
}

func TestCompute_ZeroVector(t *testing.T) {
	m := mustFromRows(t, []string{"A", "Empty", "C"}, [][]float64{
		{5, 0, 1},
		{4, 0, 5},
	})
	s, err := Compute(context.Background(), m, Options{Workers: 1})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	for j := 0; j < s.Size(); j++ {
		if got := s.At(1, j); got != 0 {
			t.Errorf("At(1, %d) = %v, want 0", j, got)
		}
	}
	if s.At(0, 0) != 1 || s.At(2, 2) != 1 {
		t.Errorf("diagonal = %v, %v, want 1", s.At(0, 0), s.At(2, 2))
	}
}

func TestCompute_WorkerCountDoesNotChangeResult(t *testing.T) {
	m := randomMatrix(t, 30, 50, 0.25, 3)
	one, err := Compute(context.Background(), m, Options{Workers: 1})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	many, err := Compute(context.Background(), m, Options{Workers: 7})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	for i := 0; i < m.Cols(); i++ {
		for j := 0; j < m.Cols(); j++ {
			if one.At(i, j) != many.At(i, j) {
				t.Fatalf("At(%d, %d): %v with 1 worker, %v with 7", i, j, one.At(i, j), many.At(i, j))
			}
		}
	}
}

func TestCompute_NearIdenticalItems(t *testing.T) {
	m := mustFromRows(t, []string{"A", "B", "C"}, [][]float64{
		{5, 5, 1},
		{4, 4, 5},
	})
	s, err := Compute(context.Background(), m, Options{})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if got := s.At(0, 1); math.Abs(got-1) > tolerance {
		t.Errorf("sim(A, B) = %v, want ~1", got)
	}
	want := denseCosine([]float64{5, 4}, []float64{1, 5})
	if got := s.At(0, 2); math.Abs(got-want) > tolerance {
		t.Errorf("sim(A, C) = %v, want %v", got, want)
	}
	row := s.Row(2)
	if len(row) != 3 || row[2] != 1 || row[0] != s.At(2, 0) {
		t.Errorf("Row(2) = %v", row)
	}
}

func TestCompute_Empty(t *testing.T) {
	m, _ := matrix.Build(nil, nil)
	s, err := Compute(context.Background(), m, Options{})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if s.Size() != 0 || len(s.Titles()) != 0 {
		t.Errorf("Size() = %d, want 0", s.Size())
	}
}

func TestCompute_Cancelled(t *testing.T) {
	m := randomMatrix(t, 10, 10, 0.5, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Compute(ctx, m, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Compute() error = %v, want context.Canceled", err)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{in: 0.5, want: 0.5},
		{in: 1 + 1e-15, want: 1},
		{in: -1 - 1e-15, want: -1},
		{in: math.NaN(), want: 0},
	}
	for _, tt := range tests {
		if got := clamp(tt.in); got != tt.want {
			t.Errorf("clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMatrixIndex(t *testing.T) {
	m := mustFromRows(t, []string{"A", "B"}, [][]float64{{1, 2}})
	s, err := Compute(context.Background(), m, Options{})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if i, err := s.Index("B"); err != nil || s.Item(i).Title != "B" {
		t.Errorf("Index(B) = %d, %v", i, err)
	}
	if _, err := s.Index("Z"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("Index(Z) error = %v", err)
	}
	if i, ok := s.IndexByID(1); !ok || i != 0 {
		t.Errorf("IndexByID(1) = %d, %v", i, ok)
	}
}
