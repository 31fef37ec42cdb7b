package recommend

import (
	"context"
	"errors"
	"math"
	"testing"

	"findmovie/internal/domain"
	"findmovie/internal/matrix"
	"findmovie/internal/similarity"
)

func buildSimilarity(t *testing.T, items []domain.Item, ratings []domain.Rating) *similarity.Matrix {
	t.Helper()
	m, _ := matrix.Build(items, ratings)
	s, err := similarity.Compute(context.Background(), m, similarity.Options{Workers: 2})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	return s
}

func abcSimilarity(t *testing.T) *similarity.Matrix {
	items := []domain.Item{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}, {ID: 3, Title: "C"}}
	ratings := []domain.Rating{
		{UserID: 1, ItemID: 1, Value: 5},
		{UserID: 1, ItemID: 2, Value: 5},
		{UserID: 1, ItemID: 3, Value: 1},
		{UserID: 2, ItemID: 1, Value: 4},
		{UserID: 2, ItemID: 2, Value: 4},
		{UserID: 2, ItemID: 3, Value: 5},
	}
	return buildSimilarity(t, items, ratings)
}

func TestRecommend_NearIdenticalItem(t *testing.T) {
	got := Recommend(abcSimilarity(t), "A", 1)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Title != "B" || got[0].ItemID != 2 {
		t.Errorf("got %+v, want B", got[0])
	}
	if math.Abs(got[0].Score-1) > 1e-9 {
		t.Errorf("Score = %v, want ~1", got[0].Score)
	}
}

func TestRecommend_Length(t *testing.T) {
	sim := abcSimilarity(t)
	tests := []struct {
		name  string
		title string
		n     int
		want  int
	}{
		{name: "within range", title: "A", n: 2, want: 2},
		{name: "clamped to others", title: "A", n: 10, want: 2},
		{name: "zero", title: "A", n: 0, want: 0},
		{name: "negative", title: "A", n: -3, want: 0},
		{name: "unknown title", title: "Unknown Title", n: 5, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recommend(sim, tt.title, tt.n)
			if got == nil {
				t.Fatal("Recommend() returned nil, want empty slice")
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
			for _, r := range got {
				if r.Title == tt.title {
					t.Errorf("query item %q returned", tt.title)
				}
			}
		})
	}
}

func TestRecommend_SortedAndStable(t *testing.T) {
	// B, C and D have identical vectors, so they tie against A.
	items := []domain.Item{
		{ID: 1, Title: "A"}, {ID: 4, Title: "D"}, {ID: 2, Title: "B"}, {ID: 3, Title: "C"}, {ID: 5, Title: "E"},
	}
	ratings := []domain.Rating{
		{UserID: 1, ItemID: 1, Value: 5}, {UserID: 2, ItemID: 1, Value: 1},
		{UserID: 1, ItemID: 2, Value: 3}, {UserID: 2, ItemID: 2, Value: 3},
		{UserID: 1, ItemID: 3, Value: 3}, {UserID: 2, ItemID: 3, Value: 3},
		{UserID: 1, ItemID: 4, Value: 3}, {UserID: 2, ItemID: 4, Value: 3},
		{UserID: 1, ItemID: 5, Value: 5}, {UserID: 2, ItemID: 5, Value: 1},
	}
	got := Recommend(buildSimilarity(t, items, ratings), "A", 4)

	want := []string{"E", "B", "C", "D"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Title != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i].Title, want[i])
		}
		if i > 0 && got[i].Score > got[i-1].Score {
			t.Errorf("scores not descending at %d: %v > %v", i, got[i].Score, got[i-1].Score)
		}
	}
}

func TestRecommend_EmptySimilarity(t *testing.T) {
	sim := buildSimilarity(t, []domain.Item{{ID: 1, Title: "A"}}, nil)
	if got := Recommend(sim, "A", 5); len(got) != 0 {
		t.Errorf("Recommend() = %v, want empty", got)
	}
	if err := Lookup(sim, "A"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("Lookup() error = %v, want ErrItemNotFound", err)
	}
}

func TestRecommendByID_AmbiguousTitle(t *testing.T) {
	items := []domain.Item{{ID: 1, Title: "Solaris"}, {ID: 2, Title: "Solaris"}, {ID: 3, Title: "Stalker"}}
	ratings := []domain.Rating{
		{UserID: 1, ItemID: 1, Value: 5}, {UserID: 1, ItemID: 2, Value: 1}, {UserID: 1, ItemID: 3, Value: 4},
		{UserID: 2, ItemID: 1, Value: 4}, {UserID: 2, ItemID: 3, Value: 4},
	}
	sim := buildSimilarity(t, items, ratings)

	if got := Recommend(sim, "Solaris", 5); len(got) != 0 {
		t.Errorf("Recommend(Solaris) = %v, want empty", got)
	}
	if err := Lookup(sim, "Solaris"); !errors.Is(err, domain.ErrAmbiguousTitle) {
		t.Errorf("Lookup(Solaris) error = %v, want ErrAmbiguousTitle", err)
	}
	got := RecommendByID(sim, 1, 5)
	if len(got) != 2 {
		t.Fatalf("RecommendByID(1) len = %d, want 2", len(got))
	}
	for _, r := range got {
		if r.ItemID == 1 {
			t.Error("query item returned")
		}
	}
	if got := RecommendByID(sim, 99, 5); len(got) != 0 {
		t.Errorf("RecommendByID(99) = %v, want empty", got)
	}
}
