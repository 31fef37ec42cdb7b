// Package matrix builds the dense user×item rating matrix the similarity
// engine works on.
package matrix

import (
	"fmt"
	"math"
	"sort"

	"findmovie/internal/domain"
)

// RatingMatrix is a dense user×item matrix. A zero cell means "not rated".
// It is immutable once built.
type RatingMatrix struct {
	users     []int64
	items     []domain.Item
	values    []float64
	byID      map[int64]int
	byTitle   map[string]int
	ambiguous map[string][]int64
}

// BuildReport describes what the builder had to drop or merge.
type BuildReport struct {
	// DroppedRatings counts ratings whose item id is not in the catalog.
	DroppedRatings int
	// InvalidRatings counts NaN or infinite rating values that were skipped.
	InvalidRatings int
	// DuplicateRatings counts repeated (user, item) observations that were averaged.
	DuplicateRatings int
	// AmbiguousTitles lists titles shared by more than one rated item.
	AmbiguousTitles []string
}

type cell struct {
	user int64
	item int64
}

type aggregate struct {
	sum   float64
	count int
}

// Build joins ratings to items by item id and pivots them into a matrix with
// users as rows (ascending id) and rated items as columns (ascending title,
// then id). Repeated observations of the same (user, item) pair are averaged.
// An empty catalog or rating table yields an empty matrix.
func Build(items []domain.Item, ratings []domain.Rating) (*RatingMatrix, BuildReport) {
	var report BuildReport
	if len(items) == 0 || len(ratings) == 0 {
		return empty(), report
	}

	catalog := make(map[int64]domain.Item, len(items))
	for _, it := range items {
		if _, ok := catalog[it.ID]; !ok {
			catalog[it.ID] = it
		}
	}

	cells := make(map[cell]*aggregate, len(ratings))
	userSet := make(map[int64]struct{})
	itemSet := make(map[int64]struct{})
	for _, r := range ratings {
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			report.InvalidRatings++
			continue
		}
		if _, ok := catalog[r.ItemID]; !ok {
			report.DroppedRatings++
			continue
		}
		k := cell{user: r.UserID, item: r.ItemID}
		if agg, ok := cells[k]; ok {
			agg.sum += r.Value
			agg.count++
			report.DuplicateRatings++
			continue
		}
		cells[k] = &aggregate{sum: r.Value, count: 1}
		userSet[r.UserID] = struct{}{}
		itemSet[r.ItemID] = struct{}{}
	}
	if len(cells) == 0 {
		return empty(), report
	}

	users := make([]int64, 0, len(userSet))
	for u := range userSet {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	cols := make([]domain.Item, 0, len(itemSet))
	for id := range itemSet {
		cols = append(cols, catalog[id])
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i].Title != cols[j].Title {
			return cols[i].Title < cols[j].Title
		}
		return cols[i].ID < cols[j].ID
	})

	m := newMatrix(users, cols)
	rowOf := make(map[int64]int, len(users))
	for i, u := range users {
		rowOf[u] = i
	}
	for k, agg := range cells {
		m.values[rowOf[k.user]*len(cols)+m.byID[k.item]] = agg.sum / float64(agg.count)
	}
	report.AmbiguousTitles = m.AmbiguousTitles()
	return m, report
}

// FromRows builds a matrix from explicit rows. values[r][c] is the rating of
// users[r] for items[c]. Item ids must be unique and values finite.
func FromRows(users []int64, items []domain.Item, values [][]float64) (*RatingMatrix, error) {
	if len(values) != len(users) {
		return nil, fmt.Errorf("matrix: %d rows for %d users", len(values), len(users))
	}
	seen := make(map[int64]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			return nil, fmt.Errorf("matrix: duplicate item id %d", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	m := newMatrix(append([]int64(nil), users...), append([]domain.Item(nil), items...))
	for r, row := range values {
		if len(row) != len(items) {
			return nil, fmt.Errorf("matrix: row %d has %d values, want %d", r, len(row), len(items))
		}
		for c, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("matrix: row %d column %d is not finite", r, c)
			}
		}
		copy(m.values[r*len(items):], row)
	}
	return m, nil
}

func empty() *RatingMatrix {
	return newMatrix(nil, nil)
}

func newMatrix(users []int64, items []domain.Item) *RatingMatrix {
	m := &RatingMatrix{
		users:     users,
		items:     items,
		values:    make([]float64, len(users)*len(items)),
		byID:      make(map[int64]int, len(items)),
		byTitle:   make(map[string]int, len(items)),
		ambiguous: make(map[string][]int64),
	}
	for c, it := range items {
		m.byID[it.ID] = c
		if prev, ok := m.byTitle[it.Title]; ok {
			if len(m.ambiguous[it.Title]) == 0 {
				m.ambiguous[it.Title] = []int64{items[prev].ID}
			}
			m.ambiguous[it.Title] = append(m.ambiguous[it.Title], it.ID)
			continue
		}
		m.byTitle[it.Title] = c
	}
	for title := range m.ambiguous {
		delete(m.byTitle, title)
	}
	return m
}

// Rows returns the number of users.
func (m *RatingMatrix) Rows() int { return len(m.users) }

// Cols returns the number of items.
func (m *RatingMatrix) Cols() int { return len(m.items) }

// Empty reports whether the matrix has no cells.
func (m *RatingMatrix) Empty() bool { return len(m.users) == 0 || len(m.items) == 0 }

// At returns the rating of row r for column c.
func (m *RatingMatrix) At(r, c int) float64 { return m.values[r*len(m.items)+c] }

// UserIDs returns the row labels in row order.
func (m *RatingMatrix) UserIDs() []int64 { return append([]int64(nil), m.users...) }

// Items returns the column labels in column order.
func (m *RatingMatrix) Items() []domain.Item { return append([]domain.Item(nil), m.items...) }

// Item returns the item of column c.
func (m *RatingMatrix) Item(c int) domain.Item { return m.items[c] }

// ColumnVector returns a copy of column c as a vector over users.
func (m *RatingMatrix) ColumnVector(c int) []float64 {
	v := make([]float64, len(m.users))
	for r := range m.users {
		v[r] = m.At(r, c)
	}
	return v
}

// Column resolves a title to its column. Titles shared by several items
// resolve to ErrAmbiguousTitle; use ColumnByID for those.
func (m *RatingMatrix) Column(title string) (int, error) {
	if c, ok := m.byTitle[title]; ok {
		return c, nil
	}
	if ids, ok := m.ambiguous[title]; ok {
		return -1, fmt.Errorf("%w: %q matches items %v", domain.ErrAmbiguousTitle, title, ids)
	}
	return -1, fmt.Errorf("%w: %q", domain.ErrItemNotFound, title)
}

// ColumnByID resolves an item id to its column.
func (m *RatingMatrix) ColumnByID(id int64) (int, bool) {
	c, ok := m.byID[id]
	return c, ok
}

// Titles returns the distinct column titles in column order.
func (m *RatingMatrix) Titles() []string {
	out := make([]string, 0, len(m.items))
	seen := make(map[string]struct{}, len(m.items))
	for _, it := range m.items {
		if _, ok := seen[it.Title]; ok {
			continue
		}
		seen[it.Title] = struct{}{}
		out = append(out, it.Title)
	}
	return out
}

// AmbiguousTitles returns the titles shared by more than one column, sorted.
func (m *RatingMatrix) AmbiguousTitles() []string {
	if len(m.ambiguous) == 0 {
		return nil
	}
	out := make([]string, 0, len(m.ambiguous))
	for t := range m.ambiguous {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
