package domain

import "context"

// Item is a single catalog entry (a movie) that can be rated.
type Item struct {
	ID     int64
	Title  string
	Genres []string
}

// Rating is one observation of a user rating an item.
type Rating struct {
	UserID int64
	ItemID int64
	Value  float64
}

// Recommendation is a candidate item ranked by its similarity to a query item.
type Recommendation struct {
	ItemID int64   `json:"item_id"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
}

// Stats summarizes a loaded dataset.
type Stats struct {
	Items   int `json:"items"`
	Users   int `json:"users"`
	Ratings int `json:"ratings"`
}

// DataProvider supplies the item and rating tables the pipeline is built from.
// A missing or unreadable table must be reported as ErrDataUnavailable.
type DataProvider interface {
	Load(ctx context.Context) ([]Item, []Rating, error)
}

// RecommendService defines the operations exposed by the application core.
type RecommendService interface {
	Load(ctx context.Context) error
	Recommend(title string, n int) []Recommendation
	Titles() []string
	Stats() Stats
}
