package domain

import "errors"

var (
	// ErrDataUnavailable means a source table is missing or unreadable.
	// It aborts a pipeline build; no partial results are produced.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrItemNotFound means the query item is not in the similarity index.
	ErrItemNotFound = errors.New("item not found")

	// ErrAmbiguousTitle means more than one item carries the queried title.
	ErrAmbiguousTitle = errors.New("ambiguous item title")

	// ErrEmptyDataset means the dataset has no items or no ratings.
	ErrEmptyDataset = errors.New("empty dataset")
)
