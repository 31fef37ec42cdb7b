// Package dataset provides the item and rating tables the pipeline is built
// from.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"findmovie/internal/domain"
)

// CSVProvider reads a MovieLens-style movies.csv (movieId,title,genres) and
// ratings.csv (userId,movieId,rating[,timestamp]).
type CSVProvider struct {
	MoviesPath  string
	RatingsPath string
	Logger      zerolog.Logger
}

// NewCSVProvider creates a provider for the two files.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewCSVProvider(moviesPath, ratingsPath string, logger zerolog.Logger) *CSVProvider {
	return &CSVProvider{
		MoviesPath:  moviesPath,
		RatingsPath: ratingsPath,
		Logger:      logger.With().Str("component", "dataset").Logger(),
	}
}

// Load reads both tables. Either file being missing, unreadable, or lacking a
// required column fails the whole load with domain.ErrDataUnavailable.
// Rows with unparsable fields are skipped.
func (p *CSVProvider) Load(ctx context.Context) ([]domain.Item, []domain.Rating, error) {
	items, skippedItems, err := readTable(ctx, p.MoviesPath, []string{"movieId", "title"}, parseItem)
	if err != nil {
		return nil, nil, err
	}
	ratings, skippedRatings, err := readTable(ctx, p.RatingsPath, []string{"userId", "movieId", "rating"}, parseRating)
	if err != nil {
		return nil, nil, err
	}
	if skippedItems > 0 || skippedRatings > 0 {
		p.Logger.Warn().
			Int("skipped_movies", skippedItems).
			Int("skipped_ratings", skippedRatings).
			Msg("skipped malformed rows")
	}
	p.Logger.Debug().
		Str("movies", p.MoviesPath).
		Str("ratings", p.RatingsPath).
		Int("items", len(items)).
		Int("rating_rows", len(ratings)).
		Msg("tables loaded")
	return items, ratings, nil
}

func readTable[T any](ctx context.Context, path string, required []string, parse func(row []string, idx map[string]int) (T, error)) ([]T, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read header of %s: %v", domain.ErrDataUnavailable, path, err)
	}
	idx := headerIndex(header)
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, 0, fmt.Errorf("%w: missing column %s in %s", domain.ErrDataUnavailable, col, path)
		}
	}

	var (
		out     []T
		skipped int
		line    int
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped++
				continue
			}
			return nil, 0, fmt.Errorf("%w: read %s: %v", domain.ErrDataUnavailable, path, err)
		}
		line++
		if line%100000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}
		v, err := parse(row, idx)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	return out, skipped, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	return idx
}

func field(row []string, idx map[string]int, col string) (string, error) {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return "", fmt.Errorf("missing %s", col)
	}
	return strings.TrimSpace(row[i]), nil
}

func parseItem(row []string, idx map[string]int) (domain.Item, error) {
	rawID, err := field(row, idx, "movieId")
	if err != nil {
		return domain.Item{}, err
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return domain.Item{}, err
	}
	title, err := field(row, idx, "title")
	if err != nil || title == "" {
		return domain.Item{}, fmt.Errorf("movie %d has no title", id)
	}
	item := domain.Item{ID: id, Title: title}
	if genres, err := field(row, idx, "genres"); err == nil && genres != "" && genres != "(no genres listed)" {
		item.Genres = strings.Split(genres, "|")
	}
	return item, nil
}

func parseRating(row []string, idx map[string]int) (domain.Rating, error) {
	rawUser, err := field(row, idx, "userId")
	if err != nil {
		return domain.Rating{}, err
	}
	rawItem, err := field(row, idx, "movieId")
	if err != nil {
		return domain.Rating{}, err
	}
	rawValue, err := field(row, idx, "rating")
	if err != nil {
		return domain.Rating{}, err
	}
	user, err := strconv.ParseInt(rawUser, 10, 64)
	if err != nil {
		return domain.Rating{}, err
	}
	item, err := strconv.ParseInt(rawItem, 10, 64)
	if err != nil {
		return domain.Rating{}, err
	}
	value, err := strconv.ParseFloat(rawValue, 64)
	if err != nil {
		return domain.Rating{}, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return domain.Rating{}, fmt.Errorf("rating %q is not a finite number", rawValue)
	}
	return domain.Rating{UserID: user, ItemID: item, Value: value}, nil
}
