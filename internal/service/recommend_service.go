package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"findmovie/internal/domain"
	"findmovie/internal/matrix"
	"findmovie/internal/metrics"
	"findmovie/internal/recommend"
	"findmovie/internal/similarity"
)

// Snapshot is one immutable build of the pipeline. Readers may hold on to it
// while a newer snapshot is swapped in.
type Snapshot struct {
	ID         string
	BuiltAt    time.Time
	Stats      domain.Stats
	Ratings    *matrix.RatingMatrix
	Similarity *similarity.Matrix
}

// Result is a recommendation list together with the reason it may be empty.
type Result struct {
	Query           string                  `json:"query"`
	ItemID          int64                   `json:"item_id,omitempty"`
	Found           bool                    `json:"found"`
	Reason          string                  `json:"reason,omitempty"`
	SnapshotID      string                  `json:"snapshot_id,omitempty"`
	Recommendations []domain.Recommendation `json:"recommendations"`
}

// Options configures the service.
type Options struct {
	Similarity similarity.Options
}

type RecommendServiceImpl struct {
	provider domain.DataProvider
	opts     Options
	logger   zerolog.Logger

	// buildMu serializes builds; queries never take it.
	buildMu  sync.Mutex
	snapshot atomic.Pointer[Snapshot]
}

//nolint:gocritic // zerolog.Logger is passed by value
func NewRecommendService(provider domain.DataProvider, opts Options, logger zerolog.Logger) *RecommendServiceImpl {
	return &RecommendServiceImpl{
		provider: provider,
		opts:     opts,
		logger:   logger.With().Str("component", "service").Logger(),
	}
}

// Load runs the whole pipeline and swaps the result in. On failure the
// previous snapshot stays active.
func (s *RecommendServiceImpl) Load(ctx context.Context) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	snap, err := s.build(ctx)
	metrics.RecordBuild(err)
	if err != nil {
		s.logger.Error().Err(err).Msg("pipeline build failed")
		return err
	}
	s.snapshot.Store(snap)
	metrics.SetDatasetSize(snap.Stats.Items, snap.Stats.Users, snap.Stats.Ratings, snap.Similarity.Size())
	s.logger.Info().
		Str("snapshot", snap.ID).
		Int("items", snap.Stats.Items).
		Int("users", snap.Stats.Users).
		Int("ratings", snap.Stats.Ratings).
		Int("columns", snap.Similarity.Size()).
		Msg("pipeline ready")
	return nil
}

func (s *RecommendServiceImpl) build(ctx context.Context) (*Snapshot, error) {
	id := uuid.NewString()
	log := s.logger.With().Str("snapshot", id).Logger()

	start := time.Now()
	items, ratings, err := s.provider.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	metrics.ObserveStage("load", time.Since(start))

	start = time.Now()
	m, report := matrix.Build(items, ratings)
	metrics.ObserveStage("matrix", time.Since(start))
	if report.DroppedRatings > 0 {
		log.Warn().Int("dropped", report.DroppedRatings).Msg("ratings reference unknown items")
	}
	if report.InvalidRatings > 0 {
		log.Warn().Int("invalid", report.InvalidRatings).Msg("non-finite ratings skipped")
	}
	if report.DuplicateRatings > 0 {
		log.Warn().Int("duplicates", report.DuplicateRatings).Msg("repeated ratings averaged")
	}
	if len(report.AmbiguousTitles) > 0 {
		log.Warn().Strs("titles", report.AmbiguousTitles).Msg("titles shared by several items; look them up by id")
	}
	if m.Empty() {
		log.Warn().Err(domain.ErrEmptyDataset).Msg("rating matrix is empty")
	}
	log.Debug().Int("rows", m.Rows()).Int("cols", m.Cols()).Dur("took", time.Since(start)).Msg("rating matrix built")

	start = time.Now()
	sim, err := similarity.Compute(ctx, m, s.opts.Similarity)
	if err != nil {
		return nil, fmt.Errorf("compute similarity: %w", err)
	}
	metrics.ObserveStage("similarity", time.Since(start))
	log.Debug().Int("size", sim.Size()).Dur("took", time.Since(start)).Msg("similarity computed")

	return &Snapshot{
		ID:         id,
		BuiltAt:    time.Now(),
		Stats:      datasetStats(items, ratings),
		Ratings:    m,
		Similarity: sim,
	}, nil
}

func datasetStats(items []domain.Item, ratings []domain.Rating) domain.Stats {
	users := make(map[int64]struct{})
	for _, r := range ratings {
		users[r.UserID] = struct{}{}
	}
	return domain.Stats{Items: len(items), Users: len(users), Ratings: len(ratings)}
}

// Snapshot returns the active snapshot, or nil before the first successful Load.
func (s *RecommendServiceImpl) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Recommend returns up to n items similar to title from the active snapshot.
func (s *RecommendServiceImpl) Recommend(title string, n int) []domain.Recommendation {
	return s.Query(title, n).Recommendations
}

// RecommendByID returns up to n items similar to the item with the given id.
func (s *RecommendServiceImpl) RecommendByID(id int64, n int) []domain.Recommendation {
	return s.QueryByID(id, n).Recommendations
}

// QueryByID is Query keyed by item id. It reaches items whose title is shared
// with another item.
func (s *RecommendServiceImpl) QueryByID(id int64, n int) Result {
	res := Result{Query: strconv.FormatInt(id, 10), ItemID: id, Recommendations: []domain.Recommendation{}}
	snap := s.snapshot.Load()
	if snap == nil {
		res.Reason = domain.ErrEmptyDataset.Error()
		metrics.RecordQuery("no_data")
		return res
	}
	res.SnapshotID = snap.ID
	if _, ok := snap.Similarity.IndexByID(id); !ok {
		res.Reason = fmt.Errorf("%w: id %d", domain.ErrItemNotFound, id).Error()
		metrics.RecordQuery("not_found")
		s.logger.Debug().Int64("item_id", id).Str("outcome", "not_found").Msg("no recommendations")
		return res
	}
	res.Found = true
	res.Recommendations = recommend.RecommendByID(snap.Similarity, id, n)
	metrics.RecordQuery("found")
	return res
}

// Query is Recommend with the not-found reason the caller should display.
func (s *RecommendServiceImpl) Query(title string, n int) Result {
	res := Result{Query: title, Recommendations: []domain.Recommendation{}}
	snap := s.snapshot.Load()
	if snap == nil {
		res.Reason = domain.ErrEmptyDataset.Error()
		metrics.RecordQuery("no_data")
		return res
	}
	res.SnapshotID = snap.ID
	if err := recommend.Lookup(snap.Similarity, title); err != nil {
		res.Reason = err.Error()
		outcome := "not_found"
		if errors.Is(err, domain.ErrAmbiguousTitle) {
			outcome = "ambiguous"
		}
		metrics.RecordQuery(outcome)
		s.logger.Debug().Str("title", title).Str("outcome", outcome).Msg("no recommendations")
		return res
	}
	res.Found = true
	res.Recommendations = recommend.Recommend(snap.Similarity, title, n)
	metrics.RecordQuery("found")
	return res
}

// Titles returns the selectable titles of the active snapshot in ascending order.
func (s *RecommendServiceImpl) Titles() []string {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil
	}
	return snap.Similarity.Titles()
}

// Stats returns the dataset counters of the active snapshot.
func (s *RecommendServiceImpl) Stats() domain.Stats {
	snap := s.snapshot.Load()
	if snap == nil {
		return domain.Stats{}
	}
	return snap.Stats
}

var _ domain.RecommendService = (*RecommendServiceImpl)(nil)
