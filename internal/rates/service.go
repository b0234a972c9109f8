package rates

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mercadito-erp/mercadito-erp/internal/shared"
)

// RepositoryPort defines data access for the rate store.
type RepositoryPort interface {
	// EnsureDefaults seeds any missing kind with value 0.
	EnsureDefaults(ctx context.Context, kinds []RateKind) error
	ListRates(ctx context.Context) ([]Rate, error)
	ListHistory(ctx context.Context, limit int64) ([]HistoryEntry, error)
	// UpdateRates applies every change, appends history and trims it to
	// HistoryCap inside one transaction.
	UpdateRates(ctx context.Context, changes map[RateKind]float64, now time.Time) error
}

// SnapshotCache stores the assembled snapshot between reads.
type SnapshotCache interface {
	Get(ctx context.Context) (*Snapshot, bool)
	Set(ctx context.Context, snapshot *Snapshot)
	Invalidate(ctx context.Context)
}

// Service implements the currency rate store.
type Service struct {
	repo  RepositoryPort
	cache SnapshotCache
	group singleflight.Group
}

// NewService builds Service instance. cache may be nil.
func NewService(repo RepositoryPort, cache SnapshotCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// GetRates returns the current snapshot. Missing kinds are lazily created
// with value 0 so a fresh install always answers with the full shape.
// Concurrent cache misses collapse into a single database read.
func (s *Service) GetRates(ctx context.Context) (*Snapshot, error) {
	if s.cache != nil {
		if snapshot, ok := s.cache.Get(ctx); ok {
			return snapshot, nil
		}
	}

	// The shared flight must outlive the caller that happened to start it,
	// otherwise one canceled request fails every collapsed waiter.
	loadCtx := context.WithoutCancel(ctx)
	resultChan := s.group.DoChan("snapshot", func() (interface{}, error) {
		return s.loadSnapshot(loadCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (s *Service) loadSnapshot(ctx context.Context) (*Snapshot, error) {
	if err := s.repo.EnsureDefaults(ctx, AllKinds); err != nil {
		return nil, err
	}
	current, err := s.repo.ListRates(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.ListHistory(ctx, HistoryCap*int64(len(AllKinds)))
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{Rates: make(map[RateKind]Rate, len(current)), History: history}
	for _, rate := range current {
		snapshot.Rates[rate.Kind] = rate
	}
	if s.cache != nil {
		s.cache.Set(ctx, snapshot)
	}
	return snapshot, nil
}

// SetRatesInput carries the optional new values. Nil fields keep the
// current value.
type SetRatesInput struct {
	Average     *float64
	CentralBank *float64
	Parallel    *float64
}

func (in SetRatesInput) changes() (map[RateKind]float64, error) {
	provided := map[RateKind]*float64{
		RateAverage:     in.Average,
		RateCentralBank: in.CentralBank,
		RateParallel:    in.Parallel,
	}
	changes := make(map[RateKind]float64)
	for _, kind := range AllKinds {
		value := provided[kind]
		if value == nil {
			continue
		}
		if *value <= 0 {
			return nil, &shared.InvalidRateError{Kind: string(kind), Value: *value}
		}
		changes[kind] = *value
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("%w: no se proporcionó ninguna tasa", shared.ErrValidation)
	}
	return changes, nil
}

// SetRates validates and stores every provided rate. One invalid value
// rejects the whole request; nothing is partially applied.
func (s *Service) SetRates(ctx context.Context, input SetRatesInput) (*Snapshot, error) {
	changes, err := input.changes()
	if err != nil {
		return nil, err
	}
	if err := s.repo.EnsureDefaults(ctx, AllKinds); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRates(ctx, changes, time.Now().UTC()); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return s.loadSnapshot(ctx)
}
