package events

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/eventbond/eventbond/internal/shared"
)

// Service handles event business logic. Listings are served through the
// versioned cache; concurrent misses for the same page collapse into one
// repository query.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

// NewService builds a Service instance.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Create stores a new event and invalidates cached listings.
func (s *Service) Create(ctx context.Context, creatorID int64, params CreateParams) (*Event, error) {
	if !params.EndDate.After(params.StartDate) {
		return nil, fmt.Errorf("events: end date must be after start date")
	}
	event, err := s.repo.Create(ctx, creatorID, params)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Bump(ctx)
	return event, nil
}

// Get fetches one event.
func (s *Service) Get(ctx context.Context, id int64) (*Event, error) {
	return s.repo.Get(ctx, id)
}

// Update applies a partial update and invalidates cached listings.
func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*Event, error) {
	event, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Bump(ctx)
	return event, nil
}

// Delete removes an event (images cascade) and invalidates cached listings.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.cache.Bump(ctx)
	return nil
}

// List returns one page of all events.
func (s *Service) List(ctx context.Context, page, perPage int) (*Page, error) {
	return s.Search(ctx, SearchParams{Page: page, PerPage: perPage})
}

// Search returns one page of events matching the filter.
func (s *Service) Search(ctx context.Context, params SearchParams) (*Page, error) {
	key, err := s.cache.BuildKey(ctx, "events", "search",
		params.Text,
		strconv.FormatInt(params.CategoryID, 10),
		strconv.Itoa(params.Page),
		strconv.Itoa(params.PerPage))
	if err != nil {
		return nil, err
	}

	result := s.group.DoChan(key, func() (any, error) {
		var page Page
		err := s.cache.FetchJSON(ctx, key, &page, func(ctx context.Context) (any, error) {
			return s.loadPage(ctx, params)
		})
		if err != nil {
			return nil, err
		}
		return &page, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Page), nil
	}
}

func (s *Service) loadPage(ctx context.Context, params SearchParams) (*Page, error) {
	items, total, err := s.repo.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Event{}
	}
	return &Page{
		Items:      items,
		Pagination: shared.NewPagination(params.Page, params.PerPage, total),
	}, nil
}
