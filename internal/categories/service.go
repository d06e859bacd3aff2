package categories

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Service handles category business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a new category. Names are trimmed and title-cased so
// "music festivals" and "Music Festivals" are the same category.
func (s *Service) Create(ctx context.Context, name string, createdBy int64) (*Category, error) {
	name = titleCaser.String(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("categories: name must not be empty")
	}
	return s.repo.Create(ctx, name, createdBy)
}

// Get fetches one category.
func (s *Service) Get(ctx context.Context, id int64) (*Category, error) {
	return s.repo.Get(ctx, id)
}

// List returns all categories.
func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

// Delete removes a category.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
