package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/videocatalog/pkg/models"
	"github.com/HerbHall/videocatalog/pkg/seedwork"
)

// CategoryOutput is the API shape of a category.
type CategoryOutput struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCategoryOutput converts a category to its API shape.
func NewCategoryOutput(c models.Category) CategoryOutput {
	return CategoryOutput{
		ID:          c.ID(),
		Name:        c.Name(),
		Description: c.Description(),
		IsActive:    c.IsActive(),
		CreatedAt:   c.CreatedAt(),
	}
}

// CreateCategoryInput carries the values for a new category. A nil IsActive
// creates an active category.
type CreateCategoryInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateCategoryInput replaces name and description. A non-nil IsActive also
// activates or deactivates the category.
type UpdateCategoryInput struct {
	ID          string  `json:"-"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// ListCategoriesInput carries raw search values. They are normalized by
// seedwork.NewSearchParams, so callers pass them through unvalidated.
type ListCategoriesInput struct {
	Page    any
	PerPage any
	Sort    any
	SortDir any
	Filter  any
}

// ListCategoriesOutput is one page of categories with pagination metadata.
type ListCategoriesOutput struct {
	Items       []CategoryOutput `json:"items"`
	Total       int              `json:"total"`
	CurrentPage int              `json:"current_page"`
	PerPage     int              `json:"per_page"`
	LastPage    int              `json:"last_page"`
}

// CategoryServiceOption configures a CategoryService.
type CategoryServiceOption func(*CategoryService)

// WithClock overrides the time source used for created_at.
func WithClock(now func() time.Time) CategoryServiceOption {
	return func(s *CategoryService) { s.now = now }
}

// CategoryService implements the category use cases on top of a repository.
// Absence is an error at this layer: Get, Update and Delete return a
// *seedwork.NotFoundError when the id is unknown.
type CategoryService struct {
	repo   CategoryRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewCategoryService returns a service over repo.
func NewCategoryService(repo CategoryRepository, logger *zap.Logger, opts ...CategoryServiceOption) *CategoryService {
	s := &CategoryService{
		repo:   repo,
		logger: logger.Named("categories"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (CategoryOutput, error) {
	c, err := models.NewCategory(models.CategoryProps{
		Name:        in.Name,
		Description: in.Description,
		IsActive:    in.IsActive,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return CategoryOutput{}, err
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return CategoryOutput{}, fmt.Errorf("create category: %w", err)
	}

	s.logger.Info("category created", zap.String("id", c.ID()), zap.String("name", c.Name()))
	return NewCategoryOutput(c), nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (CategoryOutput, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return CategoryOutput{}, err
	}
	return NewCategoryOutput(c), nil
}

func (s *CategoryService) List(ctx context.Context, in ListCategoriesInput) (ListCategoriesOutput, error) {
	params := seedwork.NewSearchParams(seedwork.SearchInput{
		Page:    in.Page,
		PerPage: in.PerPage,
		Sort:    in.Sort,
		SortDir: in.SortDir,
		Filter:  in.Filter,
	})

	result, err := s.repo.Search(ctx, params)
	if err != nil {
		return ListCategoriesOutput{}, fmt.Errorf("list categories: %w", err)
	}

	items := make([]CategoryOutput, 0, len(result.Items()))
	for _, c := range result.Items() {
		items = append(items, NewCategoryOutput(c))
	}
	return ListCategoriesOutput{
		Items:       items,
		Total:       result.Total(),
		CurrentPage: result.CurrentPage(),
		PerPage:     result.PerPage(),
		LastPage:    result.LastPage(),
	}, nil
}

// All returns every category in insertion order.
func (s *CategoryService) All(ctx context.Context) ([]CategoryOutput, error) {
	categories, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]CategoryOutput, 0, len(categories))
	for _, c := range categories {
		out = append(out, NewCategoryOutput(c))
	}
	return out, nil
}

func (s *CategoryService) Update(ctx context.Context, in UpdateCategoryInput) (CategoryOutput, error) {
	c, err := s.find(ctx, in.ID)
	if err != nil {
		return CategoryOutput{}, err
	}

	c, err = c.Update(in.Name, in.Description)
	if err != nil {
		return CategoryOutput{}, err
	}
	if in.IsActive != nil {
		if *in.IsActive {
			c = c.Activate()
		} else {
			c = c.Deactivate()
		}
	}

	found, err := s.repo.Update(ctx, c)
	if err != nil {
		return CategoryOutput{}, fmt.Errorf("update category: %w", err)
	}
	if !found {
		return CategoryOutput{}, notFound(in.ID)
	}

	s.logger.Info("category updated", zap.String("id", c.ID()))
	return NewCategoryOutput(c), nil
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	c, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	found, err := s.repo.Delete(ctx, c)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if !found {
		return notFound(id)
	}

	s.logger.Info("category deleted", zap.String("id", id))
	return nil
}

func (s *CategoryService) find(ctx context.Context, id string) (models.Category, error) {
	if id == "" {
		return models.Category{}, seedwork.MissingParameter("id")
	}
	c, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return models.Category{}, fmt.Errorf("get category: %w", err)
	}
	if !ok {
		return models.Category{}, notFound(id)
	}
	return c, nil
}

func notFound(id string) error {
	return &seedwork.NotFoundError{Entity: "Category", ID: id}
}
