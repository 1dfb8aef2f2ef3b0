package application

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sebuszqo/FinanceManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceManager/internal/finance/errors"
)

// CategoryService holds the business rules for user categories. Every call is a single attempt;
// nothing is retried here.
type CategoryService struct {
	repo domain.CategoryRepository
}

func NewCategoryService(repo domain.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// FetchCategories lists the caller's categories matching filter. An empty result is not an error.
func (s *CategoryService) FetchCategories(ctx context.Context, identity domain.Identity, filter domain.CategoryFilter) ([]domain.Category, error) {
	if !identity.IsAuthenticated() {
		return nil, financeErrors.ErrUnauthenticated
	}

	categories, err := s.repo.ListByOwner(ctx, identity.UserID, filter)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		return []domain.Category{}, nil
	}
	return categories, nil
}

// GetCategory returns one of the caller's categories.
func (s *CategoryService) GetCategory(ctx context.Context, identity domain.Identity, categoryID string) (domain.Category, error) {
	if !identity.IsAuthenticated() {
		return domain.Category{}, financeErrors.ErrUnauthenticated
	}

	category, err := s.repo.FindOwned(ctx, identity.UserID, categoryID)
	if err != nil {
		return domain.Category{}, conflateNotFound(err)
	}
	return category, nil
}

// EditCategory validates the proposed values and applies them only if the caller owns the
// category. Validation failures never reach the repository.
func (s *CategoryService) EditCategory(ctx context.Context, identity domain.Identity, categoryID, name, categoryType string) (domain.Category, error) {
	if !identity.IsAuthenticated() {
		return domain.Category{}, financeErrors.ErrUnauthenticated
	}

	input, err := domain.ValidateCategoryInput(name, categoryType)
	if err != nil {
		return domain.Category{}, err
	}

	category, err := s.repo.UpdateOwned(ctx, identity.UserID, categoryID, input.Name, input.Type)
	if err != nil {
		return domain.Category{}, conflateNotFound(err)
	}
	return category, nil
}

// CreateCategory adds a category owned by the caller.
func (s *CategoryService) CreateCategory(ctx context.Context, identity domain.Identity, name, categoryType string) (domain.Category, error) {
	if !identity.IsAuthenticated() {
		return domain.Category{}, financeErrors.ErrUnauthenticated
	}

	input, err := domain.ValidateCategoryInput(name, categoryType)
	if err != nil {
		return domain.Category{}, err
	}

	category := domain.Category{
		ID:     uuid.NewString(),
		UserID: identity.UserID,
		Name:   input.Name,
		Type:   input.Type,
	}
	if err := s.repo.Create(ctx, &category); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

// conflateNotFound hides whether a category is missing or belongs to someone else.
func conflateNotFound(err error) error {
	if errors.Is(err, financeErrors.ErrCategoryNotFound) {
		return financeErrors.ErrCategoryNotFoundOrForbidden
	}
	return err
}
