package interfaces

import (
	"context"

	"github.com/sebuszqo/FinanceManager/internal/finance/domain"
)

type MockCategoryService struct {
	categories []domain.Category
	category   domain.Category
	err        error

	lastIdentity domain.Identity
	lastFilter   domain.CategoryFilter
	lastID       string
	lastName     string
	lastType     string
}

func (m *MockCategoryService) FetchCategories(_ context.Context, identity domain.Identity, filter domain.CategoryFilter) ([]domain.Category, error) {
	m.lastIdentity = identity
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.categories, nil
}

func (m *MockCategoryService) GetCategory(_ context.Context, identity domain.Identity, categoryID string) (domain.Category, error) {
	m.lastIdentity = identity
	m.lastID = categoryID
	if m.err != nil {
		return domain.Category{}, m.err
	}
	return m.category, nil
}

func (m *MockCategoryService) EditCategory(_ context.Context, identity domain.Identity, categoryID, name, categoryType string) (domain.Category, error) {
	m.lastIdentity = identity
	m.lastID = categoryID
	m.lastName = name
	m.lastType = categoryType
	if m.err != nil {
		return domain.Category{}, m.err
	}
	return m.category, nil
}

func (m *MockCategoryService) CreateCategory(_ context.Context, identity domain.Identity, name, categoryType string) (domain.Category, error) {
	m.lastIdentity = identity
	m.lastName = name
	m.lastType = categoryType
	if m.err != nil {
		return domain.Category{}, m.err
	}
	return m.category, nil
}
