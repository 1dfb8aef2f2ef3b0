package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/sebuszqo/FinanceManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceManager/internal/finance/errors"
)

// MockCategoryRepository keeps categories in memory with the same ownership and ordering rules as
// CategoryRepository. Used by tests.
type MockCategoryRepository struct {
	mu         sync.RWMutex
	categories []domain.Category

	// Err, when set, is returned by every call.
	Err error
	// Calls counts repository calls of any kind.
	Calls int
}

func NewMockCategoryRepository(categories ...domain.Category) *MockCategoryRepository {
	m := &MockCategoryRepository{}
	m.categories = append(m.categories, categories...)
	return m
}

func (m *MockCategoryRepository) ListByOwner(_ context.Context, userID string, filter domain.CategoryFilter) ([]domain.Category, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	filtered := []domain.Category{}
	for _, category := range m.categories {
		if category.UserID == userID && filter.Matches(category) {
			filtered = append(filtered, category)
		}
	}
	return filtered, nil
}

func (m *MockCategoryRepository) FindOwned(_ context.Context, userID, categoryID string) (domain.Category, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Err != nil {
		return domain.Category{}, m.Err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, category := range m.categories {
		if category.ID == categoryID && category.UserID == userID {
			return category, nil
		}
	}
	return domain.Category{}, financeErrors.ErrCategoryNotFound
}

func (m *MockCategoryRepository) UpdateOwned(_ context.Context, userID, categoryID, name string, categoryType domain.CategoryType) (domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return domain.Category{}, m.Err
	}

	for i := range m.categories {
		if m.categories[i].ID == categoryID && m.categories[i].UserID == userID {
			m.categories[i].Name = name
			m.categories[i].Type = categoryType
			m.categories[i].UpdatedAt = time.Now()
			return m.categories[i], nil
		}
	}
	return domain.Category{}, financeErrors.ErrCategoryNotFound
}

func (m *MockCategoryRepository) Create(_ context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return m.Err
	}

	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now
	m.categories = append(m.categories, *category)
	return nil
}

// Stored returns a copy of every stored category regardless of owner.
func (m *MockCategoryRepository) Stored() []domain.Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Category(nil), m.categories...)
}
