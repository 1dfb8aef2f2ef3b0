package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	financeErrors "github.com/sebuszqo/FinanceManager/internal/finance/errors"
)

type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "INCOME"
	CategoryTypeExpense CategoryType = "EXPENSE"
	// CategoryTypeAll is only meaningful in a filter, it is never stored.
	CategoryTypeAll CategoryType = "ALL"
)

const MaxCategoryNameLength = 50

type Category struct {
	ID        string       `json:"id"`
	UserID    string       `json:"-"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Identity is the caller as reported by the identity provider. The zero value means no identity.
type Identity struct {
	UserID string
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != ""
}

type CategoryFilter struct {
	Type        CategoryType
	SearchQuery string
}

// ParseCategoryFilterType accepts INCOME, EXPENSE, ALL or an empty string (ALL).
func ParseCategoryFilterType(raw string) (CategoryType, bool) {
	switch CategoryType(raw) {
	case "", CategoryTypeAll:
		return CategoryTypeAll, true
	case CategoryTypeIncome, CategoryTypeExpense:
		return CategoryType(raw), true
	default:
		return "", false
	}
}

func NewCategoryFilter(categoryType CategoryType, searchQuery string) CategoryFilter {
	if categoryType == "" {
		categoryType = CategoryTypeAll
	}
	return CategoryFilter{Type: categoryType, SearchQuery: strings.TrimSpace(searchQuery)}
}

// Matches applies the filter to a single category. Repositories that cannot push the filter
// down to storage use it directly.
func (f CategoryFilter) Matches(category Category) bool {
	if f.Type != "" && f.Type != CategoryTypeAll && category.Type != f.Type {
		return false
	}
	query := strings.TrimSpace(f.SearchQuery)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(category.Name), strings.ToLower(query))
}

// CategoryInput is a name/type pair that passed ValidateCategoryInput.
type CategoryInput struct {
	Name string
	Type CategoryType
}

// ValidateCategoryInput checks a candidate name and type and reports every violated rule.
// The returned name is trimmed.
func ValidateCategoryInput(name string, categoryType string) (CategoryInput, error) {
	validationErrors := &financeErrors.ValidationErrors{}

	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		validationErrors.Add(financeErrors.NewFieldValidationError("name", "Category name is required"))
	case utf8.RuneCountInString(trimmed) > MaxCategoryNameLength:
		validationErrors.Add(financeErrors.NewFieldValidationError("name",
			fmt.Sprintf("Category name must be at most %d characters long", MaxCategoryNameLength)))
	}

	ct := CategoryType(categoryType)
	if ct != CategoryTypeIncome && ct != CategoryTypeExpense {
		validationErrors.Add(financeErrors.NewFieldValidationError("type", "Type must be 'INCOME' or 'EXPENSE'"))
	}

	if err := validationErrors.ErrorOrNil(); err != nil {
		return CategoryInput{}, err
	}
	return CategoryInput{Name: trimmed, Type: ct}, nil
}

// CategoryRepository takes the owner on every call; there is no unscoped access to categories.
type CategoryRepository interface {
	ListByOwner(ctx context.Context, userID string, filter CategoryFilter) ([]Category, error)
	FindOwned(ctx context.Context, userID, categoryID string) (Category, error)
	UpdateOwned(ctx context.Context, userID, categoryID, name string, categoryType CategoryType) (Category, error)
	Create(ctx context.Context, category *Category) error
}
