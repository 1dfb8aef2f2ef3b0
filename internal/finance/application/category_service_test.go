package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sebuszqo/FinanceManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceManager/internal/finance/errors"
	"github.com/sebuszqo/FinanceManager/internal/finance/infrastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = domain.Identity{UserID: "alice"}
	bob   = domain.Identity{UserID: "bob"}
)

func newTestService(t *testing.T) (*CategoryService, *infrastructure.MockCategoryRepository) {
	t.Helper()
	repo := infrastructure.NewMockCategoryRepository(
		domain.Category{ID: "c-rent", UserID: "alice", Name: "Rent", Type: domain.CategoryTypeIncome},
		domain.Category{ID: "c-internet", UserID: "alice", Name: "Internet", Type: domain.CategoryTypeExpense},
		domain.Category{ID: "c-renter", UserID: "alice", Name: "Renter Insurance", Type: domain.CategoryTypeIncome},
		domain.Category{ID: "c-bob", UserID: "bob", Name: "Rent", Type: domain.CategoryTypeIncome},
	)
	return NewCategoryService(repo), repo
}

func names(categories []domain.Category) []string {
	result := make([]string, 0, len(categories))
	for _, category := range categories {
		result = append(result, category.Name)
	}
	return result
}

func TestFetchCategories_OwnerOnly(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	categories, err := service.FetchCategories(ctx, alice, domain.NewCategoryFilter(domain.CategoryTypeAll, ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"Rent", "Internet", "Renter Insurance"}, names(categories))
	for _, category := range categories {
		assert.Equal(t, "alice", category.UserID)
		assert.NotEqual(t, "c-bob", category.ID)
	}

	categories, err = service.FetchCategories(ctx, bob, domain.NewCategoryFilter(domain.CategoryTypeAll, ""))
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "c-bob", categories[0].ID)
}

func TestFetchCategories_TypeAndSearchCombine(t *testing.T) {
	service, _ := newTestService(t)

	categories, err := service.FetchCategories(context.Background(), alice, domain.NewCategoryFilter(domain.CategoryTypeIncome, "rent"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Rent", "Renter Insurance"}, names(categories))
}

func TestFetchCategories_EmptyResultIsNotAnError(t *testing.T) {
	service, _ := newTestService(t)

	categories, err := service.FetchCategories(context.Background(), domain.Identity{UserID: "carol"}, domain.NewCategoryFilter("", ""))
	require.NoError(t, err)
	assert.NotNil(t, categories)
	assert.Empty(t, categories)
}

func TestFetchCategories_Unauthenticated(t *testing.T) {
	service, repo := newTestService(t)

	_, err := service.FetchCategories(context.Background(), domain.Identity{}, domain.NewCategoryFilter("", ""))
	assert.ErrorIs(t, err, financeErrors.ErrUnauthenticated)
	assert.Zero(t, repo.Calls)
}

func TestEditCategory_Success(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	updated, err := service.EditCategory(ctx, alice, "c-internet", "  Home Internet ", "EXPENSE")
	require.NoError(t, err)
	assert.Equal(t, "Home Internet", updated.Name)
	assert.Equal(t, domain.CategoryTypeExpense, updated.Type)

	categories, err := service.FetchCategories(ctx, alice, domain.NewCategoryFilter(domain.CategoryTypeAll, "home"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Home Internet"}, names(categories))
}

func TestEditCategory_Idempotent(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	first, err := service.EditCategory(ctx, alice, "c-internet", "Groceries", "EXPENSE")
	require.NoError(t, err)
	afterFirst := repo.Stored()

	second, err := service.EditCategory(ctx, alice, "c-internet", "Groceries", "EXPENSE")
	require.NoError(t, err)
	afterSecond := repo.Stored()

	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, first.Type, second.Type)
	require.Len(t, afterSecond, len(afterFirst))
	for i := range afterFirst {
		assert.Equal(t, afterFirst[i].Name, afterSecond[i].Name)
		assert.Equal(t, afterFirst[i].Type, afterSecond[i].Type)
	}
}

func TestEditCategory_OtherOwnerIsNotFoundOrForbidden(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.EditCategory(ctx, bob, "c-rent", "x", "INCOME")
	assert.ErrorIs(t, err, financeErrors.ErrCategoryNotFoundOrForbidden)

	_, missingErr := service.EditCategory(ctx, bob, "does-not-exist", "x", "INCOME")
	assert.ErrorIs(t, missingErr, financeErrors.ErrCategoryNotFoundOrForbidden)
	assert.Equal(t, err.Error(), missingErr.Error())

	categories, err := service.FetchCategories(ctx, alice, domain.NewCategoryFilter(domain.CategoryTypeIncome, ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"Rent", "Renter Insurance"}, names(categories))
}

func TestEditCategory_EmptyNameNeverTouchesStorage(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	_, err := service.EditCategory(ctx, alice, "c-rent", "", "INCOME")
	var validationErrors *financeErrors.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
	assert.Contains(t, validationErrors.Fields(), "name")
	assert.Zero(t, repo.Calls)

	categories, err := service.FetchCategories(ctx, alice, domain.NewCategoryFilter(domain.CategoryTypeIncome, ""))
	require.NoError(t, err)
	assert.Equal(t, "Rent", categories[0].Name)
}

func TestEditCategory_InvalidTypeIsRejected(t *testing.T) {
	service, repo := newTestService(t)

	_, err := service.EditCategory(context.Background(), alice, "c-rent", "Food", "SAVINGS")
	var validationErrors *financeErrors.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
	assert.Contains(t, validationErrors.Fields(), "type")
	assert.Zero(t, repo.Calls)
}

func TestEditCategory_UnauthenticatedBeforeValidation(t *testing.T) {
	service, repo := newTestService(t)

	_, err := service.EditCategory(context.Background(), domain.Identity{}, "c-rent", "", "SAVINGS")
	assert.ErrorIs(t, err, financeErrors.ErrUnauthenticated)
	assert.False(t, financeErrors.IsValidationErrors(err))
	assert.Zero(t, repo.Calls)
}

func TestEditCategory_StorageUnavailablePassesThrough(t *testing.T) {
	service, repo := newTestService(t)
	repo.Err = fmt.Errorf("%w: connection refused", financeErrors.ErrStorageUnavailable)

	_, err := service.EditCategory(context.Background(), alice, "c-rent", "Salary", "INCOME")
	assert.ErrorIs(t, err, financeErrors.ErrStorageUnavailable)
	assert.NotErrorIs(t, err, financeErrors.ErrCategoryNotFoundOrForbidden)

	_, err = service.FetchCategories(context.Background(), alice, domain.NewCategoryFilter("", ""))
	assert.ErrorIs(t, err, financeErrors.ErrStorageUnavailable)
}

func TestEditCategory_ConcurrentEditsKeepOnePayload(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	payloads := []struct {
		name         string
		categoryType string
	}{
		{"Salary", "INCOME"},
		{"Groceries", "EXPENSE"},
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		payload := payloads[i%2]
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.EditCategory(ctx, alice, "c-rent", payload.name, payload.categoryType)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var final domain.Category
	for _, category := range repo.Stored() {
		if category.ID == "c-rent" {
			final = category
		}
	}
	switch final.Name {
	case "Salary":
		assert.Equal(t, domain.CategoryTypeIncome, final.Type)
	case "Groceries":
		assert.Equal(t, domain.CategoryTypeExpense, final.Type)
	default:
		t.Fatalf("unexpected final name %q", final.Name)
	}
}

func TestGetCategory(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	category, err := service.GetCategory(ctx, alice, "c-rent")
	require.NoError(t, err)
	assert.Equal(t, "Rent", category.Name)

	_, err = service.GetCategory(ctx, bob, "c-rent")
	assert.ErrorIs(t, err, financeErrors.ErrCategoryNotFoundOrForbidden)

	_, err = service.GetCategory(ctx, domain.Identity{}, "c-rent")
	assert.ErrorIs(t, err, financeErrors.ErrUnauthenticated)
}

func TestCreateCategory(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	created, err := service.CreateCategory(ctx, bob, " Freelance ", "INCOME")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "bob", created.UserID)
	assert.Equal(t, "Freelance", created.Name)
	assert.False(t, created.CreatedAt.IsZero())

	categories, err := service.FetchCategories(ctx, bob, domain.NewCategoryFilter(domain.CategoryTypeAll, ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"Rent", "Freelance"}, names(categories))

	callsBefore := repo.Calls
	_, err = service.CreateCategory(ctx, bob, "", "LOAN")
	var validationErrors *financeErrors.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
	assert.Len(t, validationErrors.Errors, 2)
	assert.Equal(t, callsBefore, repo.Calls)

	_, err = service.CreateCategory(ctx, domain.Identity{}, "Freelance", "INCOME")
	assert.ErrorIs(t, err, financeErrors.ErrUnauthenticated)
}

func TestCreateCategory_RepositoryError(t *testing.T) {
	service, repo := newTestService(t)
	repo.Err = errors.New("unexpected")

	_, err := service.CreateCategory(context.Background(), bob, "Freelance", "INCOME")
	assert.EqualError(t, err, "unexpected")
}
