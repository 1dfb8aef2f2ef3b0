package infrastructure

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sebuszqo/FinanceManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceManager/internal/finance/errors"
)

const categoryColumns = "id, user_id, name, type, created_at, updated_at"

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListByOwner returns the owner's categories in insertion order (created_at, then id).
func (r *CategoryRepository) ListByOwner(ctx context.Context, userID string, filter domain.CategoryFilter) ([]domain.Category, error) {
	query := "SELECT " + categoryColumns + " FROM user_categories WHERE user_id = $1"
	args := []interface{}{userID}

	if filter.Type != "" && filter.Type != domain.CategoryTypeAll {
		args = append(args, string(filter.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if search := strings.TrimSpace(filter.SearchQuery); search != "" {
		args = append(args, "%"+escapeLikePattern(search)+"%")
		query += fmt.Sprintf(` AND name ILIKE $%d ESCAPE '\'`, len(args))
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, classifyStorageError(err)
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return nil, classifyStorageError(err)
	}

	return categories, nil
}

func (r *CategoryRepository) FindOwned(ctx context.Context, userID, categoryID string) (domain.Category, error) {
	if _, err := uuid.Parse(categoryID); err != nil {
		return domain.Category{}, financeErrors.ErrCategoryNotFound
	}

	query := "SELECT " + categoryColumns + " FROM user_categories WHERE id = $1 AND user_id = $2"
	category, err := scanCategory(r.db.QueryRowContext(ctx, query, categoryID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Category{}, financeErrors.ErrCategoryNotFound
		}
		return domain.Category{}, classifyStorageError(err)
	}
	return category, nil
}

// UpdateOwned writes name and type in one statement whose predicate carries both the id and the
// owner, so the ownership check and the write cannot be separated. The write is detached from
// ctx cancellation once issued.
func (r *CategoryRepository) UpdateOwned(ctx context.Context, userID, categoryID, name string, categoryType domain.CategoryType) (domain.Category, error) {
	if _, err := uuid.Parse(categoryID); err != nil {
		return domain.Category{}, financeErrors.ErrCategoryNotFound
	}

	query := `
		UPDATE user_categories
		SET name = $1, type = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING ` + categoryColumns

	row := r.db.QueryRowContext(context.WithoutCancel(ctx), query, name, string(categoryType), categoryID, userID)
	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Category{}, financeErrors.ErrCategoryNotFound
		}
		return domain.Category{}, classifyStorageError(err)
	}
	return category, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO user_categories (id, user_id, name, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(context.WithoutCancel(ctx), query,
		category.ID, category.UserID, category.Name, string(category.Type),
	).Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return classifyStorageError(err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCategory(row rowScanner) (domain.Category, error) {
	var category domain.Category
	var categoryType string
	err := row.Scan(&category.ID, &category.UserID, &category.Name, &categoryType, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return domain.Category{}, err
	}
	category.Type = domain.CategoryType(categoryType)
	return category, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLikePattern makes the user's search text match literally inside an ILIKE pattern.
func escapeLikePattern(s string) string {
	return likeEscaper.Replace(s)
}

// classifyStorageError marks infrastructure failures (unreachable server, broken connection,
// timeouts) with ErrStorageUnavailable. Anything else is returned as an unexpected fault.
func classifyStorageError(err error) error {
	if err == nil {
		return nil
	}
	if isTransientStorageError(err) {
		return fmt.Errorf("%w: %w", financeErrors.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("category storage: %w", err)
}

func isTransientStorageError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		pgconn.Timeout(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08: connection exception, 57P0x: operator intervention (shutdown, cannot connect now)
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0")
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
