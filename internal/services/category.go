package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/HerbHall/videocatalog/internal/store"
	"github.com/HerbHall/videocatalog/pkg/models"
	"github.com/HerbHall/videocatalog/pkg/seedwork"
)

// Compile-time interface guard.
var _ CategoryRepository = (*SQLiteCategoryRepository)(nil)

// createdAtLayout is fixed width so that created_at sorts chronologically as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

var categoryMigrations = []store.Migration{
	{
		Version:     1,
		Description: "create categories table",
		Up: func(tx *sql.Tx) error {
			stmts := []string{
				`CREATE TABLE categories (
					id          TEXT PRIMARY KEY,
					name        TEXT NOT NULL,
					description TEXT,
					is_active   INTEGER NOT NULL DEFAULT 1,
					created_at  TEXT NOT NULL
				)`,
				`CREATE INDEX idx_categories_name ON categories(name)`,
				`CREATE INDEX idx_categories_created_at ON categories(created_at)`,
			}
			for _, stmt := range stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

// categorySortColumns maps allow-listed sort keys to columns.
var categorySortColumns = map[string]string{
	SortByName:      "name",
	SortByCreatedAt: "created_at",
}

// SQLiteCategoryRepository implements CategoryRepository on the categories
// table. Insertion order is the table's rowid order, which an UPDATE keeps.
type SQLiteCategoryRepository struct {
	db *sql.DB
}

// NewSQLiteCategoryRepository runs the category migrations and returns a
// repository over the store's database.
func NewSQLiteCategoryRepository(ctx context.Context, s *store.SQLiteStore) (*SQLiteCategoryRepository, error) {
	if err := s.Migrate(ctx, "categories", categoryMigrations); err != nil {
		return nil, fmt.Errorf("category migrations: %w", err)
	}
	return &SQLiteCategoryRepository{db: s.DB()}, nil
}

const categoryColumns = `id, name, description, is_active, created_at`

func (r *SQLiteCategoryRepository) Insert(ctx context.Context, c models.Category) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		c.ID(), c.Name(), nullString(c.Description()), c.IsActive(), formatCreatedAt(c.CreatedAt()),
	)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("insert category %q: %w", c.ID(), ErrAlreadyExists)
	}
	return nil
}

func (r *SQLiteCategoryRepository) Update(ctx context.Context, c models.Category) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET
			name = ?, description = ?, is_active = ?, created_at = ?
		WHERE id = ?`,
		c.Name(), nullString(c.Description()), c.IsActive(), formatCreatedAt(c.CreatedAt()),
		c.ID(),
	)
	if err != nil {
		return false, fmt.Errorf("update category: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *SQLiteCategoryRepository) Delete(ctx context.Context, c models.Category) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, c.ID())
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *SQLiteCategoryRepository) FindByID(ctx context.Context, id string) (models.Category, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Category{}, false, nil
		}
		return models.Category{}, false, fmt.Errorf("get category %q: %w", id, err)
	}
	return c, true, nil
}

func (r *SQLiteCategoryRepository) FindAll(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return collectCategories(rows)
}

func (r *SQLiteCategoryRepository) SortableFields() []string {
	out := make([]string, len(CategorySortableFields))
	copy(out, CategorySortableFields)
	return out
}

// Search counts the filtered rows, then reads one page. Ties on the sort
// column fall back to rowid so paging over equal keys is deterministic in
// both directions.
func (r *SQLiteCategoryRepository) Search(ctx context.Context, params seedwork.SearchParams) (seedwork.SearchResult[models.Category], error) {
	where := "1=1"
	var args []any
	if params.HasFilter() {
		where += " AND instr(lower(name), lower(?)) > 0"
		args = append(args, params.Filter())
	}

	var total int
	//nolint:gosec // where uses parameterized placeholders only
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM categories WHERE "+where, args...,
	).Scan(&total)
	if err != nil {
		return seedwork.SearchResult[models.Category]{}, fmt.Errorf("count categories: %w", err)
	}

	orderBy := "rowid"
	if col, ok := categorySortColumns[params.Sort()]; ok {
		dir := "ASC"
		if params.SortDir() == seedwork.SortDesc {
			dir = "DESC"
		}
		orderBy = fmt.Sprintf("%s %s, rowid ASC", col, dir)
	}

	queryArgs := make([]any, 0, len(args)+2)
	queryArgs = append(queryArgs, args...)
	queryArgs = append(queryArgs, params.PerPage(), params.Offset())

	//nolint:gosec // where and orderBy are built from allow-listed values
	query := fmt.Sprintf(
		"SELECT %s FROM categories WHERE %s ORDER BY %s LIMIT ? OFFSET ?",
		categoryColumns, where, orderBy,
	)
	rows, err := r.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return seedwork.SearchResult[models.Category]{}, fmt.Errorf("search categories: %w", err)
	}
	items, err := collectCategories(rows)
	if err != nil {
		return seedwork.SearchResult[models.Category]{}, err
	}

	return seedwork.NewSearchResult(items, total, params), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanCategory rebuilds a category from a row. Rows that no longer pass
// validation are reported as seedwork.ErrLoadEntity.
func scanCategory(row rowScanner) (models.Category, error) {
	var (
		id, name, createdAt string
		description         sql.NullString
		isActive            bool
	)
	if err := row.Scan(&id, &name, &description, &isActive, &createdAt); err != nil {
		return models.Category{}, err
	}

	created, err := time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return models.Category{}, fmt.Errorf("%w: category %q created_at: %w", seedwork.ErrLoadEntity, id, err)
	}

	props := models.CategoryProps{
		Name:      name,
		IsActive:  &isActive,
		CreatedAt: created,
	}
	if description.Valid {
		props.Description = &description.String
	}

	c, err := models.RestoreCategory(id, props)
	if err != nil {
		return models.Category{}, fmt.Errorf("%w: category %q: %w", seedwork.ErrLoadEntity, id, err)
	}
	return c, nil
}

func collectCategories(rows *sql.Rows) ([]models.Category, error) {
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func formatCreatedAt(t time.Time) string {
	return t.UTC().Format(createdAtLayout)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
