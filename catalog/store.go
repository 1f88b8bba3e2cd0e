package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/foodgram-go/apperror"
	"github.com/user/foodgram-go/db"
)

// PgStore is the PostgreSQL implementation of Store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore over pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// ListIngredients returns ingredients ordered by name, optionally filtered by name prefix.
// The prefix match uses lower(name) so the trigram index can serve it.
func (s *PgStore) ListIngredients(ctx context.Context, namePrefix string) ([]Ingredient, error) {
	query := `SELECT id, name, measurement_unit FROM ingredients`
	var args []interface{}
	if namePrefix != "" {
		query += ` WHERE lower(name) LIKE $1`
		args = append(args, escapeLike(strings.ToLower(namePrefix))+"%")
	}
	query += ` ORDER BY name, measurement_unit`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list ingredients", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Ingredient, error) {
		var ing Ingredient
		err := row.Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit)
		return ing, err
	})
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to scan ingredients", err)
	}
	return list, nil
}

// GetIngredient loads one ingredient.
func (s *PgStore) GetIngredient(ctx context.Context, id int64) (*Ingredient, error) {
	var ing Ingredient
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = $1`, id,
	).Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("ingredient with ID %d not found", id), nil)
		}
		return nil, apperror.NewDatabaseError("failed to load ingredient", err)
	}
	return &ing, nil
}

// CreateIngredient inserts ing and fills its ID.
func (s *PgStore) CreateIngredient(ctx context.Context, ing *Ingredient) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO ingredients (name, measurement_unit) VALUES ($1, $2) RETURNING id`,
		ing.Name, ing.MeasurementUnit,
	).Scan(&ing.ID)
	if err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return ErrIngredientExists
		}
		return apperror.NewDatabaseError("failed to create ingredient", err)
	}
	return nil
}

// ExistingIngredientIDs returns the subset of ids present in the ingredients table.
func (s *PgStore) ExistingIngredientIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	return existingIDs(ctx, s.pool, `SELECT id FROM ingredients WHERE id = ANY($1)`, ids)
}

// BulkInsertIngredients inserts items in a single statement, silently skipping pairs that
// already exist. unnest keeps it to one round trip regardless of the file size.
func (s *PgStore) BulkInsertIngredients(ctx context.Context, items []Ingredient) (int64, error) {
	names := make([]string, len(items))
	units := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
		units[i] = it.MeasurementUnit
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO ingredients (name, measurement_unit)
		SELECT * FROM unnest($1::text[], $2::text[])
		ON CONFLICT (name, measurement_unit) DO NOTHING`,
		names, units,
	)
	if err != nil {
		return 0, apperror.NewDatabaseError("failed to load ingredients", err)
	}
	return tag.RowsAffected(), nil
}

// ListTags returns every tag ordered by name.
func (s *PgStore) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, color, slug FROM tags ORDER BY name`)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list tags", err)
	}
	list, err := pgx.CollectRows(rows, scanTag)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to scan tags", err)
	}
	return list, nil
}

// GetTag loads one tag.
func (s *PgStore) GetTag(ctx context.Context, id int64) (*Tag, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, color, slug FROM tags WHERE id = $1`, id)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load tag", err)
	}
	tag, err := pgx.CollectOneRow(rows, scanTag)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("tag with ID %d not found", id), nil)
		}
		return nil, apperror.NewDatabaseError("failed to load tag", err)
	}
	return &tag, nil
}

// CreateTag inserts tag and fills its ID. Each unique constraint is reported on its own field.
func (s *PgStore) CreateTag(ctx context.Context, tag *Tag) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tags (name, color, slug) VALUES ($1, $2, $3) RETURNING id`,
		tag.Name, tag.Color, tag.Slug,
	).Scan(&tag.ID)
	if err != nil {
		if constraint, ok := db.UniqueViolation(err); ok {
			switch constraint {
			case "tags_color_key":
				return ErrTagExists.WithField("color", "a tag with this color already exists")
			case "tags_slug_key":
				return ErrTagExists.WithField("slug", "a tag with this slug already exists")
			default:
				return ErrTagExists
			}
		}
		return apperror.NewDatabaseError("failed to create tag", err)
	}
	return nil
}

// ExistingTagIDs returns the subset of ids present in the tags table.
func (s *PgStore) ExistingTagIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	return existingIDs(ctx, s.pool, `SELECT id FROM tags WHERE id = ANY($1)`, ids)
}

func scanTag(row pgx.CollectableRow) (Tag, error) {
	var t Tag
	err := row.Scan(&t.ID, &t.Name, &t.Color, &t.Slug)
	return t, err
}

func existingIDs(ctx context.Context, q db.Querier, query string, ids []int64) (map[int64]bool, error) {
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to check ids", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to scan ids", err)
	}
	out := make(map[int64]bool, len(found))
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

// escapeLike neutralizes LIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
