package recipes

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/foodgram-go/apperror"
	"github.com/user/foodgram-go/catalog"
	"github.com/user/foodgram-go/db"
	"github.com/user/foodgram-go/users"
)

// PgStore is the PostgreSQL implementation of Store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore over pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const recipeColumns = `r.id, r.author_id, r.name, r.text, r.image, r.cooking_time, r.created_at`

// Create inserts the recipe row, then its tag rows, then its ingredient rows.
func (s *PgStore) Create(ctx context.Context, r *Recipe, tagIDs []int64, ingredients []IngredientAmount) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO recipes (author_id, name, text, image, cooking_time)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			r.AuthorID, r.Name, r.Text, r.Image, r.CookingTime,
		).Scan(&r.ID, &r.CreatedAt)
		if err != nil {
			return apperror.NewDatabaseError("failed to create recipe", err)
		}
		return replaceAssociations(ctx, tx, r.ID, tagIDs, ingredients)
	})
}

// Update rewrites the scalar columns and swaps both association sets. Readers outside the
// transaction see either the old sets or the new ones, never a mix.
func (s *PgStore) Update(ctx context.Context, r *Recipe, tagIDs []int64, ingredients []IngredientAmount) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE recipes SET name = $2, text = $3, image = $4, cooking_time = $5
			WHERE id = $1`,
			r.ID, r.Name, r.Text, r.Image, r.CookingTime,
		)
		if err != nil {
			return apperror.NewDatabaseError("failed to update recipe", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrRecipeNotFound
		}
		return replaceAssociations(ctx, tx, r.ID, tagIDs, ingredients)
	})
}

// replaceAssociations clears the recipe's tag and ingredient rows and writes the new
// sets. Ingredient rows go through COPY.
func replaceAssociations(ctx context.Context, tx pgx.Tx, recipeID int64, tagIDs []int64, ingredients []IngredientAmount) error {
	if _, err := tx.Exec(ctx, `DELETE FROM recipe_tags WHERE recipe_id = $1`, recipeID); err != nil {
		return apperror.NewDatabaseError("failed to clear recipe tags", err)
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO recipe_tags (recipe_id, tag_id)
		SELECT $1, unnest($2::bigint[])`,
		recipeID, tagIDs,
	)
	if err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return ErrDuplicateTag
		}
		return apperror.NewDatabaseError("failed to set recipe tags", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
		return apperror.NewDatabaseError("failed to clear recipe ingredients", err)
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"recipe_ingredients"},
		[]string{"recipe_id", "ingredient_id", "amount"},
		pgx.CopyFromSlice(len(ingredients), func(i int) ([]any, error) {
			return []any{recipeID, ingredients[i].ID, int16(ingredients[i].Amount)}, nil
		}),
	)
	if err != nil {
		if constraint, ok := db.UniqueViolation(err); ok && constraint == "unique_ingredient_in_recipe" {
			return ErrDuplicateIngredient
		}
		return apperror.NewDatabaseError("failed to set recipe ingredients", err)
	}
	return nil
}

// Delete removes the recipe; its tag, ingredient, favorite and cart rows cascade.
func (s *PgStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return apperror.NewDatabaseError("failed to delete recipe", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

// Get loads one recipe row.
func (s *PgStore) Get(ctx context.Context, id int64) (*Recipe, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+recipeColumns+` FROM recipes r WHERE r.id = $1`, id)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load recipe", err)
	}
	r, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[Recipe])
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrRecipeNotFound
		}
		return nil, apperror.NewDatabaseError("failed to load recipe", err)
	}
	return &r, nil
}

// List builds the WHERE clause from the filter, one numbered placeholder per argument.
func (s *PgStore) List(ctx context.Context, f ListFilter) ([]Recipe, int64, error) {
	var conditions []string
	var args []any
	argID := 1

	if f.AuthorID != nil {
		conditions = append(conditions, fmt.Sprintf("r.author_id = $%d", argID))
		args = append(args, *f.AuthorID)
		argID++
	}
	if len(f.TagSlugs) > 0 {
		conditions = append(conditions, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug = ANY($%d))`, argID))
		args = append(args, f.TagSlugs)
		argID++
	}
	if f.ViewerID != nil && f.Favorited {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM favorites fv WHERE fv.recipe_id = r.id AND fv.user_id = $%d)", argID))
		args = append(args, *f.ViewerID)
		argID++
	}
	if f.ViewerID != nil && f.InShoppingCart {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM shopping_cart sc WHERE sc.recipe_id = r.id AND sc.user_id = $%d)", argID))
		args = append(args, *f.ViewerID)
		argID++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM recipes r `+where, args...).Scan(&total); err != nil {
		return nil, 0, apperror.NewDatabaseError("failed to count recipes", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM recipes r
		%s
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $%d OFFSET $%d`,
		recipeColumns, where, argID, argID+1,
	)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperror.NewDatabaseError("failed to list recipes", err)
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Recipe])
	if err != nil {
		return nil, 0, apperror.NewDatabaseError("failed to scan recipes", err)
	}
	return list, total, nil
}

// TagsFor loads the tags of every recipe in recipeIDs.
func (s *PgStore) TagsFor(ctx context.Context, recipeIDs []int64) (map[int64][]catalog.Tag, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
		FROM recipe_tags rt
		JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id = ANY($1)
		ORDER BY rt.recipe_id, t.id`,
		recipeIDs,
	)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load recipe tags", err)
	}
	defer rows.Close()

	out := make(map[int64][]catalog.Tag, len(recipeIDs))
	for rows.Next() {
		var recipeID int64
		var t catalog.Tag
		if err := rows.Scan(&recipeID, &t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan recipe tags", err)
		}
		out[recipeID] = append(out[recipeID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to read recipe tags", err)
	}
	return out, nil
}

// IngredientsFor joins the ingredient rows of every recipe in recipeIDs with the catalog,
// keeping the order they were written in.
func (s *PgStore) IngredientsFor(ctx context.Context, recipeIDs []int64) (map[int64][]RecipeIngredient, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ANY($1)
		ORDER BY ri.recipe_id, ri.id`,
		recipeIDs,
	)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load recipe ingredients", err)
	}
	defer rows.Close()

	out := make(map[int64][]RecipeIngredient, len(recipeIDs))
	for rows.Next() {
		var recipeID int64
		var ri RecipeIngredient
		if err := rows.Scan(&recipeID, &ri.ID, &ri.Name, &ri.MeasurementUnit, &ri.Amount); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan recipe ingredients", err)
		}
		out[recipeID] = append(out[recipeID], ri)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to read recipe ingredients", err)
	}
	return out, nil
}

// Authors loads author profiles. A NULL viewer never matches a follows row.
func (s *PgStore) Authors(ctx context.Context, authorIDs []int64, viewerID *int64) (map[int64]users.Profile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.email, u.id, u.username, u.first_name, u.last_name,
		       EXISTS (SELECT 1 FROM follows f WHERE f.user_id = $2 AND f.author_id = u.id)
		FROM users u
		WHERE u.id = ANY($1)`,
		authorIDs, viewerID,
	)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load authors", err)
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByPos[users.Profile])
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to scan authors", err)
	}

	out := make(map[int64]users.Profile, len(list))
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

// ViewerFlags reads the viewer's favorites and cart rows for recipeIDs.
func (s *PgStore) ViewerFlags(ctx context.Context, viewerID int64, recipeIDs []int64) (map[int64]bool, map[int64]bool, error) {
	favorited, err := s.edgeSet(ctx, Favorites, viewerID, recipeIDs)
	if err != nil {
		return nil, nil, err
	}
	inCart, err := s.edgeSet(ctx, ShoppingCart, viewerID, recipeIDs)
	if err != nil {
		return nil, nil, err
	}
	return favorited, inCart, nil
}

func (s *PgStore) edgeSet(ctx context.Context, edge Edge, userID int64, recipeIDs []int64) (map[int64]bool, error) {
	table, err := edgeTable(edge)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT recipe_id FROM `+table+` WHERE user_id = $1 AND recipe_id = ANY($2)`, userID, recipeIDs)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load "+table, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to scan "+table, err)
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// EdgeExists reports whether userID has recipeID in the given list.
func (s *PgStore) EdgeExists(ctx context.Context, edge Edge, userID, recipeID int64) (bool, error) {
	table, err := edgeTable(edge)
	if err != nil {
		return false, err
	}
	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE user_id = $1 AND recipe_id = $2)`, userID, recipeID,
	).Scan(&exists)
	if err != nil {
		return false, apperror.NewDatabaseError("failed to check "+table, err)
	}
	return exists, nil
}

// AddEdge inserts the (user, recipe) row.
func (s *PgStore) AddEdge(ctx context.Context, edge Edge, userID, recipeID int64) error {
	table, err := edgeTable(edge)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO `+table+` (user_id, recipe_id) VALUES ($1, $2)`, userID, recipeID)
	if err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return ErrAlreadyAdded
		}
		return apperror.NewDatabaseError("failed to add to "+table, err)
	}
	return nil
}

// RemoveEdge deletes the (user, recipe) row.
func (s *PgStore) RemoveEdge(ctx context.Context, edge Edge, userID, recipeID int64) (bool, error) {
	table, err := edgeTable(edge)
	if err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1 AND recipe_id = $2`, userID, recipeID)
	if err != nil {
		return false, apperror.NewDatabaseError("failed to remove from "+table, err)
	}
	return tag.RowsAffected() > 0, nil
}

// CartSize counts the recipes in the user's cart.
func (s *PgStore) CartSize(ctx context.Context, userID int64) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM shopping_cart WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, apperror.NewDatabaseError("failed to count shopping cart", err)
	}
	return n, nil
}

// CartLines returns the raw ingredient rows of every recipe in the cart.
func (s *PgStore) CartLines(ctx context.Context, userID int64) ([]CartLine, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT i.name, i.measurement_unit, ri.amount::bigint
		FROM shopping_cart sc
		JOIN recipe_ingredients ri ON ri.recipe_id = sc.recipe_id
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE sc.user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load shopping cart", err)
	}
	lines, err := pgx.CollectRows(rows, pgx.RowToStructByPos[CartLine])
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to scan shopping cart", err)
	}
	return lines, nil
}

// edgeTable maps an Edge to its table. Table names are spliced into SQL, so only the two
// known values are accepted.
func edgeTable(edge Edge) (string, error) {
	switch edge {
	case Favorites:
		return "favorites", nil
	case ShoppingCart:
		return "shopping_cart", nil
	default:
		return "", apperror.NewInternalError(fmt.Sprintf("unknown recipe list %q", edge), nil)
	}
}
