package users

import (
	"context"

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

// profileColumns selects a profile for the viewer bound to $1. A NULL viewer never
// matches a follows row, so anonymous viewers get is_subscribed = false.
const profileColumns = `
	u.email, u.id, u.username, u.first_name, u.last_name,
	EXISTS (SELECT 1 FROM follows f WHERE f.user_id = $1 AND f.author_id = u.id) AS is_subscribed`

func scanProfile(row pgx.CollectableRow) (Profile, error) {
	var p Profile
	err := row.Scan(&p.Email, &p.ID, &p.Username, &p.FirstName, &p.LastName, &p.IsSubscribed)
	return p, err
}

// ListProfiles returns users newest first.
func (s *PgStore) ListProfiles(ctx context.Context, viewerID *int64, limit, offset int) ([]Profile, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, apperror.NewDatabaseError("failed to count users", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM users u
		ORDER BY u.id DESC
		LIMIT $2 OFFSET $3`,
		viewerID, limit, offset,
	)
	if err != nil {
		return nil, 0, apperror.NewDatabaseError("failed to list users", err)
	}
	list, err := pgx.CollectRows(rows, scanProfile)
	if err != nil {
		return nil, 0, apperror.NewDatabaseError("failed to scan users", err)
	}
	return list, total, nil
}

// GetProfile loads one profile.
func (s *PgStore) GetProfile(ctx context.Context, id int64, viewerID *int64) (*Profile, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+profileColumns+` FROM users u WHERE u.id = $2`, viewerID, id)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load user", err)
	}
	p, err := pgx.CollectOneRow(rows, scanProfile)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, apperror.NewDatabaseError("failed to load user", err)
	}
	return &p, nil
}

// FollowExists reports whether userID follows authorID.
func (s *PgStore) FollowExists(ctx context.Context, userID, authorID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE user_id = $1 AND author_id = $2)`, userID, authorID,
	).Scan(&exists)
	if err != nil {
		return false, apperror.NewDatabaseError("failed to check subscription", err)
	}
	return exists, nil
}

// CreateFollow inserts the follow edge.
func (s *PgStore) CreateFollow(ctx context.Context, userID, authorID int64) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO follows (user_id, author_id) VALUES ($1, $2)`, userID, authorID)
	if err != nil {
		if constraint, ok := db.UniqueViolation(err); ok && constraint == "unique_subscription" {
			return ErrAlreadyFollowing
		}
		return apperror.NewDatabaseError("failed to create subscription", err)
	}
	return nil
}

// DeleteFollow removes the follow edge.
func (s *PgStore) DeleteFollow(ctx context.Context, userID, authorID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM follows WHERE user_id = $1 AND author_id = $2`, userID, authorID)
	if err != nil {
		return false, apperror.NewDatabaseError("failed to delete subscription", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListFollowedAuthors returns the authors userID follows, most recent follow first.
func (s *PgStore) ListFollowedAuthors(ctx context.Context, userID int64, limit, offset int) ([]Profile, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM follows WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, apperror.NewDatabaseError("failed to count subscriptions", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT u.email, u.id, u.username, u.first_name, u.last_name, TRUE
		FROM follows f
		JOIN users u ON u.id = f.author_id
		WHERE f.user_id = $1
		ORDER BY f.id DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, apperror.NewDatabaseError("failed to list subscriptions", err)
	}
	list, err := pgx.CollectRows(rows, scanProfile)
	if err != nil {
		return nil, 0, apperror.NewDatabaseError("failed to scan subscriptions", err)
	}
	return list, total, nil
}

// RecipeCounts counts recipes per author. Authors without recipes are absent from the map.
func (s *PgStore) RecipeCounts(ctx context.Context, authorIDs []int64) (map[int64]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT author_id, count(*)
		FROM recipes
		WHERE author_id = ANY($1)
		GROUP BY author_id`,
		authorIDs,
	)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to count recipes", err)
	}
	defer rows.Close()

	counts := make(map[int64]int64, len(authorIDs))
	for rows.Next() {
		var authorID, n int64
		if err := rows.Scan(&authorID, &n); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan recipe counts", err)
		}
		counts[authorID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to read recipe counts", err)
	}
	return counts, nil
}

// RecentRecipes loads recipe previews per author with a single windowed query.
func (s *PgStore) RecentRecipes(ctx context.Context, authorIDs []int64, perAuthor *int) (map[int64][]RecipePreview, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT author_id, id, name, image, cooking_time
		FROM (
			SELECT r.author_id, r.id, r.name, r.image, r.cooking_time, r.created_at,
			       row_number() OVER (PARTITION BY r.author_id ORDER BY r.created_at DESC, r.id DESC) AS rn
			FROM recipes r
			WHERE r.author_id = ANY($1)
		) ranked
		WHERE $2::int IS NULL OR rn <= $2::int
		ORDER BY author_id, created_at DESC, id DESC`,
		authorIDs, perAuthor,
	)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load recipes", err)
	}
	defer rows.Close()

	out := make(map[int64][]RecipePreview, len(authorIDs))
	for rows.Next() {
		var authorID int64
		var r RecipePreview
		if err := rows.Scan(&authorID, &r.ID, &r.Name, &r.Image, &r.CookingTime); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan recipes", err)
		}
		out[authorID] = append(out[authorID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to read recipes", err)
	}
	return out, nil
}
