// Package users, as part of the user profile management module.
// This file, `service.go`, contains the business logic for profiles and follows.
// It acts as the "Service" layer; persistence sits behind the Store interface.
package users

import (
	"context"
	"strconv"
	"strings"

	"github.com/user/foodgram-go/apperror"
	"github.com/user/foodgram-go/pagination"
)

var (
	// ErrUserNotFound is returned when the target user of an action does not exist.
	ErrUserNotFound = apperror.Coded(apperror.NotFoundError, "user_not_found", "", "user not found")
	// ErrAlreadyFollowing is returned when the follow edge already exists.
	ErrAlreadyFollowing = apperror.Coded(apperror.ConflictError, "already_following", "", "you are already subscribed to this user")
	// ErrSelfFollowForbidden is returned when a user tries to follow themselves.
	ErrSelfFollowForbidden = apperror.Coded(apperror.ConflictError, "self_follow_forbidden", "", "you cannot subscribe to yourself")
	// ErrNotFollowing is returned when removing a follow edge that does not exist.
	ErrNotFollowing = apperror.Coded(apperror.ConflictError, "not_following", "", "you are not subscribed to this user")
	// ErrInvalidRecipesLimit is returned for a recipes_limit that is not a non-negative integer.
	ErrInvalidRecipesLimit = apperror.Coded(apperror.ValidationError, "invalid_recipes_limit", "recipes_limit",
		"recipes_limit must be a non-negative integer")
)

// Store is the persistence the users service needs. PgStore implements it.
type Store interface {
	// ListProfiles returns one page of users (newest first) and the total user count.
	ListProfiles(ctx context.Context, viewerID *int64, limit, offset int) ([]Profile, int64, error)
	// GetProfile returns one user's profile or ErrUserNotFound.
	GetProfile(ctx context.Context, id int64, viewerID *int64) (*Profile, error)
	FollowExists(ctx context.Context, userID, authorID int64) (bool, error)
	// CreateFollow inserts the edge; a unique violation is reported as ErrAlreadyFollowing.
	CreateFollow(ctx context.Context, userID, authorID int64) error
	// DeleteFollow removes the edge and reports whether it existed.
	DeleteFollow(ctx context.Context, userID, authorID int64) (bool, error)
	// ListFollowedAuthors returns one page of authors userID follows, most recent follow first.
	ListFollowedAuthors(ctx context.Context, userID int64, limit, offset int) ([]Profile, int64, error)
	// RecipeCounts returns how many recipes each author has.
	RecipeCounts(ctx context.Context, authorIDs []int64) (map[int64]int64, error)
	// RecentRecipes returns each author's recipes, newest first, at most perAuthor of them
	// when perAuthor is non-nil.
	RecentRecipes(ctx context.Context, authorIDs []int64, perAuthor *int) (map[int64][]RecipePreview, error)
}

// UserService provides methods for user profiles and the follow graph.
type UserService struct {
	store Store
}

// NewUserService creates a new UserService.
func NewUserService(store Store) *UserService {
	return &UserService{store: store}
}

// ListUsers returns one page of profiles.
func (s *UserService) ListUsers(ctx context.Context, viewerID *int64, p pagination.Params) ([]Profile, int64, error) {
	return s.store.ListProfiles(ctx, viewerID, p.Limit, p.Offset())
}

// GetUser returns a single profile as seen by viewerID (nil for anonymous).
func (s *UserService) GetUser(ctx context.Context, id int64, viewerID *int64) (*Profile, error) {
	return s.store.GetProfile(ctx, id, viewerID)
}

// Me returns the caller's own profile. Following yourself is impossible, so
// is_subscribed is always false here.
func (s *UserService) Me(ctx context.Context, userID int64) (*Profile, error) {
	return s.store.GetProfile(ctx, userID, &userID)
}

// Follow subscribes userID to authorID and returns the author's subscription card.
// The checks run in a fixed order: the author must exist, the edge must not exist yet,
// and the two users must differ.
func (s *UserService) Follow(ctx context.Context, userID, authorID int64, recipesLimit *int) (*Subscription, error) {
	author, err := s.store.GetProfile(ctx, authorID, &userID)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.FollowExists(ctx, userID, authorID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyFollowing
	}
	if userID == authorID {
		return nil, ErrSelfFollowForbidden
	}

	if err := s.store.CreateFollow(ctx, userID, authorID); err != nil {
		return nil, err
	}
	author.IsSubscribed = true

	subs, err := s.attachRecipes(ctx, []Profile{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &subs[0], nil
}

// Unfollow removes the follow edge. Removing an edge that does not exist is an error,
// not a silent success.
func (s *UserService) Unfollow(ctx context.Context, userID, authorID int64) error {
	if _, err := s.store.GetProfile(ctx, authorID, nil); err != nil {
		return err
	}
	deleted, err := s.store.DeleteFollow(ctx, userID, authorID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFollowing
	}
	return nil
}

// Subscriptions lists the authors userID follows with their recipe count and newest
// recipes, truncated to recipesLimit when it is set.
func (s *UserService) Subscriptions(ctx context.Context, userID int64, p pagination.Params, recipesLimit *int) ([]Subscription, int64, error) {
	authors, total, err := s.store.ListFollowedAuthors(ctx, userID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	for i := range authors {
		authors[i].IsSubscribed = true
	}
	subs, err := s.attachRecipes(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (s *UserService) attachRecipes(ctx context.Context, authors []Profile, recipesLimit *int) ([]Subscription, error) {
	subs := make([]Subscription, len(authors))
	if len(authors) == 0 {
		return subs, nil
	}

	ids := make([]int64, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	counts, err := s.store.RecipeCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	recipes, err := s.store.RecentRecipes(ctx, ids, recipesLimit)
	if err != nil {
		return nil, err
	}

	for i, a := range authors {
		previews := recipes[a.ID]
		if previews == nil {
			previews = []RecipePreview{}
		}
		subs[i] = Subscription{Profile: a, RecipesCount: counts[a.ID], Recipes: previews}
	}
	return subs, nil
}

// ParseRecipesLimit parses the recipes_limit query parameter. An empty value means
// "no limit" and yields nil.
func ParseRecipesLimit(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, ErrInvalidRecipesLimit
	}
	return &n, nil
}
