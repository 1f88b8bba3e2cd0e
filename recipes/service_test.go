package recipes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/foodgram-go/apperror"
	"github.com/user/foodgram-go/auth"
	"github.com/user/foodgram-go/catalog"
	"github.com/user/foodgram-go/users"
	"github.com/user/foodgram-go/validation"
)

type storedRecipe struct {
	Recipe
	tagIDs      []int64
	ingredients []IngredientAmount
}

type edgeKey struct {
	edge           Edge
	user, recipeID int64
}

// memStore is an in-memory Store that also plays the catalog and the account lookup.
// It counts the calls the tests need to prove were (not) made.
type memStore struct {
	mu          sync.Mutex
	nextID      int64
	clock       time.Time
	recipes     map[int64]*storedRecipe
	ingredients map[int64]catalog.Ingredient
	tags        map[int64]catalog.Tag
	users       map[int64]auth.User
	follows     map[[2]int64]bool
	edges       map[edgeKey]bool

	viewerFlagCalls int
	cartLineCalls   int
	failWrites      error
}

func newMemStore() *memStore {
	return &memStore{
		clock:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		recipes: map[int64]*storedRecipe{},
		ingredients: map[int64]catalog.Ingredient{
			1: {ID: 1, Name: "мука", MeasurementUnit: "г"},
			2: {ID: 2, Name: "яйца", MeasurementUnit: "шт"},
			3: {ID: 3, Name: "сахар", MeasurementUnit: "г"},
			4: {ID: 4, Name: "мука", MeasurementUnit: "стакан"},
		},
		tags: map[int64]catalog.Tag{
			1: {ID: 1, Name: "Завтрак", Color: "#E26C2D", Slug: "breakfast"},
			2: {ID: 2, Name: "Обед", Color: "#49B64E", Slug: "lunch"},
		},
		users: map[int64]auth.User{
			1: {ID: 1, Email: "vasya@example.com", Username: "vasya", FirstName: "Вася", LastName: "Пупкин"},
			2: {ID: 2, Email: "petya@example.com", Username: "petya", FirstName: "Петя", LastName: ""},
		},
		follows: map[[2]int64]bool{},
		edges:   map[edgeKey]bool{},
	}
}

func (m *memStore) ExistingIngredientIDs(_ context.Context, ids []int64) (map[int64]bool, error) {
	out := map[int64]bool{}
	for _, id := range ids {
		if _, ok := m.ingredients[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (m *memStore) ExistingTagIDs(_ context.Context, ids []int64) (map[int64]bool, error) {
	out := map[int64]bool{}
	for _, id := range ids {
		if _, ok := m.tags[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (m *memStore) GetUserByID(_ context.Context, id int64) (*auth.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	return &u, nil
}

func (m *memStore) Create(_ context.Context, r *Recipe, tagIDs []int64, ingredients []IngredientAmount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	m.nextID++
	m.clock = m.clock.Add(time.Minute)
	r.ID, r.CreatedAt = m.nextID, m.clock
	m.recipes[r.ID] = &storedRecipe{
		Recipe:      *r,
		tagIDs:      append([]int64(nil), tagIDs...),
		ingredients: append([]IngredientAmount(nil), ingredients...),
	}
	return nil
}

func (m *memStore) Update(_ context.Context, r *Recipe, tagIDs []int64, ingredients []IngredientAmount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	stored, ok := m.recipes[r.ID]
	if !ok {
		return ErrRecipeNotFound
	}
	stored.Recipe = *r
	stored.tagIDs = append([]int64(nil), tagIDs...)
	stored.ingredients = append([]IngredientAmount(nil), ingredients...)
	return nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[id]; !ok {
		return ErrRecipeNotFound
	}
	delete(m.recipes, id)
	for k := range m.edges {
		if k.recipeID == id {
			delete(m.edges, k)
		}
	}
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (*Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.recipes[id]
	if !ok {
		return nil, ErrRecipeNotFound
	}
	r := stored.Recipe
	return &r, nil
}

func (m *memStore) hasTagSlug(stored *storedRecipe, slugs []string) bool {
	for _, id := range stored.tagIDs {
		for _, s := range slugs {
			if m.tags[id].Slug == s {
				return true
			}
		}
	}
	return false
}

func (m *memStore) List(_ context.Context, f ListFilter) ([]Recipe, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []Recipe
	for _, stored := range m.recipes {
		if f.AuthorID != nil && (stored.AuthorID == nil || *stored.AuthorID != *f.AuthorID) {
			continue
		}
		if len(f.TagSlugs) > 0 && !m.hasTagSlug(stored, f.TagSlugs) {
			continue
		}
		if f.ViewerID != nil && f.Favorited && !m.edges[edgeKey{Favorites, *f.ViewerID, stored.ID}] {
			continue
		}
		if f.ViewerID != nil && f.InShoppingCart && !m.edges[edgeKey{ShoppingCart, *f.ViewerID, stored.ID}] {
			continue
		}
		all = append(all, stored.Recipe)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	total := int64(len(all))
	if f.Offset >= len(all) {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[f.Offset:end], total, nil
}

func (m *memStore) TagsFor(_ context.Context, recipeIDs []int64) (map[int64][]catalog.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int64][]catalog.Tag{}
	for _, id := range recipeIDs {
		for _, tagID := range m.recipes[id].tagIDs {
			out[id] = append(out[id], m.tags[tagID])
		}
	}
	return out, nil
}

func (m *memStore) IngredientsFor(_ context.Context, recipeIDs []int64) (map[int64][]RecipeIngredient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int64][]RecipeIngredient{}
	for _, id := range recipeIDs {
		for _, it := range m.recipes[id].ingredients {
			ing := m.ingredients[it.ID]
			out[id] = append(out[id], RecipeIngredient{
				ID: ing.ID, Name: ing.Name, MeasurementUnit: ing.MeasurementUnit, Amount: it.Amount,
			})
		}
	}
	return out, nil
}

func (m *memStore) Authors(_ context.Context, authorIDs []int64, viewerID *int64) (map[int64]users.Profile, error) {
	out := map[int64]users.Profile{}
	for _, id := range authorIDs {
		u, ok := m.users[id]
		if !ok {
			continue
		}
		out[id] = users.Profile{
			Email: u.Email, ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName,
			IsSubscribed: viewerID != nil && m.follows[[2]int64{*viewerID, id}],
		}
	}
	return out, nil
}

func (m *memStore) ViewerFlags(_ context.Context, viewerID int64, recipeIDs []int64) (map[int64]bool, map[int64]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewerFlagCalls++
	fav, cart := map[int64]bool{}, map[int64]bool{}
	for _, id := range recipeIDs {
		fav[id] = m.edges[edgeKey{Favorites, viewerID, id}]
		cart[id] = m.edges[edgeKey{ShoppingCart, viewerID, id}]
	}
	return fav, cart, nil
}

func (m *memStore) EdgeExists(_ context.Context, edge Edge, userID, recipeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.edges[edgeKey{edge, userID, recipeID}], nil
}

func (m *memStore) AddEdge(_ context.Context, edge Edge, userID, recipeID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := edgeKey{edge, userID, recipeID}
	if m.edges[k] {
		return ErrAlreadyAdded
	}
	m.edges[k] = true
	return nil
}

func (m *memStore) RemoveEdge(_ context.Context, edge Edge, userID, recipeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := edgeKey{edge, userID, recipeID}
	if !m.edges[k] {
		return false, nil
	}
	delete(m.edges, k)
	return true, nil
}

func (m *memStore) CartSize(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.edges {
		if k.edge == ShoppingCart && k.user == userID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CartLines(_ context.Context, userID int64) ([]CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cartLineCalls++
	var out []CartLine
	for k := range m.edges {
		if k.edge != ShoppingCart || k.user != userID {
			continue
		}
		for _, it := range m.recipes[k.recipeID].ingredients {
			ing := m.ingredients[it.ID]
			out = append(out, CartLine{Name: ing.Name, MeasurementUnit: ing.MeasurementUnit, Amount: int64(it.Amount)})
		}
	}
	return out, nil
}

// fakeImages records saved and deleted image URLs.
type fakeImages struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
}

func (f *fakeImages) Save(_ context.Context, encoded string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if encoded == "not-an-image" {
		return "", apperror.Coded(apperror.ValidationError, "invalid_image", "image", "upload a valid image")
	}
	url := fmt.Sprintf("/media/recipes/images/%d.png", len(f.saved)+1)
	f.saved = append(f.saved, url)
	return url, nil
}

func (f *fakeImages) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

var (
	vasya = &auth.Principal{UserID: 1}
	petya = &auth.Principal{UserID: 2}
)

func newTestService(t *testing.T) (*Service, *memStore, *fakeImages) {
	t.Helper()
	store := newMemStore()
	images := &fakeImages{}
	svc := NewService(store, store, images, store, validation.New(), "Foodgram", zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 18, 5, 0, 0, time.UTC) }
	return svc, store, images
}

func validRequest() RecipeWriteRequest {
	return RecipeWriteRequest{
		Ingredients: []IngredientAmount{{ID: 1, Amount: 200}, {ID: 2, Amount: 3}},
		Tags:        []int64{1},
		Image:       "data:image/png;base64,iVBORw0KGgo=",
		Name:        "Блины",
		Text:        "Смешать и пожарить",
		CookingTime: 30,
	}
}

func createRecipe(t *testing.T, svc *Service, p *auth.Principal, req RecipeWriteRequest) *RecipeResponse {
	t.Helper()
	resp, err := svc.Create(context.Background(), p, req)
	require.NoError(t, err)
	return resp
}

func TestCreate_ProjectionReportsRecordedAmounts(t *testing.T) {
	svc, store, _ := newTestService(t)

	resp := createRecipe(t, svc, vasya, validRequest())

	require.Len(t, resp.Ingredients, 2)
	recorded := map[int64]int{}
	for _, it := range store.recipes[resp.ID].ingredients {
		recorded[it.ID] += it.Amount
	}
	for _, ing := range resp.Ingredients {
		assert.Equal(t, recorded[ing.ID], ing.Amount, "ingredient %d", ing.ID)
	}
	assert.Equal(t, "мука", resp.Ingredients[0].Name)
	assert.Equal(t, "г", resp.Ingredients[0].MeasurementUnit)

	require.NotNil(t, resp.Author)
	assert.Equal(t, "vasya", resp.Author.Username)
	assert.False(t, resp.Author.IsSubscribed)
	assert.Equal(t, []catalog.Tag{store.tags[1]}, resp.Tags)
	assert.Equal(t, "/media/recipes/images/1.png", resp.Image)
	assert.False(t, resp.IsFavorited)
	assert.False(t, resp.IsInShoppingCart)
}

func TestCreate_RequiresAuthentication(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), nil, validRequest())
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestCreate_DuplicateIngredientNeverPersists(t *testing.T) {
	svc, store, images := newTestService(t)
	req := validRequest()
	req.Ingredients = []IngredientAmount{{ID: 1, Amount: 100}, {ID: 2, Amount: 1}, {ID: 1, Amount: 50}}

	_, err := svc.Create(context.Background(), vasya, req)

	require.ErrorIs(t, err, ErrDuplicateIngredient)
	assert.Empty(t, store.recipes)
	assert.Empty(t, images.saved)
}

func TestCreate_ValidationOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RecipeWriteRequest)
		want   error
	}{
		{"empty ingredients wins over empty tags", func(r *RecipeWriteRequest) {
			r.Ingredients, r.Tags = nil, nil
		}, ErrEmptyIngredients},
		{"unknown ingredient before later duplicate", func(r *RecipeWriteRequest) {
			r.Ingredients = []IngredientAmount{{ID: 99, Amount: 1}, {ID: 1, Amount: 1}, {ID: 1, Amount: 1}}
		}, ErrIngredientNotFound},
		{"duplicate ingredient", func(r *RecipeWriteRequest) {
			r.Ingredients = []IngredientAmount{{ID: 1, Amount: 1}, {ID: 1, Amount: 2}}
		}, ErrDuplicateIngredient},
		{"zero amount in first entry before unknown second", func(r *RecipeWriteRequest) {
			r.Ingredients = []IngredientAmount{{ID: 1, Amount: 0}, {ID: 99, Amount: 1}}
		}, ErrAmountTooSmall},
		{"amount above smallint", func(r *RecipeWriteRequest) {
			r.Ingredients = []IngredientAmount{{ID: 1, Amount: 40000}}
		}, ErrAmountTooLarge},
		{"empty tags", func(r *RecipeWriteRequest) { r.Tags = []int64{} }, ErrEmptyTags},
		{"duplicate tag", func(r *RecipeWriteRequest) { r.Tags = []int64{1, 2, 1} }, ErrDuplicateTag},
		{"unknown tag", func(r *RecipeWriteRequest) { r.Tags = []int64{1, 42} }, ErrTagNotFound},
		{"bad tags reported before cooking time", func(r *RecipeWriteRequest) {
			r.Tags, r.CookingTime = nil, 0
		}, ErrEmptyTags},
		{"zero cooking time", func(r *RecipeWriteRequest) { r.CookingTime = 0 }, ErrCookingTimeTooSmall},
		{"negative cooking time", func(r *RecipeWriteRequest) { r.CookingTime = -5 }, ErrCookingTimeTooSmall},
		{"missing image", func(r *RecipeWriteRequest) { r.Image = "" }, ErrImageRequired},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			svc, store, _ := newTestService(t)
			req := validRequest()
			c.mutate(&req)

			_, err := svc.Create(context.Background(), vasya, req)

			require.ErrorIs(t, err, c.want)
			assert.Empty(t, store.recipes)
		})
	}
}

func TestCreate_IngredientNotFoundIs404(t *testing.T) {
	svc, _, _ := newTestService(t)
	req := validRequest()
	req.Ingredients = []IngredientAmount{{ID: 99, Amount: 1}}

	_, err := svc.Create(context.Background(), vasya, req)

	appErr, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode())
	assert.Contains(t, appErr.Fields, "ingredients")
}

func TestCreate_FieldErrorsComeFirstAndTogether(t *testing.T) {
	svc, _, _ := newTestService(t)
	req := validRequest()
	req.Name = ""
	req.Image = ""
	req.CookingTime = 0
	req.Ingredients = nil

	_, err := svc.Create(context.Background(), vasya, req)

	appErr, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode())
	assert.Contains(t, appErr.Fields, "name")
	assert.Contains(t, appErr.Fields, "image")
	assert.NotErrorIs(t, err, ErrEmptyIngredients)
	assert.NotContains(t, ErrImageRequired.Fields, "name", "sentinel must not be mutated")
}

func TestCookingTimeBoundary(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := validRequest()
	req.CookingTime = 0
	_, err := svc.Create(context.Background(), vasya, req)
	assert.ErrorIs(t, err, ErrCookingTimeTooSmall)

	req.CookingTime = 1
	resp, err := svc.Create(context.Background(), vasya, req)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.CookingTime)
}

func TestAmountBoundary(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := validRequest()
	req.Ingredients = []IngredientAmount{{ID: 1, Amount: 0}}
	_, err := svc.Create(context.Background(), vasya, req)
	assert.ErrorIs(t, err, ErrAmountTooSmall)

	req.Ingredients = []IngredientAmount{{ID: 1, Amount: 1}}
	resp, err := svc.Create(context.Background(), vasya, req)
	require.NoError(t, err)
	require.Len(t, resp.Ingredients, 1)
	assert.Equal(t, 1, resp.Ingredients[0].Amount)
}

func TestCreate_StoreFailureDiscardsImage(t *testing.T) {
	svc, store, images := newTestService(t)
	store.failWrites = apperror.NewDatabaseError("boom", nil)

	_, err := svc.Create(context.Background(), vasya, validRequest())

	require.Error(t, err)
	require.Len(t, images.saved, 1)
	assert.Equal(t, images.saved, images.deleted)
}

func TestUpdate_ReplacesAssociationsCompletely(t *testing.T) {
	svc, store, _ := newTestService(t)
	created := createRecipe(t, svc, vasya, validRequest())

	req := validRequest()
	req.Image = ""
	req.Name = "Сырники"
	req.Ingredients = []IngredientAmount{{ID: 3, Amount: 50}, {ID: 2, Amount: 2}}
	req.Tags = []int64{2}

	updated, err := svc.Update(context.Background(), vasya, created.ID, req)
	require.NoError(t, err)

	stored := store.recipes[created.ID]
	assert.Equal(t, []IngredientAmount{{ID: 3, Amount: 50}, {ID: 2, Amount: 2}}, stored.ingredients)
	assert.Equal(t, []int64{2}, stored.tagIDs)

	var ids []int64
	for _, ing := range updated.Ingredients {
		ids = append(ids, ing.ID)
	}
	assert.Equal(t, []int64{3, 2}, ids)
	assert.Equal(t, []catalog.Tag{store.tags[2]}, updated.Tags)
	assert.Equal(t, "Сырники", updated.Name)
	assert.Equal(t, created.Image, updated.Image, "empty image keeps the current one")
}

func TestUpdate_NewImageReplacesOld(t *testing.T) {
	svc, _, images := newTestService(t)
	created := createRecipe(t, svc, vasya, validRequest())

	updated, err := svc.Update(context.Background(), vasya, created.ID, validRequest())
	require.NoError(t, err)

	assert.NotEqual(t, created.Image, updated.Image)
	assert.Equal(t, []string{created.Image}, images.deleted)
}

func TestUpdate_CheckOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	created := createRecipe(t, svc, vasya, validRequest())

	invalid := validRequest()
	invalid.Ingredients = nil

	_, err := svc.Update(context.Background(), petya, 999, invalid)
	assert.ErrorIs(t, err, ErrRecipeNotFound, "missing recipe is reported first")

	_, err = svc.Update(context.Background(), petya, created.ID, invalid)
	assert.ErrorIs(t, err, auth.ErrNotAuthor, "ownership is checked before the payload")

	_, err = svc.Update(context.Background(), nil, created.ID, validRequest())
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)

	_, err = svc.Update(context.Background(), vasya, created.ID, invalid)
	assert.ErrorIs(t, err, ErrEmptyIngredients)
}

func TestUpdate_OrphanedRecipeIsReadOnly(t *testing.T) {
	svc, store, _ := newTestService(t)
	created := createRecipe(t, svc, vasya, validRequest())
	store.recipes[created.ID].AuthorID = nil

	_, err := svc.Update(context.Background(), vasya, created.ID, validRequest())
	assert.ErrorIs(t, err, auth.ErrNotAuthor)

	got, err := svc.Get(context.Background(), created.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, got.Author)
}

func TestDelete(t *testing.T) {
	svc, store, images := newTestService(t)
	created := createRecipe(t, svc, vasya, validRequest())

	assert.ErrorIs(t, svc.Delete(context.Background(), petya, created.ID), auth.ErrNotAuthor)
	require.NoError(t, svc.Delete(context.Background(), vasya, created.ID))

	assert.NotContains(t, store.recipes, created.ID)
	assert.Equal(t, []string{created.Image}, images.deleted)
	assert.ErrorIs(t, svc.Delete(context.Background(), vasya, created.ID), ErrRecipeNotFound)
}

func TestAnonymousReadHasFalseFlags(t *testing.T) {
	svc, store, _ := newTestService(t)
	created := createRecipe(t, svc, vasya, validRequest())
	ctx := context.Background()

	_, err := svc.Add(ctx, Favorites, 1, created.ID)
	require.NoError(t, err)
	_, err = svc.Add(ctx, ShoppingCart, 1, created.ID)
	require.NoError(t, err)
	store.follows[[2]int64{2, 1}] = true
	store.viewerFlagCalls = 0

	anon, err := svc.Get(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.False(t, anon.IsFavorited)
	assert.False(t, anon.IsInShoppingCart)
	assert.False(t, anon.Author.IsSubscribed)

	list, _, err := svc.List(ctx, ListFilter{Limit: 10, Favorited: true})
	require.NoError(t, err)
	require.Len(t, list, 1, "favorited filter is ignored for anonymous viewers")
	assert.False(t, list[0].IsFavorited)
	assert.Zero(t, store.viewerFlagCalls)

	owner, err := svc.Get(ctx, created.ID, vasya.ID())
	require.NoError(t, err)
	assert.True(t, owner.IsFavorited)
	assert.True(t, owner.IsInShoppingCart)

	follower, err := svc.Get(ctx, created.ID, petya.ID())
	require.NoError(t, err)
	assert.True(t, follower.Author.IsSubscribed)
	assert.False(t, follower.IsFavorited)
}

func TestList_FiltersAndOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first := createRecipe(t, svc, vasya, validRequest())
	lunch := validRequest()
	lunch.Tags = []int64{2}
	second := createRecipe(t, svc, vasya, lunch)
	third := createRecipe(t, svc, petya, validRequest())

	all, total, err := svc.List(ctx, ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	author := int64(1)
	byAuthor, total, err := svc.List(ctx, ListFilter{AuthorID: &author, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, byAuthor, 2)

	byTag, _, err := svc.List(ctx, ListFilter{TagSlugs: []string{"lunch"}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, second.ID, byTag[0].ID)

	_, err = svc.Add(ctx, ShoppingCart, 2, first.ID)
	require.NoError(t, err)
	inCart, _, err := svc.List(ctx, ListFilter{ViewerID: petya.ID(), InShoppingCart: true, Limit: 10})
	require.NoError(t, err)
	require.Len(t, inCart, 1)
	assert.Equal(t, first.ID, inCart[0].ID)
	assert.True(t, inCart[0].IsInShoppingCart)

	page2, total, err := svc.List(ctx, ListFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page2, 1)
	assert.Equal(t, first.ID, page2[0].ID)
}

func TestToggle_BothEdges(t *testing.T) {
	for _, edge := range []Edge{Favorites, ShoppingCart} {
		t.Run(string(edge), func(t *testing.T) {
			svc, _, _ := newTestService(t)
			ctx := context.Background()
			created := createRecipe(t, svc, vasya, validRequest())

			short, err := svc.Add(ctx, edge, 2, created.ID)
			require.NoError(t, err)
			assert.Equal(t, RecipeShort{ID: created.ID, Name: "Блины", Image: created.Image, CookingTime: 30}, *short)

			_, err = svc.Add(ctx, edge, 2, created.ID)
			assert.ErrorIs(t, err, ErrAlreadyAdded)

			require.NoError(t, svc.Remove(ctx, edge, 2, created.ID))
			assert.ErrorIs(t, svc.Remove(ctx, edge, 2, created.ID), ErrNotAdded)

			_, err = svc.Add(ctx, edge, 2, 999)
			assert.ErrorIs(t, err, ErrRecipeNotFound)
		})
	}
}

func TestToggle_EdgesAreIndependent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	created := createRecipe(t, svc, vasya, validRequest())

	_, err := svc.Add(ctx, Favorites, 2, created.ID)
	require.NoError(t, err)
	_, err = svc.Add(ctx, ShoppingCart, 2, created.ID)
	require.NoError(t, err, "a favorite does not block the cart")
	assert.ErrorIs(t, svc.Remove(ctx, Favorites, 1, created.ID), ErrNotAdded, "edges are per user")
}

func TestShoppingList_AggregatesAcrossRecipes(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a := validRequest()
	a.Ingredients = []IngredientAmount{{ID: 1, Amount: 200}, {ID: 2, Amount: 2}}
	b := validRequest()
	b.Ingredients = []IngredientAmount{{ID: 1, Amount: 300}, {ID: 4, Amount: 1}}
	ra := createRecipe(t, svc, vasya, a)
	rb := createRecipe(t, svc, petya, b)

	for _, id := range []int64{ra.ID, rb.ID} {
		_, err := svc.Add(ctx, ShoppingCart, 1, id)
		require.NoError(t, err)
	}

	content, err := svc.ShoppingList(ctx, 1)
	require.NoError(t, err)

	want := "Foodgram. 2024.03.01, 18:05\n" +
		"Список покупок для: Вася Пупкин\n\n" +
		"- мука, г: 500\n" +
		"- мука, стакан: 1\n" +
		"- яйца, шт: 2"
	assert.Equal(t, want, content)
}

func TestShoppingList_EmptyCartSkipsAggregation(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.ShoppingList(context.Background(), 1)

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, store.cartLineCalls)
	appErr, _ := apperror.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode())
}

func TestShoppingList_FullNameIsTrimmed(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	created := createRecipe(t, svc, vasya, validRequest())
	_, err := svc.Add(ctx, ShoppingCart, 2, created.ID)
	require.NoError(t, err)

	content, err := svc.ShoppingList(ctx, 2)
	require.NoError(t, err)
	assert.Contains(t, content, "Список покупок для: Петя\n\n")
}

func TestAggregateShoppingList(t *testing.T) {
	got := AggregateShoppingList([]CartLine{
		{Name: "мука", MeasurementUnit: "г", Amount: 200},
		{Name: "яйца", MeasurementUnit: "шт", Amount: 3},
		{Name: "мука", MeasurementUnit: "г", Amount: 300},
		{Name: "мука", MeasurementUnit: "стакан", Amount: 1},
	})
	assert.Equal(t, []CartLine{
		{Name: "мука", MeasurementUnit: "г", Amount: 500},
		{Name: "мука", MeasurementUnit: "стакан", Amount: 1},
		{Name: "яйца", MeasurementUnit: "шт", Amount: 3},
	}, got)

	assert.Empty(t, AggregateShoppingList(nil))
}

func TestRenderShoppingList_NoTrailingNewline(t *testing.T) {
	at := time.Date(2023, 12, 9, 7, 3, 0, 0, time.UTC)
	out := RenderShoppingList("Foodgram", at, "Вася Пупкин", []CartLine{{Name: "мука", MeasurementUnit: "г", Amount: 500}})
	assert.Equal(t, "Foodgram. 2023.12.09, 07:03\nСписок покупок для: Вася Пупкин\n\n- мука, г: 500", out)
}

func TestErrorCodesAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrEmptyIngredients, ErrIngredientNotFound, ErrDuplicateIngredient, ErrAmountTooSmall,
		ErrAmountTooLarge, ErrEmptyTags, ErrDuplicateTag, ErrTagNotFound, ErrCookingTimeTooSmall,
		ErrCookingTimeTooLarge, ErrImageRequired, ErrRecipeNotFound, ErrAlreadyAdded, ErrNotAdded,
		ErrEmptyCart, catalog.ErrIngredientExists, catalog.ErrTagExists,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v matches %v", a, b)
			}
		}
	}
}
