package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/foodgram-go/catalog"
	"github.com/user/foodgram-go/config"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	return &config.AppConfig{
		Auth: &config.AuthConfig{
			JWTSecret:            "test-secret",
			AccessTokenDuration:  time.Hour,
			RefreshTokenDuration: 24 * time.Hour,
		},
		Server: &config.ServerConfig{Port: "0", AllowedOrigins: []string{"*"}},
		App: &config.AppSettings{
			Name:                 "Foodgram",
			ShoppingListFilename: "shopping_list.txt",
			ShoppingListMIME:     "text/plain; charset=utf-8",
			DefaultPageSize:      6,
		},
		Media: &config.MediaConfig{Root: t.TempDir(), URL: "/media/"},
		Log:   &config.LogConfig{Level: "debug", Format: "json"},
		Cache: &config.CacheConfig{TTL: time.Minute},
	}
}

// Requests below are all answered before any store is reached, so no pool is needed.
func TestRouter_PublicAndGuardedRoutes(t *testing.T) {
	cfg := testConfig(t)
	router, err := newRouter(cfg, zerolog.Nop(), nil, catalog.NewMemoryCache(time.Minute))
	require.NoError(t, err)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"swagger document", http.MethodGet, "/swagger/doc.json", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"anonymous recipe create", http.MethodPost, "/api/recipes", "", http.StatusUnauthorized},
		{"anonymous shopping list", http.MethodGet, "/api/recipes/download_shopping_cart", "", http.StatusUnauthorized},
		{"anonymous ingredient create", http.MethodPost, "/api/ingredients", "", http.StatusUnauthorized},
		{"anonymous me", http.MethodGet, "/api/users/me", "", http.StatusUnauthorized},
		{"anonymous set password", http.MethodPost, "/api/users/set_password", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/tags", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"unknown route", http.MethodGet, "/api/nothing", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", tc.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_ServesMedia(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Join(cfg.Media.Root, "recipes", "images")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))

	router, err := newRouter(cfg, zerolog.Nop(), nil, catalog.NewMemoryCache(time.Minute))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/recipes/images/a.txt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
}

func TestRecoverer(t *testing.T) {
	h := recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestNewCatalogCache_FallsBackToMemory(t *testing.T) {
	cache, closeFn := newCatalogCache(context.Background(), &config.CacheConfig{TTL: time.Minute}, zerolog.Nop())
	defer closeFn()
	_, ok := cache.(*catalog.MemoryCache)
	assert.True(t, ok)
}
