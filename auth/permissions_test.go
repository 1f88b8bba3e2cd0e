package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64 { return &v }

func TestStaffOrReadOnly(t *testing.T) {
	staff := &Principal{UserID: 1, IsStaff: true}
	regular := &Principal{UserID: 2}

	tests := []struct {
		name    string
		method  string
		p       *Principal
		wantErr error
	}{
		{"anonymous read", http.MethodGet, nil, nil},
		{"anonymous head", http.MethodHead, nil, nil},
		{"anonymous write", http.MethodPost, nil, ErrNotAuthenticated},
		{"regular write", http.MethodPost, regular, ErrStaffOnly},
		{"regular delete", http.MethodDelete, regular, ErrStaffOnly},
		{"staff write", http.MethodPost, staff, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := StaffOrReadOnly(tt.method, tt.p)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthorOrReadOnly(t *testing.T) {
	author := &Principal{UserID: 7}
	stranger := &Principal{UserID: 8}
	staff := &Principal{UserID: 9, IsStaff: true}

	tests := []struct {
		name     string
		method   string
		p        *Principal
		authorID *int64
		wantErr  error
	}{
		{"anyone reads", http.MethodGet, nil, int64Ptr(7), nil},
		{"anonymous cannot patch", http.MethodPatch, nil, int64Ptr(7), ErrNotAuthenticated},
		{"author patches", http.MethodPatch, author, int64Ptr(7), nil},
		{"author deletes", http.MethodDelete, author, int64Ptr(7), nil},
		{"stranger cannot patch", http.MethodPatch, stranger, int64Ptr(7), ErrNotAuthor},
		{"staff is not the author", http.MethodDelete, staff, int64Ptr(7), ErrNotAuthor},
		{"orphaned recipe is read-only", http.MethodPatch, author, nil, ErrNotAuthor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthorOrReadOnly(tt.method, tt.p, tt.authorID)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPrincipalID(t *testing.T) {
	var anon *Principal
	assert.Nil(t, anon.ID())

	p := &Principal{UserID: 42}
	id := p.ID()
	if assert.NotNil(t, id) {
		assert.Equal(t, int64(42), *id)
	}
}
