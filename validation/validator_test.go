package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/foodgram-go/apperror"
	"github.com/user/foodgram-go/validation"
)

type tagRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,tagcolor"`
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,notme"`
}

func TestTagColor(t *testing.T) {
	v := validation.New()

	for _, color := range []string{"#fff", "#E26C2D", "#a1B2c3"} {
		assert.NoError(t, v.Validate(tagRequest{Name: "Lunch", Color: color}), color)
	}
	for _, color := range []string{"fff", "#ffff", "#GGGGGG", "#E26C2D00", ""} {
		err := v.Validate(tagRequest{Name: "Lunch", Color: color})
		require.Error(t, err, color)
		ae, ok := apperror.FromError(err)
		require.True(t, ok)
		assert.Contains(t, ae.Fields, "color")
	}
}

func TestFieldsUseJSONNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(signupRequest{Email: "not-an-email", Username: "Me"})
	require.Error(t, err)
	ae, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.ValidationError, ae.Type)
	assert.Equal(t, []string{"must be a valid email address"}, ae.Fields["email"])
	assert.Equal(t, []string{`"me" cannot be used as a username`}, ae.Fields["username"])
}

type slugRequest struct {
	Slug string `json:"slug" validate:"omitempty,slug"`
}

func TestSlug(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(slugRequest{}))
	assert.NoError(t, v.Validate(slugRequest{Slug: "early_breakfast-2"}))

	err := v.Validate(slugRequest{Slug: "завтрак"})
	require.Error(t, err)
	ae, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.Contains(t, ae.Fields, "slug")
}
