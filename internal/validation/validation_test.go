package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/service-marketplace/internal/repository"
)

type sample struct {
	Name   string  `json:"name" validate:"required,max=5"`
	Email  string  `json:"email" validate:"required,email"`
	Score  int     `json:"score" validate:"min=1,max=5"`
	Review *string `json:"review" validate:"omitempty,max=3"`
}

func TestStruct(t *testing.T) {
	v := New()
	long := "abcd"
	err := v.Struct(sample{Name: "toolong", Email: "nope", Score: 9, Review: &long})
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrValidation)

	var ve *repository.ValidationError
	require.True(t, errors.As(err, &ve))
	fields := map[string]string{}
	for _, fe := range ve.Errors {
		fields[fe.Field] = fe.Message
	}
	assert.Equal(t, "must be at most 5 characters", fields["name"])
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at most 5", fields["score"])
	assert.Equal(t, "must be at most 3 characters", fields["review"])
}

func TestStructValid(t *testing.T) {
	short := "ok"
	assert.NoError(t, New().Struct(sample{Name: "ann", Email: "a@b.co", Score: 5, Review: &short}))
	assert.NoError(t, New().Struct(sample{Name: "ann", Email: "a@b.co", Score: 1}))
}

func TestMaxCountsCharactersNotBytes(t *testing.T) {
	s := strings.Repeat("é", 3)
	assert.NoError(t, New().Struct(sample{Name: "ann", Email: "a@b.co", Score: 1, Review: &s}))
}
