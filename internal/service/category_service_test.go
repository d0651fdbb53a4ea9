package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/model"
)

func TestCreateCategory(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	c, err := s.categories.Create(ctx, CategoryInput{Name: " Errands "})
	require.NoError(t, err)
	assert.Equal(t, "Errands", c.Name)
	assert.Equal(t, model.DefaultCategoryColor, c.Color)

	tests := []struct {
		name  string
		input CategoryInput
		field string
	}{
		{"empty name", CategoryInput{Name: ""}, "name"},
		{"long name", CategoryInput{Name: strings.Repeat("n", 51)}, "name"},
		{"bad color", CategoryInput{Name: "x", Color: "red"}, "color"},
		{"short color", CategoryInput{Name: "x", Color: "#FFF"}, "color"},
		{"long icon", CategoryInput{Name: "x", Icon: strPtr(strings.Repeat("i", 51))}, "icon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.categories.Create(ctx, tt.input)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCategoryListAndFindOne(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	john := s.user(t, "john")

	for _, name := range []string{"Work", "Home", "Sport"} {
		_, err := s.categories.Create(ctx, CategoryInput{Name: name})
		require.NoError(t, err)
	}
	all, err := s.categories.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Home", "Sport", "Work"}, []string{all[0].Name, all[1].Name, all[2].Name})

	home := all[0]
	_, err = s.tasks.Create(ctx, TaskInput{Title: "Dishes", UserID: john.ID, CategoryID: &home.ID})
	require.NoError(t, err)

	found, err := s.categories.FindOne(ctx, home.ID)
	require.NoError(t, err)
	require.Len(t, found.Tasks, 1)
	assert.Equal(t, "Dishes", found.Tasks[0].Title)

	_, err = s.categories.FindOne(ctx, 404)
	assert.EqualError(t, err, "Category with ID 404 not found")
	assert.ErrorIs(t, s.categories.Remove(ctx, 404), ErrNotFound)
}

func TestCategoryFindOrCreate(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	first, err := s.categories.FindOrCreate(ctx, CategoryInput{Name: "Work", Color: "#FF0000"})
	require.NoError(t, err)
	assert.Equal(t, "#FF0000", first.Color)

	second, err := s.categories.FindOrCreate(ctx, CategoryInput{Name: "Work"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "#FF0000", second.Color)
}
