package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge-server/internal/model"
)

func strPtr(s string) *string { return &s }

func TestMemStorage_GetRecentStories(t *testing.T) {
	store := NewMemStorage()
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		tick := base.Add(time.Duration(i) * time.Minute)
		store.SetClock(func() time.Time { return tick })
		_, err := store.CreateStoryWithCharacters(ctx, model.InsertStory{
			Title:   "Story",
			Content: "Content",
			Theme:   "fantasy",
		}, nil)
		require.NoError(t, err)
	}

	stories, err := store.GetRecentStories(ctx, 3)
	require.NoError(t, err)
	require.Len(t, stories, 3)

	// Новые первыми: истории 5, 4, 3
	assert.Equal(t, 5, stories[0].ID)
	assert.Equal(t, 4, stories[1].ID)
	assert.Equal(t, 3, stories[2].ID)
	assert.True(t, stories[0].DateGenerated.After(stories[2].DateGenerated))
}

func TestMemStorage_GetRecentStories_IDTiebreak(t *testing.T) {
	store := NewMemStorage()
	ctx := context.Background()

	frozen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return frozen })

	for i := 0; i < 3; i++ {
		_, err := store.CreateStoryWithCharacters(ctx, model.InsertStory{
			Title: "Story", Content: "Content", Theme: "comedy",
		}, nil)
		require.NoError(t, err)
	}

	stories, err := store.GetRecentStories(ctx, 10)
	require.NoError(t, err)
	require.Len(t, stories, 3)
	assert.Equal(t, []int{3, 2, 1}, []int{stories[0].ID, stories[1].ID, stories[2].ID})
}

func TestMemStorage_CreateStoryWithCharacters(t *testing.T) {
	store := NewMemStorage()
	ctx := context.Background()

	story, err := store.CreateStoryWithCharacters(ctx, model.InsertStory{
		Title:   "The Voyage",
		Content: "First paragraph.\n\nSecond paragraph.",
		Theme:   "adventure",
		Setting: strPtr("open sea"),
	}, []model.InsertCharacter{
		{Name: "Mara", Description: strPtr("a navigator")},
		{Name: "Jun"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, story.ID)
	require.Len(t, story.Characters, 2)
	assert.Equal(t, story.ID, story.Characters[0].StoryID)
	assert.Equal(t, story.ID, story.Characters[1].StoryID)

	// GetStoryByID возвращает историю вместе с персонажами
	loaded, err := store.GetStoryByID(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, story.Title, loaded.Title)
	assert.Len(t, loaded.Characters, 2)

	// Список недавних историй персонажей не прикрепляет
	recent, err := store.GetRecentStories(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Empty(t, recent[0].Characters)
}

func TestMemStorage_GetStoryByID_NotFound(t *testing.T) {
	store := NewMemStorage()

	_, err := store.GetStoryByID(context.Background(), 42)
	assert.True(t, errors.Is(err, model.ErrStoryNotFound))
}

func TestMemStorage_CreateCharacter_MissingStory(t *testing.T) {
	store := NewMemStorage()

	_, err := store.CreateCharacter(context.Background(), model.InsertCharacter{
		StoryID: 99,
		Name:    "Orphan",
	})
	assert.True(t, errors.Is(err, model.ErrStoryNotFound))
}

func TestMemStorage_CreateCharacter(t *testing.T) {
	store := NewMemStorage()
	ctx := context.Background()

	story, err := store.CreateStoryWithCharacters(ctx, model.InsertStory{
		Title: "Host", Content: "Body", Theme: "scifi",
	}, nil)
	require.NoError(t, err)

	character, err := store.CreateCharacter(ctx, model.InsertCharacter{
		StoryID: story.ID,
		Name:    "Vex",
	})
	require.NoError(t, err)
	assert.Equal(t, story.ID, character.StoryID)

	loaded, err := store.GetCharacterByID(ctx, character.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vex", loaded.Name)

	list, err := store.GetCharactersByStoryID(ctx, story.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemStorage_Users(t *testing.T) {
	store := NewMemStorage()
	ctx := context.Background()

	user, err := store.CreateUser(ctx, model.InsertUser{Username: "alice", Password: "hash"})
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)

	_, err = store.CreateUser(ctx, model.InsertUser{Username: "alice", Password: "other"})
	assert.True(t, errors.Is(err, model.ErrUserAlreadyExists))

	byName, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = store.GetUserByUsername(ctx, "bob")
	assert.True(t, errors.Is(err, model.ErrUserNotFound))

	_, err = store.GetUser(ctx, 77)
	assert.True(t, errors.Is(err, model.ErrUserNotFound))
}
