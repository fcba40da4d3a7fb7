package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge-server/internal/model"
	"storyforge-server/internal/service"
	"storyforge-server/internal/storage"
	"storyforge-server/pkg/ai"
)

type stubGenerator struct {
	result ai.GeneratedStory
	err    error
}

func (s *stubGenerator) GenerateStory(_ context.Context, _ model.GenerateStoryParams) (ai.GeneratedStory, error) {
	return s.result, s.err
}

type stubExporter struct {
	data []byte
	err  error
}

func (s *stubExporter) Export(_ model.Story) ([]byte, error) {
	return s.data, s.err
}

type testEnv struct {
	router *gin.Engine
	store  *storage.MemStorage
}

func newTestEnv(t *testing.T, generator service.Generator, exporter service.Exporter) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemStorage()
	stories := service.NewStoryService(store, generator, exporter)
	auth := service.NewAuthService(store, "test-secret", 15*time.Minute)

	router := gin.New()
	New(stories, auth).RegisterRoutes(router)

	return &testEnv{router: router, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedStory(t *testing.T, title string) model.Story {
	t.Helper()
	story, err := e.store.CreateStoryWithCharacters(context.Background(), model.InsertStory{
		Title: title, Content: "Body text.", Theme: "fantasy",
	}, []model.InsertCharacter{{Name: "Eira"}})
	require.NoError(t, err)
	return story
}

func TestGetRecentStories_EmptyIsJSONArray(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, &stubExporter{})

	rec := env.do(t, http.MethodGet, "/api/stories/recent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetRecentStories(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, &stubExporter{})
	env.seedStory(t, "First")
	env.seedStory(t, "Second")

	rec := env.do(t, http.MethodGet, "/api/stories/recent", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stories []model.Story
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stories))
	require.Len(t, stories, 2)
	assert.Equal(t, "Second", stories[0].Title)
	assert.Empty(t, stories[0].Characters)
}

func TestGetStory(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, &stubExporter{})
	seeded := env.seedStory(t, "Loaded")

	rec := env.do(t, http.MethodGet, "/api/stories/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var story model.Story
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &story))
	assert.Equal(t, seeded.ID, story.ID)
	assert.Len(t, story.Characters, 1)
}

func TestGetStory_BadID(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, &stubExporter{})

	rec := env.do(t, http.MethodGet, "/api/stories/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid story ID")
}

func TestGetStory_NotFound(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, &stubExporter{})

	rec := env.do(t, http.MethodGet, "/api/stories/42", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Story not found")
}

func TestGenerateStory(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{result: ai.GeneratedStory{
		Title:   "Generated Title",
		Content: "Generated content.",
	}}, &stubExporter{})

	rec := env.do(t, http.MethodPost, "/api/stories/generate", gin.H{
		"theme":      "fantasy",
		"length":     "short",
		"characters": []gin.H{{"name": "Eira"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var story model.Story
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &story))
	assert.Equal(t, "Generated Title", story.Title)
	assert.Nil(t, story.UserID)
	assert.Len(t, story.Characters, 1)
}

func TestGenerateStory_ValidationErrors(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, &stubExporter{})

	// Тема обязательна
	rec := env.do(t, http.MethodPost, "/api/stories/generate", gin.H{"length": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Длина только из фиксированного набора
	rec = env.do(t, http.MethodPost, "/api/stories/generate", gin.H{
		"theme":  "fantasy",
		"length": "enormous",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Персонаж без имени отклоняется
	rec = env.do(t, http.MethodPost, "/api/stories/generate", gin.H{
		"theme":      "fantasy",
		"length":     "short",
		"characters": []gin.H{{"description": "nameless"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateStory_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{err: model.ErrGenerationFailed}, &stubExporter{})

	rec := env.do(t, http.MethodPost, "/api/stories/generate", gin.H{
		"theme":  "fantasy",
		"length": "short",
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to generate story")
}

func TestExportPDF(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, &stubExporter{data: []byte("%PDF-1.3 fake")})
	seeded := env.seedStory(t, "My Story")

	rec := env.do(t, http.MethodPost, "/api/stories/export-pdf", gin.H{"storyId": seeded.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=My%20Story.pdf", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3 fake", rec.Body.String())
}

func TestExportPDF_BadRequest(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, &stubExporter{})

	rec := env.do(t, http.MethodPost, "/api/stories/export-pdf", gin.H{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request")
}

func TestExportPDF_MissingStory(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, &stubExporter{})

	rec := env.do(t, http.MethodPost, "/api/stories/export-pdf", gin.H{"storyId": 42})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, &stubExporter{})

	rec := env.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password", "hash must never leak")

	// Повторная регистрация того же имени
	rec = env.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice",
		"password": "password456",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var token model.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	assert.NotEmpty(t, token.Token)
	assert.Equal(t, "alice", token.User.Username)

	rec = env.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"username": "alice",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister_ValidationErrors(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, &stubExporter{})

	// Слишком короткое имя
	rec := env.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "ab",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Слишком короткий пароль
	rec = env.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Недопустимые символы в имени
	rec = env.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "bad name",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, &stubExporter{})

	rec := env.do(t, http.MethodGet, "/api/stories/recent", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
