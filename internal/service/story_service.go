package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"storyforge-server/internal/model"
	"storyforge-server/internal/storage"
	"storyforge-server/pkg/ai"
)

// Generator генерирует прозу по структурированным параметрам.
type Generator interface {
	GenerateStory(ctx context.Context, params model.GenerateStoryParams) (ai.GeneratedStory, error)
}

// Exporter рендерит историю в PDF-байты.
type Exporter interface {
	Export(story model.Story) ([]byte, error)
}

// StoryService оркестрирует генерацию, хранение и экспорт историй.
// Один и тот же конвейер обслуживает HTTP API и телеграм-бота.
type StoryService struct {
	store     storage.Storage
	generator Generator
	exporter  Exporter
}

// NewStoryService создает сервис историй.
func NewStoryService(store storage.Storage, generator Generator, exporter Exporter) *StoryService {
	return &StoryService{
		store:     store,
		generator: generator,
		exporter:  exporter,
	}
}

// Generate вызывает внешний API генерации и атомарно сохраняет историю вместе
// с персонажами. Возвращаемая история уже содержит персонажей.
//
// Тема здесь сознательно не сверяется с фиксированным набором: веб-форма и
// бот ограничивают выбор на своей стороне, а конвейер принимает любую строку.
func (s *StoryService) Generate(ctx context.Context, params model.GenerateStoryParams) (model.Story, error) {
	generated, err := s.generator.GenerateStory(ctx, params)
	if err != nil {
		return model.Story{}, err
	}

	insert := model.InsertStory{
		UserID:  nil, // гостевая история: конвейер не привязан к аутентификации
		Title:   generated.Title,
		Content: generated.Content,
		Theme:   params.Theme,
		Setting: optional(params.Setting),
	}

	characters := make([]model.InsertCharacter, 0, len(params.Characters))
	for _, c := range params.Characters {
		characters = append(characters, model.InsertCharacter{
			Name:        c.Name,
			Description: optional(c.Description),
		})
	}

	story, err := s.store.CreateStoryWithCharacters(ctx, insert, characters)
	if err != nil {
		return model.Story{}, fmt.Errorf("failed to persist generated story: %w", err)
	}

	log.Info().Int("story_id", story.ID).Str("theme", story.Theme).
		Int("characters", len(story.Characters)).Msg("story generated")

	return story, nil
}

// GetStory возвращает историю с персонажами.
func (s *StoryService) GetStory(ctx context.Context, id int) (model.Story, error) {
	return s.store.GetStoryByID(ctx, id)
}

// RecentStories возвращает не более limit историй, новые первыми.
func (s *StoryService) RecentStories(ctx context.Context, limit int) ([]model.Story, error) {
	return s.store.GetRecentStories(ctx, limit)
}

// ExportPDF загружает историю и рендерит её в PDF. Возвращает также заголовок
// истории для имени файла вложения.
func (s *StoryService) ExportPDF(ctx context.Context, storyID int) (model.Story, []byte, error) {
	story, err := s.store.GetStoryByID(ctx, storyID)
	if err != nil {
		return model.Story{}, nil, err
	}

	data, err := s.exporter.Export(story)
	if err != nil {
		return model.Story{}, nil, fmt.Errorf("failed to export story %d: %w", storyID, err)
	}
	return story, data, nil
}

// optional превращает пустую строку в NULL-значение.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
