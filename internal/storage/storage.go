// Package storage содержит контракт хранилища и две его реализации:
// in-memory (для локальной разработки и тестов) и PostgreSQL.
// Реализация выбирается один раз при старте процесса и не смешивается.
package storage

import (
	"context"

	"storyforge-server/internal/model"
)

// Storage определяет контракт хранилища пользователей, историй и персонажей.
//
// Политика ошибок: отсутствующая запись возвращает соответствующую
// сентинельную ошибку из model, а не пустой результат; ошибки транспорта
// и самого хранилища оборачиваются и пробрасываются вызывающему.
type Storage interface {
	// GetUser возвращает пользователя по ID.
	GetUser(ctx context.Context, id int) (model.User, error)
	// GetUserByUsername возвращает пользователя по имени.
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	// CreateUser создает пользователя и присваивает ему ID.
	CreateUser(ctx context.Context, data model.InsertUser) (model.User, error)

	// GetStoryByID возвращает историю вместе с её персонажами.
	GetStoryByID(ctx context.Context, id int) (model.Story, error)
	// GetRecentStories возвращает не более limit историй, новые первыми.
	// Персонажи к историям списка не прикрепляются.
	GetRecentStories(ctx context.Context, limit int) ([]model.Story, error)
	// CreateStoryWithCharacters атомарно создает историю и её персонажей.
	// Возвращаемая история уже содержит созданных персонажей; повторное
	// чтение из хранилища не выполняется.
	CreateStoryWithCharacters(ctx context.Context, story model.InsertStory, characters []model.InsertCharacter) (model.Story, error)

	// GetCharacterByID возвращает персонажа по ID.
	GetCharacterByID(ctx context.Context, id int) (model.Character, error)
	// GetCharactersByStoryID возвращает персонажей истории. Порядок не определен.
	GetCharactersByStoryID(ctx context.Context, storyID int) ([]model.Character, error)
	// CreateCharacter создает персонажа. Если история-владелец не существует,
	// возвращается model.ErrStoryNotFound — в обеих реализациях.
	CreateCharacter(ctx context.Context, data model.InsertCharacter) (model.Character, error)
}
