package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"storyforge-server/internal/model"
)

// MemStorage — хранилище в памяти процесса. Используется при запуске без
// настроенной базы данных и в тестах. Все данные теряются при рестарте.
type MemStorage struct {
	mu          sync.RWMutex
	users       map[int]model.User
	stories     map[int]model.Story
	characters  map[int]model.Character
	userID      int
	storyID     int
	characterID int

	// now подменяется в тестах для детерминированных временных меток
	now func() time.Time
}

var _ Storage = (*MemStorage)(nil)

// NewMemStorage создает пустое in-memory хранилище.
func NewMemStorage() *MemStorage {
	return &MemStorage{
		users:       make(map[int]model.User),
		stories:     make(map[int]model.Story),
		characters:  make(map[int]model.Character),
		userID:      1,
		storyID:     1,
		characterID: 1,
		now:         time.Now,
	}
}

// SetClock заменяет источник времени. Только для тестов.
func (s *MemStorage) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemStorage) GetUser(_ context.Context, id int) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (s *MemStorage) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *MemStorage) CreateUser(_ context.Context, data model.InsertUser) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Username == data.Username {
			return model.User{}, model.ErrUserAlreadyExists
		}
	}

	user := model.User{
		ID:       s.userID,
		Username: data.Username,
		Password: data.Password,
	}
	s.userID++
	s.users[user.ID] = user
	return user, nil
}

func (s *MemStorage) GetStoryByID(_ context.Context, id int) (model.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	story, ok := s.stories[id]
	if !ok {
		return model.Story{}, model.ErrStoryNotFound
	}
	story.Characters = s.charactersOf(id)
	return story, nil
}

func (s *MemStorage) GetRecentStories(_ context.Context, limit int) ([]model.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stories := make([]model.Story, 0, len(s.stories))
	for _, story := range s.stories {
		stories = append(stories, story)
	}
	// Новые первыми; при равных метках времени выше история с большим ID
	sort.Slice(stories, func(i, j int) bool {
		if stories[i].DateGenerated.Equal(stories[j].DateGenerated) {
			return stories[i].ID > stories[j].ID
		}
		return stories[i].DateGenerated.After(stories[j].DateGenerated)
	})
	if limit > 0 && len(stories) > limit {
		stories = stories[:limit]
	}
	return stories, nil
}

func (s *MemStorage) CreateStoryWithCharacters(_ context.Context, data model.InsertStory, characters []model.InsertCharacter) (model.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	story := s.insertStory(data)
	for _, c := range characters {
		c.StoryID = story.ID
		story.Characters = append(story.Characters, s.insertCharacter(c))
	}
	return story, nil
}

func (s *MemStorage) GetCharacterByID(_ context.Context, id int) (model.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	character, ok := s.characters[id]
	if !ok {
		return model.Character{}, model.ErrCharacterNotFound
	}
	return character, nil
}

func (s *MemStorage) GetCharactersByStoryID(_ context.Context, storyID int) ([]model.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.charactersOf(storyID), nil
}

func (s *MemStorage) CreateCharacter(_ context.Context, data model.InsertCharacter) (model.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stories[data.StoryID]; !ok {
		return model.Character{}, model.ErrStoryNotFound
	}
	return s.insertCharacter(data), nil
}

// insertStory добавляет историю под уже взятой блокировкой.
func (s *MemStorage) insertStory(data model.InsertStory) model.Story {
	story := model.Story{
		ID:            s.storyID,
		UserID:        data.UserID,
		Title:         data.Title,
		Content:       data.Content,
		Theme:         data.Theme,
		Setting:       data.Setting,
		DateGenerated: s.now(),
	}
	s.storyID++
	s.stories[story.ID] = story
	return story
}

// insertCharacter добавляет персонажа под уже взятой блокировкой.
// Существование истории-владельца проверяет вызывающий.
func (s *MemStorage) insertCharacter(data model.InsertCharacter) model.Character {
	character := model.Character{
		ID:          s.characterID,
		StoryID:     data.StoryID,
		Name:        data.Name,
		Description: data.Description,
	}
	s.characterID++
	s.characters[character.ID] = character
	return character
}

func (s *MemStorage) charactersOf(storyID int) []model.Character {
	var out []model.Character
	for _, c := range s.characters {
		if c.StoryID == storyID {
			out = append(out, c)
		}
	}
	return out
}
