package bot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"storyforge-server/internal/model"
)

// Step — текущий шаг линейного диалога сбора параметров.
type Step string

const (
	StepTheme     Step = "theme"
	StepCharacter Step = "character"
	StepSetting   Step = "setting"
	StepLength    Step = "length"
)

// Session — прогресс одного пользователя в диалоге. Диалог собирает ровно
// одного персонажа: это сознательное ограничение разговорного интерфейса,
// веб-форма принимает произвольное число персонажей.
type Session struct {
	Step         Step
	Params       model.GenerateStoryParams
	LastActivity time.Time
}

// SessionStore хранит живые сессии диалогов в памяти процесса.
// Сессии не переживают рестарт; простаивающие дольше TTL вытесняются
// фоновой уборкой и проверкой при доступе.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	ttl      time.Duration

	// now подменяется в тестах
	now func() time.Time
}

// NewSessionStore создает хранилище сессий с заданным TTL простоя.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetClock заменяет источник времени. Только для тестов.
func (s *SessionStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get возвращает живую сессию пользователя. Просроченная сессия удаляется,
// как будто её не было.
func (s *SessionStore) Get(userID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && s.now().Sub(session.LastActivity) > s.ttl {
		delete(s.sessions, userID)
		return nil, false
	}
	return session, true
}

// Start инициализирует сессию на первом шаге, затирая любой прежний прогресс.
func (s *SessionStore) Start(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := &Session{
		Step:         StepTheme,
		LastActivity: s.now(),
	}
	s.sessions[userID] = session
	return session
}

// Touch обновляет метку активности сессии.
func (s *SessionStore) Touch(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[userID]; ok {
		session.LastActivity = s.now()
	}
}

// Delete удаляет сессию пользователя.
func (s *SessionStore) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len возвращает число живых записей, включая еще не вытесненные просроченные.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep вытесняет все просроченные сессии и возвращает число удаленных.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl <= 0 {
		return 0
	}

	now := s.now()
	evicted := 0
	for userID, session := range s.sessions {
		if now.Sub(session.LastActivity) > s.ttl {
			delete(s.sessions, userID)
			evicted++
		}
	}
	return evicted
}

// RunSweeper периодически вызывает Sweep до отмены контекста.
func (s *SessionStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := s.Sweep(); evicted > 0 {
				log.Debug().Int("evicted", evicted).Msg("swept stale bot sessions")
			}
		}
	}
}
