package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"storyforge-server/internal/model"
	"storyforge-server/pkg/database"
)

const (
	getUserByIDQuery       = `SELECT id, username, password FROM users WHERE id = $1`
	getUserByUsernameQuery = `SELECT id, username, password FROM users WHERE username = $1`
	createUserQuery        = `
		INSERT INTO users (username, password)
		VALUES ($1, $2)
		RETURNING id, username, password
	`

	getStoryByIDQuery = `
		SELECT id, user_id, title, content, theme, setting, date_generated
		FROM stories WHERE id = $1
	`
	// Новые первыми; ID как tiebreak для историй с одинаковой меткой времени
	getRecentStoriesQuery = `
		SELECT id, user_id, title, content, theme, setting, date_generated
		FROM stories
		ORDER BY date_generated DESC, id DESC
		LIMIT $1
	`
	createStoryQuery = `
		INSERT INTO stories (user_id, title, content, theme, setting)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, title, content, theme, setting, date_generated
	`

	getCharacterByIDQuery       = `SELECT id, story_id, name, description FROM characters WHERE id = $1`
	getCharactersByStoryIDQuery = `SELECT id, story_id, name, description FROM characters WHERE story_id = $1`
	createCharacterQuery        = `
		INSERT INTO characters (story_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, story_id, name, description
	`
)

// foreignKeyViolation — класс 23503 в терминах PostgreSQL.
const foreignKeyViolation = "23503"

// PostgresStorage — реализация Storage поверх PostgreSQL (pgx).
type PostgresStorage struct {
	db *database.Database
}

var _ Storage = (*PostgresStorage)(nil)

// NewPostgresStorage создает хранилище поверх готового подключения.
func NewPostgresStorage(db *database.Database) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (s *PostgresStorage) GetUser(ctx context.Context, id int) (model.User, error) {
	var user model.User
	if err := pgxscan.Get(ctx, s.db.Pool, &user, getUserByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

func (s *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var user model.User
	if err := pgxscan.Get(ctx, s.db.Pool, &user, getUserByUsernameQuery, username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return user, nil
}

func (s *PostgresStorage) CreateUser(ctx context.Context, data model.InsertUser) (model.User, error) {
	var user model.User
	err := pgxscan.Get(ctx, s.db.Pool, &user, createUserQuery, data.Username, data.Password)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 — нарушение уникальности (username)
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.User{}, model.ErrUserAlreadyExists
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *PostgresStorage) GetStoryByID(ctx context.Context, id int) (model.Story, error) {
	var story model.Story
	if err := pgxscan.Get(ctx, s.db.Pool, &story, getStoryByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Story{}, model.ErrStoryNotFound
		}
		return model.Story{}, fmt.Errorf("failed to get story %d: %w", id, err)
	}

	characters, err := s.GetCharactersByStoryID(ctx, id)
	if err != nil {
		return model.Story{}, err
	}
	story.Characters = characters
	return story, nil
}

func (s *PostgresStorage) GetRecentStories(ctx context.Context, limit int) ([]model.Story, error) {
	var stories []model.Story
	if err := pgxscan.Select(ctx, s.db.Pool, &stories, getRecentStoriesQuery, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent stories: %w", err)
	}
	return stories, nil
}

// CreateStoryWithCharacters создает историю и персонажей в одной транзакции,
// чтобы читатели никогда не видели историю без части её персонажей.
func (s *PostgresStorage) CreateStoryWithCharacters(ctx context.Context, data model.InsertStory, characters []model.InsertCharacter) (model.Story, error) {
	var story model.Story

	err := s.db.ExecuteInTransaction(ctx, func(tx pgx.Tx) error {
		if err := pgxscan.Get(ctx, tx, &story, createStoryQuery,
			data.UserID, data.Title, data.Content, data.Theme, data.Setting); err != nil {
			return fmt.Errorf("failed to insert story: %w", err)
		}

		for _, c := range characters {
			var character model.Character
			if err := pgxscan.Get(ctx, tx, &character, createCharacterQuery,
				story.ID, c.Name, c.Description); err != nil {
				return fmt.Errorf("failed to insert character %q: %w", c.Name, err)
			}
			story.Characters = append(story.Characters, character)
		}
		return nil
	})
	if err != nil {
		return model.Story{}, err
	}
	return story, nil
}

func (s *PostgresStorage) GetCharacterByID(ctx context.Context, id int) (model.Character, error) {
	var character model.Character
	if err := pgxscan.Get(ctx, s.db.Pool, &character, getCharacterByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Character{}, model.ErrCharacterNotFound
		}
		return model.Character{}, fmt.Errorf("failed to get character %d: %w", id, err)
	}
	return character, nil
}

func (s *PostgresStorage) GetCharactersByStoryID(ctx context.Context, storyID int) ([]model.Character, error) {
	var characters []model.Character
	if err := pgxscan.Select(ctx, s.db.Pool, &characters, getCharactersByStoryIDQuery, storyID); err != nil {
		return nil, fmt.Errorf("failed to list characters of story %d: %w", storyID, err)
	}
	return characters, nil
}

func (s *PostgresStorage) CreateCharacter(ctx context.Context, data model.InsertCharacter) (model.Character, error) {
	var character model.Character
	err := pgxscan.Get(ctx, s.db.Pool, &character, createCharacterQuery,
		data.StoryID, data.Name, data.Description)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return model.Character{}, model.ErrStoryNotFound
		}
		return model.Character{}, fmt.Errorf("failed to create character: %w", err)
	}
	return character, nil
}
