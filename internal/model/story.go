package model

import "time"

// Theme представляет жанр истории из фиксированного набора.
type Theme string

// Допустимые темы (совпадают с выбором в веб-интерфейсе и клавиатурой бота)
const (
	ThemeAdventure Theme = "adventure"
	ThemeFantasy   Theme = "fantasy"
	ThemeSciFi     Theme = "scifi"
	ThemeMystery   Theme = "mystery"
	ThemeRomance   Theme = "romance"
	ThemeComedy    Theme = "comedy"
)

// Themes lists every valid theme in presentation order.
var Themes = []Theme{ThemeAdventure, ThemeFantasy, ThemeSciFi, ThemeMystery, ThemeRomance, ThemeComedy}

// ValidTheme reports whether s matches one of the fixed themes (case-insensitive
// matching is the caller's concern; s must already be lowercase).
func ValidTheme(s string) bool {
	for _, t := range Themes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Length задает приблизительный размер истории.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// WordBand returns the approximate word-count band used in generation prompts
// and user-facing labels.
func (l Length) WordBand() string {
	switch l {
	case LengthShort:
		return "250-500"
	case LengthMedium:
		return "500-1000"
	case LengthLong:
		return "1000-1500"
	default:
		return ""
	}
}

// Valid reports whether l is one of the three known lengths.
func (l Length) Valid() bool {
	switch l {
	case LengthShort, LengthMedium, LengthLong:
		return true
	}
	return false
}

// Story представляет сгенерированную историю.
type Story struct {
	ID            int         `json:"id" db:"id"`
	UserID        *int        `json:"userId" db:"user_id"` // nil для гостевых историй
	Title         string      `json:"title" db:"title"`
	Content       string      `json:"content" db:"content"`
	Theme         string      `json:"theme" db:"theme"`
	Setting       *string     `json:"setting" db:"setting"`
	DateGenerated time.Time   `json:"dateGenerated" db:"date_generated"`
	Characters    []Character `json:"characters,omitempty" db:"-"`
}

// Character представляет персонажа, принадлежащего ровно одной истории.
type Character struct {
	ID          int     `json:"id" db:"id"`
	StoryID     int     `json:"storyId" db:"story_id"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description" db:"description"`
}

// InsertStory содержит данные для создания истории (без ID и даты).
type InsertStory struct {
	UserID  *int
	Title   string
	Content string
	Theme   string
	Setting *string
}

// InsertCharacter содержит данные для создания персонажа.
type InsertCharacter struct {
	StoryID     int
	Name        string
	Description *string
}

// CharacterParam описывает персонажа во входных параметрах генерации.
type CharacterParam struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description,omitempty"`
}

// GenerateStoryParams содержит входные параметры запроса генерации.
// Теги binding соответствуют схеме валидации веб-формы; бот заполняет
// структуру напрямую и минует binding.
type GenerateStoryParams struct {
	Theme        string           `json:"theme" binding:"required"`
	Title        string           `json:"title,omitempty"`
	Setting      string           `json:"setting,omitempty"`
	Characters   []CharacterParam `json:"characters,omitempty" binding:"omitempty,dive"`
	Length       Length           `json:"length" binding:"required,oneof=short medium long"`
	PlotElements string           `json:"plotElements,omitempty"`
}
