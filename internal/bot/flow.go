package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"storyforge-server/internal/model"
)

// messageChunkLimit — максимальная длина одного сообщения бота; более
// длинные ответы режутся на части.
const messageChunkLimit = 4000

// Подписи кнопок выбора длины. Сверяются с ответом пользователя дословно.
var lengthLabels = map[model.Length]string{
	model.LengthShort:  "Short (250-500 words)",
	model.LengthMedium: "Medium (500-1000 words)",
	model.LengthLong:   "Long (1000-1500 words)",
}

// lengthOrder фиксирует порядок кнопок на клавиатуре.
var lengthOrder = []model.Length{model.LengthShort, model.LengthMedium, model.LengthLong}

// Reply — одно исходящее сообщение диалога, независимое от транспорта.
type Reply struct {
	Text           string
	Keyboard       [][]string // клавиатура быстрых ответов, по строкам
	RemoveKeyboard bool
	Markdown       bool
}

// StoryPipeline — конвейер генерации, общий с HTTP API.
type StoryPipeline interface {
	Generate(ctx context.Context, params model.GenerateStoryParams) (model.Story, error)
}

// Flow реализует линейный диалог сбора параметров:
// theme → character → setting → length → генерация и сброс сессии.
type Flow struct {
	sessions *SessionStore
	pipeline StoryPipeline
}

// NewFlow создает машину диалога поверх хранилища сессий.
func NewFlow(sessions *SessionStore, pipeline StoryPipeline) *Flow {
	return &Flow{
		sessions: sessions,
		pipeline: pipeline,
	}
}

// HandleCommand обрабатывает командное сообщение. Команды всегда
// перехватываются до диспетчеризации по шагу сессии.
func (f *Flow) HandleCommand(userID int64, command string) []Reply {
	switch command {
	case "start":
		return []Reply{{Text: "Welcome to StoryForge AI Bot! \U0001F916\U0001F4DA\n\n" +
			"I can help you generate unique stories based on your preferences.\n\n" +
			"Use /generate to start creating a new story!"}}
	case "help":
		return []Reply{{Text: "Available commands:\n\n" +
			"/start - Start the bot\n" +
			"/generate - Create a new story\n" +
			"/cancel - Cancel story creation\n" +
			"/help - Show this help message"}}
	case "generate":
		f.sessions.Start(userID)
		return []Reply{{
			Text:     "Let's create a story! First, choose a theme:",
			Keyboard: themeKeyboard(),
		}}
	case "cancel":
		f.sessions.Delete(userID)
		return []Reply{{
			Text:           "Story creation cancelled. Use /generate to start again!",
			RemoveKeyboard: true,
		}}
	default:
		// Неизвестные команды молча игнорируются
		return nil
	}
}

// HandleMessage обрабатывает свободный текст согласно текущему шагу сессии.
// Сообщения без живой сессии игнорируются.
func (f *Flow) HandleMessage(ctx context.Context, userID int64, text string) []Reply {
	session, ok := f.sessions.Get(userID)
	if !ok {
		return nil
	}
	f.sessions.Touch(userID)

	switch session.Step {
	case StepTheme:
		theme := strings.ToLower(text)
		if !model.ValidTheme(theme) {
			// Повторяем запрос, не продвигая шаг
			return []Reply{{Text: "Please select a valid theme from the keyboard."}}
		}
		session.Params.Theme = theme
		session.Step = StepCharacter
		return []Reply{{
			Text:           "Great! Now, tell me the name of the main character:",
			RemoveKeyboard: true,
		}}

	case StepCharacter:
		// Диалог собирает одного персонажа; текст принимается без валидации
		session.Params.Characters = []model.CharacterParam{{Name: text}}
		session.Step = StepSetting
		return []Reply{{Text: "Where does your story take place? (Enter the setting):"}}

	case StepSetting:
		session.Params.Setting = text
		session.Step = StepLength
		return []Reply{{
			Text:     "Finally, choose the story length:",
			Keyboard: lengthKeyboard(),
		}}

	case StepLength:
		length, ok := lengthFromLabel(text)
		if !ok {
			return []Reply{{Text: "Please select a valid length from the keyboard."}}
		}
		session.Params.Length = length
		return f.generate(ctx, userID, session.Params)
	}

	return nil
}

// generate вызывает конвейер и составляет ответ. Сессия очищается
// безусловно, успешной была генерация или нет.
func (f *Flow) generate(ctx context.Context, userID int64, params model.GenerateStoryParams) []Reply {
	defer f.sessions.Delete(userID)

	replies := []Reply{{
		Text:           "\U0001F3A8 Generating your story... This might take a moment!",
		RemoveKeyboard: true,
	}}

	story, err := f.pipeline.Generate(ctx, params)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("bot story generation failed")
		return append(replies, Reply{
			Text: "Sorry, there was an error generating your story. Please try again with /generate",
		})
	}

	message := fmt.Sprintf("\U0001F4D6 *%s*\n\nTheme: %s\nSetting: %s\n\n%s",
		story.Title, params.Theme, params.Setting, story.Content)

	for _, chunk := range splitMessage(message, messageChunkLimit) {
		replies = append(replies, Reply{Text: chunk, Markdown: true})
	}

	return append(replies, Reply{
		Text: "Story generated successfully! Use /generate to create another story.",
	})
}

// splitMessage режет текст на куски не длиннее limit рун.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

func themeKeyboard() [][]string {
	rows := make([][]string, 0, len(model.Themes))
	for _, theme := range model.Themes {
		rows = append(rows, []string{titleCase(string(theme))})
	}
	return rows
}

func lengthKeyboard() [][]string {
	rows := make([][]string, 0, len(lengthOrder))
	for _, length := range lengthOrder {
		rows = append(rows, []string{lengthLabels[length]})
	}
	return rows
}

func lengthFromLabel(label string) (model.Length, bool) {
	for length, l := range lengthLabels {
		if l == label {
			return length, true
		}
	}
	return "", false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
