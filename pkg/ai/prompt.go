package ai

import (
	"fmt"
	"strings"

	"storyforge-server/internal/model"
)

// BuildStoryPrompt детерминированно рендерит параметры в один текстовый блок
// инструкций. Шаблон фиксированный, данные не управляют его структурой.
func BuildStoryPrompt(params model.GenerateStoryParams) string {
	var b strings.Builder

	b.WriteString("\nPlease create a complete story with the following specifications:\n\n")
	fmt.Fprintf(&b, "THEME: %s\n", params.Theme)

	if params.Title != "" {
		fmt.Fprintf(&b, "TITLE: %s\n", params.Title)
	} else {
		b.WriteString("Please generate an engaging title\n")
	}

	if params.Setting != "" {
		fmt.Fprintf(&b, "SETTING: %s\n", params.Setting)
	}

	b.WriteString("\nCHARACTERS:\n- ")
	b.WriteString(characterDetails(params.Characters))
	b.WriteString("\n")

	fmt.Fprintf(&b, "\nLENGTH: %s words\n", params.Length.WordBand())

	if params.PlotElements != "" {
		fmt.Fprintf(&b, "\nADDITIONAL PLOT ELEMENTS: %s\n", params.PlotElements)
	}

	b.WriteString("\nPlease write a coherent, engaging, and complete story based on these parameters. " +
		"Make it creative and compelling with a clear beginning, middle, and end. " +
		"Format the story with proper paragraphs.\n\n" +
		"Respond with a JSON object containing:\n" +
		`1. "title" - The title of the story (use the provided one if given)` + "\n" +
		`2. "content" - The full text of the story with proper paragraph breaks` + "\n")

	return b.String()
}

// characterDetails форматирует список персонажей для промпта; пустой список
// заменяется просьбой придумать персонажей.
func characterDetails(characters []model.CharacterParam) string {
	if len(characters) == 0 {
		return "Create suitable characters for this story"
	}

	details := make([]string, 0, len(characters))
	for _, c := range characters {
		if c.Description != "" {
			details = append(details, fmt.Sprintf("%s - %s", c.Name, c.Description))
		} else {
			details = append(details, c.Name)
		}
	}
	return strings.Join(details, "\n- ")
}
