// Package pdf экспортирует историю в постраничный PDF-документ.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"storyforge-server/internal/model"
)

// Геометрия страницы A4 в миллиметрах
const (
	PageWidth    = 210.0
	PageHeight   = 297.0
	Margin       = 20.0
	ContentWidth = PageWidth - 2*Margin

	lineHeight  = 7.0
	paraSpacing = 5.0
)

// PlacedText — одна строка текста с абсолютной позицией.
// Для центрированного текста X — горизонтальная середина строки.
type PlacedText struct {
	Page     int
	X, Y     float64
	Text     string
	Centered bool
}

// PlacedParagraph — абзац, перенесенный по ширине контента.
// Строки рисуются вниз от Y с шагом в высоту строки.
type PlacedParagraph struct {
	Page  int
	Y     float64
	Lines []string
}

// Document — вычисленная раскладка истории, независимая от рендера.
type Document struct {
	Title      PlacedText
	Meta       []PlacedText
	Characters []PlacedText
	Paragraphs []PlacedParagraph
	PageCount  int
}

// Exporter превращает историю с персонажами в PDF-байты.
type Exporter struct{}

// NewExporter создает экспортер документов.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export строит раскладку и рендерит её в PDF. Даты документа привязаны к
// DateGenerated истории, поэтому повторный экспорт той же истории дает
// идентичные байты.
func (e *Exporter) Export(story model.Story) ([]byte, error) {
	doc := newPDF(story)

	layout, err := buildLayout(doc, story)
	if err != nil {
		return nil, err
	}

	render(doc, layout)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Layout возвращает вычисленную раскладку без рендера. Используется тестами
// и не требует разбора PDF-байтов.
func (e *Exporter) Layout(story model.Story) (Document, error) {
	return buildLayout(newPDF(story), story)
}

func newPDF(story model.Story) *fpdf.Fpdf {
	doc := fpdf.New("P", "mm", "A4", "")
	// Разбивкой страниц управляет раскладка, а не fpdf
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreationDate(story.DateGenerated)
	doc.SetModificationDate(story.DateGenerated)
	return doc
}

// buildLayout раскладывает заголовок, блок метаданных, список персонажей и
// абзацы по страницам. doc нужен только для метрики ширины строк.
func buildLayout(doc *fpdf.Fpdf, story model.Story) (Document, error) {
	layout := Document{
		Title: PlacedText{
			Page:     1,
			X:        PageWidth / 2,
			Y:        Margin,
			Text:     story.Title,
			Centered: true,
		},
	}

	// Метаданные: тема с заглавной буквы, дата генерации, опционально сеттинг
	meta := []string{
		fmt.Sprintf("Theme: %s", titleCase(story.Theme)),
		fmt.Sprintf("Generated: %s", story.DateGenerated.Format("1/2/2006")),
	}
	if story.Setting != nil && *story.Setting != "" {
		meta = append(meta, fmt.Sprintf("Setting: %s", *story.Setting))
	}
	y := Margin
	for _, line := range meta {
		y += 8
		layout.Meta = append(layout.Meta, PlacedText{Page: 1, X: Margin, Y: y, Text: line})
	}
	y += 8

	if len(story.Characters) > 0 {
		layout.Characters = append(layout.Characters, PlacedText{Page: 1, X: Margin, Y: y, Text: "Characters:"})
		for _, c := range story.Characters {
			y += lineHeight
			layout.Characters = append(layout.Characters, PlacedText{Page: 1, X: Margin + 5, Y: y, Text: bullet(c)})
		}
		y += paraSpacing + lineHeight
	} else {
		y += 10
	}

	// Абзацы тела: перенос по ширине контента, разрыв страницы перед абзацем,
	// если курсор ушел за нижнее поле
	doc.SetFont("Times", "", 12)
	page := 1
	for _, para := range strings.Split(story.Content, "\n\n") {
		if y > PageHeight-Margin {
			page++
			y = Margin
		}

		lines := doc.SplitText(para, ContentWidth)
		layout.Paragraphs = append(layout.Paragraphs, PlacedParagraph{Page: page, Y: y, Lines: lines})
		y += float64(len(lines))*lineHeight + paraSpacing
	}

	layout.PageCount = page
	return layout, nil
}

// render рисует раскладку в документ постранично.
func render(doc *fpdf.Fpdf, layout Document) {
	// Базовые шрифты кодируются в cp1252; переводим UTF-8 строки
	tr := doc.UnicodeTranslatorFromDescriptor("")

	for page := 1; page <= layout.PageCount; page++ {
		doc.AddPage()

		if layout.Title.Page == page {
			doc.SetFont("Helvetica", "B", 24)
			title := tr(layout.Title.Text)
			half := doc.GetStringWidth(title) / 2
			doc.Text(layout.Title.X-half, layout.Title.Y, title)
		}

		doc.SetFont("Helvetica", "I", 12)
		for _, t := range layout.Meta {
			if t.Page == page {
				doc.Text(t.X, t.Y, tr(t.Text))
			}
		}

		for i, t := range layout.Characters {
			if t.Page != page {
				continue
			}
			if i == 0 {
				doc.SetFont("Helvetica", "B", 12)
			} else {
				doc.SetFont("Helvetica", "", 12)
			}
			doc.Text(t.X, t.Y, tr(t.Text))
		}

		doc.SetFont("Times", "", 12)
		for _, para := range layout.Paragraphs {
			if para.Page != page {
				continue
			}
			for i, line := range para.Lines {
				doc.Text(Margin, para.Y+float64(i)*lineHeight, tr(line))
			}
		}
	}
}

func bullet(c model.Character) string {
	if c.Description != nil && *c.Description != "" {
		return fmt.Sprintf("• %s: %s", c.Name, *c.Description)
	}
	return fmt.Sprintf("• %s", c.Name)
}

// titleCase поднимает первую букву темы, как в метаданных документа.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
