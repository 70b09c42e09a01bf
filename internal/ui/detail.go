package ui

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/etd-wiki/dungeon/internal/characters"
)

var titleCaser = cases.Title(language.English)

// updateDetailViewport re-renders the selected record into the detail pane.
func (m *Model) updateDetailViewport() {
	if m.detailViewport.Width <= 0 {
		return
	}
	rec, ok := m.snapshot.Selected()
	if !ok {
		m.detailViewport.SetContent(m.theme.Styles().MutedText.Render("Select a character to see details"))
		return
	}
	m.detailViewport.SetContent(m.renderDetailContent(rec, m.detailViewport.Width))
}

// renderDetailContent renders a full record for the detail pane.
func (m Model) renderDetailContent(rec characters.Record, width int) string {
	bgColor := m.theme.SurfaceAlt
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)

	var b strings.Builder
	writeSection := func(title string) {
		b.WriteString("\n")
		b.WriteString(bg.Render(title, styles.AccentText.Bold(true)))
		b.WriteString("\n")
	}

	// Title row
	b.WriteString(bg.Render(truncate(rec.Name, width), styles.Text.Bold(true)))
	b.WriteString("\n")

	var tags []string
	if kind := strings.TrimSpace(rec.Type); kind != "" {
		tags = append(tags, bg.Render(titleCaser.String(kind), styles.MutedText))
	}
	if badge := categoryBadge(rec); badge != "" {
		tags = append(tags, styles.BadgeStyle(badge).Render(strings.ToUpper(badge)))
	}
	if rarity := strings.TrimSpace(rec.Rarity); rarity != "" {
		tags = append(tags, bg.Render(strings.ToUpper(rarity), styles.RarityStyle(rarity)))
	}
	if len(tags) > 0 {
		b.WriteString(bg.Join(tags, "  "))
		b.WriteString("\n")
	}

	if img := strings.TrimSpace(rec.Image); img != "" {
		b.WriteString(bg.Render("Image", styles.MutedText))
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(truncateMiddle(img, maxInt(width-6, 10)), styles.InfoText))
		b.WriteString("\n")
	}

	if desc := strings.TrimSpace(rec.Description); desc != "" {
		writeSection("Description")
		for _, line := range wrap(desc, width) {
			b.WriteString(bg.Render(line, styles.Text))
			b.WriteString("\n")
		}
	}

	if lore := strings.TrimSpace(rec.LoreText()); lore != "" && lore != strings.TrimSpace(rec.Description) {
		writeSection("Lore")
		for _, line := range wrap(lore, width) {
			b.WriteString(bg.Render(line, styles.MutedText))
			b.WriteString("\n")
		}
	}

	if rec.Stats.HasAny() {
		writeSection("Stats")
		barWidth := maxInt(minInt(width-16, 30), 6)
		b.WriteString(m.statLine("HP", rec.Stats.HP, maxHP, barWidth, styles, bg))
		b.WriteString(m.statLine("Damage", rec.Stats.Damage, maxDamage, barWidth, styles, bg))
		b.WriteString(m.statLine("Defense", rec.Stats.Defense, maxDefense, barWidth, styles, bg))
	}

	if len(rec.Attributes) > 0 {
		writeSection("Attributes")
		for _, attr := range rec.Attributes {
			attr = strings.TrimSpace(attr)
			if attr == "" {
				continue
			}
			b.WriteString(bg.Render("• "+truncate(attr, width-2), styles.Text))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(bg.Render(fmt.Sprintf("id %s", rec.ID), styles.FaintText))
	return b.String()
}

// statLine renders "Label  ████░░░░ 120".
func (m Model) statLine(label string, value, limit float64, width int, styles Styles, bg BgStyle) string {
	var b strings.Builder
	b.WriteString(bg.Render(padRight(label, 8), styles.MutedText))
	b.WriteString(statBar(statFraction(value, limit), width, styles, bg))
	b.WriteString(bg.Space())
	b.WriteString(bg.Render(formatStat(value), styles.Text))
	b.WriteString("\n")
	return b.String()
}

// statFraction clamps value/limit to [0, 1].
func statFraction(value, limit float64) float64 {
	if limit <= 0 || value <= 0 {
		return 0
	}
	if value >= limit {
		return 1
	}
	return value / limit
}

// statBar renders a text bar filled to fraction.
func statBar(fraction float64, width int, styles Styles, bg BgStyle) string {
	if width <= 0 {
		return ""
	}
	filled := int(fraction*float64(width) + 0.5)
	filled = minInt(maxInt(filled, 0), width)
	return bg.Render(strings.Repeat("█", filled), styles.AccentText) +
		bg.Render(strings.Repeat("░", width-filled), styles.FaintText)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
