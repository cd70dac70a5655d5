package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/exploremaine/explore/internal/areas"
)

// Status glyphs. Downloading areas show the spinner instead.
const (
	glyphDownloadable = "↓"
	glyphDownloaded   = "✓"
)

// renderList renders the web map card and the area list.
func (m Model) renderList() string {
	styles := m.theme.Styles()
	contentHeight := max(m.height-chromeHeight, 1)

	if !m.ui.HasMapInfo() {
		msg := styles.MutedText.Render("Loading Content...")
		return lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, msg)
	}

	card := m.renderMapCard()
	heading := styles.AccentText.Bold(true).Render("Map Areas")

	used := lipgloss.Height(card) + 2
	rows := m.renderAreaRows(max(contentHeight-used, 1))

	return lipgloss.JoinVertical(lipgloss.Left, card, "", heading, rows)
}

// renderMapCard renders the "Web Map" summary card.
func (m Model) renderMapCard() string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)
	summary := m.ui.Map
	inner := max(m.width-4, 10)

	thumb := "no thumbnail"
	if len(summary.Thumbnail) > 0 {
		thumb = "thumbnail " + formatBytes(len(summary.Thumbnail))
	}

	lines := []string{
		bg.Render("Web Map", styles.MutedText),
		bg.Render(truncate(summary.Title, inner), styles.Text.Bold(true)),
	}
	if snippet := strings.TrimSpace(summary.Snippet); snippet != "" {
		lines = append(lines, bg.Render(truncate(snippet, inner), styles.MutedText))
	}
	lines = append(lines, bg.Render(thumb, styles.FaintText))

	for i, line := range lines {
		lines[i] = bg.FillLine(line, inner)
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.SurfaceAlt)).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Border)).
		Width(m.width - 2).
		Render(strings.Join(lines, "\n"))
}

// renderAreaRows renders at most height rows, scrolled so the highlighted
// row is visible.
func (m Model) renderAreaRows(height int) string {
	styles := m.theme.Styles()
	if len(m.ui.Areas) == 0 {
		return styles.MutedText.Render("This map has no offline areas")
	}

	start := 0
	if m.highlighted >= height {
		start = m.highlighted - height + 1
	}
	end := min(start+height, len(m.ui.Areas))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderAreaRow(m.ui.Areas[i], i == m.highlighted))
	}
	return strings.Join(lines, "\n")
}

// renderAreaRow formats one area: "<glyph> Title · Snippet  Status".
// The highlighted row uses SelectionText for every part.
func (m Model) renderAreaRow(area areas.AreaInfo, highlighted bool) string {
	bgColor := m.theme.Background
	if highlighted {
		bgColor = m.theme.SelectionBg
	}
	bg := NewBgStyle(bgColor)

	status := titleCase(area.Status.String())
	statusWidth := len("Downloadable")

	var glyphStyle, titleStyle, mutedStyle, statusStyle lipgloss.Style
	if highlighted {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		glyphStyle, titleStyle, mutedStyle, statusStyle = sel, sel.Bold(true), sel, sel
	} else {
		styles := m.theme.Styles()
		statusColor := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(area.Status.String())))
		glyphStyle, titleStyle, mutedStyle, statusStyle = statusColor, styles.Text, styles.FaintText, statusColor
	}

	glyph := m.statusGlyph(area.Status)
	titleWidth := max(m.width-statusWidth-6, 10)

	text := area.Title()
	if snippet := strings.TrimSpace(area.Area.Snippet); snippet != "" && m.width >= LayoutSnippetWidth {
		titleWidth = max(titleWidth/2, 10)
		text = padRight(truncate(area.Title(), titleWidth), titleWidth)
		content := bg.Render(glyph, glyphStyle) + bg.Space() +
			bg.Render(text, titleStyle) + bg.Render(" · ", mutedStyle) +
			bg.Render(truncate(snippet, titleWidth-3), mutedStyle)
		return bg.FillLine(m.withStatus(content, status, statusStyle, bg, statusWidth), m.width)
	}

	content := bg.Render(glyph, glyphStyle) + bg.Space() + bg.Render(truncate(text, titleWidth), titleStyle)
	return bg.FillLine(m.withStatus(content, status, statusStyle, bg, statusWidth), m.width)
}

// withStatus right-aligns the status label after content.
func (m Model) withStatus(content, status string, style lipgloss.Style, bg BgStyle, statusWidth int) string {
	gap := max(m.width-lipgloss.Width(content)-statusWidth-1, 1)
	return content + bg.Spaces(gap) + bg.Render(status, style)
}

func (m Model) statusGlyph(status areas.AreaStatus) string {
	switch status {
	case areas.Downloading:
		return m.spinner.View()
	case areas.Downloaded:
		return glyphDownloaded
	default:
		return glyphDownloadable
	}
}
