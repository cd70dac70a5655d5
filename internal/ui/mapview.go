package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/exploremaine/explore/internal/areas"
)

// refreshMapViewport rebuilds the map screen content from the current
// projection.
func (m *Model) refreshMapViewport() {
	if !m.ready {
		return
	}
	m.mapViewport.SetContent(m.renderMapDetail())
}

// mapTitle is the selected area's title, or the web map's title when nothing
// is selected.
func (m Model) mapTitle() string {
	if m.ui.Selected != nil {
		return m.ui.Selected.Title()
	}
	if m.ui.Map != nil {
		return m.ui.Map.Title
	}
	return ""
}

// renderMapDetail renders the map screen body.
func (m Model) renderMapDetail() string {
	styles := m.theme.Styles()
	if !m.ui.HasMapInfo() {
		return styles.MutedText.Render("Loading Content...")
	}

	labelStyle := styles.MutedText.Width(12)
	row := func(label, value string, valueStyle lipgloss.Style) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	var lines []string
	lines = append(lines, styles.Text.Bold(true).Render(m.mapTitle()), "")
	lines = append(lines, row("Map", m.mapID(), styles.Text))

	selected := m.ui.Selected
	if selected == nil {
		summary := m.ui.Map
		if s := strings.TrimSpace(summary.Snippet); s != "" {
			lines = append(lines, row("Summary", s, styles.Text))
		}
		lines = append(lines, row("Thumbnail", thumbnailLabel(summary.Thumbnail), styles.FaintText))
		downloaded, _ := countStatuses(m.ui.Areas)
		lines = append(lines, row("Areas", pluralAreas(len(m.ui.Areas), downloaded), styles.Text))
		return strings.Join(lines, "\n")
	}

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(selected.Status.String())))
	lines = append(lines, row("Status", titleCase(selected.Status.String()), statusStyle))
	if s := strings.TrimSpace(selected.Area.Snippet); s != "" {
		lines = append(lines, row("Summary", s, styles.Text))
	}
	lines = append(lines, row("Thumbnail", thumbnailLabel(selected.Thumbnail), styles.FaintText))

	if selected.Area.HasExtent() {
		extent := selected.Area.Extent
		center := extent.Center()
		lines = append(lines,
			"",
			row("South-west", formatCoord(extent.Min.X(), extent.Min.Y()), styles.Text),
			row("North-east", formatCoord(extent.Max.X(), extent.Max.Y()), styles.Text),
			row("Centre", formatCoord(center.X(), center.Y()), styles.AccentText),
		)
	} else {
		lines = append(lines, "", row("Extent", "not published", styles.FaintText))
	}

	if m.areaPath != nil && selected.Status == areas.Downloaded {
		path := truncateMiddle(m.areaPath(selected.Title()), max(m.width-14, 20))
		lines = append(lines, row("Offline", path, styles.SuccessText))
	}
	return strings.Join(lines, "\n")
}

func thumbnailLabel(data []byte) string {
	if len(data) == 0 {
		return "none"
	}
	return formatBytes(len(data))
}

func pluralAreas(total, downloaded int) string {
	noun := "areas"
	if total == 1 {
		noun = "area"
	}
	return fmt.Sprintf("%d %s, %d offline", total, noun, downloaded)
}
