package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/exploremaine/explore/internal/areas"
)

// renderHeader renders the status bar: app name, loading state, map id and
// area counts.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("explore", styles.Logo)}

	if m.ui.Loading {
		parts = append(parts,
			bg.Render(m.spinner.View(), styles.WarningText)+bg.Space()+
				bg.Render("Loading", styles.WarningText.Bold(true)))
	}

	mapLabel := "Map:"
	if compact {
		mapLabel = "M:"
	}
	parts = append(parts,
		bg.Render(mapLabel, styles.MutedText)+bg.Space()+
			bg.Render(m.mapID(), styles.Text))

	if m.ui.HasMapInfo() {
		downloaded, downloading := countStatuses(m.ui.Areas)
		parts = append(parts,
			bg.Render("Offline:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d/%d", downloaded, len(m.ui.Areas)), styles.SuccessText))
		if downloading > 0 {
			activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(areas.Downloading.String())))
			parts = append(parts,
				bg.Render("Downloading:", styles.MutedText)+bg.Space()+
					bg.Render(fmt.Sprintf("%d", downloading), activeStyle))
		}
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

func (m Model) mapID() string {
	if m.controller == nil {
		return ""
	}
	return m.controller.MapID()
}

func countStatuses(list []areas.AreaInfo) (downloaded, downloading int) {
	for _, area := range list {
		switch area.Status {
		case areas.Downloaded:
			downloaded++
		case areas.Downloading:
			downloading++
		}
	}
	return downloaded, downloading
}

// renderCommandBar renders the command hints bar for the active screen.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.screen {
	case ScreenMap:
		commands = []cmd{
			{"esc", "Areas"},
			{"j/k", "Scroll"},
		}
		if m.ui.Selected != nil {
			commands = append(commands, cmd{"d", "Download"}, cmd{"x", "Delete"})
		}
		commands = append(commands, cmd{"?", "More"})
	default:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"enter", "Area map"},
			{"m", "Web map"},
			{"d", "Download"},
			{"x", "Delete"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}
