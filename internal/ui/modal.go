package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/exploremaine/explore/internal/areas"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// deleteConfirmedMsg is emitted when the user confirms deleting an area.
type deleteConfirmedMsg struct {
	area areas.AreaInfo
}

// confirmDeleteModal asks before removing a downloaded area from disk.
type confirmDeleteModal struct {
	area areas.AreaInfo
}

func newConfirmDeleteModal(area areas.AreaInfo) Modal {
	return confirmDeleteModal{area: area}
}

func (c confirmDeleteModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(keyMsg, keys.Confirm):
		area := c.area
		return c, func() tea.Msg { return deleteConfirmedMsg{area: area} }, true
	case key.Matches(keyMsg, keys.Cancel), key.Matches(keyMsg, keys.Quit):
		return c, nil, true
	}
	return c, nil, false
}

func (c confirmDeleteModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.DangerText.Render("Delete offline area?"))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(truncate(c.area.Title(), confirmModalWidth-6)))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("The downloaded package will be removed from disk."))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s %s   %s %s",
		styles.AccentText.Render("y"), styles.MutedText.Render("Delete"),
		styles.AccentText.Render("n"), styles.MutedText.Render("Keep"),
	))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Danger)).
		Padding(1, 2).
		Width(confirmModalWidth).
		Render(b.String())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
