package theme

import "github.com/charmbracelet/lipgloss/v2"

// Theme centralizes Lip Gloss styles for the Bubble Tea UI.
type Theme struct {
	List ListTheme
	App  AppTheme
}

// ListTheme styles the rows of a section list.
type ListTheme struct {
	Muted  lipgloss.Style
	Error  lipgloss.Style
	Flash  lipgloss.Style
	Note   lipgloss.Style
	Footer lipgloss.Style
	Empty  lipgloss.Style
	Caret  lipgloss.Style
}

// AppTheme styles the frame around the list.
type AppTheme struct {
	Title  lipgloss.Style
	Status lipgloss.Style
}

// Default returns the built-in theme used across the UI.
func Default() Theme {
	faint := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	return Theme{
		List: ListTheme{
			Muted:  faint,
			Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
			Flash:  lipgloss.NewStyle().Background(lipgloss.Color("236")).Bold(true),
			Note:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			Footer: faint.Italic(true),
			Empty:  faint,
			Caret:  lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
		},
		App: AppTheme{
			Title:  lipgloss.NewStyle().Bold(true),
			Status: faint,
		},
	}
}
