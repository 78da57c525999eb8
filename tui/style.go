package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleBoard = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	styleHeading = lipgloss.NewStyle().
			Bold(true)

	styleDamage = lipgloss.NewStyle().
			Foreground(lipgloss.Color("209"))

	styleHeal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78"))

	styleKO = lipgloss.NewStyle().
			Foreground(lipgloss.Color("160")).
			Bold(true)

	styleDjinn = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleVictory = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindBoard
	kindHeading
	kindDamage
	kindHeal
	kindKO
	kindDjinn
	kindVictory
	kindDefeat
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "Round "):
		return kindHeading
	case strings.HasPrefix(line, "  "), strings.HasPrefix(line, "Djinn:"),
		strings.HasPrefix(line, "Party"), strings.HasPrefix(line, "Enemies"):
		return kindBoard
	case strings.HasPrefix(line, "Victory"), strings.Contains(line, "reached level"),
		strings.HasPrefix(line, "Gained "), strings.HasPrefix(line, "Found: "):
		return kindVictory
	case strings.HasPrefix(line, "Your party has fallen"):
		return kindDefeat
	case strings.HasSuffix(line, "is knocked out!"):
		return kindKO
	case strings.Contains(line, " damage from "):
		return kindDamage
	case strings.Contains(line, " recovers "), strings.Contains(line, " is revived "):
		return kindHeal
	case strings.Contains(line, "is unleashed!"), strings.HasSuffix(line, "begins to recover."),
		strings.HasSuffix(line, "is Set again."):
		return kindDjinn
	case line == "No rewards.":
		return kindNarration
	case isRejection(line):
		return kindError
	default:
		return kindNarration
	}
}

// isRejection reports whether a line is the session turning down a command.
func isRejection(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range []string{"i don't understand", "no ", "which ", "cannot ", "can't "} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// renderLineKind styles an already wrapped line.
func renderLineKind(text string, kind lineKind) string {
	switch kind {
	case kindBoard:
		return styleBoard.Render(text)
	case kindHeading:
		return styleHeading.Render(text)
	case kindDamage:
		return styleDamage.Render(text)
	case kindHeal:
		return styleHeal.Render(text)
	case kindKO, kindDefeat:
		return styleKO.Render(text)
	case kindDjinn:
		return styleDjinn.Render(text)
	case kindVictory:
		return styleVictory.Render(text)
	case kindSystem:
		return styleSystem.Render(text)
	case kindError:
		return styleError.Render(text)
	case kindTrace:
		return styleTrace.Render(text)
	default:
		return styleNarration.Render(text)
	}
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
