package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

// djinnGlyph abbreviates a Djinn state for the status bar.
func djinnGlyph(st types.DjinnState) string {
	switch st {
	case types.DjinnStandby:
		return "S"
	case types.DjinnRecovery:
		return "R"
	default:
		return "*"
	}
}

// renderStatusBar produces a full-width inverted status line showing the
// round, phase, mana, Djinn readiness and remaining foes.
func (m Model) renderStatusBar() string {
	s := &m.session.State

	left := fmt.Sprintf(" Round %d | %s | Mana %d/%d", s.RoundNumber, s.Phase, s.RemainingMana, s.MaxMana)

	foes := len(state.AliveIDs(s, types.SideEnemy))
	right := fmt.Sprintf("Foes %d/%d ", foes, len(s.Enemies))

	// Show Djinn if they fit, otherwise just the ready count.
	if n := len(s.PlayerTeam.EquippedDjinn); n > 0 {
		parts := make([]string, 0, n)
		ready := 0
		for _, id := range s.PlayerTeam.EquippedDjinn {
			t, _ := state.Tracker(s, id)
			if t.State == types.DjinnSet {
				ready++
			}
			parts = append(parts, id+":"+djinnGlyph(t.State))
		}
		candidate := fmt.Sprintf("Djinn %s | %s", strings.Join(parts, " "), right)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Djinn %d/%d | %s", ready, n, right)
		}
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
