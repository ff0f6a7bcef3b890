package model

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rasim-gh/botctl/pkg/core"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	stateActive   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	stateInactive = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	stateFailed   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	activePaneStyle = paneStyle.
			BorderForeground(lipgloss.Color("205"))

	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the TUI.
func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "loading..."
	}

	statusBarH := 2
	mainH := a.height - statusBarH - 2
	unitsW := a.width*2/5 - 2
	logsW := a.width - unitsW - 4

	units := a.renderUnits(unitsW, mainH)
	unitsPane := a.paneBox(PaneUnits, " Units ", units, unitsW, mainH)

	logs := a.renderLogs(logsW, mainH)
	logsPane := a.paneBox(PaneLogs, a.logTitle(), logs, logsW, mainH)

	row := lipgloss.JoinHorizontal(lipgloss.Top, unitsPane, logsPane)
	return lipgloss.JoinVertical(lipgloss.Left, row, a.renderStatusBar())
}

func (a App) paneBox(pane Pane, title, content string, w, h int) string {
	style := paneStyle
	if a.activePane == pane {
		style = activePaneStyle
	}
	return style.Width(w).Height(h).Render(
		titleStyle.Render(title) + "\n" + content,
	)
}

func (a App) renderUnits(w, h int) string {
	units := a.filteredUnits()
	if len(units) == 0 {
		return dimStyle.Render("no units")
	}

	var b strings.Builder
	maxVisible := h - 2
	start := 0
	if a.selectedIdx >= maxVisible {
		start = a.selectedIdx - maxVisible + 1
	}

	for i := start; i < len(units) && i-start < maxVisible; i++ {
		u := units[i]
		name := truncate(u.Name, w-6)
		line := fmt.Sprintf(" %s %-*s", stateIndicator(u.State), w-6, name)

		if i == a.selectedIdx {
			line = selectedStyle.Width(w).Render(line)
		}
		b.WriteString(line + "\n")
	}

	if a.mode == ModeSearch {
		b.WriteString("\n" + a.search.View())
	}

	return b.String()
}

func (a App) renderLogs(w, h int) string {
	if len(a.logLines) == 0 {
		return dimStyle.Render("no log output")
	}

	start := 0
	if len(a.logLines) > h-1 {
		start = len(a.logLines) - h + 1
	}

	var b strings.Builder
	for i := start; i < len(a.logLines); i++ {
		b.WriteString(truncate(a.logLines[i].Text, w) + "\n")
	}
	return b.String()
}

func (a App) logTitle() string {
	title := " Logs "
	if a.followUnit != "" {
		title = " Logs · " + a.followUnit + " "
	}
	if a.logPaused {
		title += dimStyle.Render("[PAUSED]") + " "
	}
	return title
}

func (a App) renderStatusBar() string {
	left := a.statusMsg
	right := "j/k:nav tab:pane /:search f:follow t:tail e:export q:quit"
	if a.mode == ModeSearch {
		right = "enter:apply esc:cancel"
	}

	gap := a.width - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return helpStyle.Render(left + strings.Repeat(" ", gap) + right)
}

func stateIndicator(state core.State) string {
	switch state {
	case core.StateActive:
		return stateActive.Render("●")
	case core.StateInactive:
		return stateInactive.Render("○")
	case core.StateFailed:
		return stateFailed.Render("✖")
	default:
		return dimStyle.Render("?")
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
