// Package model is the Bubble Tea model behind `botctl ui`: a unit list
// with live journal output, driven directly by the log backend.
package model

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rasim-gh/botctl/pkg/core"
	"github.com/rasim-gh/botctl/pkg/viewer"
)

// Pane identifies which TUI pane is focused.
type Pane int

const (
	PaneUnits Pane = iota
	PaneLogs
)

// Mode identifies the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
)

const maxLogLines = 500

// App is the root Bubble Tea model.
type App struct {
	backend core.Backend
	filter  string
	opts    viewer.Options

	// State
	units        []core.Unit
	selectedIdx  int
	logLines     []core.Record
	logPaused    bool
	followUnit   string
	followCancel context.CancelFunc

	// UI
	activePane Pane
	mode       Mode
	search     textinput.Model
	width      int
	height     int
	statusMsg  string
}

// New creates the TUI app for the given backend and discovery filter.
func New(backend core.Backend, filter string, opts viewer.Options) App {
	si := textinput.New()
	si.Placeholder = "search..."
	si.CharLimit = 64

	return App{
		backend:    backend,
		filter:     filter,
		opts:       opts,
		search:     si,
		activePane: PaneUnits,
		mode:       ModeNormal,
	}
}

// Init fetches the unit list.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		fetchUnitsCmd(a.backend, a.filter),
		tickCmd(),
		tea.SetWindowTitle("botctl"),
	)
}

// tickMsg triggers periodic unit refresh.
type tickMsg time.Time

// unitsMsg carries a refreshed unit list.
type unitsMsg struct{ units []core.Unit }

// recordMsg carries one streamed journal record.
type recordMsg struct {
	rec core.Record
	ch  <-chan core.Record
}

// recordsMsg carries a bounded tail result.
type recordsMsg struct{ records []core.Record }

// followEndedMsg indicates the follow stream closed.
type followEndedMsg struct{}

// exportedMsg carries the result of an export.
type exportedMsg struct{ art viewer.Artifact }

// errorMsg carries an error to display.
type errorMsg struct{ err error }

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchUnitsCmd(backend core.Backend, filter string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		units, err := backend.ListUnits(ctx, filter)
		if err != nil {
			return errorMsg{err}
		}
		return unitsMsg{units}
	}
}

func tailCmd(backend core.Backend, unit string, n int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		records, err := backend.QueryLast(ctx, unit, n)
		if err != nil {
			return errorMsg{err}
		}
		return recordsMsg{records}
	}
}

func waitRecordCmd(ch <-chan core.Record) tea.Cmd {
	return func() tea.Msg {
		rec, ok := <-ch
		if !ok {
			return followEndedMsg{}
		}
		return recordMsg{rec: rec, ch: ch}
	}
}

func exportCmd(backend core.Backend, unit string, opts viewer.Options) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		art, err := viewer.Export(ctx, backend, unit, opts)
		if err != nil {
			return errorMsg{err}
		}
		return exportedMsg{art}
	}
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tickMsg:
		return a, tea.Batch(tickCmd(), fetchUnitsCmd(a.backend, a.filter))

	case unitsMsg:
		a.units = msg.units
		if n := len(a.filteredUnits()); a.selectedIdx >= n {
			a.selectedIdx = max(0, n-1)
		}
		return a, nil

	case recordsMsg:
		a.logLines = append(a.logLines, msg.records...)
		a.trimLogLines()
		return a, nil

	case recordMsg:
		if !a.logPaused {
			a.logLines = append(a.logLines, msg.rec)
			a.trimLogLines()
		}
		return a, waitRecordCmd(msg.ch)

	case followEndedMsg:
		a.followUnit = ""
		a.followCancel = nil
		a.statusMsg = "stream closed"
		return a, nil

	case exportedMsg:
		a.statusMsg = "exported " + msg.art.Path
		return a, nil

	case errorMsg:
		a.statusMsg = "error: " + msg.err.Error()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.mode == ModeSearch {
		switch msg.String() {
		case "esc":
			a.mode = ModeNormal
			a.search.SetValue("")
			a.search.Blur()
			return a, nil
		case "enter":
			a.mode = ModeNormal
			a.search.Blur()
			return a, nil
		default:
			var cmd tea.Cmd
			a.search, cmd = a.search.Update(msg)
			if n := len(a.filteredUnits()); a.selectedIdx >= n {
				a.selectedIdx = max(0, n-1)
			}
			return a, cmd
		}
	}

	switch msg.String() {
	case "q", "ctrl+c":
		a.stopFollow()
		return a, tea.Quit

	case "j", "down":
		if n := len(a.filteredUnits()); n > 0 {
			a.selectedIdx = min(a.selectedIdx+1, n-1)
		}
	case "k", "up":
		if a.selectedIdx > 0 {
			a.selectedIdx--
		}

	case "tab":
		a.activePane = (a.activePane + 1) % 2

	case "/":
		a.mode = ModeSearch
		a.search.Focus()
		return a, textinput.Blink

	case "f", "enter":
		return a.toggleFollow()

	case "t":
		if u := a.selectedUnit(); u != nil {
			a.logLines = nil
			a.statusMsg = "tail " + u.Name
			return a, tailCmd(a.backend, u.Name, a.opts.TailLines)
		}

	case "e":
		if u := a.selectedUnit(); u != nil {
			a.statusMsg = "exporting " + u.Name + "..."
			return a, exportCmd(a.backend, u.Name, a.opts)
		}

	case " ":
		if a.activePane == PaneLogs {
			a.logPaused = !a.logPaused
		}
	}

	return a, nil
}

func (a App) toggleFollow() (tea.Model, tea.Cmd) {
	if a.followCancel != nil {
		a.stopFollow()
		a.followUnit = ""
		a.followCancel = nil
		a.statusMsg = "follow stopped"
		return a, nil
	}

	u := a.selectedUnit()
	if u == nil {
		return a, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := a.backend.Follow(ctx, u.Name)
	if err != nil {
		cancel()
		a.statusMsg = "error: " + err.Error()
		return a, nil
	}

	a.followUnit = u.Name
	a.followCancel = cancel
	a.logLines = nil
	a.statusMsg = "following " + u.Name
	return a, waitRecordCmd(ch)
}

func (a *App) stopFollow() {
	if a.followCancel != nil {
		a.followCancel()
	}
}

func (a *App) trimLogLines() {
	if len(a.logLines) > maxLogLines {
		a.logLines = a.logLines[len(a.logLines)-maxLogLines:]
	}
}

func (a App) filteredUnits() []core.Unit {
	q := strings.ToLower(a.search.Value())
	if q == "" {
		return a.units
	}
	var filtered []core.Unit
	for _, u := range a.units {
		if strings.Contains(strings.ToLower(u.Name), q) ||
			strings.Contains(strings.ToLower(u.Description), q) {
			filtered = append(filtered, u)
		}
	}
	return filtered
}

func (a App) selectedUnit() *core.Unit {
	units := a.filteredUnits()
	if a.selectedIdx >= 0 && a.selectedIdx < len(units) {
		return &units[a.selectedIdx]
	}
	return nil
}
