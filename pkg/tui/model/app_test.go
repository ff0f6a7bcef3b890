package model

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rasim-gh/botctl/pkg/core"
	"github.com/rasim-gh/botctl/pkg/viewer"
)

type fakeBackend struct {
	units []core.Unit
}

func (f *fakeBackend) ListUnits(_ context.Context, _ string) ([]core.Unit, error) {
	return f.units, nil
}

func (f *fakeBackend) QueryLast(_ context.Context, unit string, _ int) ([]core.Record, error) {
	return []core.Record{{Unit: unit, Text: "line"}}, nil
}

func (f *fakeBackend) Follow(_ context.Context, _ string) (<-chan core.Record, error) {
	ch := make(chan core.Record)
	close(ch)
	return ch, nil
}

func (f *fakeBackend) QueryAll(_ context.Context, _ string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fakeBackend) ControlStatus(_ context.Context, _ string) (core.State, error) {
	return core.StateActive, nil
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testUnits() []core.Unit {
	return []core.Unit{
		{Name: "dnsbot.service", State: core.StateActive},
		{Name: "nginx.service", State: core.StateActive},
	}
}

// A search that matches nothing must not drive the selection negative:
// navigating while the filtered list is empty and then clearing the search
// has to leave a usable selection behind.
func TestNavigationWithEmptySearchResult(t *testing.T) {
	var m tea.Model = New(&fakeBackend{units: testUnits()}, "", viewer.Options{})
	m, _ = m.Update(unitsMsg{units: testUnits()})

	m, _ = m.Update(keyRunes("/"))
	for _, r := range "zzz" {
		m, _ = m.Update(keyRunes(string(r)))
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(keyRunes("j"))

	if got := m.(App).selectedIdx; got < 0 {
		t.Fatalf("selectedIdx = %d after navigating empty result", got)
	}

	// Clear the search, then tail the selection.
	m, _ = m.Update(keyRunes("/"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if u := m.(App).selectedUnit(); u == nil || u.Name != "dnsbot.service" {
		t.Fatalf("selectedUnit = %+v, want dnsbot.service", u)
	}
	if _, cmd := m.Update(keyRunes("t")); cmd == nil {
		t.Error("tail key produced no command")
	}
}

func TestUnitsRefreshClampsToFilteredList(t *testing.T) {
	var m tea.Model = New(&fakeBackend{units: testUnits()}, "", viewer.Options{})
	m, _ = m.Update(unitsMsg{units: testUnits()})
	m, _ = m.Update(keyRunes("j"))

	m, _ = m.Update(keyRunes("/"))
	for _, r := range "zzz" {
		m, _ = m.Update(keyRunes(string(r)))
	}

	// A periodic refresh arriving mid-search must keep the selection in
	// bounds of the (empty) filtered view.
	m, _ = m.Update(unitsMsg{units: testUnits()})
	if got := m.(App).selectedIdx; got != 0 {
		t.Errorf("selectedIdx = %d after refresh with empty filter, want 0", got)
	}
}

func TestSelectedUnitOutOfRangeIsNil(t *testing.T) {
	app := New(&fakeBackend{}, "", viewer.Options{})
	app.units = testUnits()

	app.selectedIdx = -1
	if u := app.selectedUnit(); u != nil {
		t.Errorf("selectedUnit = %+v for negative index, want nil", u)
	}
	app.selectedIdx = len(app.units)
	if u := app.selectedUnit(); u != nil {
		t.Errorf("selectedUnit = %+v for past-end index, want nil", u)
	}
}
