package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rasim-gh/botctl/pkg/config"
)

// fakeRunner records every command and optionally fails one of them.
type fakeRunner struct {
	calls    []string
	failWhen string
}

func (r *fakeRunner) Run(_ context.Context, dir, name string, args ...string) error {
	call := strings.TrimSpace(name + " " + strings.Join(args, " "))
	r.calls = append(r.calls, call)
	if r.failWhen != "" && strings.Contains(call, r.failWhen) {
		return fmt.Errorf("boom")
	}
	_ = dir
	return nil
}

func newManager(t *testing.T, run Runner) *Manager {
	t.Helper()
	cfg := config.Default()
	cfg.Install.Repo = "https://example.com/dnsbot.git"
	cfg.Install.Dir = filepath.Join(t.TempDir(), "dnsbot")
	m := NewManager(cfg, run, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.unitDir = t.TempDir()
	return m
}

func TestInstallSequence(t *testing.T) {
	run := &fakeRunner{}
	m := newManager(t, run)

	if err := m.Install(context.Background()); err != nil {
		t.Fatal(err)
	}

	wantOrder := []string{"git clone", "-m venv", "pip install", "daemon-reload", "enable --now"}
	idx := -1
	for _, want := range wantOrder {
		found := -1
		for i, call := range run.calls {
			if i > idx && strings.Contains(call, want) {
				found = i
				break
			}
		}
		if found < 0 {
			t.Fatalf("step %q missing or out of order in %v", want, run.calls)
		}
		idx = found
	}

	data, err := os.ReadFile(m.UnitPath())
	if err != nil {
		t.Fatalf("unit file not written: %v", err)
	}
	if !strings.Contains(string(data), "ExecStart=") {
		t.Error("unit file missing ExecStart")
	}
}

func TestInstallExistingDirPulls(t *testing.T) {
	run := &fakeRunner{}
	m := newManager(t, run)
	if err := os.MkdirAll(m.install.Dir, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := m.Install(context.Background()); err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(run.calls, ";")
	if strings.Contains(joined, "git clone") {
		t.Error("existing checkout should pull, not clone")
	}
	if !strings.Contains(joined, "git pull") {
		t.Error("expected git pull for existing checkout")
	}
}

func TestInstallStepFailureAborts(t *testing.T) {
	run := &fakeRunner{failWhen: "pip install"}
	m := newManager(t, run)

	err := m.Install(context.Background())
	var step *StepError
	if !errors.As(err, &step) {
		t.Fatalf("err = %v, want *StepError", err)
	}
	if step.Step != "deps" {
		t.Errorf("failed step = %q, want deps", step.Step)
	}
	for _, call := range run.calls {
		if strings.Contains(call, "systemctl") {
			t.Errorf("systemctl ran after failed step: %v", run.calls)
		}
	}
	if _, err := os.Stat(m.UnitPath()); !os.IsNotExist(err) {
		t.Error("unit file written despite failed step")
	}
}

func TestInstallWithoutRepo(t *testing.T) {
	cfg := config.Default()
	cfg.Install.Repo = ""
	cfg.Install.Dir = filepath.Join(t.TempDir(), "missing")
	m := NewManager(cfg, &fakeRunner{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var step *StepError
	if err := m.Install(context.Background()); !errors.As(err, &step) {
		t.Fatalf("err = %v, want *StepError", err)
	}
}

func TestUpdateSequence(t *testing.T) {
	run := &fakeRunner{}
	m := newManager(t, run)

	if err := m.Update(context.Background()); err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(run.calls, ";")
	for _, want := range []string{"git pull", "pip install", "systemctl restart dnsbot.service"} {
		if !strings.Contains(joined, want) {
			t.Errorf("update missing %q: %v", want, run.calls)
		}
	}
}

func TestUninstallRemovesUnit(t *testing.T) {
	run := &fakeRunner{}
	m := newManager(t, run)
	if err := os.WriteFile(m.UnitPath(), []byte("[Unit]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := m.Uninstall(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(m.UnitPath()); !os.IsNotExist(err) {
		t.Error("unit file still present after uninstall")
	}
	joined := strings.Join(run.calls, ";")
	for _, want := range []string{"systemctl stop", "systemctl disable", "daemon-reload"} {
		if !strings.Contains(joined, want) {
			t.Errorf("uninstall missing %q: %v", want, run.calls)
		}
	}
}

func TestUninstallMissingUnitFileIsFine(t *testing.T) {
	m := newManager(t, &fakeRunner{})
	if err := m.Uninstall(context.Background()); err != nil {
		t.Fatal(err)
	}
}
