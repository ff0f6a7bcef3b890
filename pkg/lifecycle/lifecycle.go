// Package lifecycle installs, updates, and uninstalls the managed bot
// service: a thin sequential runner over git, pip, and systemctl that
// aborts on the first failed step.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rasim-gh/botctl/pkg/config"
)

// StepError reports which lifecycle step failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("step %s: %v", e.Step, e.Err) }

func (e *StepError) Unwrap() error { return e.Err }

// Manager drives service lifecycle operations.
type Manager struct {
	install config.InstallConfig
	unit    string
	unitDir string
	run     Runner
	logger  *slog.Logger
}

// NewManager creates a lifecycle manager for the configured service.
func NewManager(cfg *config.Config, run Runner, logger *slog.Logger) *Manager {
	python := cfg.Install.Python
	if python == "" {
		python = "python3"
	}
	install := cfg.Install
	install.Python = python
	return &Manager{
		install: install,
		unit:    cfg.Service.Unit,
		unitDir: defaultUnitDir,
		run:     run,
		logger:  logger,
	}
}

// UnitPath returns where the service unit file is written.
func (m *Manager) UnitPath() string {
	return filepath.Join(m.unitDir, m.unit)
}

// Install clones the repository, builds the virtualenv, installs
// dependencies, writes the unit file, and enables the service.
func (m *Manager) Install(ctx context.Context) error {
	if m.install.Repo == "" {
		return &StepError{Step: "clone", Err: fmt.Errorf("install.repo is not configured")}
	}

	if _, err := os.Stat(m.install.Dir); err == nil {
		if err := m.step(ctx, "pull", m.install.Dir, "git", "pull", "--ff-only"); err != nil {
			return err
		}
	} else {
		if err := m.step(ctx, "clone", "", "git", "clone", m.install.Repo, m.install.Dir); err != nil {
			return err
		}
	}

	if err := m.step(ctx, "venv", m.install.Dir, m.install.Python, "-m", "venv", ".venv"); err != nil {
		return err
	}
	if err := m.installDeps(ctx); err != nil {
		return err
	}
	if err := m.writeUnit(); err != nil {
		return err
	}
	if err := m.step(ctx, "daemon-reload", "", "systemctl", "daemon-reload"); err != nil {
		return err
	}
	if err := m.step(ctx, "enable", "", "systemctl", "enable", "--now", m.unit); err != nil {
		return err
	}

	m.logger.Info("service installed", "unit", m.unit, "dir", m.install.Dir)
	return nil
}

// Update pulls the latest sources, refreshes dependencies, and restarts
// the service.
func (m *Manager) Update(ctx context.Context) error {
	if err := m.step(ctx, "pull", m.install.Dir, "git", "pull", "--ff-only"); err != nil {
		return err
	}
	if err := m.installDeps(ctx); err != nil {
		return err
	}
	if err := m.step(ctx, "restart", "", "systemctl", "restart", m.unit); err != nil {
		return err
	}

	m.logger.Info("service updated", "unit", m.unit)
	return nil
}

// Uninstall stops and disables the service and removes its unit file.
// Stop and disable are best-effort: an already-dead service is fine.
func (m *Manager) Uninstall(ctx context.Context) error {
	_ = m.run.Run(ctx, "", "systemctl", "stop", m.unit)
	_ = m.run.Run(ctx, "", "systemctl", "disable", m.unit)

	if err := os.Remove(m.UnitPath()); err != nil && !os.IsNotExist(err) {
		return &StepError{Step: "remove-unit", Err: err}
	}
	if err := m.step(ctx, "daemon-reload", "", "systemctl", "daemon-reload"); err != nil {
		return err
	}

	m.logger.Info("service uninstalled", "unit", m.unit)
	return nil
}

func (m *Manager) installDeps(ctx context.Context) error {
	pip := filepath.Join(".venv", "bin", "pip")
	return m.step(ctx, "deps", m.install.Dir, pip, "install", "-r", "requirements.txt")
}

func (m *Manager) writeUnit() error {
	contents := UnitContents(m.install.Dir, m.install.Python)
	if err := os.WriteFile(m.UnitPath(), []byte(contents), 0o644); err != nil {
		return &StepError{Step: "write-unit", Err: err}
	}
	return nil
}

func (m *Manager) step(ctx context.Context, name, dir, cmd string, args ...string) error {
	m.logger.Info("lifecycle step", "step", name)
	if err := m.run.Run(ctx, dir, cmd, args...); err != nil {
		return &StepError{Step: name, Err: err}
	}
	return nil
}
