// Package journal implements the log backend against the systemd journal.
// Unit discovery and status go over D-Bus; record queries shell out to
// journalctl so the backend works without CGO or direct journal access.
package journal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/coreos/go-systemd/v22/dbus"

	"github.com/rasim-gh/botctl/pkg/core"
)

// Backend queries the systemd journal for managed units.
type Backend struct {
	journalctl string
	logger     *slog.Logger
}

// New creates a journal backend.
func New(logger *slog.Logger) *Backend {
	return &Backend{journalctl: "journalctl", logger: logger}
}

// ListUnits returns all loaded units whose names contain filter, in the
// order systemd reports them.
func (b *Backend) ListUnits(ctx context.Context, filter string) ([]core.Unit, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: dbus connect: %v", core.ErrBackendUnavailable, err)
	}
	defer conn.Close()

	pattern := "*"
	if filter != "" {
		pattern = "*" + filter + "*"
	}
	statuses, err := conn.ListUnitsByPatternsContext(ctx, nil, []string{pattern})
	if err != nil {
		return nil, fmt.Errorf("%w: list units: %v", core.ErrBackendUnavailable, err)
	}

	units := make([]core.Unit, 0, len(statuses))
	for _, st := range statuses {
		units = append(units, core.Unit{
			Name:        st.Name,
			State:       core.MapState(st.ActiveState),
			Description: st.Description,
		})
	}
	return units, nil
}

// ControlStatus reports the unit's active state via D-Bus.
func (b *Backend) ControlStatus(ctx context.Context, unit string) (core.State, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return core.StateUnknown, fmt.Errorf("%w: dbus connect: %v", core.ErrBackendUnavailable, err)
	}
	defer conn.Close()

	prop, err := conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return core.StateUnknown, fmt.Errorf("unit status %s: %w", unit, err)
	}
	active, ok := prop.Value.Value().(string)
	if !ok {
		return core.StateUnknown, nil
	}
	return core.MapState(active), nil
}

// QueryLast returns up to n of the most recent records for the unit.
func (b *Backend) QueryLast(ctx context.Context, unit string, n int) ([]core.Record, error) {
	out, err := exec.CommandContext(ctx, b.journalctl, queryArgs(unit, n)...).Output()
	if err != nil {
		return nil, fmt.Errorf("%w: journalctl: %v", core.ErrBackendUnavailable, err)
	}

	records := splitRecords(out, unit)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrUnitNotLogged, unit)
	}
	return records, nil
}

// Follow streams new records for the unit until ctx is cancelled. The
// journalctl child is killed on cancellation, which closes the channel.
func (b *Backend) Follow(ctx context.Context, unit string) (<-chan core.Record, error) {
	cmd := exec.CommandContext(ctx, b.journalctl, followArgs(unit)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("journalctl pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: journalctl start: %v", core.ErrBackendUnavailable, err)
	}

	ch := make(chan core.Record, 100)
	go func() {
		defer close(ch)
		defer cmd.Wait()

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			rec := core.Record{
				Unit:     unit,
				TsUnixMs: time.Now().UnixMilli(),
				Text:     scanner.Text(),
			}
			select {
			case ch <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	b.logger.Info("following journal", "unit", unit)
	return ch, nil
}

// QueryAll returns a lazy stream of the unit's full journal for paging.
func (b *Backend) QueryAll(ctx context.Context, unit string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, b.journalctl, allArgs(unit)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("journalctl pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: journalctl start: %v", core.ErrBackendUnavailable, err)
	}
	return &cmdStream{rc: stdout, cmd: cmd}, nil
}

// cmdStream wraps a child's stdout so that Close reaps the child even when
// the consumer stops reading early.
type cmdStream struct {
	rc  io.ReadCloser
	cmd *exec.Cmd
}

func (s *cmdStream) Read(p []byte) (int, error) { return s.rc.Read(p) }

func (s *cmdStream) Close() error {
	s.rc.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()
	return nil
}
