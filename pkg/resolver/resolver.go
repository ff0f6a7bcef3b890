// Package resolver turns an ambiguous service keyword into exactly one
// resolved unit, or fails cleanly with core.ErrNotFound.
package resolver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rasim-gh/botctl/pkg/core"
)

// Resolver discovers and disambiguates which unit's logs to view.
type Resolver struct {
	backend core.Backend
	in      *bufio.Scanner
	out     io.Writer
	logger  *slog.Logger
}

// New creates a resolver reading operator input from in.
func New(backend core.Backend, in *bufio.Scanner, out io.Writer, logger *slog.Logger) *Resolver {
	return &Resolver{backend: backend, in: in, out: out, logger: logger}
}

// Resolve lists units matching filter and picks one:
//   - no candidates: prompt for a manual identifier; an empty reply is
//     core.ErrNotFound
//   - candidates: an exact-match identifier typed by the operator wins;
//     an empty reply selects the first candidate in backend order; any
//     other input is treated as a manually supplied identifier
func (r *Resolver) Resolve(ctx context.Context, filter string) (core.Unit, error) {
	units, err := r.backend.ListUnits(ctx, filter)
	if err != nil {
		return core.Unit{}, err
	}

	if len(units) == 0 {
		fmt.Fprintf(r.out, "no units matched %q\n", filter)
		name, err := r.readLine("unit name (empty to cancel): ")
		if err != nil {
			return core.Unit{}, err
		}
		if name == "" {
			return core.Unit{}, fmt.Errorf("%w: filter %q", core.ErrNotFound, filter)
		}
		return r.manual(ctx, name), nil
	}

	fmt.Fprintf(r.out, "units matching %q:\n", filter)
	for i, u := range units {
		fmt.Fprintf(r.out, "  %d) %-40s %s\n", i+1, u.Name, u.State)
	}

	name, err := r.readLine(fmt.Sprintf("unit [%s]: ", units[0].Name))
	if err != nil {
		return core.Unit{}, err
	}
	if name == "" {
		return units[0], nil
	}
	for _, u := range units {
		if u.Name == name {
			return u, nil
		}
	}
	return r.manual(ctx, name), nil
}

// manual builds a unit from an operator-typed identifier, filling in the
// discovery state best-effort.
func (r *Resolver) manual(ctx context.Context, name string) core.Unit {
	state, err := r.backend.ControlStatus(ctx, name)
	if err != nil {
		r.logger.Warn("status lookup failed", "unit", name, "err", err)
		state = core.StateUnknown
	}
	return core.Unit{Name: name, State: state}
}

func (r *Resolver) readLine(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", core.ErrInputClosed, err)
		}
		return "", core.ErrInputClosed
	}
	return strings.TrimSpace(r.in.Text()), nil
}
