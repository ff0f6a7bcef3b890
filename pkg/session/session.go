// Package session ties unit resolution and the log viewer together: one
// resolved unit per session, hosted in the viewer until the operator backs
// out.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rasim-gh/botctl/pkg/core"
	"github.com/rasim-gh/botctl/pkg/resolver"
	"github.com/rasim-gh/botctl/pkg/viewer"
)

// Controller runs one log exploration session.
type Controller struct {
	backend core.Backend
	opts    viewer.Options
	in      *bufio.Scanner
	out     io.Writer
	logger  *slog.Logger
}

// New creates a session controller. Resolver and viewer share one input
// scanner so no operator line is lost between them.
func New(backend core.Backend, in io.Reader, out io.Writer, opts viewer.Options, logger *slog.Logger) *Controller {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Controller{backend: backend, opts: opts, in: sc, out: out, logger: logger}
}

// Run resolves a unit for the given filter keyword and hosts the viewer
// until the operator exits. Resolution failure is reported and returned
// without entering the viewer, so callers can distinguish it from backend
// unavailability.
func (c *Controller) Run(ctx context.Context, filter string) error {
	r := resolver.New(c.backend, c.in, c.out, c.logger)
	unit, err := r.Resolve(ctx, filter)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			fmt.Fprintln(c.out, "no unit resolved")
		}
		return err
	}

	c.logger.Info("unit resolved", "unit", unit.Name, "state", unit.State)
	v := viewer.New(c.backend, unit, c.in, c.out, c.opts, c.logger)
	return v.Run(ctx)
}
