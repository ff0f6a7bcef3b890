// Package viewer is the interactive log exploration loop for one resolved
// unit. It is a small state machine over {Idle, Tailing, Following, Paging,
// Exporting}, always entered and exited through Idle.
package viewer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rasim-gh/botctl/pkg/core"
)

// State identifies the viewer's current mode.
type State int

const (
	Idle State = iota
	Tailing
	Following
	Paging
	Exporting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Tailing:
		return "tailing"
	case Following:
		return "following"
	case Paging:
		return "paging"
	case Exporting:
		return "exporting"
	default:
		return "unknown"
	}
}

const (
	defaultTailLines   = 200
	defaultExportLines = 1000
)

// Options configures viewer bounds and collaborators. Zero values pick the
// defaults; the bounds are configuration, not contracts.
type Options struct {
	// TailLines bounds the tail query. Default 200.
	TailLines int
	// ExportLines bounds the export query. Default 1000.
	ExportLines int
	// ExportDir is where export artifacts are written. The directory must
	// exist before the first export. Default "exports".
	ExportDir string
	// Pager scrolls the full stream in Paging mode. Default pipes through
	// the operator's external pager.
	Pager Pager
	// Now supplies export timestamps. Default time.Now.
	Now func() time.Time
	// FollowContext derives the cancellable context a Follow runs under.
	// The default arms SIGINT so the operator can interrupt the stream.
	FollowContext func(ctx context.Context) (context.Context, context.CancelFunc)
}

func (o Options) withDefaults() Options {
	if o.TailLines <= 0 {
		o.TailLines = defaultTailLines
	}
	if o.ExportLines <= 0 {
		o.ExportLines = defaultExportLines
	}
	if o.ExportDir == "" {
		o.ExportDir = "exports"
	}
	if o.Pager == nil {
		o.Pager = CommandPager{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.FollowContext == nil {
		o.FollowContext = func(ctx context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(ctx, os.Interrupt)
		}
	}
	return o
}

// Viewer hosts the interactive menu for one resolved unit.
type Viewer struct {
	backend core.Backend
	unit    core.Unit
	opts    Options
	in      *bufio.Scanner
	out     io.Writer
	logger  *slog.Logger
	state   State
}

// New creates a viewer for the given unit. The unit must already be
// resolved: an empty identifier is rejected by Run before any backend call.
func New(backend core.Backend, unit core.Unit, in *bufio.Scanner, out io.Writer, opts Options, logger *slog.Logger) *Viewer {
	return &Viewer{
		backend: backend,
		unit:    unit,
		opts:    opts.withDefaults(),
		in:      in,
		out:     out,
		logger:  logger,
		state:   Idle,
	}
}

// State reports the current state. Once Run returns, the state is Idle.
func (v *Viewer) State() State { return v.state }

// Run blocks on the operator menu until "back" is selected. Every failure
// short of a closed input stream is reported and recovered here; the menu
// always returns to a stable state.
func (v *Viewer) Run(ctx context.Context) error {
	if v.unit.Name == "" {
		return fmt.Errorf("%w: empty unit identifier", core.ErrNotFound)
	}

	invalid := false
	for {
		v.printMenu(invalid)
		invalid = false

		choice, err := v.readLine()
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			v.tail(ctx)
		case "2":
			v.follow(ctx)
		case "3":
			v.page(ctx)
		case "4":
			v.export(ctx)
		case "5", "b", "q":
			return nil
		default:
			invalid = true
		}
	}
}

func (v *Viewer) printMenu(invalid bool) {
	fmt.Fprintf(v.out, "\n── %s (%s) ──\n", v.unit.Name, v.unit.State)
	fmt.Fprintf(v.out, " 1) last %d lines\n", v.opts.TailLines)
	fmt.Fprintln(v.out, " 2) follow")
	fmt.Fprintln(v.out, " 3) page all")
	fmt.Fprintf(v.out, " 4) export last %d lines\n", v.opts.ExportLines)
	fmt.Fprintln(v.out, " 5) back")
	if invalid {
		fmt.Fprintln(v.out, " ✖ invalid selection")
	}
	fmt.Fprint(v.out, "> ")
}

func (v *Viewer) tail(ctx context.Context) {
	v.state = Tailing
	defer func() { v.state = Idle }()

	records, err := v.backend.QueryLast(ctx, v.unit.Name, v.opts.TailLines)
	if err != nil {
		v.report(err)
		return
	}
	for _, rec := range records {
		fmt.Fprintln(v.out, rec.Text)
	}
}

func (v *Viewer) follow(ctx context.Context) {
	v.state = Following
	defer func() { v.state = Idle }()

	fctx, cancel := v.opts.FollowContext(ctx)
	defer cancel()

	ch, err := v.backend.Follow(fctx, v.unit.Name)
	if err != nil {
		v.report(err)
		return
	}

	fmt.Fprintln(v.out, "following (interrupt to stop)")
	for {
		select {
		case rec, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintln(v.out, rec.Text)
		case <-fctx.Done():
			// Flush records that arrived before the interrupt.
			for {
				select {
				case rec, ok := <-ch:
					if !ok {
						return
					}
					fmt.Fprintln(v.out, rec.Text)
				default:
					return
				}
			}
		}
	}
}

func (v *Viewer) page(ctx context.Context) {
	v.state = Paging
	defer func() { v.state = Idle }()

	stream, err := v.backend.QueryAll(ctx, v.unit.Name)
	if err != nil {
		v.report(err)
		return
	}
	defer stream.Close()

	if err := v.opts.Pager.Page(ctx, stream); err != nil {
		v.report(fmt.Errorf("pager: %w", err))
	}
}

func (v *Viewer) export(ctx context.Context) {
	v.state = Exporting
	defer func() { v.state = Idle }()

	art, err := Export(ctx, v.backend, v.unit.Name, v.opts)
	if err != nil {
		v.report(err)
		return
	}
	v.logger.Info("logs exported", "unit", art.Unit, "path", art.Path, "records", art.Records)
	fmt.Fprintf(v.out, "exported %d records to %s\n", art.Records, art.Path)
}

// report surfaces a failure to the operator. An empty stream is not an
// error: the operator just sees that there was nothing to show.
func (v *Viewer) report(err error) {
	if errors.Is(err, core.ErrUnitNotLogged) {
		fmt.Fprintln(v.out, "(no records)")
		return
	}
	v.logger.Warn("viewer operation failed", "unit", v.unit.Name, "state", v.state, "err", err)
	fmt.Fprintf(v.out, "error: %v\n", err)
}

func (v *Viewer) readLine() (string, error) {
	if !v.in.Scan() {
		if err := v.in.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", core.ErrInputClosed, err)
		}
		return "", core.ErrInputClosed
	}
	return strings.TrimSpace(v.in.Text()), nil
}
