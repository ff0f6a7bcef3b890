package viewer

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Pager scrolls a lazy record stream under operator control.
type Pager interface {
	Page(ctx context.Context, r io.Reader) error
}

// CommandPager pipes the stream through an external pager process.
// Command defaults to $PAGER, then "less".
type CommandPager struct {
	Command string
}

func (p CommandPager) Page(ctx context.Context, r io.Reader) error {
	parts := pagerArgv(p.Command, os.Getenv("PAGER"))
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Stdin = r
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// pagerArgv splits the first usable pager command line: the configured
// command, then $PAGER, then less. Blank or whitespace-only values fall
// through to the next choice.
func pagerArgv(command, env string) []string {
	for _, c := range []string{command, env} {
		if parts := strings.Fields(c); len(parts) > 0 {
			return parts
		}
	}
	return []string{"less"}
}

// WriterPager copies the whole stream to a writer without interaction.
// Used where no terminal pager is available, and in tests.
type WriterPager struct {
	W io.Writer
}

func (p WriterPager) Page(_ context.Context, r io.Reader) error {
	_, err := io.Copy(p.W, r)
	return err
}
