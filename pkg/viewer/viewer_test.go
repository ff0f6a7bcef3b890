package viewer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rasim-gh/botctl/pkg/core"
)

// fakeBackend serves a fixed chronological record stream for one unit.
type fakeBackend struct {
	records       []core.Record
	followRecords []core.Record
	followEmitted chan struct{}
	queryCalls    int
}

func newFakeBackend(unit string, lines ...string) *fakeBackend {
	f := &fakeBackend{followEmitted: make(chan struct{})}
	for _, l := range lines {
		f.records = append(f.records, core.Record{Unit: unit, Text: l})
	}
	return f
}

func (f *fakeBackend) ListUnits(_ context.Context, _ string) ([]core.Unit, error) {
	return nil, nil
}

func (f *fakeBackend) QueryLast(_ context.Context, unit string, n int) ([]core.Record, error) {
	f.queryCalls++
	if len(f.records) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrUnitNotLogged, unit)
	}
	if n < len(f.records) {
		return f.records[len(f.records)-n:], nil
	}
	return f.records, nil
}

func (f *fakeBackend) Follow(ctx context.Context, _ string) (<-chan core.Record, error) {
	ch := make(chan core.Record, len(f.followRecords))
	go func() {
		defer close(ch)
		for _, rec := range f.followRecords {
			ch <- rec
		}
		close(f.followEmitted)
		<-ctx.Done()
	}()
	return ch, nil
}

func (f *fakeBackend) QueryAll(_ context.Context, _ string) (io.ReadCloser, error) {
	var b strings.Builder
	for _, rec := range f.records {
		b.WriteString(rec.Text + "\n")
	}
	return io.NopCloser(strings.NewReader(b.String())), nil
}

func (f *fakeBackend) ControlStatus(_ context.Context, _ string) (core.State, error) {
	return core.StateActive, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runViewer(t *testing.T, backend core.Backend, input string, opts Options) (*Viewer, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	in := bufio.NewScanner(strings.NewReader(input))
	v := New(backend, core.Unit{Name: "dnsbot.service", State: core.StateActive}, in, out, opts, discard())
	err := v.Run(context.Background())
	return v, out.String(), err
}

func TestTailReturnsAllWhenStreamShorter(t *testing.T) {
	backend := newFakeBackend("dnsbot.service", "one", "two", "three")
	v, out, err := runViewer(t, backend, "1\n5\n", Options{TailLines: 5})
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"one", "two", "three"} {
		if !strings.Contains(out, line) {
			t.Errorf("output missing %q", line)
		}
	}
	if v.State() != Idle {
		t.Errorf("state = %v, want Idle", v.State())
	}
}

func TestTailCapsAtLimit(t *testing.T) {
	backend := newFakeBackend("dnsbot.service", "rec-a", "rec-b", "rec-c", "rec-d", "rec-e")
	_, out, err := runViewer(t, backend, "1\n5\n", Options{TailLines: 2})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "rec-c") {
		t.Error("tail returned more than the bound")
	}
	// Most-recent-bounded, chronological order.
	di, ei := strings.Index(out, "rec-d"), strings.Index(out, "rec-e")
	if di < 0 || ei < 0 || di > ei {
		t.Errorf("expected trailing records rec-d then rec-e, got:\n%s", out)
	}
}

func TestTailEmptyStreamIsNotAnError(t *testing.T) {
	backend := newFakeBackend("dnsbot.service")
	v, out, err := runViewer(t, backend, "1\n5\n", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "(no records)") {
		t.Error("empty stream should be reported as zero records")
	}
	if v.State() != Idle {
		t.Errorf("state = %v, want Idle", v.State())
	}
}

func TestInvalidSelectionRedisplaysMenu(t *testing.T) {
	backend := newFakeBackend("dnsbot.service", "one")
	_, out, err := runViewer(t, backend, "9\n5\n", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "invalid selection") {
		t.Error("expected invalid-selection marker")
	}
	if strings.Count(out, "1) last") < 2 {
		t.Error("menu was not re-displayed after invalid input")
	}
	if backend.queryCalls != 0 {
		t.Error("invalid input must not trigger a backend query")
	}
}

func TestFollowCancelReturnsToIdle(t *testing.T) {
	backend := newFakeBackend("dnsbot.service", "old")
	backend.followRecords = []core.Record{
		{Unit: "dnsbot.service", Text: "live-1"},
		{Unit: "dnsbot.service", Text: "live-2"},
	}

	opts := Options{
		FollowContext: func(ctx context.Context) (context.Context, context.CancelFunc) {
			fctx, cancel := context.WithCancel(ctx)
			go func() {
				<-backend.followEmitted
				cancel()
			}()
			return fctx, cancel
		},
	}

	// Follow, then a tail must still work without restarting resolution.
	v, out, err := runViewer(t, backend, "2\n1\n5\n", opts)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "live-1") || !strings.Contains(out, "live-2") {
		t.Errorf("follow output missing streamed records:\n%s", out)
	}
	if !strings.Contains(out, "old") {
		t.Error("tail after cancelled follow did not run")
	}
	if v.State() != Idle {
		t.Errorf("state = %v, want Idle", v.State())
	}
}

func TestPageHandsStreamToPager(t *testing.T) {
	backend := newFakeBackend("dnsbot.service", "page-a", "page-b")
	paged := &bytes.Buffer{}
	_, _, err := runViewer(t, backend, "3\n5\n", Options{Pager: WriterPager{W: paged}})
	if err != nil {
		t.Fatal(err)
	}
	if got := paged.String(); !strings.Contains(got, "page-a") || !strings.Contains(got, "page-b") {
		t.Errorf("pager received %q", got)
	}
}

func TestExportWritesArtifact(t *testing.T) {
	backend := newFakeBackend("dnsbot.service", "x", "y", "z")
	dir := t.TempDir()
	fixed := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	_, out, err := runViewer(t, backend, "4\n5\n", Options{
		ExportDir:   dir,
		ExportLines: 2,
		Now:         func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "exported 2 records") {
		t.Errorf("export not reported:\n%s", out)
	}
	if !strings.Contains(out, "dnsbot.service_logs_2025-03-01_103000.log") {
		t.Errorf("artifact path not reported:\n%s", out)
	}
}

func TestBackReturnsControl(t *testing.T) {
	backend := newFakeBackend("dnsbot.service", "one")
	_, _, err := runViewer(t, backend, "5\n", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if backend.queryCalls != 0 {
		t.Error("back must not query the backend")
	}
}

func TestClosedInputTerminates(t *testing.T) {
	backend := newFakeBackend("dnsbot.service", "one")
	_, _, err := runViewer(t, backend, "", Options{})
	if !errors.Is(err, core.ErrInputClosed) {
		t.Errorf("err = %v, want ErrInputClosed", err)
	}
}

func TestEmptyUnitRejectedBeforeBackend(t *testing.T) {
	backend := newFakeBackend("dnsbot.service", "one")
	out := &bytes.Buffer{}
	in := bufio.NewScanner(strings.NewReader("1\n5\n"))
	v := New(backend, core.Unit{}, in, out, Options{}, discard())
	err := v.Run(context.Background())
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if backend.queryCalls != 0 {
		t.Error("unresolved unit must be rejected before any backend call")
	}
}
