package viewer

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rasim-gh/botctl/pkg/core"
)

// Artifact is a file snapshot of a bounded set of records, uniquely named
// per export call.
type Artifact struct {
	Path      string
	Unit      string
	CreatedAt time.Time
	Records   int
}

// Export queries the most recent records for the unit and snapshots them
// into a new artifact under opts.ExportDir.
func Export(ctx context.Context, backend core.Backend, unit string, opts Options) (Artifact, error) {
	opts = opts.withDefaults()
	records, err := backend.QueryLast(ctx, unit, opts.ExportLines)
	if err != nil {
		return Artifact{}, err
	}
	return writeArtifact(opts.ExportDir, unit, records, opts.Now())
}

// exportFilename builds the artifact name: <unit>_logs_<YYYY-MM-DD_HHMMSS>.log.
// Second granularity keeps paths unique per invocation under normal clock
// resolution; a same-second collision fails at open time instead of
// overwriting.
func exportFilename(unit string, t time.Time) string {
	name := strings.ReplaceAll(unit, string(os.PathSeparator), "-")
	return fmt.Sprintf("%s_logs_%s.log", name, t.Format("2006-01-02_150405"))
}

// writeArtifact writes every record to a newly created file. The file is
// opened with O_EXCL: an existing path is a failure, never an overwrite.
func writeArtifact(dir, unit string, records []core.Record, t time.Time) (Artifact, error) {
	path := filepath.Join(dir, exportFilename(unit, t))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Artifact{}, fmt.Errorf("create export: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, rec := range records {
		if _, err := w.WriteString(rec.Text); err != nil {
			f.Close()
			os.Remove(path)
			return Artifact{}, fmt.Errorf("write export: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			f.Close()
			os.Remove(path)
			return Artifact{}, fmt.Errorf("write export: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return Artifact{}, fmt.Errorf("flush export: %w", err)
	}
	if err := f.Close(); err != nil {
		return Artifact{}, fmt.Errorf("close export: %w", err)
	}

	return Artifact{Path: path, Unit: unit, CreatedAt: t, Records: len(records)}, nil
}
