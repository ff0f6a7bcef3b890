package journal

import (
	"strconv"
	"strings"
	"time"

	"github.com/rasim-gh/botctl/pkg/core"
)

// noEntries is what journalctl prints when a unit's stream is empty.
const noEntries = "-- No entries --"

func queryArgs(unit string, n int) []string {
	return []string{"-u", unit, "-n", strconv.Itoa(n), "--no-pager", "-o", "short-iso"}
}

func followArgs(unit string) []string {
	return []string{"-f", "-u", unit, "-n", "0", "-o", "short-iso"}
}

func allArgs(unit string) []string {
	return []string{"-u", unit, "--no-pager", "-o", "short-iso"}
}

// splitRecords turns raw journalctl output into records, dropping the
// empty-stream marker and blank trailing lines.
func splitRecords(out []byte, unit string) []core.Record {
	var records []core.Record
	now := time.Now().UnixMilli()
	for _, line := range strings.Split(string(out), "\n") {
		if line == "" || strings.TrimSpace(line) == noEntries {
			continue
		}
		records = append(records, core.Record{Unit: unit, TsUnixMs: now, Text: line})
	}
	return records
}
