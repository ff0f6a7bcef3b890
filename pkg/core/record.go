package core

// Record is a single journal entry for a unit. The text is opaque to the
// tool: records are counted, printed, and exported, never parsed.
type Record struct {
	Unit     string `json:"unit"`
	TsUnixMs int64  `json:"ts_unix_ms"`
	Text     string `json:"text"`
}
