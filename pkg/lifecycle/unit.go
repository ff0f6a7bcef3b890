package lifecycle

import (
	"fmt"
	"path/filepath"
)

// defaultUnitDir is where system-scope unit files live.
const defaultUnitDir = "/etc/systemd/system"

// UnitContents returns the systemd unit file for the bot service installed
// under installDir. The interpreter is addressed through the install's
// virtualenv, so only the base name of a configured python path matters.
func UnitContents(installDir, python string) string {
	python = filepath.Base(python)
	return fmt.Sprintf(`[Unit]
Description=Telegram DNS management bot
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
WorkingDirectory=%s
ExecStart=%s %s
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`, installDir, filepath.Join(installDir, ".venv", "bin", python), filepath.Join(installDir, "bot.py"))
}
