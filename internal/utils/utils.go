package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/beeep"
	log "github.com/sirupsen/logrus"
)

// ExpandTilde resolves a leading "~" or "~/" to the user's home directory.
// Other paths, including "~user" forms, are returned unchanged.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// AbsPath expands a leading tilde and returns the cleaned absolute path.
func AbsPath(path string) (string, error) {
	return filepath.Abs(ExpandTilde(path))
}

// SendNotification shows a desktop notification when enabled. Failures are
// logged and otherwise ignored.
func SendNotification(enabled bool, title string, message string) {
	if !enabled {
		return
	}
	if err := beeep.Notify(title, message, ""); err != nil {
		log.Warnf("Notification failed: %v", err)
	}
}
