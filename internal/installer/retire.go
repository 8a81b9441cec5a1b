package installer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// trashInfix joins an install directory name to its uniqueness suffix.
const trashInfix = "_trash_"

// RetireDirectory renames dir to a uniquely-suffixed trash sibling and then
// attempts to delete the renamed copy. The rename is a directory-entry
// operation and succeeds even while individual files inside are open; the
// follow-up deletion is best-effort, and anything the OS still holds locked
// stays behind as trash for SweepRetired to collect at the next startup.
// A failed rename surfaces as ErrReplacement: falling back to deleting the
// live directory in place would not be crash-safe.
func (i *Installer) RetireDirectory(dir string) error {
	trash := fmt.Sprintf("%s%s%d", dir, trashInfix, time.Now().UnixNano())

	if err := os.Rename(dir, trash); err != nil {
		return fmt.Errorf("%w: %v", ErrReplacement, err)
	}

	if err := os.RemoveAll(trash); err != nil {
		i.logger.Warn("Trash directory still in use, deferring removal to next startup",
			slog.String("path", trash),
			slog.String("error", err.Error()),
		)
	} else {
		i.logger.Info("Retired install directory removed",
			slog.String("path", trash),
		)
	}
	return nil
}

// SweepRetired removes trash directories left behind by earlier
// replacements whose files were still locked. Run at process startup,
// before any dependency check, when the previous process's locks are
// expected to be released. Individual failures are logged and skipped;
// SweepRetired never fails.
func (i *Installer) SweepRetired(installDir string) {
	matches, err := filepath.Glob(installDir + trashInfix + "*")
	if err != nil {
		i.logger.Warn("Trash sweep pattern failed",
			slog.String("install_dir", installDir),
			slog.String("error", err.Error()),
		)
		return
	}

	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			i.logger.Warn("Failed to remove trash directory",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		i.logger.Info("Removed trash directory",
			slog.String("path", path),
		)
		i.metrics.RecordTrashSwept()
	}
}
