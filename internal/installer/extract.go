package installer

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// extract unpacks the downloaded archive into destDir. The archive's
// internal top-level folder becomes the installed directory. The archive
// file is deleted on success and on failure, so a failed install never
// leaves a stale partial download behind.
func (i *Installer) extract(archivePath, destDir string, onProgress ProgressFunc) error {
	report(onProgress, 80, "Extracting libraries...")

	err := extractZip(archivePath, destDir)

	if err != nil {
		i.removeArchive(archivePath)
		return fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	report(onProgress, 100, "Extraction complete.")
	i.removeArchive(archivePath)
	return nil
}

// removeArchive deletes the temporary archive, logging rather than failing
// when the file is already gone or locked.
func (i *Installer) removeArchive(archivePath string) {
	if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
		i.logger.Warn("Failed to remove downloaded archive",
			slog.String("archive", archivePath),
			slog.String("error", err.Error()),
		)
	}
}

// extractZip unpacks every archive member under destDir.
func extractZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if err := extractMember(f, destDir); err != nil {
			return err
		}
	}
	return nil
}

// extractMember writes one archive member to disk, rejecting paths that
// escape the destination directory.
func extractMember(f *zip.File, destDir string) error {
	target := filepath.Clean(filepath.Join(destDir, f.Name))
	root := filepath.Clean(destDir)
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return fmt.Errorf("archive member escapes destination: %s", f.Name)
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, rc)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}
