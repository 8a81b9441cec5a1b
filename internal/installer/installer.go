package installer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/MuhammadGagah/native-speech-generation/internal/metrics"
)

var (
	// ErrDownload is returned when the bundle download fails for any
	// transport reason.
	ErrDownload = errors.New("bundle download failed")

	// ErrExtraction is returned when the downloaded archive is corrupt or
	// extraction is interrupted.
	ErrExtraction = errors.New("archive extraction failed")

	// ErrReplacement is returned when an existing install directory cannot
	// be renamed out of the way.
	ErrReplacement = errors.New("failed to replace installed directory")
)

// ProgressFunc receives install progress as a percentage in [0,100] and a
// short status message. Values are monotonically non-decreasing across one
// install operation. The callback runs on the worker goroutine; marshaling
// to a UI thread is the caller's concern.
type ProgressFunc func(percent int, message string)

// Installer downloads and installs the dependency bundle. A single install
// or replace operation is assumed in flight at a time; serializing reinstall
// requests is the caller's responsibility.
type Installer struct {
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates an installer. The supplied client carries the caller's
// download timeout; nil falls back to http.DefaultClient.
func New(client *http.Client, logger *slog.Logger, m *metrics.Metrics) *Installer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Installer{
		client:  client,
		logger:  logger,
		metrics: m,
	}
}

// EnsureInstalled downloads and installs the bundle at installDir unless the
// directory already exists. The result is a plain success flag; failure
// causes are logged, and retrying is a user-initiated action.
func (i *Installer) EnsureInstalled(ctx context.Context, url, installDir string, onProgress ProgressFunc) bool {
	if _, err := os.Stat(installDir); err == nil {
		i.logger.Info("Dependencies already installed, skipping check",
			slog.String("install_dir", installDir),
		)
		return true
	}
	return i.install(ctx, url, installDir, onProgress)
}

// Reinstall forces replacement of an existing install: the current directory
// is retired first, then the bundle is downloaded and installed fresh.
func (i *Installer) Reinstall(ctx context.Context, url, installDir string, onProgress ProgressFunc) bool {
	if _, err := os.Stat(installDir); err == nil {
		if err := i.RetireDirectory(installDir); err != nil {
			i.logger.Error("Failed to retire existing install directory",
				slog.String("install_dir", installDir),
				slog.String("error", err.Error()),
			)
			return false
		}
	}
	return i.install(ctx, url, installDir, onProgress)
}

// install runs one download+extract operation into installDir's parent.
func (i *Installer) install(ctx context.Context, url, installDir string, onProgress ProgressFunc) bool {
	opID := uuid.NewString()
	parent := filepath.Dir(installDir)

	if err := os.MkdirAll(parent, 0755); err != nil {
		i.logger.Error("Failed to create install parent directory",
			slog.String("parent", parent),
			slog.String("error", err.Error()),
		)
		return false
	}

	// Uniquely named per operation so overlapping installs never collide.
	archivePath := filepath.Join(parent, fmt.Sprintf("lib-%s.zip", opID))
	start := time.Now()

	i.logger.Info("Installing dependency bundle",
		slog.String("op_id", opID),
		slog.String("url", url),
		slog.String("install_dir", installDir),
	)

	if err := i.download(ctx, url, archivePath, onProgress); err != nil {
		i.logger.Error("Bundle download failed",
			slog.String("op_id", opID),
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		i.metrics.RecordDownloadFailed()
		return false
	}

	if err := i.extract(archivePath, parent, onProgress); err != nil {
		i.logger.Error("Bundle extraction failed",
			slog.String("op_id", opID),
			slog.String("archive", archivePath),
			slog.String("error", err.Error()),
		)
		i.metrics.RecordExtractionFailed()
		return false
	}

	duration := time.Since(start)
	i.logger.Info("Dependency bundle installed",
		slog.String("op_id", opID),
		slog.String("install_dir", installDir),
		slog.Duration("duration", duration),
	)
	i.metrics.RecordInstallCompleted(duration.Seconds())
	return true
}

// report invokes the progress callback when one is set.
func report(onProgress ProgressFunc, percent int, message string) {
	if onProgress != nil {
		onProgress(percent, message)
	}
}
