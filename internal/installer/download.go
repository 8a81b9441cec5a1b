package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// downloadChunkSize is the fixed read size for streaming the bundle body.
const downloadChunkSize = 8 * 1024

// Progress schedule: 10% baseline once the request starts, then linear
// interpolation up to 80% across the download body. Extraction covers the
// remaining 80-100 band.
const (
	progressDownloadStart = 10
	progressDownloadSpan  = 70
)

// download streams the bundle at url into archivePath, reporting progress
// after every block. Any transport failure removes the partial archive
// before the error is surfaced. No retry is attempted.
func (i *Installer) download(ctx context.Context, url, archivePath string, onProgress ProgressFunc) error {
	report(onProgress, progressDownloadStart, "Downloading libraries...")
	i.metrics.RecordDownloadStarted()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %s", ErrDownload, resp.Status)
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}

	written, err := copyBody(out, resp.Body, resp.ContentLength, onProgress)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(archivePath)
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}

	i.metrics.AddDownloadBytes(written)
	return nil
}

// copyBody copies the response body to out in fixed-size reads. When the
// server reports a total length, progress is interpolated across the body;
// otherwise the whole body is written in one pass without interpolation.
func copyBody(out io.Writer, body io.Reader, total int64, onProgress ProgressFunc) (int64, error) {
	if total <= 0 {
		return io.Copy(out, body)
	}

	buf := make([]byte, downloadChunkSize)
	var transferred int64
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return transferred, werr
			}
			transferred += int64(n)
			percent := progressDownloadStart + int(transferred*progressDownloadSpan/total)
			report(onProgress, percent, "Downloading...")
		}
		if err == io.EOF {
			return transferred, nil
		}
		if err != nil {
			return transferred, err
		}
	}
}
