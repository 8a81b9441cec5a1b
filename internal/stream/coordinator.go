package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/MuhammadGagah/native-speech-generation/internal/audio"
	"github.com/MuhammadGagah/native-speech-generation/internal/metrics"
)

// ErrNoAudioProduced is returned when the producer stream ends without
// delivering a single audio payload.
var ErrNoAudioProduced = errors.New("no inline audio data produced by stream")

// containerExtensions maps recognized media types to trusted container
// extensions. Chunks with any other type are treated as raw linear PCM and
// wrapped in a WAV container before being written.
var containerExtensions = map[string]string{
	"audio/wav":       ".wav",
	"audio/x-wav":     ".wav",
	"audio/wave":      ".wav",
	"audio/vnd.wave":  ".wav",
	"audio/mpeg":      ".mp3",
	"audio/mp3":       ".mp3",
	"audio/ogg":       ".ogg",
	"application/ogg": ".ogg",
	"audio/flac":      ".flac",
	"audio/x-flac":    ".flac",
}

// segment is one persisted chunk. converted marks segments that arrived as
// raw PCM and were wrapped in a WAV container rather than declaring a wav
// content type themselves.
type segment struct {
	path      string
	ext       string
	converted bool
}

// Coordinator consumes a chunk stream and assembles the resulting audio
// segments into a single artifact.
type Coordinator struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewCoordinator creates a stream coordinator.
func NewCoordinator(logger *slog.Logger, m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		logger:  logger,
		metrics: m,
	}
}

// Assemble consumes chunks from src until exhaustion, persisting each audio
// payload as "<basePath>_<index><ext>", and returns the path of the final
// artifact. Cancellation is observed before each chunk is read and before
// each file write; once observed, Assemble stops without writing further
// segments and returns an empty path with no error. Already-written
// segments are left in place.
func (c *Coordinator) Assemble(ctx context.Context, src Source, basePath string) (string, error) {
	var segments []segment
	index := 0

	for {
		if ctx.Err() != nil {
			return c.cancelled(segments)
		}

		chunk, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return c.cancelled(segments)
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("reading chunk stream: %w", err)
		}

		if !chunk.HasAudio() {
			c.logger.Debug("Skipping chunk without audio payload",
				slog.String("mime_type", chunk.MimeType),
			)
			c.metrics.RecordChunkSkipped()
			continue
		}

		if ctx.Err() != nil {
			return c.cancelled(segments)
		}

		seg, err := c.persistChunk(chunk, basePath, index)
		if err != nil {
			return "", err
		}
		segments = append(segments, seg)
		index++
	}

	return c.finalize(basePath, segments)
}

// persistChunk writes one audio payload to disk as a segment file.
func (c *Coordinator) persistChunk(chunk Chunk, basePath string, index int) (segment, error) {
	ext := containerExtension(chunk.MimeType)
	payload := chunk.Data
	converted := false

	if ext == "" {
		// Unknown or raw linear PCM, wrap in a WAV container.
		payload = audio.ConvertToWAV(chunk.Data, chunk.MimeType)
		ext = ".wav"
		converted = true
	}

	path := fmt.Sprintf("%s_%d%s", basePath, index, ext)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return segment{}, fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return segment{}, fmt.Errorf("writing segment %s: %w", path, err)
	}

	c.logger.Info("Persisted audio segment",
		slog.String("path", path),
		slog.String("mime_type", chunk.MimeType),
		slog.Int("size_bytes", len(payload)),
		slog.Bool("converted", converted),
	)
	c.metrics.RecordSegmentPersisted(len(payload))

	return segment{path: path, ext: ext, converted: converted}, nil
}

// finalize decides what to return once the stream is exhausted: nothing,
// one segment, or a merged file.
func (c *Coordinator) finalize(basePath string, segments []segment) (string, error) {
	if len(segments) == 0 {
		c.metrics.RecordStreamEmpty()
		return "", ErrNoAudioProduced
	}
	if len(segments) == 1 {
		c.metrics.RecordStreamCompleted()
		return segments[0].path, nil
	}

	if !mergeable(segments) {
		// Mixed container formats: return the first segment rather than
		// failing the whole stream.
		c.logger.Warn("Segments have mixed container formats, returning first segment",
			slog.Int("segment_count", len(segments)),
			slog.String("first", segments[0].path),
		)
		c.metrics.RecordStreamCompleted()
		return segments[0].path, nil
	}

	paths := make([]string, len(segments))
	for n, s := range segments {
		paths[n] = s.path
	}

	c.metrics.RecordMergeAttempt()
	combined, err := audio.MergeFiles(paths, basePath+"_combined.wav")
	if err != nil {
		// Partial output beats total failure: fall back to the first
		// segment instead of surfacing the merge error.
		c.logger.Error("Failed to merge wav segments, falling back to first segment",
			slog.Int("segment_count", len(segments)),
			slog.String("error", err.Error()),
		)
		c.metrics.RecordMergeFailure()
		c.metrics.RecordStreamCompleted()
		return segments[0].path, nil
	}

	c.logger.Info("Merged wav segments",
		slog.Int("segment_count", len(segments)),
		slog.String("path", combined),
	)
	c.metrics.RecordStreamCompleted()
	return combined, nil
}

// cancelled finishes an assembly that observed the cancellation signal. No
// artifact is returned and no error is raised.
func (c *Coordinator) cancelled(segments []segment) (string, error) {
	c.logger.Info("Stream assembly cancelled",
		slog.Int("segments_written", len(segments)),
	)
	c.metrics.RecordStreamCancelled()
	return "", nil
}

// mergeable reports whether all segments are wav files of the same
// provenance. Segments that declared a wav content type merge with each
// other, as do raw PCM segments that were converted here; a mix of the two
// is returned as-is because the declared formats differed.
func mergeable(segments []segment) bool {
	for _, s := range segments {
		if s.ext != ".wav" {
			return false
		}
		if s.converted != segments[0].converted {
			return false
		}
	}
	return true
}

// containerExtension returns the trusted file extension for a declared
// content type, or "" when the type is unrecognized.
func containerExtension(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(mimeType))
	}
	return containerExtensions[mediaType]
}
