package stream

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Chunk is one unit of inline data delivered by the speech producer. A
// chunk may carry no audio payload at all, for example a text-only progress
// update emitted mid-stream.
type Chunk struct {
	MimeType string
	Data     []byte
}

// HasAudio reports whether the chunk carries an audio payload.
func (c Chunk) HasAudio() bool {
	return len(c.Data) > 0
}

// Source yields chunks in arrival order. Next returns io.EOF once the
// producer has exhausted the stream; there is no explicit end-of-stream
// message.
type Source interface {
	Next(ctx context.Context) (Chunk, error)
}

// SliceSource replays a fixed sequence of chunks. Used for captured-stream
// replay and in tests.
type SliceSource struct {
	chunks []Chunk
	pos    int
}

// NewSliceSource creates a source that yields the given chunks in order.
func NewSliceSource(chunks ...Chunk) *SliceSource {
	return &SliceSource{chunks: chunks}
}

// Next returns the next chunk or io.EOF when the sequence is exhausted.
func (s *SliceSource) Next(ctx context.Context) (Chunk, error) {
	if err := ctx.Err(); err != nil {
		return Chunk{}, err
	}
	if s.pos >= len(s.chunks) {
		return Chunk{}, io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}

// replayTypes maps file extensions in a capture directory back to the
// content type the producer would have declared for them.
var replayTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
}

// rawReplayType is assumed for capture files with no recognized container
// extension. They are treated as raw linear PCM.
const rawReplayType = "audio/L16;rate=24000"

// DirSource replays a directory of captured chunk payloads, one file per
// chunk, in lexical filename order.
type DirSource struct {
	paths []string
	pos   int
}

// NewDirSource lists dir and prepares its files for replay.
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading chunk directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	return &DirSource{paths: paths}, nil
}

// Next reads the next capture file and returns it as a chunk.
func (d *DirSource) Next(ctx context.Context) (Chunk, error) {
	if err := ctx.Err(); err != nil {
		return Chunk{}, err
	}
	if d.pos >= len(d.paths) {
		return Chunk{}, io.EOF
	}

	path := d.paths[d.pos]
	d.pos++

	data, err := os.ReadFile(path)
	if err != nil {
		return Chunk{}, fmt.Errorf("reading chunk file %s: %w", path, err)
	}

	mimeType, ok := replayTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		mimeType = rawReplayType
	}
	return Chunk{MimeType: mimeType, Data: data}, nil
}
