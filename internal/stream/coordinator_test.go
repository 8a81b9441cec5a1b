package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MuhammadGagah/native-speech-generation/internal/audio"
	"github.com/MuhammadGagah/native-speech-generation/internal/metrics"
)

func newTestCoordinator() *Coordinator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCoordinator(logger, metrics.New(prometheus.NewRegistry()))
}

// wavChunk builds a chunk that declares a wav content type and carries a
// complete container.
func wavChunk(rate int, raw []byte) Chunk {
	return Chunk{
		MimeType: "audio/wav",
		Data:     audio.ConvertToWAV(raw, fmt.Sprintf("audio/L16;rate=%d", rate)),
	}
}

func pcmChunk(raw []byte) Chunk {
	return Chunk{MimeType: "audio/L16;rate=24000", Data: raw}
}

func TestAssembleEmptyStream(t *testing.T) {
	c := newTestCoordinator()
	base := filepath.Join(t.TempDir(), "out")

	_, err := c.Assemble(context.Background(), NewSliceSource(), base)
	if !errors.Is(err, ErrNoAudioProduced) {
		t.Errorf("Expected ErrNoAudioProduced, got %v", err)
	}
}

func TestAssembleIgnoresPayloadlessChunks(t *testing.T) {
	c := newTestCoordinator()
	base := filepath.Join(t.TempDir(), "out")

	src := NewSliceSource(
		Chunk{MimeType: "text/plain"},
		Chunk{},
	)
	_, err := c.Assemble(context.Background(), src, base)
	if !errors.Is(err, ErrNoAudioProduced) {
		t.Errorf("Expected ErrNoAudioProduced for text-only stream, got %v", err)
	}
}

func TestAssembleSinglePCMChunk(t *testing.T) {
	c := newTestCoordinator()
	base := filepath.Join(t.TempDir(), "out")
	raw := []byte{1, 2, 3, 4, 5, 6}

	path, err := c.Assemble(context.Background(), NewSliceSource(pcmChunk(raw)), base)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if path != base+"_0.wav" {
		t.Errorf("Expected path %s, got %s", base+"_0.wav", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read artifact: %v", err)
	}
	if len(data) != len(raw)+44 {
		t.Errorf("Expected converted segment of %d bytes, got %d", len(raw)+44, len(data))
	}
}

func TestAssembleWAVPassthrough(t *testing.T) {
	c := newTestCoordinator()
	base := filepath.Join(t.TempDir(), "out")
	chunk := wavChunk(24000, []byte{9, 9, 9, 9})

	path, err := c.Assemble(context.Background(), NewSliceSource(chunk), base)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read artifact: %v", err)
	}
	if !bytes.Equal(data, chunk.Data) {
		t.Error("Declared wav chunk must be written unchanged")
	}
}

func TestAssembleMP3Passthrough(t *testing.T) {
	c := newTestCoordinator()
	base := filepath.Join(t.TempDir(), "out")
	payload := []byte{0xFF, 0xFB, 0x90, 0x00, 1, 2, 3}

	path, err := c.Assemble(context.Background(), NewSliceSource(Chunk{MimeType: "audio/mpeg", Data: payload}), base)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if path != base+"_0.mp3" {
		t.Errorf("Expected .mp3 segment path, got %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read artifact: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Error("Recognized container bytes must be written as-is")
	}
}

func TestAssembleMergesDeclaredWAVSegments(t *testing.T) {
	c := newTestCoordinator()
	base := filepath.Join(t.TempDir(), "out")
	frames1 := []byte{1, 1, 2, 2}
	frames2 := []byte{3, 3, 4, 4}

	src := NewSliceSource(wavChunk(24000, frames1), wavChunk(24000, frames2))
	path, err := c.Assemble(context.Background(), src, base)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if path != base+"_combined.wav" {
		t.Fatalf("Expected combined artifact, got %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read combined artifact: %v", err)
	}
	info, err := audio.ReadInfo(data)
	if err != nil {
		t.Fatalf("Combined artifact is not a valid wav: %v", err)
	}
	if info.DataSize != len(frames1)+len(frames2) {
		t.Errorf("Expected %d sample bytes, got %d", len(frames1)+len(frames2), info.DataSize)
	}
	if got := data[info.DataOffset : info.DataOffset+len(frames1)]; !bytes.Equal(got, frames1) {
		t.Error("Leading frames of combined artifact do not match the first segment")
	}
}

func TestAssembleMergesConvertedPCMSegments(t *testing.T) {
	c := newTestCoordinator()
	base := filepath.Join(t.TempDir(), "out")

	src := NewSliceSource(pcmChunk([]byte{1, 2, 3, 4}), pcmChunk([]byte{5, 6, 7, 8}))
	path, err := c.Assemble(context.Background(), src, base)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if path != base+"_combined.wav" {
		t.Errorf("Expected combined artifact for uniform PCM stream, got %s", path)
	}
}

func TestAssembleMixedProvenanceReturnsFirstSegment(t *testing.T) {
	c := newTestCoordinator()
	base := filepath.Join(t.TempDir(), "out")

	// Two declared wav chunks plus one raw PCM chunk: no merge attempt,
	// first segment wins.
	src := NewSliceSource(
		wavChunk(24000, []byte{1, 1}),
		wavChunk(24000, []byte{2, 2}),
		pcmChunk([]byte{3, 3}),
	)
	path, err := c.Assemble(context.Background(), src, base)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if path != base+"_0.wav" {
		t.Errorf("Expected first segment path, got %s", path)
	}
	if _, err := os.Stat(base + "_combined.wav"); !os.IsNotExist(err) {
		t.Error("No combined file may be created for mixed segments")
	}
}

func TestAssembleMixedContainersReturnsFirstSegment(t *testing.T) {
	c := newTestCoordinator()
	base := filepath.Join(t.TempDir(), "out")

	src := NewSliceSource(
		wavChunk(24000, []byte{1, 1}),
		Chunk{MimeType: "audio/mpeg", Data: []byte{0xFF, 0xFB, 1, 2}},
	)
	path, err := c.Assemble(context.Background(), src, base)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if path != base+"_0.wav" {
		t.Errorf("Expected first segment path, got %s", path)
	}
}

func TestAssembleMergeFailureFallsBackToFirstSegment(t *testing.T) {
	c := newTestCoordinator()
	base := filepath.Join(t.TempDir(), "out")

	// Same provenance but incompatible sample rates: the merge fails and
	// the failure is absorbed.
	src := NewSliceSource(wavChunk(24000, []byte{1, 1}), wavChunk(48000, []byte{2, 2}))
	path, err := c.Assemble(context.Background(), src, base)
	if err != nil {
		t.Fatalf("Merge failure must not fail the stream: %v", err)
	}
	if path != base+"_0.wav" {
		t.Errorf("Expected fallback to first segment, got %s", path)
	}
	if _, err := os.Stat(base + "_combined.wav"); !os.IsNotExist(err) {
		t.Error("Failed merge must not leave a combined file behind")
	}
}

func TestAssembleCancelledBeforeStart(t *testing.T) {
	c := newTestCoordinator()
	dir := t.TempDir()
	base := filepath.Join(dir, "out")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path, err := c.Assemble(ctx, NewSliceSource(pcmChunk([]byte{1, 2})), base)
	if err != nil {
		t.Fatalf("Cancellation must not raise an error, got %v", err)
	}
	if path != "" {
		t.Errorf("Cancelled assembly must return no artifact, got %s", path)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to list output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("No segments may be written after cancellation, found %d files", len(entries))
	}
}

// cancellingSource cancels the assembly after handing out its first chunk.
type cancellingSource struct {
	inner  Source
	cancel context.CancelFunc
	served bool
}

func (s *cancellingSource) Next(ctx context.Context) (Chunk, error) {
	chunk, err := s.inner.Next(ctx)
	if !s.served {
		s.served = true
		s.cancel()
	}
	return chunk, err
}

func TestAssembleCancelledMidStream(t *testing.T) {
	c := newTestCoordinator()
	dir := t.TempDir()
	base := filepath.Join(dir, "out")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &cancellingSource{
		inner:  NewSliceSource(pcmChunk([]byte{1, 2}), pcmChunk([]byte{3, 4})),
		cancel: cancel,
	}

	path, err := c.Assemble(ctx, src, base)
	if err != nil {
		t.Fatalf("Cancellation must not raise an error, got %v", err)
	}
	if path != "" {
		t.Errorf("Cancelled assembly must return no artifact, got %s", path)
	}

	// The cancel arrived before the first write, so nothing may be on disk.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to list output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no segment files, found %d", len(entries))
	}
}

func TestAssembleSegmentIndexesEncodeArrivalOrder(t *testing.T) {
	c := newTestCoordinator()
	base := filepath.Join(t.TempDir(), "out")

	src := NewSliceSource(
		pcmChunk([]byte{1, 1}),
		Chunk{MimeType: "text/plain"},
		pcmChunk([]byte{2, 2}),
		pcmChunk([]byte{3, 3}),
	)
	if _, err := c.Assemble(context.Background(), src, base); err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		p := fmt.Sprintf("%s_%d.wav", base, i)
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Expected segment %s: %v", p, err)
		}
	}
}
