package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrEmptyInput is returned when a merge is requested with no inputs.
	ErrEmptyInput = errors.New("no input wav files to merge")

	// ErrIncompatibleFormat is returned when input files do not share
	// identical sample parameters. No resampling is attempted.
	ErrIncompatibleFormat = errors.New("wav files have different parameters")
)

// MergeFiles concatenates PCM WAV files that share identical sample
// parameters into outputPath and returns the path of the resulting file.
// The first file's parameters are canonical; a mismatch in any later file
// fails the merge before anything is written, so a failed merge leaves no
// output behind. A single input is returned as-is without creating a file.
// Input files are never deleted; retention is the caller's decision.
func MergeFiles(inputPaths []string, outputPath string) (string, error) {
	if len(inputPaths) == 0 {
		return "", ErrEmptyInput
	}
	if len(inputPaths) == 1 {
		return inputPaths[0], nil
	}

	var canonical Info
	var frames [][]byte
	totalSize := 0

	for n, path := range inputPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading wav segment %s: %w", path, err)
		}
		info, err := ReadInfo(data)
		if err != nil {
			return "", fmt.Errorf("parsing wav segment %s: %w", path, err)
		}
		if n == 0 {
			canonical = info
		} else if !info.sameParams(canonical) {
			return "", fmt.Errorf("%w: %s", ErrIncompatibleFormat, path)
		}
		frames = append(frames, data[info.DataOffset:info.DataOffset+info.DataSize])
		totalSize += info.DataSize
	}

	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + uint32(totalSize),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   canonical.AudioFormat,
		NumChannels:   canonical.Channels,
		SampleRate:    canonical.SampleRate,
		ByteRate:      canonical.SampleRate * uint32(canonical.Channels) * uint32(canonical.BitsPerSample) / 8,
		BlockAlign:    canonical.Channels * canonical.BitsPerSample / 8,
		BitsPerSample: canonical.BitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(totalSize),
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+totalSize))
	_ = binary.Write(buf, binary.LittleEndian, header)
	for _, fr := range frames {
		buf.Write(fr)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing merged wav %s: %w", outputPath, err)
	}
	return outputPath, nil
}
