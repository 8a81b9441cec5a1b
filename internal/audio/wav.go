package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// wavHeader is the canonical 44-byte PCM WAV header layout. All multi-byte
// fields are little-endian.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // 36 + data length
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * BlockAlign
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // data length
}

// headerSize is the byte length of the synthesized header.
const headerSize = 44

// ConvertToWAV wraps raw little-endian linear PCM bytes in a minimal WAV
// container described by the chunk's content type. When the content type
// already names a WAV container the input is a complete file and is returned
// unchanged. The header is packed field by field so outputs are
// byte-for-byte reproducible.
func ConvertToWAV(data []byte, contentType string) []byte {
	if strings.Contains(strings.ToLower(contentType), "wav") {
		return data
	}

	f := ParseFormat(contentType)
	blockAlign := f.Channels * f.BitsPerSample / 8
	byteRate := f.SampleRate * blockAlign
	dataSize := uint32(len(data))

	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(f.Channels),
		SampleRate:    uint32(f.SampleRate),
		ByteRate:      uint32(byteRate),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: uint16(f.BitsPerSample),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(data)))
	// Writing fixed-size fields to a bytes.Buffer cannot fail.
	_ = binary.Write(buf, binary.LittleEndian, header)
	buf.Write(data)
	return buf.Bytes()
}

// Info describes the sample layout of a parsed WAV container along with the
// position of its sample data.
type Info struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	DataOffset    int
	DataSize      int
}

// sameParams reports whether two containers share identical sample
// parameters and can be concatenated without reinterpretation.
func (i Info) sameParams(o Info) bool {
	return i.AudioFormat == o.AudioFormat &&
		i.Channels == o.Channels &&
		i.SampleRate == o.SampleRate &&
		i.BitsPerSample == o.BitsPerSample
}

// ReadInfo parses a WAV container and returns its sample parameters and
// data location. It walks the RIFF chunk list rather than assuming a fixed
// 44-byte layout, so containers carrying extra chunks (LIST, fact) between
// "fmt " and "data" are handled.
func ReadInfo(data []byte) (Info, error) {
	if len(data) < 12 {
		return Info{}, fmt.Errorf("wav data too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" {
		return Info{}, fmt.Errorf("invalid wav file: missing RIFF header")
	}
	if string(data[8:12]) != "WAVE" {
		return Info{}, fmt.Errorf("invalid wav file: missing WAVE format")
	}

	var info Info
	var haveFmt, haveData bool

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 || body+16 > len(data) {
				return Info{}, fmt.Errorf("invalid wav file: truncated fmt chunk")
			}
			info.AudioFormat = binary.LittleEndian.Uint16(data[body : body+2])
			info.Channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			info.SampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			info.BitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
			haveFmt = true
		case "data":
			if body+chunkSize > len(data) {
				return Info{}, fmt.Errorf("invalid wav file: truncated data chunk")
			}
			info.DataOffset = body
			info.DataSize = chunkSize
			haveData = true
		}

		if haveFmt && haveData {
			return info, nil
		}

		// RIFF chunks are padded to even byte boundaries.
		offset = body + chunkSize + chunkSize%2
	}

	if !haveFmt {
		return Info{}, fmt.Errorf("invalid wav file: missing fmt chunk")
	}
	return Info{}, fmt.Errorf("invalid wav file: missing data chunk")
}
