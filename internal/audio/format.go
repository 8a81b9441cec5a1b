package audio

import (
	"strconv"
	"strings"
)

// Default PCM parameters assumed when the producer omits or mangles the
// content-type descriptor. Streaming TTS APIs deliver mono linear PCM at
// 24 kHz / 16-bit unless they say otherwise.
const (
	DefaultBitsPerSample = 16
	DefaultSampleRate    = 24000
	DefaultChannels      = 1
)

// Format describes the PCM layout declared by an inline audio chunk.
type Format struct {
	BitsPerSample int
	SampleRate    int
	Channels      int
}

// DefaultFormat returns the all-defaults descriptor (16-bit, 24000 Hz, mono).
func DefaultFormat() Format {
	return Format{
		BitsPerSample: DefaultBitsPerSample,
		SampleRate:    DefaultSampleRate,
		Channels:      DefaultChannels,
	}
}

// ParseFormat extracts bit depth and sample rate from a content-type string
// such as "audio/L16;rate=24000". Parameters may appear in any order and any
// case. Malformed, missing, or non-numeric parameters keep their defaults.
// The producer is an external network API whose content-type formatting
// cannot be trusted, so ParseFormat never fails.
func ParseFormat(contentType string) Format {
	f := DefaultFormat()
	if contentType == "" {
		return f
	}

	for _, part := range strings.Split(contentType, ";") {
		p := strings.TrimSpace(part)
		lower := strings.ToLower(p)

		if strings.HasPrefix(lower, "rate=") {
			if v, err := strconv.Atoi(lower[len("rate="):]); err == nil {
				f.SampleRate = v
			}
		}

		// Tokens like audio/L16 or audio/L24 declare the bit depth.
		if strings.HasPrefix(lower, "audio/l") {
			if v, err := strconv.Atoi(lower[len("audio/l"):]); err == nil {
				f.BitsPerSample = v
			}
		}
	}

	return f
}
