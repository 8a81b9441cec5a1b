// Package audio handles audio format negotiation and container assembly.
// It parses content-type descriptors from streaming speech producers,
// synthesizes minimal PCM WAV containers from raw sample bytes, and merges
// same-format WAV segments into a single playable file.
package audio
